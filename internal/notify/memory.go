package notify

import (
	"context"
	"sync"

	"github.com/GetFlawed/HouseFinder/internal/logger"
	"github.com/GetFlawed/HouseFinder/internal/models"
)

// MemoryNotifier records notifications instead of delivering them. It backs
// tests and dry runs where new listings should not reach a real webhook.
type MemoryNotifier struct {
	mu   sync.RWMutex
	sent []models.Property
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (m *MemoryNotifier) Notify(_ context.Context, prop models.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	logger.WithComponent("memory-notify").Debugf("recording notification for: %s", prop.Link)
	m.sent = append(m.sent, prop)
	return nil
}

// Sent returns the recorded notifications in delivery order.
func (m *MemoryNotifier) Sent() []models.Property {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Property, len(m.sent))
	copy(out, m.sent)
	return out
}
