package notify

import (
	"context"
	"fmt"

	"github.com/GetFlawed/HouseFinder/internal/config"
	"github.com/GetFlawed/HouseFinder/internal/models"
)

// Notifier delivers a notification for one new listing.
type Notifier interface {
	Notify(ctx context.Context, prop models.Property) error
}

// NewFromConfig creates a Notifier based on the configured mode.
// "memory" records notifications in process and is used by tests and dry
// runs; "discord" (default) posts to the configured webhook.
func NewFromConfig(cfg config.NotificationsConfig) (Notifier, error) {
	switch cfg.Mode {
	case config.NotifyModeMemory:
		return NewMemoryNotifier(), nil
	case config.NotifyModeDiscord, "":
		return NewDiscordNotifier(cfg.Discord.WebhookURL, cfg.Discord.Timeout)
	default:
		return nil, fmt.Errorf("unknown notification mode: %s (supported: %s, %s)", cfg.Mode, config.NotifyModeDiscord, config.NotifyModeMemory)
	}
}
