package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/GetFlawed/HouseFinder/internal/models"
)

func newTestArchive(t *testing.T) *SQLiteArchive {
	t.Helper()
	a, err := NewSQLiteArchive(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory archive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewSQLiteArchiveEmptyPath(t *testing.T) {
	if _, err := NewSQLiteArchive(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestNewSQLiteArchiveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "listings.db")
	a, err := NewSQLiteArchive(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.Close()
}

func TestRecordAndListAll(t *testing.T) {
	a := newTestArchive(t)

	props := []models.Property{
		{Link: "https://a.example", Name: "A", Price: "£900 pcm", Bedrooms: 1, Bathrooms: 1, Source: models.SourceRightmove},
		{Link: "https://b.example", Name: "B", Price: "£1,200 pcm", Bedrooms: 2, Bathrooms: 1, Source: models.SourceZoopla},
	}
	if err := a.Record(context.Background(), props); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listings, err := a.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}

	for _, l := range listings {
		if l.FirstSeen == 0 || l.LastSeen == 0 {
			t.Errorf("expected observation timestamps, got first=%d last=%d", l.FirstSeen, l.LastSeen)
		}
		if l.FirstSeen != l.LastSeen {
			t.Errorf("expected first_seen == last_seen on initial record, got %d/%d", l.FirstSeen, l.LastSeen)
		}
	}
}

func TestRecordUpsertKeepsFirstSeen(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	prop := models.Property{Link: "https://a.example", Name: "A", Price: "£900 pcm", Source: models.SourceRightmove}
	if err := a.Record(ctx, []models.Property{prop}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	initial, err := a.ListAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prop.Price = "£950 pcm"
	if err := a.Record(ctx, []models.Property{prop}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := a.ListAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated) != 1 {
		t.Fatalf("expected 1 listing after upsert, got %d", len(updated))
	}

	if updated[0].Price != "£950 pcm" {
		t.Errorf("expected updated price, got %s", updated[0].Price)
	}
	if updated[0].FirstSeen != initial[0].FirstSeen {
		t.Errorf("expected first_seen to survive upsert: %d != %d", updated[0].FirstSeen, initial[0].FirstSeen)
	}
	if updated[0].LastSeen < initial[0].LastSeen {
		t.Errorf("expected last_seen to move forward: %d < %d", updated[0].LastSeen, initial[0].LastSeen)
	}
}

func TestRecordSkipsEmptyLink(t *testing.T) {
	a := newTestArchive(t)

	props := []models.Property{
		{Link: "", Name: "No Link"},
		{Link: "https://a.example", Name: "A", Source: models.SourceRightmove},
	}
	if err := a.Record(context.Background(), props); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listings, err := a.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 {
		t.Errorf("expected 1 listing, got %d", len(listings))
	}
}

func TestRecordNothing(t *testing.T) {
	a := newTestArchive(t)

	if err := a.Record(context.Background(), nil); err != nil {
		t.Errorf("expected recording nothing to succeed, got %v", err)
	}
}

func TestListAllEmpty(t *testing.T) {
	a := newTestArchive(t)

	listings, err := a.ListAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 0 {
		t.Errorf("expected no listings, got %d", len(listings))
	}
}
