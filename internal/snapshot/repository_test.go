package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewJSONRepositoryEmptyPath(t *testing.T) {
	if _, err := NewJSONRepository(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestLoadMissingFile(t *testing.T) {
	repo, err := NewJSONRepository(filepath.Join(t.TempDir(), "seen.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("expected missing file to load as empty set, got error: %v", err)
	}
	if len(doc.Seen) != 0 {
		t.Errorf("expected empty seen set, got %v", doc.Seen)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	repo, _ := NewJSONRepository(path)
	doc, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("expected empty file to load as empty set, got error: %v", err)
	}
	if len(doc.Seen) != 0 {
		t.Errorf("expected empty seen set, got %v", doc.Seen)
	}
}

func TestLoadLegacyArrayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	content := `["https://www.rightmove.co.uk/properties/1", "https://www.zoopla.co.uk/to-rent/details/2"]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	repo, _ := NewJSONRepository(path)
	doc, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Seen) != 2 {
		t.Errorf("expected 2 seen links from legacy file, got %d", len(doc.Seen))
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	if err := os.WriteFile(path, []byte("not valid json"), 0o644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	repo, _ := NewJSONRepository(path)
	if _, err := repo.Load(context.Background()); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadCanceledContext(t *testing.T) {
	repo, _ := NewJSONRepository(filepath.Join(t.TempDir(), "seen.json"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.Load(ctx); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	repo, _ := NewJSONRepository(path)

	doc := &Document{
		Metadata: Metadata{LastUpdate: 1700000000000, LastRunID: "run-1"},
		Seen:     []string{"https://b.example", "https://a.example"},
	}
	if err := repo.Save(context.Background(), doc); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if loaded.Metadata.LastRunID != "run-1" {
		t.Errorf("expected lastRunId run-1, got %s", loaded.Metadata.LastRunID)
	}

	expected := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(loaded.Seen, expected) {
		t.Errorf("expected sorted seen %v, got %v", expected, loaded.Seen)
	}
}

func TestSaveWritesDocumentFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	repo, _ := NewJSONRepository(path)

	if err := repo.Save(context.Background(), NewDocument([]string{"https://a.example"})); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read saved file: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("expected document object on disk, got: %s", data)
	}
	if _, ok := raw["metadata"]; !ok {
		t.Error("expected metadata key in saved snapshot")
	}
	if _, ok := raw["seen"]; !ok {
		t.Error("expected seen key in saved snapshot")
	}
}

func TestSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "seen.json")
	repo, _ := NewJSONRepository(path)

	if err := repo.Save(context.Background(), NewDocument([]string{"https://a.example"})); err != nil {
		t.Fatalf("failed to save into missing dir: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected snapshot file to exist: %v", err)
	}
}

func TestSaveNilDocument(t *testing.T) {
	repo, _ := NewJSONRepository(filepath.Join(t.TempDir(), "seen.json"))

	if err := repo.Save(context.Background(), nil); err == nil {
		t.Error("expected error for nil document")
	}
}

func TestSaveCanceledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	repo, _ := NewJSONRepository(path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := repo.Save(ctx, NewDocument([]string{"https://a.example"})); err == nil {
		t.Error("expected error for canceled context")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected no file to be written for canceled context")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seen.json")
	repo, _ := NewJSONRepository(path)

	if err := repo.Save(context.Background(), NewDocument([]string{"https://a.example"})); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "seen.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only seen.json in dir, got %v", names)
	}
}

func writeSnapshotFile(t *testing.T, path string, doc *Document) {
	t.Helper()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal test doc: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
}

func TestMakeWatcherCallbackReloadsWhenDiskNewer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	writeSnapshotFile(t, path, &Document{
		Metadata: Metadata{LastUpdate: 2000},
		Seen:     []string{"https://a.example", "https://b.example"},
	})

	repo, _ := NewJSONRepository(path)
	store := NewStore(Document{Metadata: Metadata{LastUpdate: 1000}, Seen: []string{"https://a.example"}})

	repo.MakeWatcherCallback(store)()

	if store.Len() != 2 {
		t.Errorf("expected store reloaded with 2 links, got %d", store.Len())
	}
	if store.LastUpdate() != 2000 {
		t.Errorf("expected store lastUpdate 2000, got %d", store.LastUpdate())
	}
}

func TestMakeWatcherCallbackSkipsWhenDiskOlder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	writeSnapshotFile(t, path, &Document{
		Metadata: Metadata{LastUpdate: 500},
		Seen:     []string{"https://a.example", "https://b.example"},
	})

	repo, _ := NewJSONRepository(path)
	store := NewStore(Document{Metadata: Metadata{LastUpdate: 1000}, Seen: []string{"https://a.example"}})

	repo.MakeWatcherCallback(store)()

	if store.Len() != 1 {
		t.Errorf("expected store untouched, got %d links", store.Len())
	}
}

func TestMakeWatcherCallbackSkipsWhenSameContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	writeSnapshotFile(t, path, &Document{
		Metadata: Metadata{LastUpdate: 1000},
		Seen:     []string{"https://a.example"},
	})

	repo, _ := NewJSONRepository(path)
	store := NewStore(Document{Metadata: Metadata{LastUpdate: 1000}, Seen: []string{"https://a.example"}})

	repo.MakeWatcherCallback(store)()

	if store.Len() != 1 {
		t.Errorf("expected store unchanged, got %d links", store.Len())
	}
}

func TestMakeWatcherCallbackIgnoresCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	repo, _ := NewJSONRepository(path)
	store := NewStore(Document{Metadata: Metadata{LastUpdate: 1000}, Seen: []string{"https://a.example"}})

	repo.MakeWatcherCallback(store)()

	if store.Len() != 1 {
		t.Errorf("expected store untouched on corrupt file, got %d links", store.Len())
	}
}
