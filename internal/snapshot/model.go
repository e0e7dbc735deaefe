package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Metadata records which run last wrote the snapshot.
type Metadata struct {
	LastUpdate int64  `json:"lastUpdate"` // Unix timestamp in milliseconds
	LastRunID  string `json:"lastRunId,omitempty"`
}

// Document is the persisted set of listing links already notified about.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Seen     []string `json:"seen" validate:"dive,required"`
}

// NewDocument builds a normalized document from a list of listing links.
func NewDocument(seen []string) *Document {
	doc := &Document{Seen: append([]string{}, seen...)}
	doc.Normalize()
	return doc
}

// ApplyDefaults sets fallback values after decode.
func (d *Document) ApplyDefaults() {
	if d.Seen == nil {
		d.Seen = []string{}
	}
}

// Normalize sorts the seen links and drops duplicates and empty entries so
// that saved snapshots diff cleanly.
func (d *Document) Normalize() {
	d.Seen = sortedUnique(d.Seen)
}

// SeenSet returns the seen links as a set for membership checks.
func (d *Document) SeenSet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.Seen))
	for _, link := range d.Seen {
		set[link] = struct{}{}
	}
	return set
}

// SameSeen compares two documents by their link sets, ignoring metadata,
// ordering and duplicates.
func SameSeen(a, b *Document) bool {
	if a == nil || b == nil {
		return a == b
	}
	as := sortedUnique(a.Seen)
	bs := sortedUnique(b.Seen)
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Decode parses snapshot bytes. Early versions persisted a bare JSON array of
// links; those are upgraded to the document form with zeroed metadata. The
// second return value reports whether the legacy form was found.
func Decode(data []byte) (*Document, bool, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, false, errors.New("snapshot data is empty")
	}

	if trimmed[0] == '[' {
		var seen []string
		if err := json.Unmarshal(data, &seen); err != nil {
			return nil, true, fmt.Errorf("decode legacy snapshot: %w", err)
		}
		doc := &Document{Seen: seen}
		doc.ApplyDefaults()
		return doc, true, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	doc.ApplyDefaults()
	return &doc, false, nil
}

func sortedUnique(links []string) []string {
	unique := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, link := range links {
		if link == "" {
			continue
		}
		if _, ok := unique[link]; ok {
			continue
		}
		unique[link] = struct{}{}
		out = append(out, link)
	}
	sort.Strings(out)
	return out
}
