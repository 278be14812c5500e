package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ajitpratap0/edgar-entities/internal/models"
)

// Snapshot is the serialized output mapping of one run.
type Snapshot struct {
	RunID     string                     `json:"run_id"`
	CreatedAt time.Time                  `json:"created_at"`
	Sources   []string                   `json:"sources,omitempty"`
	Stats     models.ClassificationStats `json:"stats"`
	Records   []models.Record            `json:"records"`
}

// NewSnapshot captures every record of st, ordered by identifier.
func NewSnapshot(ctx context.Context, st Store, runID string, sources []string) (*Snapshot, error) {
	recs, _, err := st.List(ctx, nil, 0, "")
	if err != nil {
		return nil, fmt.Errorf("snapshot: listing records: %w", err)
	}
	stats, err := st.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: computing stats: %w", err)
	}
	if recs == nil {
		recs = []models.Record{}
	}
	return &Snapshot{
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
		Sources:   sources,
		Stats:     *stats,
		Records:   recs,
	}, nil
}

// WriteSnapshot encodes snap as indented JSON.
func WriteSnapshot(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("snapshot: encoding: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("snapshot: decoding: %w", err)
	}
	return &snap, nil
}

// SaveSnapshot writes snap to path atomically via a temporary file.
func SaveSnapshot(path string, snap *Snapshot) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("snapshot: creating directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("snapshot: creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := WriteSnapshot(tmp, snap); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot: renaming into place: %w", err)
	}
	return nil
}

// LoadSnapshot reads the snapshot at path.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("snapshot: opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadSnapshot(f)
}

// LoadInto restores a snapshot file into a memory store.
func LoadInto(ctx context.Context, path string, st *MemoryStore) (*Snapshot, error) {
	snap, err := LoadSnapshot(path)
	if err != nil {
		return nil, err
	}
	if err := st.Restore(ctx, snap.Records); err != nil {
		return nil, fmt.Errorf("snapshot: restoring: %w", err)
	}
	return snap, nil
}
