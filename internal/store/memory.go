package store

import (
	"cmp"
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/edgar-entities/internal/metrics"
	"github.com/ajitpratap0/edgar-entities/internal/models"
)

const (
	// DefaultShards is the default number of independently locked partitions.
	DefaultShards = 32

	// DefaultClassifyWorkers is the default parallelism of ClassifyAll.
	DefaultClassifyWorkers = 8
)

// MemoryStore is an in-memory Store sharded by identifier hash. Each shard has
// its own lock, so ingestion for one identifier is always serialized while
// different identifiers proceed independently.
type MemoryStore struct {
	shards  []*shard
	workers int
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

type shard struct {
	mu      sync.RWMutex
	records map[string]*models.Record
}

// NewMemoryStore creates a store. Non-positive shards or workers fall back to
// the defaults; m may be nil.
func NewMemoryStore(shards, workers int, m *metrics.Metrics, logger *slog.Logger) *MemoryStore {
	if shards <= 0 {
		shards = DefaultShards
	}
	if workers <= 0 {
		workers = DefaultClassifyWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &MemoryStore{
		shards:  make([]*shard, shards),
		workers: workers,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for i := range s.shards {
		s.shards[i] = &shard{records: make(map[string]*models.Record)}
	}
	return s
}

func (s *MemoryStore) shardFor(identifier string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identifier))
	return s.shards[h.Sum32()%uint32(len(s.shards))] //nolint:gosec // len is positive and small
}

// Ingest merges a sighting. The first display name seen for an identifier is
// kept as its original name; a later name that matches neither the original
// nor a recorded variant is appended as a variant. A form type already in the
// history is dropped so the first filing date seen for it is retained.
func (s *MemoryStore) Ingest(_ context.Context, sg models.Sighting) error {
	sg.Identifier = strings.TrimSpace(sg.Identifier)
	sg.FormType = strings.TrimSpace(sg.FormType)
	if sg.Identifier == "" || sg.FormType == "" {
		return fmt.Errorf("%w: identifier=%q form_type=%q", ErrInvalidSighting, sg.Identifier, sg.FormType)
	}

	sh := s.shardFor(sg.Identifier)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	rec, ok := sh.records[sg.Identifier]
	if !ok {
		sh.records[sg.Identifier] = &models.Record{
			Identifier:   sg.Identifier,
			OriginalName: sg.Name,
			NameVariants: []models.NameVariant{},
			Forms:        []models.Filing{sg.Filing()},
			FirstSeenAt:  now,
			UpdatedAt:    now,
		}
		s.metrics.IncIngested()
		return nil
	}

	if !rec.HasName(sg.Name) {
		rec.NameVariants = append(rec.NameVariants, models.NameVariant{Name: sg.Name, Filing: sg.Filing()})
		s.metrics.IncNameVariant()
	}

	if rec.HasForm(sg.FormType) {
		s.metrics.IncFormDeduplicated()
	} else {
		rec.Forms = append(rec.Forms, sg.Filing())
		// The form-type set changed, so any earlier outcome is stale.
		rec.Classification = nil
	}
	rec.UpdatedAt = now
	s.metrics.IncIngested()
	return nil
}

// Get retrieves a copy of a record.
func (s *MemoryStore) Get(_ context.Context, identifier string) (*models.Record, error) {
	sh := s.shardFor(identifier)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	rec, ok := sh.records[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, identifier)
	}
	return rec.Clone(), nil
}

// List returns matching records ordered by identifier with cursor-based pagination.
func (s *MemoryStore) List(_ context.Context, filters *Filters, limit int, cursor string) ([]models.Record, string, error) {
	var all []models.Record
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, rec := range sh.records {
			if matchesFilters(rec, filters) {
				all = append(all, *rec.Clone())
			}
		}
		sh.mu.RUnlock()
	}

	slices.SortFunc(all, func(a, b models.Record) int {
		return cmp.Compare(a.Identifier, b.Identifier)
	})

	// Resume after the cursor (identifier of last item from previous page).
	// The cursor record may no longer match the filters; the page then
	// starts at the next identifier after it.
	if cursor != "" {
		i, found := slices.BinarySearchFunc(all, cursor, func(r models.Record, id string) int {
			return cmp.Compare(r.Identifier, id)
		})
		if found {
			i++
		}
		all = all[i:]
	}

	var next string
	if limit > 0 && len(all) > limit {
		all = all[:limit]
		next = all[len(all)-1].Identifier
	}
	return all, next, nil
}

// ClassifyAll classifies every record in parallel, one task per shard.
func (s *MemoryStore) ClassifyAll(ctx context.Context, cls Classifier) error {
	if s.Len() == 0 {
		return ErrEmptyPopulation
	}
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, sh := range s.shards {
		g.Go(func() error {
			sh.mu.Lock()
			defer sh.mu.Unlock()
			for _, rec := range sh.records {
				if err := gctx.Err(); err != nil {
					return err
				}
				c := cls.Classify(rec.OriginalName, rec.FormTypes())
				rec.Classification = &c
				s.metrics.IncClassification(string(c.Kind))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("classify all: %w", err)
	}

	elapsed := time.Since(start)
	s.metrics.ObserveClassifyAll(elapsed)
	s.logger.Info("classified records", "count", s.Len(), "duration", elapsed)
	return nil
}

// Stats counts records by outcome kind.
func (s *MemoryStore) Stats(_ context.Context) (*models.ClassificationStats, error) {
	stats := &models.ClassificationStats{ByFlags: make(map[string]int64)}
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, rec := range sh.records {
			stats.Add(rec.Classification)
		}
		sh.mu.RUnlock()
	}
	return stats, nil
}

// Len returns the number of records.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.records)
		sh.mu.RUnlock()
	}
	return n
}

// Restore replaces the records for the given identifiers, e.g. when loading
// a snapshot. Slices are copied so the caller keeps ownership of recs.
func (s *MemoryStore) Restore(_ context.Context, recs []models.Record) error {
	for i := range recs {
		if recs[i].Identifier == "" {
			return fmt.Errorf("restore: record %d: %w: empty identifier", i, ErrInvalidSighting)
		}
		rec := recs[i].Clone()
		if rec.NameVariants == nil {
			rec.NameVariants = []models.NameVariant{}
		}
		sh := s.shardFor(rec.Identifier)
		sh.mu.Lock()
		sh.records[rec.Identifier] = rec
		sh.mu.Unlock()
	}
	return nil
}

func matchesFilters(rec *models.Record, f *Filters) bool {
	if f == nil {
		return true
	}
	if f.Kind != nil {
		if rec.Classification == nil || rec.Classification.Kind != *f.Kind {
			return false
		}
	}
	if f.Flag != nil {
		if rec.Classification == nil || !slices.Contains(rec.Classification.Flags, *f.Flag) {
			return false
		}
	}
	if f.FormType != nil && !rec.HasForm(*f.FormType) {
		return false
	}
	if f.NameContains != "" {
		needle := strings.ToLower(f.NameContains)
		if strings.Contains(strings.ToLower(rec.OriginalName), needle) {
			return true
		}
		for i := range rec.NameVariants {
			if strings.Contains(strings.ToLower(rec.NameVariants[i].Name), needle) {
				return true
			}
		}
		return false
	}
	return true
}
