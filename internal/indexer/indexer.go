package indexer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/edgar-entities/internal/metrics"
	"github.com/ajitpratap0/edgar-entities/internal/store"
)

// DefaultFetchWorkers is the number of remote index files fetched at once.
const DefaultFetchWorkers = 4

// Skip reasons recorded in metrics and reports.
const (
	ReasonMalformed = "malformed_line"
	ReasonNoMarker  = "no_data_marker"
	ReasonFetch     = "fetch_failed"
	ReasonRead      = "read_failed"
	ReasonIngest    = "ingest_failed"
)

// Fetcher retrieves the body of a remote index file.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SkippedSource names a source that contributed no sightings.
type SkippedSource struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// Report summarizes one ingestion batch.
type Report struct {
	Sources   int             `json:"sources"`
	Lines     int             `json:"lines"`
	Sightings int             `json:"sightings"`
	Malformed int             `json:"malformed"`
	Skipped   []SkippedSource `json:"skipped,omitempty"`
}

// Merge adds other's counts to r.
func (r *Report) Merge(other Report) {
	r.Sources += other.Sources
	r.Lines += other.Lines
	r.Sightings += other.Sightings
	r.Malformed += other.Malformed
	r.Skipped = append(r.Skipped, other.Skipped...)
}

// Indexer parses filing index sources and feeds their sightings to a store
// in source order, so first-seen rules follow the order sources are given.
type Indexer struct {
	store   store.Store
	workers int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewIndexer creates an indexer. workers bounds concurrent remote fetches.
func NewIndexer(st store.Store, workers int, m *metrics.Metrics, logger *slog.Logger) *Indexer {
	if workers <= 0 {
		workers = DefaultFetchWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: st, workers: workers, metrics: m, logger: logger}
}

// IndexReader ingests one index source. A source without a data marker is
// reported as skipped and returns an error wrapping ErrNoDataMarker.
func (idx *Indexer) IndexReader(ctx context.Context, source string, r io.Reader) (Report, error) {
	rep := Report{Sources: 1}

	res, err := Parse(r)
	if err != nil {
		reason := ReasonRead
		if errors.Is(err, ErrNoDataMarker) {
			reason = ReasonNoMarker
		}
		idx.skip(&rep, source, reason, err)
		return rep, fmt.Errorf("indexing %s: %w", source, err)
	}

	rep.Lines = res.Lines
	rep.Malformed = res.Malformed
	for i := 0; i < res.Malformed; i++ {
		idx.metrics.IncSkipped(ReasonMalformed)
	}

	for i := range res.Sightings {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if err := idx.store.Ingest(ctx, res.Sightings[i]); err != nil {
			idx.logger.Warn("dropping sighting", "source", source, "identifier", res.Sightings[i].Identifier, "error", err)
			idx.metrics.IncSkipped(ReasonIngest)
			continue
		}
		rep.Sightings++
	}

	idx.logger.Debug("indexed source", "source", source, "lines", rep.Lines, "sightings", rep.Sightings, "malformed", rep.Malformed)
	return rep, nil
}

// IndexFile ingests a single index file from disk.
func (idx *Indexer) IndexFile(ctx context.Context, path string) (Report, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		rep := Report{Sources: 1}
		idx.skip(&rep, path, ReasonRead, err)
		return rep, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return idx.IndexReader(ctx, path, f)
}

// IndexDirectory ingests every *.idx file under dir in lexical path order.
// Sources that fail are reported and skipped; the batch continues.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string) (Report, error) {
	files, err := FindIndexFiles(dir)
	if err != nil {
		return Report{}, fmt.Errorf("finding index files in %s: %w", dir, err)
	}
	idx.logger.Info("found index files", "count", len(files), "dir", dir)

	var total Report
	for _, file := range files {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}
		rep, err := idx.IndexFile(ctx, file)
		total.Merge(rep)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			continue
		}
	}
	return total, nil
}

// IndexRemote fetches urls through f and ingests them in the order given.
// Fetches run concurrently in windows of the configured worker count; each
// window is ingested sequentially once all of its fetches finish.
func (idx *Indexer) IndexRemote(ctx context.Context, f Fetcher, urls []string) (Report, error) {
	var total Report
	for start := 0; start < len(urls); start += idx.workers {
		window := urls[start:min(start+idx.workers, len(urls))]
		bodies := make([][]byte, len(window))
		errs := make([]error, len(window))

		g, gctx := errgroup.WithContext(ctx)
		for i, u := range window {
			g.Go(func() error {
				bodies[i], errs[i] = f.Fetch(gctx, u)
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return total, err
		}

		for i, u := range window {
			if errs[i] != nil {
				rep := Report{Sources: 1}
				idx.skip(&rep, u, ReasonFetch, errs[i])
				total.Merge(rep)
				continue
			}
			rep, err := idx.IndexReader(ctx, u, bytes.NewReader(bodies[i]))
			total.Merge(rep)
			if err != nil && ctx.Err() != nil {
				return total, ctx.Err()
			}
		}
		idx.logger.Info("indexed window", "done", start+len(window), "of", len(urls), "sightings", total.Sightings)
	}
	return total, nil
}

func (idx *Indexer) skip(rep *Report, source, reason string, err error) {
	rep.Skipped = append(rep.Skipped, SkippedSource{Source: source, Reason: reason, Error: err.Error()})
	idx.metrics.IncSkipped(reason)
	idx.logger.Warn("skipping source", "source", source, "reason", reason, "error", err)
}

// FindIndexFiles returns the *.idx files under dir sorted lexically.
func FindIndexFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".idx") {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}
