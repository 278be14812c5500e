package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/ajitpratap0/edgar-entities/internal/models"
)

var (
	// ErrNotFound is returned by Get when the identifier has never been seen.
	ErrNotFound = errors.New("record not found")

	// ErrEmptyPopulation is returned by ClassifyAll when nothing was ingested.
	ErrEmptyPopulation = errors.New("no sightings ingested")

	// ErrInvalidSighting is returned by Ingest for a sighting without identifier or form type.
	ErrInvalidSighting = errors.New("invalid sighting")
)

// Classifier produces the outcome for a record's original name and the
// distinct form types observed for it.
type Classifier interface {
	Classify(name string, formTypes []string) models.Classification
}

// Store defines the identifier aggregation store.
type Store interface {
	// Ingest merges one sighting into the record for its identifier.
	// Sightings for the same identifier must not be ingested concurrently
	// from different goroutines if first-seen order matters to the caller.
	Ingest(ctx context.Context, s models.Sighting) error

	// Get retrieves a copy of the record for identifier.
	Get(ctx context.Context, identifier string) (*models.Record, error)

	// List returns records matching the filters ordered by identifier.
	// The cursor parameter is opaque; pass "" for the first page.
	// The returned cursor is empty when no more results remain.
	// A limit of 0 returns every matching record.
	List(ctx context.Context, filters *Filters, limit int, cursor string) ([]models.Record, string, error)

	// ClassifyAll computes and stores the classification of every record.
	// It must run only after ingestion for the batch is complete.
	ClassifyAll(ctx context.Context, cls Classifier) error

	// Stats returns outcome counts over all records.
	Stats(ctx context.Context) (*models.ClassificationStats, error)

	// Len returns the number of records.
	Len() int
}

// Filters narrows List results.
type Filters struct {
	Kind         *models.EntityKind `json:"kind,omitempty"`
	Flag         *string            `json:"flag,omitempty"`
	NameContains string             `json:"name_contains,omitempty"`
	FormType     *string            `json:"form_type,omitempty"`
}

// NewFilters builds filters from optional string values, as received from
// query parameters or flags. All-empty input returns nil (no filtering); an
// unknown kind is an error.
func NewFilters(kind, flag, name, formType string) (*Filters, error) {
	if kind == "" && flag == "" && name == "" && formType == "" {
		return nil, nil
	}
	f := &Filters{NameContains: name}
	if kind != "" {
		k := models.EntityKind(kind)
		if !k.IsValid() {
			return nil, fmt.Errorf("invalid kind %q", kind)
		}
		f.Kind = &k
	}
	if flag != "" {
		f.Flag = &flag
	}
	if formType != "" {
		f.FormType = &formType
	}
	return f, nil
}
