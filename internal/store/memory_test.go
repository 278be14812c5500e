package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/edgar-entities/internal/classifier"
	"github.com/ajitpratap0/edgar-entities/internal/metrics"
	"github.com/ajitpratap0/edgar-entities/internal/models"
	"github.com/ajitpratap0/edgar-entities/internal/regime"
)

// classifyFunc adapts a function to the Classifier interface.
type classifyFunc func(name string, forms []string) models.Classification

func (f classifyFunc) Classify(name string, forms []string) models.Classification {
	return f(name, forms)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore() *MemoryStore {
	return NewMemoryStore(4, 2, nil, testLogger())
}

func sighting(id, name, form, filed string) models.Sighting {
	return models.Sighting{
		Identifier: id,
		Name:       name,
		FormType:   form,
		Filed:      filed,
		Accession:  "0000000000-24-" + filed[len(filed)-2:] + "0000",
	}
}

func newDispatcher() *classifier.Dispatcher {
	text := classifier.NewTextClassifier(nil, nil, testLogger())
	return classifier.NewDispatcher(text, regime.NewResolver(nil))
}

func TestMemoryStore_IngestCreatesRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Ingest(ctx, sighting("123", "Apple Inc", "10-K", "2024-01-02")))

	rec, err := s.Get(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc", rec.OriginalName)
	assert.Empty(t, rec.NameVariants)
	require.Len(t, rec.Forms, 1)
	assert.Equal(t, "10-K", rec.Forms[0].FormType)
	assert.Nil(t, rec.Classification)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_FormDedupFirstWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Ingest(ctx, sighting("123", "Apple Inc", "10-K", "2024-01-02")))
	require.NoError(t, s.Ingest(ctx, sighting("123", "Apple Inc", "10-K", "2024-03-05")))
	require.NoError(t, s.Ingest(ctx, sighting("123", "Apple Inc", "8-K", "2024-04-01")))

	rec, err := s.Get(ctx, "123")
	require.NoError(t, err)
	require.Len(t, rec.Forms, 2)
	assert.Equal(t, "2024-01-02", rec.Forms[0].Filed)
	assert.Equal(t, []string{"10-K", "8-K"}, rec.FormTypes())
}

func TestMemoryStore_NameVariants(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Ingest(ctx, sighting("42", "Zuckerberg Max", "4", "2024-01-02")))
	require.NoError(t, s.Ingest(ctx, sighting("42", "Zuckerberg Marx", "3", "2024-01-03")))
	require.NoError(t, s.Ingest(ctx, sighting("42", "Zuckerberg Marx", "5", "2024-01-04")))
	require.NoError(t, s.Ingest(ctx, sighting("42", "Zuckerberg Max", "4", "2024-01-05")))

	rec, err := s.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Zuckerberg Max", rec.OriginalName)
	require.Len(t, rec.NameVariants, 1)
	assert.Equal(t, "Zuckerberg Marx", rec.NameVariants[0].Name)
	assert.Equal(t, "3", rec.NameVariants[0].Filing.FormType)
}

func TestMemoryStore_IngestRejectsInvalid(t *testing.T) {
	s := newTestStore()
	err := s.Ingest(context.Background(), models.Sighting{Name: "x", FormType: "4"})
	assert.ErrorIs(t, err, ErrInvalidSighting)
	err = s.Ingest(context.Background(), models.Sighting{Identifier: "1", Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidSighting)
	assert.Zero(t, s.Len())
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	_, err := newTestStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Ingest(ctx, sighting("1", "Apple Inc", "10-K", "2024-01-02")))

	rec, err := s.Get(ctx, "1")
	require.NoError(t, err)
	rec.Forms[0].FormType = "mutated"
	rec.OriginalName = "mutated"

	again, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "10-K", again.Forms[0].FormType)
	assert.Equal(t, "Apple Inc", again.OriginalName)
}

func TestMemoryStore_ClassifyAllEmpty(t *testing.T) {
	err := newTestStore().ClassifyAll(context.Background(), newDispatcher())
	assert.ErrorIs(t, err, ErrEmptyPopulation)
}

func TestMemoryStore_ClassifyAllUsesFullFormSet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Ingest(ctx, sighting("1", "TAKEDA PHARMACEUTICAL CO LTD", "6-K", "2024-01-02")))
	require.NoError(t, s.Ingest(ctx, sighting("1", "TAKEDA PHARMACEUTICAL CO LTD", "20-F", "2024-01-03")))
	require.NoError(t, s.Ingest(ctx, sighting("2", "Apple Inc", "10-K", "2024-01-02")))
	require.NoError(t, s.Ingest(ctx, sighting("3", "Google", "D", "2024-01-02")))
	require.NoError(t, s.Ingest(ctx, sighting("4", "Mrs. Mary Jones", "4", "2024-01-02")))

	require.NoError(t, s.ClassifyAll(ctx, newDispatcher()))

	want := map[string]models.Classification{
		"1": models.RegimeFlags(regime.FlagForeignPrivateIssuer, regime.FlagForeignPrivateIssuer),
		"2": models.Company,
		"3": models.Unclassified,
		"4": models.Person,
	}
	for id, c := range want {
		rec, err := s.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, rec.Classification, id)
		assert.Equal(t, c, *rec.Classification, id)
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(1), stats.Companies)
	assert.Equal(t, int64(1), stats.Persons)
	assert.Equal(t, int64(1), stats.Unclassified)
	assert.Equal(t, int64(0), stats.Pending)
	assert.Equal(t, map[string]int64{"is_fpi+is_fpi": 1}, stats.ByFlags)
}

func TestMemoryStore_RepeatedFlagCountedSeparately(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Ingest(ctx, sighting("1", "TOYOTA MOTOR CORP", "20-F", "2024-01-02")))
	require.NoError(t, s.Ingest(ctx, sighting("1", "TOYOTA MOTOR CORP", "6-K", "2024-01-03")))
	require.NoError(t, s.Ingest(ctx, sighting("2", "WIPRO LTD", "20-F", "2024-01-02")))
	require.NoError(t, s.ClassifyAll(ctx, newDispatcher()))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"is_fpi": 1, "is_fpi+is_fpi": 1}, stats.ByFlags)

	flag := regime.FlagForeignPrivateIssuer
	recs, _, err := s.List(ctx, &Filters{Flag: &flag}, 0, "")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestMemoryStore_NewFormInvalidatesOutcome(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Ingest(ctx, sighting("1", "Apple Inc", "10-K", "2024-01-02")))
	require.NoError(t, s.ClassifyAll(ctx, newDispatcher()))

	require.NoError(t, s.Ingest(ctx, sighting("1", "Apple Inc", "10-K", "2024-02-02")))
	rec, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.NotNil(t, rec.Classification, "repeat form keeps outcome")

	require.NoError(t, s.Ingest(ctx, sighting("1", "Apple Inc", "20-F", "2024-02-03")))
	rec, err = s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, rec.Classification, "new form type invalidates outcome")

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Pending)
}

func TestMemoryStore_ClassifyAllCancelled(t *testing.T) {
	s := newTestStore()
	require.NoError(t, s.Ingest(context.Background(), sighting("1", "Apple Inc", "10-K", "2024-01-02")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.ClassifyAll(ctx, newDispatcher())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_ListPagination(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Ingest(ctx, sighting(fmt.Sprintf("%03d", i), fmt.Sprintf("Name %d", i), "4", "2024-01-02")))
	}

	page1, next, err := s.List(ctx, nil, 2, "")
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "000", page1[0].Identifier)
	assert.Equal(t, "001", next)

	page2, next, err := s.List(ctx, nil, 2, next)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "002", page2[0].Identifier)

	page3, next, err := s.List(ctx, nil, 2, next)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Empty(t, next)

	all, _, err := s.List(ctx, nil, 0, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestMemoryStore_ListCursorNoLongerMatching(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	for _, id := range []string{"1", "2", "3", "4"} {
		require.NoError(t, s.Ingest(ctx, sighting(id, "Filer "+id+" Inc", "10-K", "2024-01-02")))
	}
	require.NoError(t, s.ClassifyAll(ctx, newDispatcher()))

	company := models.EntityKindCompany
	filters := &Filters{Kind: &company}
	page1, next, err := s.List(ctx, filters, 2, "")
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.Equal(t, "2", next)

	// A new form type clears the outcome of the cursor record.
	require.NoError(t, s.Ingest(ctx, sighting("2", "Filer 2 Inc", "8-K", "2024-01-05")))

	page2, next, err := s.List(ctx, filters, 2, next)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "3", page2[0].Identifier)
	assert.Equal(t, "4", page2[1].Identifier)
	assert.Empty(t, next)
}

func TestMemoryStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Ingest(ctx, sighting("1", "Apple Inc", "10-K", "2024-01-02")))
	require.NoError(t, s.Ingest(ctx, sighting("2", "WIPRO LTD", "20-F", "2024-01-02")))
	require.NoError(t, s.Ingest(ctx, sighting("3", "Mrs. Mary Jones", "4", "2024-01-02")))
	require.NoError(t, s.Ingest(ctx, sighting("3", "Mary Smith", "4", "2024-01-03")))
	require.NoError(t, s.ClassifyAll(ctx, newDispatcher()))

	company := models.EntityKindCompany
	got, _, err := s.List(ctx, &Filters{Kind: &company}, 0, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Identifier)

	flag := regime.FlagForeignPrivateIssuer
	got, _, err = s.List(ctx, &Filters{Flag: &flag}, 0, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].Identifier)

	got, _, err = s.List(ctx, &Filters{NameContains: "smith"}, 0, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].Identifier)

	form := "10-K"
	got, _, err = s.List(ctx, &Filters{FormType: &form}, 0, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestMemoryStore_ConcurrentIngest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(8, 4, nil, testLogger())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("%d-%d", w, i)
				_ = s.Ingest(ctx, sighting(id, "Holder "+id, "4", "2024-01-02"))
				_ = s.Ingest(ctx, sighting(id, "Holder "+id, "4", "2024-01-03"))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 800, s.Len())
	require.NoError(t, s.ClassifyAll(ctx, classifyFunc(func(string, []string) models.Classification {
		return models.Unclassified
	})))
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(800), stats.Unclassified)
}

func TestMemoryStore_Metrics(t *testing.T) {
	ctx := context.Background()
	m := metrics.New(prometheus.NewRegistry())
	s := NewMemoryStore(2, 1, m, testLogger())

	require.NoError(t, s.Ingest(ctx, sighting("1", "Apple Inc", "10-K", "2024-01-02")))
	require.NoError(t, s.Ingest(ctx, sighting("1", "Apple Inc.", "10-K", "2024-01-03")))
	require.NoError(t, s.ClassifyAll(ctx, newDispatcher()))

	assert.InDelta(t, 2, testutil.ToFloat64(m.SightingsIngested), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FormsDeduplicated), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.NameVariants), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Classifications.WithLabelValues("company")), 0)
}

func TestNewFilters(t *testing.T) {
	f, err := NewFilters("", "", "", "")
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = NewFilters("person", "", "smith", "4")
	require.NoError(t, err)
	require.NotNil(t, f.Kind)
	assert.Equal(t, models.EntityKindPerson, *f.Kind)
	assert.Equal(t, "smith", f.NameContains)
	require.NotNil(t, f.FormType)
	assert.Equal(t, "4", *f.FormType)
	assert.Nil(t, f.Flag)

	f, err = NewFilters("", "is_fpi", "", "")
	require.NoError(t, err)
	require.NotNil(t, f.Flag)
	assert.Equal(t, "is_fpi", *f.Flag)

	_, err = NewFilters("robot", "", "", "")
	assert.Error(t, err)
}
