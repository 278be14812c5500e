// Package metrics provides Prometheus instrumentation for ingestion,
// classification, index fetching and oracle lookups. All methods are safe to
// call on a nil *Metrics, which disables recording.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application collectors.
type Metrics struct {
	SightingsIngested prometheus.Counter
	SightingsSkipped  *prometheus.CounterVec
	FormsDeduplicated prometheus.Counter
	NameVariants      prometheus.Counter
	Classifications   *prometheus.CounterVec
	ClassifyDuration  prometheus.Histogram
	IndexFetches      *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	OracleLookups     *prometheus.CounterVec
}

// New registers all collectors with reg. Pass prometheus.DefaultRegisterer in
// production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SightingsIngested: f.NewCounter(prometheus.CounterOpts{
			Name: "edgar_entities_sightings_ingested_total",
			Help: "Sightings merged into the aggregation store",
		}),
		SightingsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "edgar_entities_sightings_skipped_total",
			Help: "Index lines or sources skipped before ingestion, by reason",
		}, []string{"reason"}), // reason: "malformed", "no_marker", "fetch_error"

		FormsDeduplicated: f.NewCounter(prometheus.CounterOpts{
			Name: "edgar_entities_forms_deduplicated_total",
			Help: "Sightings dropped because their form type was already recorded",
		}),
		NameVariants: f.NewCounter(prometheus.CounterOpts{
			Name: "edgar_entities_name_variants_total",
			Help: "Name changes detected for known identifiers",
		}),
		Classifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "edgar_entities_classifications_total",
			Help: "Classification outcomes by kind",
		}, []string{"kind"}),
		ClassifyDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "edgar_entities_classify_all_duration_seconds",
			Help:    "Duration of a full batch classification pass",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		IndexFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "edgar_entities_index_fetches_total",
			Help: "Remote index fetches by result",
		}, []string{"result"}),
		FetchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "edgar_entities_index_fetch_duration_seconds",
			Help:    "Duration of a single remote fetch including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		OracleLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "edgar_entities_oracle_lookups_total",
			Help: "Given-name oracle lookups by source and answer",
		}, []string{"source", "answer"}),
	}
}

// IncIngested records one merged sighting.
func (m *Metrics) IncIngested() {
	if m != nil {
		m.SightingsIngested.Inc()
	}
}

// IncSkipped records a skipped line or source.
func (m *Metrics) IncSkipped(reason string) {
	if m != nil {
		m.SightingsSkipped.WithLabelValues(reason).Inc()
	}
}

// IncFormDeduplicated records a dropped repeat form type.
func (m *Metrics) IncFormDeduplicated() {
	if m != nil {
		m.FormsDeduplicated.Inc()
	}
}

// IncNameVariant records a detected name change.
func (m *Metrics) IncNameVariant() {
	if m != nil {
		m.NameVariants.Inc()
	}
}

// IncClassification records one classification outcome.
func (m *Metrics) IncClassification(kind string) {
	if m != nil {
		m.Classifications.WithLabelValues(kind).Inc()
	}
}

// ObserveClassifyAll records the duration of a batch pass.
func (m *Metrics) ObserveClassifyAll(d time.Duration) {
	if m != nil {
		m.ClassifyDuration.Observe(d.Seconds())
	}
}

// ObserveFetch records a remote fetch and its outcome.
func (m *Metrics) ObserveFetch(result string, d time.Duration) {
	if m != nil {
		m.IndexFetches.WithLabelValues(result).Inc()
		m.FetchDuration.Observe(d.Seconds())
	}
}

// IncOracleLookup records an oracle answer from the given source.
func (m *Metrics) IncOracleLookup(source string, answer bool) {
	if m != nil {
		label := "no"
		if answer {
			label = "yes"
		}
		m.OracleLookups.WithLabelValues(source, label).Inc()
	}
}
