// Package oracle implements name-validity oracles: a given-name list, a
// Claude-backed judge and a caching decorator over either.
package oracle

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ajitpratap0/edgar-entities/internal/metrics"
)

// DefaultTimeout bounds one oracle lookup.
const DefaultTimeout = 10 * time.Second

// Lookup answers whether token is a plausible given name. An error means the
// answer is unknown, not negative.
type Lookup interface {
	Lookup(ctx context.Context, token string) (bool, error)
}

// Oracle adapts a Lookup to the classifier's synchronous capability. Each
// call gets its own timeout, and a failed lookup counts as "not validated".
type Oracle struct {
	lookup  Lookup
	source  string
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New wraps l. source labels metrics and logs.
func New(l Lookup, source string, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Oracle {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Oracle{lookup: l, source: source, timeout: timeout, metrics: m, logger: logger}
}

// IsPlausibleGivenName implements classifier.NameOracle.
func (o *Oracle) IsPlausibleGivenName(token string) bool {
	token = normalizeToken(token)
	if token == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	ok, err := o.lookup.Lookup(ctx, token)
	if err != nil {
		o.logger.Warn("oracle lookup failed", "source", o.source, "token", token, "error", err)
		o.metrics.IncOracleLookup(o.source+"_error", false)
		return false
	}
	o.metrics.IncOracleLookup(o.source, ok)
	return ok
}

// normalizeToken trims punctuation a parser may leave on a given name.
func normalizeToken(token string) string {
	return strings.Trim(strings.TrimSpace(token), ".,;:'\"()")
}
