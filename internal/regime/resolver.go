// Package regime maps regulatory form-type codes to entity-category flags.
package regime

import (
	"slices"
	"strings"
)

// Flag tokens produced by the default signal table.
const (
	FlagForeignPrivateIssuer = "is_fpi"
	FlagMoneyMarketFund      = "is_mmf"
	FlagInsurance            = "is_insurance"
	FlagBusinessDevelopment  = "is_bdc"
	FlagOpenEndFund          = "is_oef"
	FlagClosedEndFund        = "is_cef"
	FlagAssetBacked          = "is_abs"
)

// defaultSignals maps form types that only a particular kind of registrant
// files to the flag describing that registrant.
var defaultSignals = map[string]string{
	"20-F":    FlagForeignPrivateIssuer,
	"20-F/A":  FlagForeignPrivateIssuer,
	"20FR12B": FlagForeignPrivateIssuer,
	"40-F":    FlagForeignPrivateIssuer,
	"40-F/A":  FlagForeignPrivateIssuer,
	"6-K":     FlagForeignPrivateIssuer,
	"6-K/A":   FlagForeignPrivateIssuer,
	"F-1":     FlagForeignPrivateIssuer,
	"F-3":     FlagForeignPrivateIssuer,
	"F-4":     FlagForeignPrivateIssuer,
	"N-MFP":   FlagMoneyMarketFund,
	"N-MFP1":  FlagMoneyMarketFund,
	"N-MFP2":  FlagMoneyMarketFund,
	"N-MFP3":  FlagMoneyMarketFund,
	"N-CR":    FlagMoneyMarketFund,
	"N-3":     FlagInsurance,
	"N-4":     FlagInsurance,
	"N-6":     FlagInsurance,
	"N-54A":   FlagBusinessDevelopment,
	"N-54C":   FlagBusinessDevelopment,
	"N-6F":    FlagBusinessDevelopment,
	"N-1A":    FlagOpenEndFund,
	"24F-2NT": FlagOpenEndFund,
	"N-2":     FlagClosedEndFund,
	"10-D":    FlagAssetBacked,
	"ABS-15G": FlagAssetBacked,
	"ABS-EE":  FlagAssetBacked,
	"SF-3":    FlagAssetBacked,
}

// Signals is an immutable form-type to flag table.
type Signals struct {
	table map[string]string
}

// DefaultSignalTable returns the built-in signal table.
func DefaultSignalTable() *Signals {
	return NewSignals(nil)
}

// NewSignals builds a table from the defaults with overrides applied on top.
// An override mapping a form type to the empty string removes it.
func NewSignals(overrides map[string]string) *Signals {
	table := make(map[string]string, len(defaultSignals)+len(overrides))
	for form, flag := range defaultSignals {
		table[form] = flag
	}
	for form, flag := range overrides {
		key := normalizeForm(form)
		if flag == "" {
			delete(table, key)
			continue
		}
		table[key] = flag
	}
	return &Signals{table: table}
}

// Lookup returns the flag for a form type.
func (s *Signals) Lookup(formType string) (string, bool) {
	flag, ok := s.table[normalizeForm(formType)]
	return flag, ok
}

// Len returns the number of form types in the table.
func (s *Signals) Len() int { return len(s.table) }

// Resolver turns a set of observed form types into regime flags.
type Resolver struct {
	signals *Signals
}

// NewResolver creates a resolver over the given table; nil uses the defaults.
func NewResolver(signals *Signals) *Resolver {
	if signals == nil {
		signals = DefaultSignalTable()
	}
	return &Resolver{signals: signals}
}

// Resolve returns one flag per distinct matching form type, sorted. Two form
// types that map to the same flag yield that flag twice, so {20-F, 6-K} is
// reported as a different outcome from {20-F}. Empty input or no match
// yields nil.
func (r *Resolver) Resolve(formTypes []string) []string {
	var (
		flags []string
		seen  []string
	)
	for _, ft := range formTypes {
		key := normalizeForm(ft)
		if slices.Contains(seen, key) {
			continue
		}
		seen = append(seen, key)
		if flag, ok := r.signals.Lookup(key); ok {
			flags = append(flags, flag)
		}
	}
	slices.Sort(flags)
	return flags
}

func normalizeForm(formType string) string {
	return strings.ToUpper(strings.TrimSpace(formType))
}
