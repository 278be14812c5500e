// Package classifier decides whether a registrant display name belongs to a
// company or a person. It answers only when the evidence is strong and
// reports Unclassified otherwise.
package classifier

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/ajitpratap0/edgar-entities/internal/models"
)

// Classifier maps a display name to Company, Person or Unclassified.
type Classifier interface {
	ClassifyText(name string) models.Classification
}

// Phase identifies the step of the decision procedure that produced an outcome.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseCompanySignals
	PhasePersonSignals
	PhaseDisqualifier
	PhaseStructure
	PhaseFallback
)

func (p Phase) String() string {
	switch p {
	case PhaseCompanySignals:
		return "company_signals"
	case PhasePersonSignals:
		return "person_signals"
	case PhaseDisqualifier:
		return "disqualifier"
	case PhaseStructure:
		return "structure"
	case PhaseFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Decision is a text classification together with the rule that produced it.
type Decision struct {
	Classification models.Classification `json:"classification"`
	Phase          Phase                 `json:"-"`
	PhaseName      string                `json:"phase"`
	Rule           string                `json:"rule"`
}

func decide(c models.Classification, p Phase, rule string) Decision {
	return Decision{Classification: c, Phase: p, PhaseName: p.String(), Rule: rule}
}

// TextClassifier is the layered heuristic name classifier. It holds only
// immutable state and is safe for concurrent use.
type TextClassifier struct {
	tables *Tables
	check  nameCheck
	logger *slog.Logger
}

// NewTextClassifier creates a classifier. A nil oracle means no oracle is
// configured; a nil tables value uses DefaultTables.
func NewTextClassifier(tables *Tables, oracle NameOracle, logger *slog.Logger) *TextClassifier {
	if tables == nil {
		tables = DefaultTables()
	}
	if logger == nil {
		logger = slog.Default()
	}
	var check nameCheck = structuralCheck{}
	if oracle != nil {
		check = oracleCheck{oracle: oracle}
	}
	return &TextClassifier{tables: tables, check: check, logger: logger}
}

// HasOracle reports whether an oracle backs person validation.
func (c *TextClassifier) HasOracle() bool { return c.check.oracleBacked() }

// ClassifyText returns Company, Person or Unclassified for name.
func (c *TextClassifier) ClassifyText(name string) models.Classification {
	return c.Decide(name).Classification
}

// Decide runs the decision procedure and reports which rule fired.
func (c *TextClassifier) Decide(name string) Decision {
	d := c.decide(name)
	c.logger.Debug("classified name",
		"kind", d.Classification.Kind, "phase", d.PhaseName, "rule", d.Rule, "name", truncate(name, 60))
	return d
}

func (c *TextClassifier) decide(raw string) Decision {
	text := norm.NFKC.String(strings.TrimSpace(raw))
	if text == "" {
		return decide(models.Unclassified, PhaseNone, "empty")
	}
	words := strings.Fields(text)

	// Phase 1: company signals.
	if legalSuffixRe.MatchString(text) {
		return decide(models.Company, PhaseCompanySignals, "legal_suffix")
	}
	for _, re := range companyStructureRes {
		if re.MatchString(text) {
			return decide(models.Company, PhaseCompanySignals, "company_structure")
		}
	}
	switch hits := distinctKeywordHits(text); {
	case hits >= 2:
		return decide(models.Company, PhaseCompanySignals, "multiple_keywords")
	case hits == 1 && (len(words) >= 2 || hasShortCapitalWord(words)):
		return decide(models.Company, PhaseCompanySignals, "keyword")
	}

	// Phase 2: person signals.
	if personTitleRe.MatchString(text) {
		return decide(models.Person, PhasePersonSignals, "title")
	}
	if personSuffixRe.MatchString(text) {
		return decide(models.Person, PhasePersonSignals, "suffix")
	}

	// Phase 3: hard disqualifiers.
	if notPersonRe.MatchString(text) {
		return decide(models.Unclassified, PhaseDisqualifier, "disqualifier")
	}

	// Phase 4: structure.
	switch n := len(words); {
	case n >= 2 && n <= 4 && allCapitalized(words):
		for _, w := range words {
			if c.tables.isConnective(w) || companyKeywordRe.MatchString(w) {
				return decide(models.Company, PhaseStructure, "connective")
			}
		}
		if !c.check.oracleBacked() || !c.validPerson(text) {
			return decide(models.Unclassified, PhaseStructure, "unvalidated_name")
		}
		if c.tables.Denylisted(text) {
			return decide(models.Company, PhaseStructure, "known_company")
		}
		return decide(models.Person, PhaseStructure, "validated_name")
	case n >= 5:
		return decide(models.Company, PhaseStructure, "long_name")
	case n == 1:
		if l := utf8.RuneCountInString(text); l >= 5 && l <= 20 && startsUpper(text) {
			if c.check.oracleBacked() && c.validPerson(text) {
				return decide(models.Person, PhaseStructure, "validated_single_name")
			}
			return decide(models.Unclassified, PhaseStructure, "single_word")
		}
	}

	// Phase 5: fallback.
	if c.validPerson(text) {
		return decide(models.Person, PhaseFallback, "validated_name")
	}
	return decide(models.Unclassified, PhaseFallback, "uncertain")
}

// validPerson parses text and applies the configured name check.
func (c *TextClassifier) validPerson(text string) bool {
	n, ok := ParseName(text)
	if !ok || n.First == "" {
		return false
	}
	// A title or suffix without a surname reads like a company fragment.
	if (n.Title != "" || n.Suffix != "") && n.Last == "" {
		return false
	}
	return c.check.accepts(n)
}

func distinctKeywordHits(text string) int {
	seen := make(map[string]struct{})
	for _, m := range companyKeywordRe.FindAllString(text, -1) {
		seen[strings.ToLower(m)] = struct{}{}
	}
	return len(seen)
}

func hasShortCapitalWord(words []string) bool {
	for _, w := range words {
		if utf8.RuneCountInString(w) <= 3 && startsUpper(w) {
			return true
		}
	}
	return false
}

func allCapitalized(words []string) bool {
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 || !startsUpper(w) {
			return false
		}
	}
	return true
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return s
}
