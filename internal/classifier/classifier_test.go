package classifier

import (
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/edgar-entities/internal/models"
)

// givenNames is a small oracle backed by a fixed set of first names.
type givenNames map[string]bool

func (g givenNames) IsPlausibleGivenName(token string) bool {
	return g[strings.ToLower(token)]
}

var testOracle = givenNames{
	"john": true, "jane": true, "michael": true, "sarah": true, "robert": true,
	"marie": true, "bill": true, "david": true, "elizabeth": true, "james": true,
	"mary": true, "william": true, "morgan": true, "charles": true,
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestTextClassifier_WithOracle(t *testing.T) {
	cls := NewTextClassifier(DefaultTables(), testOracle, testLogger())

	tests := []struct {
		name     string
		input    string
		expected models.Classification
	}{
		{"legal suffix", "Apple Inc", models.Company},
		{"corporation", "Microsoft Corporation", models.Company},
		{"keyword with two words", "Goldman Sachs Group", models.Company},
		{"jurisdiction suffix", "ADS Consulting/IN", models.Company},
		{"edgar state suffix", "WINDWARD CAPITAL MANAGEMENT CO /CA", models.Company},
		{"single keyword", "Busey Bank", models.Company},
		{"funding", "CapM Funding", models.Company},
		{"multiple keywords", "FHN Financial Municipal Advisors", models.Company},
		{"dotted llc", "First River Advisory L.L.C.", models.Company},
		{"ampersand co", "J.P. Morgan & Co", models.Company},
		{"initials", "J.P. Morgan", models.Company},
		{"acronym keyword", "ABC Bank", models.Company},
		{"denylisted firm", "Morgan Stanley", models.Company},
		{"denylisted upper", "CHARLES SCHWAB", models.Company},
		{"connective", "Smith And Jones", models.Company},
		{"long name", "Black Swan Protection Protocol Twelve", models.Company},

		{"validated name", "John Smith", models.Person},
		{"title", "Dr. Jane Doe", models.Person},
		{"generational suffix", "Robert Smith Jr.", models.Person},
		{"roman suffix", "Bill Gates III", models.Person},
		{"professional suffix", "James Smith MD", models.Person},
		{"phd", "Elizabeth Warren PhD", models.Person},
		{"three words", "Marie Anne Curie", models.Person},
		{"single given name", "Elizabeth", models.Person},

		{"unknown given name", "Warren Buffett", models.Unclassified},
		{"single word", "Google", models.Unclassified},
		{"single surname", "Smith", models.Unclassified},
		{"digits", "Project 2025", models.Unclassified},
		{"email", "john.smith@example", models.Unclassified},
		{"url", "www.example", models.Unclassified},
		{"ampersand", "Smith & Jones", models.Unclassified},
		{"empty", "", models.Unclassified},
		{"whitespace", "   \t ", models.Unclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cls.ClassifyText(tt.input), "input %q", tt.input)
		})
	}
}

func TestTextClassifier_WithoutOracle(t *testing.T) {
	cls := NewTextClassifier(nil, nil, testLogger())
	assert.False(t, cls.HasOracle())

	tests := []struct {
		name     string
		input    string
		expected models.Classification
	}{
		{"legal suffix still wins", "Apple Inc", models.Company},
		{"two capitalized words need an oracle", "Morgan Stanley", models.Unclassified},
		{"john smith without oracle", "John Smith", models.Unclassified},
		{"single word", "Google", models.Unclassified},
		{"title still wins", "Mrs. Mary Jones", models.Person},
		{"fallback accepts first and last", "john smith", models.Person},
		{"fallback rejects single token", "tesla", models.Unclassified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cls.ClassifyText(tt.input), "input %q", tt.input)
		})
	}
}

func TestTextClassifier_DecideReportsRule(t *testing.T) {
	cls := NewTextClassifier(nil, testOracle, testLogger())

	d := cls.Decide("Apple Inc")
	assert.Equal(t, PhaseCompanySignals, d.Phase)
	assert.Equal(t, "legal_suffix", d.Rule)

	d = cls.Decide("Morgan Stanley")
	assert.Equal(t, PhaseStructure, d.Phase)
	assert.Equal(t, "known_company", d.Rule)

	d = cls.Decide("Project 2025")
	assert.Equal(t, PhaseDisqualifier, d.Phase)
	assert.Equal(t, "disqualifier", d.PhaseName)

	d = cls.Decide("")
	assert.Equal(t, PhaseNone, d.Phase)
}

func TestTextClassifier_ExtraDenylist(t *testing.T) {
	cls := NewTextClassifier(NewTables([]string{"john  smith"}), testOracle, testLogger())
	assert.Equal(t, models.Company, cls.ClassifyText("John Smith"))
	assert.Equal(t, models.Person, cls.ClassifyText("Sarah Johnson"))
}

func TestTextClassifier_NormalizesWidth(t *testing.T) {
	cls := NewTextClassifier(nil, testOracle, testLogger())
	// Fullwidth "Ｉｎｃ" folds to "Inc" under NFKC.
	assert.Equal(t, models.Company, cls.ClassifyText("Apple Ｉｎｃ"))
}

func TestTables_Denylisted(t *testing.T) {
	tables := DefaultTables()
	assert.True(t, tables.Denylisted("Goldman   Sachs"))
	assert.True(t, tables.Denylisted("wells fargo"))
	assert.False(t, tables.Denylisted("John Smith"))
	require.GreaterOrEqual(t, tables.DenylistSize(), 20)
}
