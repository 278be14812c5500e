package classifier

import (
	"regexp"
	"strings"
)

var (
	legalSuffixRe = regexp.MustCompile(`(?i)\b(?:LLC|L\.L\.C\.?|Inc\.?|Incorporated|Ltd\.?|Limited|Corp\.?|Corporation|LP|L\.P\.?|LLP|L\.L\.P\.?|GmbH|AG|SA|S\.A\.?|PLC|N\.V\.?|B\.V\.?|S\.p\.A\.?)\b`)

	companyKeywordRe = regexp.MustCompile(`(?i)\b(?:Bank|Bancorp|Financial|Capital|Fund|Funds|Funding|Advisory|Advisors|Consulting|` +
		`Investment|Investments|Insurance|Asset|Credit|Equity|Securities|Realty|Properties|` +
		`International|Global|Management|Wealth|Group|Industries|Solutions|` +
		`Technologies|Systems|Services|Trust|Estate|Foundation|Association|` +
		`Society|Institute|Holdings|Partners|Ventures|Company|Associates)\b`)

	companyStructureRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)&\s*(?:Co|Sons|Brothers|Associates)\b`),
		regexp.MustCompile(`/[A-Z]{2,4}/?(?:\s|$)`),
		regexp.MustCompile(`\b[A-Z]{3,}\s+(?i:Bank|Capital|Group|Financial|Consulting|Advisory|Partners)\b`),
		regexp.MustCompile(`(?:^|\s)[A-Z]\.(?:[A-Z]\.)+`),
	}

	personTitleRe = regexp.MustCompile(`(?i)^(?:Mr|Mrs|Ms|Miss|Dr|Prof|Professor|Sir|Dame|Lord|Lady|Rev|Hon)\.?\s`)

	personSuffixRe = regexp.MustCompile(`(?i)\b(?:Jr|Sr|II|III|IV|V|PhD|Ph\.D|MD|M\.D|CPA|Esq|MBA|DDS|DVM|CFA)\.?$`)

	notPersonRe = regexp.MustCompile(`(?i)\d{2,}|[@#$%&*+=<>]|https?://|www\.|\.(?:com|org|net|biz|info)\b`)
)

// companyConnectives are words that, inside a short all-capitalized name,
// point at an institution rather than a person.
var companyConnectives = []string{
	"and", "the", "of", "associates", "group", "partners",
	"company", "management", "trust", "fund", "international",
}

// knownCompanies are real firms whose names look like "Given Surname".
var knownCompanies = []string{
	"MORGAN STANLEY",
	"GOLDMAN SACHS",
	"WELLS FARGO",
	"CHARLES SCHWAB",
	"EDWARD JONES",
	"RAYMOND JAMES",
	"MERRILL LYNCH",
	"DEAN WITTER",
	"SMITH BARNEY",
	"PAINE WEBBER",
	"LAZARD FRERES",
	"PIPER SANDLER",
	"PIPER JAFFRAY",
	"STIFEL NICOLAUS",
	"JANNEY MONTGOMERY",
	"DAVIS POLK",
	"BAKER MCKENZIE",
	"ERNST YOUNG",
	"PRICE WATERHOUSE",
	"KEEFE BRUYETTE",
	"THOMAS WEISEL",
	"WILLIAM BLAIR",
}

// Tables holds the word lists the text classifier consults. A Tables value is
// built once at startup and never mutated, so it is safe to share.
type Tables struct {
	connectives map[string]struct{}
	denylist    map[string]struct{}
}

// DefaultTables returns the built-in tables.
func DefaultTables() *Tables {
	return NewTables(nil)
}

// NewTables builds tables from the defaults plus extra denylisted company
// names. Names are compared upper-cased with whitespace collapsed.
func NewTables(extraDenylist []string) *Tables {
	t := &Tables{
		connectives: make(map[string]struct{}, len(companyConnectives)),
		denylist:    make(map[string]struct{}, len(knownCompanies)+len(extraDenylist)),
	}
	for _, w := range companyConnectives {
		t.connectives[w] = struct{}{}
	}
	for _, n := range knownCompanies {
		t.denylist[denylistKey(n)] = struct{}{}
	}
	for _, n := range extraDenylist {
		if key := denylistKey(n); key != "" {
			t.denylist[key] = struct{}{}
		}
	}
	return t
}

// Denylisted reports whether name is a known company that resembles a
// personal name.
func (t *Tables) Denylisted(name string) bool {
	_, ok := t.denylist[denylistKey(name)]
	return ok
}

// DenylistSize returns the number of denylisted names.
func (t *Tables) DenylistSize() int { return len(t.denylist) }

func (t *Tables) isConnective(word string) bool {
	_, ok := t.connectives[strings.ToLower(word)]
	return ok
}

func denylistKey(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}
