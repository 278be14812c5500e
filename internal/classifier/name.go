package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PersonName is the structural breakdown of a personal name.
type PersonName struct {
	Title  string `json:"title,omitempty"`
	First  string `json:"first,omitempty"`
	Middle string `json:"middle,omitempty"`
	Last   string `json:"last,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

var nameTitles = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "miss": {}, "dr": {}, "prof": {}, "professor": {},
	"sir": {}, "dame": {}, "lord": {}, "lady": {}, "rev": {}, "hon": {},
}

var nameSuffixes = map[string]struct{}{
	"jr": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {}, "v": {},
	"phd": {}, "ph.d": {}, "md": {}, "m.d": {}, "cpa": {}, "esq": {},
	"mba": {}, "dds": {}, "dvm": {}, "cfa": {},
}

// surnamePrefixes join the following word into a multi-word surname,
// e.g. "van der Berg" or "de la Cruz".
var surnamePrefixes = map[string]struct{}{
	"van": {}, "von": {}, "der": {}, "den": {}, "de": {}, "del": {}, "della": {},
	"di": {}, "da": {}, "dos": {}, "du": {}, "la": {}, "le": {}, "st": {},
	"st.": {}, "ter": {}, "ten": {}, "bin": {}, "al": {}, "el": {}, "mac": {},
}

// ParseName splits raw into title, given name, middle names, surname and
// suffix. It understands "Last, First Middle" ordering, trailing suffixes
// after a comma, hyphenated parts and surname prefixes. The second return
// value is false when raw cannot be read as a name at all.
func ParseName(raw string) (PersonName, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || !utf8.ValidString(s) {
		return PersonName{}, false
	}

	var (
		n       PersonName
		main    = s
		lastPre string
	)

	if strings.Contains(s, ",") {
		parts := splitNonEmpty(s, ",")
		switch {
		case len(parts) == 0:
			return PersonName{}, false
		case len(parts) > 1 && allSuffixes(parts[1:]):
			main = parts[0]
			n.Suffix = joinSuffixes(parts[1:])
		case len(parts) > 1:
			lastPre = parts[0]
			main = parts[1]
			if len(parts) > 2 {
				if !allSuffixes(parts[2:]) {
					return PersonName{}, false
				}
				n.Suffix = joinSuffixes(parts[2:])
			}
		default:
			main = parts[0]
		}
	}

	pieces := strings.Fields(main)
	for _, p := range pieces {
		if !hasLetter(p) {
			return PersonName{}, false
		}
	}

	var titles []string
	for len(pieces) > 0 && isTitle(pieces[0]) {
		titles = append(titles, pieces[0])
		pieces = pieces[1:]
	}
	n.Title = strings.Join(titles, " ")

	var suffixes []string
	for len(pieces) > 0 && isSuffix(pieces[len(pieces)-1]) {
		if len(pieces) == 1 && lastPre == "" && len(titles) == 0 && len(suffixes) == 0 {
			// A lone token is a name, not a suffix.
			break
		}
		suffixes = append([]string{pieces[len(pieces)-1]}, suffixes...)
		pieces = pieces[:len(pieces)-1]
	}
	if len(suffixes) > 0 {
		n.Suffix = strings.TrimSpace(strings.Join(suffixes, " ") + " " + n.Suffix)
	}

	if lastPre != "" {
		n.Last = lastPre
		if len(pieces) > 0 {
			n.First = pieces[0]
			n.Middle = strings.Join(pieces[1:], " ")
		}
		return n, true
	}

	switch len(pieces) {
	case 0:
	case 1:
		n.First = pieces[0]
	default:
		start := len(pieces) - 1
		for start > 1 && isSurnamePrefix(pieces[start-1]) {
			start--
		}
		n.First = pieces[0]
		n.Middle = strings.Join(pieces[1:start], " ")
		n.Last = strings.Join(pieces[start:], " ")
	}
	return n, true
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func allSuffixes(parts []string) bool {
	for _, part := range parts {
		for _, w := range strings.Fields(part) {
			if !isSuffix(w) {
				return false
			}
		}
	}
	return true
}

func joinSuffixes(parts []string) string {
	return strings.Join(parts, " ")
}

func normalizeToken(w string) string {
	return strings.TrimSuffix(strings.ToLower(w), ".")
}

func isTitle(w string) bool {
	_, ok := nameTitles[normalizeToken(w)]
	return ok
}

func isSuffix(w string) bool {
	_, ok := nameSuffixes[normalizeToken(w)]
	return ok
}

func isSurnamePrefix(w string) bool {
	_, ok := surnamePrefixes[strings.ToLower(w)]
	return ok
}

func hasLetter(w string) bool {
	for _, r := range w {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
