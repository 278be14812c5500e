package models

import "time"

// Sighting is one observed filing-index line.
type Sighting struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	FormType   string `json:"form_type"`
	Filed      string `json:"filed"`
	Accession  string `json:"accession"`
}

// Filing returns the form entry carried by the sighting.
func (s Sighting) Filing() Filing {
	return Filing{FormType: s.FormType, Filed: s.Filed, Accession: s.Accession}
}

// Filing is a single form-history entry of a record.
type Filing struct {
	FormType  string `json:"form_type"`
	Filed     string `json:"filed"`
	Accession string `json:"accession"`
}

// NameVariant records a display name that differs from every name already
// associated with the identifier, together with the filing it appeared on.
type NameVariant struct {
	Name   string `json:"name"`
	Filing Filing `json:"filing"`
}

// Record is the canonical, merged view of every sighting of one identifier.
type Record struct {
	Identifier     string          `json:"identifier"`
	OriginalName   string          `json:"original_name"`
	NameVariants   []NameVariant   `json:"name_variants"`
	Forms          []Filing        `json:"forms"`
	Classification *Classification `json:"classification,omitempty"`
	FirstSeenAt    time.Time       `json:"first_seen_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// FormTypes returns the distinct form types observed, in first-seen order.
func (r *Record) FormTypes() []string {
	out := make([]string, 0, len(r.Forms))
	for i := range r.Forms {
		out = append(out, r.Forms[i].FormType)
	}
	return out
}

// HasName reports whether name is the original name or a recorded variant.
func (r *Record) HasName(name string) bool {
	if r.OriginalName == name {
		return true
	}
	for i := range r.NameVariants {
		if r.NameVariants[i].Name == name {
			return true
		}
	}
	return false
}

// HasForm reports whether formType is already part of the form history.
func (r *Record) HasForm(formType string) bool {
	for i := range r.Forms {
		if r.Forms[i].FormType == formType {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r *Record) Clone() *Record {
	out := *r
	out.NameVariants = append([]NameVariant(nil), r.NameVariants...)
	out.Forms = append([]Filing(nil), r.Forms...)
	if r.Classification != nil {
		c := *r.Classification
		c.Flags = append([]string(nil), r.Classification.Flags...)
		out.Classification = &c
	}
	return &out
}

// ClassificationStats holds counts of records by outcome kind.
type ClassificationStats struct {
	Total        int64            `json:"total"`
	Companies    int64            `json:"companies"`
	Persons      int64            `json:"persons"`
	Unclassified int64            `json:"unclassified"`
	Pending      int64            `json:"pending"`
	ByFlags      map[string]int64 `json:"by_flags"`
}

// Add counts one record outcome. A nil outcome counts as pending.
func (s *ClassificationStats) Add(c *Classification) {
	s.Total++
	if c == nil {
		s.Pending++
		return
	}
	switch c.Kind {
	case EntityKindCompany:
		s.Companies++
	case EntityKindPerson:
		s.Persons++
	case EntityKindRegime:
		if s.ByFlags == nil {
			s.ByFlags = make(map[string]int64)
		}
		s.ByFlags[c.Key()]++
	default:
		s.Unclassified++
	}
}
