package models

import (
	"slices"
	"strings"
)

// EntityKind is the tag of a classification outcome.
type EntityKind string

const (
	EntityKindCompany      EntityKind = "company"
	EntityKindPerson       EntityKind = "person"
	EntityKindUnclassified EntityKind = "unclassified"
	EntityKindRegime       EntityKind = "regime"
)

// ValidEntityKinds is the set of all valid entity kinds.
var ValidEntityKinds = []EntityKind{
	EntityKindCompany,
	EntityKindPerson,
	EntityKindUnclassified,
	EntityKindRegime,
}

// IsValid returns true if the entity kind is recognized.
func (ek EntityKind) IsValid() bool {
	for i := range ValidEntityKinds {
		if ek == ValidEntityKinds[i] {
			return true
		}
	}
	return false
}

// Classification is the outcome attached to a canonical record.
// Flags is only populated when Kind is EntityKindRegime; a regime outcome
// replaces the Company/Person decision rather than adding to it.
type Classification struct {
	Kind  EntityKind `json:"kind"`
	Flags []string   `json:"flags,omitempty"`
}

// Company, Person and Unclassified are the three text outcomes.
var (
	Company      = Classification{Kind: EntityKindCompany}
	Person       = Classification{Kind: EntityKindPerson}
	Unclassified = Classification{Kind: EntityKindUnclassified}
)

// RegimeFlags builds a regime outcome. The flags are copied and sorted so that
// equal flag sets always produce equal outcomes.
func RegimeFlags(flags ...string) Classification {
	out := slices.Clone(flags)
	slices.Sort(out)
	return Classification{Kind: EntityKindRegime, Flags: out}
}

// Equal reports whether two outcomes carry the same tag and flags.
func (c Classification) Equal(other Classification) bool {
	return c.Kind == other.Kind && slices.Equal(c.Flags, other.Flags)
}

// Key is the label an outcome is counted under in aggregate reports.
func (c Classification) Key() string {
	if c.Kind == EntityKindRegime {
		return strings.Join(c.Flags, "+")
	}
	return string(c.Kind)
}

func (c Classification) String() string {
	if c.Kind == EntityKindRegime {
		return "regime(" + strings.Join(c.Flags, ",") + ")"
	}
	return string(c.Kind)
}
