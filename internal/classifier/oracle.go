package classifier

//go:generate mockgen -source=oracle.go -destination=mocks/mocks.go -package=mocks NameOracle

// NameOracle judges whether a token is a plausible personal given name.
// Implementations must be safe for concurrent use.
type NameOracle interface {
	IsPlausibleGivenName(token string) bool
}

// nameCheck decides whether a parsed name belongs to a person. The classifier
// picks one implementation at construction time depending on whether an
// oracle was supplied.
type nameCheck interface {
	accepts(n PersonName) bool
	oracleBacked() bool
}

// oracleCheck accepts a name when the oracle affirms its given name.
type oracleCheck struct {
	oracle NameOracle
}

func (c oracleCheck) accepts(n PersonName) bool {
	return c.oracle.IsPlausibleGivenName(n.First)
}

func (oracleCheck) oracleBacked() bool { return true }

// structuralCheck is used when no oracle is configured: any name with both a
// given name and a surname is accepted.
type structuralCheck struct{}

func (structuralCheck) accepts(n PersonName) bool {
	return n.First != "" && n.Last != ""
}

func (structuralCheck) oracleBacked() bool { return false }
