package classifier

import "github.com/ajitpratap0/edgar-entities/internal/models"

// FormResolver maps observed form types to regime flags.
type FormResolver interface {
	Resolve(formTypes []string) []string
}

// Dispatcher combines regime and text classification. Regime flags, when any
// form type yields one, replace the text outcome entirely.
type Dispatcher struct {
	text  Classifier
	forms FormResolver
}

// NewDispatcher creates a dispatcher. forms may be nil, in which case only
// text classification is used.
func NewDispatcher(text Classifier, forms FormResolver) *Dispatcher {
	return &Dispatcher{text: text, forms: forms}
}

// Classify returns the outcome for a name and its observed form types.
func (d *Dispatcher) Classify(name string, formTypes []string) models.Classification {
	if len(formTypes) > 0 && d.forms != nil {
		if flags := d.forms.Resolve(formTypes); len(flags) > 0 {
			return models.RegimeFlags(flags...)
		}
	}
	return d.text.ClassifyText(name)
}

// Decider is a Classifier that can also report the rule it applied.
type Decider interface {
	Decide(name string) Decision
}

// Explanation reports how Classify reached its outcome.
type Explanation struct {
	Classification models.Classification `json:"classification"`
	Source         string                `json:"source"`
	Phase          string                `json:"phase,omitempty"`
	Rule           string                `json:"rule,omitempty"`
}

// Sources of an Explanation.
const (
	SourceRegime = "regime"
	SourceText   = "text"
)

// Explain is Classify with the deciding source and, when the text classifier
// supports it, the phase and rule.
func (d *Dispatcher) Explain(name string, formTypes []string) Explanation {
	if len(formTypes) > 0 && d.forms != nil {
		if flags := d.forms.Resolve(formTypes); len(flags) > 0 {
			return Explanation{Classification: models.RegimeFlags(flags...), Source: SourceRegime}
		}
	}
	if dec, ok := d.text.(Decider); ok {
		r := dec.Decide(name)
		return Explanation{Classification: r.Classification, Source: SourceText, Phase: r.PhaseName, Rule: r.Rule}
	}
	return Explanation{Classification: d.text.ClassifyText(name), Source: SourceText}
}
