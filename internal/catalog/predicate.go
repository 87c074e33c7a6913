// internal/catalog/predicate.go
package catalog

import "fmt"

// Facts is the flattened view of a normalized candidate profile that
// predicates evaluate against. The engine populates it; predicates never see
// raw input.
type Facts struct {
	Nationality         string
	Age                 int
	EducationLevel      string
	FundBracket         string
	FinalGoal           string
	TopikLevel          int
	WorkExperienceYears int
	Major               string
	IsEthnicKorean      bool
	CurrentVisa         string
}

// Predicate is a declarative eligibility constraint. Rules are authored as
// data in the catalog document, not as code, so adding a pathway never
// touches engine logic.
//
// Kinds:
//
//	range              Min/Max bounds on a numeric field (age, topik,
//	                   experience_years); nil bound means unbounded
//	education_at_least profile education >= Level
//	fund_at_least      profile fund bracket >= Bracket on the catalog scale
//	nationality_in     profile nationality in Values
//	goal_in            profile final goal in Values
//	major_in           profile major in Values
//	ethnic_korean      profile flag equals Flag
//	all / any          boolean combinators over Preds
type Predicate struct {
	Kind    string      `json:"kind"`
	Field   string      `json:"field,omitempty"`
	Min     *int        `json:"min,omitempty"`
	Max     *int        `json:"max,omitempty"`
	Level   string      `json:"level,omitempty"`
	Bracket string      `json:"bracket,omitempty"`
	Values  []string    `json:"values,omitempty"`
	Flag    *bool       `json:"flag,omitempty"`
	Preds   []Predicate `json:"preds,omitempty"`
}

const (
	PredRange       = "range"
	PredEducation   = "education_at_least"
	PredFund        = "fund_at_least"
	PredNationality = "nationality_in"
	PredGoal        = "goal_in"
	PredMajor       = "major_in"
	PredEthnic      = "ethnic_korean"
	PredAll         = "all"
	PredAny         = "any"
)

const (
	FieldAge             = "age"
	FieldTopik           = "topik"
	FieldExperienceYears = "experience_years"
)

// educationLadder orders education levels from lowest to highest. Shared by
// predicate evaluation and profile validation.
var educationLadder = []string{
	"BELOW_HIGH_SCHOOL",
	"HIGH_SCHOOL",
	"ASSOCIATE",
	"BACHELOR",
	"MASTER",
	"DOCTORATE",
}

// EducationRank returns the position of a level on the ladder. The boolean
// reports whether the level is a known one.
func EducationRank(level string) (int, bool) {
	for i, l := range educationLadder {
		if l == level {
			return i, true
		}
	}
	return -1, false
}

// EducationLevels returns the ordered set of valid education levels.
func EducationLevels() []string {
	out := make([]string, len(educationLadder))
	copy(out, educationLadder)
	return out
}

// Evaluate reports whether the facts satisfy the predicate. Evaluation is
// pure and total: a malformed predicate (which Validate rejects at load
// time) evaluates to false rather than panicking.
func (p *Predicate) Evaluate(c *Catalog, f Facts) bool {
	switch p.Kind {
	case PredRange:
		v, ok := p.rangeValue(f)
		if !ok {
			return false
		}
		if p.Min != nil && v < *p.Min {
			return false
		}
		if p.Max != nil && v > *p.Max {
			return false
		}
		return true

	case PredEducation:
		want, ok := EducationRank(p.Level)
		if !ok {
			return false
		}
		have, ok := EducationRank(f.EducationLevel)
		return ok && have >= want

	case PredFund:
		want := c.BracketRank(p.Bracket)
		have := c.BracketRank(f.FundBracket)
		return want >= 0 && have >= want

	case PredNationality:
		return containsString(p.Values, f.Nationality)

	case PredGoal:
		return containsString(p.Values, f.FinalGoal)

	case PredMajor:
		return containsString(p.Values, f.Major)

	case PredEthnic:
		return p.Flag != nil && f.IsEthnicKorean == *p.Flag

	case PredAll:
		for i := range p.Preds {
			if !p.Preds[i].Evaluate(c, f) {
				return false
			}
		}
		return true

	case PredAny:
		for i := range p.Preds {
			if p.Preds[i].Evaluate(c, f) {
				return true
			}
		}
		return false
	}
	return false
}

func (p *Predicate) rangeValue(f Facts) (int, bool) {
	switch p.Field {
	case FieldAge:
		return f.Age, true
	case FieldTopik:
		return f.TopikLevel, true
	case FieldExperienceYears:
		return f.WorkExperienceYears, true
	}
	return 0, false
}

// Validate rejects malformed predicates at catalog load time so that no
// request ever evaluates one.
func (p *Predicate) Validate() error {
	switch p.Kind {
	case PredRange:
		switch p.Field {
		case FieldAge, FieldTopik, FieldExperienceYears:
		default:
			return fmt.Errorf("range predicate: unknown field %q", p.Field)
		}
		if p.Min == nil && p.Max == nil {
			return fmt.Errorf("range predicate on %q: no bounds", p.Field)
		}
	case PredEducation:
		if _, ok := EducationRank(p.Level); !ok {
			return fmt.Errorf("education predicate: unknown level %q", p.Level)
		}
	case PredFund:
		if p.Bracket == "" {
			return fmt.Errorf("fund predicate: missing bracket")
		}
	case PredNationality, PredGoal, PredMajor:
		if len(p.Values) == 0 {
			return fmt.Errorf("%s predicate: empty value set", p.Kind)
		}
	case PredEthnic:
		if p.Flag == nil {
			return fmt.Errorf("ethnic_korean predicate: missing flag")
		}
	case PredAll, PredAny:
		if len(p.Preds) == 0 {
			return fmt.Errorf("%s predicate: empty combinator", p.Kind)
		}
		for i := range p.Preds {
			if err := p.Preds[i].Validate(); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown predicate kind %q", p.Kind)
	}
	return nil
}
