// internal/catalog/catalog.go
package catalog

// Catalog is an immutable snapshot of the visa rule set: stages, pathway
// templates and the weight tables the scorer reads. A snapshot is never
// mutated after Load; hot swaps replace the whole snapshot (see Store).
type Catalog struct {
	Version           string            `json:"version"`
	CurrencyPrecision int               `json:"currencyPrecision"`
	Stages            []VisaStage       `json:"stages"`
	Templates         []PathwayTemplate `json:"templates"`
	FundBrackets      []FundBracket     `json:"fundBrackets"`
	Weights           WeightTables      `json:"weights"`

	stageIndex map[string]*VisaStage
}

// VisaStage is one legal status step with its own work rights, duration,
// cost and entry conditions.
type VisaStage struct {
	Code                  string        `json:"code"`
	Name                  string        `json:"name"`
	CanWork               bool          `json:"canWork"`
	WeeklyWorkHourCap     *int          `json:"weeklyWorkHourCap,omitempty"`
	HourlyWageUSD         float64       `json:"hourlyWageUsd,omitempty"`
	NominalDurationMonths int           `json:"nominalDurationMonths"`
	NominalCostUSD        int           `json:"nominalCostUsd"`
	MinEducation          string        `json:"minEducation,omitempty"`
	TransitionsFrom       []string      `json:"transitionsFrom,omitempty"`
	Requirements          []Requirement `json:"requirements,omitempty"`
	Eligibility           []Predicate   `json:"eligibility,omitempty"`
}

// Requirement is a single preparation item for a stage. When Satisfies is
// set and the predicate already holds for a profile, the item is reported as
// satisfied instead of being duplicated as an open action.
type Requirement struct {
	Text      string     `json:"text"`
	Satisfies *Predicate `json:"satisfies,omitempty"`
}

// PathwayTemplate is an ordered chain of stage codes representing one
// strategy toward a goal.
type PathwayTemplate struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	StageCodes      []string `json:"stageCodes"`
	BaseFeasibility int      `json:"baseFeasibility"`
	Goals           []string `json:"goals"`
	Fields          []string `json:"fields,omitempty"`
}

// FundBracket defines one identifier of the ascending annual-fund scale.
// The representative amount (midpoint, or MinUSD for an open-top bracket)
// feeds the fund-vs-cost ratio in the scorer.
type FundBracket struct {
	ID     string `json:"id"`
	MinUSD int    `json:"minUsd"`
	MaxUSD int    `json:"maxUsd,omitempty"` // 0 means open-top
}

// RepresentativeUSD returns the amount used for fund-vs-cost comparisons.
func (b FundBracket) RepresentativeUSD() int {
	if b.MaxUSD <= 0 {
		return b.MinUSD
	}
	return (b.MinUSD + b.MaxUSD) / 2
}

// WeightTables holds the authored scoring data. All lookups have documented
// neutral defaults so that a missing entry never penalizes a profile.
type WeightTables struct {
	Age         map[string]AgeCurve     `json:"age"`
	Nationality NationalityTable        `json:"nationality"`
	Fund        []FundStep              `json:"fund"`
	Education   EducationTable          `json:"education"`
	Priority    map[string]PriorityRule `json:"priority"`
}

// AgeCurve is an ordered breakpoint table mapping age to a multiplier.
// Values between breakpoints are linearly interpolated; outside the table
// the nearest endpoint applies.
type AgeCurve struct {
	Points []AgePoint `json:"points"`
}

type AgePoint struct {
	Age        int     `json:"age"`
	Multiplier float64 `json:"multiplier"`
}

// NationalityTable maps (nationality, template) pairs to multipliers, with
// a nationality-tier fallback. Missing entries resolve to 1.0.
type NationalityTable struct {
	Overrides       []NationalityOverride `json:"overrides,omitempty"`
	Tiers           map[string]string     `json:"tiers,omitempty"`
	TierMultipliers map[string]float64    `json:"tierMultipliers,omitempty"`
}

type NationalityOverride struct {
	Nationality string  `json:"nationality"`
	TemplateID  string  `json:"templateId"`
	Multiplier  float64 `json:"multiplier"`
}

// FundStep maps a minimum fund-vs-cost ratio to a multiplier. Steps are
// authored in descending ratio order; the first step whose MinRatio the
// profile meets wins.
type FundStep struct {
	MinRatio   float64 `json:"minRatio"`
	Multiplier float64 `json:"multiplier"`
}

// EducationTable turns the gap between a profile's education level and a
// template's terminal-stage minimum into a multiplier.
type EducationTable struct {
	BelowMinimum  float64 `json:"belowMinimum"`
	Meets         float64 `json:"meets"`
	PerLevelBonus float64 `json:"perLevelBonus"`
	Cap           float64 `json:"cap"`
}

// PriorityRule documents how one priority preference adjusts the score.
// Mode is "additive" (Bonus is points on the 0-100 scale) or
// "multiplicative" (Bonus is a factor applied to the pre-adjustment score).
type PriorityRule struct {
	Mode  string  `json:"mode"`
	Bonus float64 `json:"bonus"`
}

const (
	PriorityModeAdditive       = "additive"
	PriorityModeMultiplicative = "multiplicative"
)

// Validate indexes the snapshot and runs the semantic integrity checks.
// Catalogs constructed in code (rather than through Load) must pass through
// here before use.
func (c *Catalog) Validate() error {
	c.buildIndex()
	if problems := c.integrityProblems(); len(problems) > 0 {
		return &IntegrityError{Problems: problems}
	}
	return nil
}

// Stage resolves a stage code against the snapshot index.
func (c *Catalog) Stage(code string) (*VisaStage, bool) {
	if c.stageIndex == nil {
		for i := range c.Stages {
			if c.Stages[i].Code == code {
				return &c.Stages[i], true
			}
		}
		return nil, false
	}
	s, ok := c.stageIndex[code]
	return s, ok
}

// Bracket resolves a fund bracket identifier. The boolean reports membership
// in the catalog's bracket scale.
func (c *Catalog) Bracket(id string) (FundBracket, bool) {
	for _, b := range c.FundBrackets {
		if b.ID == id {
			return b, true
		}
	}
	return FundBracket{}, false
}

// BracketRank returns the position of a bracket on the ascending scale,
// or -1 for an unknown identifier.
func (c *Catalog) BracketRank(id string) int {
	for i, b := range c.FundBrackets {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// TemplateTotalCost sums the nominal cost of every stage in the chain.
func (c *Catalog) TemplateTotalCost(t *PathwayTemplate) int {
	total := 0
	for _, code := range t.StageCodes {
		if s, ok := c.Stage(code); ok {
			total += s.NominalCostUSD
		}
	}
	return total
}

// TemplateTotalDuration sums the nominal duration of every stage in the chain.
func (c *Catalog) TemplateTotalDuration(t *PathwayTemplate) int {
	total := 0
	for _, code := range t.StageCodes {
		if s, ok := c.Stage(code); ok {
			total += s.NominalDurationMonths
		}
	}
	return total
}

// FastestDurationForGoal returns the shortest total duration among templates
// declaring the goal, used by the FASTEST priority adjustment. Returns 0 when
// no template declares the goal.
func (c *Catalog) FastestDurationForGoal(goal string) int {
	best := 0
	for i := range c.Templates {
		t := &c.Templates[i]
		if !containsString(t.Goals, goal) {
			continue
		}
		d := c.TemplateTotalDuration(t)
		if best == 0 || d < best {
			best = d
		}
	}
	return best
}

// CheapestCostForGoal is the cost analogue of FastestDurationForGoal.
func (c *Catalog) CheapestCostForGoal(goal string) int {
	best := 0
	for i := range c.Templates {
		t := &c.Templates[i]
		if !containsString(t.Goals, goal) {
			continue
		}
		cost := c.TemplateTotalCost(t)
		if best == 0 || cost < best {
			best = cost
		}
	}
	return best
}

func (c *Catalog) buildIndex() {
	c.stageIndex = make(map[string]*VisaStage, len(c.Stages))
	for i := range c.Stages {
		c.stageIndex[c.Stages[i].Code] = &c.Stages[i]
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
