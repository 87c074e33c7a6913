// internal/catalog/loader.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"visa-pathway-workers/pkg/catalogschema"
)

// IntegrityError reports a malformed catalog document. It is fatal at load
// or swap time; a catalog that fails integrity never becomes visible to
// requests.
type IntegrityError struct {
	Problems []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("catalog integrity: %s", strings.Join(e.Problems, "; "))
}

// Load reads, schema-validates and integrity-checks a catalog document.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog snapshot from raw JSON. Every structural and
// semantic problem is collected so operators see the full list at once.
func Parse(data []byte) (*Catalog, error) {
	issues, err := catalogschema.Validate(data)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 {
		problems := make([]string, 0, len(issues))
		for _, i := range issues {
			problems = append(problems, fmt.Sprintf("%s: %s", i.Field, i.Message))
		}
		return nil, &IntegrityError{Problems: problems}
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c.buildIndex()

	if problems := c.integrityProblems(); len(problems) > 0 {
		return nil, &IntegrityError{Problems: problems}
	}
	return &c, nil
}

// integrityProblems applies the semantic checks the JSON schema cannot
// express: dangling references, empty chains, bracket ordering, weight
// table ranges.
func (c *Catalog) integrityProblems() []string {
	var problems []string

	seenStages := make(map[string]bool)
	for _, s := range c.Stages {
		if seenStages[s.Code] {
			problems = append(problems, fmt.Sprintf("duplicate stage code %q", s.Code))
		}
		seenStages[s.Code] = true

		if s.CanWork && s.WeeklyWorkHourCap == nil {
			problems = append(problems, fmt.Sprintf("stage %q: canWork without weeklyWorkHourCap", s.Code))
		}
		if s.MinEducation != "" {
			if _, ok := EducationRank(s.MinEducation); !ok {
				problems = append(problems, fmt.Sprintf("stage %q: unknown minEducation %q", s.Code, s.MinEducation))
			}
		}
		for i := range s.Eligibility {
			if err := s.Eligibility[i].Validate(); err != nil {
				problems = append(problems, fmt.Sprintf("stage %q: %v", s.Code, err))
			}
		}
		for i := range s.Requirements {
			if s.Requirements[i].Satisfies != nil {
				if err := s.Requirements[i].Satisfies.Validate(); err != nil {
					problems = append(problems, fmt.Sprintf("stage %q requirement %d: %v", s.Code, i, err))
				}
			}
		}
	}

	seenTemplates := make(map[string]bool)
	for i := range c.Templates {
		t := &c.Templates[i]
		if seenTemplates[t.ID] {
			problems = append(problems, fmt.Sprintf("duplicate template id %q", t.ID))
		}
		seenTemplates[t.ID] = true

		if len(t.StageCodes) == 0 {
			problems = append(problems, fmt.Sprintf("template %q: empty stage chain", t.ID))
			continue
		}
		for _, code := range t.StageCodes {
			if !seenStages[code] {
				problems = append(problems, fmt.Sprintf("template %q: dangling stage reference %q", t.ID, code))
			}
		}
	}

	prevMin := -1
	for _, b := range c.FundBrackets {
		if b.MinUSD <= prevMin {
			problems = append(problems, fmt.Sprintf("fund bracket %q: scale not strictly ascending", b.ID))
		}
		prevMin = b.MinUSD
		if b.MaxUSD > 0 && b.MaxUSD < b.MinUSD {
			problems = append(problems, fmt.Sprintf("fund bracket %q: maxUsd below minUsd", b.ID))
		}
	}

	for goal, curve := range c.Weights.Age {
		if len(curve.Points) == 0 {
			problems = append(problems, fmt.Sprintf("age curve %q: no breakpoints", goal))
			continue
		}
		prevAge := -1
		for _, p := range curve.Points {
			if p.Age <= prevAge {
				problems = append(problems, fmt.Sprintf("age curve %q: breakpoints not ascending", goal))
				break
			}
			prevAge = p.Age
			if p.Multiplier < 0.5 || p.Multiplier > 1.5 {
				problems = append(problems, fmt.Sprintf("age curve %q: multiplier %.2f outside [0.5, 1.5]", goal, p.Multiplier))
			}
		}
	}

	for _, o := range c.Weights.Nationality.Overrides {
		if o.Multiplier < 0.5 || o.Multiplier > 1.5 {
			problems = append(problems, fmt.Sprintf("nationality override %s/%s: multiplier %.2f outside [0.5, 1.5]", o.Nationality, o.TemplateID, o.Multiplier))
		}
		if !seenTemplates[o.TemplateID] {
			problems = append(problems, fmt.Sprintf("nationality override %s/%s: unknown template", o.Nationality, o.TemplateID))
		}
	}
	for tier, m := range c.Weights.Nationality.TierMultipliers {
		if m < 0.5 || m > 1.5 {
			problems = append(problems, fmt.Sprintf("nationality tier %q: multiplier %.2f outside [0.5, 1.5]", tier, m))
		}
	}

	prevRatio := -1.0
	for i := len(c.Weights.Fund) - 1; i >= 0; i-- {
		step := c.Weights.Fund[i]
		if step.MinRatio <= prevRatio {
			problems = append(problems, "fund steps: minRatio not descending")
			break
		}
		prevRatio = step.MinRatio
	}
	for i, step := range c.Weights.Fund {
		if step.Multiplier < 0.6 || step.Multiplier > 1.3 {
			problems = append(problems, fmt.Sprintf("fund step %d: multiplier %.2f outside [0.6, 1.3]", i, step.Multiplier))
		}
	}

	// A zero-valued table means the catalog carries no education weights;
	// scoring then treats the factor as neutral.
	if edu := c.Weights.Education; edu.Meets != 0 {
		if edu.BelowMinimum < 0.8 {
			problems = append(problems, fmt.Sprintf("education table: belowMinimum %.2f below the 0.8 floor", edu.BelowMinimum))
		}
		if edu.Cap > 1.2 {
			problems = append(problems, fmt.Sprintf("education table: cap %.2f above the 1.2 ceiling", edu.Cap))
		}
		if edu.PerLevelBonus < 0 {
			problems = append(problems, fmt.Sprintf("education table: perLevelBonus %.2f negative", edu.PerLevelBonus))
		}
	}

	for pref, rule := range c.Weights.Priority {
		if rule.Mode != PriorityModeAdditive && rule.Mode != PriorityModeMultiplicative {
			problems = append(problems, fmt.Sprintf("priority rule %q: unknown mode %q", pref, rule.Mode))
		}
	}

	return problems
}
