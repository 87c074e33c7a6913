// internal/engine/score.go
package engine

import (
	"math"

	"visa-pathway-workers/internal/catalog"
)

// Feasibility label buckets. These are engine constants, not catalog data,
// so label semantics stay stable across catalog versions.
const (
	LabelVeryHigh = "very high"
	LabelHigh     = "high"
	LabelMedium   = "medium"
	LabelLow      = "low"
	LabelVeryLow  = "very low"
)

// FeasibilityLabel buckets a final score into one of five fixed labels.
func FeasibilityLabel(score int) string {
	switch {
	case score >= 80:
		return LabelVeryHigh
	case score >= 65:
		return LabelHigh
	case score >= 45:
		return LabelMedium
	case score >= 25:
		return LabelLow
	default:
		return LabelVeryLow
	}
}

// Score computes the multi-factor feasibility breakdown for one eligible
// template. Every factor is pure and total: missing catalog data resolves to
// the documented neutral value, never to an error.
//
//	finalScore = clamp(round(base*age*nat*fund*edu*100 + priorityAdj), 0, 100)
func Score(profile *CandidateProfile, t *catalog.PathwayTemplate, cat *catalog.Catalog) ScoreBreakdown {
	base := float64(t.BaseFeasibility) / 100.0

	age := ageMultiplier(profile, t, cat)
	nat := nationalityMultiplier(profile.Nationality, t.ID, cat)
	fund := fundMultiplier(profile.AvailableAnnualFund, t, cat)
	edu := educationMultiplier(profile.EducationLevel, t, cat)

	raw := base * age * nat * fund * edu * 100.0
	adj := priorityAdjustment(profile, t, cat, base, raw)

	final := int(math.Round(raw + adj))
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}

	return ScoreBreakdown{
		Base:                  base,
		AgeMultiplier:         age,
		NationalityMultiplier: nat,
		FundMultiplier:        fund,
		EducationMultiplier:   edu,
		PriorityAdjustment:    adj,
		FinalScore:            final,
	}
}

// ageMultiplier interpolates the catalog's age curve for the template's
// primary goal. Profiles outside the curve take the nearest endpoint; a
// missing curve is neutral.
func ageMultiplier(profile *CandidateProfile, t *catalog.PathwayTemplate, cat *catalog.Catalog) float64 {
	if len(t.Goals) == 0 {
		return 1.0
	}
	curve, ok := cat.Weights.Age[t.Goals[0]]
	if !ok || len(curve.Points) == 0 {
		return 1.0
	}

	pts := curve.Points
	age := profile.Age
	if age <= pts[0].Age {
		return clampMultiplier(pts[0].Multiplier)
	}
	last := pts[len(pts)-1]
	if age >= last.Age {
		return clampMultiplier(last.Multiplier)
	}
	for i := 1; i < len(pts); i++ {
		if age > pts[i].Age {
			continue
		}
		lo, hi := pts[i-1], pts[i]
		frac := float64(age-lo.Age) / float64(hi.Age-lo.Age)
		return clampMultiplier(lo.Multiplier + frac*(hi.Multiplier-lo.Multiplier))
	}
	return clampMultiplier(last.Multiplier)
}

// nationalityMultiplier resolves (nationality, template) overrides first,
// then the nationality tier, then 1.0. Unknown is never punished.
func nationalityMultiplier(nationality, templateID string, cat *catalog.Catalog) float64 {
	for _, o := range cat.Weights.Nationality.Overrides {
		if o.Nationality == nationality && o.TemplateID == templateID {
			return clampMultiplier(o.Multiplier)
		}
	}
	if tier, ok := cat.Weights.Nationality.Tiers[nationality]; ok {
		if m, ok := cat.Weights.Nationality.TierMultipliers[tier]; ok {
			return clampMultiplier(m)
		}
	}
	return 1.0
}

// fundMultiplier is a monotonic step function over the ratio of the
// profile's bracket amount to the template's total nominal cost. Steps, not
// a continuous formula, so the mapping stays auditable.
func fundMultiplier(bracketID string, t *catalog.PathwayTemplate, cat *catalog.Catalog) float64 {
	steps := cat.Weights.Fund
	if len(steps) == 0 {
		return 1.0
	}

	bracket, ok := cat.Bracket(bracketID)
	if !ok {
		return 1.0
	}

	cost := cat.TemplateTotalCost(t)
	var ratio float64
	if cost <= 0 {
		ratio = math.Inf(1)
	} else {
		ratio = float64(bracket.RepresentativeUSD()) / float64(cost)
	}

	for _, step := range steps {
		if ratio >= step.MinRatio {
			return step.Multiplier
		}
	}
	return steps[len(steps)-1].Multiplier
}

// educationMultiplier compares the profile against the terminal stage's
// implied minimum. Hard minimums are predicates and already excluded the
// profile during generation, so the soft penalty floor here is 0.8.
func educationMultiplier(level string, t *catalog.PathwayTemplate, cat *catalog.Catalog) float64 {
	table := cat.Weights.Education
	if table.Meets == 0 {
		return 1.0
	}

	terminal, ok := cat.Stage(t.StageCodes[len(t.StageCodes)-1])
	if !ok || terminal.MinEducation == "" {
		return table.Meets
	}
	want, ok := catalog.EducationRank(terminal.MinEducation)
	if !ok {
		return table.Meets
	}
	have, ok := catalog.EducationRank(level)
	if !ok {
		return table.Meets
	}

	delta := have - want
	if delta < 0 {
		return table.BelowMinimum
	}
	m := table.Meets + float64(delta)*table.PerLevelBonus
	if m > table.Cap {
		return table.Cap
	}
	return m
}

// priorityAdjustment nudges the score toward the candidate's declared
// preference. This is the only factor whose combination mode (additive
// points vs a multiplicative factor) is catalog-documented per preference.
func priorityAdjustment(profile *CandidateProfile, t *catalog.PathwayTemplate, cat *catalog.Catalog, base, raw float64) float64 {
	rule, ok := cat.Weights.Priority[profile.PriorityPreference]
	if !ok {
		return 0
	}

	// relevance is the degree, in [0, 1], to which this template serves the
	// preference.
	var relevance float64
	switch profile.PriorityPreference {
	case PriorityFastest:
		fastest := cat.FastestDurationForGoal(profile.FinalGoal)
		duration := cat.TemplateTotalDuration(t)
		if fastest > 0 && duration > 0 {
			relevance = float64(fastest) / float64(duration)
		}
	case PriorityCheapest:
		cheapest := cat.CheapestCostForGoal(profile.FinalGoal)
		cost := cat.TemplateTotalCost(t)
		switch {
		case cost <= 0:
			relevance = 1.0
		case cheapest > 0:
			relevance = float64(cheapest) / float64(cost)
		}
	case PriorityHighestSuccess:
		relevance = base
	case PrioritySpecificField:
		if profile.Major != "" {
			for _, f := range t.Fields {
				if f == profile.Major {
					relevance = 1.0
					break
				}
			}
		}
	}
	if relevance > 1.0 {
		relevance = 1.0
	}

	switch rule.Mode {
	case catalog.PriorityModeMultiplicative:
		return raw * (rule.Bonus - 1.0) * relevance
	default:
		return rule.Bonus * relevance
	}
}

func clampMultiplier(m float64) float64 {
	if m < 0.5 {
		return 0.5
	}
	if m > 1.5 {
		return 1.5
	}
	return m
}
