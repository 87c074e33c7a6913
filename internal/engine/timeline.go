// internal/engine/timeline.go
package engine

import (
	"math"

	"visa-pathway-workers/internal/catalog"
)

// weeksPerMonth is the average used to project a monthly income from a
// weekly work-hour cap.
const weeksPerMonth = 4.345

// BuildTimeline expands a template into the profile-specific milestone
// sequence. Milestone count always equals the chain length; no stage is
// skipped or merged, and month offsets accumulate so that each milestone
// starts exactly where the previous one ends.
func BuildTimeline(t *catalog.PathwayTemplate, profile *CandidateProfile, cat *catalog.Catalog) []Milestone {
	facts := profile.Facts()

	milestones := make([]Milestone, 0, len(t.StageCodes))
	month := 0
	cumulativeCost := 0

	for _, code := range t.StageCodes {
		stage, ok := cat.Stage(code)
		if !ok {
			continue
		}
		cumulativeCost += stage.NominalCostUSD

		m := Milestone{
			StageCode:         stage.Code,
			Label:             stage.Name,
			MonthFromStart:    month,
			DurationMonths:    stage.NominalDurationMonths,
			StageCostUSD:      stage.NominalCostUSD,
			CumulativeCostUSD: cumulativeCost,
			CanWorkPartTime:   stage.CanWork,
			Requirements:      resolveRequirements(stage, facts, cat),
		}

		if stage.CanWork && stage.WeeklyWorkHourCap != nil {
			m.WeeklyHours = *stage.WeeklyWorkHourCap
			income := roundToPrecision(
				float64(*stage.WeeklyWorkHourCap)*stage.HourlyWageUSD*weeksPerMonth,
				cat.CurrencyPrecision,
			)
			m.EstimatedMonthlyIncome = &income
		}

		milestones = append(milestones, m)
		month += stage.NominalDurationMonths
	}
	return milestones
}

// resolveRequirements marks requirements the profile already satisfies so
// the caller does not present them as open action items.
func resolveRequirements(stage *catalog.VisaStage, facts catalog.Facts, cat *catalog.Catalog) []Requirement {
	out := make([]Requirement, 0, len(stage.Requirements))
	for i := range stage.Requirements {
		r := stage.Requirements[i]
		satisfied := r.Satisfies != nil && r.Satisfies.Evaluate(cat, facts)
		out = append(out, Requirement{Text: r.Text, Satisfied: satisfied})
	}
	return out
}

// nextSteps derives the short-term action list: the open requirements of the
// first milestone that still has any.
func nextSteps(milestones []Milestone) []string {
	for _, m := range milestones {
		var open []string
		for _, r := range m.Requirements {
			if !r.Satisfied {
				open = append(open, r.Text)
			}
		}
		if len(open) > 0 {
			return open
		}
	}
	return []string{}
}

func roundToPrecision(v float64, precision int) float64 {
	factor := math.Pow(10, float64(precision))
	return math.Round(v*factor) / factor
}
