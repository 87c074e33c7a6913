// internal/engine/generate.go
package engine

import "visa-pathway-workers/internal/catalog"

// Generate filters the catalog's pathway templates down to the ones the
// profile is structurally eligible for. A template qualifies only if every
// stage in its chain accepts the profile, evaluated in chain order: a later
// stage's predicates state what must hold by the time the candidate reaches
// it, not what must hold today.
//
// An empty result is a legitimate outcome, not an error. No ordering is
// guaranteed here; the ranker owns ordering.
func Generate(profile *CandidateProfile, cat *catalog.Catalog) []*catalog.PathwayTemplate {
	facts := profile.Facts()

	var eligible []*catalog.PathwayTemplate
	for i := range cat.Templates {
		t := &cat.Templates[i]
		if templateEligible(t, facts, cat) {
			eligible = append(eligible, t)
		}
	}
	return eligible
}

func templateEligible(t *catalog.PathwayTemplate, facts catalog.Facts, cat *catalog.Catalog) bool {
	for i, code := range t.StageCodes {
		stage, ok := cat.Stage(code)
		if !ok {
			// Load-time integrity checks make this unreachable; treat a
			// dangling reference as ineligible rather than panicking.
			return false
		}

		if i == 0 && !firstStageReachable(stage, facts.CurrentVisa) {
			return false
		}

		for j := range stage.Eligibility {
			if !stage.Eligibility[j].Evaluate(cat, facts) {
				return false
			}
		}
	}
	return true
}

// firstStageReachable rejects chains whose entry stage cannot follow the
// candidate's current status. A candidate with no current visa can start any
// chain; one already holding the entry stage's visa can continue it.
func firstStageReachable(stage *catalog.VisaStage, currentVisa string) bool {
	if currentVisa == "" {
		return true
	}
	if currentVisa == stage.Code {
		return true
	}
	if len(stage.TransitionsFrom) == 0 {
		return true
	}
	for _, from := range stage.TransitionsFrom {
		if from == currentVisa {
			return true
		}
	}
	return false
}
