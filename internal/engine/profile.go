// internal/engine/profile.go
package engine

import "visa-pathway-workers/internal/catalog"

// Final goals a candidate can declare.
const (
	GoalLearnLanguage      = "LEARN_LANGUAGE"
	GoalShortTermWork      = "SHORT_TERM_WORK"
	GoalLongTermWork       = "LONG_TERM_WORK"
	GoalStudyDegree        = "STUDY_DEGREE"
	GoalPermanentResidency = "PERMANENT_RESIDENCY"
)

// Priority preferences steering the final score adjustment.
const (
	PriorityFastest        = "FASTEST"
	PriorityCheapest       = "CHEAPEST"
	PriorityHighestSuccess = "HIGHEST_SUCCESS"
	PrioritySpecificField  = "SPECIFIC_FIELD"
)

var finalGoals = []string{
	GoalLearnLanguage,
	GoalShortTermWork,
	GoalLongTermWork,
	GoalStudyDegree,
	GoalPermanentResidency,
}

var priorityPreferences = []string{
	PriorityFastest,
	PriorityCheapest,
	PriorityHighestSuccess,
	PrioritySpecificField,
}

const (
	minAge   = 16
	maxAge   = 99
	maxTopik = 6
)

// RawProfile is the wire shape the presentation layer submits. Optional
// fields are pointers so absence is distinguishable from a zero value.
type RawProfile struct {
	Nationality         string  `json:"nationality"`
	Age                 *int    `json:"age"`
	EducationLevel      string  `json:"educationLevel"`
	AvailableAnnualFund string  `json:"availableAnnualFund"`
	FinalGoal           string  `json:"finalGoal"`
	PriorityPreference  string  `json:"priorityPreference"`
	TopikLevel          *int    `json:"topikLevel,omitempty"`
	WorkExperienceYears *int    `json:"workExperienceYears,omitempty"`
	Major               string  `json:"major,omitempty"`
	IsEthnicKorean      *bool   `json:"isEthnicKorean,omitempty"`
	CurrentVisa         *string `json:"currentVisa,omitempty"`
}

// CandidateProfile is the validated, canonical profile. It is immutable once
// produced: every optional field already carries its neutral default, so no
// downstream component has to reason about absence.
type CandidateProfile struct {
	Nationality         string `json:"nationality"`
	Age                 int    `json:"age"`
	EducationLevel      string `json:"educationLevel"`
	AvailableAnnualFund string `json:"availableAnnualFund"`
	FinalGoal           string `json:"finalGoal"`
	PriorityPreference  string `json:"priorityPreference"`
	TopikLevel          int    `json:"topikLevel"`
	WorkExperienceYears int    `json:"workExperienceYears"`
	Major               string `json:"major,omitempty"`
	IsEthnicKorean      bool   `json:"isEthnicKorean"`
	CurrentVisa         string `json:"currentVisa,omitempty"`
}

// Facts flattens the profile for predicate evaluation.
func (p *CandidateProfile) Facts() catalog.Facts {
	return catalog.Facts{
		Nationality:         p.Nationality,
		Age:                 p.Age,
		EducationLevel:      p.EducationLevel,
		FundBracket:         p.AvailableAnnualFund,
		FinalGoal:           p.FinalGoal,
		TopikLevel:          p.TopikLevel,
		WorkExperienceYears: p.WorkExperienceYears,
		Major:               p.Major,
		IsEthnicKorean:      p.IsEthnicKorean,
		CurrentVisa:         p.CurrentVisa,
	}
}
