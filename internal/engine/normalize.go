// internal/engine/normalize.go
package engine

import (
	"fmt"
	"strings"

	"visa-pathway-workers/internal/catalog"
)

// FieldError describes one invalid profile field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError carries the complete list of failing fields. The wizard
// resubmits partial corrections, so normalization never stops at the first
// problem.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("profile validation failed: %s", strings.Join(names, ", "))
}

// Normalize validates a raw profile and canonicalizes it. Either every field
// passes and a fully-populated CandidateProfile comes back, or a
// ValidationError enumerating all failures does; no partially-valid profile
// ever reaches the rest of the pipeline.
func Normalize(raw *RawProfile, cat *catalog.Catalog) (*CandidateProfile, error) {
	var errs []FieldError

	nationality := strings.ToUpper(strings.TrimSpace(raw.Nationality))
	if nationality == "" {
		errs = append(errs, FieldError{
			Field:   "nationality",
			Code:    "MISSING_REQUIRED",
			Message: "nationality is required",
		})
	}

	age := 0
	if raw.Age == nil {
		errs = append(errs, FieldError{
			Field:   "age",
			Code:    "MISSING_REQUIRED",
			Message: "age is required",
		})
	} else if *raw.Age < minAge || *raw.Age > maxAge {
		errs = append(errs, FieldError{
			Field:   "age",
			Code:    "OUT_OF_RANGE",
			Message: fmt.Sprintf("age must be between %d and %d", minAge, maxAge),
		})
	} else {
		age = *raw.Age
	}

	education := strings.TrimSpace(raw.EducationLevel)
	if education == "" {
		errs = append(errs, FieldError{
			Field:   "educationLevel",
			Code:    "MISSING_REQUIRED",
			Message: "educationLevel is required",
		})
	} else if _, ok := catalog.EducationRank(education); !ok {
		errs = append(errs, FieldError{
			Field:   "educationLevel",
			Code:    "INVALID_ENUM",
			Message: fmt.Sprintf("educationLevel must be one of %s", strings.Join(catalog.EducationLevels(), ", ")),
		})
	}

	fund := strings.TrimSpace(raw.AvailableAnnualFund)
	if fund == "" {
		errs = append(errs, FieldError{
			Field:   "availableAnnualFund",
			Code:    "MISSING_REQUIRED",
			Message: "availableAnnualFund is required",
		})
	} else if cat.BracketRank(fund) < 0 {
		errs = append(errs, FieldError{
			Field:   "availableAnnualFund",
			Code:    "INVALID_ENUM",
			Message: fmt.Sprintf("availableAnnualFund %q is not a known bracket", fund),
		})
	}

	goal := strings.TrimSpace(raw.FinalGoal)
	if goal == "" {
		errs = append(errs, FieldError{
			Field:   "finalGoal",
			Code:    "MISSING_REQUIRED",
			Message: "finalGoal is required",
		})
	} else if !containsString(finalGoals, goal) {
		errs = append(errs, FieldError{
			Field:   "finalGoal",
			Code:    "INVALID_ENUM",
			Message: fmt.Sprintf("finalGoal must be one of %s", strings.Join(finalGoals, ", ")),
		})
	}

	priority := strings.TrimSpace(raw.PriorityPreference)
	if priority == "" {
		errs = append(errs, FieldError{
			Field:   "priorityPreference",
			Code:    "MISSING_REQUIRED",
			Message: "priorityPreference is required",
		})
	} else if !containsString(priorityPreferences, priority) {
		errs = append(errs, FieldError{
			Field:   "priorityPreference",
			Code:    "INVALID_ENUM",
			Message: fmt.Sprintf("priorityPreference must be one of %s", strings.Join(priorityPreferences, ", ")),
		})
	}

	// Optional fields: absence maps to the documented neutral value, never
	// to an "unknown bonus".
	topik := 0
	if raw.TopikLevel != nil {
		if *raw.TopikLevel < 0 || *raw.TopikLevel > maxTopik {
			errs = append(errs, FieldError{
				Field:   "topikLevel",
				Code:    "OUT_OF_RANGE",
				Message: fmt.Sprintf("topikLevel must be between 0 and %d", maxTopik),
			})
		} else {
			topik = *raw.TopikLevel
		}
	}

	experience := 0
	if raw.WorkExperienceYears != nil {
		if *raw.WorkExperienceYears < 0 {
			errs = append(errs, FieldError{
				Field:   "workExperienceYears",
				Code:    "OUT_OF_RANGE",
				Message: "workExperienceYears must not be negative",
			})
		} else {
			experience = *raw.WorkExperienceYears
		}
	}

	currentVisa := ""
	if raw.CurrentVisa != nil {
		currentVisa = strings.ToUpper(strings.TrimSpace(*raw.CurrentVisa))
		if currentVisa != "" {
			if _, ok := cat.Stage(currentVisa); !ok {
				errs = append(errs, FieldError{
					Field:   "currentVisa",
					Code:    "UNKNOWN_STAGE",
					Message: fmt.Sprintf("currentVisa %q is not a known visa stage", currentVisa),
				})
			}
		}
	}

	ethnicKorean := false
	if raw.IsEthnicKorean != nil {
		ethnicKorean = *raw.IsEthnicKorean
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	return &CandidateProfile{
		Nationality:         nationality,
		Age:                 age,
		EducationLevel:      education,
		AvailableAnnualFund: fund,
		FinalGoal:           goal,
		PriorityPreference:  priority,
		TopikLevel:          topik,
		WorkExperienceYears: experience,
		Major:               strings.TrimSpace(raw.Major),
		IsEthnicKorean:      ethnicKorean,
		CurrentVisa:         currentVisa,
	}, nil
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
