// internal/workers/diagnosis/validate-profile/models.go
package validateprofile

import "visa-pathway-workers/internal/engine"

type Input struct {
	Profile engine.RawProfile `json:"profile"`
}

type Output struct {
	IsValid          bool                     `json:"isValid"`
	Profile          *engine.CandidateProfile `json:"normalizedProfile"`
	ValidationErrors []engine.FieldError      `json:"validationErrors"`
}
