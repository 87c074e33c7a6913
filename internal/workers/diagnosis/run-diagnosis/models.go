// internal/workers/diagnosis/run-diagnosis/models.go
package rundiagnosis

import "visa-pathway-workers/internal/engine"

type Input struct {
	Profile engine.RawProfile `json:"profile"`
	Options engine.Options    `json:"options,omitempty"`
}

type Output struct {
	Diagnosis *engine.DiagnosisResult `json:"diagnosis"`
	FromCache bool                    `json:"fromCache"`
}
