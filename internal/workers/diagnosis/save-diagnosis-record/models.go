// internal/workers/diagnosis/save-diagnosis-record/models.go
package savediagnosisrecord

import "visa-pathway-workers/internal/engine"

type Input struct {
	CandidateID string                  `json:"candidateId"`
	Diagnosis   *engine.DiagnosisResult `json:"diagnosis"`
}

type Output struct {
	RecordID  string `json:"recordId"`
	Created   bool   `json:"created"`
	CreatedAt string `json:"createdAt"`
}
