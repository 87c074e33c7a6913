// internal/engine/result.go
package engine

// ScoreBreakdown records every factor that went into a pathway's final
// score, so rankings are auditable after the fact.
type ScoreBreakdown struct {
	Base                  float64 `json:"base"`
	AgeMultiplier         float64 `json:"ageMultiplier"`
	NationalityMultiplier float64 `json:"nationalityMultiplier"`
	FundMultiplier        float64 `json:"fundMultiplier"`
	EducationMultiplier   float64 `json:"educationMultiplier"`
	PriorityAdjustment    float64 `json:"priorityAdjustment"`
	FinalScore            int     `json:"finalScore"`
}

// Requirement is one preparation item of a milestone, flagged when the
// profile already satisfies it.
type Requirement struct {
	Text      string `json:"text"`
	Satisfied bool   `json:"satisfied"`
}

// Milestone is the profile-specific expansion of one visa stage within a
// pathway timeline.
type Milestone struct {
	StageCode              string        `json:"stageCode"`
	Label                  string        `json:"label"`
	MonthFromStart         int           `json:"monthFromStart"`
	DurationMonths         int           `json:"durationMonths"`
	StageCostUSD           int           `json:"stageCostUsd"`
	CumulativeCostUSD      int           `json:"cumulativeCostUsd"`
	CanWorkPartTime        bool          `json:"canWorkPartTime"`
	WeeklyHours            int           `json:"weeklyHours"`
	EstimatedMonthlyIncome *float64      `json:"estimatedMonthlyIncome,omitempty"`
	Requirements           []Requirement `json:"requirements"`
}

// RecommendedPathway is one scored, timed pathway in a diagnosis.
type RecommendedPathway struct {
	ID                  string         `json:"id"`
	TemplateID          string         `json:"templateId"`
	Name                string         `json:"name"`
	Description         string         `json:"description,omitempty"`
	FeasibilityScore    int            `json:"feasibilityScore"`
	FeasibilityLabel    string         `json:"feasibilityLabel"`
	TotalDurationMonths int            `json:"totalDurationMonths"`
	EstimatedCostUSD    int            `json:"estimatedCostUsd"`
	VisaChain           []string       `json:"visaChain"`
	Milestones          []Milestone    `json:"milestones"`
	ScoreBreakdown      ScoreBreakdown `json:"scoreBreakdown"`
	NextSteps           []string       `json:"nextSteps"`
}

// DiagnosisResult is the top-level response. It is ephemeral: built fresh
// per request and never persisted by the engine itself.
type DiagnosisResult struct {
	ID             string               `json:"id"`
	CatalogVersion string               `json:"catalogVersion"`
	Input          CandidateProfile     `json:"input"`
	Pathways       []RecommendedPathway `json:"pathways"`
}
