// internal/engine/engine.go
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"

	"visa-pathway-workers/internal/catalog"
	"visa-pathway-workers/internal/common/logger"
)

// State labels the phases of one diagnosis request. Purely informational:
// stages are deterministic and never retried, so the machine only moves
// forward.
type State string

const (
	StateReceived    State = "RECEIVED"
	StateNormalizing State = "NORMALIZING"
	StateGenerating  State = "GENERATING"
	StateScoring     State = "SCORING"
	StateTimelining  State = "TIMELINING"
	StateRanking     State = "RANKING"
	StateComplete    State = "COMPLETE"
	StateRejected    State = "REJECTED"
)

// Options tunes one diagnosis request.
type Options struct {
	// TopN limits the ranked result set; zero means DefaultTopN.
	TopN int `json:"topN,omitempty"`
}

// Engine composes normalization, generation, scoring, timeline expansion
// and ranking into the single diagnose operation. It holds no cross-request
// state; the catalog snapshot is passed explicitly into every call.
type Engine struct {
	logger logger.Logger
}

// New creates an engine. The logger is the only dependency; everything else
// arrives per call.
func New(log logger.Logger) *Engine {
	return &Engine{logger: log.WithFields(map[string]interface{}{"component": "diagnosis-engine"})}
}

// resultNamespace seeds deterministic result identifiers: the same profile
// against the same catalog version always produces the same IDs, which keeps
// repeated diagnoses byte-identical.
var resultNamespace = uuid.MustParse("7b7e86a1-59e4-45f5-9a3c-d1a27e5f9f01")

// Diagnose runs the full pipeline for one request. It returns either a
// complete result or a *ValidationError; an empty eligible set is a valid
// result with no pathways, not an error.
func (e *Engine) Diagnose(raw *RawProfile, opts Options, cat *catalog.Catalog) (*DiagnosisResult, error) {
	state := StateReceived
	advance := func(next State) {
		state = next
		e.logger.Debug("state transition", map[string]interface{}{"state": string(state)})
	}

	advance(StateNormalizing)
	profile, err := Normalize(raw, cat)
	if err != nil {
		advance(StateRejected)
		e.logger.Info("diagnosis rejected", map[string]interface{}{
			"state":  string(state),
			"reason": err.Error(),
		})
		return nil, err
	}

	return e.DiagnoseProfile(profile, opts, cat), nil
}

// DiagnoseProfile runs the pipeline for an already-normalized profile.
// It cannot fail: every stage past normalization is pure and total.
func (e *Engine) DiagnoseProfile(profile *CandidateProfile, opts Options, cat *catalog.Catalog) *DiagnosisResult {
	state := StateNormalizing
	advance := func(next State) {
		state = next
		e.logger.Debug("state transition", map[string]interface{}{"state": string(state)})
	}

	profileHash := hashProfile(profile)
	resultID := uuid.NewSHA1(resultNamespace, []byte(cat.Version+":"+profileHash)).String()

	advance(StateGenerating)
	eligible := Generate(profile, cat)
	if len(eligible) == 0 {
		advance(StateComplete)
		e.logger.Info("diagnosis complete", map[string]interface{}{
			"state":          string(state),
			"catalogVersion": cat.Version,
			"pathways":       0,
		})
		return &DiagnosisResult{
			ID:             resultID,
			CatalogVersion: cat.Version,
			Input:          *profile,
			Pathways:       []RecommendedPathway{},
		}
	}

	advance(StateScoring)
	pathways := make([]RecommendedPathway, 0, len(eligible))
	for _, t := range eligible {
		breakdown := Score(profile, t, cat)

		pathways = append(pathways, RecommendedPathway{
			ID:               uuid.NewSHA1(resultNamespace, []byte(resultID+":"+t.ID)).String(),
			TemplateID:       t.ID,
			Name:             t.Name,
			Description:      t.Description,
			FeasibilityScore: breakdown.FinalScore,
			FeasibilityLabel: FeasibilityLabel(breakdown.FinalScore),
			VisaChain:        append([]string(nil), t.StageCodes...),
			ScoreBreakdown:   breakdown,
		})
	}

	advance(StateTimelining)
	for i := range pathways {
		t := templateByID(cat, pathways[i].TemplateID)
		milestones := BuildTimeline(t, profile, cat)

		total := 0
		for _, m := range milestones {
			total += m.DurationMonths
		}
		pathways[i].Milestones = milestones
		pathways[i].TotalDurationMonths = total
		pathways[i].EstimatedCostUSD = cat.TemplateTotalCost(t)
		pathways[i].NextSteps = nextSteps(milestones)
	}

	advance(StateRanking)
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	ranked := Rank(pathways, topN)

	advance(StateComplete)
	e.logger.Info("diagnosis complete", map[string]interface{}{
		"state":          string(state),
		"catalogVersion": cat.Version,
		"eligible":       len(eligible),
		"pathways":       len(ranked),
	})

	return &DiagnosisResult{
		ID:             resultID,
		CatalogVersion: cat.Version,
		Input:          *profile,
		Pathways:       ranked,
	}
}

// HashProfile fingerprints a normalized profile. Used for the result ID and
// as the cache key component alongside the catalog version.
func HashProfile(profile *CandidateProfile) string {
	return hashProfile(profile)
}

func hashProfile(profile *CandidateProfile) string {
	// Struct marshaling has a fixed field order, so this is stable.
	data, _ := json.Marshal(profile)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func templateByID(cat *catalog.Catalog, id string) *catalog.PathwayTemplate {
	for i := range cat.Templates {
		if cat.Templates[i].ID == id {
			return &cat.Templates[i]
		}
	}
	return nil
}
