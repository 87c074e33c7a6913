// internal/workers/diagnosis/save-diagnosis-record/handler.go
package savediagnosisrecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "visa-pathway-workers/internal/common/errors"
	"visa-pathway-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "save-diagnosis-record"
)

var (
	ErrRecordInsertFailed = errors.New("RECORD_INSERT_FAILED")
	ErrMissingDiagnosis   = errors.New("MISSING_DIAGNOSIS")
)

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
	errors *apperrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		logger: scoped,
		errors: apperrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(context.Background(), client, job, apperrors.NewParseError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, h.mapError(err))
		return
	}

	h.completeJob(client, job, output)
}

// mapError lifts sentinel errors into the standardized shape so the error
// handler can pick retryable versus terminal treatment.
func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrMissingDiagnosis):
		return apperrors.NewMissingDiagnosisError(err)
	case errors.Is(err, ErrRecordInsertFailed):
		return apperrors.NewRecordInsertFailedError(err)
	default:
		return err
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Diagnosis == nil {
		return nil, fmt.Errorf("%w: diagnosis variable is not set", ErrMissingDiagnosis)
	}
	diag := input.Diagnosis

	// Result IDs are deterministic per profile and catalog version, so a
	// replayed process instance lands on the same row. Saving is idempotent
	// rather than a duplicate error.
	var existingCreatedAt sql.NullString
	err := h.db.QueryRowContext(ctx, `
		SELECT created_at FROM diagnosis_records WHERE id = $1`,
		diag.ID).Scan(&existingCreatedAt)
	if err == nil {
		h.logger.Info("diagnosis record already exists", map[string]interface{}{
			"recordId":    diag.ID,
			"candidateId": input.CandidateID,
		})
		return &Output{
			RecordID:  diag.ID,
			Created:   false,
			CreatedAt: existingCreatedAt.String,
		}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: existence check failed: %v", ErrRecordInsertFailed, err)
	}

	createdAt := time.Now().UTC().Format(time.RFC3339)

	resultJSON, err := json.Marshal(diag)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal diagnosis: %v", ErrRecordInsertFailed, err)
	}

	topScore := 0
	if len(diag.Pathways) > 0 {
		topScore = diag.Pathways[0].FeasibilityScore
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO diagnosis_records (
			id, candidate_id, catalog_version, result,
			pathway_count, top_score, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		diag.ID,
		input.CandidateID,
		diag.CatalogVersion,
		resultJSON,
		len(diag.Pathways),
		topScore,
		createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert failed: %v", ErrRecordInsertFailed, err)
	}

	h.logger.Info("diagnosis record created", map[string]interface{}{
		"recordId":       diag.ID,
		"candidateId":    input.CandidateID,
		"catalogVersion": diag.CatalogVersion,
		"pathwayCount":   len(diag.Pathways),
		"topScore":       topScore,
	})

	return &Output{
		RecordID:  diag.ID,
		Created:   true,
		CreatedAt: createdAt,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
