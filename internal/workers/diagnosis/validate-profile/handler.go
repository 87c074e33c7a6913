// internal/workers/diagnosis/validate-profile/handler.go
package validateprofile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"visa-pathway-workers/internal/catalog"
	apperrors "visa-pathway-workers/internal/common/errors"
	"visa-pathway-workers/internal/common/logger"
	"visa-pathway-workers/internal/common/metrics"
	"visa-pathway-workers/internal/engine"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-profile"
)

var (
	ErrProfileValidationFailed = errors.New("PROFILE_VALIDATION_FAILED")
	ErrCatalogUnavailable      = errors.New("CATALOG_UNAVAILABLE")
)

type Handler struct {
	config *Config
	store  *catalog.Store
	logger logger.Logger
	errors *apperrors.ErrorHandler
}

func NewHandler(config *Config, store *catalog.Store, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
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
		metrics.DiagnosesFailed.WithLabelValues(TaskType, string(apperrors.ErrCodeParseError)).Inc()
		h.errors.HandleJobError(context.Background(), client, job, apperrors.NewParseError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		stdErr := h.mapError(err)
		metrics.DiagnosesFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	cat := h.store.Snapshot()
	if cat == nil {
		return nil, fmt.Errorf("%w: no catalog loaded", ErrCatalogUnavailable)
	}

	profile, err := engine.Normalize(&input.Profile, cat)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			h.logger.Info("validation completed", map[string]interface{}{
				"isValid":    false,
				"errorCount": len(verr.Fields),
				"fields":     verr.Fields,
			})
			return nil, fmt.Errorf("%w: %d validation errors: %w", ErrProfileValidationFailed, len(verr.Fields), verr)
		}
		return nil, err
	}

	h.logger.Info("validation completed", map[string]interface{}{
		"isValid":    true,
		"errorCount": 0,
	})

	return &Output{
		IsValid:          true,
		Profile:          profile,
		ValidationErrors: []engine.FieldError{},
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
	}
}

// mapError lifts rejection errors into the standardized shape. The per-field
// list travels in Metadata so it lands in the process variables, not just the
// message string.
func (h *Handler) mapError(err error) *apperrors.StandardError {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		return apperrors.NewProfileValidationError(verr.Error(), verr.Fields)
	}
	if errors.Is(err, ErrCatalogUnavailable) {
		return apperrors.NewCatalogUnavailableError(err)
	}
	return apperrors.NewDiagnosisFailedError(err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
