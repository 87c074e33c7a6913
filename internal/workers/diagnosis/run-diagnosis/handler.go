// internal/workers/diagnosis/run-diagnosis/handler.go
package rundiagnosis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"visa-pathway-workers/internal/catalog"
	apperrors "visa-pathway-workers/internal/common/errors"
	"visa-pathway-workers/internal/common/logger"
	"visa-pathway-workers/internal/common/metrics"
	"visa-pathway-workers/internal/engine"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "run-diagnosis"
)

var (
	ErrCatalogUnavailable = errors.New("CATALOG_UNAVAILABLE")
)

type Handler struct {
	config *Config
	store  *catalog.Store
	redis  *redis.Client
	engine *engine.Engine
	logger logger.Logger
	errors *apperrors.ErrorHandler
}

func NewHandler(config *Config, store *catalog.Store, redis *redis.Client, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
		redis:  redis,
		engine: engine.New(log),
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

	start := time.Now()
	output, err := h.execute(ctx, &input)
	metrics.DiagnosisDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())

	if err != nil {
		stdErr := h.mapError(err)
		if stdErr.Code == apperrors.ErrCodeProfileValidationFailed {
			h.logger.Warn("profile rejected", map[string]interface{}{
				"jobKey": job.Key,
				"fields": stdErr.Metadata["fields"],
			})
		}
		metrics.DiagnosesFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.errors.HandleJobError(ctx, client, job, stdErr)
		return
	}

	cache := "miss"
	if output.FromCache {
		cache = "hit"
	}
	metrics.DiagnosesCompleted.WithLabelValues(TaskType, cache).Inc()
	metrics.EligiblePathways.WithLabelValues(TaskType).Observe(float64(len(output.Diagnosis.Pathways)))

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	cat := h.store.Snapshot()
	if cat == nil {
		return nil, fmt.Errorf("%w: no catalog loaded", ErrCatalogUnavailable)
	}

	profile, err := engine.Normalize(&input.Profile, cat)
	if err != nil {
		return nil, err
	}

	opts := input.Options
	if opts.TopN <= 0 {
		opts.TopN = h.config.DefaultTopN
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = engine.DefaultTopN
	}
	cacheKey := fmt.Sprintf("diagnosis:%s:%s:%d", cat.Version, engine.HashProfile(profile), topN)

	if cached := h.cacheGet(ctx, cacheKey); cached != nil {
		return &Output{Diagnosis: cached, FromCache: true}, nil
	}

	result := h.engine.DiagnoseProfile(profile, opts, cat)
	h.cacheSet(ctx, cacheKey, result)

	return &Output{Diagnosis: result, FromCache: false}, nil
}

// cacheGet returns the cached result for key, or nil on miss, decode failure
// or when caching is disabled. The pipeline is deterministic per catalog
// version, so a hit never goes stale before the catalog is swapped.
func (h *Handler) cacheGet(ctx context.Context, key string) *engine.DiagnosisResult {
	if h.redis == nil {
		return nil
	}
	val, err := h.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}
	var result engine.DiagnosisResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		h.logger.Warn("discarding undecodable cache entry", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return nil
	}
	return &result
}

func (h *Handler) cacheSet(ctx context.Context, key string, result *engine.DiagnosisResult) {
	if h.redis == nil || h.config.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, key, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
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

// mapError lifts pipeline errors into the standardized shape. Validation
// failures carry the per-field list so it reaches the process variables.
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
