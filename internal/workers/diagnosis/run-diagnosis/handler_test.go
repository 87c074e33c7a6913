// internal/workers/diagnosis/run-diagnosis/handler_test.go
package rundiagnosis

import (
	"context"
	"errors"
	"testing"
	"time"

	"visa-pathway-workers/internal/catalog"
	apperrors "visa-pathway-workers/internal/common/errors"
	"visa-pathway-workers/internal/common/logger"
	"visa-pathway-workers/internal/engine"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func intPtr(v int) *int { return &v }

func createTestConfig() *Config {
	return &Config{
		CacheTTL: time.Hour,
		Timeout:  10 * time.Second,
	}
}

func createTestCatalog(t *testing.T) *catalog.Catalog {
	cap := 20
	c := &catalog.Catalog{
		Version:           "2026-test",
		CurrencyPrecision: 2,
		Stages: []catalog.VisaStage{
			{
				Code:                  "D-4",
				Name:                  "Language Training",
				CanWork:               true,
				WeeklyWorkHourCap:     &cap,
				HourlyWageUSD:         8,
				NominalDurationMonths: 12,
				NominalCostUSD:        9000,
			},
			{
				Code:                  "D-2",
				Name:                  "Degree Student",
				CanWork:               true,
				WeeklyWorkHourCap:     &cap,
				HourlyWageUSD:         8,
				NominalDurationMonths: 24,
				NominalCostUSD:        16000,
				MinEducation:          "HIGH_SCHOOL",
				TransitionsFrom:       []string{"D-4"},
			},
		},
		Templates: []catalog.PathwayTemplate{
			{
				ID:              "study-direct",
				Name:            "Direct University Entry",
				StageCodes:      []string{"D-2"},
				BaseFeasibility: 70,
				Goals:           []string{engine.GoalStudyDegree},
			},
			{
				ID:              "language-then-study",
				Name:            "Language School then University",
				StageCodes:      []string{"D-4", "D-2"},
				BaseFeasibility: 80,
				Goals:           []string{engine.GoalStudyDegree},
			},
		},
		FundBrackets: []catalog.FundBracket{
			{ID: "UNDER_10K", MinUSD: 0, MaxUSD: 10000},
			{ID: "FROM_10K_TO_25K", MinUSD: 10000, MaxUSD: 25000},
			{ID: "OVER_25K", MinUSD: 25000},
		},
		Weights: catalog.WeightTables{
			Age: map[string]catalog.AgeCurve{
				engine.GoalStudyDegree: {Points: []catalog.AgePoint{
					{Age: 18, Multiplier: 1.1},
					{Age: 30, Multiplier: 1.0},
					{Age: 45, Multiplier: 0.8},
				}},
			},
			Fund: []catalog.FundStep{
				{MinRatio: 1.0, Multiplier: 1.1},
				{MinRatio: 0.5, Multiplier: 0.9},
				{MinRatio: 0, Multiplier: 0.7},
			},
			Education: catalog.EducationTable{
				BelowMinimum:  0.8,
				Meets:         1.0,
				PerLevelBonus: 0.05,
				Cap:           1.2,
			},
			Priority: map[string]catalog.PriorityRule{
				engine.PriorityFastest: {Mode: catalog.PriorityModeAdditive, Bonus: 10},
			},
		},
	}
	require.NoError(t, c.Validate())
	return c
}

func createTestInput() *Input {
	return &Input{
		Profile: engine.RawProfile{
			Nationality:         "VN",
			Age:                 intPtr(24),
			EducationLevel:      "HIGH_SCHOOL",
			AvailableAnnualFund: "FROM_10K_TO_25K",
			FinalGoal:           engine.GoalStudyDegree,
			PriorityPreference:  engine.PriorityFastest,
		},
	}
}

func newTestHandler(t *testing.T, store *catalog.Store, rdb *redis.Client) *Handler {
	return NewHandler(createTestConfig(), store, rdb, logger.NewTestLogger(t))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	store := catalog.NewStore(createTestCatalog(t))
	handler := newTestHandler(t, store, nil)

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.False(t, output.FromCache)
	assert.Equal(t, "2026-test", output.Diagnosis.CatalogVersion)
	assert.Len(t, output.Diagnosis.Pathways, 2)
	for _, p := range output.Diagnosis.Pathways {
		assert.NotEmpty(t, p.ID)
		assert.NotEmpty(t, p.VisaChain)
		assert.NotEmpty(t, p.FeasibilityLabel)
	}
}

func TestHandler_Execute_CacheMissThenHit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := catalog.NewStore(createTestCatalog(t))
	handler := newTestHandler(t, store, rdb)

	first, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Diagnosis, second.Diagnosis)
}

func TestHandler_Execute_CacheKeyedByCatalogVersion(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := catalog.NewStore(createTestCatalog(t))
	handler := newTestHandler(t, store, rdb)

	first, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)
	assert.False(t, first.FromCache)

	next := createTestCatalog(t)
	next.Version = "2026-test-2"
	require.NoError(t, store.Swap(next))

	second, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)
	assert.False(t, second.FromCache)
	assert.Equal(t, "2026-test-2", second.Diagnosis.CatalogVersion)
}

func TestHandler_Execute_CorruptCacheEntryIgnored(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := catalog.NewStore(createTestCatalog(t))
	handler := newTestHandler(t, store, rdb)

	cat := store.Snapshot()
	profile, err := engine.Normalize(&createTestInput().Profile, cat)
	require.NoError(t, err)
	key := "diagnosis:" + cat.Version + ":" + engine.HashProfile(profile) + ":3"
	require.NoError(t, mr.Set(key, "not json"))

	output, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)
	assert.False(t, output.FromCache)
	assert.NotNil(t, output.Diagnosis)
}

func TestHandler_Execute_ValidationFailure(t *testing.T) {
	store := catalog.NewStore(createTestCatalog(t))
	handler := newTestHandler(t, store, nil)

	input := createTestInput()
	input.Profile.Nationality = ""
	input.Profile.Age = intPtr(12)

	output, err := handler.Execute(context.Background(), input)

	assert.Error(t, err)
	assert.Nil(t, output)

	var verr *engine.ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
}

func TestHandler_MapError_CarriesFieldList(t *testing.T) {
	store := catalog.NewStore(createTestCatalog(t))
	handler := newTestHandler(t, store, nil)

	input := createTestInput()
	input.Profile.Nationality = ""
	input.Profile.Age = intPtr(12)

	_, err := handler.Execute(context.Background(), input)
	require.Error(t, err)

	stdErr := handler.mapError(err)

	assert.Equal(t, apperrors.ErrCodeProfileValidationFailed, stdErr.Code)
	fields, ok := stdErr.Metadata["fields"].([]engine.FieldError)
	require.True(t, ok)
	assert.Len(t, fields, 2)
}

func TestHandler_MapError_CatalogUnavailableIsRetryable(t *testing.T) {
	store := catalog.NewStore(nil)
	handler := newTestHandler(t, store, nil)

	_, err := handler.Execute(context.Background(), createTestInput())
	require.Error(t, err)

	stdErr := handler.mapError(err)

	assert.Equal(t, apperrors.ErrCodeCatalogUnavailable, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_CatalogUnavailable(t *testing.T) {
	store := catalog.NewStore(nil)
	handler := newTestHandler(t, store, nil)

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrCatalogUnavailable))
	assert.Nil(t, output)
}

func TestHandler_Execute_Deterministic(t *testing.T) {
	store := catalog.NewStore(createTestCatalog(t))
	handler := newTestHandler(t, store, nil)

	first, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)
	second, err := handler.Execute(context.Background(), createTestInput())
	assert.NoError(t, err)

	assert.Equal(t, first.Diagnosis, second.Diagnosis)
}

func TestHandler_Execute_ConfiguredDefaultTopN(t *testing.T) {
	store := catalog.NewStore(createTestCatalog(t))
	cfg := createTestConfig()
	cfg.DefaultTopN = 1
	handler := NewHandler(cfg, store, nil, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.Len(t, output.Diagnosis.Pathways, 1)

	// An explicit request still overrides the configured default.
	input := createTestInput()
	input.Options = engine.Options{TopN: 2}
	output, err = handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Len(t, output.Diagnosis.Pathways, 2)
}

func TestHandler_Execute_TopNOption(t *testing.T) {
	store := catalog.NewStore(createTestCatalog(t))
	handler := newTestHandler(t, store, nil)

	input := createTestInput()
	input.Options = engine.Options{TopN: 1}

	output, err := handler.Execute(context.Background(), input)

	assert.NoError(t, err)
	assert.Len(t, output.Diagnosis.Pathways, 1)
}
