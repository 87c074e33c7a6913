// internal/workers/diagnosis/save-diagnosis-record/handler_test.go
package savediagnosisrecord

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"visa-pathway-workers/internal/common/logger"
	"visa-pathway-workers/internal/engine"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestInput() *Input {
	return &Input{
		CandidateID: "candidate-001",
		Diagnosis: &engine.DiagnosisResult{
			ID:             "4f3b9a52-1c2d-5e6f-8a9b-0c1d2e3f4a5b",
			CatalogVersion: "2026-test",
			Input: engine.CandidateProfile{
				Nationality:         "VN",
				Age:                 24,
				EducationLevel:      "HIGH_SCHOOL",
				AvailableAnnualFund: "FROM_10K_TO_25K",
				FinalGoal:           engine.GoalStudyDegree,
				PriorityPreference:  engine.PriorityFastest,
			},
			Pathways: []engine.RecommendedPathway{
				{
					ID:               "a1b2c3d4-0000-5000-8000-000000000001",
					TemplateID:       "study-direct",
					Name:             "Direct University Entry",
					FeasibilityScore: 82,
					FeasibilityLabel: engine.LabelVeryHigh,
					VisaChain:        []string{"D-2"},
				},
			},
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT created_at FROM diagnosis_records`).
		WithArgs("4f3b9a52-1c2d-5e6f-8a9b-0c1d2e3f4a5b").
		WillReturnError(sql.ErrNoRows)

	mock.ExpectExec(`INSERT INTO diagnosis_records`).
		WithArgs(
			"4f3b9a52-1c2d-5e6f-8a9b-0c1d2e3f4a5b",
			"candidate-001",
			"2026-test",
			sqlmock.AnyArg(), // result JSON
			1,
			82,
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.True(t, output.Created)
	assert.Equal(t, "4f3b9a52-1c2d-5e6f-8a9b-0c1d2e3f4a5b", output.RecordID)

	_, err = time.Parse(time.RFC3339, output.CreatedAt)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_IdempotentOnReplay(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	existing := "2026-08-01T10:00:00Z"
	mock.ExpectQuery(`SELECT created_at FROM diagnosis_records`).
		WithArgs("4f3b9a52-1c2d-5e6f-8a9b-0c1d2e3f4a5b").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(existing))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.NoError(t, err)
	assert.False(t, output.Created)
	assert.Equal(t, existing, output.CreatedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MissingDiagnosis(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{CandidateID: "candidate-001"})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingDiagnosis))
	assert.Nil(t, output)
}

func TestHandler_Execute_ExistenceCheckError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT created_at FROM diagnosis_records`).
		WithArgs("4f3b9a52-1c2d-5e6f-8a9b-0c1d2e3f4a5b").
		WillReturnError(errors.New("database connection failed"))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecordInsertFailed))
	assert.Contains(t, err.Error(), "existence check failed")
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT created_at FROM diagnosis_records`).
		WithArgs("4f3b9a52-1c2d-5e6f-8a9b-0c1d2e3f4a5b").
		WillReturnError(sql.ErrNoRows)

	mock.ExpectExec(`INSERT INTO diagnosis_records`).
		WillReturnError(errors.New("disk full"))

	handler := NewHandler(LoadConfig(), db, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecordInsertFailed))
	assert.Contains(t, err.Error(), "insert failed")
	assert.Nil(t, output)

	assert.NoError(t, mock.ExpectationsWereMet())
}
