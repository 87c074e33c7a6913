// internal/engine/normalize_test.go
package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ValidProfile(t *testing.T) {
	cat := createTestCatalog(t)

	raw := createTestRawProfile()
	raw.Nationality = " vn "
	raw.TopikLevel = intPtr(3)
	raw.WorkExperienceYears = intPtr(2)
	raw.Major = " Software Engineering "
	raw.IsEthnicKorean = boolPtr(false)
	raw.CurrentVisa = strPtr("d-4")

	profile, err := Normalize(raw, cat)

	require.NoError(t, err)
	assert.Equal(t, "VN", profile.Nationality)
	assert.Equal(t, 24, profile.Age)
	assert.Equal(t, "HIGH_SCHOOL", profile.EducationLevel)
	assert.Equal(t, 3, profile.TopikLevel)
	assert.Equal(t, 2, profile.WorkExperienceYears)
	assert.Equal(t, "Software Engineering", profile.Major)
	assert.Equal(t, "D-4", profile.CurrentVisa)
}

func TestNormalize_NeutralDefaults(t *testing.T) {
	cat := createTestCatalog(t)

	profile, err := Normalize(createTestRawProfile(), cat)

	require.NoError(t, err)
	assert.Equal(t, 0, profile.TopikLevel)
	assert.Equal(t, 0, profile.WorkExperienceYears)
	assert.Equal(t, "", profile.Major)
	assert.False(t, profile.IsEthnicKorean)
	assert.Equal(t, "", profile.CurrentVisa)
}

func TestNormalize_FieldErrors(t *testing.T) {
	cat := createTestCatalog(t)

	tests := []struct {
		name   string
		mutate func(raw *RawProfile)
		field  string
		code   string
	}{
		{
			name:   "missing nationality",
			mutate: func(raw *RawProfile) { raw.Nationality = "  " },
			field:  "nationality",
			code:   "MISSING_REQUIRED",
		},
		{
			name:   "missing age",
			mutate: func(raw *RawProfile) { raw.Age = nil },
			field:  "age",
			code:   "MISSING_REQUIRED",
		},
		{
			name:   "age below minimum",
			mutate: func(raw *RawProfile) { raw.Age = intPtr(15) },
			field:  "age",
			code:   "OUT_OF_RANGE",
		},
		{
			name:   "age above maximum",
			mutate: func(raw *RawProfile) { raw.Age = intPtr(100) },
			field:  "age",
			code:   "OUT_OF_RANGE",
		},
		{
			name:   "unknown education level",
			mutate: func(raw *RawProfile) { raw.EducationLevel = "SELF_TAUGHT" },
			field:  "educationLevel",
			code:   "INVALID_ENUM",
		},
		{
			name:   "unknown fund bracket",
			mutate: func(raw *RawProfile) { raw.AvailableAnnualFund = "INFINITE" },
			field:  "availableAnnualFund",
			code:   "INVALID_ENUM",
		},
		{
			name:   "unknown final goal",
			mutate: func(raw *RawProfile) { raw.FinalGoal = "RETIRE_EARLY" },
			field:  "finalGoal",
			code:   "INVALID_ENUM",
		},
		{
			name:   "unknown priority preference",
			mutate: func(raw *RawProfile) { raw.PriorityPreference = "WHATEVER" },
			field:  "priorityPreference",
			code:   "INVALID_ENUM",
		},
		{
			name:   "topik out of range",
			mutate: func(raw *RawProfile) { raw.TopikLevel = intPtr(7) },
			field:  "topikLevel",
			code:   "OUT_OF_RANGE",
		},
		{
			name:   "negative work experience",
			mutate: func(raw *RawProfile) { raw.WorkExperienceYears = intPtr(-1) },
			field:  "workExperienceYears",
			code:   "OUT_OF_RANGE",
		},
		{
			name:   "unknown current visa",
			mutate: func(raw *RawProfile) { raw.CurrentVisa = strPtr("Z-99") },
			field:  "currentVisa",
			code:   "UNKNOWN_STAGE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := createTestRawProfile()
			tt.mutate(raw)

			profile, err := Normalize(raw, cat)

			assert.Nil(t, profile)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
			assert.Equal(t, tt.code, verr.Fields[0].Code)
		})
	}
}

func TestNormalize_CollectsAllErrors(t *testing.T) {
	cat := createTestCatalog(t)

	raw := &RawProfile{
		Nationality:         "",
		Age:                 intPtr(12),
		EducationLevel:      "",
		AvailableAnnualFund: "",
		FinalGoal:           "",
		PriorityPreference:  "",
	}

	_, err := Normalize(raw, cat)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 6)

	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Contains(t, fields, "nationality")
	assert.Contains(t, fields, "age")
	assert.Contains(t, fields, "educationLevel")
	assert.Contains(t, fields, "availableAnnualFund")
	assert.Contains(t, fields, "finalGoal")
	assert.Contains(t, fields, "priorityPreference")
}

func TestNormalize_BlankCurrentVisaIsAbsent(t *testing.T) {
	cat := createTestCatalog(t)

	raw := createTestRawProfile()
	raw.CurrentVisa = strPtr("   ")

	profile, err := Normalize(raw, cat)

	require.NoError(t, err)
	assert.Equal(t, "", profile.CurrentVisa)
}
