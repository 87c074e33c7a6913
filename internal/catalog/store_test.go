// internal/catalog/store_test.go
package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeTestCatalog(t *testing.T, version string) *Catalog {
	c := &Catalog{
		Version: version,
		Stages: []VisaStage{
			{Code: "D-2", Name: "Degree Student", NominalDurationMonths: 36, NominalCostUSD: 25000},
		},
		Templates: []PathwayTemplate{
			{ID: "t1", Name: "T1", StageCodes: []string{"D-2"}, BaseFeasibility: 70, Goals: []string{"STUDY_DEGREE"}},
		},
		FundBrackets: []FundBracket{
			{ID: "UNDER_10K", MinUSD: 0, MaxUSD: 10000},
		},
	}
	require.NoError(t, c.Validate())
	return c
}

func TestStore_SnapshotAndSwap(t *testing.T) {
	store := NewStore(storeTestCatalog(t, "v1"))
	assert.Equal(t, "v1", store.Snapshot().Version)

	require.NoError(t, store.Swap(storeTestCatalog(t, "v2")))
	assert.Equal(t, "v2", store.Snapshot().Version)
}

func TestStore_SwapRejectsInvalidAndKeepsActive(t *testing.T) {
	store := NewStore(storeTestCatalog(t, "v1"))

	broken := storeTestCatalog(t, "v2")
	broken.Templates[0].StageCodes = []string{"Z-9"}

	err := store.Swap(broken)

	var ierr *IntegrityError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "v1", store.Snapshot().Version)
}

func TestStore_SwapRejectsNil(t *testing.T) {
	store := NewStore(storeTestCatalog(t, "v1"))

	assert.Error(t, store.Swap(nil))
	assert.Equal(t, "v1", store.Snapshot().Version)
}

func TestStore_SwapFromFile(t *testing.T) {
	store := NewStore(storeTestCatalog(t, "v1"))

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(validCatalogJSON), 0o644))

	require.NoError(t, store.SwapFromFile(path))
	assert.Equal(t, "2026-01", store.Snapshot().Version)
}

func TestStore_SwapFromFileKeepsActiveOnError(t *testing.T) {
	store := NewStore(storeTestCatalog(t, "v1"))

	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": ""}`), 0o644))

	assert.Error(t, store.SwapFromFile(path))
	assert.Equal(t, "v1", store.Snapshot().Version)
}

func TestCatalog_BracketHelpers(t *testing.T) {
	c := predicateTestCatalog()

	mid, ok := c.Bracket("FROM_10K_TO_25K")
	require.True(t, ok)
	assert.Equal(t, 17500, mid.RepresentativeUSD())

	top, ok := c.Bracket("OVER_25K")
	require.True(t, ok)
	assert.Equal(t, 25000, top.RepresentativeUSD())

	_, ok = c.Bracket("UNKNOWN")
	assert.False(t, ok)

	assert.Equal(t, 0, c.BracketRank("UNDER_10K"))
	assert.Equal(t, 2, c.BracketRank("OVER_25K"))
	assert.Equal(t, -1, c.BracketRank("UNKNOWN"))
}

func TestCatalog_GoalAggregates(t *testing.T) {
	c := &Catalog{
		Version: "v",
		Stages: []VisaStage{
			{Code: "A", Name: "A", NominalDurationMonths: 12, NominalCostUSD: 10000},
			{Code: "B", Name: "B", NominalDurationMonths: 24, NominalCostUSD: 5000},
		},
		Templates: []PathwayTemplate{
			{ID: "short", Name: "Short", StageCodes: []string{"A"}, BaseFeasibility: 70, Goals: []string{"WORK"}},
			{ID: "long", Name: "Long", StageCodes: []string{"A", "B"}, BaseFeasibility: 70, Goals: []string{"WORK"}},
		},
		FundBrackets: []FundBracket{{ID: "X", MinUSD: 0}},
	}
	require.NoError(t, c.Validate())

	assert.Equal(t, 12, c.FastestDurationForGoal("WORK"))
	assert.Equal(t, 10000, c.CheapestCostForGoal("WORK"))
	assert.Equal(t, 0, c.FastestDurationForGoal("STUDY"))

	long := &c.Templates[1]
	assert.Equal(t, 36, c.TemplateTotalDuration(long))
	assert.Equal(t, 15000, c.TemplateTotalCost(long))
}
