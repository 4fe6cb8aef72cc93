package charts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/wildcard-tally/internal/mtga/wildcards"
)

func TestCollectionSeries(t *testing.T) {
	totals := []wildcards.CollectionTotal{
		{
			Format: wildcards.FormatStandard,
			ByRarity: wildcards.RarityTotals{
				wildcards.RarityCommon:  12,
				wildcards.RarityMythic:  3,
				wildcards.RarityUnknown: 7,
			},
		},
	}

	categories, series := CollectionSeries(totals)

	assert.Equal(t, []string{"common", "uncommon", "rare", "mythic", "special"}, categories)
	require.Len(t, series, 1)
	assert.Equal(t, "Standard", series[0].Name)
	assert.Equal(t, []float64{12, 0, 0, 3, 0}, series[0].Values)
}

func TestRenderCollectionTotals(t *testing.T) {
	cs := wildcards.NewCollections()
	cs.Merge(wildcards.Card{UniqueID: "a", Rarity: wildcards.RarityRare, MaxQuantity: 4}, wildcards.FormatStandard)

	path := filepath.Join(t.TempDir(), "charts", "wildcards.html")
	config := DefaultChartConfig()
	config.Title = "Wildcards for tester"

	require.NoError(t, RenderCollectionTotals(cs.All(), config, path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Wildcards for tester")
	assert.Contains(t, string(content), "HistoricBrawl")
}

func TestRenderGroupedBarChart_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.html")

	err := RenderGroupedBarChart([]string{"a"}, nil, DefaultChartConfig(), path)
	assert.Error(t, err)

	err = RenderGroupedBarChart([]string{"a", "b"}, []SeriesData{{Name: "x", Values: []float64{1}}}, DefaultChartConfig(), path)
	assert.Error(t, err)
}
