package charts

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/wildcard-tally/internal/mtga/wildcards"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string   // Chart title
	Subtitle   string   // Chart subtitle
	YAxisLabel string   // Y-axis label
	XAxisLabel string   // X-axis label
	Width      string   // Chart width (e.g., "900px")
	Height     string   // Chart height (e.g., "500px")
	Theme      string   // Chart theme
	ShowLegend bool     // Show legend
	Colors     []string // Series colors, cycled
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Title:      "Wildcards needed",
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		Colors:     []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// SeriesData is one named series with a value per category.
type SeriesData struct {
	Name   string
	Values []float64
}

// RenderGroupedBarChart writes an interactive bar chart HTML file with one bar
// group per category and one bar per series inside each group.
func RenderGroupedBarChart(categories []string, series []SeriesData, config ChartConfig, outputPath string) (err error) {
	if len(series) == 0 {
		return fmt.Errorf("no data series provided")
	}
	for _, s := range series {
		if len(s.Values) != len(categories) {
			return fmt.Errorf("series %q has %d values for %d categories", s.Name, len(s.Values), len(categories))
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: config.XAxisLabel,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: config.YAxisLabel,
		}),
	)

	bar.SetXAxis(categories)
	for i, s := range series {
		data := make([]opts.BarData, len(s.Values))
		for j, v := range s.Values {
			data[j] = opts.BarData{Value: v}
		}

		seriesOpts := []charts.SeriesOpts{
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(true),
			}),
		}
		if len(config.Colors) > 0 {
			seriesOpts = append(seriesOpts, charts.WithItemStyleOpts(opts.ItemStyle{
				Color: config.Colors[i%len(config.Colors)],
			}))
		}
		bar.AddSeries(s.Name, data, seriesOpts...)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := bar.Render(f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	return nil
}

// CollectionSeries turns collection totals into one series per format over the
// bucketed rarities, in wildcards.Rarities order.
func CollectionSeries(totals []wildcards.CollectionTotal) ([]string, []SeriesData) {
	categories := make([]string, len(wildcards.Rarities))
	for i, r := range wildcards.Rarities {
		categories[i] = r.String()
	}

	series := make([]SeriesData, 0, len(totals))
	for _, t := range totals {
		values := make([]float64, len(wildcards.Rarities))
		for i, r := range wildcards.Rarities {
			values[i] = float64(t.ByRarity[r])
		}
		series = append(series, SeriesData{Name: t.Format.String(), Values: values})
	}
	return categories, series
}

// RenderCollectionTotals charts the wildcards each format collection needs.
func RenderCollectionTotals(collections []*wildcards.Collection, config ChartConfig, outputPath string) error {
	totals := make([]wildcards.CollectionTotal, 0, len(collections))
	for _, c := range collections {
		totals = append(totals, wildcards.CollectionTotals(c))
	}

	categories, series := CollectionSeries(totals)
	if config.XAxisLabel == "" {
		config.XAxisLabel = "Rarity"
	}
	if config.YAxisLabel == "" {
		config.YAxisLabel = "Cards"
	}
	return RenderGroupedBarChart(categories, series, config, outputPath)
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
