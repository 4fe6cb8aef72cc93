package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramonehamilton/wildcard-tally/internal/charts"
	"github.com/ramonehamilton/wildcard-tally/internal/config"
	"github.com/ramonehamilton/wildcard-tally/internal/export"
	"github.com/ramonehamilton/wildcard-tally/internal/fetcher"
	"github.com/ramonehamilton/wildcard-tally/internal/mtga/moxfield"
	"github.com/ramonehamilton/wildcard-tally/internal/mtga/wildcards"
	"github.com/ramonehamilton/wildcard-tally/internal/pagesource"
	"github.com/ramonehamilton/wildcard-tally/internal/pipeline"
)

// chartFilename is the name of the HTML chart written next to the reports.
const chartFilename = "wildcards_chart.html"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Tally the wildcards needed for an owner's decks",
	Example: `  wildcard-tally run --owner someone --end-page 3
  wildcard-tally run --owner someone --provider http --workers 4 --format json`,
	RunE: runTally,
}

func registerRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("owner", "", "Moxfield user whose decks are tallied")
	f.Int("start-page", 0, "First search page (1-based)")
	f.Int("end-page", 0, "Last search page, inclusive")
	f.Int("workers", 0, "Batches fetched concurrently")
	f.Int("chunk-size", 0, "URLs fetched per session")
	f.String("provider", "", "Page source: browser or http")
	f.String("policy", "", "Unknown format policy: other, drop or error")
	f.String("format", "", "Report format: csv or json")
	f.String("out", "", "Report directory")
	f.Bool("chart", false, "Also write an HTML chart of the totals")
	f.Bool("open", false, "Open the chart in a browser when done")
	f.Bool("headful", false, "Show the Chrome window")
}

// flagOverrides collects the flags set on cmd into a partial Config.
func flagOverrides(cmd *cobra.Command) config.Config {
	f := cmd.Flags()
	var o config.Config

	o.Catalog.Owner, _ = f.GetString("owner")
	o.Catalog.StartPage, _ = f.GetInt("start-page")
	o.Catalog.EndPage, _ = f.GetInt("end-page")
	o.Fetch.MaxWorkers, _ = f.GetInt("workers")
	o.Fetch.ChunkSize, _ = f.GetInt("chunk-size")
	o.Fetch.Provider, _ = f.GetString("provider")
	o.Tally.UnknownFormatPolicy, _ = f.GetString("policy")
	o.Output.Format, _ = f.GetString("format")
	o.Output.Dir, _ = f.GetString("out")
	o.Output.Chart, _ = f.GetBool("chart")

	return o
}

// loadConfig reads the config file and applies the command line on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Apply(flagOverrides(cmd)); err != nil {
		return nil, err
	}
	// Zero values never override, so false has to be applied by hand.
	if headful, _ := cmd.Flags().GetBool("headful"); headful {
		cfg.Fetch.Headless = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newProvider builds the page source named in the config. The returned func
// releases it.
func newProvider(ctx context.Context, cfg *config.Config) (fetcher.Provider, func() error, error) {
	kind, err := pagesource.ParseKind(cfg.Fetch.Provider)
	if err != nil {
		return nil, nil, err
	}
	timeout, err := cfg.GetNavigationTimeout()
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case pagesource.KindHTTP:
		p := pagesource.NewHTTP(pagesource.HTTPOptions{
			Timeout:   timeout,
			UserAgent: cfg.Fetch.UserAgent,
		}, logger.Named("http"))
		return p, p.Close, nil
	default:
		p := pagesource.NewBrowser(ctx, pagesource.BrowserOptions{
			Headless:          cfg.Fetch.Headless,
			NavigationTimeout: timeout,
			UserAgent:         cfg.Fetch.UserAgent,
			ExecPath:          cfg.Fetch.ChromePath,
		}, logger.Named("browser"))
		return p, p.Close, nil
	}
}

func runTally(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := initLogger(cfg.Log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, closeProvider, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeProvider(); err != nil {
			logger.Warn("Failed to close page source", zap.Error(err))
		}
	}()

	policy, err := wildcards.ParseUnknownFormatPolicy(cfg.Tally.UnknownFormatPolicy)
	if err != nil {
		return err
	}

	p := pipeline.New(provider, pipeline.Options{
		Owner:     cfg.Catalog.Owner,
		StartPage: cfg.Catalog.StartPage,
		EndPage:   cfg.Catalog.EndPage,
		Lister: moxfield.ListerOptions{
			BaseURL:  cfg.Catalog.APIBaseURL,
			PageSize: cfg.Catalog.PageSize,
		},
		Fetch: fetcher.Options{
			ChunkSize:  cfg.Fetch.ChunkSize,
			MaxWorkers: cfg.Fetch.MaxWorkers,
		},
		Policy: policy,
	}, logger.Named("pipeline"))

	report, err := p.Run(ctx)
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}
	paths, err := export.WriteReports(report.Tallies, report.Collections, export.ReportOptions{
		Dir:       cfg.Output.Dir,
		Format:    format,
		Overwrite: cfg.Output.Overwrite,
	})
	if err != nil {
		return fmt.Errorf("write reports: %w", err)
	}
	for _, path := range paths {
		logger.Info("Wrote report", zap.String("path", path))
	}

	openChart, _ := cmd.Flags().GetBool("open")
	if cfg.Output.Chart || openChart {
		chartPath := filepath.Join(cfg.Output.Dir, chartFilename)
		chartCfg := charts.DefaultChartConfig()
		chartCfg.Subtitle = fmt.Sprintf("%s, %d decks", cfg.Catalog.Owner, report.Stats.Tallied)
		if err := charts.RenderCollectionTotals(report.Collections, chartCfg, chartPath); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		logger.Info("Wrote chart", zap.String("path", chartPath))

		if openChart {
			if err := charts.OpenInBrowser(chartPath); err != nil {
				logger.Warn("Failed to open chart", zap.Error(err))
			}
		}
	}

	printSummary(cmd, report)
	return nil
}

// printSummary writes the per-format totals for a human reader.
func printSummary(cmd *cobra.Command, report *pipeline.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Decks: %d listed, %d tallied, %d failed, %d skipped\n",
		report.Stats.Listed, report.Stats.Tallied, report.Stats.Failed, report.Stats.Skipped)
	for _, total := range report.Totals() {
		fmt.Fprintf(out, "%-14s", total.Format)
		for _, r := range wildcards.Rarities {
			fmt.Fprintf(out, " %s=%d", r, total.ByRarity[r])
		}
		if n := total.ByRarity[wildcards.RarityUnknown]; n > 0 {
			fmt.Fprintf(out, " unknown=%d", n)
		}
		fmt.Fprintln(out)
	}
	if report.Interrupted {
		fmt.Fprintln(out, "Run was interrupted; results are partial.")
	}
}
