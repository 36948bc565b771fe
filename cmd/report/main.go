// Command report computes the dashboard views for a date range and writes
// them to a timestamped JSON file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"olist-dashboard/internal/config"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/reports"
	"olist-dashboard/internal/services"
	"olist-dashboard/internal/store"
)

const dateLayout = "2006-01-02"

type options struct {
	report string
	start  string
	end    string
	output string
	source string
	dir    string
}

func parseFlags(args []string, cfg *config.Config, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.report, "report", "views", "Report to export ("+strings.Join(reports.Names(), ", ")+")")
	fs.StringVar(&opts.start, "start", "", "First purchase date, YYYY-MM-DD (default: earliest order)")
	fs.StringVar(&opts.end, "end", "", "Last purchase date, YYYY-MM-DD (default: latest order)")
	fs.StringVar(&opts.output, "output", cfg.Analytics.ReportOutputDir, "Output folder path")
	fs.StringVar(&opts.source, "source", cfg.Data.Source, "Record source (csv or postgres)")
	fs.StringVar(&opts.dir, "data-dir", cfg.Data.Dir, "Directory holding the Olist CSV files")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if names := reports.Names(); !slices.Contains(names, opts.report) {
		return options{}, fmt.Errorf("unknown report %q, expected one of: %s", opts.report, strings.Join(names, ", "))
	}
	return opts, nil
}

func parseDate(name, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -%s %q, expected YYYY-MM-DD", name, value)
	}
	return t, nil
}

// run loads the dataset, computes the views and exports the selected report.
// The path of the written file is printed to stdout.
func run(ctx context.Context, args []string, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, cfg, stderr)
	if err != nil {
		return err
	}

	cfg.Data.Source = opts.source
	cfg.Data.Dir = opts.dir

	granularity, err := services.ParseGranularity(cfg.Analytics.FilterGranularity)
	if err != nil {
		return err
	}
	analytics := services.NewAnalytics(
		services.WithGranularity(granularity),
		services.WithRFMOptions(services.RFMOptions{CorrectMonetaryRank: cfg.Analytics.CorrectMonetaryRank}),
		services.WithLogger(logger),
	)

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Data.LoadTimeout)
	defer cancel()

	loader, closeSource, err := store.Open(loadCtx, cfg.Data, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	if err := analytics.Load(loadCtx, loader); err != nil {
		return err
	}

	defaults := analytics.DefaultRange()
	var dr models.DateRange
	if dr.Start, err = parseDate("start", opts.start, defaults.Start); err != nil {
		return err
	}
	if dr.End, err = parseDate("end", opts.end, defaults.End); err != nil {
		return err
	}

	started := time.Now()
	views, err := analytics.Compute(ctx, dr)
	if err != nil {
		return err
	}

	report, err := reports.Build(opts.report, opts.source, views, time.Now())
	if err != nil {
		return err
	}

	filename := reports.TimestampedFilename(opts.output, opts.report, report.GeneratedAt)
	if err := reports.ExportJSON(filename, report); err != nil {
		return err
	}

	logger.Info("report exported",
		"report", opts.report,
		"range", dr.String(),
		"orders", views.Summary.TotalOrders,
		"customers", len(views.RFM),
		"file", filename,
		"duration", time.Since(started),
	)
	fmt.Fprintln(stdout, filename)
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLoggerTo(os.Stderr, cfg.Logger)
	slog.SetDefault(logger)

	if err := run(context.Background(), os.Args[1:], cfg, logger, os.Stdout, os.Stderr); err != nil {
		logger.Error("report failed", "error", err)
		os.Exit(1)
	}
}
