package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"

	"github.com/google/uuid"

	"weblog-stats/config"
	"weblog-stats/models"
	"weblog-stats/services"
	"weblog-stats/source"
	"weblog-stats/storage"
	"weblog-stats/utils"
)

const version = "1.0.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code:
// 0 on success, 1 when the input or an export fails, 2 on usage errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	fs := flag.NewFlagSet("weblog-stats", flag.ContinueOnError)
	fs.SetOutput(stderr)
	showVersion := fs.Bool("version", false, "show version")
	cfg.BindFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "weblog-stats v%s: image share, top browser and hourly hits of a CSV access log\n", version)
		fmt.Fprintf(stderr, "\nUsage:\n")
		fmt.Fprintf(stderr, "  weblog-stats -url <source> [options]\n")
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  weblog-stats -url https://example.com/weblog.csv -hours\n")
		fmt.Fprintf(stderr, "  weblog-stats -url ./access.csv -peek 5 -strict\n")
		fmt.Fprintf(stderr, "  weblog-stats -url s3://logs/2023/access.csv -export-csv out/records.csv\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Fprintf(stdout, "weblog-stats v%s\n", version)
		return 0
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %v\n\n", err)
		fs.Usage()
		return 2
	}

	level, _ := cfg.Level()
	logger := utils.NewLogger(utils.WithOutput(stderr), utils.WithLevel(level))
	runID := uuid.New()
	logger.Debug("Run %s starting, source %s", runID, cfg.Source)

	loader := source.NewLoader(source.Options{
		Timeout:     cfg.FetchTimeout,
		MaxAttempts: cfg.FetchMaxAttempts,
		S3: source.S3Config{
			Region:         cfg.S3.Region,
			Endpoint:       cfg.S3.Endpoint,
			AccessKeyID:    cfg.S3.AccessKeyID,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		},
	}, logger)

	text, err := loader.Load(ctx, cfg.Source)
	if err != nil {
		logger.Error("Could not read %s", cfg.Source)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	parser := services.NewRecordParser(logger, cfg.ParserOptions())
	records := slices.Collect(parser.Records(text))

	reporter := services.NewReporter(stdout, utils.IsTerminal(stdout))
	if cfg.Peek > 0 {
		if err := reporter.PrintPeek(records, cfg.Peek); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}

	report := services.NewStatsService(logger).Generate(slices.Values(records))
	if err := reporter.Print(report, cfg.ShowHours); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	mode, _ := cfg.Mode()
	info := storage.Run{ID: runID, Source: cfg.Source, Mode: mode, Stats: parser.Stats()}
	if err := export(ctx, cfg, info, records, report, logger); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// export writes the optional copies of this run's output.
func export(ctx context.Context, cfg *config.Config, run storage.Run, records []models.Record,
	report *models.StatsReport, logger *utils.Logger) error {
	if cfg.ExportCSVPath != "" {
		w, err := storage.NewCSVWriter(cfg.ExportCSVPath)
		if err != nil {
			return err
		}
		if err := writeRecords(w, records); err != nil {
			return err
		}
		logger.Info("[export] Wrote %s records to %s", utils.FormatCount(len(records)), cfg.ExportCSVPath)
	}

	if cfg.ExportPostgres {
		pw, err := storage.NewPostgresWriter(ctx, cfg.DSN(), logger)
		if err != nil {
			return err
		}
		if err := writeReport(ctx, pw, run, report); err != nil {
			return err
		}
		logger.Info("[export] Stored run %s in PostgreSQL", run.ID)
	}
	return nil
}

func writeRecords(w storage.RecordWriter, records []models.Record) error {
	werr := w.WriteRecords(records)
	cerr := w.Close()
	return errors.Join(werr, cerr)
}

func writeReport(ctx context.Context, w storage.ReportWriter, run storage.Run, report *models.StatsReport) error {
	werr := w.WriteReport(ctx, run, report)
	cerr := w.Close()
	return errors.Join(werr, cerr)
}
