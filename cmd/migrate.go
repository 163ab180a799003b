package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vietdv277/autoclass/internal/config"
	"github.com/vietdv277/autoclass/internal/gcp"
	"github.com/vietdv277/autoclass/internal/logging"
	"github.com/vietdv277/autoclass/internal/migrate"
	"github.com/vietdv277/autoclass/internal/report"
	"github.com/vietdv277/autoclass/internal/retry"
	"github.com/vietdv277/autoclass/internal/ui"
	"github.com/vietdv277/autoclass/pkg/provider"
	"github.com/vietdv277/autoclass/pkg/types"
)

var (
	inputFile  string
	noProgress bool
)

// settingKeys are the migrate flags that viper also resolves from AUTOCLASS_* env vars.
var settingKeys = []string{
	"concurrency",
	"max-attempts",
	"backoff-base",
	"terminal-class",
	"bill-to-project",
	"endpoint",
	"dry-run",
	"log-level",
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Enable Autoclass with an ARCHIVE terminal class on listed buckets",
	Long: `Read GOOGLE_PROJECT_ID/BUCKET_NAME pairs from a CSV file and make sure every
bucket has Autoclass enabled with the terminal storage class set. Buckets that
already match are skipped without a write.

The report is written to <input>_output.csv and the log to <input>_output.log.
The command exits non-zero if any bucket failed.

Examples:
  autoclass migrate -f buckets.csv
  autoclass migrate -f buckets.csv --concurrency 50 --dry-run
  AUTOCLASS_MAX_ATTEMPTS=8 autoclass migrate -f buckets.csv`,
	SilenceUsage: true,
	RunE:         runMigrate,
}

func init() {
	f := migrateCmd.Flags()
	f.StringVarP(&inputFile, "input-file", "f", "", "CSV file with GOOGLE_PROJECT_ID and BUCKET_NAME columns (required)")
	f.Int("concurrency", config.DefaultConcurrency, "number of buckets processed in parallel")
	f.Int("max-attempts", retry.DefaultMaxAttempts, "attempts per bucket on rate limiting or server errors")
	f.Duration("backoff-base", retry.DefaultBase, "base delay of the exponential backoff")
	f.String("terminal-class", config.TerminalArchive, "Autoclass terminal storage class (ARCHIVE or NEARLINE)")
	f.Bool("bill-to-project", false, "bill requests to each bucket's project (needed for requester-pays buckets)")
	f.String("endpoint", "", "override the Cloud Storage JSON API endpoint")
	f.Bool("dry-run", false, "report what would change without patching buckets")
	f.String("log-level", "info", "log file level: debug, info, warn or error")
	f.BoolVar(&noProgress, "no-progress", false, "disable the progress display")
	_ = migrateCmd.MarkFlagRequired("input-file")

	for _, key := range settingKeys {
		_ = viper.BindPFlag(key, f.Lookup(key))
	}

	rootCmd.AddCommand(migrateCmd)
}

// loadSettings layers the config file, env vars and flags over the defaults.
func loadSettings() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if viper.IsSet("concurrency") {
		cfg.Concurrency = viper.GetInt("concurrency")
	}
	if viper.IsSet("max-attempts") {
		cfg.MaxAttempts = viper.GetInt("max-attempts")
	}
	if viper.IsSet("backoff-base") {
		cfg.BackoffBase = viper.GetDuration("backoff-base")
	}
	if viper.IsSet("terminal-class") {
		cfg.TerminalStorageClass = viper.GetString("terminal-class")
	}
	if viper.IsSet("bill-to-project") {
		cfg.BillToProject = viper.GetBool("bill-to-project")
	}
	if viper.IsSet("endpoint") {
		cfg.Endpoint = viper.GetString("endpoint")
	}
	if viper.IsSet("dry-run") {
		cfg.DryRun = viper.GetBool("dry-run")
	}
	if viper.IsSet("log-level") {
		cfg.LogLevel = viper.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := gcp.NewClient(ctx,
		gcp.WithProject(project),
		gcp.WithEndpoint(cfg.Endpoint),
		gcp.WithUserAgent("autoclass/"+Version),
		gcp.WithBillToProject(cfg.BillToProject),
	)
	if err != nil {
		return err
	}

	m := &migration{
		cfg:      cfg,
		input:    inputFile,
		opener:   client.StorageOpener(),
		out:      cmd.OutOrStdout(),
		progress: !noProgress && isatty.IsTerminal(os.Stderr.Fd()),
	}
	_, err = m.run(ctx, stop)
	return err
}

// errBucketsFailed is returned after the report is written when any row failed.
var errBucketsFailed = errors.New("some buckets failed")

// migration is one batch run: read the input, migrate, write the report and log.
type migration struct {
	cfg      *config.Config
	input    string
	opener   provider.SessionOpener
	out      io.Writer
	progress bool
}

func (m *migration) run(ctx context.Context, cancel func()) (summary types.Summary, err error) {
	ids, err := readInput(m.input)
	if err != nil {
		return summary, err
	}

	csvPath, logPath := report.OutputPaths(m.input)

	lvl, err := logging.ParseLevel(m.cfg.LogLevel)
	if err != nil {
		return summary, err
	}
	logger, err := logging.NewFileLogger(logPath, lvl)
	if err != nil {
		return summary, err
	}
	defer func() { err = multierr.Append(err, logger.Close()) }()

	runID := uuid.NewString()
	log := logger.With(zap.String("run_id", runID))
	log.Info("Loaded bucket list",
		zap.String("input", m.input),
		zap.Int("buckets", len(ids)),
		zap.Int("concurrency", m.cfg.Concurrency),
		zap.Int("max_attempts", m.cfg.MaxAttempts),
		zap.String("terminal_class", m.cfg.TerminalStorageClass),
		zap.Bool("dry_run", m.cfg.DryRun),
	)

	updater := migrate.NewUpdater(m.opener,
		migrate.WithPolicy(retry.Policy{
			MaxAttempts: m.cfg.MaxAttempts,
			Backoff:     retry.Backoff{Base: m.cfg.BackoffBase, Jitter: retry.DefaultJitter},
		}),
		migrate.WithTerminalClass(m.cfg.TerminalStorageClass),
		migrate.WithDryRun(m.cfg.DryRun),
		migrate.WithUpdaterLogger(log),
	)
	opts := []migrate.Option{
		migrate.WithConcurrency(m.cfg.Concurrency),
		migrate.WithRunID(runID),
		migrate.WithLogger(log),
	}

	var results []types.MigrationResult
	if m.progress {
		results, summary = runWithProgress(ctx, cancel, log, updater, ids, opts)
	} else {
		results, summary = migrate.NewOrchestrator(updater, opts...).Run(ctx, ids)
	}

	if err := writeReport(csvPath, results); err != nil {
		log.Error("Failed to write report", zap.String("path", csvPath), zap.Error(err))
		return summary, err
	}

	ui.PrintResultTable(m.out, results, summary)
	fmt.Fprintf(m.out, "Migration report saved to %s\n", csvPath)
	fmt.Fprintf(m.out, "Migration log saved to %s\n", logPath)

	if summary.Failed() {
		return summary, fmt.Errorf("%w: %d of %d, see %s", errBucketsFailed, summary.Errors, summary.Total, csvPath)
	}
	return summary, nil
}

func readInput(path string) ([]types.BucketIdentity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() { _ = f.Close() }()

	ids, err := report.ReadIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ids, nil
}

func writeReport(path string, results []types.MigrationResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	return report.WriteResults(f, results)
}

// runWithProgress runs the batch while a bubbletea view on stderr tracks it.
// Ctrl-C in the view calls cancel; in-flight buckets still finish.
func runWithProgress(
	ctx context.Context,
	cancel func(),
	log *zap.Logger,
	m migrate.Migrator,
	ids []types.BucketIdentity,
	opts []migrate.Option,
) ([]types.MigrationResult, types.Summary) {
	p := tea.NewProgram(ui.NewProgressModel(len(ids), cancel), tea.WithOutput(os.Stderr))

	type outcome struct {
		results []types.MigrationResult
		summary types.Summary
	}
	done := make(chan outcome, 1)

	go func() {
		progress := migrate.WithProgress(func(res types.MigrationResult) {
			p.Send(ui.ResultMsg{Result: res})
		})
		results, summary := migrate.NewOrchestrator(m, append(opts, progress)...).Run(ctx, ids)
		p.Send(ui.DoneMsg{})
		done <- outcome{results: results, summary: summary}
	}()

	if _, err := p.Run(); err != nil {
		log.Warn("Progress display failed", zap.Error(err))
	}
	out := <-done
	return out.results, out.summary
}
