package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sdejongh/camarchive/pkg/archive"
	"github.com/sdejongh/camarchive/pkg/cancel"
	"github.com/sdejongh/camarchive/pkg/config"
	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/models"
	"github.com/sdejongh/camarchive/pkg/output"
	"github.com/sdejongh/camarchive/pkg/storage"
	"github.com/sdejongh/camarchive/pkg/transcode"
	"github.com/sdejongh/camarchive/pkg/trash"
)

// RunFlags holds run command flags
type RunFlags struct {
	Output         string
	DryRun         bool
	NoConfirm      bool
	NoSkip         bool
	Delete         bool
	TrashRoot      string
	Cleanup        bool
	CleanOutput    bool
	Age            int
	MaxSize        float64
	MinArchiveSize int64
	Format         string
	NoProgress     bool
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var runFlags RunFlags

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run DIR",
		Short: "Archive and clean up a camera directory",
		Long: `Transcode camera videos older than the age threshold into the archive
tree, then move the originals and their thumbnails to the trash.
Orphaned thumbnails and empty directories are cleaned up afterwards.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runArchive,
	}

	addPolicyFlags(cmd)
	cmd.Flags().BoolVar(&runFlags.DryRun, "dry-run", false, "show what would be done without transcoding or removing anything")
	cmd.Flags().BoolVar(&runFlags.NoConfirm, "no-confirm", false, "do not ask for confirmation before executing the plan")
	cmd.Flags().StringVar(&runFlags.Format, "format", "human", "output format: human, json")
	cmd.Flags().BoolVar(&runFlags.NoProgress, "no-progress", false, "disable the progress bar")

	// Logging flags
	cmd.Flags().StringVar(&runFlags.LogFile, "log-file", "", "log file (default is DIR/archiver.log)")
	cmd.Flags().StringVar(&runFlags.LogFormat, "log-format", "text", "log format: text, json")
	cmd.Flags().StringVar(&runFlags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

// addPolicyFlags registers the flags shared by run and plan
func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&runFlags.Output, "output", "o", "", "archive directory (default is DIR/archived)")
	cmd.Flags().BoolVar(&runFlags.NoSkip, "no-skip", false, "transcode even when an archive already exists")
	cmd.Flags().BoolVar(&runFlags.Delete, "delete", false, "delete files permanently instead of moving them to the trash")
	cmd.Flags().StringVar(&runFlags.TrashRoot, "trash-root", "", "trash directory (default is DIR/.deleted)")
	cmd.Flags().BoolVar(&runFlags.Cleanup, "cleanup", false, "remove old files without transcoding them")
	cmd.Flags().BoolVar(&runFlags.CleanOutput, "clean-output", false, "with --cleanup, also remove old archived files")
	cmd.Flags().IntVar(&runFlags.Age, "age", config.DefaultAgeDays, "minimum age in days before a file is processed")
	cmd.Flags().Float64Var(&runFlags.MaxSize, "max-size", 0, "maximum archive size in GB, oldest archives are removed above it (0 = unlimited)")
	cmd.Flags().Int64Var(&runFlags.MinArchiveSize, "min-archive-size", models.DefaultMinArchiveSize, "smallest archive in bytes treated as complete")
}

func runArchive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := prepareConfig(cmd, args)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	token := cancel.New()

	jsonOutput := cfg.Output.Format == "json"
	consoleOut := os.Stdout
	if jsonOutput {
		consoleOut = os.Stderr
	}
	console := output.NewConsole(consoleOut)

	logger, err := createLogger(cfg, console)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()
	logger = logger.WithFields(logging.Fields{"run_id": runID})

	stop := cancel.Watch(ctx, token, logger)
	defer stop()

	if !cfg.Policy.CleanupOnly && !runFlags.DryRun {
		if _, err := exec.LookPath(cfg.Transcode.FFmpeg); err != nil {
			return fmt.Errorf("transcoder not found: %s", cfg.Transcode.FFmpeg)
		}
	}

	backend := storage.NewLocal()
	defer backend.Close()

	policy := cfg.ToPolicy(runFlags.DryRun)
	remover := trash.New(backend, logger, trash.Options{
		SourceRoot:      policy.SourceRoot,
		OutputRoot:      policy.OutputRoot,
		TrashRoot:       policy.TrashRoot,
		PermanentDelete: policy.PermanentDelete,
		DryRun:          policy.DryRun,
		RunID:           runID,
	})
	if !policy.DryRun && !policy.PermanentDelete && cfg.Paths.Journal != "" {
		j := newLazyJournal(cfg.Paths.Journal, logger)
		defer j.Close()
		remover.SetJournal(j)
	}

	formatter := createFormatter(cfg, console)
	var confirmer archive.Confirmer
	if cfg.Output.Confirm {
		confirmer = newPromptConfirmer(os.Stdin, console, token)
	}

	opts := archive.Options{
		RunID:      runID,
		Confirm:    cfg.Output.Confirm,
		PlanFormat: "human",
		PlanLimit:  cfg.Output.PlanLimit,
	}
	if !cfg.Output.Quiet && !jsonOutput {
		opts.PlanWriter = console
	}

	engine := archive.NewEngine(
		policy,
		backend,
		transcode.NewWorker(cfg.TranscodeSettings(), token, logger),
		remover,
		token,
		formatter,
		confirmer,
		logger,
		opts,
	)

	report, err := engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("archive run failed: %w", err)
	}

	if code := report.Status.ExitCode(); code != 0 {
		return fmt.Errorf("archive run finished with status %s", report.Status)
	}
	return nil
}

// prepareConfig loads the configuration and applies the command line on
// top of it
func prepareConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	source := cfg.Paths.Source
	if len(args) > 0 {
		source = args[0]
	}
	if source == "" {
		return nil, fmt.Errorf("a camera directory is required")
	}
	source, err = validateSource(source)
	if err != nil {
		return nil, err
	}

	applyFlagsToConfig(cmd, cfg)
	cfg.ApplySourceDefaults(source)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validatePaths(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagsToConfig overrides config values with the flags that were set
// on the command line
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("output") {
		cfg.Paths.Output = runFlags.Output
	}
	if changed("trash-root") {
		cfg.Paths.Trash = runFlags.TrashRoot
	}
	if changed("delete") {
		cfg.Policy.PermanentDelete = runFlags.Delete
	}
	if changed("no-skip") {
		cfg.Policy.SkipIfArchived = !runFlags.NoSkip
	}
	if changed("cleanup") {
		cfg.Policy.CleanupOnly = runFlags.Cleanup
	}
	if changed("clean-output") {
		cfg.Policy.CleanOutput = runFlags.CleanOutput
	}
	if changed("age") {
		cfg.Policy.AgeDays = runFlags.Age
	}
	if changed("max-size") {
		cfg.Policy.MaxSizeGB = runFlags.MaxSize
	}
	if changed("min-archive-size") {
		cfg.Policy.MinArchiveSize = runFlags.MinArchiveSize
	}

	if changed("format") {
		// plan binds its own format flag
		cfg.Output.Format = flags.Lookup("format").Value.String()
	}
	if changed("no-progress") {
		cfg.Output.Progress = !runFlags.NoProgress
	}
	if changed("no-confirm") && runFlags.NoConfirm {
		cfg.Output.Confirm = false
	}

	if changed("log-file") {
		cfg.Logging.File = runFlags.LogFile
		cfg.Logging.Enabled = true
	}
	if changed("log-format") {
		cfg.Logging.Format = runFlags.LogFormat
	}
	if changed("log-level") {
		cfg.Logging.Level = runFlags.LogLevel
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}
	if globalFlags.Verbose {
		cfg.Logging.Level = "debug"
	}
}

// createLogger fans out to the log file and the console. The console shows
// warnings only in quiet mode and everything in verbose mode.
func createLogger(cfg *config.Config, console io.Writer) (logging.Logger, error) {
	consoleLevel := logging.InfoLevel
	switch {
	case cfg.Output.Quiet:
		consoleLevel = logging.WarnLevel
	case globalFlags.Verbose:
		consoleLevel = logging.DebugLevel
	}
	consoleLogger := logging.NewConsoleLogger(console, consoleLevel)

	if !cfg.Logging.Enabled || cfg.Logging.File == "" {
		return consoleLogger, nil
	}

	fileLogger, err := logging.NewFileLogger(cfg.FileLoggerConfig())
	if err != nil {
		return nil, err
	}

	return logging.NewMultiLogger(fileLogger, consoleLogger), nil
}

// createFormatter picks the run output: JSON for scripts, a progress bar
// on a terminal, plain lines otherwise
func createFormatter(cfg *config.Config, console *output.Console) output.Formatter {
	switch {
	case cfg.Output.Format == "json":
		return output.NewJSONFormatter(os.Stdout)
	case cfg.Output.Quiet:
		return output.NewHumanFormatter(io.Discard)
	case cfg.Output.Progress && console.IsTerminal():
		return output.NewProgressFormatter(console)
	default:
		return output.NewHumanFormatter(console)
	}
}
