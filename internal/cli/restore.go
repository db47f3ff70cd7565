package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sdejongh/camarchive/pkg/journal"
	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/storage"
	"github.com/sdejongh/camarchive/pkg/trash"
)

// TrashFlags holds flags of the restore and trash commands
type TrashFlags struct {
	Journal string
	RunID   string
	DryRun  bool
	Pending bool
	Limit   int
	Format  string
}

var trashFlags TrashFlags

// NewRestoreCommand creates the restore command
func NewRestoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore [DIR]",
		Short: "Move trashed files back to their original location",
		Long: `Restore files that a run moved to the trash, using the trash journal.
Files whose original path is occupied again are left in the trash.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRestore,
	}

	addJournalFlags(cmd)
	cmd.Flags().BoolVar(&trashFlags.DryRun, "dry-run", false, "show what would be restored")

	return cmd
}

// NewTrashCommand creates the trash command
func NewTrashCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect the trash journal",
	}

	list := &cobra.Command{
		Use:   "list [DIR]",
		Short: "List files moved to the trash",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTrashList,
	}
	addJournalFlags(list)
	list.Flags().BoolVar(&trashFlags.Pending, "pending", false, "only list files that were not restored")
	list.Flags().IntVar(&trashFlags.Limit, "limit", 0, "maximum entries to list (0 = all)")
	list.Flags().StringVar(&trashFlags.Format, "format", "human", "output format: human, json")

	cmd.AddCommand(list)
	return cmd
}

func addJournalFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&trashFlags.Journal, "journal", "", "trash journal (default is DIR/.deleted/journal.db)")
	cmd.Flags().StringVar(&trashFlags.RunID, "run", "", "only entries of this run")
}

// journalPath resolves the journal from the flag, or from the camera
// directory and the configuration
func journalPath(args []string) (string, error) {
	if trashFlags.Journal != "" {
		return trashFlags.Journal, nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	source := cfg.Paths.Source
	if len(args) > 0 {
		source = args[0]
	}
	if source == "" && cfg.Paths.Journal == "" {
		return "", fmt.Errorf("a camera directory or --journal is required")
	}
	if source != "" {
		if source, err = validateSource(source); err != nil {
			return "", err
		}
	}
	cfg.ApplySourceDefaults(source)
	return cfg.Paths.Journal, nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := journalPath(args)
	if err != nil {
		return err
	}
	j, err := openJournal(path)
	if err != nil {
		return err
	}
	defer j.Close()

	level := logging.InfoLevel
	if globalFlags.Quiet {
		level = logging.WarnLevel
	}
	logger := logging.NewConsoleLogger(cmd.OutOrStdout(), level)

	backend := storage.NewLocal()
	defer backend.Close()

	result, err := trash.NewRestorer(backend, j, logger).Restore(ctx, journal.Filter{RunID: trashFlags.RunID}, trashFlags.DryRun)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Restored: %d, skipped: %d, failed: %d\n",
		result.Restored, result.Skipped, result.Failed)
	if result.Failed > 0 {
		return fmt.Errorf("%d files could not be restored", result.Failed)
	}
	return nil
}

func runTrashList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := journalPath(args)
	if err != nil {
		return err
	}
	j, err := openJournal(path)
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.List(ctx, journal.Filter{
		RunID:   trashFlags.RunID,
		Pending: trashFlags.Pending,
		Limit:   trashFlags.Limit,
	})
	if err != nil {
		return err
	}

	if trashFlags.Format == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}
	writeEntries(cmd.OutOrStdout(), entries)
	return nil
}

func writeEntries(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "Trash is empty")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMOVED\tSTATE\tREASON\tORIGINAL")
	for _, e := range entries {
		state := "trashed"
		if e.Restored() {
			state = "restored"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			e.ID, e.MovedAt.Local().Format("2006-01-02 15:04:05"), state, e.Reason, e.OriginalPath)
	}
	tw.Flush()
}
