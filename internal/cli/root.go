package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// GlobalFlags holds flags shared by every command
type GlobalFlags struct {
	ConfigFile string
	EnvFile    string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// NewRootCommand builds the camarchive command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "camarchive",
		Short: "Archive and clean up security camera recordings",
		Long: `camarchive re-encodes old security camera videos into a dated archive
tree and moves the originals and their thumbnails to a recoverable trash.
Recordings younger than the age threshold are never touched.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&globalFlags.ConfigFile, "config", "", "config file (default is $HOME/.config/camarchive/config.yaml)")
	pf.StringVar(&globalFlags.EnvFile, "env-file", "", "file with CAMARCHIVE_* variables (default is ./.env when present)")
	pf.BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "suppress non-error output")

	root.AddCommand(
		NewRunCommand(),
		NewPlanCommand(),
		NewRestoreCommand(),
		NewTrashCommand(),
		NewConfigCommand(),
		NewVersionCommand(),
	)

	return root
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, Version)
				return
			}

			fmt.Fprintf(out, "camarchive %s\n", Version)
			fmt.Fprintf(out, "  Commit:     %s\n", Commit)
			fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")

	return cmd
}
