package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/camarchive/pkg/archive"
	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/output"
	"github.com/sdejongh/camarchive/pkg/storage"
)

// PlanFlags holds plan command flags
type PlanFlags struct {
	Format   string
	Limit    int
	PlanFile string
}

var planFlags PlanFlags

// NewPlanCommand creates the plan command
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan DIR",
		Short: "Show what a run would do without changing anything",
		Long: `Scan a camera directory and print the transcodes and removals a run
would perform. Nothing is transcoded, moved or deleted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPlan,
	}

	// Reuse run flags for the policy
	addPolicyFlags(cmd)

	cmd.Flags().StringVar(&planFlags.Format, "format", "human", "plan format: human, json")
	cmd.Flags().IntVar(&planFlags.Limit, "limit", output.DefaultPlanLimit, "actions listed per group (0 = all)")
	cmd.Flags().StringVar(&planFlags.PlanFile, "plan-file", "", "write the plan to a file instead of stdout")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := prepareConfig(cmd, args)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(cmd.ErrOrStderr(), logging.WarnLevel)
	if globalFlags.Verbose {
		logger = logging.NewConsoleLogger(cmd.ErrOrStderr(), logging.DebugLevel)
	}

	backend := storage.NewLocal()
	defer backend.Close()

	policy := cfg.ToPolicy(true)
	engine := archive.NewEngine(policy, backend, nil, nil, nil, nil, nil, logger, archive.Options{})

	_, plan, err := engine.Plan(ctx)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	opts := output.PlanOptions{
		Format:      planFlags.Format,
		Limit:       planFlags.Limit,
		SourceRoot:  policy.SourceRoot,
		OutputRoot:  policy.OutputRoot,
		CleanupOnly: policy.CleanupOnly,
	}

	if planFlags.PlanFile != "" {
		if err := output.WritePlanFile(plan, planFlags.PlanFile, opts); err != nil {
			return fmt.Errorf("failed to write plan: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Plan written to: %s\n", planFlags.PlanFile)
		return nil
	}

	return output.WritePlan(cmd.OutOrStdout(), plan, opts)
}
