package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sdejongh/camarchive/pkg/models"
)

// DefaultPlanLimit is how many actions per group the plan display lists
const DefaultPlanLimit = 10

// PlanOptions controls the plan display
type PlanOptions struct {
	// Format is "human" or "json"
	Format string

	// Limit caps the actions listed per group, 0 lists everything
	Limit int

	SourceRoot  string
	OutputRoot  string
	CleanupOnly bool
	DryRun      bool
}

// Removal groups in display order
var removalOrder = []models.RemovalKind{
	models.RemovalArchiveExists,
	models.RemovalCleanup,
	models.RemovalOutputCleanup,
	models.RemovalQuota,
	models.RemovalOrphan,
}

var removalLabels = map[models.RemovalKind]string{
	models.RemovalSourceTranscoded:    "Sources after transcode",
	models.RemovalThumbnailTranscoded: "Thumbnails after transcode",
	models.RemovalCleanup:             "Cleanup",
	models.RemovalArchiveExists:       "Already archived",
	models.RemovalOutputCleanup:       "Archived files (output cleanup)",
	models.RemovalOrphan:              "Orphaned thumbnails",
	models.RemovalQuota:               "Archives over size limit",
}

// WritePlan displays plan on w
func WritePlan(w io.Writer, plan *models.ActionPlan, opts PlanOptions) error {
	if opts.Format == "json" {
		return writePlanJSON(w, plan, opts)
	}
	writePlanHuman(w, plan, opts)
	return nil
}

// WritePlanFile writes the plan to a file
func WritePlanFile(plan *models.ActionPlan, path string, opts PlanOptions) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plan file: %w", err)
	}
	defer file.Close()

	return WritePlan(file, plan, opts)
}

func writePlanHuman(w io.Writer, plan *models.ActionPlan, opts PlanOptions) {
	coupled := plan.CoupledRemovals()

	fmt.Fprintf(w, "Action plan\n")
	fmt.Fprintf(w, "===========\n\n")
	if opts.SourceRoot != "" {
		fmt.Fprintf(w, "Source: %s\n", opts.SourceRoot)
	}
	if opts.OutputRoot != "" {
		fmt.Fprintf(w, "Output: %s\n", opts.OutputRoot)
	}
	if opts.DryRun {
		fmt.Fprintf(w, "Dry Run: true\n")
	}
	if opts.CleanupOnly {
		fmt.Fprintf(w, "Cleanup enabled\n")
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "Transcodes: %d\n", len(plan.Transcodes))
	fmt.Fprintf(w, "Removals:   %d", len(plan.Removals))
	if len(coupled) > 0 {
		fmt.Fprintf(w, " (+%d after successful transcodes)", len(coupled))
	}
	fmt.Fprintf(w, "\n\n")

	if plan.IsEmpty() {
		fmt.Fprintf(w, "Nothing to do\n")
		return
	}

	if len(plan.Transcodes) > 0 {
		heading(w, fmt.Sprintf("Transcode (%d files)", len(plan.Transcodes)))
		for i, t := range plan.Transcodes {
			if opts.Limit > 0 && i >= opts.Limit {
				fmt.Fprintf(w, "  ... and %d more\n", len(plan.Transcodes)-i)
				break
			}
			fmt.Fprintf(w, "  %s\n    -> %s\n", t.Input, t.Output)
		}
		fmt.Fprintf(w, "\n")
	}

	counts := plan.CountByKind()
	byKind := make(map[models.RemovalKind][]models.RemovalAction, len(counts))
	for _, r := range plan.Removals {
		byKind[r.Kind] = append(byKind[r.Kind], r)
	}

	for _, kind := range removalOrder {
		if counts[kind] == 0 {
			continue
		}
		removals := byKind[kind]

		heading(w, fmt.Sprintf("%s (%d files)", removalLabels[kind], counts[kind]))
		for i, r := range removals {
			if opts.Limit > 0 && i >= opts.Limit {
				fmt.Fprintf(w, "  ... and %d more\n", len(removals)-i)
				break
			}
			fmt.Fprintf(w, "  %s\n", r.Path)
		}
		fmt.Fprintf(w, "\n")
	}
}

func heading(w io.Writer, label string) {
	fmt.Fprintf(w, "%s\n", label)
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(label)))
}

type jsonRemoval struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Kind   string `json:"kind"`
}

type jsonTranscode struct {
	Input     string        `json:"input"`
	Output    string        `json:"output"`
	Timestamp string        `json:"timestamp"`
	Removals  []jsonRemoval `json:"removals_on_success"`
}

func writePlanJSON(w io.Writer, plan *models.ActionPlan, opts PlanOptions) error {
	transcodes := make([]jsonTranscode, 0, len(plan.Transcodes))
	for _, t := range plan.Transcodes {
		jt := jsonTranscode{
			Input:     t.Input,
			Output:    t.Output,
			Timestamp: t.Timestamp.Format(time.RFC3339),
		}
		for _, r := range t.CoupledRemovals() {
			jt.Removals = append(jt.Removals, jsonRemoval{Path: r.Path, Reason: r.Reason, Kind: string(r.Kind)})
		}
		transcodes = append(transcodes, jt)
	}

	removals := make([]jsonRemoval, 0, len(plan.Removals))
	for _, r := range plan.Removals {
		removals = append(removals, jsonRemoval{Path: r.Path, Reason: r.Reason, Kind: string(r.Kind)})
	}

	byKind := make(map[string]int)
	for kind, n := range plan.CountByKind() {
		byKind[string(kind)] = n
	}

	output := struct {
		Generated      string          `json:"generated"`
		SourceRoot     string          `json:"source_root,omitempty"`
		OutputRoot     string          `json:"output_root,omitempty"`
		DryRun         bool            `json:"dry_run"`
		CleanupOnly    bool            `json:"cleanup_only"`
		Transcodes     []jsonTranscode `json:"transcodes"`
		Removals       []jsonRemoval   `json:"removals"`
		RemovalsByKind map[string]int  `json:"removals_by_kind"`
	}{
		Generated:      time.Now().Format(time.RFC3339),
		SourceRoot:     opts.SourceRoot,
		OutputRoot:     opts.OutputRoot,
		DryRun:         opts.DryRun,
		CleanupOnly:    opts.CleanupOnly,
		Transcodes:     transcodes,
		Removals:       removals,
		RemovalsByKind: byKind,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
