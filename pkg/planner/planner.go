// Package planner turns an inventory into the ordered list of transcodes
// and removals for one run. Planning only reads the filesystem.
package planner

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/models"
	"github.com/sdejongh/camarchive/pkg/storage"
	"github.com/sdejongh/camarchive/pkg/timestamp"
)

// Planner decides what happens to each discovered file
type Planner struct {
	policy  *models.Policy
	backend storage.Backend
	logger  logging.Logger
	now     func() time.Time
}

// New creates a planner. backend is only used for stat calls.
func New(policy *models.Policy, backend storage.Backend, logger logging.Logger) *Planner {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Planner{
		policy:  policy,
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
}

// OutputPath returns where the archive of a capture taken at ts lives
func OutputPath(outputRoot string, ts time.Time, ext string) string {
	return filepath.Join(
		outputRoot,
		ts.Format("2006"),
		ts.Format("01"),
		ts.Format("02"),
		timestamp.ArchivedName(ts, ext),
	)
}

// Plan builds the action plan for inv. The same inventory, policy and
// clock always give the same plan.
func (p *Planner) Plan(ctx context.Context, inv *models.Inventory) *models.ActionPlan {
	plan := models.NewActionPlan()
	now := p.now()
	cutoff := p.policy.AgeCutoff()

	outputs := make(map[string]bool)
	thumbs := make(map[string]bool)

	thumbnailFor := func(rec *models.CaptureRecord) string {
		if rec == nil || rec.Thumbnail == "" || thumbs[rec.Thumbnail] {
			return ""
		}
		thumbs[rec.Thumbnail] = true
		return rec.Thumbnail
	}

	remove := func(path, reason string, kind models.RemovalKind) {
		if path == "" {
			return
		}
		plan.Removals = append(plan.Removals, models.RemovalAction{Path: path, Reason: reason, Kind: kind})
	}

	for _, mf := range inv.Videos {
		if now.Sub(mf.Timestamp) < cutoff {
			continue
		}

		key := timestamp.Format(mf.Timestamp)
		rec := inv.Lookup(key)

		if mf.Archived {
			if p.policy.CleanupOnly && p.policy.CleanOutput {
				remove(mf.Path, models.ReasonOutputCleanup, models.RemovalOutputCleanup)
			}
			continue
		}

		if p.policy.CleanupOnly {
			remove(mf.Path, models.ReasonCleanup, models.RemovalCleanup)
			remove(thumbnailFor(rec), models.ReasonCleanup, models.RemovalCleanup)
			continue
		}

		output := OutputPath(p.policy.OutputRoot, mf.Timestamp, p.policy.ArchiveExt)

		if p.policy.SkipIfArchived && p.archived(ctx, output) {
			p.logger.Debug(ctx, "Archive already exists", logging.Fields{
				"path":    mf.Path,
				"archive": output,
			})
			remove(mf.Path, models.ReasonArchiveExists, models.RemovalArchiveExists)
			remove(thumbnailFor(rec), models.ReasonArchiveExists, models.RemovalArchiveExists)
			continue
		}

		if outputs[output] {
			p.logger.Warn(ctx, "Duplicate capture timestamp, leaving file for a later run", logging.Fields{
				"path":   mf.Path,
				"output": output,
			})
			continue
		}
		outputs[output] = true

		plan.Transcodes = append(plan.Transcodes, models.TranscodeAction{
			Input:     mf.Path,
			Output:    output,
			Timestamp: mf.Timestamp,
			Thumbnail: thumbnailFor(rec),
		})
	}

	p.logger.Debug(ctx, "Plan built", logging.Fields{
		"transcodes": len(plan.Transcodes),
		"removals":   len(plan.Removals),
	})

	return plan
}

// archived reports whether a plausible finished archive exists at path
func (p *Planner) archived(ctx context.Context, path string) bool {
	info, err := p.backend.Stat(ctx, path)
	if err != nil {
		return false
	}
	return info.IsRegular && info.Size >= p.policy.MinArchiveSize
}

// PlanQuota returns removals for the oldest archives until the listed
// archives fit the quota. It returns nothing when no quota is set.
func (p *Planner) PlanQuota(ctx context.Context, entries []storage.FileInfo) []models.RemovalAction {
	quota := p.policy.ArchiveQuota
	if quota <= 0 {
		return nil
	}

	var total int64
	for _, e := range entries {
		total += e.Size
	}

	p.logger.Info(ctx, "Archive size", logging.Fields{
		"bytes": total,
		"limit": quota,
	})
	if total <= quota {
		return nil
	}

	sorted := make([]storage.FileInfo, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].ModTime.Equal(sorted[j].ModTime) {
			return sorted[i].ModTime.Before(sorted[j].ModTime)
		}
		return sorted[i].Path < sorted[j].Path
	})

	removals := make([]models.RemovalAction, 0)
	for _, e := range sorted {
		if total <= quota {
			break
		}
		removals = append(removals, models.RemovalAction{
			Path:   e.Path,
			Reason: models.ReasonQuota,
			Kind:   models.RemovalQuota,
		})
		total -= e.Size
	}
	return removals
}
