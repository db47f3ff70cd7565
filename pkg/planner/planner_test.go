package planner

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/models"
	"github.com/sdejongh/camarchive/pkg/storage"
	"github.com/sdejongh/camarchive/pkg/timestamp"
)

var (
	captured = time.Date(2023, 1, 15, 12, 0, 0, 0, time.Local)
	recent   = time.Date(2023, 3, 10, 12, 0, 0, 0, time.Local)
	clock    = time.Date(2023, 3, 20, 12, 0, 0, 0, time.Local)
)

func newPlanner(policy *models.Policy) *Planner {
	p := New(policy, storage.NewLocal(), logging.NewNullLogger())
	p.now = func() time.Time { return clock }
	return p
}

func basePolicy(root string) *models.Policy {
	return &models.Policy{
		SourceRoot:     root,
		OutputRoot:     filepath.Join(root, "archived"),
		TrashRoot:      filepath.Join(root, ".deleted"),
		AgeDays:        30,
		SkipIfArchived: true,
		MinArchiveSize: models.DefaultMinArchiveSize,
	}
}

// addCapture adds a raw video and optional thumbnail to inv
func addCapture(inv *models.Inventory, root string, ts time.Time, thumb bool) (string, string) {
	key := timestamp.Format(ts)
	dir := filepath.Join(root, ts.Format("2006"), ts.Format("01"), ts.Format("02"))
	video := filepath.Join(dir, "REO_cam_"+key+".mp4")

	rec := inv.Record(key, ts)
	rec.Video = video
	inv.Videos = append(inv.Videos, models.MediaFile{Path: video, Timestamp: ts})

	thumbnail := ""
	if thumb {
		thumbnail = filepath.Join(dir, "REO_cam_"+key+".jpg")
		rec.Thumbnail = thumbnail
	}
	return video, thumbnail
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("/out", captured, "")
	want := filepath.Join("/out", "2023", "01", "15", "archived-20230115120000.mp4")
	if got != want {
		t.Errorf("OutputPath() = %s, want %s", got, want)
	}

	if got := OutputPath("/out", captured, ".mkv"); filepath.Base(got) != "archived-20230115120000.mkv" {
		t.Errorf("OutputPath(.mkv) = %s", got)
	}
}

func TestPlan_Transcode(t *testing.T) {
	root := t.TempDir()
	policy := basePolicy(root)
	inv := models.NewInventory()
	video, thumb := addCapture(inv, root, captured, true)

	plan := newPlanner(policy).Plan(context.Background(), inv)

	if len(plan.Transcodes) != 1 || len(plan.Removals) != 0 {
		t.Fatalf("plan = %d transcodes, %d removals; want 1, 0", len(plan.Transcodes), len(plan.Removals))
	}

	action := plan.Transcodes[0]
	if action.Input != video || action.Thumbnail != thumb {
		t.Errorf("action = %+v", action)
	}
	if action.Output != OutputPath(policy.OutputRoot, captured, "") {
		t.Errorf("Output = %s", action.Output)
	}

	coupled := plan.CoupledRemovals()
	if len(coupled) != 2 || coupled[0].Reason != models.ReasonTranscodedSource || coupled[1].Reason != models.ReasonTranscodedThumbnail {
		t.Errorf("coupled removals = %+v", coupled)
	}
}

func TestPlan_TooRecent(t *testing.T) {
	root := t.TempDir()

	for _, cleanup := range []bool{false, true} {
		policy := basePolicy(root)
		policy.CleanupOnly = cleanup

		inv := models.NewInventory()
		addCapture(inv, root, recent, true)

		plan := newPlanner(policy).Plan(context.Background(), inv)
		if !plan.IsEmpty() {
			t.Errorf("cleanup=%v: plan for a recent capture should be empty, got %+v", cleanup, plan)
		}
	}
}

func TestPlan_Cleanup(t *testing.T) {
	root := t.TempDir()
	policy := basePolicy(root)
	policy.CleanupOnly = true

	inv := models.NewInventory()
	video, thumb := addCapture(inv, root, captured, true)

	plan := newPlanner(policy).Plan(context.Background(), inv)

	if len(plan.Transcodes) != 0 {
		t.Errorf("cleanup mode must never transcode")
	}
	want := []models.RemovalAction{
		{Path: video, Reason: models.ReasonCleanup, Kind: models.RemovalCleanup},
		{Path: thumb, Reason: models.ReasonCleanup, Kind: models.RemovalCleanup},
	}
	if !reflect.DeepEqual(plan.Removals, want) {
		t.Errorf("Removals = %+v, want %+v", plan.Removals, want)
	}
}

func TestPlan_CleanOutput(t *testing.T) {
	root := t.TempDir()
	policy := basePolicy(root)
	archive := filepath.Join(policy.OutputRoot, "2023", "01", "15", "archived-20230115120000.mp4")

	inv := models.NewInventory()
	inv.Record("20230115120000", captured).Archive = archive
	inv.Videos = append(inv.Videos, models.MediaFile{Path: archive, Timestamp: captured, Archived: true})

	t.Run("WithoutCleanup", func(t *testing.T) {
		policy.CleanupOnly = false
		policy.CleanOutput = true
		if plan := newPlanner(policy).Plan(context.Background(), inv); !plan.IsEmpty() {
			t.Errorf("archived files are only removed in cleanup mode, got %+v", plan)
		}
	})

	t.Run("WithCleanup", func(t *testing.T) {
		policy.CleanupOnly = true
		policy.CleanOutput = true
		plan := newPlanner(policy).Plan(context.Background(), inv)
		if len(plan.Removals) != 1 || plan.Removals[0].Kind != models.RemovalOutputCleanup {
			t.Errorf("Removals = %+v", plan.Removals)
		}
		if plan.Removals[0].Reason != models.ReasonOutputCleanup {
			t.Errorf("Reason = %s", plan.Removals[0].Reason)
		}
	})
}

func TestPlan_SkipIfArchived(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		skip       bool
		wantRemove bool
	}{
		{"LargeArchive", 2 * 1024 * 1024, true, true},
		{"TruncatedArchive", 10, true, false},
		{"EmptyArchive", 0, true, false},
		{"SkipDisabled", 2 * 1024 * 1024, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			policy := basePolicy(root)
			policy.SkipIfArchived = tt.skip

			out := OutputPath(policy.OutputRoot, captured, "")
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(out, make([]byte, tt.size), 0644); err != nil {
				t.Fatal(err)
			}

			inv := models.NewInventory()
			addCapture(inv, root, captured, true)
			plan := newPlanner(policy).Plan(context.Background(), inv)

			if tt.wantRemove {
				if len(plan.Transcodes) != 0 || len(plan.Removals) != 2 {
					t.Fatalf("plan = %+v", plan)
				}
				for _, r := range plan.Removals {
					if r.Kind != models.RemovalArchiveExists || r.Reason != models.ReasonArchiveExists {
						t.Errorf("removal = %+v", r)
					}
				}
			} else {
				if len(plan.Transcodes) != 1 || len(plan.Removals) != 0 {
					t.Errorf("plan = %+v", plan)
				}
			}
		})
	}
}

func TestPlan_Idempotent(t *testing.T) {
	root := t.TempDir()
	policy := basePolicy(root)

	inv := models.NewInventory()
	addCapture(inv, root, captured, true)
	addCapture(inv, root, captured.Add(time.Hour), false)
	addCapture(inv, root, recent, true)

	p := newPlanner(policy)
	first := p.Plan(context.Background(), inv)
	second := p.Plan(context.Background(), inv)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Plan() is not idempotent:\n%+v\n%+v", first, second)
	}
	if len(first.Transcodes) != 2 {
		t.Errorf("Transcodes = %d, want 2", len(first.Transcodes))
	}
}

func TestPlan_DuplicateTimestamp(t *testing.T) {
	root := t.TempDir()
	policy := basePolicy(root)

	inv := models.NewInventory()
	addCapture(inv, root, captured, true)
	dup := filepath.Join(root, "2023", "01", "15", "OTHER_20230115120000.mp4")
	inv.Videos = append(inv.Videos, models.MediaFile{Path: dup, Timestamp: captured})

	plan := newPlanner(policy).Plan(context.Background(), inv)
	if len(plan.Transcodes) != 1 {
		t.Errorf("Transcodes = %d, want 1", len(plan.Transcodes))
	}
}

func TestPlanQuota(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []storage.FileInfo{
		{Path: "/out/c.mp4", Size: 300, ModTime: base.Add(3 * time.Hour)},
		{Path: "/out/a.mp4", Size: 300, ModTime: base.Add(1 * time.Hour)},
		{Path: "/out/b.mp4", Size: 300, ModTime: base.Add(2 * time.Hour)},
	}

	tests := []struct {
		name  string
		quota int64
		want  []string
	}{
		{"Unlimited", 0, nil},
		{"UnderQuota", 1000, nil},
		{"AtQuota", 900, nil},
		{"OneOver", 800, []string{"/out/a.mp4"}},
		{"TwoOver", 300, []string{"/out/a.mp4", "/out/b.mp4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := basePolicy(t.TempDir())
			policy.ArchiveQuota = tt.quota

			removals := newPlanner(policy).PlanQuota(context.Background(), entries)
			var got []string
			for _, r := range removals {
				if r.Kind != models.RemovalQuota {
					t.Errorf("Kind = %s, want %s", r.Kind, models.RemovalQuota)
				}
				got = append(got, r.Path)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PlanQuota() = %v, want %v", got, tt.want)
			}
		})
	}
}
