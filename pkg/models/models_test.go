package models

import (
	"errors"
	"testing"
	"time"
)

// ============== Inventory Tests ==============

func TestInventory(t *testing.T) {
	ts := time.Date(2023, 1, 15, 12, 0, 0, 0, time.Local)

	t.Run("RecordCreatesOnce", func(t *testing.T) {
		inv := NewInventory()
		a := inv.Record("20230115120000", ts)
		b := inv.Record("20230115120000", ts)
		if a != b {
			t.Error("Record() should return the existing record for the same key")
		}
		if len(inv.Records) != 1 {
			t.Errorf("len(Records) = %d, want 1", len(inv.Records))
		}
	})

	t.Run("LookupMissing", func(t *testing.T) {
		inv := NewInventory()
		if inv.Lookup("20230115120000") != nil {
			t.Error("Lookup() should return nil for unknown key")
		}
	})

	t.Run("EmptyInventory", func(t *testing.T) {
		inv := NewInventory()
		if !inv.IsEmpty() {
			t.Error("new inventory should be empty")
		}
	})

	t.Run("OrphanOnlyIsNotEmpty", func(t *testing.T) {
		inv := NewInventory()
		inv.Record("20230115120000", ts).Thumbnail = "/cam/2023/01/15/x.jpg"
		if inv.IsEmpty() {
			t.Error("inventory with an orphan should not be empty")
		}
	})

	t.Run("OrphansSorted", func(t *testing.T) {
		inv := NewInventory()
		inv.Record("20230115120002", ts).Thumbnail = "b.jpg"
		inv.Record("20230115120001", ts).Thumbnail = "a.jpg"
		paired := inv.Record("20230115120003", ts)
		paired.Thumbnail = "c.jpg"
		paired.Video = "c.mp4"

		orphans := inv.Orphans()
		if len(orphans) != 2 {
			t.Fatalf("len(Orphans()) = %d, want 2", len(orphans))
		}
		if orphans[0].Key != "20230115120001" || orphans[1].Key != "20230115120002" {
			t.Errorf("Orphans() order = %s, %s", orphans[0].Key, orphans[1].Key)
		}
	})
}

func TestCaptureRecordIsOrphan(t *testing.T) {
	tests := []struct {
		name   string
		record CaptureRecord
		want   bool
	}{
		{"ThumbnailOnly", CaptureRecord{Thumbnail: "x.jpg"}, true},
		{"Paired", CaptureRecord{Thumbnail: "x.jpg", Video: "x.mp4"}, false},
		{"ThumbnailWithArchive", CaptureRecord{Thumbnail: "x.jpg", Archive: "archived-x.mp4"}, false},
		{"VideoOnly", CaptureRecord{Video: "x.mp4"}, false},
		{"Empty", CaptureRecord{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.IsOrphan(); got != tt.want {
				t.Errorf("IsOrphan() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ============== ActionPlan Tests ==============

func TestTranscodeActionCoupledRemovals(t *testing.T) {
	t.Run("WithThumbnail", func(t *testing.T) {
		action := TranscodeAction{Input: "a.mp4", Output: "out.mp4", Thumbnail: "a.jpg"}
		removals := action.CoupledRemovals()
		if len(removals) != 2 {
			t.Fatalf("len = %d, want 2", len(removals))
		}
		if removals[0].Path != "a.mp4" || removals[0].Kind != RemovalSourceTranscoded {
			t.Errorf("first removal = %+v", removals[0])
		}
		if removals[1].Path != "a.jpg" || removals[1].Reason != ReasonTranscodedThumbnail {
			t.Errorf("second removal = %+v", removals[1])
		}
	})

	t.Run("WithoutThumbnail", func(t *testing.T) {
		action := TranscodeAction{Input: "a.mp4", Output: "out.mp4"}
		if n := len(action.CoupledRemovals()); n != 1 {
			t.Errorf("len = %d, want 1", n)
		}
	})
}

func TestActionPlan(t *testing.T) {
	plan := NewActionPlan()
	if !plan.IsEmpty() {
		t.Error("new plan should be empty")
	}

	plan.Transcodes = append(plan.Transcodes, TranscodeAction{Input: "a.mp4", Thumbnail: "a.jpg"})
	plan.Removals = append(plan.Removals,
		RemovalAction{Path: "b.mp4", Kind: RemovalArchiveExists},
		RemovalAction{Path: "b.jpg", Kind: RemovalArchiveExists},
		RemovalAction{Path: "c.mp4", Kind: RemovalCleanup},
	)

	if plan.IsEmpty() {
		t.Error("plan should not be empty")
	}
	if n := len(plan.CoupledRemovals()); n != 2 {
		t.Errorf("CoupledRemovals() = %d, want 2", n)
	}

	counts := plan.CountByKind()
	if counts[RemovalArchiveExists] != 2 || counts[RemovalCleanup] != 1 {
		t.Errorf("CountByKind() = %v", counts)
	}
}

// ============== Policy Tests ==============

func TestPolicyValidate(t *testing.T) {
	valid := func() Policy {
		return Policy{
			SourceRoot: "/cam",
			OutputRoot: "/cam/archived",
			TrashRoot:  "/cam/.deleted",
			AgeDays:    30,
		}
	}

	tests := []struct {
		name    string
		mutate  func(p *Policy)
		wantErr string
	}{
		{"Valid", func(p *Policy) {}, ""},
		{"MissingSource", func(p *Policy) { p.SourceRoot = "" }, "SourceRoot"},
		{"MissingOutput", func(p *Policy) { p.OutputRoot = "" }, "OutputRoot"},
		{"MissingTrash", func(p *Policy) { p.TrashRoot = "" }, "TrashRoot"},
		{"PermanentDeleteWithoutTrash", func(p *Policy) { p.TrashRoot = ""; p.PermanentDelete = true }, ""},
		{"NegativeAge", func(p *Policy) { p.AgeDays = -1 }, "AgeDays"},
		{"NegativeMinSize", func(p *Policy) { p.MinArchiveSize = -1 }, "MinArchiveSize"},
		{"NegativeQuota", func(p *Policy) { p.ArchiveQuota = -5 }, "ArchiveQuota"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantErr {
				t.Errorf("Field = %s, want %s", verr.Field, tt.wantErr)
			}
		})
	}
}

func TestPolicyAgeCutoff(t *testing.T) {
	p := Policy{AgeDays: 30}
	if got := p.AgeCutoff(); got != 30*24*time.Hour {
		t.Errorf("AgeCutoff() = %v", got)
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "AgeDays", Message: "age must not be negative"}
	if err.Error() != "AgeDays: age must not be negative" {
		t.Errorf("Error() = %q", err.Error())
	}
}

// ============== RunReport Tests ==============

func TestRunStatusExitCode(t *testing.T) {
	tests := []struct {
		status RunStatus
		want   int
	}{
		{StatusSuccess, 0},
		{StatusPartial, 0},
		{StatusCancelled, 0},
		{StatusFailed, 1},
		{RunStatus("bogus"), 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRunReportFinish(t *testing.T) {
	policy := &Policy{SourceRoot: "/cam", OutputRoot: "/out"}

	t.Run("Success", func(t *testing.T) {
		r := NewRunReport("id", policy)
		r.Finish(false)
		if r.Status != StatusSuccess {
			t.Errorf("Status = %s, want success", r.Status)
		}
		if r.EndTime.Before(r.StartTime) {
			t.Error("EndTime should not be before StartTime")
		}
	})

	t.Run("Partial", func(t *testing.T) {
		r := NewRunReport("id", policy)
		r.AddError("/cam/a.mp4", "transcode", errors.New("exit status 1"))
		r.Finish(false)
		if r.Status != StatusPartial {
			t.Errorf("Status = %s, want partial", r.Status)
		}
		if r.Errors[0].Error != "exit status 1" {
			t.Errorf("Error = %q", r.Errors[0].Error)
		}
	})

	t.Run("CancelledWins", func(t *testing.T) {
		r := NewRunReport("id", policy)
		r.AddError("/cam/a.mp4", "transcode", nil)
		r.Finish(true)
		if r.Status != StatusCancelled {
			t.Errorf("Status = %s, want cancelled", r.Status)
		}
	})

	t.Run("FailedIsKept", func(t *testing.T) {
		r := NewRunReport("id", policy)
		r.Status = StatusFailed
		r.Finish(true)
		if r.Status != StatusFailed {
			t.Errorf("Status = %s, want failed", r.Status)
		}
	})
}

// ============== ExecutionResult Tests ==============

func TestExecutionResultApply(t *testing.T) {
	report := NewRunReport("run-1", &Policy{SourceRoot: "/cam", OutputRoot: "/cam/archived"})
	result := NewExecutionResult()
	result.Transcoded = 2
	result.Removed = 3
	result.TranscodeFailed = 1
	result.BytesArchived = 4096
	result.Errors = append(result.Errors, RunError{FilePath: "/cam/a.mp4", Operation: "transcode", Error: "exit status 1"})

	result.Apply(report)

	if report.Stats.Transcoded != 2 || report.Stats.Removed != 3 || report.Stats.TranscodeFailed != 1 {
		t.Errorf("Apply() stats = %+v", report.Stats)
	}
	if report.Stats.BytesArchived != 4096 {
		t.Errorf("BytesArchived = %d, want 4096", report.Stats.BytesArchived)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("Errors = %d, want 1", len(report.Errors))
	}

	report.Finish(false)
	if report.Status != StatusPartial {
		t.Errorf("Status = %s, want %s", report.Status, StatusPartial)
	}
}
