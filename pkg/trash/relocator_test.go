package trash

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sdejongh/camarchive/pkg/journal"
	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/models"
	"github.com/sdejongh/camarchive/pkg/storage"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

type fixture struct {
	source string
	output string
	trash  string
}

func newFixture(t *testing.T) fixture {
	root := t.TempDir()
	return fixture{
		source: root,
		output: filepath.Join(root, "archived"),
		trash:  filepath.Join(root, ".deleted"),
	}
}

func (f fixture) relocator(opts Options) *Relocator {
	opts.SourceRoot = f.source
	opts.OutputRoot = f.output
	if opts.TrashRoot == "" && !opts.PermanentDelete {
		opts.TrashRoot = f.trash
	}
	r := New(storage.NewLocal(), logging.NewNullLogger(), opts)
	r.now = func() time.Time { return time.Unix(1000, 0) }
	return r
}

func TestDestination(t *testing.T) {
	f := newFixture(t)
	r := f.relocator(Options{})

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "Source",
			path: filepath.Join(f.source, "2023", "01", "15", "a.mp4"),
			want: filepath.Join(f.trash, "input", "2023", "01", "15", "a.mp4"),
		},
		{
			name: "Output",
			path: filepath.Join(f.output, "2023", "01", "15", "archived-20230115120000.mp4"),
			want: filepath.Join(f.trash, "output", "2023", "01", "15", "archived-20230115120000.mp4"),
		},
		{
			name: "Outside",
			path: filepath.Join(string(filepath.Separator), "elsewhere", "b.jpg"),
			want: filepath.Join(f.trash, "input", "b.jpg"),
		},
		{
			name: "PreviouslyTrashed",
			path: filepath.Join(f.source, ".deleted", "input", "2023", "01", "15", "a.mp4"),
			want: filepath.Join(f.trash, "input", "2023", "01", "15", "a.mp4"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Destination(tt.path); got != tt.want {
				t.Errorf("Destination() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRemove_Trash(t *testing.T) {
	f := newFixture(t)
	r := f.relocator(Options{})
	ctx := context.Background()

	src := filepath.Join(f.source, "2023", "01", "15", "a.mp4")
	writeFile(t, src, "video")

	if !r.Remove(ctx, src, "cleanup mode enabled") {
		t.Fatal("Remove() = false, want true")
	}
	if exists(src) {
		t.Error("source should be gone")
	}

	dest := filepath.Join(f.trash, "input", "2023", "01", "15", "a.mp4")
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("trash file missing: %v", err)
	}
	if string(data) != "video" {
		t.Errorf("trash content = %q, want %q", data, "video")
	}
}

func TestRemove_CollisionNeverOverwrites(t *testing.T) {
	f := newFixture(t)
	r := f.relocator(Options{})
	ctx := context.Background()

	taken := filepath.Join(f.trash, "input", "2023", "01", "15", "a.mp4")
	writeFile(t, taken, "first")

	src := filepath.Join(f.source, "2023", "01", "15", "a.mp4")
	writeFile(t, src, "second")
	if !r.Remove(ctx, src, "test") {
		t.Fatal("Remove() = false, want true")
	}

	suffixed := filepath.Join(f.trash, "input", "2023", "01", "15", "a_1000_1.mp4")
	if data, _ := os.ReadFile(suffixed); string(data) != "second" {
		t.Errorf("suffixed content = %q, want %q", data, "second")
	}
	if data, _ := os.ReadFile(taken); string(data) != "first" {
		t.Errorf("original trash content = %q, want %q", data, "first")
	}

	writeFile(t, src, "third")
	if !r.Remove(ctx, src, "test") {
		t.Fatal("Remove() = false, want true")
	}
	third := filepath.Join(f.trash, "input", "2023", "01", "15", "a_1000_2.mp4")
	if data, _ := os.ReadFile(third); string(data) != "third" {
		t.Errorf("second suffixed content = %q, want %q", data, "third")
	}
}

func TestRemove_DryRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := filepath.Join(f.source, "2023", "01", "15", "a.mp4")
	writeFile(t, src, "video")

	for _, permanent := range []bool{false, true} {
		r := f.relocator(Options{DryRun: true, PermanentDelete: permanent})
		if !r.Remove(ctx, src, "test") {
			t.Errorf("Remove(permanent=%v) = false in dry run", permanent)
		}
	}

	if !exists(src) {
		t.Error("dry run must not touch the file")
	}
	if exists(f.trash) {
		t.Error("dry run must not create the trash root")
	}
}

func TestRemove_PermanentDelete(t *testing.T) {
	f := newFixture(t)
	r := f.relocator(Options{PermanentDelete: true})
	ctx := context.Background()

	src := filepath.Join(f.source, "2023", "01", "15", "a.mp4")
	writeFile(t, src, "video")

	if !r.Remove(ctx, src, "test") {
		t.Fatal("Remove() = false, want true")
	}
	if exists(src) {
		t.Error("file should be deleted")
	}

	emptyDir := filepath.Join(f.source, "empty")
	if err := os.Mkdir(emptyDir, 0755); err != nil {
		t.Fatal(err)
	}
	if !r.Remove(ctx, emptyDir, "test") {
		t.Error("Remove() of an empty directory should succeed")
	}
	if exists(emptyDir) {
		t.Error("empty directory should be removed")
	}
}

func TestRemove_MissingFile(t *testing.T) {
	f := newFixture(t)
	r := f.relocator(Options{})

	if r.Remove(context.Background(), filepath.Join(f.source, "missing.mp4"), "test") {
		t.Error("Remove() of a missing file should report false")
	}
}

func TestRemove_Symlink(t *testing.T) {
	f := newFixture(t)
	r := f.relocator(Options{})

	target := filepath.Join(f.source, "target.mp4")
	writeFile(t, target, "video")
	link := filepath.Join(f.source, "link.mp4")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	if r.Remove(context.Background(), link, "test") {
		t.Error("Remove() of a symlink should report false")
	}
	if !exists(link) {
		t.Error("symlink should be left in place")
	}
}

func TestRemove_RecordsJournal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	j, err := journal.Open(filepath.Join(t.TempDir(), journal.FileName))
	if err != nil {
		t.Fatalf("journal.Open() error = %v", err)
	}
	defer j.Close()

	r := f.relocator(Options{RunID: "run-1"})
	r.SetJournal(j)

	src := filepath.Join(f.source, "2023", "01", "15", "a.jpg")
	writeFile(t, src, "thumb")

	action := models.RemovalAction{Path: src, Reason: models.ReasonOrphan, Kind: models.RemovalOrphan}
	if !r.RemoveAction(ctx, action) {
		t.Fatal("RemoveAction() = false, want true")
	}

	entries, err := j.List(ctx, journal.Filter{RunID: "run-1"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.OriginalPath != src || e.Kind != string(models.RemovalOrphan) || e.Reason != models.ReasonOrphan {
		t.Errorf("entry = %+v", e)
	}
	if !exists(e.TrashPath) {
		t.Errorf("journaled trash path %s does not exist", e.TrashPath)
	}
}
