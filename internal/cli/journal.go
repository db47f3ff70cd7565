package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sdejongh/camarchive/pkg/journal"
	"github.com/sdejongh/camarchive/pkg/logging"
)

// lazyJournal opens the trash journal on the first recorded move, so a
// run that trashes nothing leaves no database behind
type lazyJournal struct {
	path   string
	logger logging.Logger

	once sync.Once
	j    *journal.Journal
	err  error
}

func newLazyJournal(path string, logger logging.Logger) *lazyJournal {
	return &lazyJournal{path: path, logger: logger}
}

// Record implements trash.Recorder
func (l *lazyJournal) Record(ctx context.Context, e journal.Entry) (int64, error) {
	l.once.Do(func() {
		if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
			l.err = fmt.Errorf("failed to create journal directory: %w", err)
			return
		}
		l.j, l.err = journal.Open(l.path)
		if l.err == nil {
			l.logger.Debug(ctx, "Trash journal opened", logging.Fields{"path": l.path})
		}
	})
	if l.err != nil {
		return 0, l.err
	}
	return l.j.Record(ctx, e)
}

// Close closes the journal if it was opened
func (l *lazyJournal) Close() error {
	if l.j == nil {
		return nil
	}
	return l.j.Close()
}

// openJournal opens an existing journal for reading and restoring
func openJournal(path string) (*journal.Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("no trash journal configured (permanent delete leaves no journal)")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("trash journal not found: %s", path)
	}
	return journal.Open(path)
}
