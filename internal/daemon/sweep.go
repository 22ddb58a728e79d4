package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/imgstack/internal/frontmatter"
	"git.home.luguber.info/inful/imgstack/internal/journal"
	"git.home.luguber.info/inful/imgstack/internal/logfields"
	"git.home.luguber.info/inful/imgstack/internal/metrics"
	"git.home.luguber.info/inful/imgstack/internal/stack"
	"git.home.luguber.info/inful/imgstack/internal/vault"
)

// Sweeper runs the periodic normalize pass: every run of adjacent standalone
// image lines in the vault is merged, vault-wide. Notes that opt out via
// frontmatter are skipped. The pass is idempotent, so overlapping runs are
// harmless.
type Sweeper struct {
	vault    *vault.Vault
	mode     stack.Mode
	journal  *journal.Store
	recorder metrics.Recorder
}

func NewSweeper(v *vault.Vault, mode stack.Mode, jnl *journal.Store, rec metrics.Recorder) *Sweeper {
	return &Sweeper{vault: v, mode: mode, journal: jnl, recorder: rec}
}

// Run sweeps the whole vault once.
func (s *Sweeper) Run(ctx context.Context) error {
	started := time.Now()
	totalMerged := 0

	err := filepath.WalkDir(s.vault.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != s.vault.Root() {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(s.vault.Root(), path)
		if relErr != nil {
			return relErr
		}

		merged, sweepErr := s.sweepNote(ctx, rel)
		if sweepErr != nil {
			slog.Warn("Sweep failed for note", logfields.File(rel), logfields.Error(sweepErr))
			return nil
		}
		totalMerged += merged
		return nil
	})

	s.recorder.ObserveSweep(totalMerged, time.Since(started))
	slog.Info("Normalize sweep finished",
		logfields.Blocks(totalMerged),
		logfields.DurationMS(float64(time.Since(started).Milliseconds())))
	return err
}

// sweepNote merges adjacent image lines in one note and journals the change.
func (s *Sweeper) sweepNote(ctx context.Context, rel string) (int, error) {
	merged := 0
	var beforeSHA, afterSHA string

	err := s.vault.Process(ctx, rel, func(current string) (string, error) {
		front, body, style := frontmatter.Split([]byte(current))
		if optedOut(front) {
			return current, nil
		}

		lines := stack.SplitLines(string(body))
		out, n := stack.StackAll(lines, s.mode)
		if n == 0 {
			return current, nil
		}

		merged = n
		next := string(frontmatter.Join(front, []byte(strings.Join(out, style.Newline))))
		beforeSHA = journal.SHA(current)
		afterSHA = journal.SHA(next)
		return next, nil
	})
	if err != nil || merged == 0 {
		return 0, err
	}

	if s.journal != nil {
		if jErr := s.journal.Record(ctx, journal.Entry{
			File:      rel,
			Op:        "sweep",
			SearchKey: "",
			BeforeSHA: beforeSHA,
			AfterSHA:  afterSHA,
		}); jErr != nil {
			slog.Warn("Failed to journal sweep", logfields.File(rel), logfields.Error(jErr))
		}
	}
	return merged, nil
}
