// Package vault is the document store: it owns every read and write of note
// files so transforms can stay pure. Writes go through an atomic
// read-modify-write primitive that re-applies the transform when the file
// changed underneath.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/imgstack/internal/frontmatter"
	"git.home.luguber.info/inful/imgstack/internal/stack"
)

// ErrNoOwner is returned when no note in the vault contains the reference.
var ErrNoOwner = errors.New("no owning document found")

// OwnerIndex answers "which notes might contain this search key". The daemon
// maintains one from fsnotify events; without an index FindOwner falls back to
// a full vault walk.
type OwnerIndex interface {
	Candidates(key string) []string
}

// TransformFunc computes a replacement document text from the current one.
// It must be deterministic and side-effect-free; Process may call it more than
// once on write conflicts.
type TransformFunc func(current string) (string, error)

// Vault provides access to markdown notes under a root directory.
type Vault struct {
	root  string
	index OwnerIndex
}

// New opens a vault rooted at dir.
func New(dir string) (*Vault, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open vault %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault %s: not a directory", dir)
	}
	return &Vault{root: dir}, nil
}

// Root returns the vault root directory.
func (v *Vault) Root() string { return v.root }

// SetIndex installs an owner index consulted before falling back to a walk.
func (v *Vault) SetIndex(idx OwnerIndex) { v.index = idx }

// Read returns the current content of a note.
func (v *Vault) Read(rel string) (string, error) {
	abs, err := v.abs(rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs) // #nosec G304 -- abs is confined to the vault root.
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	return string(data), nil
}

const processAttempts = 3

// Process applies fn to the note at rel under read-modify-write semantics:
// read a consistent snapshot, run the pure transform, write the result via a
// temp file and rename. If the note changes between read and write the
// transform is re-run against the fresh snapshot, up to processAttempts times.
// When fn returns the text unchanged nothing is written.
func (v *Vault) Process(ctx context.Context, rel string, fn TransformFunc) error {
	abs, err := v.abs(rel)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < processAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		before, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("stat %s: %w", rel, err)
		}
		data, err := os.ReadFile(abs) // #nosec G304
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}

		next, err := fn(string(data))
		if err != nil {
			return err
		}
		if next == string(data) {
			return nil
		}

		// Conflict check: another writer (the editor) got in between our read
		// and this point. Retry against the fresh content.
		after, statErr := os.Stat(abs)
		if statErr != nil {
			return fmt.Errorf("stat %s: %w", rel, statErr)
		}
		if after.ModTime() != before.ModTime() || after.Size() != before.Size() {
			continue
		}

		if err := writeAtomic(abs, []byte(next), before.Mode()); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
		return nil
	}
	return fmt.Errorf("process %s: too many concurrent modifications", rel)
}

// FindOwner locates the note whose body contains key on a qualifying image
// line. Index candidates are verified before the walk fallback so a stale
// index entry cannot misdirect an edit.
func (v *Vault) FindOwner(ctx context.Context, key string) (string, error) {
	if v.index != nil {
		for _, rel := range v.index.Candidates(key) {
			ok, err := v.contains(rel, key)
			if err == nil && ok {
				return rel, nil
			}
		}
	}

	var found string
	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != v.root {
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

		rel, relErr := filepath.Rel(v.root, path)
		if relErr != nil {
			return relErr
		}
		ok, cErr := v.contains(rel, key)
		if cErr != nil {
			return nil // unreadable note: keep looking
		}
		if ok {
			found = rel
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan vault: %w", err)
	}
	if found == "" {
		return "", ErrNoOwner
	}
	return found, nil
}

// contains reports whether the note's body has a qualifying image line (merged
// lines included) holding key.
func (v *Vault) contains(rel, key string) (bool, error) {
	content, err := v.Read(rel)
	if err != nil {
		return false, err
	}
	_, body, _ := frontmatter.Split([]byte(content))
	for _, line := range stack.SplitLines(string(body)) {
		if !strings.Contains(line, key) {
			continue
		}
		if stack.IsImageLine(line) || stack.IsStackedLine(line) {
			return true, nil
		}
	}
	return false, nil
}

func (v *Vault) abs(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		if sub, err := filepath.Rel(v.root, rel); err == nil && !strings.HasPrefix(sub, "..") {
			rel = sub
		} else {
			return "", fmt.Errorf("path %s is outside the vault", rel)
		}
	}
	abs := filepath.Join(v.root, filepath.Clean(rel))
	if sub, err := filepath.Rel(v.root, abs); err != nil || strings.HasPrefix(sub, "..") {
		return "", fmt.Errorf("path %s is outside the vault", rel)
	}
	return abs, nil
}

// writeAtomic writes data next to the target and renames it into place.
func writeAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".imgstack-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
