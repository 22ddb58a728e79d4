package daemon

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/imgstack/internal/frontmatter"
	"git.home.luguber.info/inful/imgstack/internal/markdown"
	"git.home.luguber.info/inful/imgstack/internal/stack"
	"git.home.luguber.info/inful/imgstack/internal/vault"
)

// Index maps notes to the image names they embed, so owner lookups for plugin
// requests don't walk the whole vault. It is advisory: vault.FindOwner
// verifies every candidate before use.
type Index struct {
	mu    sync.RWMutex
	files map[string]map[string]struct{}
}

func NewIndex() *Index {
	return &Index{files: make(map[string]map[string]struct{})}
}

// Build scans every markdown note under the vault root.
func (ix *Index) Build(ctx context.Context, v *vault.Vault) error {
	return filepath.WalkDir(v.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != v.Root() {
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
		rel, relErr := filepath.Rel(v.Root(), path)
		if relErr != nil {
			return relErr
		}
		ix.ScanNote(v, rel)
		return nil
	})
}

// ScanNote re-reads one note and replaces its index entry. Notes that opt out
// via frontmatter (`imgstack: ignore`) are dropped from the index.
func (ix *Index) ScanNote(v *vault.Vault, rel string) {
	content, err := v.Read(rel)
	if err != nil {
		ix.Remove(rel)
		return
	}

	front, body, _ := frontmatter.Split([]byte(content))
	if optedOut(front) {
		ix.Remove(rel)
		return
	}

	names := make(map[string]struct{})
	for _, ref := range markdown.ExtractImages(body) {
		name, err := stack.LocalName(stack.TargetRef{Locator: ref.Locator})
		if err != nil {
			continue
		}
		names[name] = struct{}{}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if len(names) == 0 {
		delete(ix.files, rel)
		return
	}
	ix.files[rel] = names
}

// Remove drops a note from the index.
func (ix *Index) Remove(rel string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.files, rel)
}

// Len returns the number of indexed notes.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.files)
}

// Candidates implements vault.OwnerIndex. A note is a candidate when one of
// its image names equals the key or appears inside it (search keys derived
// from app:// URIs reduce to bare names, while remote keys are full URLs).
func (ix *Index) Candidates(key string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]string, 0, 4)
	for rel, names := range ix.files {
		for name := range names {
			if name == key || strings.Contains(key, name) || strings.Contains(name, key) {
				out = append(out, rel)
				break
			}
		}
	}
	return out
}

// optedOut reports whether a note disabled stacking via `imgstack: ignore`
// (or `imgstack: false`) in its frontmatter.
func optedOut(front []byte) bool {
	if len(front) == 0 {
		return false
	}
	fields, err := frontmatter.ParseYAML(front)
	if err != nil {
		return false
	}
	switch v := fields["imgstack"].(type) {
	case string:
		return v == "ignore" || v == "off"
	case bool:
		return !v
	default:
		return false
	}
}
