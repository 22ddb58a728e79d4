package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T, files map[string]string) *Vault {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	v, err := New(root)
	require.NoError(t, err)
	return v
}

func TestNew_NonDirectory_Errors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := New(file)
	require.Error(t, err)
}

func TestProcess_WritesTransformedContent(t *testing.T) {
	v := newTestVault(t, map[string]string{"note.md": "![[a.png]]\n![[b.png]]\n"})

	err := v.Process(context.Background(), "note.md", func(cur string) (string, error) {
		return strings.ReplaceAll(cur, "\n![[b.png]]", " ![[b.png]]"), nil
	})
	require.NoError(t, err)

	got, err := v.Read("note.md")
	require.NoError(t, err)
	require.Equal(t, "![[a.png]] ![[b.png]]\n", got)
}

func TestProcess_UnchangedContent_LeavesFileAlone(t *testing.T) {
	v := newTestVault(t, map[string]string{"note.md": "hello\n"})
	before, err := os.Stat(filepath.Join(v.Root(), "note.md"))
	require.NoError(t, err)

	err = v.Process(context.Background(), "note.md", func(cur string) (string, error) {
		return cur, nil
	})
	require.NoError(t, err)

	after, err := os.Stat(filepath.Join(v.Root(), "note.md"))
	require.NoError(t, err)
	require.Equal(t, before.ModTime(), after.ModTime())
}

func TestProcess_TransformError_LeavesFileUntouched(t *testing.T) {
	v := newTestVault(t, map[string]string{"note.md": "original\n"})

	sentinel := errors.New("resolver failed")
	err := v.Process(context.Background(), "note.md", func(string) (string, error) {
		return "", sentinel
	})
	require.ErrorIs(t, err, sentinel)

	got, err := v.Read("note.md")
	require.NoError(t, err)
	require.Equal(t, "original\n", got)
}

func TestProcess_PathOutsideVault_Rejected(t *testing.T) {
	v := newTestVault(t, nil)

	err := v.Process(context.Background(), "../escape.md", func(cur string) (string, error) {
		return cur, nil
	})
	require.Error(t, err)
}

func TestFindOwner_WalksVault(t *testing.T) {
	v := newTestVault(t, map[string]string{
		"prose.md":         "mentions cat.png in text only\n",
		"notes/gallery.md": "---\ntitle: g\n---\n![[cat.png]]\n",
	})

	rel, err := v.FindOwner(context.Background(), "cat.png")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("notes", "gallery.md"), rel)
}

func TestFindOwner_MatchesStackedLines(t *testing.T) {
	v := newTestVault(t, map[string]string{
		"g.md": "![[a.png]] ![[cat.png]]\n",
	})

	rel, err := v.FindOwner(context.Background(), "cat.png")
	require.NoError(t, err)
	require.Equal(t, "g.md", rel)
}

func TestFindOwner_NoMatch_ReturnsErrNoOwner(t *testing.T) {
	v := newTestVault(t, map[string]string{"a.md": "nothing here\n"})

	_, err := v.FindOwner(context.Background(), "cat.png")
	require.ErrorIs(t, err, ErrNoOwner)
}

type staticIndex map[string][]string

func (s staticIndex) Candidates(key string) []string { return s[key] }

func TestFindOwner_IndexCandidatesVerifiedFirst(t *testing.T) {
	v := newTestVault(t, map[string]string{
		"stale.md": "no image here\n",
		"real.md":  "![[cat.png]]\n",
	})
	v.SetIndex(staticIndex{"cat.png": {"stale.md", "real.md"}})

	rel, err := v.FindOwner(context.Background(), "cat.png")
	require.NoError(t, err)
	require.Equal(t, "real.md", rel)
}
