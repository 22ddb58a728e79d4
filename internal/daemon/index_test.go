package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/imgstack/internal/vault"
)

func writeVault(t *testing.T, files map[string]string) *vault.Vault {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	v, err := vault.New(root)
	require.NoError(t, err)
	return v
}

func TestIndexBuild_TracksNotesWithImages(t *testing.T) {
	v := writeVault(t, map[string]string{
		"gallery.md":  "![[cat.png]]\n![alt](images/dog.png)\n",
		"plain.md":    "no images here\n",
		"nested/x.md": "![[bird.png|200]]\n",
	})
	ix := NewIndex()

	require.NoError(t, ix.Build(context.Background(), v))
	require.Equal(t, 2, ix.Len())

	require.Contains(t, ix.Candidates("cat.png"), "gallery.md")
	require.Contains(t, ix.Candidates("dog.png"), "gallery.md")
	require.Contains(t, ix.Candidates("bird.png"), filepath.Join("nested", "x.md"))
	require.Empty(t, ix.Candidates("absent.png"))
}

func TestIndex_FrontmatterOptOut_SkipsNote(t *testing.T) {
	v := writeVault(t, map[string]string{
		"ignored.md": "---\nimgstack: ignore\n---\n![[cat.png]]\n",
		"normal.md":  "![[cat.png]]\n",
	})
	ix := NewIndex()

	require.NoError(t, ix.Build(context.Background(), v))
	require.Equal(t, []string{"normal.md"}, ix.Candidates("cat.png"))
}

func TestIndex_ScanNote_RefreshesEntry(t *testing.T) {
	v := writeVault(t, map[string]string{"a.md": "![[cat.png]]\n"})
	ix := NewIndex()
	require.NoError(t, ix.Build(context.Background(), v))
	require.NotEmpty(t, ix.Candidates("cat.png"))

	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), "a.md"), []byte("prose only\n"), 0o600))
	ix.ScanNote(v, "a.md")
	require.Empty(t, ix.Candidates("cat.png"))
	require.Equal(t, 0, ix.Len())
}

func TestIndex_Candidates_MatchesKeySubstrings(t *testing.T) {
	ix := NewIndex()
	v := writeVault(t, map[string]string{"a.md": "![[cat.png]]\n"})
	require.NoError(t, ix.Build(context.Background(), v))

	// App-scheme keys reduce to the bare name; remote keys embed the name.
	require.Contains(t, ix.Candidates("cat.png"), "a.md")
	require.Contains(t, ix.Candidates("https://host/cat.png"), "a.md")
}
