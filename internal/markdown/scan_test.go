package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/imgstack/internal/stack"
)

func TestExtractImages_InlineAndWiki(t *testing.T) {
	body := []byte("# Gallery\n\n![alt](images/cat.png)\n\n![[dog.png]]\nprose with ![[bird.png|200]] inline\n")

	refs := ExtractImages(body)

	locators := make(map[RefKind][]string)
	for _, r := range refs {
		locators[r.Kind] = append(locators[r.Kind], r.Locator)
	}
	require.Equal(t, []string{"images/cat.png"}, locators[RefKindInline])
	require.Equal(t, []string{"dog.png", "bird.png"}, locators[RefKindWiki])
}

func TestExtractImages_SkipsFencedCodeBlocks(t *testing.T) {
	body := []byte("```\n![[ignored.png]]\n```\n![[kept.png]]\n")

	refs := ExtractImages(body)

	var wiki []string
	for _, r := range refs {
		if r.Kind == RefKindWiki {
			wiki = append(wiki, r.Locator)
		}
	}
	require.Equal(t, []string{"kept.png"}, wiki)
}

func TestStackableBlocks_ReportsRunsOfTwoOrMore(t *testing.T) {
	body := "intro\n![[a.png]]\n![[b.png]]\ntext\n![[c.png]]\n"

	blocks := StackableBlocks(body, stack.ModeStrict)
	require.Len(t, blocks, 1)
	require.Equal(t, 2, blocks[0].StartLine)
	require.Equal(t, []string{"![[a.png]]", "![[b.png]]"}, blocks[0].Refs)
}

func TestStackableBlocks_LenientBridgesBlankLines(t *testing.T) {
	body := "![[a.png]]\n\n![[b.png]]\n"

	require.Empty(t, StackableBlocks(body, stack.ModeStrict))

	blocks := StackableBlocks(body, stack.ModeLenient)
	require.Len(t, blocks, 1)
	require.Equal(t, []string{"![[a.png]]", "![[b.png]]"}, blocks[0].Refs)
}
