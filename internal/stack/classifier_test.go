package stack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsWikiEmbed_AcceptsPlainAndSizedEmbeds(t *testing.T) {
	require.True(t, IsWikiEmbed("![[cat.png]]"))
	require.True(t, IsWikiEmbed("![[drawings/cat.excalidraw.md]]"))
	require.True(t, IsWikiEmbed("![[cat.png|200]]"))
	require.True(t, IsWikiEmbed("![[cat.png]]|200"))
}

func TestIsWikiEmbed_RejectsMalformedEmbeds(t *testing.T) {
	require.False(t, IsWikiEmbed("![[]]"))
	require.False(t, IsWikiEmbed("![[a]b.png]]"))
	require.False(t, IsWikiEmbed("![[cat.png]] trailing prose"))
	require.False(t, IsWikiEmbed("[[cat.png]]"), "plain wikilink is not an embed")
}

func TestIsInlineImage_AcceptsInlineSyntax(t *testing.T) {
	require.True(t, IsInlineImage("![alt text](images/cat.png)"))
	require.True(t, IsInlineImage("![](https://x/y.png)"))
}

func TestIsInlineImage_RejectsMixedContent(t *testing.T) {
	require.False(t, IsInlineImage("see ![alt](cat.png)"))
	require.False(t, IsInlineImage("![alt](cat.png) and more"))
	require.False(t, IsInlineImage("[alt](cat.png)"), "link is not an image")
}

func TestIsImageLine_TrimsSurroundingWhitespace(t *testing.T) {
	require.True(t, IsImageLine("   ![[cat.png]]  "))
	require.True(t, IsImageLine("\t![alt](cat.png)"))
	require.False(t, IsImageLine("pic1.png"))
	require.False(t, IsImageLine(""))
}

func TestIsImageLine_RejectsMultipleReferences(t *testing.T) {
	require.False(t, IsImageLine("![[a.png]] ![[b.png]]"))
}

func TestIsIgnorable_BlankAndPunctuationOnly(t *testing.T) {
	require.True(t, IsIgnorable(""))
	require.True(t, IsIgnorable("   "))
	require.True(t, IsIgnorable("-"))
	require.True(t, IsIgnorable("* * *"))
	require.False(t, IsIgnorable("text"))
	require.False(t, IsIgnorable("- item 1"))
}
