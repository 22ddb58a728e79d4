package stack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStack_MergesAdjacentImageLines(t *testing.T) {
	lines := []string{"pic1.png", "![[a.png]]", "![[b.png]]", "text"}

	out, changed := Stack(lines, "a.png", ModeStrict)
	require.True(t, changed)
	require.Equal(t, []string{"pic1.png", "![[a.png]] ![[b.png]]", "text"}, out)
}

func TestStack_NoQualifyingLine_ReturnsInputUnchanged(t *testing.T) {
	lines := []string{"prose mentioning a.png", "more prose"}

	out, changed := Stack(lines, "a.png", ModeStrict)
	require.False(t, changed)
	require.Equal(t, lines, out)
}

func TestStack_SingleStandaloneLine_IsIdempotent(t *testing.T) {
	lines := []string{"text", "![[a.png]]", "text"}

	out, changed := Stack(lines, "a.png", ModeStrict)
	require.False(t, changed)
	require.Equal(t, lines, out)

	// An indented single reference is still normalized to its trimmed form.
	out, changed = Stack([]string{"  ![[a.png]]"}, "a.png", ModeStrict)
	require.True(t, changed)
	require.Equal(t, []string{"![[a.png]]"}, out)
}

func TestStack_LenientDropsSeparatorBetweenImages(t *testing.T) {
	lines := []string{"![[a.png]]", "", "![[b.png]]"}

	out, changed := Stack(lines, "a.png", ModeLenient)
	require.True(t, changed)
	require.Equal(t, []string{"![[a.png]] ![[b.png]]"}, out)
}

func TestStack_PreservesOriginalOrder(t *testing.T) {
	lines := []string{"![[c.png]]", "![[a.png]]", "![[b.png]]"}

	out, changed := Stack(lines, "b.png", ModeStrict)
	require.True(t, changed)
	require.Equal(t, []string{"![[c.png]] ![[a.png]] ![[b.png]]"}, out)
}

func TestStack_ActsOnFirstKeyOccurrenceOnly(t *testing.T) {
	lines := []string{"![[a.png]]", "text", "![[a.png]]", "![[b.png]]"}

	out, changed := Stack(lines, "a.png", ModeStrict)
	require.False(t, changed, "first occurrence is already a single-line block")
	require.Equal(t, lines, out)
}

func TestUnstack_ExpandsMergedLineWithIndent(t *testing.T) {
	lines := []string{"text", "  ![[a.png]] ![[b.png]]", "text"}

	out, changed := Unstack(lines, "a.png", "  ", ModeStrict)
	require.True(t, changed)
	require.Equal(t, []string{"text", "  ![[a.png]]", "  ![[b.png]]", "text"}, out)
}

func TestUnstack_SingleReference_NoOp(t *testing.T) {
	lines := []string{"![[a.png]]"}

	out, changed := Unstack(lines, "a.png", "", ModeStrict)
	require.False(t, changed)
	require.Equal(t, lines, out)
}

func TestStackThenUnstack_RoundTripsStrictBlock(t *testing.T) {
	orig := []string{"intro", "![[a.png]]", "![[b.png]]", "![[c.png]]", "outro"}

	stacked, changed := Stack(append([]string(nil), orig...), "b.png", ModeStrict)
	require.True(t, changed)

	out, changed := Unstack(stacked, "b.png", "", ModeStrict)
	require.True(t, changed)
	require.Equal(t, orig, out)
}

func TestSplitRefs_MixedSyntaxes(t *testing.T) {
	refs := SplitRefs("![[a.png]] ![alt](b.png) ![[c.png|200]]")
	require.Equal(t, []string{"![[a.png]]", "![alt](b.png)", "![[c.png|200]]"}, refs)
}

func TestStackAll_MergesEveryRun(t *testing.T) {
	lines := []string{
		"# Gallery",
		"![[a.png]]",
		"![[b.png]]",
		"text",
		"![[c.png]]",
		"![[d.png]]",
		"![[e.png]]",
	}

	out, merged := StackAll(lines, ModeStrict)
	require.Equal(t, 2, merged)
	require.Equal(t, []string{
		"# Gallery",
		"![[a.png]] ![[b.png]]",
		"text",
		"![[c.png]] ![[d.png]] ![[e.png]]",
	}, out)
}

func TestStackAll_AlreadyMerged_NoChanges(t *testing.T) {
	lines := []string{"![[a.png]] ![[b.png]]", "text"}

	out, merged := StackAll(lines, ModeStrict)
	require.Equal(t, 0, merged)
	require.Equal(t, lines, out)
}

func TestStackAll_LenientDoesNotEatTrailingSeparators(t *testing.T) {
	lines := []string{"![[a.png]]", "![[b.png]]", "", "text"}

	out, merged := StackAll(lines, ModeLenient)
	require.Equal(t, 1, merged)
	require.Equal(t, []string{"![[a.png]] ![[b.png]]", "", "text"}, out)
}
