package stack

import (
	"regexp"
	"strings"
	"unicode"
)

// Mode selects how block adjacency treats separator lines.
type Mode string

const (
	// ModeStrict requires image lines to be perfectly consecutive.
	ModeStrict Mode = "strict"
	// ModeLenient lets a block absorb ignorable lines (blank or
	// punctuation-only) between image lines.
	ModeLenient Mode = "lenient"
)

// The two accepted reference syntaxes are matched by independent patterns.
// A line qualifies when its trimmed form is exactly one reference and nothing
// else; mixed-content lines never participate in stacking.
var (
	// ![[name]] or ![[name|200]], with no ] inside the target.
	wikiEmbedPattern = regexp.MustCompile(`^!\[\[[^\]]+\]\](\|\d+)?$`)

	// ![alt](target), alt free of ], target free of ).
	inlineImagePattern = regexp.MustCompile(`^!\[[^\]]*\]\([^)]*\)$`)
)

// IsWikiEmbed reports whether the trimmed line is a wiki-style image embed.
func IsWikiEmbed(trimmed string) bool {
	return wikiEmbedPattern.MatchString(trimmed)
}

// IsInlineImage reports whether the trimmed line is an inline markdown image.
func IsInlineImage(trimmed string) bool {
	return inlineImagePattern.MatchString(trimmed)
}

// IsImageLine reports whether the line, after trimming surrounding whitespace,
// consists solely of a single image reference in either syntax.
func IsImageLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return IsWikiEmbed(trimmed) || IsInlineImage(trimmed)
}

// IsIgnorable reports whether the line carries no alphanumeric content and can
// act as a permeable separator between image lines in lenient mode.
func IsIgnorable(line string) bool {
	for _, r := range strings.TrimSpace(line) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// qualifies reports whether a line may belong to a contiguous block.
func qualifies(line string, mode Mode) bool {
	if IsImageLine(line) {
		return true
	}
	return mode == ModeLenient && IsIgnorable(line)
}
