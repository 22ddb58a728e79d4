// Package frontmatter isolates the YAML frontmatter block of a note so that
// body transforms never touch it. The block is carried verbatim, delimiters
// and trailing line breaks included, and reattached by plain concatenation.
package frontmatter

import (
	"regexp"

	"gopkg.in/yaml.v3"
)

// Style captures the newline flavor of a document so body lines can be
// rejoined without changing line-break style.
type Style struct {
	Newline string
}

// A leading fence: optional whitespace, ---, non-greedy content, closing ---
// at line start, then any trailing line breaks are consumed into the block.
var fencePattern = regexp.MustCompile(`(?s)^\s*---[ \t]*\r?\n(?:.*?\r?\n)??---[ \t]*(?:\r?\n)*`)

// Split separates a leading YAML frontmatter block from the body.
//
// The returned front slice is the verbatim prefix including both delimiters;
// joining is front + body with no further processing. A document that opens
// with a fence but never closes it is treated as having no frontmatter rather
// than rejected: the body transform must stay usable on half-written notes.
func Split(content []byte) (front, body []byte, style Style) {
	style = detectStyle(content)

	loc := fencePattern.FindIndex(content)
	if loc == nil {
		return nil, content, style
	}
	return content[:loc[1]], content[loc[1]:], style
}

// Join reattaches a frontmatter block to a transformed body.
func Join(front, body []byte) []byte {
	if len(front) == 0 {
		return body
	}
	out := make([]byte, 0, len(front)+len(body))
	out = append(out, front...)
	out = append(out, body...)
	return out
}

// ParseYAML parses the inner YAML of a verbatim frontmatter block into a map.
// Used for per-note settings such as the stacking opt-out flag.
func ParseYAML(front []byte) (map[string]any, error) {
	inner := innerYAML(front)
	if len(inner) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(inner, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

var delimiterLine = regexp.MustCompile(`(?m)^---[ \t]*\r?\n?`)

// innerYAML strips the fence delimiters from a verbatim block.
func innerYAML(front []byte) []byte {
	locs := delimiterLine.FindAllIndex(front, 2)
	if len(locs) < 2 {
		return nil
	}
	return front[locs[0][1]:locs[1][0]]
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}
	return Style{Newline: newline}
}
