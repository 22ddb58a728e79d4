package stack

import "strings"

// Block is an inclusive line-index range [Start, End] within a body.
type Block struct {
	Start int
	End   int
}

// SplitLines splits a body into lines, accepting both bare and
// carriage-return-prefixed line breaks. The caller rejoins with the document's
// detected newline flavor.
func SplitLines(body string) []string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// LocateBlock finds the maximal contiguous run of qualifying lines around the
// first line that contains key as a substring and is itself an image line.
//
// The first matching line wins when the key appears on several lines; the
// engine receives only a key, not a cursor position, so document order is the
// only sensible tie-break. A miss is not an error: the target may be a
// mixed-content line, which is deliberately excluded from stacking.
func LocateBlock(lines []string, key string, mode Mode) (Block, bool) {
	anchor := -1
	for i, line := range lines {
		if strings.Contains(line, key) && IsImageLine(line) {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return Block{}, false
	}

	start, end := anchor, anchor
	for start > 0 && qualifies(lines[start-1], mode) {
		start--
	}
	for end < len(lines)-1 && qualifies(lines[end+1], mode) {
		end++
	}
	return Block{Start: start, End: end}, true
}
