package stack

import "strings"

// Stack merges the contiguous block around key into a single line holding the
// block's image references, space-separated, in original top-to-bottom order.
// Ignorable separator lines absorbed in lenient mode are dropped, not encoded;
// Unstack cannot reconstruct them. The merged line keeps no leading
// indentation. Stacking a block of one is idempotent.
//
// The second return reports whether the lines were modified.
func Stack(lines []string, key string, mode Mode) ([]string, bool) {
	block, ok := LocateBlock(lines, key, mode)
	if !ok {
		return lines, false
	}

	refs := make([]string, 0, block.End-block.Start+1)
	for i := block.Start; i <= block.End; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || !IsImageLine(trimmed) {
			continue
		}
		refs = append(refs, trimmed)
	}
	merged := strings.Join(refs, " ")

	if block.Start == block.End && lines[block.Start] == merged {
		return lines, false
	}

	out := make([]string, 0, len(lines)-(block.End-block.Start))
	out = append(out, lines[:block.Start]...)
	out = append(out, merged)
	out = append(out, lines[block.End+1:]...)
	return out, true
}

// Unstack expands the line matched by key into one line per reference, each
// re-prefixed with indent (the line's original leading whitespace, captured by
// the host before trimming). References keep their left-to-right order.
func Unstack(lines []string, key, indent string, mode Mode) ([]string, bool) {
	anchor := -1
	for i, line := range lines {
		if strings.Contains(line, key) && IsStackedLine(line) {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return lines, false
	}

	refs := SplitRefs(strings.TrimSpace(lines[anchor]))
	if len(refs) <= 1 {
		return lines, false
	}

	out := make([]string, 0, len(lines)+len(refs)-1)
	out = append(out, lines[:anchor]...)
	for _, ref := range refs {
		out = append(out, indent+ref)
	}
	out = append(out, lines[anchor+1:]...)
	return out, true
}

// StackAll merges every run of two or more adjacent image lines in the body.
// Used by the daemon's normalize sweep; interactive stacking goes through
// Stack, which is anchored to a specific reference. Returns the number of
// blocks merged.
func StackAll(lines []string, mode Mode) ([]string, int) {
	out := make([]string, 0, len(lines))
	merged := 0

	for i := 0; i < len(lines); {
		if !IsImageLine(lines[i]) {
			out = append(out, lines[i])
			i++
			continue
		}

		end := i
		for end < len(lines)-1 && qualifies(lines[end+1], mode) {
			end++
		}
		// Lenient growth may trail off into ignorable lines; pull the end back
		// to the last actual image line.
		for end > i && !IsImageLine(lines[end]) {
			end--
		}

		refs := make([]string, 0, end-i+1)
		for j := i; j <= end; j++ {
			if trimmed := strings.TrimSpace(lines[j]); IsImageLine(trimmed) {
				refs = append(refs, trimmed)
			}
		}
		if len(refs) < 2 {
			out = append(out, lines[i])
			i++
			continue
		}

		out = append(out, strings.Join(refs, " "))
		merged++
		i = end + 1
	}

	return out, merged
}

// IsStackedLine reports whether the line is entirely composed of one or more
// space-separated image references. Unlike IsImageLine it accepts merged
// lines, which is what Unstack targets.
func IsStackedLine(line string) bool {
	refs := SplitRefs(strings.TrimSpace(line))
	if len(refs) == 0 {
		return false
	}
	for _, ref := range refs {
		if !IsImageLine(ref) {
			return false
		}
	}
	return true
}

// SplitRefs splits a merged line into its individual image references by
// scanning for reference starts under the two accepted syntaxes. Wiki embeds
// never contain unescaped whitespace; inline locators produced by the host are
// assumed space-free. A locator with an encoded space is undefined behavior
// upstream and is not repaired here.
func SplitRefs(merged string) []string {
	refs := make([]string, 0, 2)
	for _, field := range strings.Fields(merged) {
		if len(refs) > 0 && !strings.HasPrefix(field, "![") {
			// Continuation of a malformed reference; glue it back.
			refs[len(refs)-1] += " " + field
			continue
		}
		refs = append(refs, field)
	}
	return refs
}
