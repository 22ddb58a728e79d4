package stack

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/imgstack/internal/frontmatter"
)

// Op names a transform direction.
type Op string

const (
	OpStack   Op = "stack"
	OpUnstack Op = "unstack"
)

// Apply runs one transform against a full document. It splits off frontmatter,
// rewrites the body lines, and reattaches the frontmatter untouched. The
// returned bool reports whether anything changed; when false the returned text
// is the input, byte for byte.
//
// Apply is deterministic and free of side effects, so the vault may invoke it
// repeatedly inside its read-modify-write retry loop.
func Apply(content string, op Op, ref TargetRef, mode Mode) (string, bool, error) {
	key, err := SearchKey(ref)
	if err != nil {
		return content, false, err
	}

	front, body, style := frontmatter.Split([]byte(content))
	lines := SplitLines(string(body))

	var out []string
	var changed bool
	switch op {
	case OpStack:
		out, changed = Stack(lines, key, mode)
	case OpUnstack:
		out, changed = Unstack(lines, key, ref.Indent, mode)
	default:
		return content, false, fmt.Errorf("unknown transform op %q", op)
	}
	if !changed {
		return content, false, nil
	}

	rebuilt := frontmatter.Join(front, []byte(strings.Join(out, style.Newline)))
	return string(rebuilt), true, nil
}
