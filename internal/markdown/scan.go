// Package markdown provides read-only analysis of note bodies: enumerating
// image references and the standalone image lines the stacking engine can act
// on. It never rewrites markdown; edits stay line-based in the engine.
package markdown

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/imgstack/internal/stack"
)

// RefKind distinguishes the two accepted reference syntaxes.
type RefKind string

const (
	RefKindInline RefKind = "inline"
	RefKindWiki   RefKind = "wiki"
)

// ImageRef is one image reference discovered in a body.
type ImageRef struct {
	Kind    RefKind
	Locator string
}

// StackableBlock is a run of consecutive standalone image lines that the
// engine would merge.
type StackableBlock struct {
	// StartLine is 1-based, for reporting.
	StartLine int
	Refs      []string
}

// ExtractImages parses a body and returns every image reference: inline images
// via the Goldmark AST, wiki embeds via a permissive line pass (Goldmark
// follows CommonMark and does not know the `![[...]]` syntax).
func ExtractImages(body []byte) []ImageRef {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	refs := make([]ImageRef, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if img, ok := n.(*gmast.Image); ok {
			refs = append(refs, ImageRef{Kind: RefKindInline, Locator: string(img.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	refs = append(refs, extractWikiEmbeds(body)...)
	return refs
}

var wikiEmbedScan = regexp.MustCompile(`!\[\[([^\]|]+)(?:\|\d+)?\]\]`)

// extractWikiEmbeds finds `![[target]]` embeds anywhere in the body, skipping
// fenced code blocks.
func extractWikiEmbeds(body []byte) []ImageRef {
	refs := make([]ImageRef, 0)
	inFence := false
	for _, line := range stack.SplitLines(string(body)) {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		for _, m := range wikiEmbedScan.FindAllStringSubmatch(line, -1) {
			refs = append(refs, ImageRef{Kind: RefKindWiki, Locator: m[1]})
		}
	}
	return refs
}

// StackableBlocks returns the runs of two or more adjacent standalone image
// lines in a body, the candidates `imgstack scan` reports.
func StackableBlocks(body string, mode stack.Mode) []StackableBlock {
	lines := stack.SplitLines(body)
	blocks := make([]StackableBlock, 0)

	for i := 0; i < len(lines); {
		if !stack.IsImageLine(lines[i]) {
			i++
			continue
		}

		refs := []string{strings.TrimSpace(lines[i])}
		end := i
		for j := i + 1; j < len(lines); j++ {
			if stack.IsImageLine(lines[j]) {
				refs = append(refs, strings.TrimSpace(lines[j]))
				end = j
				continue
			}
			if mode == stack.ModeLenient && stack.IsIgnorable(lines[j]) {
				continue
			}
			break
		}

		if len(refs) >= 2 {
			blocks = append(blocks, StackableBlock{StartLine: i + 1, Refs: refs})
		}
		i = end + 1
	}
	return blocks
}
