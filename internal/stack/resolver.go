package stack

import (
	"errors"
	"fmt"
	"strings"
)

// TargetRef describes the image reference the host captured, typically from a
// hover or command event in the editor plugin. It is passed in explicitly; the
// engine never reads ambient hover state.
type TargetRef struct {
	// Locator is the raw reference URI as rendered (src attribute, wiki
	// target, remote URL, data URI or app:// asset URI).
	Locator string `json:"locator"`

	// Classes is the class list of the originating element. Only consulted to
	// detect excalidraw embeds, which carry their true reference in
	// FileSource rather than in Locator.
	Classes []string `json:"classes,omitempty"`

	// FileSource is the excalidraw side attribute (vault-relative path of the
	// drawing file).
	FileSource string `json:"fileSource,omitempty"`

	// Indent is the leading whitespace of the line being unstacked, captured
	// before trimming. Unused for stacking.
	Indent string `json:"indent,omitempty"`
}

// Scheme is the closed set of locator schemes the resolver understands.
type Scheme string

const (
	SchemeRemote     Scheme = "remote"
	SchemeData       Scheme = "data"
	SchemeExcalidraw Scheme = "excalidraw"
	SchemeApp        Scheme = "app"
	SchemePath       Scheme = "path"
)

// ErrUnresolvable is returned when no scheme can produce a usable search key.
// Callers must not apply any edit on this error.
var ErrUnresolvable = errors.New("unresolvable image reference")

// Classify performs the single ordered classification step that selects a
// scheme for the reference. Order matters: remote/data beat the excalidraw
// marker, which beats app:// decoration, which beats a bare path.
func Classify(ref TargetRef) (Scheme, error) {
	switch {
	case strings.HasPrefix(ref.Locator, "data:image/"):
		return SchemeData, nil
	case strings.Contains(ref.Locator, "http"):
		return SchemeRemote, nil
	case isExcalidrawEmbed(ref.Classes):
		return SchemeExcalidraw, nil
	case strings.Contains(ref.Locator, "app://"):
		return SchemeApp, nil
	case ref.Locator != "":
		return SchemePath, nil
	default:
		return "", fmt.Errorf("%w: empty locator and no excalidraw source", ErrUnresolvable)
	}
}

// SearchKey derives the identifying substring that must appear verbatim inside
// the target image line. One resolver per scheme.
func SearchKey(ref TargetRef) (string, error) {
	scheme, err := Classify(ref)
	if err != nil {
		return "", err
	}
	switch scheme {
	case SchemeRemote, SchemeData:
		return ref.Locator, nil
	case SchemeExcalidraw:
		return excalidrawKey(ref)
	case SchemeApp:
		return appAssetName(ref.Locator), nil
	case SchemePath:
		return ref.Locator, nil
	}
	return "", fmt.Errorf("%w: scheme %q", ErrUnresolvable, scheme)
}

// LocalName extracts the bare local file name for a reference. It shares the
// scheme dispatch with SearchKey and feeds the daemon's vault index; remote and
// data references are identified by their full locator.
func LocalName(ref TargetRef) (string, error) {
	scheme, err := Classify(ref)
	if err != nil {
		return "", err
	}
	switch scheme {
	case SchemeRemote, SchemeData:
		return ref.Locator, nil
	case SchemeExcalidraw:
		return excalidrawKey(ref)
	case SchemeApp:
		return appAssetName(ref.Locator), nil
	case SchemePath:
		return baseName(ref.Locator), nil
	}
	return "", fmt.Errorf("%w: scheme %q", ErrUnresolvable, scheme)
}

// isExcalidrawEmbed detects the embed marker class, e.g. "excalidraw-svg-embed".
func isExcalidrawEmbed(classes []string) bool {
	for _, c := range classes {
		if strings.Contains(c, "excalidraw") && strings.Contains(c, "embed") {
			return true
		}
	}
	return false
}

// excalidrawKey recovers the drawing name from the side attribute:
// "drawings/cat.excalidraw.md" -> "cat.excalidraw". The visible locator of an
// excalidraw embed is a generated SVG and useless as a key.
func excalidrawKey(ref TargetRef) (string, error) {
	src := ref.FileSource
	if len(src) <= 3 {
		return "", fmt.Errorf("%w: excalidraw embed without filesource", ErrUnresolvable)
	}
	src = src[:len(src)-3] // trailing ".md"
	return baseName(src), nil
}

// appAssetName strips the app:// scheme, vault host and query decoration from
// an internal asset URI: "app://vault-id/images/cat.png?ext=png" -> "cat.png".
func appAssetName(locator string) string {
	name := locator
	if q := strings.IndexByte(name, '?'); q >= 0 {
		name = name[:q]
	}
	return baseName(name)
}

func baseName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}
