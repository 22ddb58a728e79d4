// Package stack implements the image-embed stacking engine: classifying
// image-reference lines, resolving a locator into a search key, locating the
// contiguous block of image lines around a reference, and the stack/unstack
// text transforms.
//
// The engine operates on raw body lines (frontmatter already removed) and is a
// pure function of its inputs: no I/O, no state between calls. That makes every
// transform safe to run inside the vault's read-modify-write primitive, which
// may retry it on write conflicts.
package stack
