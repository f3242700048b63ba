// Package provenance attaches a (file, line, column, length) source range
// to every AST/HIR node for diagnostics, grounded on the teacher compiler's
// lexer.Position but carrying an explicit Length so tooling can answer a
// "does this range contain this cursor" query without re-lexing.
package provenance

import (
	"golang.org/x/text/width"

	"github.com/brick-lang/brickc/internal/ident"
)

// Position is a 1-indexed line/column pair.
type Position struct {
	Line   int
	Column int
}

// Range is the provenance carried by every AST and HIR node. Length is
// measured in display columns on Start.Line, consistent with Column.
type Range struct {
	File   ident.FileID
	Start  Position
	Length int
}

// Contains reports whether (line, col) falls within this range. Ranges
// never span multiple lines in this compiler (every token/expression
// provenance is computed against a single source line).
func (r Range) Contains(line, col int) bool {
	if line != r.Start.Line {
		return false
	}
	return col >= r.Start.Column && col < r.Start.Column+r.Length
}

// End returns the column one past the last column covered by this range.
func (r Range) End() int {
	return r.Start.Column + r.Length
}

// Merge combines two ranges from the same file into one spanning from the
// earlier start to the later end. The desugaring passes do not call it: a
// node they synthesize takes the provenance of the node it wraps or
// replaces.
func Merge(a, b Range) Range {
	if a.File != b.File {
		return a
	}
	start := a.Start
	end := a.End()
	if b.Start.Line < start.Line || (b.Start.Line == start.Line && b.Start.Column < start.Column) {
		start = b.Start
	}
	if bEnd := b.End(); bEnd > end {
		end = bEnd
	}
	return Range{File: a.File, Start: start, Length: end - start.Column}
}

// OfText builds a Range for a token/snippet starting at (line, col) in the
// given source line text. Display width (not byte or rune count) is used
// for Length so that wide characters (e.g. CJK identifiers in string
// literals) are accounted for consistently with how a terminal or editor
// would report the caret position.
func OfText(file ident.FileID, line, col int, text string) Range {
	n := 0
	for _, r := range text {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return Range{File: file, Start: Position{Line: line, Column: col}, Length: n}
}
