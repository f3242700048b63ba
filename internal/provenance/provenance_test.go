package provenance

import (
	"testing"

	"github.com/brick-lang/brickc/internal/ident"
)

func TestRangeContains(t *testing.T) {
	r := Range{File: 1, Start: Position{Line: 5, Column: 3}, Length: 4}

	cases := []struct {
		line, col int
		want      bool
	}{
		{5, 3, true},
		{5, 6, true},
		{5, 7, false},
		{5, 2, false},
		{4, 3, false},
	}

	for _, c := range cases {
		if got := r.Contains(c.line, c.col); got != c.want {
			t.Errorf("Contains(%d,%d) = %v, want %v", c.line, c.col, got, c.want)
		}
	}
}

func TestMergeSpansBothRanges(t *testing.T) {
	a := Range{File: 1, Start: Position{Line: 1, Column: 5}, Length: 3}  // [5,8)
	b := Range{File: 1, Start: Position{Line: 1, Column: 10}, Length: 2} // [10,12)

	merged := Merge(a, b)
	if merged.Start.Column != 5 || merged.End() != 12 {
		t.Fatalf("Merge produced %+v, want start=5 end=12", merged)
	}
}

func TestMergeDifferentFilesReturnsFirst(t *testing.T) {
	a := Range{File: 1, Start: Position{Line: 1, Column: 1}, Length: 1}
	b := Range{File: 2, Start: Position{Line: 1, Column: 1}, Length: 1}
	if got := Merge(a, b); got != a {
		t.Fatalf("Merge across files = %+v, want %+v", got, a)
	}
}

func TestOfTextWideCharactersCountDouble(t *testing.T) {
	r := OfText(ident.FileID(0), 1, 1, "ab")
	if r.Length != 2 {
		t.Fatalf("ascii length = %d, want 2", r.Length)
	}
	wide := OfText(ident.FileID(0), 1, 1, "あい") // two full-width hiragana
	if wide.Length != 4 {
		t.Fatalf("wide length = %d, want 4", wide.Length)
	}
}
