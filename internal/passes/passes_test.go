package passes

import (
	"testing"

	"github.com/brick-lang/brickc/internal/errors"
	"github.com/brick-lang/brickc/internal/provenance"
)

type counter struct{ n int }

type incPass struct{ by int }

func (incPass) Name() string { return "inc" }

func (p incPass) Run(c *counter, diags *errors.Diagnostics) { c.n += p.by }

func TestRunAllAppliesPassesInOrder(t *testing.T) {
	m := NewManager[*counter](incPass{by: 1}, incPass{by: 10})
	c := &counter{}
	var diags errors.Diagnostics
	m.RunAll(c, &diags)

	if c.n != 11 {
		t.Fatalf("expected 11, got %d", c.n)
	}
}

func TestRunAllStopsOnFatal(t *testing.T) {
	fatalPass := Func[*counter]{PassName: "fatal", Fn: func(c *counter, diags *errors.Diagnostics) {
		diags.Fatal(errors.NewCompilerError(errors.InternalError, provenance.Range{}, "boom", "", ""))
	}}
	m := NewManager[*counter](fatalPass, incPass{by: 5})
	c := &counter{}
	var diags errors.Diagnostics
	m.RunAll(c, &diags)

	if c.n != 0 {
		t.Fatalf("expected pass after fatal to be skipped, got n=%d", c.n)
	}
	if !diags.HasFatal() {
		t.Fatal("expected HasFatal true")
	}
}

func TestAddAppendsPass(t *testing.T) {
	m := NewManager[*counter]()
	m.Add(incPass{by: 2})
	m.Add(incPass{by: 3})
	if len(m.Passes()) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(m.Passes()))
	}
}
