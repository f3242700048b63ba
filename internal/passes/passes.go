// Package passes provides a generic ordered-pass runner, grounded on the
// original compiler's semantic.Pass/PassManager: a pass reads and writes
// a shared module value, collects diagnostics rather than returning
// them, and the manager stops early once a fatal diagnostic appears. The
// original's Pass/PassManager pair was concrete over *ast.Program; this
// version is generic over the module type M so it can drive both the
// HIR's desugaring pipeline and, if needed, any other ordered-pass stage
// without a parallel copy of the runner.
package passes

import "github.com/brick-lang/brickc/internal/errors"

// Pass is a single ordered transformation or check over a module value.
// A pass should only annotate or rewrite the module it is given and
// record any source-level problems into diags. Run has no error result: a
// condition that makes continuing pointless is recorded with diags.Fatal,
// which makes Manager.RunAll stop before the next pass.
type Pass[M any] interface {
	Name() string
	Run(module M, diags *errors.Diagnostics)
}

// Manager runs a fixed ordered list of passes against one module value,
// stopping as soon as a pass leaves diags in a fatal state.
type Manager[M any] struct {
	passes []Pass[M]
}

// NewManager creates a Manager running passes in the given order.
func NewManager[M any](passes ...Pass[M]) *Manager[M] {
	return &Manager[M]{passes: passes}
}

// Add appends a pass, to run after every pass already registered.
func (m *Manager[M]) Add(p Pass[M]) {
	m.passes = append(m.passes, p)
}

// Passes returns the registered passes in run order.
func (m *Manager[M]) Passes() []Pass[M] {
	return m.passes
}

// RunAll runs every registered pass in order against module, stopping
// early once diags.HasFatal reports true.
func (m *Manager[M]) RunAll(module M, diags *errors.Diagnostics) {
	for _, p := range m.passes {
		p.Run(module, diags)
		if diags.HasFatal() {
			return
		}
	}
}

// Func adapts a plain function into a Pass, for passes with no state of
// their own worth a named type.
type Func[M any] struct {
	PassName string
	Fn       func(module M, diags *errors.Diagnostics)
}

func (f Func[M]) Name() string { return f.PassName }

func (f Func[M]) Run(module M, diags *errors.Diagnostics) { f.Fn(module, diags) }
