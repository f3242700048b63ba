// Command brickc is the Brick language compiler front end's CLI: its
// check/build subcommands drive the declaration context, type checker,
// HIR desugaring passes, and LIR linearizer against a .brick source
// file parsed by whatever collab.Parser is wired in below.
package main

import (
	"os"

	"github.com/brick-lang/brickc/cmd/brickc/cmd"
)

func main() {
	// No lexer/parser implementation ships in this module (spec.md §6):
	// cmd.SetParser is left uncalled here, so check/build report a clear
	// configuration error rather than silently doing nothing. A real
	// deployment wires a concrete collab.Parser in before cmd.Execute.
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
