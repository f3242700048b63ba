// Package cmd implements brickc's cobra command tree: check/build/version
// subcommands driving DeclarationContext → TypeChecker → desugar →
// linearize, grounded on the teacher's cmd/dwscript/cmd package
// (root.go's Version/GitCommit/BuildDate pattern, compile.go's
// read-file → phase-by-phase pipeline → errors.FormatErrors shape).
// Unlike the teacher, brickc never reimplements the lexer or parser
// itself (spec.md §6 leaves those an external collaborator): a real
// .brick file can only be compiled once a collab.Parser is injected via
// SetParser.
package cmd

import (
	"fmt"
	"os"

	"github.com/brick-lang/brickc/internal/collab"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags).
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// parser is the injected collab.Parser a real build wires in main.go;
// left nil here so check/build report a clear configuration error
// instead of silently doing nothing.
var parser collab.Parser

// SetParser injects the Parser check/build use to turn a .brick source
// file into an ast.ParsedFile. Tests call this with a fake backed by a
// hand-built ParsedFile instead of a real lexer/parser.
func SetParser(p collab.Parser) { parser = p }

var rootCmd = &cobra.Command{
	Use:   "brickc",
	Short: "Brick language compiler front end",
	Long: `brickc checks and lowers Brick source files through the
declaration context, type checker, HIR desugaring passes, and LIR
linearizer, printing diagnostics or a lowered-module dump.

brickc does not include its own lexer or parser: the "check"/"build"
commands require a collab.Parser to have been injected (see SetParser)
to turn source text into an AST.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
