package cmd

import (
	"fmt"
	"os"

	"github.com/brick-lang/brickc/internal/errors"
	"github.com/brick-lang/brickc/internal/hir"
	"github.com/brick-lang/brickc/internal/ident"
	"github.com/brick-lang/brickc/internal/lir"
	"github.com/spf13/cobra"
)

var (
	buildJSON       bool
	buildYAML       bool
	buildDumpLayout bool
)

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Check, desugar, and linearize a Brick source file to LIR",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "print the lowered module as JSON")
	buildCmd.Flags().BoolVar(&buildYAML, "yaml", false, "print the lowered module as YAML")
	buildCmd.Flags().BoolVar(&buildDumpLayout, "dump-layout", false, "print the human-readable instruction listing")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(_ *cobra.Command, args []string) error {
	pf, dc, checkDiags, declDiags, err := checkFile(args[0])
	if err != nil {
		return err
	}
	if declDiags.HasErrors() {
		fmt.Fprint(os.Stderr, errors.FormatErrors(declDiags.Errors(), true))
		return fmt.Errorf("declaration resolution failed with %d error(s)", len(declDiags.Errors()))
	}
	if checkDiags.HasErrors() {
		fmt.Fprint(os.Stderr, errors.FormatErrors(checkDiags.Errors(), true))
		return fmt.Errorf("type checking failed with %d error(s)", len(checkDiags.Errors()))
	}

	varIDs := &ident.VariableIDAllocator{}
	hm := hir.Lower(dc, pf, varIDs)

	hirDiags := &errors.Diagnostics{}
	hir.Passes().RunAll(hm, hirDiags)
	if hirDiags.HasErrors() {
		fmt.Fprint(os.Stderr, errors.FormatErrors(hirDiags.Errors(), true))
		return fmt.Errorf("desugaring failed with %d error(s)", len(hirDiags.Errors()))
	}

	layouts := lir.BuildLayouts(dc)
	lm := lir.Lower(hm, layouts)

	switch {
	case buildJSON:
		out, err := lir.DumpJSON(lm)
		if err != nil {
			return fmt.Errorf("failed to render JSON: %w", err)
		}
		fmt.Println(string(out))
	case buildYAML:
		out, err := lir.DumpYAML(lm)
		if err != nil {
			return fmt.Errorf("failed to render YAML: %w", err)
		}
		fmt.Print(string(out))
	case buildDumpLayout:
		fmt.Print(lir.Dump(lm))
	default:
		fmt.Printf("ok: %d function(s) lowered\n", len(lm.Functions))
	}
	return nil
}
