package cmd

import (
	"testing"
)

func TestRunBuildProducesLoweredModule(t *testing.T) {
	old := parser
	parser = fakeParser{build: buildAddFile}
	defer func() { parser = old }()

	path := writeTempBrick(t, "fn add(a: int32, b: int32) int32 { return a + b; }")

	for _, tc := range []struct {
		name string
		set  func()
	}{
		{"plain", func() { buildJSON, buildYAML, buildDumpLayout = false, false, false }},
		{"json", func() { buildJSON, buildYAML, buildDumpLayout = true, false, false }},
		{"yaml", func() { buildJSON, buildYAML, buildDumpLayout = false, true, false }},
		{"dump-layout", func() { buildJSON, buildYAML, buildDumpLayout = false, false, true }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tc.set()
			defer func() { buildJSON, buildYAML, buildDumpLayout = false, false, false }()
			if err := runBuild(buildCmd, []string{path}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRunBuildFailsWithoutParser(t *testing.T) {
	old := parser
	parser = nil
	defer func() { parser = old }()

	path := writeTempBrick(t, "fn add(a: int32, b: int32) int32 { return a + b; }")
	if err := runBuild(buildCmd, []string{path}); err == nil {
		t.Fatal("expected an error when no parser is configured")
	}
}
