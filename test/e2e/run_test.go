package e2e

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/golden"

	"github.com/you-not-fish/dessa/internal/ir"
	"github.com/you-not-fish/dessa/internal/irtext"
	"github.com/you-not-fish/dessa/internal/ssa"
	"github.com/you-not-fish/dessa/internal/ssa/passes"
)

// TestE2E runs end-to-end tests for all .ir files in testdata/.
// Each test:
//  1. Parses the file and constructs SSA form
//  2. Runs the default pipeline with validation after every pass
//  3. Compares the printed procedures against the .golden file (rewrite
//     with -update)
//  4. Parses the output again and checks that it is valid SSA that
//     prints identically
func TestE2E(t *testing.T) {
	testFiles, err := filepath.Glob("testdata/*.ir")
	if err != nil {
		t.Fatal(err)
	}
	if len(testFiles) == 0 {
		t.Fatal("no .ir test files found in testdata/")
	}

	for _, testFile := range testFiles {
		name := strings.TrimSuffix(filepath.Base(testFile), ".ir")
		t.Run(name, func(t *testing.T) {
			runE2ETest(t, testFile, name+".golden")
		})
	}
}

func runE2ETest(t *testing.T, irFile, goldenFile string) {
	t.Helper()

	procs, err := irtext.ParseFile(irFile)
	assert.NilError(t, err)

	pipeline, err := passes.Pipeline(passes.DefaultPipeline)
	assert.NilError(t, err)

	var sb strings.Builder
	for i, p := range procs {
		st, err := passes.Construct(p)
		assert.NilError(t, err)
		assert.NilError(t, passes.Run(st, pipeline, passes.Config{Validate: true}))
		if i > 0 {
			sb.WriteString("\n")
		}
		ir.Fprint(&sb, p)
	}
	got := sb.String()

	golden.Assert(t, got, goldenFile)

	again, err := irtext.Parse(irFile+".out", strings.NewReader(got), nil)
	assert.NilError(t, err)
	var sb2 strings.Builder
	for i, p := range again {
		st := ssa.Track(p)
		assert.NilError(t, st.Check())
		if i > 0 {
			sb2.WriteString("\n")
		}
		ir.Fprint(&sb2, p)
	}
	if diff := cmp.Diff(got, sb2.String()); diff != "" {
		t.Errorf("reparsed output differs (-want +got):\n%s", diff)
	}
}
