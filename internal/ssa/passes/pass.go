// Package passes runs transformations over the SSA form of a procedure.
// Every pass keeps the identifier table of the ssa.State consistent with
// the statements it edits.
package passes

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/you-not-fish/dessa/internal/ir"
	"github.com/you-not-fish/dessa/internal/ssa"
)

// Pass describes a single SSA pass.
type Pass struct {
	Name string
	Fn   func(st *ssa.State)
}

// Config controls pass execution behavior.
type Config struct {
	DumpBefore string    // dump SSA before this pass ("*" for all)
	DumpAfter  string    // dump SSA after this pass ("*" for all)
	Validate   bool      // verify the CFG and validate SSA before/after each pass
	DumpProc   string    // restrict dumps to this procedure name
	Output     io.Writer // dump destination; os.Stderr if nil
}

// Run executes the given passes on st in order.
func Run(st *ssa.State, passes []Pass, cfg Config) error {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	name := st.Procedure.Name

	for _, p := range passes {
		log := logrus.WithFields(logrus.Fields{"proc": name, "pass": p.Name})

		if shouldDump(cfg.DumpBefore, p.Name) && matchProc(cfg.DumpProc, name) {
			dump(out, "before", p.Name, st)
		}

		if cfg.Validate {
			if err := validate(st); err != nil {
				return errors.Wrapf(err, "validate before %s", p.Name)
			}
		}

		before := st.Procedure.NumStatements()
		p.Fn(st)
		log.WithField("delta", st.Procedure.NumStatements()-before).Debug("pass done")

		if cfg.Validate {
			if err := validate(st); err != nil {
				return errors.Wrapf(err, "validate after %s", p.Name)
			}
		}

		if shouldDump(cfg.DumpAfter, p.Name) && matchProc(cfg.DumpProc, name) {
			dump(out, "after", p.Name, st)
		}
	}
	return nil
}

func validate(st *ssa.State) error {
	if err := ir.Verify(st.Procedure); err != nil {
		return err
	}
	return st.Check()
}

func dump(w io.Writer, when, pass string, st *ssa.State) {
	fmt.Fprintf(w, "--- %s %s (%s) ---\n", when, pass, st.Procedure.Name)
	ir.Fprint(w, st.Procedure)
	st.Write(w)
	fmt.Fprintln(w)
}

func shouldDump(pattern, name string) bool {
	return pattern == "*" || pattern == name
}

func matchProc(filter, name string) bool {
	return filter == "" || filter == name
}
