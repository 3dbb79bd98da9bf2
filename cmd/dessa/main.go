// Package main implements the dessa command: it reads procedures in IR
// text form, puts them in SSA form, runs SSA passes over them and prints
// the result.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/you-not-fish/dessa/internal/config"
	"github.com/you-not-fish/dessa/internal/ir"
	"github.com/you-not-fish/dessa/internal/irtext"
	"github.com/you-not-fish/dessa/internal/ssa"
	"github.com/you-not-fish/dessa/internal/ssa/passes"
)

// Version information
const Version = "0.1.0-dev"

type options struct {
	configFile string
	inSSA      bool
	table      bool
	long       bool

	cfg *config.Config
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dessa: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "dessa [options] FILE",
		Short:         "Build and maintain SSA form for decompiled procedures",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSSA(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "TOML configuration file")
	config.AddFlags(pf)

	flags := cmd.Flags()
	flags.BoolVar(&opts.inSSA, "ssa", false, "input is already in SSA form")
	flags.BoolVar(&opts.table, "table", false, "print the identifier table of every procedure")
	flags.BoolVar(&opts.long, "long", false, "print identifier records in long form")

	cmd.AddCommand(
		newCheckCommand(),
		newTokensCommand(),
		newPassesCommand(),
		newVersionCommand(),
	)
	return cmd
}

// setup loads the configuration file, applies flag overrides and
// configures logging.
func (opts *options) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	if opts.configFile != "" {
		var err error
		if cfg, err = config.ParseConfig(opts.configFile); err != nil {
			return err
		}
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return err
	}
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	logrus.SetOutput(cmd.ErrOrStderr())
	logrus.SetLevel(lvl)
	opts.cfg = cfg
	return nil
}

func parseFile(filename string) ([]*ir.Procedure, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "open IR file")
	}
	defer f.Close()

	var errs []string
	procs, err := irtext.Parse(filename, f, func(pos irtext.Pos, msg string) {
		errs = append(errs, fmt.Sprintf("%s: %s", pos, msg))
	})
	if err != nil {
		return nil, errors.Errorf("%s", strings.Join(errs, "\n"))
	}
	return procs, nil
}

// runSSA converts every procedure of filename to SSA form, runs the
// configured pipeline and prints the procedures.
func runSSA(stdout, stderr io.Writer, filename string, opts *options) error {
	procs, err := parseFile(filename)
	if err != nil {
		return err
	}
	pipeline, err := opts.cfg.Pipeline()
	if err != nil {
		return err
	}
	passCfg := opts.cfg.PassConfig(stderr)

	for i, p := range procs {
		log := logrus.WithField("proc", p.Name)
		if err := ir.Verify(p); err != nil {
			return err
		}

		var st *ssa.State
		if opts.inSSA {
			st = ssa.Track(p)
			if err := st.Check(); err != nil {
				return errors.Wrapf(err, "input procedure %s", p.Name)
			}
		} else {
			if st, err = passes.Construct(p); err != nil {
				return errors.Wrap(err, "construct SSA (use --ssa for input already in SSA form)")
			}
		}
		log.Debugf("%d identifiers before passes", st.Identifiers.Len())
		st.Dump()

		if err := passes.Run(st, pipeline, passCfg); err != nil {
			return errors.Wrapf(err, "pass pipeline failed for %s", p.Name)
		}

		if i > 0 {
			fmt.Fprintln(stdout)
		}
		ir.Fprint(stdout, p)
		switch {
		case opts.long:
			fmt.Fprintln(stdout)
			st.WriteLong(stdout)
		case opts.table:
			fmt.Fprintln(stdout)
			st.Write(stdout)
		}
	}
	return nil
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Validate the def/use records of procedures already in SSA form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), args[0])
		},
	}
}

// runCheck validates every procedure of filename and prints one row per
// violation.
func runCheck(stdout io.Writer, filename string) error {
	procs, err := parseFile(filename)
	if err != nil {
		return err
	}

	var rows [][]string
	for _, p := range procs {
		if err := ir.Verify(p); err != nil {
			return err
		}
		st := ssa.Track(p)
		for _, v := range st.Violations() {
			rows = append(rows, []string{p.Name, v.Kind.String(), v.Ident.String(), v.Error()})
		}
	}
	if len(rows) == 0 {
		fmt.Fprintf(stdout, "%d procedures ok\n", len(procs))
		return nil
	}

	table := tablewriter.NewWriter(stdout)
	table.SetHeader([]string{"Proc", "Kind", "Ident", "Message"})
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
	return errors.Errorf("%d violations", len(rows))
}

func newTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens FILE",
		Short: "Print the token stream of an IR file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd.OutOrStdout(), args[0])
		},
	}
}

// runTokens scans the input file and prints all tokens with positions.
func runTokens(stdout io.Writer, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "open IR file")
	}
	defer f.Close()

	var errs []string
	errh := func(line, col uint32, msg string) {
		errs = append(errs, fmt.Sprintf("%s:%d:%d: %s", filename, line, col, msg))
	}

	s := irtext.NewScanner(filename, f, errh)

	fmt.Fprintf(stdout, "%-10s %-12s %s\n", "POSITION", "TOKEN", "LITERAL")
	fmt.Fprintf(stdout, "%-10s %-12s %s\n", strings.Repeat("-", 10), strings.Repeat("-", 12), strings.Repeat("-", 20))

	for {
		s.Next()
		tok := s.Token()
		pos := s.Pos()
		fmt.Fprintf(stdout, "%-10s %-12s %q\n", fmt.Sprintf("%d:%d", pos.Line(), pos.Col()), tok, s.Literal())
		if tok.IsEOF() {
			break
		}
	}

	if len(errs) > 0 {
		return errors.Errorf("%s", strings.Join(errs, "\n"))
	}
	return nil
}

func newPassesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "passes",
		Short: "List the available passes",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range passes.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dessa version %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "go version %s\n", runtime.Version())
		},
	}
}
