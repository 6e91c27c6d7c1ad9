package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/funvibe/calcore/internal/catalog"
	"github.com/funvibe/calcore/internal/typesystem"
	calcore "github.com/funvibe/calcore/pkg/embed"
)

const (
	historyFile = ".calcore_history"
	promptMain  = "calc> "
	banner      = "calcore REPL. Ctrl+C cancels input, Ctrl+D exits. Type :help for commands."
	helpText    = `
Input forms:
  <a> <op> <b>       Binary operator in infix form:   1 + 2.5
  <op> <a> [b]       Operator in prefix form:         # "abc"
  <fn> [arg...]      Library function call:           divmod 7 2

Literals: 2, 1.5, "text", true, nil, int:2, float:2, str:12, json:[1,2], fn:abs

REPL commands:
  :help            Show this help
  :quit / :exit    Exit the REPL
  :types           List types
  :ops             List operators
  :funcs [name]    List functions
`
)

// NewReplCommand creates the repl command.
func NewReplCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.calculator()
			if err != nil {
				return err
			}
			s, err := newSession(c, opts.formatter(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			return s.run()
		},
	}
}

// session evaluates REPL lines against one sealed calculator.
type session struct {
	calc   *calcore.Calculator
	cat    *catalog.Catalog
	out    *OutputFormatter
	binary map[string]bool
}

func newSession(c *calcore.Calculator, out *OutputFormatter) (*session, error) {
	c.Seal()
	cat, err := catalog.Snapshot(c.Core())
	if err != nil {
		return nil, err
	}
	s := &session{calc: c, cat: cat, out: out, binary: make(map[string]bool)}
	for _, op := range cat.Operators {
		if op.Arity == 2 {
			s.binary[op.ID] = true
		}
	}
	return s, nil
}

func (s *session) run() error {
	fmt.Fprintln(s.out.Writer, banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out.Writer)
			break
		}
		if err != nil {
			// Ctrl+C aborts the current input.
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if quit := s.exec(line); quit {
			break
		}
	}

	// Persist history (best-effort)
	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return nil
}

// exec evaluates one line and writes the result or the error. It reports
// whether the session should end.
func (s *session) exec(line string) (quit bool) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, ":") {
		return s.command(line)
	}
	vals, err := s.eval(line)
	if err != nil {
		_ = s.out.Error(err)
		return false
	}
	_ = s.out.Values(s.calc, vals)
	return false
}

func (s *session) eval(line string) ([]typesystem.Value, error) {
	fields, err := splitLine(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	head := fields[0]
	if _, ok := s.cat.Function(head); ok {
		args, err := parseLiterals(s.calc, fields[1:])
		if err != nil {
			return nil, err
		}
		return s.calc.CallValues(head, valuesToAny(args)...)
	}

	op, operandFields := head, fields[1:]
	if len(fields) == 3 && s.binary[fields[1]] {
		op, operandFields = fields[1], []string{fields[0], fields[2]}
	}
	operands, err := parseLiterals(s.calc, operandFields)
	if err != nil {
		return nil, err
	}
	res, err := s.calc.EvalValue(op, valuesToAny(operands)...)
	if err != nil {
		return nil, err
	}
	return []typesystem.Value{res}, nil
}

// command handles :help, :quit, :types, :ops and :funcs.
func (s *session) command(line string) (quit bool) {
	fields := strings.Fields(line)
	w := s.out.Writer
	switch strings.ToLower(fields[0]) {
	case ":help":
		fmt.Fprint(w, helpText)
	case ":quit", ":exit":
		return true
	case ":types":
		for _, t := range s.cat.Types {
			fmt.Fprintf(w, "%s  [%s]\n", t.Name, strings.Join(t.Slots, " "))
		}
	case ":ops":
		for _, op := range s.cat.Operators {
			fmt.Fprintf(w, "%s/%d\n", op.ID, op.Arity)
		}
	case ":funcs":
		for _, f := range s.cat.Functions {
			if len(fields) > 1 && f.Name != fields[1] {
				continue
			}
			for _, sig := range f.Signatures {
				fmt.Fprintln(w, sig)
			}
		}
	default:
		fmt.Fprintln(w, "unknown command. Type :help for help.")
	}
	return false
}
