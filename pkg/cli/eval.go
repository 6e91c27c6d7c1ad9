package cli

import (
	"github.com/spf13/cobra"

	"github.com/funvibe/calcore/internal/typesystem"
)

// NewEvalCommand creates the eval command.
func NewEvalCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <op> <operand> [operand]",
		Short: "Apply an operator to one or two operands",
		Long: `Apply an operator to one or two operands.

Operands are literals: int:2, float:1.5, str:ab, bool:true, json:[1,2],
fn:abs and nil force a type; bare literals are inferred.

Example:
  calcore eval + 1 2.5
  calcore eval '*' str:ab 3`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd.OutOrStdout())
			c, err := opts.calculator()
			if err != nil {
				return err
			}
			operands, err := parseLiterals(c, args[1:])
			if err != nil {
				return err
			}
			res, err := c.EvalValue(args[0], valuesToAny(operands)...)
			if err != nil {
				return out.fail(err)
			}
			return out.Values(c, []typesystem.Value{res})
		},
	}
}

// NewCallCommand creates the call command.
func NewCallCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "call <function> [arg...]",
		Short: "Call a library function",
		Long: `Call a library function with literal arguments.

Example:
  calcore call sqrt 2
  calcore call divmod 7 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd.OutOrStdout())
			c, err := opts.calculator()
			if err != nil {
				return err
			}
			vals, err := parseLiterals(c, args[1:])
			if err != nil {
				return err
			}
			res, err := c.CallValues(args[0], valuesToAny(vals)...)
			if err != nil {
				return out.fail(err)
			}
			return out.Values(c, res)
		},
	}
}

func valuesToAny(vals []typesystem.Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
