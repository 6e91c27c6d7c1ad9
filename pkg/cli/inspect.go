package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/funvibe/calcore/internal/catalog"
)

// snapshot assembles and seals a calculator and returns its catalog.
func (o *RootOptions) snapshot() (*catalog.Catalog, error) {
	c, err := o.calculator()
	if err != nil {
		return nil, err
	}
	c.Seal()
	return catalog.Snapshot(c.Core())
}

// NewTypesCommand creates the types command.
func NewTypesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List types, conversions and coercion rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.snapshot()
			if err != nil {
				return err
			}
			out := opts.formatter(cmd.OutOrStdout())
			if out.Format == "json" {
				return out.Success(map[string]any{
					"domain":      cat.DomainName,
					"id":          cat.DomainID.String(),
					"types":       cat.Types,
					"conversions": cat.Conversions,
					"coercions":   cat.Coercions,
				})
			}
			return writeTypes(cmd.OutOrStdout(), cat)
		},
	}
}

func writeTypes(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "domain %s (%s)\n\n", cat.DomainName, cat.DomainID)
	fmt.Fprintln(tw, "TYPE\tSHAPE\tSLOTS")
	for _, t := range cat.Types {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, t.Shape, strings.Join(t.Slots, " "))
	}
	fmt.Fprintln(tw, "\nCONVERSION\tKIND")
	for _, c := range cat.Conversions {
		kind := "convert"
		if c.Cast {
			kind = "cast"
		}
		fmt.Fprintf(tw, "%s -> %s\t%s\n", c.Source, c.Target, kind)
	}
	fmt.Fprintln(tw, "\nCOERCION\tRULE")
	for _, c := range cat.Coercions {
		fmt.Fprintf(tw, "(%s, %s)\t%s\n", c.A, c.B, c.Rule)
	}
	return tw.Flush()
}

// NewOpsCommand creates the ops command.
func NewOpsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List operators and their implementations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.snapshot()
			if err != nil {
				return err
			}
			out := opts.formatter(cmd.OutOrStdout())
			if out.Format == "json" {
				return out.Success(cat.Operators)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "OPERATOR\tARITY\tIMPLEMENTATIONS\tFALLBACK")
			for _, op := range cat.Operators {
				impls := make([]string, len(op.Impls))
				for i, impl := range op.Impls {
					switch impl.Kind {
					case catalog.ImplUnary:
						impls[i] = impl.Left
					case catalog.ImplCoerced:
						impls[i] = "~" + impl.Left
					default:
						impls[i] = impl.Left + "," + impl.Right
					}
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%v\n", op.ID, op.Arity, strings.Join(impls, " "), op.Fallback)
			}
			return tw.Flush()
		},
	}
}

// NewFuncsCommand creates the funcs command.
func NewFuncsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "funcs [name]",
		Short: "List library functions and their variants",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.snapshot()
			if err != nil {
				return err
			}
			funcs := cat.Functions
			if len(args) == 1 {
				f, ok := cat.Function(args[0])
				if !ok {
					return fmt.Errorf("unknown function %q", args[0])
				}
				funcs = []catalog.Function{f}
			}
			out := opts.formatter(cmd.OutOrStdout())
			if out.Format == "json" {
				return out.Success(funcs)
			}
			w := cmd.OutOrStdout()
			for _, f := range funcs {
				arity := "varies"
				if f.FixedArity {
					arity = fmt.Sprint(f.Arity)
				}
				fmt.Fprintf(w, "%s (arity %s)\n", f.Name, arity)
				for _, sig := range f.Signatures {
					fmt.Fprintf(w, "  %s\n", sig)
				}
			}
			return nil
		},
	}
}
