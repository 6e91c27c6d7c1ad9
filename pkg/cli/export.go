package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funvibe/calcore/internal/catalog"
)

// NewExportCommand creates the export command.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "export <database>",
		Short: "Export the calculator catalog to SQLite",
		Long: `Export the types, conversions, coercions, operators and functions of the
configured calculator to a SQLite database. Exporting the same domain again
replaces its rows; other domains in the file are kept.

Example:
  calcore export catalog.db
  calcore export catalog.db --list`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := opts.formatter(cmd.OutOrStdout())

			store, err := catalog.Open(ctx, args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			if !list {
				cat, err := opts.snapshot()
				if err != nil {
					return err
				}
				if err := store.Save(ctx, cat); err != nil {
					return err
				}
				if opts.logger != nil {
					opts.logger.Info("catalog.exported", "path", args[0], "domain", cat.DomainID.String())
				}
				if out.Format == "json" {
					return out.Success(map[string]string{"path": args[0], "domain_id": cat.DomainID.String()})
				}
				return out.Success(fmt.Sprintf("exported %s (%s) to %s", cat.DomainName, cat.DomainID, args[0]))
			}

			refs, err := store.Domains(ctx)
			if err != nil {
				return err
			}
			if out.Format == "json" {
				return out.Success(refs)
			}
			for _, ref := range refs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", ref.ID, ref.Name, ref.ExportedAt.Format("2006-01-02T15:04:05Z"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list the catalogs stored in the database instead of exporting")
	return cmd
}
