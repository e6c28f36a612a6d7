package commands

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// NewCategoriesCommand creates the categories command.
func NewCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List book categories",
		Long:  "List the categories a book can be filed under",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOutput(cmd.OutOrStdout(), library.Categories, func(w io.Writer) error {
				table := tablewriter.NewWriter(w)
				table.Header("Value", "Label")

				for _, category := range library.Categories {
					err := table.Append([]string{category.Value, category.Label})
					if err != nil {
						return fmt.Errorf("failed to append category to table: %w", err)
					}
				}

				return table.Render()
			})
		},
	}
}
