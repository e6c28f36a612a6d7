package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feildrixliemdra/library-admin/internal/constants"
)

func newComingSoonCommand(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", cmd.CommandPath(), constants.ComingSoon)

			return nil
		},
	}
}

// NewMembersCommand creates the members section.
func NewMembersCommand() *cobra.Command {
	return newComingSoonCommand("members", "Manage library members")
}

// NewReportsCommand creates the reports section.
func NewReportsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Library reports",
	}

	cmd.AddCommand(newComingSoonCommand("statistics", "Show catalog statistics"))

	return cmd
}

// NewSettingsCommand creates the settings section.
func NewSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Library settings",
	}

	cmd.AddCommand(newComingSoonCommand("backup", "Back up library data"))

	return cmd
}
