package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/identity-vault/internal/domain/entities"
)

func newDevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "dev",
		Short:  "Development helpers",
		Hidden: true,
	}

	cmd.AddCommand(newDevPopulateCmd())

	return cmd
}

type populateFlags struct {
	force bool
}

func newDevPopulateCmd() *cobra.Command {
	var flags populateFlags

	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Replace the vault contents with demonstration records",
		Long:  "Deletes every record, resets the record types and inserts demonstration records.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevPopulate(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func runDevPopulate(cmd *cobra.Command, flags populateFlags) error {
	ctx := cmd.Context()

	return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
		if !flags.force && !d.Prompter.confirm("Replace every record with demonstration data?") {
			fmt.Println("Cancelled.")
			return nil
		}
		if err := d.VaultHandler.HandlePopulate(ctx, s); err != nil {
			return fmt.Errorf("populating vault: %w", err)
		}

		records, err := d.VaultHandler.HandleListRecords(ctx, s)
		if err != nil {
			return err
		}
		fmt.Printf("Vault populated with %d records.\n", len(records))
		return nil
	})
}
