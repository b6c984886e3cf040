package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/identity-vault/internal/application/handlers"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new vault",
		Long:  "Creates a .vault directory with default configuration and the database with the built-in record types.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	base, err := basePath()
	if err != nil {
		return err
	}

	result, err := handlers.NewInitHandler(nil).Handle(ctx, base)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s\n", result.ConfigPath)

	// Building deps creates the schema and seeds the catalog.
	err = withDeps(ctx, func(d *Deps) error {
		fmt.Printf("Created %s\n", d.Config.SQLite.Path)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Println("Vault initialized. Run 'vault register' to set your password.")
	return nil
}
