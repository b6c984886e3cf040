package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/identity-vault/internal/application/handlers"
	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/services"
	"github.com/ersonp/identity-vault/internal/infrastructure/parsers"
)

type importFlags struct {
	format     string
	dryRun     bool
	onConflict string
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import records from JSON or CSV",
		Long:  "Imports records from a structured file. Types are matched by name; unique types stay unique.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", parsers.FormatAuto, "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")
	cmd.Flags().StringVar(&flags.onConflict, "on-conflict", "skip", "Unique type already in use ("+strings.Join(validConflicts, ", ")+")")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	// Validate on-conflict flag
	if !slices.Contains(validConflicts, flags.onConflict) {
		return fmt.Errorf("invalid --on-conflict value %q (valid: %s)", flags.onConflict, strings.Join(validConflicts, ", "))
	}

	ctx := cmd.Context()

	return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
		opts := handlers.ImportOptions{
			Format:     flags.format,
			DryRun:     flags.dryRun,
			OnConflict: services.ConflictStrategy(flags.onConflict),
		}

		fmt.Printf("Importing %s...\n", filePath)

		result, err := d.ImportHandler.Handle(ctx, s, filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		// Display errors
		if len(result.Errors) > 0 {
			fmt.Printf("\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", e.Error())
			}
		}

		// Display summary
		fmt.Println()
		if flags.dryRun {
			fmt.Printf("Dry run: %d records would be imported", result.Imported)
		} else {
			fmt.Printf("Imported: %d records", result.Imported)
		}

		if result.Skipped > 0 {
			fmt.Printf(", %d skipped (unique type already in use)", result.Skipped)
		}

		if len(result.Errors) > 0 {
			fmt.Printf(", %d errors", len(result.Errors))
		}

		fmt.Println()

		return nil
	})
}
