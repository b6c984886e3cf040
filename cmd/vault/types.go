package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/identity-vault/internal/domain/entities"
)

func newTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Manage record types",
		Long:  "List, add, or remove custom record types, or restore the built-in catalog.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypesList(cmd)
		},
	}

	cmd.AddCommand(newTypesListCmd())
	cmd.AddCommand(newTypesAddCmd())
	cmd.AddCommand(newTypesRemoveCmd())
	cmd.AddCommand(newTypesResetCmd())

	return cmd
}

func newTypesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all record types",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypesList(cmd)
		},
	}
}

func runTypesList(cmd *cobra.Command) error {
	ctx := cmd.Context()

	return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
		types, err := d.VaultHandler.HandleListTypes(ctx, s)
		if err != nil {
			return fmt.Errorf("listing types: %w", err)
		}

		if len(types) == 0 {
			fmt.Println("No record types found.")
			return nil
		}

		printTypes(os.Stdout, types)
		return nil
	})
}

func printTypes(out io.Writer, types []entities.RecordType) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tUNIQUE\tCUSTOM")
	for i := range types {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", types[i].ID, types[i].Name, yesNo(types[i].IsUnique), yesNo(types[i].IsCustom))
	}
	w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

type typesAddFlags struct {
	unique bool
}

func newTypesAddCmd() *cobra.Command {
	var flags typesAddFlags

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a custom record type",
		Long:  "Add a custom record type. A unique type allows at most one record.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypesAdd(cmd, args[0], flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.unique, "unique", "u", false, "Allow at most one record of this type")

	return cmd
}

func runTypesAdd(cmd *cobra.Command, name string, flags typesAddFlags) error {
	ctx := cmd.Context()

	return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
		t, err := d.VaultHandler.HandleAddType(ctx, s, name, flags.unique)
		if err != nil {
			return fmt.Errorf("adding type: %w", err)
		}

		fmt.Printf("Added record type %d: %s\n", t.ID, t.Name)
		return nil
	})
}

func newTypesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id|name>",
		Short: "Remove a custom record type",
		Long:  "Remove a custom record type that no record uses. Built-in types cannot be removed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypesRemove(cmd, args[0])
		},
	}
}

func runTypesRemove(cmd *cobra.Command, ref string) error {
	ctx := cmd.Context()

	return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
		if err := d.VaultHandler.HandleRemoveType(ctx, s, ref); err != nil {
			return fmt.Errorf("removing type: %w", err)
		}

		fmt.Printf("Removed record type: %s\n", ref)
		return nil
	})
}

type typesResetFlags struct {
	force bool
}

func newTypesResetCmd() *cobra.Command {
	var flags typesResetFlags

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Restore the built-in record types",
		Long:  "Removes every record type and re-seeds the built-in catalog. Fails while records use a custom type.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypesReset(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

func runTypesReset(cmd *cobra.Command, flags typesResetFlags) error {
	ctx := cmd.Context()

	return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
		if !flags.force && !d.Prompter.confirm("Remove all custom record types?") {
			fmt.Println("Cancelled.")
			return nil
		}
		if err := d.VaultHandler.HandleResetTypes(ctx, s); err != nil {
			return fmt.Errorf("resetting types: %w", err)
		}

		fmt.Println("Record types reset.")
		return nil
	})
}
