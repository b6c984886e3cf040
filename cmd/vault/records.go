package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/domain/services"
)

func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Manage identity records",
		Long:  "List, add, edit, or delete the records stored in the vault.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecordsList(cmd)
		},
	}

	cmd.AddCommand(newRecordsListCmd())
	cmd.AddCommand(newRecordsAddCmd())
	cmd.AddCommand(newRecordsEditCmd())
	cmd.AddCommand(newRecordsDeleteCmd())
	cmd.AddCommand(newRecordsOfferableCmd())

	return cmd
}

func newRecordsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecordsList(cmd)
		},
	}
}

func runRecordsList(cmd *cobra.Command) error {
	ctx := cmd.Context()

	return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
		records, err := d.VaultHandler.HandleListRecords(ctx, s)
		if err != nil {
			return fmt.Errorf("listing records: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No records found.")
			return nil
		}

		printRecords(os.Stdout, records)
		return nil
	})
}

func printRecords(out io.Writer, records []entities.RecordWithType) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tVALUE")
	for i := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\n", records[i].ID, records[i].TypeName, displayValue(&records[i]))
	}
	w.Flush()
}

// displayValue renders a record the way its list row does.
func displayValue(rec *entities.RecordWithType) string {
	switch rec.ItemKind() {
	case entities.ItemBankAccount:
		if rec.Attr1 != "" {
			return fmt.Sprintf("%s (%s)", rec.Value, rec.Attr1)
		}
		return rec.Value
	default:
		return rec.Value
	}
}

type attrFlags struct {
	attrs [5]string
}

func (f *attrFlags) register(cmd *cobra.Command) {
	for i := range f.attrs {
		name := fmt.Sprintf("attr%d", i+1)
		cmd.Flags().StringVar(&f.attrs[i], name, "", fmt.Sprintf("Supplementary attribute %d", i+1))
	}
}

// apply copies the attribute flags that were set on the command line.
func (f *attrFlags) apply(cmd *cobra.Command, rec *entities.Record) {
	for i := range f.attrs {
		if cmd.Flags().Changed(fmt.Sprintf("attr%d", i+1)) {
			rec.SetAttr(i+1, f.attrs[i])
		}
	}
}

func newRecordsAddCmd() *cobra.Command {
	var flags attrFlags

	cmd := &cobra.Command{
		Use:   "add <type> <value>",
		Short: "Add a record",
		Long:  "Add a record of the given type (id or name). Attributes the type's form asks for are prompted when not given.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecordsAdd(cmd, args[0], args[1], &flags)
		},
	}

	flags.register(cmd)

	return cmd
}

func runRecordsAdd(cmd *cobra.Command, typeRef, value string, flags *attrFlags) error {
	ctx := cmd.Context()

	return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
		form, err := d.VaultHandler.HandleForm(ctx, s, typeRef)
		if err != nil {
			return err
		}

		rec := entities.Record{TypeID: form.Type.ID, Value: value}
		flags.apply(cmd, &rec)
		for _, field := range form.Form.Attrs {
			if cmd.Flags().Changed(fmt.Sprintf("attr%d", field.Slot)) {
				continue
			}
			answer, err := d.Prompter.line(field.Label + ": ")
			if err != nil && !errors.Is(err, errAborted) {
				return err
			}
			rec.SetAttr(field.Slot, answer)
		}

		if err := d.VaultHandler.HandleAdd(ctx, s, &rec); err != nil {
			return fmt.Errorf("adding record: %w", err)
		}

		fmt.Printf("Added %s record %d\n", form.Type.Name, rec.ID)
		return nil
	})
}

type editFlags struct {
	attrFlags
	value string
}

func newRecordsEditCmd() *cobra.Command {
	var flags editFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a record",
		Long:  "Change the value or attributes of a record. The type of a record cannot be changed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecordsEdit(cmd, args[0], &flags)
		},
	}

	cmd.Flags().StringVar(&flags.value, "value", "", "New value")
	flags.register(cmd)

	return cmd
}

func runRecordsEdit(cmd *cobra.Command, arg string, flags *editFlags) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid record id %q", arg)
	}

	ctx := cmd.Context()

	return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
		rec, err := d.VaultHandler.HandleGet(ctx, s, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("record %d not found", id)
		}

		if cmd.Flags().Changed("value") {
			rec.Value = flags.value
		}
		flags.apply(cmd, rec)

		if err := d.VaultHandler.HandleEdit(ctx, s, rec); err != nil {
			return fmt.Errorf("editing record: %w", err)
		}

		fmt.Printf("Updated record %d\n", rec.ID)
		return nil
	})
}

type deleteFlags struct {
	noUndo bool
}

func newRecordsDeleteCmd() *cobra.Command {
	var flags deleteFlags

	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete records",
		Long:  "Deletes records after a short grace period. Press Enter during the grace period to undo.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecordsDelete(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.noUndo, "no-undo", false, "Commit immediately without an undo window")

	return cmd
}

func runRecordsDelete(cmd *cobra.Command, args []string, flags deleteFlags) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
		sub, err := d.VaultHandler.HandleOpenList(ctx, s)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()

		var requested []int64
		for _, id := range ids {
			if err := d.VaultHandler.HandleRequestDelete(ctx, s, id); err != nil {
				fmt.Printf("Skipping record %d: %v\n", id, err)
				continue
			}
			requested = append(requested, id)
		}
		if len(requested) == 0 {
			return nil
		}

		grace := d.Config.Delete.GracePeriod
		if flags.noUndo {
			return settle(ctx, d, len(requested))
		}

		fmt.Printf("Deleting %d record(s). Press Enter within %s to undo.\n", len(requested), grace)
		if !undoWindow(ctx, d.Prompter.lines(), grace) {
			return settle(ctx, d, len(requested))
		}

		restored := 0
		for _, id := range requested {
			err := d.VaultHandler.HandleUndo(ctx, s, id)
			switch {
			case err == nil:
				restored++
			case errors.Is(err, services.ErrNotPending):
				fmt.Printf("Too late to undo record %d.\n", id)
			default:
				return err
			}
		}
		fmt.Printf("Restored %d record(s).\n", restored)
		return nil
	})
}

func settle(ctx context.Context, d *Deps, n int) error {
	if err := d.VaultHandler.HandleSettle(ctx); err != nil {
		return fmt.Errorf("deleting records: %w", err)
	}
	fmt.Printf("Deleted %d record(s).\n", n)
	return nil
}

// undoWindow reports whether a line arrived before the grace period ended.
func undoWindow(ctx context.Context, lines <-chan string, grace time.Duration) bool {
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case _, ok := <-lines:
		return ok
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid record id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newRecordsOfferableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "offerable",
		Short: "List the types a new record may use",
		Long:  "Lists every record type except unique types that already have a record.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecordsOfferable(cmd)
		},
	}
}

func runRecordsOfferable(cmd *cobra.Command) error {
	ctx := cmd.Context()

	return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
		types, err := d.VaultHandler.HandleOfferable(ctx, s)
		if err != nil {
			return fmt.Errorf("listing offerable types: %w", err)
		}
		printTypes(os.Stdout, types)
		return nil
	})
}
