package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/infrastructure/parsers"
)

type exportFlags struct {
	format string
	output string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export records to file",
		Long:  "Exports records in the layout accepted by import. Values are written in plain text.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format ("+strings.Join(validExportFormats, ", ")+")")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runExport(cmd *cobra.Command, flags exportFlags) error {
	if !slices.Contains(validExportFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validExportFormats)
	}

	ctx := cmd.Context()

	return withUnlockedDeps(ctx, func(d *Deps, s entities.Session) error {
		records, err := d.VaultHandler.HandleListRecords(ctx, s)
		if err != nil {
			return fmt.Errorf("listing records: %w", err)
		}
		return export(cmd.OutOrStdout(), flags, records)
	})
}

func export(stdout io.Writer, flags exportFlags, records []entities.RecordWithType) (err error) {
	w := stdout
	if flags.output != "" {
		var f *os.File
		f, err = os.OpenFile(flags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing file: %w", cerr)
			}
		}()
		w = f
	}

	rows := toRawRecords(records)
	switch flags.format {
	case "csv":
		err = formatCSV(w, rows)
	default:
		err = formatJSON(w, rows)
	}
	if err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if flags.output != "" {
		fmt.Fprintf(stdout, "Exported %d records to %s\n", len(rows), flags.output)
	}
	return nil
}

// toRawRecords names each record's type so the file can be imported into a
// vault whose type ids differ.
func toRawRecords(records []entities.RecordWithType) []parsers.RawRecord {
	rows := make([]parsers.RawRecord, 0, len(records))
	for _, r := range records {
		rows = append(rows, parsers.RawRecord{
			Type:  r.TypeName,
			Value: r.Value,
			Attr1: r.Attr1,
			Attr2: r.Attr2,
			Attr3: r.Attr3,
			Attr4: r.Attr4,
			Attr5: r.Attr5,
		})
	}
	return rows
}

func formatJSON(w io.Writer, rows []parsers.RawRecord) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

func formatCSV(w io.Writer, rows []parsers.RawRecord) error {
	writer := csv.NewWriter(w)

	header := []string{"type", "value", "attr1", "attr2", "attr3", "attr4", "attr5"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		if err := writer.Write([]string{r.Type, r.Value, r.Attr1, r.Attr2, r.Attr3, r.Attr4, r.Attr5}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
