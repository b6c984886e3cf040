package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

var knownColumns = map[string]struct{}{
	"type": {}, "value": {},
	"attr1": {}, "attr2": {}, "attr3": {}, "attr4": {}, "attr5": {},
}

// CSVParser parses records from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed records.
// Expected columns: type, value, and optionally attr1 through attr5.
func (p *CSVParser) Parse(r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(col))
		if _, ok := knownColumns[col]; !ok {
			return nil, fmt.Errorf("unknown column: %s", col)
		}
		if _, dup := colIndex[col]; dup {
			return nil, fmt.Errorf("duplicate column: %s", col)
		}
		colIndex[col] = i
	}

	for _, col := range []string{"type", "value"} {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawRecords.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawRecord, error) {
	var records []RawRecord
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		records = append(records, RawRecord{
			Type:    getColumn(row, colIndex, "type"),
			Value:   getColumn(row, colIndex, "value"),
			Attr1:   getColumn(row, colIndex, "attr1"),
			Attr2:   getColumn(row, colIndex, "attr2"),
			Attr3:   getColumn(row, colIndex, "attr3"),
			Attr4:   getColumn(row, colIndex, "attr4"),
			Attr5:   getColumn(row, colIndex, "attr5"),
			LineNum: lineNum,
		})
	}

	return records, nil
}

// getColumn safely retrieves a column value from a row.
func getColumn(row []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
