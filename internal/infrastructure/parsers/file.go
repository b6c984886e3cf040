package parsers

import (
	"fmt"
	"os"
)

// FormatAuto picks the parser from the file extension.
const FormatAuto = "auto"

// ForPath returns the parser for format, falling back to the extension of
// path when format is empty or FormatAuto.
func ForPath(path, format string) Parser {
	if format == "" || format == FormatAuto {
		return ForFile(path)
	}
	return ForFormat(format)
}

// ReadFile parses every record in the file at path.
func ReadFile(path, format string) (records []RawRecord, err error) {
	parser := ForPath(path, format)
	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	records, err = parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return records, nil
}
