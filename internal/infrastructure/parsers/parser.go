// Package parsers provides parsers for importing records from various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawRecord is a record parsed from an external source before validation.
// Type holds the record type name as shown in the catalog.
type RawRecord struct {
	Type    string `json:"type"`
	Value   string `json:"value"`
	Attr1   string `json:"attr1,omitempty"`
	Attr2   string `json:"attr2,omitempty"`
	Attr3   string `json:"attr3,omitempty"`
	Attr4   string `json:"attr4,omitempty"`
	Attr5   string `json:"attr5,omitempty"`
	LineNum int    `json:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing records from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawRecord, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
