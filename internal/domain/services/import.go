package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ersonp/identity-vault/internal/domain/entities"
	"github.com/ersonp/identity-vault/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle records of a unique type that is
// already in use.
type ConflictStrategy string

const (
	// ConflictSkip counts such records as skipped.
	ConflictSkip ConflictStrategy = "skip"
	// ConflictReport reports such records as import errors.
	ConflictReport ConflictStrategy = "report"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool             // Validate without saving
	OnConflict ConflictStrategy // How to handle unique types already in use
}

// ImportError represents an error for a specific record during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []ImportError
}

// ImportService adds records parsed from external files.
type ImportService struct {
	catalog *CatalogService
	records *RecordService
	logger  *zap.SugaredLogger
}

// NewImportService creates a new import service.
func NewImportService(catalog *CatalogService, records *RecordService, logger *zap.SugaredLogger) *ImportService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ImportService{
		catalog: catalog,
		records: records,
		logger:  logger,
	}
}

// Import validates raw records and adds the valid ones in file order. Each
// record goes through RecordService.Add, so unique types stay unique across the
// file as well as against the existing vault.
func (s *ImportService) Import(ctx context.Context, raw []parsers.RawRecord, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	types, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing record types: %w", err)
	}
	byName := indexTypesByName(types)

	valid, validationErrors := validateRawRecords(raw, byName)
	result.Errors = validationErrors

	if opts.DryRun {
		return s.dryRun(ctx, valid, opts, result)
	}

	for i := range valid {
		v := &valid[i]
		err := s.records.Add(ctx, &v.record)
		switch {
		case err == nil:
			result.Imported++
		case errors.Is(err, ErrUniqueTypeInUse) && opts.OnConflict == ConflictSkip:
			result.Skipped++
		case isValidation(err):
			result.Errors = append(result.Errors, ImportError{
				Line:    v.line,
				Field:   "type",
				Value:   v.typeName,
				Message: err.Error(),
			})
		default:
			return nil, fmt.Errorf("line %d: %w", v.line, err)
		}
	}

	s.logger.Infow("imported records",
		"imported", result.Imported,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

// dryRun applies the uniqueness rule without writing.
func (s *ImportService) dryRun(ctx context.Context, valid []validRecord, opts ImportOptions, result *ImportResult) (*ImportResult, error) {
	used, err := s.catalog.UsedUniqueTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing used unique types: %w", err)
	}
	taken := make(map[int64]bool, len(used))
	for _, t := range used {
		taken[t.ID] = true
	}

	for i := range valid {
		v := &valid[i]
		if v.unique && taken[v.record.TypeID] {
			if opts.OnConflict == ConflictSkip {
				result.Skipped++
				continue
			}
			result.Errors = append(result.Errors, ImportError{
				Line:    v.line,
				Field:   "type",
				Value:   v.typeName,
				Message: fmt.Sprintf("type: %v", ErrUniqueTypeInUse),
			})
			continue
		}
		if v.unique {
			taken[v.record.TypeID] = true
		}
		result.Imported++
	}
	return result, nil
}

type validRecord struct {
	record   entities.Record
	line     int
	typeName string
	unique   bool
}

// indexTypesByName maps case-folded type names to types. When names collide,
// the lowest id wins.
func indexTypesByName(types []entities.RecordType) map[string]entities.RecordType {
	byName := make(map[string]entities.RecordType, len(types))
	for _, t := range types {
		key := strings.ToLower(strings.TrimSpace(t.Name))
		if _, ok := byName[key]; ok {
			continue
		}
		byName[key] = t
	}
	return byName
}

// validateRawRecords resolves type names and checks required fields.
func validateRawRecords(raw []parsers.RawRecord, byName map[string]entities.RecordType) ([]validRecord, []ImportError) {
	valid := make([]validRecord, 0, len(raw))
	var errs []ImportError

	for i := range raw {
		r := &raw[i]
		lineNum := r.LineNum
		if lineNum == 0 {
			lineNum = i + 1
		}

		if entities.IsBlank(r.Type) {
			errs = append(errs, ImportError{Line: lineNum, Field: "type", Message: "missing required field: type"})
			continue
		}
		if entities.IsBlank(r.Value) {
			errs = append(errs, ImportError{Line: lineNum, Field: "value", Message: "missing required field: value"})
			continue
		}

		t, ok := byName[strings.ToLower(strings.TrimSpace(r.Type))]
		if !ok {
			errs = append(errs, ImportError{
				Line:    lineNum,
				Field:   "type",
				Value:   r.Type,
				Message: fmt.Sprintf("unknown record type %q", r.Type),
			})
			continue
		}

		valid = append(valid, validRecord{
			record: entities.Record{
				TypeID: t.ID,
				Value:  r.Value,
				Attr1:  r.Attr1,
				Attr2:  r.Attr2,
				Attr3:  r.Attr3,
				Attr4:  r.Attr4,
				Attr5:  r.Attr5,
			},
			line:     lineNum,
			typeName: t.Name,
			unique:   t.IsUnique,
		})
	}

	return valid, errs
}

func isValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
