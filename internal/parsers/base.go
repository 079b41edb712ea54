// Package parsers reads the input files of the vendor normalization
// pipeline: the canonical vendor list, the location to vendor relation,
// the invoice export and the manual override table.
//
// Reference files arrive as CSV or XLSX workbooks; invoice exports are
// CSV. Both formats flow through the same record-oriented machinery, so
// the concrete parsers only deal with field extraction and validation.
//
// Parser types:
//   - VendorParser: canonical vendor list
//   - LocationParser: location to vendor rows, aggregated per location
//   - InvoiceParser: invoice records, with a streaming mode for large exports
//   - OverrideParser: manual raw name to vendor mappings
//
// The package tolerates the usual mess of real exports: varying date
// formats, currency symbols in amounts, embedded newlines in vendor
// names, empty rows and encoding problems.
package parsers

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"vendor-normalization-service/pkg/errors"
	"vendor-normalization-service/pkg/logger"

	"github.com/xuri/excelize/v2"
)

// ParseError represents an error that occurred while parsing a record
type ParseError struct {
	Line    int
	Column  int
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d, column %d (%s='%s'): %s: %v",
			e.Line, e.Column, e.Field, e.Value, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d, column %d (%s='%s'): %s",
		e.Line, e.Column, e.Field, e.Value, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation error for a specific record
type ValidationError struct {
	Line   int
	Record interface{}
	Errors []error
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error at line %d: %v", e.Line, e.Errors[0])
	}

	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation errors at line %d: %s", e.Line, strings.Join(msgs, "; "))
}

// ParseConfig holds configuration for record parsing
type ParseConfig struct {
	HasHeader        bool
	Delimiter        rune
	Comment          rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	MaxFieldSize     int
	ValidateEncoding bool
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:        true,
		Delimiter:        ',',
		Comment:          0,
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		MaxFieldSize:     1000000, // 1MB per field
		ValidateEncoding: true,
	}
}

// RecordReader yields one record per call, io.EOF at the end.
// Both csv.Reader and the xlsx row iterator satisfy it.
type RecordReader interface {
	Read() ([]string, error)
}

// BaseParser provides common record parsing functionality
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a new BaseParser with the given configuration
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}

	log := logger.GetGlobalLogger().WithComponent("base_parser")
	log.WithFields(logger.Fields{
		"has_header":        config.HasHeader,
		"delimiter":         string(config.Delimiter),
		"validate_encoding": config.ValidateEncoding,
	}).Debug("Created base parser")

	return &BaseParser{
		config: config,
		logger: log,
	}
}

// ParseContext holds state during parsing operations
type ParseContext struct {
	LineNumber  int
	Headers     []string
	HeaderMap   map[string]int
	RecordCount int
	ErrorCount  int
	Errors      []*ParseError
	ctx         context.Context
}

// NewParseContext creates a new parsing context
func NewParseContext(ctx context.Context) *ParseContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ParseContext{
		Headers:   make([]string, 0),
		HeaderMap: make(map[string]int),
		Errors:    make([]*ParseError, 0),
		ctx:       ctx,
	}
}

// IsCancelled checks if the parsing context has been cancelled
func (pc *ParseContext) IsCancelled() bool {
	select {
	case <-pc.ctx.Done():
		return true
	default:
		return false
	}
}

// AddError adds a parsing error to the context
func (pc *ParseContext) AddError(column int, field, value, message string, err error) {
	parseErr := &ParseError{
		Line:    pc.LineNumber,
		Column:  column,
		Field:   field,
		Value:   value,
		Message: message,
		Err:     err,
	}
	pc.Errors = append(pc.Errors, parseErr)
	pc.ErrorCount++
}

// GetColumnIndex returns the index of a column by name, or -1 if not found
func (pc *ParseContext) GetColumnIndex(name string) int {
	if index, exists := pc.HeaderMap[name]; exists {
		return index
	}

	// Try case-insensitive lookup
	lowerName := strings.ToLower(name)
	for header, index := range pc.HeaderMap {
		if strings.ToLower(header) == lowerName {
			return index
		}
	}

	return -1
}

// IsXLSXFile reports whether the path refers to an xlsx workbook.
func IsXLSXFile(filePath string) bool {
	return strings.EqualFold(filepath.Ext(filePath), ".xlsx")
}

// xlsxReader iterates rows of the first sheet of an open workbook.
type xlsxReader struct {
	file *excelize.File
	rows *excelize.Rows
}

func (xr *xlsxReader) Read() ([]string, error) {
	if !xr.rows.Next() {
		if err := xr.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return xr.rows.Columns()
}

func (xr *xlsxReader) Close() error {
	if err := xr.rows.Close(); err != nil {
		xr.file.Close()
		return err
	}
	return xr.file.Close()
}

// Open opens an input file and returns a RecordReader for it, dispatching
// on the file extension. The returned closer must be closed by the caller.
func (bp *BaseParser) Open(filePath string) (io.Closer, RecordReader, error) {
	if IsXLSXFile(filePath) {
		return bp.openXLSX(filePath)
	}
	return bp.openCSV(filePath)
}

func (bp *BaseParser) openCSV(filePath string) (io.Closer, RecordReader, error) {
	bp.logger.WithField("file_path", filePath).Debug("Opening CSV file")

	file, err := os.Open(filePath)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open CSV file")

		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, nil, errors.FileError(errors.CodeDirectoryError, filePath, err)
	}

	if bp.config.ValidateEncoding {
		if err := bp.validateEncoding(file, filePath); err != nil {
			file.Close()
			bp.logger.WithError(err).WithField("file_path", filePath).Error("File encoding validation failed")
			return nil, nil, err // Already wrapped by validateEncoding
		}

		if _, err := file.Seek(0, 0); err != nil {
			file.Close()
			return nil, nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
		}
	}

	reader := csv.NewReader(file)
	bp.configureReader(reader)

	return file, reader, nil
}

func (bp *BaseParser) openXLSX(filePath string) (io.Closer, RecordReader, error) {
	bp.logger.WithField("file_path", filePath).Debug("Opening XLSX workbook")

	workbook, err := excelize.OpenFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		return nil, nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		workbook.Close()
		return nil, nil, errors.ParseError(
			errors.CodeInvalidFormat,
			filePath,
			0,
			"sheet",
			"",
			fmt.Errorf("workbook has no sheets"),
		).WithSuggestion("Ensure the workbook contains at least one sheet with data")
	}

	rows, err := workbook.Rows(sheets[0])
	if err != nil {
		workbook.Close()
		return nil, nil, errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}

	xr := &xlsxReader{file: workbook, rows: rows}
	return xr, xr, nil
}

// configureReader sets up the CSV reader with our configuration
func (bp *BaseParser) configureReader(reader *csv.Reader) {
	reader.Comma = bp.config.Delimiter
	reader.Comment = bp.config.Comment
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1 // Variable number of fields
}

// validateEncoding checks if the file contains valid UTF-8 text
func (bp *BaseParser) validateEncoding(file *os.File, filePath string) error {
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() && lineNum < 100 { // Check first 100 lines
		lineNum++
		if !utf8.Valid(scanner.Bytes()) {
			return errors.ParseError(
				errors.CodeEncodingError,
				filePath,
				lineNum,
				"encoding",
				"",
				fmt.Errorf("invalid UTF-8 encoding detected"),
			).WithSuggestion("Save the file in UTF-8 encoding and try again")
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.FileError(errors.CodeFileCorrupted, filePath, err)
	}

	return nil
}

// ReadHeaders reads and validates the header row
func (bp *BaseParser) ReadHeaders(reader RecordReader, parseCtx *ParseContext, requiredHeaders []string) error {
	bp.logger.WithFields(logger.Fields{
		"has_header":       bp.config.HasHeader,
		"required_headers": requiredHeaders,
	}).Debug("Reading headers")

	if !bp.config.HasHeader {
		// Generate default headers if no header row
		if len(requiredHeaders) > 0 {
			parseCtx.Headers = make([]string, len(requiredHeaders))
			copy(parseCtx.Headers, requiredHeaders)
		}
		bp.buildHeaderMap(parseCtx)
		return nil
	}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			bp.logger.Error("File is empty or contains no data")
			return errors.ValidationError(
				errors.CodeMissingField,
				"file_content",
				"empty",
				nil,
			).WithSuggestion("Ensure the file contains header and data rows")
		}

		bp.logger.WithError(err).Error("Failed to read header row")
		return errors.ParseError(
			errors.CodeInvalidFormat,
			"",
			1,
			"headers",
			"",
			err,
		).WithSuggestion("Check the file format and ensure it's a valid CSV or XLSX file")
	}

	parseCtx.LineNumber++
	parseCtx.Headers = bp.cleanHeaders(headers)
	bp.buildHeaderMap(parseCtx)

	bp.logger.WithField("headers", parseCtx.Headers).Debug("Successfully read headers")

	if len(requiredHeaders) > 0 {
		missing := bp.findMissingHeaders(parseCtx, requiredHeaders)
		if len(missing) > 0 {
			bp.logger.WithFields(logger.Fields{
				"missing_headers":   missing,
				"available_headers": parseCtx.Headers,
			}).Error("Required headers are missing")

			return errors.ParseError(
				errors.CodeMissingColumn,
				"",
				parseCtx.LineNumber,
				"headers",
				strings.Join(missing, ", "),
				nil,
			).WithSuggestion(fmt.Sprintf("Ensure the file contains these headers: %s", strings.Join(missing, ", ")))
		}
	}

	return nil
}

// cleanHeaders removes whitespace and normalizes header names
func (bp *BaseParser) cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		cleaned[i] = strings.TrimSpace(header)
	}
	return cleaned
}

// buildHeaderMap creates a map from header names to column indices
func (bp *BaseParser) buildHeaderMap(parseCtx *ParseContext) {
	parseCtx.HeaderMap = make(map[string]int)
	for i, header := range parseCtx.Headers {
		parseCtx.HeaderMap[header] = i
	}
}

// findMissingHeaders returns a list of required headers that are not present
func (bp *BaseParser) findMissingHeaders(parseCtx *ParseContext, required []string) []string {
	var missing []string
	for _, header := range required {
		if parseCtx.GetColumnIndex(header) == -1 {
			missing = append(missing, header)
		}
	}
	return missing
}

// ReadRecord reads and validates a single record, skipping empty rows
func (bp *BaseParser) ReadRecord(reader RecordReader, parseCtx *ParseContext) ([]string, error) {
	for {
		if parseCtx.IsCancelled() {
			bp.logger.Debug("Record reading cancelled by context")
			return nil, errors.InternalError(
				errors.CodeUnexpectedError,
				"record_parsing",
				fmt.Errorf("parsing cancelled"),
			)
		}

		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, err // Normal end of file
			}

			bp.logger.WithError(err).WithField("line_number", parseCtx.LineNumber+1).Warn("Failed to read record")
			return nil, err
		}

		parseCtx.LineNumber++

		if bp.config.SkipEmptyRows && bp.isEmptyRecord(record) {
			continue
		}

		if headers := len(parseCtx.Headers); headers > 0 && len(record) > headers {
			parseCtx.AddError(headers, "record", strings.Join(record, ","),
				fmt.Sprintf("row has %d fields, header has %d", len(record), headers), nil)

			return nil, errors.ParseError(
				errors.CodeInvalidData,
				"",
				parseCtx.LineNumber,
				"record",
				strings.Join(record, ","),
				fmt.Errorf("row has %d fields, header has %d", len(record), headers),
			).WithSuggestion("Quote field values that contain the delimiter")
		}

		if bp.config.MaxFieldSize > 0 {
			for i, field := range record {
				if len(field) > bp.config.MaxFieldSize {
					parseCtx.AddError(i, fmt.Sprintf("field_%d", i), field[:50]+"...",
						fmt.Sprintf("field exceeds maximum size of %d bytes", bp.config.MaxFieldSize), nil)

					return nil, errors.ParseError(
						errors.CodeInvalidData,
						"",
						parseCtx.LineNumber,
						fmt.Sprintf("field_%d", i),
						field[:50]+"...",
						fmt.Errorf("field size limit exceeded"),
					).WithSuggestion(fmt.Sprintf("Reduce field size to under %d bytes", bp.config.MaxFieldSize))
				}
			}
		}

		return record, nil
	}
}

// isEmptyRecord checks if all fields in a record are empty or whitespace
func (bp *BaseParser) isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// GetFieldValue safely retrieves a field value by name
func (bp *BaseParser) GetFieldValue(record []string, parseCtx *ParseContext, fieldName string) (string, error) {
	index := parseCtx.GetColumnIndex(fieldName)
	if index == -1 {
		return "", errors.ParseError(
			errors.CodeMissingColumn,
			"",
			parseCtx.LineNumber,
			fieldName,
			"",
			fmt.Errorf("field '%s' not found in headers", fieldName),
		).WithSuggestion(fmt.Sprintf("Check the file headers. Available headers: %v", parseCtx.Headers))
	}

	if index >= len(record) {
		// XLSX rows drop trailing empty cells, so a short record just
		// means the field is blank.
		return "", nil
	}

	value := strings.TrimSpace(record[index])
	return value, nil
}

// RequireFieldValue retrieves a field value and fails when it is blank
func (bp *BaseParser) RequireFieldValue(record []string, parseCtx *ParseContext, fieldName string) (string, error) {
	value, err := bp.GetFieldValue(record, parseCtx, fieldName)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", errors.ParseError(
			errors.CodeMissingField,
			"",
			parseCtx.LineNumber,
			fieldName,
			"",
			fmt.Errorf("field '%s' is empty", fieldName),
		).WithSuggestion(fmt.Sprintf("Provide a value for the '%s' column", fieldName))
	}
	return value, nil
}

// ParseStats holds statistics about a parsing operation
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	RecordsValid  int
	ErrorCount    int
	Errors        []*ParseError
}

// NewParseStats creates a new ParseStats instance
func NewParseStats() *ParseStats {
	return &ParseStats{
		Errors: make([]*ParseError, 0),
	}
}

// AddError adds an error to the parsing statistics
func (ps *ParseStats) AddError(err *ParseError) {
	ps.Errors = append(ps.Errors, err)
	ps.ErrorCount++
}

// HasErrors returns true if there were any parsing errors
func (ps *ParseStats) HasErrors() bool {
	return ps.ErrorCount > 0
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records (%d valid), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, ps.ErrorCount)
}

// GetSampleErrors returns a sample of the parsing errors for logging
func (ps *ParseStats) GetSampleErrors(maxSamples int) []string {
	if len(ps.Errors) == 0 {
		return nil
	}

	var samples []string
	limit := len(ps.Errors)
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}

	for i := 0; i < limit; i++ {
		samples = append(samples, ps.Errors[i].Error())
	}

	return samples
}
