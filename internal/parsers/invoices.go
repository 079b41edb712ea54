package parsers

import (
	"context"
	"fmt"
	"io"

	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/internal/normalize"
	"vendor-normalization-service/pkg/errors"
	"vendor-normalization-service/pkg/logger"
)

// InvoiceParser reads invoice export CSV files. Raw vendor names are
// pre-cleaned on load (control characters stripped, whitespace collapsed,
// casing preserved) so downstream stages see one canonical raw form.
type InvoiceParser struct {
	*BaseParser
	config *InvoiceParserConfig
	logger logger.Logger
}

// NewInvoiceParser creates a new InvoiceParser with the given configuration
func NewInvoiceParser(config *InvoiceParserConfig) (*InvoiceParser, error) {
	if config == nil {
		config = DefaultInvoiceParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"invoice_parser_config",
			config,
			err,
		).WithSuggestion("Check the invoice parser configuration values")
	}

	parseConfig := DefaultParseConfig()
	parseConfig.HasHeader = config.HasHeader
	parseConfig.Delimiter = config.Delimiter

	log := logger.GetGlobalLogger().WithComponent("invoice_parser")

	log.WithFields(logger.Fields{
		"has_header": config.HasHeader,
		"delimiter":  string(config.Delimiter),
	}).Debug("Created invoice parser")

	return &InvoiceParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		logger:     log,
	}, nil
}

// ParseInvoices parses an invoice export file
func (ip *InvoiceParser) ParseInvoices(filePath string) ([]*models.InvoiceRecord, *ParseStats, error) {
	return ip.ParseInvoicesWithContext(context.Background(), filePath)
}

// ParseInvoicesWithContext parses invoices with cancellation support
func (ip *InvoiceParser) ParseInvoicesWithContext(ctx context.Context, filePath string) ([]*models.InvoiceRecord, *ParseStats, error) {
	ip.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"operation": "parse_invoices",
	}).Info("Starting invoice parsing")

	closer, reader, err := ip.Open(filePath)
	if err != nil {
		ip.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open invoice file")
		return nil, nil, err
	}
	defer closer.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	if err := ip.ReadHeaders(reader, parseCtx, ip.getRequiredHeaders()); err != nil {
		ip.logger.WithError(err).WithFields(logger.Fields{
			"file_path":        filePath,
			"required_headers": ip.getRequiredHeaders(),
		}).Error("Failed to read or validate headers")

		return nil, stats, errors.ParseError(
			errors.CodeMissingColumn,
			filePath,
			parseCtx.LineNumber,
			"headers",
			"",
			err,
		).WithSuggestion("Ensure the invoice file has the required headers: " + fmt.Sprintf("%v", ip.getRequiredHeaders()))
	}

	var invoices []*models.InvoiceRecord

	for {
		if parseCtx.IsCancelled() {
			ip.logger.Warn("Invoice parsing was cancelled")
			return invoices, stats, errors.InternalError(
				errors.CodeUnexpectedError,
				"invoice_parsing",
				fmt.Errorf("parsing cancelled by context"),
			)
		}

		record, err := ip.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}

			ip.logger.WithError(err).WithField("line_number", parseCtx.LineNumber).Warn("Failed to read record")
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "failed to read record",
				Err:     err,
			})
			continue
		}

		stats.RecordsParsed++

		invoice, parseErr := ip.parseInvoiceFromRecord(record, parseCtx, filePath)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		invoices = append(invoices, invoice)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	ip.logger.WithFields(logger.Fields{
		"file_path":      filePath,
		"total_lines":    stats.TotalLines,
		"records_parsed": stats.RecordsParsed,
		"records_valid":  stats.RecordsValid,
		"error_count":    stats.ErrorCount,
	}).Info("Invoice parsing completed")

	if stats.HasErrors() {
		ip.logger.WithField("sample_errors", stats.GetSampleErrors(3)).Warn("Encountered errors during parsing")
	}

	return invoices, stats, nil
}

// getRequiredHeaders returns the list of required header names.
// Amount and created date are optional columns.
func (ip *InvoiceParser) getRequiredHeaders() []string {
	return []string{
		ip.config.GetColumnName("invoice_id"),
		ip.config.GetColumnName("vendor_name"),
		ip.config.GetColumnName("counterparty"),
	}
}

// parseInvoiceFromRecord creates an InvoiceRecord from a CSV record
func (ip *InvoiceParser) parseInvoiceFromRecord(record []string, parseCtx *ParseContext, filePath string) (*models.InvoiceRecord, *ParseError) {
	invoiceID, err := ip.RequireFieldValue(record, parseCtx, ip.config.GetColumnName("invoice_id"))
	if err != nil {
		parseError := errors.ParseError(
			errors.CodeMissingField,
			filePath,
			parseCtx.LineNumber,
			ip.config.GetColumnName("invoice_id"),
			"",
			err,
		).WithSuggestion("Ensure the invoice ID column exists and has a value")

		return nil, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   ip.config.GetColumnName("invoice_id"),
			Message: parseError.Message,
			Err:     parseError,
		}
	}

	rawName, err := ip.GetFieldValue(record, parseCtx, ip.config.GetColumnName("vendor_name"))
	if err != nil {
		parseError := errors.ParseError(
			errors.CodeMissingField,
			filePath,
			parseCtx.LineNumber,
			ip.config.GetColumnName("vendor_name"),
			"",
			err,
		).WithSuggestion("Ensure the vendor name column exists")

		return nil, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   ip.config.GetColumnName("vendor_name"),
			Message: parseError.Message,
			Err:     parseError,
		}
	}

	counterparty, err := ip.GetFieldValue(record, parseCtx, ip.config.GetColumnName("counterparty"))
	if err != nil {
		parseError := errors.ParseError(
			errors.CodeMissingField,
			filePath,
			parseCtx.LineNumber,
			ip.config.GetColumnName("counterparty"),
			"",
			err,
		).WithSuggestion("Ensure the counterparty column exists")

		return nil, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   ip.config.GetColumnName("counterparty"),
			Message: parseError.Message,
			Err:     parseError,
		}
	}

	amountStr, _ := ip.GetFieldValue(record, parseCtx, ip.config.GetColumnName("amount"))
	dateStr, _ := ip.GetFieldValue(record, parseCtx, ip.config.GetColumnName("created_date"))

	invoice := models.NewInvoiceRecord(
		invoiceID,
		normalize.CleanRawName(rawName),
		normalize.CleanRawName(counterparty),
	)

	// Amount and date are optional; blank fields leave the zero value.
	if amountStr != "" {
		amount, err := models.ParseDecimalFromString(amountStr)
		if err != nil {
			ip.logger.WithError(err).WithFields(logger.Fields{
				"line_number": parseCtx.LineNumber,
				"invoice_id":  invoiceID,
				"amount":      amountStr,
			}).Warn("Invalid invoice amount")

			parseError := errors.InvalidAmountError(
				filePath, parseCtx.LineNumber, ip.config.GetColumnName("amount"), amountStr)

			return nil, &ParseError{
				Line:    parseCtx.LineNumber,
				Field:   ip.config.GetColumnName("amount"),
				Value:   amountStr,
				Message: parseError.Message,
				Err:     parseError,
			}
		}
		invoice.Amount = amount
	}

	if dateStr != "" {
		created, err := models.ParseTimeWithFormats(dateStr)
		if err != nil {
			ip.logger.WithError(err).WithFields(logger.Fields{
				"line_number": parseCtx.LineNumber,
				"invoice_id":  invoiceID,
				"date":        dateStr,
			}).Warn("Invalid invoice date")

			parseError := errors.InvalidDateError(
				filePath, parseCtx.LineNumber, ip.config.GetColumnName("created_date"), dateStr)

			return nil, &ParseError{
				Line:    parseCtx.LineNumber,
				Field:   ip.config.GetColumnName("created_date"),
				Value:   dateStr,
				Message: parseError.Message,
				Err:     parseError,
			}
		}
		invoice.CreatedDate = created
	}

	return invoice, nil
}

// ParseInvoicesCallback defines a callback function for streaming parsing
type ParseInvoicesCallback func([]*models.InvoiceRecord) error

// ParseInvoicesStream parses invoices in streaming mode with batching
func (ip *InvoiceParser) ParseInvoicesStream(
	filePath string,
	batchSize int,
	callback ParseInvoicesCallback,
) (*ParseStats, error) {
	return ip.ParseInvoicesStreamWithContext(context.Background(), filePath, batchSize, callback)
}

// ParseInvoicesStreamWithContext parses invoices in streaming mode with context support
func (ip *InvoiceParser) ParseInvoicesStreamWithContext(
	ctx context.Context,
	filePath string,
	batchSize int,
	callback ParseInvoicesCallback,
) (*ParseStats, error) {
	if batchSize <= 0 {
		batchSize = 1000 // Default batch size
	}

	closer, reader, err := ip.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	if err := ip.ReadHeaders(reader, parseCtx, ip.getRequiredHeaders()); err != nil {
		return stats, fmt.Errorf("failed to read headers: %w", err)
	}

	batch := make([]*models.InvoiceRecord, 0, batchSize)

	for {
		if parseCtx.IsCancelled() {
			return stats, fmt.Errorf("parsing cancelled")
		}

		record, err := ip.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				if len(batch) > 0 {
					if callbackErr := callback(batch); callbackErr != nil {
						return stats, fmt.Errorf("callback error: %w", callbackErr)
					}
				}
				break
			}
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "failed to read record",
				Err:     err,
			})
			continue
		}

		stats.RecordsParsed++

		invoice, parseErr := ip.parseInvoiceFromRecord(record, parseCtx, filePath)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		batch = append(batch, invoice)
		stats.RecordsValid++

		if len(batch) >= batchSize {
			if err := callback(batch); err != nil {
				return stats, fmt.Errorf("callback error: %w", err)
			}
			batch = batch[:0]
		}
	}

	stats.TotalLines = parseCtx.LineNumber

	return stats, nil
}

// ValidateInvoiceFile checks that a file has the expected invoice format
// by validating headers and sampling the first few records.
func (ip *InvoiceParser) ValidateInvoiceFile(filePath string) error {
	ip.logger.WithField("file_path", filePath).Info("Validating invoice file format")

	closer, reader, err := ip.Open(filePath)
	if err != nil {
		return err
	}
	defer closer.Close()

	parseCtx := NewParseContext(context.Background())

	if err := ip.ReadHeaders(reader, parseCtx, ip.getRequiredHeaders()); err != nil {
		return errors.ParseError(
			errors.CodeMissingColumn,
			filePath,
			parseCtx.LineNumber,
			"headers",
			"",
			err,
		).WithSuggestion("Ensure the invoice file has the required headers: " + fmt.Sprintf("%v", ip.getRequiredHeaders()))
	}

	recordCount := 0
	maxValidation := 10
	collector := errors.NewParseErrorCollector(maxValidation, true)

	for recordCount < maxValidation {
		record, err := ip.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			collector.Add(errors.NewEnhancedParseError(
				errors.CodeInvalidFormat,
				&errors.ParseContext{File: filePath, Line: parseCtx.LineNumber},
				"failed to read record",
				err,
			))
			continue
		}

		recordCount++

		if _, parseErr := ip.parseInvoiceFromRecord(record, parseCtx, filePath); parseErr != nil {
			if enhanced, ok := parseErr.Err.(*errors.EnhancedParseError); ok {
				collector.Add(enhanced)
			} else {
				collector.Add(errors.NewEnhancedParseError(
					errors.CodeInvalidData,
					&errors.ParseContext{File: filePath, Line: parseErr.Line, Column: parseErr.Field, Value: parseErr.Value},
					parseErr.Message,
					parseErr.Err,
				))
			}
		}
	}

	if recordCount == 0 {
		return errors.ValidationError(
			errors.CodeMissingField,
			"data_records",
			0,
			nil,
		).WithSuggestion("Ensure the file contains data rows after the header")
	}

	if collector.HasErrors() {
		ip.logger.WithFields(logger.Fields{
			"file_path":      filePath,
			"error_count":    len(collector.GetErrors()),
			"records_tested": recordCount,
			"details":        errors.FormatParseErrorsForUser(collector.GetErrors()),
		}).Error("Invoice file validation failed")

		return errors.ValidationError(
			errors.CodeInvalidData,
			"file_format",
			fmt.Sprintf("%d validation errors out of %d records tested", len(collector.GetErrors()), recordCount),
			collector.GetErrors()[0],
		).WithSuggestion("Fix the data format issues and try again")
	}

	ip.logger.WithFields(logger.Fields{
		"file_path":      filePath,
		"records_tested": recordCount,
	}).Info("Invoice file validation completed successfully")

	return nil
}
