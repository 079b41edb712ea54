package parsers

import (
	"context"
	"fmt"
	"io"

	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/pkg/errors"
	"vendor-normalization-service/pkg/logger"
)

// OverrideParser reads the manual override table from a CSV file or XLSX
// workbook. Each row maps one messy raw name to a canonical vendor.
type OverrideParser struct {
	*BaseParser
	config *OverrideParserConfig
	logger logger.Logger
}

// NewOverrideParser creates a new OverrideParser with the given configuration
func NewOverrideParser(config *OverrideParserConfig) (*OverrideParser, error) {
	if config == nil {
		config = DefaultOverrideParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"override_parser_config",
			config,
			err,
		).WithSuggestion("Check the override parser configuration values")
	}

	parseConfig := DefaultParseConfig()
	parseConfig.HasHeader = config.HasHeader
	parseConfig.Delimiter = config.Delimiter

	log := logger.GetGlobalLogger().WithComponent("override_parser")

	return &OverrideParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		logger:     log,
	}, nil
}

// ParseOverrides parses the override table from a file
func (op *OverrideParser) ParseOverrides(filePath string) ([]*models.OverrideEntry, *ParseStats, error) {
	return op.ParseOverridesWithContext(context.Background(), filePath)
}

// ParseOverridesWithContext parses the override table with cancellation support
func (op *OverrideParser) ParseOverridesWithContext(ctx context.Context, filePath string) ([]*models.OverrideEntry, *ParseStats, error) {
	op.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"operation": "parse_overrides",
	}).Info("Starting override table parsing")

	closer, reader, err := op.Open(filePath)
	if err != nil {
		op.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open override file")
		return nil, nil, err
	}
	defer closer.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	rawColumn := op.config.GetColumnName("raw_name")
	vendorColumn := op.config.GetColumnName("normalized_vendor")

	if err := op.ReadHeaders(reader, parseCtx, []string{rawColumn, vendorColumn}); err != nil {
		return nil, stats, errors.ParseError(
			errors.CodeMissingColumn,
			filePath,
			parseCtx.LineNumber,
			"headers",
			"",
			err,
		).WithSuggestion(fmt.Sprintf("Ensure the override file has %q and %q columns", rawColumn, vendorColumn))
	}

	var entries []*models.OverrideEntry

	for {
		if parseCtx.IsCancelled() {
			op.logger.Warn("Override parsing was cancelled")
			return entries, stats, errors.InternalError(
				errors.CodeUnexpectedError,
				"override_parsing",
				fmt.Errorf("parsing cancelled by context"),
			)
		}

		record, err := op.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
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

		rawName, err := op.GetFieldValue(record, parseCtx, rawColumn)
		if err != nil {
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Field:   rawColumn,
				Message: "missing raw name",
				Err:     err,
			})
			continue
		}

		vendorName, err := op.GetFieldValue(record, parseCtx, vendorColumn)
		if err != nil {
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Field:   vendorColumn,
				Message: "missing target vendor",
				Err:     err,
			})
			continue
		}

		entry := &models.OverrideEntry{RawName: rawName, VendorName: vendorName}
		if err := entry.Validate(); err != nil {
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Value:   rawName,
				Message: "invalid override entry",
				Err:     err,
			})
			continue
		}

		entries = append(entries, entry)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	op.logger.WithFields(logger.Fields{
		"file_path":        filePath,
		"total_lines":      stats.TotalLines,
		"overrides_loaded": len(entries),
		"error_count":      stats.ErrorCount,
	}).Info("Override table parsing completed")

	return entries, stats, nil
}
