package parsers

import (
	"context"
	"fmt"
	"io"

	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/pkg/errors"
	"vendor-normalization-service/pkg/logger"
)

// VendorParser reads the canonical vendor list from a CSV file or XLSX
// workbook. The list is the only valid target of a match, so duplicate
// names are collapsed and blank rows dropped.
type VendorParser struct {
	*BaseParser
	config *VendorParserConfig
	logger logger.Logger
}

// NewVendorParser creates a new VendorParser with the given configuration
func NewVendorParser(config *VendorParserConfig) (*VendorParser, error) {
	if config == nil {
		config = DefaultVendorParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"vendor_parser_config",
			config,
			err,
		).WithSuggestion("Check the vendor parser configuration values")
	}

	parseConfig := DefaultParseConfig()
	parseConfig.HasHeader = config.HasHeader
	parseConfig.Delimiter = config.Delimiter

	log := logger.GetGlobalLogger().WithComponent("vendor_parser")

	return &VendorParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		logger:     log,
	}, nil
}

// ParseVendors parses the canonical vendor list from a file
func (vp *VendorParser) ParseVendors(filePath string) ([]*models.CanonicalVendor, *ParseStats, error) {
	return vp.ParseVendorsWithContext(context.Background(), filePath)
}

// ParseVendorsWithContext parses the vendor list with cancellation support
func (vp *VendorParser) ParseVendorsWithContext(ctx context.Context, filePath string) ([]*models.CanonicalVendor, *ParseStats, error) {
	vp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"operation": "parse_vendors",
	}).Info("Starting vendor list parsing")

	closer, reader, err := vp.Open(filePath)
	if err != nil {
		vp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open vendor file")
		return nil, nil, err
	}
	defer closer.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	nameColumn := vp.config.GetColumnName("vendor_name")
	if err := vp.ReadHeaders(reader, parseCtx, []string{nameColumn}); err != nil {
		return nil, stats, errors.ParseError(
			errors.CodeMissingColumn,
			filePath,
			parseCtx.LineNumber,
			"headers",
			"",
			err,
		).WithSuggestion(fmt.Sprintf("Ensure the vendor file has a %q column", nameColumn))
	}

	var vendors []*models.CanonicalVendor
	seen := make(map[string]bool)

	for {
		if parseCtx.IsCancelled() {
			vp.logger.Warn("Vendor parsing was cancelled")
			return vendors, stats, errors.InternalError(
				errors.CodeUnexpectedError,
				"vendor_parsing",
				fmt.Errorf("parsing cancelled by context"),
			)
		}

		record, err := vp.ReadRecord(reader, parseCtx)
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

		name, err := vp.GetFieldValue(record, parseCtx, nameColumn)
		if err != nil {
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Field:   nameColumn,
				Message: "missing vendor name",
				Err:     err,
			})
			continue
		}

		vendor := models.NewCanonicalVendor(name)
		if err := vendor.Validate(); err != nil {
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Field:   nameColumn,
				Value:   name,
				Message: "invalid vendor record",
				Err:     err,
			})
			continue
		}

		if seen[vendor.Name] {
			continue
		}
		seen[vendor.Name] = true

		vendors = append(vendors, vendor)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	vp.logger.WithFields(logger.Fields{
		"file_path":      filePath,
		"total_lines":    stats.TotalLines,
		"vendors_loaded": len(vendors),
		"error_count":    stats.ErrorCount,
	}).Info("Vendor list parsing completed")

	if len(vendors) == 0 {
		return nil, stats, errors.ResolutionError(
			errors.CodeEmptyReference,
			"canonical_vendors",
			fmt.Errorf("no valid vendors in %s", filePath),
		).WithSuggestion("Check that the vendor file contains at least one vendor name")
	}

	return vendors, stats, nil
}
