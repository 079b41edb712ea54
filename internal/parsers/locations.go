package parsers

import (
	"context"
	"fmt"
	"io"
	"sort"

	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/pkg/errors"
	"vendor-normalization-service/pkg/logger"
)

// LocationParser reads the location to vendor relation from a CSV file or
// XLSX workbook. Each row is one (location, vendor) pair; rows are
// aggregated into one Location per distinct location name, preserving the
// order vendors first appear.
type LocationParser struct {
	*BaseParser
	config *LocationParserConfig
	logger logger.Logger
}

// NewLocationParser creates a new LocationParser with the given configuration
func NewLocationParser(config *LocationParserConfig) (*LocationParser, error) {
	if config == nil {
		config = DefaultLocationParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"location_parser_config",
			config,
			err,
		).WithSuggestion("Check the location parser configuration values")
	}

	parseConfig := DefaultParseConfig()
	parseConfig.HasHeader = config.HasHeader
	parseConfig.Delimiter = config.Delimiter

	log := logger.GetGlobalLogger().WithComponent("location_parser")

	return &LocationParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		logger:     log,
	}, nil
}

// ParseLocations parses the location relation from a file
func (lp *LocationParser) ParseLocations(filePath string) ([]*models.Location, *ParseStats, error) {
	return lp.ParseLocationsWithContext(context.Background(), filePath)
}

// ParseLocationsWithContext parses the location relation with cancellation support
func (lp *LocationParser) ParseLocationsWithContext(ctx context.Context, filePath string) ([]*models.Location, *ParseStats, error) {
	lp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"operation": "parse_locations",
	}).Info("Starting location relation parsing")

	closer, reader, err := lp.Open(filePath)
	if err != nil {
		lp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open location file")
		return nil, nil, err
	}
	defer closer.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	locationColumn := lp.config.GetColumnName("location_name")
	vendorColumn := lp.config.GetColumnName("vendor_name")

	if err := lp.ReadHeaders(reader, parseCtx, []string{locationColumn, vendorColumn}); err != nil {
		return nil, stats, errors.ParseError(
			errors.CodeMissingColumn,
			filePath,
			parseCtx.LineNumber,
			"headers",
			"",
			err,
		).WithSuggestion(fmt.Sprintf("Ensure the location file has %q and %q columns", locationColumn, vendorColumn))
	}

	byName := make(map[string]*models.Location)
	var order []string

	for {
		if parseCtx.IsCancelled() {
			lp.logger.Warn("Location parsing was cancelled")
			return nil, stats, errors.InternalError(
				errors.CodeUnexpectedError,
				"location_parsing",
				fmt.Errorf("parsing cancelled by context"),
			)
		}

		record, err := lp.ReadRecord(reader, parseCtx)
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

		locationName, err := lp.RequireFieldValue(record, parseCtx, locationColumn)
		if err != nil {
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Field:   locationColumn,
				Message: "missing location name",
				Err:     err,
			})
			continue
		}

		vendorName, err := lp.GetFieldValue(record, parseCtx, vendorColumn)
		if err != nil {
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Field:   vendorColumn,
				Message: "missing vendor name",
				Err:     err,
			})
			continue
		}

		location, exists := byName[locationName]
		if !exists {
			location = models.NewLocation(locationName)
			byName[locationName] = location
			order = append(order, locationName)
		}

		// A location row with a blank vendor still registers the
		// location; quality checks report it as empty.
		if vendorName != "" {
			location.AddVendor(models.NewCanonicalVendor(vendorName))
		}

		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	locations := make([]*models.Location, 0, len(order))
	for _, name := range order {
		locations = append(locations, byName[name])
	}

	lp.logger.WithFields(logger.Fields{
		"file_path":        filePath,
		"total_lines":      stats.TotalLines,
		"locations_loaded": len(locations),
		"error_count":      stats.ErrorCount,
	}).Info("Location relation parsing completed")

	return locations, stats, nil
}

// LocationVendorCounts returns per-location vendor counts. Used for
// reference diagnostics.
func LocationVendorCounts(locations []*models.Location) map[string]int {
	counts := make(map[string]int, len(locations))
	for _, location := range locations {
		counts[location.Name] = location.VendorCount()
	}
	return counts
}

// SortLocationsByName sorts locations in place by name
func SortLocationsByName(locations []*models.Location) {
	sort.Slice(locations, func(i, j int) bool {
		return locations[i].Name < locations[j].Name
	})
}
