// Package resolver orchestrates the vendor name resolution pipeline.
//
// The pipeline loads the reference data (canonical vendors, the location
// relation, manual overrides), streams the invoice export, aggregates
// invoices per distinct raw vendor name, and runs each distinct name
// through the matching cascade exactly once. Occurrence counts, amount
// totals and counterparty sets are carried alongside every resolution so
// reports can weight results by invoice volume and value.
package resolver

import (
	"context"
	"fmt"
	"os"
	"time"

	"vendor-normalization-service/internal/matcher"
	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/internal/normalize"
	"vendor-normalization-service/internal/parsers"
	"vendor-normalization-service/pkg/errors"
	"vendor-normalization-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// ResolutionService runs the complete resolution pipeline
type ResolutionService struct {
	vendorParser   *parsers.VendorParser
	locationParser *parsers.LocationParser
	invoiceParser  *parsers.InvoiceParser
	overrideParser *parsers.OverrideParser

	engine       *matcher.MatchingEngine
	preprocessor *InvoicePreprocessor
	config       *Config
	logger       logger.Logger
}

// Config holds configuration options for the resolution service
type Config struct {
	// Processing options
	BatchSize         int
	ProgressReporting bool

	// Invoice exports at or above this size in bytes are parsed through
	// the batched streaming parser, which adds progress reporting and an
	// up-front record count estimate.
	StreamingThreshold int64

	// Validation options
	ValidateInputs bool

	// Output options
	IncludeQualityReport bool
	DetailedBreakdown    bool
}

// DefaultConfig returns a default configuration for the resolution service
func DefaultConfig() *Config {
	return &Config{
		BatchSize:            1000,
		ProgressReporting:    false,
		StreamingThreshold:   8 << 20, // 8 MB
		ValidateInputs:       true,
		IncludeQualityReport: true,
		DetailedBreakdown:    true,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.StreamingThreshold < 0 {
		return fmt.Errorf("streaming threshold cannot be negative, got %d", c.StreamingThreshold)
	}
	return nil
}

// ResolutionRequest represents one resolution run. The location relation
// and override table are optional inputs; the pipeline degrades to the
// global stages without them.
type ResolutionRequest struct {
	VendorFile   string
	LocationFile string
	InvoiceFile  string
	OverrideFile string

	VendorConfig   *parsers.VendorParserConfig
	LocationConfig *parsers.LocationParserConfig
	InvoiceConfig  *parsers.InvoiceParserConfig
	OverrideConfig *parsers.OverrideParserConfig
}

// Validate validates the resolution request
func (r *ResolutionRequest) Validate() error {
	if r.VendorFile == "" {
		return fmt.Errorf("vendor file path is required")
	}

	if r.InvoiceFile == "" {
		return fmt.Errorf("invoice file path is required")
	}

	return nil
}

// NameResolution is the disposition of one distinct raw vendor name,
// weighted with the invoice volume it represents.
type NameResolution struct {
	*models.MatchResult

	Occurrences    int             `json:"occurrences"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Counterparties []string        `json:"counterparties,omitempty"`

	// Invoice count per counterparty, for unmatched analysis
	CounterpartyCounts map[string]int `json:"counterparty_counts,omitempty"`
}

// ResultSummary provides a high-level overview of a resolution run
type ResultSummary struct {
	// Distinct name counts
	DistinctNames  int `json:"distinct_names"`
	MatchedNames   int `json:"matched_names"`
	InvalidNames   int `json:"invalid_names"`
	UnmatchedNames int `json:"unmatched_names"`

	// Invoice-weighted counts
	TotalInvoices     int `json:"total_invoices"`
	MatchedInvoices   int `json:"matched_invoices"`
	InvalidInvoices   int `json:"invalid_invoices"`
	UnmatchedInvoices int `json:"unmatched_invoices"`

	// Financial summary
	TotalAmount     decimal.Decimal `json:"total_amount"`
	MatchedAmount   decimal.Decimal `json:"matched_amount"`
	InvalidAmount   decimal.Decimal `json:"invalid_amount"`
	UnmatchedAmount decimal.Decimal `json:"unmatched_amount"`

	// Breakdown by cascade stage and invalid reason
	MethodBreakdown        map[string]int `json:"method_breakdown,omitempty"`
	InvalidReasonBreakdown map[string]int `json:"invalid_reason_breakdown,omitempty"`

	// Invoice-weighted match rate, 0-100
	MatchRate float64 `json:"match_rate"`

	// Reference data loaded
	VendorsLoaded   int `json:"vendors_loaded"`
	LocationsLoaded int `json:"locations_loaded"`
	OverridesLoaded int `json:"overrides_loaded"`

	ProcessingDuration time.Duration `json:"processing_duration"`
}

// ProcessingStats contains detailed processing statistics
type ProcessingStats struct {
	FilesProcessed int `json:"files_processed"`
	ParseErrors    int `json:"parse_errors"`

	RecordsPerSecond    float64       `json:"records_per_second"`
	TotalProcessingTime time.Duration `json:"total_processing_time"`
	ParsingTime         time.Duration `json:"parsing_time"`
	MatchingTime        time.Duration `json:"matching_time"`
}

// ResolutionResult contains the complete results of a resolution run
type ResolutionResult struct {
	Summary     *ResultSummary    `json:"summary"`
	Resolutions []*NameResolution `json:"resolutions,omitempty"`

	QualityReport   *matcher.QualityReport `json:"quality_report,omitempty"`
	ProcessingStats *ProcessingStats       `json:"processing_stats,omitempty"`

	ProcessedAt time.Time          `json:"processed_at"`
	Request     *ResolutionRequest `json:"request,omitempty"`
}

// NewResolutionService creates a new resolution service
func NewResolutionService(
	matchingConfig *matcher.MatchingConfig,
	preprocessingConfig *PreprocessingConfig,
	config *Config,
) (*ResolutionService, error) {

	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if matchingConfig != nil {
		if err := matchingConfig.Validate(); err != nil {
			return nil, fmt.Errorf("invalid matching configuration: %w", err)
		}
	}

	vendorParser, err := parsers.NewVendorParser(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create vendor parser: %w", err)
	}

	locationParser, err := parsers.NewLocationParser(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create location parser: %w", err)
	}

	invoiceParser, err := parsers.NewInvoiceParser(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create invoice parser: %w", err)
	}

	overrideParser, err := parsers.NewOverrideParser(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create override parser: %w", err)
	}

	return &ResolutionService{
		vendorParser:   vendorParser,
		locationParser: locationParser,
		invoiceParser:  invoiceParser,
		overrideParser: overrideParser,
		engine:         matcher.NewMatchingEngine(matchingConfig),
		preprocessor:   NewInvoicePreprocessor(preprocessingConfig),
		config:         config,
		logger:         logger.GetGlobalLogger().WithComponent("resolution_service"),
	}, nil
}

// GetMatchingConfig returns the engine's matching configuration
func (rs *ResolutionService) GetMatchingConfig() *matcher.MatchingConfig {
	return rs.engine.Config
}

// Normalizer returns the engine's normalizer, shared so downstream
// consumers derive keys with the same stop-list the engine used
func (rs *ResolutionService) Normalizer() *normalize.Normalizer {
	return rs.engine.Normalizer()
}

// UpdateConfiguration replaces the service configuration
func (rs *ResolutionService) UpdateConfiguration(config *Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	rs.config = config
	return nil
}

// ProcessResolution performs the complete resolution pipeline
func (rs *ResolutionService) ProcessResolution(
	ctx context.Context,
	request *ResolutionRequest,
) (*ResolutionResult, error) {

	if err := request.Validate(); err != nil {
		return nil, errors.ValidationError(
			errors.CodeInvalidConfig,
			"resolution_request",
			request,
			err,
		).WithSuggestion("Check the input file paths in the resolution request")
	}

	startTime := time.Now()
	result := &ResolutionResult{
		ProcessedAt:     startTime,
		Request:         request,
		Summary:         newResultSummary(),
		ProcessingStats: &ProcessingStats{},
	}

	op := logger.NewOperationLogger("resolution", rs.logger)

	// Step 0: Up-front invoice file validation when configured. Catches
	// malformed files before the reference data is loaded.
	if rs.config.ValidateInputs {
		op.Step("validate_inputs")
		if err := rs.invoiceParser.ValidateInvoiceFile(request.InvoiceFile); err != nil {
			op.Error(err, "Invoice file validation failed")
			return nil, err
		}
	}

	// Step 1: Load reference data
	op.Step("load_reference")
	parseStart := time.Now()

	reference, err := rs.loadReference(ctx, request)
	if err != nil {
		op.Error(err, "Failed to load reference data")
		return nil, err
	}

	rs.engine.LoadReference(reference.vendors, reference.locations)
	rs.engine.LoadOverrides(reference.overrides)

	result.Summary.VendorsLoaded = len(reference.vendors)
	result.Summary.LocationsLoaded = len(reference.locations)
	result.Summary.OverridesLoaded = len(reference.overrides)
	result.ProcessingStats.FilesProcessed = reference.filesProcessed
	result.ProcessingStats.ParseErrors = reference.parseErrors

	// Step 2: Reference quality checks
	if rs.config.IncludeQualityReport {
		op.Step("quality_checks")
		checker := matcher.NewQualityChecker(rs.engine.Config, rs.engine.Normalizer())
		result.QualityReport = checker.Check(rs.engine.Index, rs.engine.Overrides)

		if result.QualityReport.HasFindings() {
			rs.logger.WithFields(logger.Fields{
				"key_collisions":  len(result.QualityReport.KeyCollisions),
				"near_duplicates": len(result.QualityReport.NearDuplicates),
				"empty_locations": len(result.QualityReport.EmptyLocations),
			}).Warn("Reference data quality findings")
		}
	}

	// Step 3: Stream invoices and aggregate per distinct raw name
	op.Step("aggregate_invoices")
	aggregator := newNameAggregator()
	rs.preprocessor.Reset()

	invoiceStats, err := rs.streamInvoices(ctx, request,
		func(batch []*models.InvoiceRecord) error {
			processed, err := rs.preprocessor.PreprocessInvoices(batch)
			if err != nil {
				return err
			}
			for _, invoice := range processed {
				aggregator.add(invoice)
			}
			return nil
		},
	)
	if err != nil {
		op.Error(err, "Failed to parse invoice file")
		return nil, errors.ResolutionError(
			errors.CodeProcessingError,
			"invoice_parsing",
			err,
		).WithSuggestion("Check the invoice file format and try again")
	}

	result.ProcessingStats.FilesProcessed++
	result.ProcessingStats.ParseErrors += invoiceStats.ErrorCount
	result.ProcessingStats.ParsingTime = time.Since(parseStart)
	result.Summary.TotalInvoices = aggregator.totalInvoices

	// Step 4: Resolve each distinct name once, in first-seen order
	op.Step("resolve_names")
	matchStart := time.Now()

	var tracker *logger.ProgressTracker
	if rs.config.ProgressReporting {
		tracker = logger.NewProgressTracker(logger.ProgressConfig{
			Operation: "resolve_names",
			Total:     int64(len(aggregator.order)),
			Logger:    rs.logger,
		})
	}

	result.Resolutions = make([]*NameResolution, 0, len(aggregator.order))
	for _, rawName := range aggregator.order {
		if err := ctx.Err(); err != nil {
			if tracker != nil {
				tracker.CompleteWithError(err)
			}
			return nil, errors.ResolutionError(
				errors.CodeProcessingError,
				"name_resolution",
				err,
			)
		}

		stats := aggregator.stats[rawName]
		resolution := &NameResolution{
			MatchResult:        rs.engine.Resolve(rawName, stats.counterparties),
			Occurrences:        stats.occurrences,
			TotalAmount:        stats.totalAmount,
			Counterparties:     stats.counterparties,
			CounterpartyCounts: stats.counterpartyCounts,
		}
		result.Resolutions = append(result.Resolutions, resolution)
		result.Summary.record(resolution)

		if tracker != nil {
			tracker.Increment()
		}
	}

	if tracker != nil {
		tracker.Complete()
	}

	result.ProcessingStats.MatchingTime = time.Since(matchStart)
	result.Summary.finalize()

	if !rs.config.DetailedBreakdown {
		result.Summary.MethodBreakdown = nil
		result.Summary.InvalidReasonBreakdown = nil
	}

	result.Summary.ProcessingDuration = time.Since(startTime)
	result.ProcessingStats.TotalProcessingTime = result.Summary.ProcessingDuration
	if secs := result.ProcessingStats.TotalProcessingTime.Seconds(); secs > 0 {
		result.ProcessingStats.RecordsPerSecond = float64(result.Summary.TotalInvoices) / secs
	}

	op.WithFields(logger.Fields{
		"distinct_names": result.Summary.DistinctNames,
		"matched_names":  result.Summary.MatchedNames,
		"match_rate":     fmt.Sprintf("%.1f%%", result.Summary.MatchRate),
	}).Success("Resolution completed")

	return result, nil
}

// streamInvoices feeds invoice batches from the export file to fn. Small
// exports go through the plain batched reader; exports at or above the
// configured streaming threshold use the streaming parser, which reports
// progress against an estimated record count.
func (rs *ResolutionService) streamInvoices(
	ctx context.Context,
	request *ResolutionRequest,
	fn parsers.ParseInvoicesCallback,
) (*parsers.ParseStats, error) {

	if info, err := os.Stat(request.InvoiceFile); err == nil && info.Size() >= rs.config.StreamingThreshold {
		streamConfig := parsers.DefaultStreamingConfig()
		streamConfig.BatchSize = rs.config.BatchSize
		streamConfig.ReportProgress = rs.config.ProgressReporting

		streaming, err := parsers.NewStreamingInvoiceParser(request.InvoiceConfig, streamConfig)
		if err != nil {
			return nil, err
		}

		var progress parsers.ProgressCallback
		if rs.config.ProgressReporting {
			progress = func(report *parsers.ProgressReport) {
				rs.logger.WithFields(logger.Fields{
					"records_parsed": report.ProcessedRecords,
					"records_valid":  report.ValidRecords,
					"errors":         report.ErrorCount,
					"percent":        fmt.Sprintf("%.1f%%", report.PercentComplete),
				}).Info("Invoice parsing progress")
			}
		}

		return streaming.ParseInvoicesStreamAdvanced(ctx, request.InvoiceFile, fn, progress)
	}

	invoiceParser := rs.invoiceParser
	if request.InvoiceConfig != nil {
		custom, err := parsers.NewInvoiceParser(request.InvoiceConfig)
		if err != nil {
			return nil, err
		}
		invoiceParser = custom
	}

	return invoiceParser.ParseInvoicesStreamWithContext(ctx, request.InvoiceFile, rs.config.BatchSize, fn)
}

// referenceData bundles everything loaded ahead of invoice processing
type referenceData struct {
	vendors   []*models.CanonicalVendor
	locations []*models.Location
	overrides []*models.OverrideEntry

	filesProcessed int
	parseErrors    int
}

// loadReference parses the vendor list and the optional location and
// override files.
func (rs *ResolutionService) loadReference(ctx context.Context, request *ResolutionRequest) (*referenceData, error) {
	reference := &referenceData{}

	vendorParser := rs.vendorParser
	if request.VendorConfig != nil {
		custom, err := parsers.NewVendorParser(request.VendorConfig)
		if err != nil {
			return nil, err
		}
		vendorParser = custom
	}

	vendors, stats, err := vendorParser.ParseVendorsWithContext(ctx, request.VendorFile)
	if err != nil {
		return nil, err
	}
	reference.vendors = vendors
	reference.filesProcessed++
	reference.parseErrors += stats.ErrorCount

	if request.LocationFile != "" {
		locationParser := rs.locationParser
		if request.LocationConfig != nil {
			custom, err := parsers.NewLocationParser(request.LocationConfig)
			if err != nil {
				return nil, err
			}
			locationParser = custom
		}

		locations, stats, err := locationParser.ParseLocationsWithContext(ctx, request.LocationFile)
		if err != nil {
			return nil, err
		}
		reference.locations = locations
		reference.filesProcessed++
		reference.parseErrors += stats.ErrorCount
	}

	if request.OverrideFile != "" {
		overrideParser := rs.overrideParser
		if request.OverrideConfig != nil {
			custom, err := parsers.NewOverrideParser(request.OverrideConfig)
			if err != nil {
				return nil, err
			}
			overrideParser = custom
		}

		overrides, stats, err := overrideParser.ParseOverridesWithContext(ctx, request.OverrideFile)
		if err != nil {
			return nil, err
		}
		reference.overrides = overrides
		reference.filesProcessed++
		reference.parseErrors += stats.ErrorCount
	}

	return reference, nil
}

// nameAggregator collects per-name invoice statistics in first-seen order
type nameAggregator struct {
	order         []string
	stats         map[string]*nameStats
	totalInvoices int
}

type nameStats struct {
	occurrences        int
	totalAmount        decimal.Decimal
	counterparties     []string
	counterpartyCounts map[string]int
}

func newNameAggregator() *nameAggregator {
	return &nameAggregator{
		stats: make(map[string]*nameStats),
	}
}

// add records one invoice against its raw vendor name. Counterparties are
// kept distinct in the order they first appear; the location stages try
// them in that order.
func (na *nameAggregator) add(invoice *models.InvoiceRecord) {
	na.totalInvoices++

	stats, exists := na.stats[invoice.VendorNameRaw]
	if !exists {
		stats = &nameStats{
			totalAmount:        decimal.Zero,
			counterpartyCounts: make(map[string]int),
		}
		na.stats[invoice.VendorNameRaw] = stats
		na.order = append(na.order, invoice.VendorNameRaw)
	}

	stats.occurrences++
	stats.totalAmount = stats.totalAmount.Add(invoice.Amount)

	if invoice.Counterparty != "" {
		if stats.counterpartyCounts[invoice.Counterparty] == 0 {
			stats.counterparties = append(stats.counterparties, invoice.Counterparty)
		}
		stats.counterpartyCounts[invoice.Counterparty]++
	}
}

func newResultSummary() *ResultSummary {
	return &ResultSummary{
		TotalAmount:            decimal.Zero,
		MatchedAmount:          decimal.Zero,
		InvalidAmount:          decimal.Zero,
		UnmatchedAmount:        decimal.Zero,
		MethodBreakdown:        make(map[string]int),
		InvalidReasonBreakdown: make(map[string]int),
	}
}

// record folds one resolution into the summary
func (s *ResultSummary) record(resolution *NameResolution) {
	s.DistinctNames++
	s.TotalAmount = s.TotalAmount.Add(resolution.TotalAmount)

	switch resolution.Outcome {
	case models.OutcomeMatched:
		s.MatchedNames++
		s.MatchedInvoices += resolution.Occurrences
		s.MatchedAmount = s.MatchedAmount.Add(resolution.TotalAmount)
		s.MethodBreakdown[resolution.Method.String()]++
	case models.OutcomeInvalid:
		s.InvalidNames++
		s.InvalidInvoices += resolution.Occurrences
		s.InvalidAmount = s.InvalidAmount.Add(resolution.TotalAmount)
		s.InvalidReasonBreakdown[resolution.InvalidReason.String()]++
	default:
		s.UnmatchedNames++
		s.UnmatchedInvoices += resolution.Occurrences
		s.UnmatchedAmount = s.UnmatchedAmount.Add(resolution.TotalAmount)
	}
}

// finalize computes derived figures after all resolutions are recorded
func (s *ResultSummary) finalize() {
	if s.TotalInvoices > 0 {
		s.MatchRate = float64(s.MatchedInvoices) / float64(s.TotalInvoices) * 100
	}
}
