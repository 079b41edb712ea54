// Package reporter generates the resolution run artifacts.
//
// A run emits four CSV artifacts plus a summary:
//   - the normalization map (resolved raw name -> canonical vendor)
//   - the flagged-invalid report (unusable names with reasons)
//   - the unmatched report (valid names with no canonical target, with
//     both normalized forms for manual review)
//   - the match-detail audit report (method, score, constraining location)
//
// The invalid and unmatched reports carry invoice occurrence counts and
// are sorted by count descending so review effort lands on the names
// that move the most invoices. The summary is available as console text
// or JSON.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/internal/normalize"
	"vendor-normalization-service/internal/resolver"
)

// OutputFormat represents the supported summary output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON:
		return true
	default:
		return false
	}
}

// Artifact file names, matching the review workflow the mapping feeds
const (
	NormalizationMapFile = "vendor_name_normalization_map.csv"
	InvalidReportFile    = "FLAGGED_invalid_vendor_names.csv"
	UnmatchedReportFile  = "UNMATCHED_need_manual_mapping.csv"
	MatchDetailsFile     = "match_details.csv"
)

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	// Summary output format
	Format OutputFormat `json:"format"`

	// Include the method breakdown table in the summary
	IncludeMethodBreakdown bool `json:"include_method_breakdown"`

	// Include processing statistics in the summary
	IncludeProcessingStats bool `json:"include_processing_stats"`

	// Number of unmatched counterparties listed in the summary
	TopCounterparties int `json:"top_counterparties"`

	// Number of invalid and unmatched names previewed in the summary
	TopNames int `json:"top_names"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:                 FormatConsole,
		IncludeMethodBreakdown: true,
		IncludeProcessingStats: true,
		TopCounterparties:      20,
		TopNames:               10,
		CSVDelimiter:           ',',
		CSVHeaders:             true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.TopCounterparties < 0 {
		return fmt.Errorf("top counterparties must be non-negative, got %d", c.TopCounterparties)
	}

	if c.TopNames < 0 {
		return fmt.Errorf("top names must be non-negative, got %d", c.TopNames)
	}

	return nil
}

// ReportGenerator renders resolution results into artifacts and summaries
type ReportGenerator struct {
	config     *ReportConfig
	normalizer *normalize.Normalizer
}

// NewReportGenerator creates a new report generator. The normalizer is
// used to annotate the unmatched report with both normalized forms; nil
// falls back to the default stop-list.
func NewReportGenerator(config *ReportConfig, normalizer *normalize.Normalizer) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	if normalizer == nil {
		normalizer = normalize.NewNormalizer(nil)
	}

	return &ReportGenerator{
		config:     config,
		normalizer: normalizer,
	}, nil
}

// GenerateReport writes the run summary to the provided writer in the
// configured format
func (rg *ReportGenerator) GenerateReport(result *resolver.ResolutionResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("resolution result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(result, writer)
	case FormatJSON:
		return rg.generateJSONReport(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// WriteArtifacts writes all four CSV artifacts into the output directory
func (rg *ReportGenerator) WriteArtifacts(result *resolver.ResolutionResult, outputDir string) error {
	if result == nil {
		return fmt.Errorf("resolution result cannot be nil")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	writers := []struct {
		file  string
		write func(*resolver.ResolutionResult, io.Writer) error
	}{
		{NormalizationMapFile, rg.WriteNormalizationMap},
		{InvalidReportFile, rg.WriteInvalidReport},
		{UnmatchedReportFile, rg.WriteUnmatchedReport},
		{MatchDetailsFile, rg.WriteMatchDetails},
	}

	for _, artifact := range writers {
		path := filepath.Join(outputDir, artifact.file)
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", artifact.file, err)
		}

		writeErr := artifact.write(result, file)
		closeErr := file.Close()
		if writeErr != nil {
			return fmt.Errorf("failed to write %s: %w", artifact.file, writeErr)
		}
		if closeErr != nil {
			return fmt.Errorf("failed to close %s: %w", artifact.file, closeErr)
		}
	}

	return nil
}

// WriteNormalizationMap writes the resolved raw name to canonical vendor
// mapping, sorted by canonical vendor so mapped variants group together.
func (rg *ReportGenerator) WriteNormalizationMap(result *resolver.ResolutionResult, writer io.Writer) error {
	matched := filterResolutions(result, models.OutcomeMatched)
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Vendor.Name != matched[j].Vendor.Name {
			return matched[i].Vendor.Name < matched[j].Vendor.Name
		}
		return matched[i].RawName < matched[j].RawName
	})

	csvWriter := rg.newCSVWriter(writer)
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		if err := csvWriter.Write([]string{"vendor_name", "normalized_vendor"}); err != nil {
			return err
		}
	}

	for _, resolution := range matched {
		record := []string{resolution.RawName, resolution.Vendor.Name}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteInvalidReport writes the flagged-invalid names with reasons and
// invoice counts, highest-volume names first
func (rg *ReportGenerator) WriteInvalidReport(result *resolver.ResolutionResult, writer io.Writer) error {
	invalid := filterResolutions(result, models.OutcomeInvalid)
	sortByOccurrences(invalid)

	csvWriter := rg.newCSVWriter(writer)
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		if err := csvWriter.Write([]string{"vendor_name", "reason", "invoice_count"}); err != nil {
			return err
		}
	}

	for _, resolution := range invalid {
		record := []string{
			resolution.RawName,
			resolution.InvalidReason.String(),
			strconv.Itoa(resolution.Occurrences),
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteUnmatchedReport writes valid-but-unmatched names annotated with
// both normalized forms, highest-volume names first. The normalized forms
// help a reviewer spot which canonical vendor a name was nearly keyed to.
func (rg *ReportGenerator) WriteUnmatchedReport(result *resolver.ResolutionResult, writer io.Writer) error {
	unmatched := filterResolutions(result, models.OutcomeUnmatched)
	sortByOccurrences(unmatched)

	csvWriter := rg.newCSVWriter(writer)
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{"vendor_name", "normalized", "aggressive_normalized", "invoice_count"}
		if err := csvWriter.Write(headers); err != nil {
			return err
		}
	}

	for _, resolution := range unmatched {
		record := []string{
			resolution.RawName,
			rg.normalizer.Exact(resolution.RawName),
			rg.normalizer.Aggressive(resolution.RawName),
			strconv.Itoa(resolution.Occurrences),
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteMatchDetails writes the audit report for every resolved name:
// method, score and constraining location, highest-volume names first
func (rg *ReportGenerator) WriteMatchDetails(result *resolver.ResolutionResult, writer io.Writer) error {
	matched := filterResolutions(result, models.OutcomeMatched)
	sortByOccurrences(matched)

	csvWriter := rg.newCSVWriter(writer)
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{"messy_vendor", "matched_vendor", "method", "score", "location", "invoice_count"}
		if err := csvWriter.Write(headers); err != nil {
			return err
		}
	}

	for _, resolution := range matched {
		record := []string{
			resolution.RawName,
			resolution.Vendor.Name,
			resolution.Method.String(),
			strconv.FormatFloat(resolution.Score, 'f', -1, 64),
			resolution.Location,
			strconv.Itoa(resolution.Occurrences),
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// CounterpartyCount pairs a counterparty with its unmatched invoice count
type CounterpartyCount struct {
	Counterparty string `json:"counterparty"`
	InvoiceCount int    `json:"invoice_count"`
}

// TopUnmatchedCounterparties returns the counterparties carrying the most
// unmatched invoices, count descending then name ascending
func TopUnmatchedCounterparties(result *resolver.ResolutionResult, limit int) []CounterpartyCount {
	counts := make(map[string]int)
	for _, resolution := range result.Resolutions {
		if resolution.Outcome != models.OutcomeUnmatched {
			continue
		}
		for counterparty, count := range resolution.CounterpartyCounts {
			counts[counterparty] += count
		}
	}

	ranked := make([]CounterpartyCount, 0, len(counts))
	for counterparty, count := range counts {
		ranked = append(ranked, CounterpartyCount{Counterparty: counterparty, InvoiceCount: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].InvoiceCount != ranked[j].InvoiceCount {
			return ranked[i].InvoiceCount > ranked[j].InvoiceCount
		}
		return ranked[i].Counterparty < ranked[j].Counterparty
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// generateConsoleReport generates a human-readable console summary
func (rg *ReportGenerator) generateConsoleReport(result *resolver.ResolutionResult, writer io.Writer) error {
	summary := result.Summary

	fmt.Fprintf(writer, "VENDOR NAME RESOLUTION REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n", result.ProcessedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Processing Duration: %v\n\n", summary.ProcessingDuration)

	fmt.Fprintf(writer, "=== SUMMARY ===\n")
	rg.printSummaryTable(summary, writer)
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== FINANCIAL SUMMARY ===\n")
	rg.printFinancialSummary(summary, writer)
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeMethodBreakdown && len(summary.MethodBreakdown) > 0 {
		fmt.Fprintf(writer, "=== MATCH METHOD BREAKDOWN ===\n")
		rg.printMethodBreakdown(summary, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.TopNames > 0 {
		rg.printTopNames(result, writer)
	}

	if rg.config.TopCounterparties > 0 {
		top := TopUnmatchedCounterparties(result, rg.config.TopCounterparties)
		if len(top) > 0 {
			fmt.Fprintf(writer, "=== TOP UNMATCHED COUNTERPARTIES ===\n")
			for _, entry := range top {
				fmt.Fprintf(writer, "  %6d  %s\n", entry.InvoiceCount, entry.Counterparty)
			}
			fmt.Fprintf(writer, "\n")
		}
	}

	if result.QualityReport != nil && result.QualityReport.HasFindings() {
		fmt.Fprintf(writer, "=== REFERENCE DATA QUALITY ===\n")
		rg.printQualityFindings(result, writer)
		fmt.Fprintf(writer, "\n")
	}

	if rg.config.IncludeProcessingStats && result.ProcessingStats != nil {
		fmt.Fprintf(writer, "=== PROCESSING STATISTICS ===\n")
		rg.printProcessingStats(result.ProcessingStats, writer)
	}

	return nil
}

// generateJSONReport generates a structured JSON summary
func (rg *ReportGenerator) generateJSONReport(result *resolver.ResolutionResult, writer io.Writer) error {
	output := map[string]interface{}{
		"summary":      result.Summary,
		"processed_at": result.ProcessedAt,
	}

	if rg.config.TopCounterparties > 0 {
		if top := TopUnmatchedCounterparties(result, rg.config.TopCounterparties); len(top) > 0 {
			output["top_unmatched_counterparties"] = top
		}
	}

	if result.QualityReport != nil && result.QualityReport.HasFindings() {
		output["quality_report"] = result.QualityReport
	}

	if rg.config.IncludeProcessingStats && result.ProcessingStats != nil {
		output["processing_stats"] = result.ProcessingStats
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

func (rg *ReportGenerator) printSummaryTable(summary *resolver.ResultSummary, writer io.Writer) {
	fmt.Fprintf(writer, "Distinct Names:\n")
	fmt.Fprintf(writer, "  Total:     %d\n", summary.DistinctNames)
	fmt.Fprintf(writer, "  Matched:   %d (%.1f%%)\n",
		summary.MatchedNames,
		percentage(summary.MatchedNames, summary.DistinctNames))
	fmt.Fprintf(writer, "  Invalid:   %d (%.1f%%)\n",
		summary.InvalidNames,
		percentage(summary.InvalidNames, summary.DistinctNames))
	fmt.Fprintf(writer, "  Unmatched: %d (%.1f%%)\n",
		summary.UnmatchedNames,
		percentage(summary.UnmatchedNames, summary.DistinctNames))

	fmt.Fprintf(writer, "\nInvoices:\n")
	fmt.Fprintf(writer, "  Total:     %d\n", summary.TotalInvoices)
	fmt.Fprintf(writer, "  Matched:   %d\n", summary.MatchedInvoices)
	fmt.Fprintf(writer, "  Invalid:   %d\n", summary.InvalidInvoices)
	fmt.Fprintf(writer, "  Unmatched: %d\n", summary.UnmatchedInvoices)
	fmt.Fprintf(writer, "  Match Rate: %.1f%%\n", summary.MatchRate)

	fmt.Fprintf(writer, "\nReference Data:\n")
	fmt.Fprintf(writer, "  Vendors:   %d\n", summary.VendorsLoaded)
	fmt.Fprintf(writer, "  Locations: %d\n", summary.LocationsLoaded)
	fmt.Fprintf(writer, "  Overrides: %d\n", summary.OverridesLoaded)
}

func (rg *ReportGenerator) printFinancialSummary(summary *resolver.ResultSummary, writer io.Writer) {
	fmt.Fprintf(writer, "Total Invoice Amount:     %s\n", summary.TotalAmount.StringFixed(2))
	fmt.Fprintf(writer, "Matched Amount:           %s\n", summary.MatchedAmount.StringFixed(2))
	fmt.Fprintf(writer, "Invalid Amount:           %s\n", summary.InvalidAmount.StringFixed(2))
	fmt.Fprintf(writer, "Unmatched Amount:         %s\n", summary.UnmatchedAmount.StringFixed(2))
}

func (rg *ReportGenerator) printMethodBreakdown(summary *resolver.ResultSummary, writer io.Writer) {
	methods := make([]string, 0, len(summary.MethodBreakdown))
	for method := range summary.MethodBreakdown {
		methods = append(methods, method)
	}
	sort.Strings(methods)

	for _, method := range methods {
		count := summary.MethodBreakdown[method]
		fmt.Fprintf(writer, "  %-20s %d (%.1f%%)\n",
			method, count, percentage(count, summary.MatchedNames))
	}

	if len(summary.InvalidReasonBreakdown) > 0 {
		fmt.Fprintf(writer, "\nInvalid Reasons:\n")
		reasons := make([]string, 0, len(summary.InvalidReasonBreakdown))
		for reason := range summary.InvalidReasonBreakdown {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(writer, "  %-20s %d\n", reason, summary.InvalidReasonBreakdown[reason])
		}
	}
}

func (rg *ReportGenerator) printTopNames(result *resolver.ResolutionResult, writer io.Writer) {
	invalid := filterResolutions(result, models.OutcomeInvalid)
	if len(invalid) > 0 {
		sortByOccurrences(invalid)
		fmt.Fprintf(writer, "=== TOP INVALID NAMES ===\n")
		for i, resolution := range invalid {
			if i >= rg.config.TopNames {
				fmt.Fprintf(writer, "  ... and %d more\n", len(invalid)-rg.config.TopNames)
				break
			}
			fmt.Fprintf(writer, "  %6d  [%s]  %s\n",
				resolution.Occurrences, resolution.InvalidReason, truncate(resolution.RawName, 50))
		}
		fmt.Fprintf(writer, "\n")
	}

	unmatched := filterResolutions(result, models.OutcomeUnmatched)
	if len(unmatched) > 0 {
		sortByOccurrences(unmatched)
		fmt.Fprintf(writer, "=== TOP UNMATCHED NAMES ===\n")
		for i, resolution := range unmatched {
			if i >= rg.config.TopNames {
				fmt.Fprintf(writer, "  ... and %d more\n", len(unmatched)-rg.config.TopNames)
				break
			}
			fmt.Fprintf(writer, "  %6d  %s\n",
				resolution.Occurrences, truncate(resolution.RawName, 50))
		}
		fmt.Fprintf(writer, "\n")
	}
}

func (rg *ReportGenerator) printQualityFindings(result *resolver.ResolutionResult, writer io.Writer) {
	report := result.QualityReport
	fmt.Fprintf(writer, "Key Collisions:     %d\n", len(report.KeyCollisions))
	fmt.Fprintf(writer, "Near Duplicates:    %d\n", len(report.NearDuplicates))
	fmt.Fprintf(writer, "Empty Locations:    %d\n", len(report.EmptyLocations))
	fmt.Fprintf(writer, "Shadowed Overrides: %d\n", len(report.ShadowedOverride))
}

func (rg *ReportGenerator) printProcessingStats(stats *resolver.ProcessingStats, writer io.Writer) {
	fmt.Fprintf(writer, "Files Processed:      %d\n", stats.FilesProcessed)
	fmt.Fprintf(writer, "Parse Errors:         %d\n", stats.ParseErrors)
	fmt.Fprintf(writer, "Records/Second:       %.2f\n", stats.RecordsPerSecond)
	fmt.Fprintf(writer, "Total Processing:     %v\n", stats.TotalProcessingTime)
	fmt.Fprintf(writer, "Parsing Time:         %v\n", stats.ParsingTime)
	fmt.Fprintf(writer, "Matching Time:        %v\n", stats.MatchingTime)
}

// Helper functions

func (rg *ReportGenerator) newCSVWriter(writer io.Writer) *csv.Writer {
	csvWriter := csv.NewWriter(writer)
	if rg.config.CSVDelimiter != 0 {
		csvWriter.Comma = rg.config.CSVDelimiter
	}
	return csvWriter
}

func filterResolutions(result *resolver.ResolutionResult, outcome models.MatchOutcome) []*resolver.NameResolution {
	filtered := make([]*resolver.NameResolution, 0, len(result.Resolutions))
	for _, resolution := range result.Resolutions {
		if resolution.Outcome == outcome {
			filtered = append(filtered, resolution)
		}
	}
	return filtered
}

// sortByOccurrences orders count descending, then raw name ascending for
// a stable artifact across runs
func sortByOccurrences(resolutions []*resolver.NameResolution) {
	sort.SliceStable(resolutions, func(i, j int) bool {
		if resolutions[i].Occurrences != resolutions[j].Occurrences {
			return resolutions[i].Occurrences > resolutions[j].Occurrences
		}
		return resolutions[i].RawName < resolutions[j].RawName
	})
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// UpdateConfiguration updates the report generator configuration
func (rg *ReportGenerator) UpdateConfiguration(config *ReportConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}

	rg.config = config
	return nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
