package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vendor-normalization-service/internal/matcher"
	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/pkg/logger"
)

// ResolutionOrchestrator wraps the resolution service with progress
// reporting and result enrichment for interactive callers.
type ResolutionOrchestrator struct {
	service *ResolutionService
	logger  logger.Logger

	progressCallbacks []ProgressCallback
	progressMutex     sync.RWMutex
}

// ProgressCallback receives progress updates during resolution
type ProgressCallback func(update ProgressUpdate)

// ProgressUpdate describes the current state of a resolution run
type ProgressUpdate struct {
	Stage           string    `json:"stage"`
	Message         string    `json:"message"`
	PercentComplete float64   `json:"percent_complete"`
	Timestamp       time.Time `json:"timestamp"`
}

// ResolutionOptions provides additional options for orchestrated runs
type ResolutionOptions struct {
	// Include the full per-name resolution list in the result
	IncludeResolutions bool

	// Abort when reference quality checks surface findings
	FailOnQualityFindings bool

	// Timeout for the complete run, zero means no timeout
	Timeout time.Duration
}

// DefaultResolutionOptions returns the default orchestration options
func DefaultResolutionOptions() *ResolutionOptions {
	return &ResolutionOptions{
		IncludeResolutions:    true,
		FailOnQualityFindings: false,
		Timeout:               0,
	}
}

// EnhancedResolutionResult extends the base result with derived metrics
type EnhancedResolutionResult struct {
	*ResolutionResult

	DataQuality *DataQualityMetrics `json:"data_quality,omitempty"`
	Performance *PerformanceMetrics `json:"performance,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
}

// DataQualityMetrics summarizes input data quality for a run
type DataQualityMetrics struct {
	// Share of invoices carrying a structurally invalid vendor name, 0-100
	InvalidNameRate float64 `json:"invalid_name_rate"`

	// Distinct raw names per invoice. High values suggest free-text entry
	// with little reuse; low values suggest dropdown-style input.
	NameDiversity float64 `json:"name_diversity"`

	// Number of reference quality findings (key collisions, near
	// duplicates, empty locations, shadowed overrides)
	ReferenceFindings int `json:"reference_findings"`

	// Share of matched invoices settled by manual override, 0-100
	OverrideReliance float64 `json:"override_reliance"`
}

// PerformanceMetrics summarizes throughput for a run
type PerformanceMetrics struct {
	InvoicesPerSecond float64       `json:"invoices_per_second"`
	NamesPerSecond    float64       `json:"names_per_second"`
	ParsingTime       time.Duration `json:"parsing_time"`
	MatchingTime      time.Duration `json:"matching_time"`
}

// NewResolutionOrchestrator creates an orchestrator around a service
func NewResolutionOrchestrator(service *ResolutionService) *ResolutionOrchestrator {
	return &ResolutionOrchestrator{
		service: service,
		logger:  logger.GetGlobalLogger().WithComponent("orchestrator"),
	}
}

// RegisterProgressCallback registers a callback for progress updates
func (ro *ResolutionOrchestrator) RegisterProgressCallback(callback ProgressCallback) {
	ro.progressMutex.Lock()
	defer ro.progressMutex.Unlock()
	ro.progressCallbacks = append(ro.progressCallbacks, callback)
}

// updateProgress notifies all registered callbacks
func (ro *ResolutionOrchestrator) updateProgress(stage, message string, percent float64) {
	update := ProgressUpdate{
		Stage:           stage,
		Message:         message,
		PercentComplete: percent,
		Timestamp:       time.Now(),
	}

	ro.progressMutex.RLock()
	callbacks := make([]ProgressCallback, len(ro.progressCallbacks))
	copy(callbacks, ro.progressCallbacks)
	ro.progressMutex.RUnlock()

	for _, callback := range callbacks {
		callback(update)
	}

	ro.logger.WithFields(logger.Fields{
		"stage":   stage,
		"percent": percent,
	}).Debug(message)
}

// Run executes a resolution with progress reporting and enrichment
func (ro *ResolutionOrchestrator) Run(
	ctx context.Context,
	request *ResolutionRequest,
	options *ResolutionOptions,
) (*EnhancedResolutionResult, error) {

	if options == nil {
		options = DefaultResolutionOptions()
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	ro.updateProgress("starting", "Starting resolution run", 0)

	ro.updateProgress("processing", "Resolving vendor names", 10)
	result, err := ro.service.ProcessResolution(ctx, request)
	if err != nil {
		ro.updateProgress("failed", fmt.Sprintf("Resolution failed: %v", err), 100)
		return nil, err
	}

	enhanced := &EnhancedResolutionResult{
		ResolutionResult: result,
	}

	ro.updateProgress("analyzing", "Computing quality metrics", 80)
	enhanced.DataQuality = ro.calculateDataQuality(result)
	enhanced.Performance = ro.calculatePerformance(result)
	ro.collectWarnings(enhanced)

	if options.FailOnQualityFindings && result.QualityReport != nil && result.QualityReport.HasFindings() {
		ro.updateProgress("failed", "Reference quality findings present", 100)
		return enhanced, fmt.Errorf("reference data quality checks failed with %d findings",
			enhanced.DataQuality.ReferenceFindings)
	}

	if !options.IncludeResolutions {
		enhanced.Resolutions = nil
	}

	ro.updateProgress("completed", "Resolution run completed", 100)
	return enhanced, nil
}

// calculateDataQuality derives data quality metrics from a result
func (ro *ResolutionOrchestrator) calculateDataQuality(result *ResolutionResult) *DataQualityMetrics {
	metrics := &DataQualityMetrics{}
	summary := result.Summary

	if summary.TotalInvoices > 0 {
		metrics.InvalidNameRate = float64(summary.InvalidInvoices) / float64(summary.TotalInvoices) * 100
		metrics.NameDiversity = float64(summary.DistinctNames) / float64(summary.TotalInvoices)
	}

	if summary.MatchedInvoices > 0 {
		overrideInvoices := 0
		for _, resolution := range result.Resolutions {
			if resolution.Method == models.MethodManual {
				overrideInvoices += resolution.Occurrences
			}
		}
		metrics.OverrideReliance = float64(overrideInvoices) / float64(summary.MatchedInvoices) * 100
	}

	if result.QualityReport != nil {
		metrics.ReferenceFindings = countFindings(result.QualityReport)
	}

	return metrics
}

func countFindings(report *matcher.QualityReport) int {
	return len(report.KeyCollisions) + len(report.NearDuplicates) +
		len(report.EmptyLocations) + len(report.ShadowedOverride)
}

// calculatePerformance derives throughput metrics from a result
func (ro *ResolutionOrchestrator) calculatePerformance(result *ResolutionResult) *PerformanceMetrics {
	metrics := &PerformanceMetrics{}

	if result.ProcessingStats != nil {
		metrics.ParsingTime = result.ProcessingStats.ParsingTime
		metrics.MatchingTime = result.ProcessingStats.MatchingTime
		metrics.InvoicesPerSecond = result.ProcessingStats.RecordsPerSecond

		if secs := result.ProcessingStats.MatchingTime.Seconds(); secs > 0 {
			metrics.NamesPerSecond = float64(result.Summary.DistinctNames) / secs
		}
	}

	return metrics
}

// collectWarnings adds advisory warnings based on the run's metrics
func (ro *ResolutionOrchestrator) collectWarnings(enhanced *EnhancedResolutionResult) {
	summary := enhanced.Summary

	if summary.MatchRate < 50 && summary.TotalInvoices > 0 {
		enhanced.Warnings = append(enhanced.Warnings,
			fmt.Sprintf("Low match rate: %.1f%% of invoices matched", summary.MatchRate))
	}

	if enhanced.DataQuality.InvalidNameRate > 20 {
		enhanced.Warnings = append(enhanced.Warnings,
			fmt.Sprintf("High invalid name rate: %.1f%% of invoices carry unusable vendor names",
				enhanced.DataQuality.InvalidNameRate))
	}

	if enhanced.DataQuality.ReferenceFindings > 0 {
		enhanced.Warnings = append(enhanced.Warnings,
			fmt.Sprintf("Reference data has %d quality findings", enhanced.DataQuality.ReferenceFindings))
	}

	if enhanced.ProcessingStats != nil && enhanced.ProcessingStats.ParseErrors > 0 {
		enhanced.Warnings = append(enhanced.Warnings,
			fmt.Sprintf("%d records failed to parse and were skipped", enhanced.ProcessingStats.ParseErrors))
	}
}
