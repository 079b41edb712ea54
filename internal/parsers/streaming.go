package parsers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vendor-normalization-service/internal/models"
)

// ProgressReport carries progress information for long-running parse
// operations over large invoice exports.
//
// PercentComplete is only meaningful when EstimatedTotal > 0.
type ProgressReport struct {
	ProcessedRecords int
	ValidRecords     int
	ErrorCount       int
	ElapsedTime      time.Duration
	EstimatedTotal   int
	PercentComplete  float64
}

// ProgressCallback is called periodically to report parsing progress
type ProgressCallback func(*ProgressReport)

// StreamingInvoiceParser provides memory-efficient streaming for invoice
// exports that may not fit in memory. It processes records in
// configurable batches and supports progress reporting and cancellation.
type StreamingInvoiceParser struct {
	*InvoiceParser
	config *StreamingConfig
}

// NewStreamingInvoiceParser creates a new streaming invoice parser
func NewStreamingInvoiceParser(config *InvoiceParserConfig, streamConfig *StreamingConfig) (*StreamingInvoiceParser, error) {
	if streamConfig == nil {
		streamConfig = DefaultStreamingConfig()
	}

	if err := streamConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid streaming configuration: %w", err)
	}

	invoiceParser, err := NewInvoiceParser(config)
	if err != nil {
		return nil, err
	}

	return &StreamingInvoiceParser{
		InvoiceParser: invoiceParser,
		config:        streamConfig,
	}, nil
}

// ParseInvoicesStreamAdvanced parses invoices in batches with optional
// progress reporting
func (sip *StreamingInvoiceParser) ParseInvoicesStreamAdvanced(
	ctx context.Context,
	filePath string,
	callback ParseInvoicesCallback,
	progressCallback ProgressCallback,
) (*ParseStats, error) {
	startTime := time.Now()
	stats := NewParseStats()

	// Estimate total records if progress reporting is enabled
	var estimatedTotal int
	if sip.config.ReportProgress && progressCallback != nil {
		total, err := sip.estimateRecordCount(filePath)
		if err == nil {
			estimatedTotal = total
		}
	}

	batchCallback := func(invoices []*models.InvoiceRecord) error {
		select {
		case <-ctx.Done():
			return fmt.Errorf("processing cancelled")
		default:
			if err := callback(invoices); err != nil {
				return fmt.Errorf("user callback error: %w", err)
			}

			stats.RecordsValid += len(invoices)

			if sip.config.ReportProgress && progressCallback != nil &&
				stats.RecordsValid%sip.config.ProgressInterval == 0 {

				elapsed := time.Since(startTime)
				var percentComplete float64
				if estimatedTotal > 0 {
					percentComplete = float64(stats.RecordsValid) / float64(estimatedTotal) * 100
				}

				progressCallback(&ProgressReport{
					ProcessedRecords: stats.RecordsParsed,
					ValidRecords:     stats.RecordsValid,
					ErrorCount:       stats.ErrorCount,
					ElapsedTime:      elapsed,
					EstimatedTotal:   estimatedTotal,
					PercentComplete:  percentComplete,
				})
			}

			return nil
		}
	}

	parseStats, err := sip.ParseInvoicesStreamWithContext(
		ctx, filePath, sip.config.BatchSize, batchCallback)

	// Merge statistics; stats are nil when the file could not be opened
	if parseStats != nil {
		stats.TotalLines = parseStats.TotalLines
		stats.RecordsParsed = parseStats.RecordsParsed
		stats.ErrorCount = parseStats.ErrorCount
		stats.Errors = parseStats.Errors
	}

	if sip.config.ReportProgress && progressCallback != nil {
		progressCallback(&ProgressReport{
			ProcessedRecords: stats.RecordsParsed,
			ValidRecords:     stats.RecordsValid,
			ErrorCount:       stats.ErrorCount,
			ElapsedTime:      time.Since(startTime),
			EstimatedTotal:   estimatedTotal,
			PercentComplete:  100.0,
		})
	}

	return stats, err
}

// estimateRecordCount counts the records in the file for progress estimation
func (sip *StreamingInvoiceParser) estimateRecordCount(filePath string) (int, error) {
	closer, reader, err := sip.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer closer.Close()

	parseCtx := NewParseContext(context.Background())

	if sip.InvoiceParser.config.HasHeader {
		if err := sip.ReadHeaders(reader, parseCtx, nil); err != nil {
			return 0, err
		}
	}

	count := 0
	for {
		if _, err := sip.ReadRecord(reader, parseCtx); err != nil {
			break
		}
		count++
	}

	return count, nil
}

// ConcurrentParser parses multiple invoice export files concurrently,
// bounded by a semaphore.
type ConcurrentParser struct {
	maxConcurrency int
	semaphore      chan struct{}
}

// NewConcurrentParser creates a new concurrent parser
func NewConcurrentParser(maxConcurrency int) *ConcurrentParser {
	if maxConcurrency <= 0 {
		maxConcurrency = 4 // Default concurrency
	}

	return &ConcurrentParser{
		maxConcurrency: maxConcurrency,
		semaphore:      make(chan struct{}, maxConcurrency),
	}
}

// ConcurrentParseResult holds the result of one concurrent parsing operation
type ConcurrentParseResult struct {
	FilePath string
	Invoices []*models.InvoiceRecord
	Stats    *ParseStats
	Error    error
}

// ParseInvoicesConcurrently parses multiple invoice files concurrently.
// The returned channel is closed when all files have been processed.
func (cp *ConcurrentParser) ParseInvoicesConcurrently(
	ctx context.Context,
	files map[string]*InvoiceParserConfig,
) <-chan *ConcurrentParseResult {
	results := make(chan *ConcurrentParseResult, len(files))

	var wg sync.WaitGroup

	for filePath, config := range files {
		wg.Add(1)

		go func(path string, cfg *InvoiceParserConfig) {
			defer wg.Done()

			cp.semaphore <- struct{}{}
			defer func() { <-cp.semaphore }()

			result := &ConcurrentParseResult{FilePath: path}

			parser, err := NewInvoiceParser(cfg)
			if err != nil {
				result.Error = fmt.Errorf("failed to create parser: %w", err)
				results <- result
				return
			}

			invoices, stats, err := parser.ParseInvoicesWithContext(ctx, path)
			result.Invoices = invoices
			result.Stats = stats
			result.Error = err

			results <- result
		}(filePath, config)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
