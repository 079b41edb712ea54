package resolver

import (
	"fmt"

	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/pkg/logger"
)

// InvoicePreprocessor cleans invoice batches before aggregation
type InvoicePreprocessor struct {
	config  *PreprocessingConfig
	logger  logger.Logger
	seenIDs map[string]bool
	stats   *PreprocessingStats
}

// PreprocessingConfig controls preprocessing behavior
type PreprocessingConfig struct {
	// Deduplicate invoices that share an invoice ID
	RemoveDuplicates bool

	// Drop invoices that fail structural validation instead of failing
	// the batch
	SkipInvalidRecords bool

	// Treat a negative amount as invalid
	RejectNegativeAmounts bool
}

// DefaultPreprocessingConfig returns sensible preprocessing defaults
func DefaultPreprocessingConfig() *PreprocessingConfig {
	return &PreprocessingConfig{
		RemoveDuplicates:      true,
		SkipInvalidRecords:    true,
		RejectNegativeAmounts: false,
	}
}

// PreprocessingStats tracks what preprocessing changed
type PreprocessingStats struct {
	RecordsProcessed  int `json:"records_processed"`
	DuplicatesRemoved int `json:"duplicates_removed"`
	RecordsSkipped    int `json:"records_skipped"`
}

// NewInvoicePreprocessor creates a new invoice preprocessor
func NewInvoicePreprocessor(config *PreprocessingConfig) *InvoicePreprocessor {
	if config == nil {
		config = DefaultPreprocessingConfig()
	}

	return &InvoicePreprocessor{
		config:  config,
		logger:  logger.GetGlobalLogger().WithComponent("preprocessor"),
		seenIDs: make(map[string]bool),
		stats:   &PreprocessingStats{},
	}
}

// PreprocessInvoices validates and deduplicates a batch of invoices.
// Raw names arrive already cleaned by the parser, so the work here is
// structural: drop records that cannot be attributed to an invoice and
// collapse exact duplicates. Deduplication state persists across batches
// so streaming callers see each invoice ID once.
func (ip *InvoicePreprocessor) PreprocessInvoices(invoices []*models.InvoiceRecord) ([]*models.InvoiceRecord, error) {
	processed := make([]*models.InvoiceRecord, 0, len(invoices))

	for _, invoice := range invoices {
		ip.stats.RecordsProcessed++

		if err := ip.validateInvoice(invoice); err != nil {
			if !ip.config.SkipInvalidRecords {
				return nil, err
			}
			ip.stats.RecordsSkipped++
			ip.logger.WithFields(logger.Fields{
				"invoice_id": invoice.InvoiceID,
				"error":      err.Error(),
			}).Debug("Skipping invalid invoice record")
			continue
		}

		if ip.config.RemoveDuplicates {
			if ip.seenIDs[invoice.InvoiceID] {
				ip.stats.DuplicatesRemoved++
				continue
			}
			ip.seenIDs[invoice.InvoiceID] = true
		}

		processed = append(processed, invoice)
	}

	return processed, nil
}

// validateInvoice checks the structural fields. The raw vendor name is
// deliberately not validated here: blank and garbage names must flow
// through to the classifier so they end up in the flagged report.
func (ip *InvoicePreprocessor) validateInvoice(invoice *models.InvoiceRecord) error {
	if invoice == nil {
		return fmt.Errorf("invoice record is nil")
	}

	if invoice.InvoiceID == "" {
		return fmt.Errorf("invoice ID is empty")
	}

	if ip.config.RejectNegativeAmounts && invoice.Amount.IsNegative() {
		return fmt.Errorf("invoice %s has negative amount %s", invoice.InvoiceID, invoice.Amount.String())
	}

	return nil
}

// GetStats returns the accumulated preprocessing statistics
func (ip *InvoicePreprocessor) GetStats() *PreprocessingStats {
	return ip.stats
}

// Reset clears deduplication state and statistics for a new run
func (ip *InvoicePreprocessor) Reset() {
	ip.seenIDs = make(map[string]bool)
	ip.stats = &PreprocessingStats{}
}
