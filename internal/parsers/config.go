package parsers

import (
	"fmt"
	"strings"
)

// VendorParserConfig holds configuration for parsing the canonical vendor list
type VendorParserConfig struct {
	NameColumn    string            `json:"name_column"`
	HasHeader     bool              `json:"has_header"`
	Delimiter     rune              `json:"delimiter"`
	ColumnAliases map[string]string `json:"column_aliases,omitempty"`
}

// DefaultVendorParserConfig returns a configuration matching the standard
// vendor list export
func DefaultVendorParserConfig() *VendorParserConfig {
	return &VendorParserConfig{
		NameColumn:    "vendor_name",
		HasHeader:     true,
		Delimiter:     ',',
		ColumnAliases: make(map[string]string),
	}
}

// Validate checks if the vendor parser configuration is valid
func (vpc *VendorParserConfig) Validate() error {
	if strings.TrimSpace(vpc.NameColumn) == "" {
		return fmt.Errorf("vendor name column cannot be empty")
	}
	return nil
}

// GetColumnName returns the actual column name, checking aliases first
func (vpc *VendorParserConfig) GetColumnName(standardName string) string {
	if alias, exists := vpc.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "vendor_name":
		return vpc.NameColumn
	default:
		return standardName
	}
}

// LocationParserConfig holds configuration for parsing the location to
// vendor relation
type LocationParserConfig struct {
	LocationColumn string            `json:"location_column"`
	VendorColumn   string            `json:"vendor_column"`
	HasHeader      bool              `json:"has_header"`
	Delimiter      rune              `json:"delimiter"`
	ColumnAliases  map[string]string `json:"column_aliases,omitempty"`
}

// DefaultLocationParserConfig returns a configuration matching the standard
// location relation export
func DefaultLocationParserConfig() *LocationParserConfig {
	return &LocationParserConfig{
		LocationColumn: "location_name",
		VendorColumn:   "vendor_name",
		HasHeader:      true,
		Delimiter:      ',',
		ColumnAliases:  make(map[string]string),
	}
}

// Validate checks if the location parser configuration is valid
func (lpc *LocationParserConfig) Validate() error {
	if strings.TrimSpace(lpc.LocationColumn) == "" {
		return fmt.Errorf("location column cannot be empty")
	}
	if strings.TrimSpace(lpc.VendorColumn) == "" {
		return fmt.Errorf("vendor column cannot be empty")
	}
	return nil
}

// GetColumnName returns the actual column name, checking aliases first
func (lpc *LocationParserConfig) GetColumnName(standardName string) string {
	if alias, exists := lpc.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "location_name":
		return lpc.LocationColumn
	case "vendor_name":
		return lpc.VendorColumn
	default:
		return standardName
	}
}

// InvoiceParserConfig holds configuration for parsing invoice export files
type InvoiceParserConfig struct {
	InvoiceIDColumn    string            `json:"invoice_id_column"`
	VendorColumn       string            `json:"vendor_column"`
	CounterpartyColumn string            `json:"counterparty_column"`
	AmountColumn       string            `json:"amount_column"`
	CreatedDateColumn  string            `json:"created_date_column"`
	HasHeader          bool              `json:"has_header"`
	Delimiter          rune              `json:"delimiter"`
	ColumnAliases      map[string]string `json:"column_aliases,omitempty"`
}

// DefaultInvoiceParserConfig returns a configuration matching the standard
// invoice export
func DefaultInvoiceParserConfig() *InvoiceParserConfig {
	return &InvoiceParserConfig{
		InvoiceIDColumn:    "invoice_md5",
		VendorColumn:       "vendor_name",
		CounterpartyColumn: "counterparty",
		AmountColumn:       "amount",
		CreatedDateColumn:  "sp_created_date",
		HasHeader:          true,
		Delimiter:          ',',
		ColumnAliases:      make(map[string]string),
	}
}

// Validate checks if the invoice parser configuration is valid
func (ipc *InvoiceParserConfig) Validate() error {
	if strings.TrimSpace(ipc.InvoiceIDColumn) == "" {
		return fmt.Errorf("invoice ID column cannot be empty")
	}
	if strings.TrimSpace(ipc.VendorColumn) == "" {
		return fmt.Errorf("vendor column cannot be empty")
	}
	if strings.TrimSpace(ipc.CounterpartyColumn) == "" {
		return fmt.Errorf("counterparty column cannot be empty")
	}
	return nil
}

// GetColumnName returns the actual column name, checking aliases first
func (ipc *InvoiceParserConfig) GetColumnName(standardName string) string {
	if alias, exists := ipc.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "invoice_id":
		return ipc.InvoiceIDColumn
	case "vendor_name":
		return ipc.VendorColumn
	case "counterparty":
		return ipc.CounterpartyColumn
	case "amount":
		return ipc.AmountColumn
	case "created_date":
		return ipc.CreatedDateColumn
	default:
		return standardName
	}
}

// OverrideParserConfig holds configuration for parsing the manual override table
type OverrideParserConfig struct {
	RawNameColumn string            `json:"raw_name_column"`
	VendorColumn  string            `json:"vendor_column"`
	HasHeader     bool              `json:"has_header"`
	Delimiter     rune              `json:"delimiter"`
	ColumnAliases map[string]string `json:"column_aliases,omitempty"`
}

// DefaultOverrideParserConfig returns a configuration matching the standard
// override table export
func DefaultOverrideParserConfig() *OverrideParserConfig {
	return &OverrideParserConfig{
		RawNameColumn: "vendor_name",
		VendorColumn:  "normalized_vendor",
		HasHeader:     true,
		Delimiter:     ',',
		ColumnAliases: make(map[string]string),
	}
}

// Validate checks if the override parser configuration is valid
func (opc *OverrideParserConfig) Validate() error {
	if strings.TrimSpace(opc.RawNameColumn) == "" {
		return fmt.Errorf("raw name column cannot be empty")
	}
	if strings.TrimSpace(opc.VendorColumn) == "" {
		return fmt.Errorf("vendor column cannot be empty")
	}
	return nil
}

// GetColumnName returns the actual column name, checking aliases first
func (opc *OverrideParserConfig) GetColumnName(standardName string) string {
	if alias, exists := opc.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "raw_name":
		return opc.RawNameColumn
	case "normalized_vendor":
		return opc.VendorColumn
	default:
		return standardName
	}
}

// StreamingConfig holds configuration for streaming operations
type StreamingConfig struct {
	BatchSize        int  `json:"batch_size"`
	MaxConcurrency   int  `json:"max_concurrency"`
	BufferSize       int  `json:"buffer_size"`
	ContinueOnError  bool `json:"continue_on_error"`
	MaxErrors        int  `json:"max_errors"`
	ReportProgress   bool `json:"report_progress"`
	ProgressInterval int  `json:"progress_interval"`
}

// DefaultStreamingConfig returns a configuration with sensible defaults for streaming
func DefaultStreamingConfig() *StreamingConfig {
	return &StreamingConfig{
		BatchSize:        1000,
		MaxConcurrency:   4,
		BufferSize:       8192,
		ContinueOnError:  true,
		MaxErrors:        100,
		ReportProgress:   false,
		ProgressInterval: 10000,
	}
}

// Validate checks if the streaming configuration is valid
func (sc *StreamingConfig) Validate() error {
	if sc.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", sc.BatchSize)
	}

	if sc.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive, got %d", sc.MaxConcurrency)
	}

	if sc.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", sc.BufferSize)
	}

	if sc.MaxErrors < 0 {
		return fmt.Errorf("max errors cannot be negative, got %d", sc.MaxErrors)
	}

	if sc.ProgressInterval <= 0 {
		return fmt.Errorf("progress interval must be positive, got %d", sc.ProgressInterval)
	}

	return nil
}
