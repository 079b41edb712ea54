package config

import (
	"testing"
	"time"

	"vendor-normalization-service/internal/matcher"
	"vendor-normalization-service/internal/reporter"
)

func TestCreateVendorParserConfig(t *testing.T) {
	config, err := CreateVendorParserConfig()
	if err != nil {
		t.Fatalf("failed to create vendor parser config: %v", err)
	}

	if config.NameColumn != "vendor_name" {
		t.Errorf("expected NameColumn 'vendor_name', got '%s'", config.NameColumn)
	}
	if !config.HasHeader {
		t.Error("expected HasHeader to be true")
	}
	if config.Delimiter != ',' {
		t.Errorf("expected Delimiter ',', got '%c'", config.Delimiter)
	}

	// Test aliases
	if len(config.ColumnAliases) == 0 {
		t.Error("expected column aliases to be set")
	}
	if config.ColumnAliases["vendor"] != "vendor_name" {
		t.Error("expected 'vendor' alias to map to 'vendor_name'")
	}

	// Validate the configuration
	if err := config.Validate(); err != nil {
		t.Errorf("vendor parser config should be valid: %v", err)
	}
}

func TestCreateLocationParserConfig(t *testing.T) {
	config, err := CreateLocationParserConfig()
	if err != nil {
		t.Fatalf("failed to create location parser config: %v", err)
	}

	if config.LocationColumn != "location_name" {
		t.Errorf("expected LocationColumn 'location_name', got '%s'", config.LocationColumn)
	}
	if config.VendorColumn != "vendor_name" {
		t.Errorf("expected VendorColumn 'vendor_name', got '%s'", config.VendorColumn)
	}
	if config.ColumnAliases["yard"] != "location_name" {
		t.Error("expected 'yard' alias to map to 'location_name'")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("location parser config should be valid: %v", err)
	}
}

func TestCreateInvoiceParserConfig(t *testing.T) {
	config, err := CreateInvoiceParserConfig()
	if err != nil {
		t.Fatalf("failed to create invoice parser config: %v", err)
	}

	if config.InvoiceIDColumn != "invoice_md5" {
		t.Errorf("expected InvoiceIDColumn 'invoice_md5', got '%s'", config.InvoiceIDColumn)
	}
	if config.VendorColumn != "vendor_name" {
		t.Errorf("expected VendorColumn 'vendor_name', got '%s'", config.VendorColumn)
	}
	if config.CounterpartyColumn != "counterparty" {
		t.Errorf("expected CounterpartyColumn 'counterparty', got '%s'", config.CounterpartyColumn)
	}
	if config.CreatedDateColumn != "sp_created_date" {
		t.Errorf("expected CreatedDateColumn 'sp_created_date', got '%s'", config.CreatedDateColumn)
	}

	// Test aliases
	if config.ColumnAliases["invoice_id"] != "invoice_md5" {
		t.Error("expected 'invoice_id' alias to map to 'invoice_md5'")
	}
	if config.ColumnAliases["date"] != "sp_created_date" {
		t.Error("expected 'date' alias to map to 'sp_created_date'")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("invoice parser config should be valid: %v", err)
	}
}

func TestCreateOverrideParserConfig(t *testing.T) {
	config, err := CreateOverrideParserConfig()
	if err != nil {
		t.Fatalf("failed to create override parser config: %v", err)
	}

	if config.RawNameColumn != "vendor_name" {
		t.Errorf("expected RawNameColumn 'vendor_name', got '%s'", config.RawNameColumn)
	}
	if config.VendorColumn != "normalized_vendor" {
		t.Errorf("expected VendorColumn 'normalized_vendor', got '%s'", config.VendorColumn)
	}
	if config.ColumnAliases["canonical"] != "normalized_vendor" {
		t.Error("expected 'canonical' alias to map to 'normalized_vendor'")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("override parser config should be valid: %v", err)
	}
}

func TestCreateMatchingConfig(t *testing.T) {
	tests := []struct {
		name        string
		profile     string
		overrides   *MatchingOverrides
		expectError bool
		check       func(t *testing.T, config *matcher.MatchingConfig)
	}{
		{
			name:    "default profile",
			profile: "default",
			check: func(t *testing.T, config *matcher.MatchingConfig) {
				if !config.EnableLocationMatching {
					t.Error("expected EnableLocationMatching to be true")
				}
			},
		},
		{
			name:    "empty profile falls back to default",
			profile: "",
			check: func(t *testing.T, config *matcher.MatchingConfig) {
				expected := matcher.DefaultMatchingConfig()
				if config.GlobalFuzzyThreshold != expected.GlobalFuzzyThreshold {
					t.Errorf("expected GlobalFuzzyThreshold %d, got %d",
						expected.GlobalFuzzyThreshold, config.GlobalFuzzyThreshold)
				}
			},
		},
		{
			name:    "strict profile disables partial matching",
			profile: "strict",
			check: func(t *testing.T, config *matcher.MatchingConfig) {
				if config.EnablePartialMatching {
					t.Error("expected EnablePartialMatching to be false")
				}
			},
		},
		{
			name:    "threshold overrides applied",
			profile: "default",
			overrides: &MatchingOverrides{
				GlobalFuzzyThreshold:   90,
				LocationFuzzyThreshold: 85,
			},
			check: func(t *testing.T, config *matcher.MatchingConfig) {
				if config.GlobalFuzzyThreshold != 90 {
					t.Errorf("expected GlobalFuzzyThreshold 90, got %d", config.GlobalFuzzyThreshold)
				}
				if config.LocationFuzzyThreshold != 85 {
					t.Errorf("expected LocationFuzzyThreshold 85, got %d", config.LocationFuzzyThreshold)
				}
			},
		},
		{
			name:    "zero overrides keep profile values",
			profile: "relaxed",
			overrides: &MatchingOverrides{
				GlobalFuzzyThreshold: 0,
			},
			check: func(t *testing.T, config *matcher.MatchingConfig) {
				expected := matcher.RelaxedMatchingConfig()
				if config.GlobalFuzzyThreshold != expected.GlobalFuzzyThreshold {
					t.Errorf("expected GlobalFuzzyThreshold %d, got %d",
						expected.GlobalFuzzyThreshold, config.GlobalFuzzyThreshold)
				}
			},
		},
		{
			name:    "disable flags applied",
			profile: "default",
			overrides: &MatchingOverrides{
				DisableLocationMatching: true,
				DisablePartialMatching:  true,
			},
			check: func(t *testing.T, config *matcher.MatchingConfig) {
				if config.EnableLocationMatching {
					t.Error("expected EnableLocationMatching to be false")
				}
				if config.EnablePartialMatching {
					t.Error("expected EnablePartialMatching to be false")
				}
			},
		},
		{
			name:        "unknown profile",
			profile:     "aggressive",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateMatchingConfig(tt.profile, tt.overrides)

			if tt.expectError {
				if err == nil {
					t.Error("expected error for unknown profile")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if err := config.Validate(); err != nil {
				t.Errorf("matching config should be valid: %v", err)
			}

			if tt.check != nil {
				tt.check(t, config)
			}
		})
	}
}

func TestCreateResolverConfig(t *testing.T) {
	tests := []struct {
		name              string
		showProgress      bool
		batchSize         int
		skipQualityChecks bool
	}{
		{"with progress", true, 0, false},
		{"without progress", false, 0, false},
		{"custom batch size", false, 500, false},
		{"skip quality checks", false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := CreateResolverConfig(tt.showProgress, tt.batchSize, tt.skipQualityChecks)

			if config.ProgressReporting != tt.showProgress {
				t.Errorf("expected ProgressReporting %v, got %v", tt.showProgress, config.ProgressReporting)
			}
			if tt.batchSize > 0 && config.BatchSize != tt.batchSize {
				t.Errorf("expected BatchSize %d, got %d", tt.batchSize, config.BatchSize)
			}
			if tt.batchSize == 0 && config.BatchSize <= 0 {
				t.Error("expected default BatchSize to be positive")
			}
			if config.IncludeQualityReport == tt.skipQualityChecks {
				t.Errorf("expected IncludeQualityReport %v, got %v", !tt.skipQualityChecks, config.IncludeQualityReport)
			}
			if !config.DetailedBreakdown {
				t.Error("expected DetailedBreakdown to be true")
			}

			// Validate the configuration
			if err := config.Validate(); err != nil {
				t.Errorf("resolver config should be valid: %v", err)
			}
		})
	}
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		name         string
		format       string
		expectedType reporter.OutputFormat
	}{
		{"console format", "console", reporter.FormatConsole},
		{"json format", "json", reporter.FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := CreateReportConfig(tt.format)

			if config.Format != tt.expectedType {
				t.Errorf("expected Format %s, got %s", tt.expectedType, config.Format)
			}
			if !config.IncludeMethodBreakdown {
				t.Error("expected IncludeMethodBreakdown to be true")
			}
			if !config.IncludeProcessingStats {
				t.Error("expected IncludeProcessingStats to be true")
			}

			// Validate the configuration
			if err := config.Validate(); err != nil {
				t.Errorf("report config should be valid: %v", err)
			}
		})
	}
}

func TestCreateAggregatesConfig(t *testing.T) {
	tests := []struct {
		name          string
		year          int
		priorMonth    int
		currentMonth  int
		minPriorCount int
		expectError   bool
	}{
		{"all defaults", 0, 0, 0, 0, false},
		{"explicit window", 2025, 10, 11, 5, false},
		{"year only", 2024, 0, 0, 0, false},
		{"prior month too large", 0, 13, 0, 0, true},
		{"current month negative", 0, 0, -2, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := CreateAggregatesConfig(tt.year, tt.priorMonth, tt.currentMonth, tt.minPriorCount)

			if tt.expectError {
				if err == nil {
					t.Error("expected error for invalid month")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if tt.year > 0 && config.Year != tt.year {
				t.Errorf("expected Year %d, got %d", tt.year, config.Year)
			}
			if tt.priorMonth > 0 && config.PriorMonth != time.Month(tt.priorMonth) {
				t.Errorf("expected PriorMonth %v, got %v", time.Month(tt.priorMonth), config.PriorMonth)
			}
			if tt.currentMonth > 0 && config.CurrentMonth != time.Month(tt.currentMonth) {
				t.Errorf("expected CurrentMonth %v, got %v", time.Month(tt.currentMonth), config.CurrentMonth)
			}
			if tt.minPriorCount > 0 && config.MinPriorCount != tt.minPriorCount {
				t.Errorf("expected MinPriorCount %d, got %d", tt.minPriorCount, config.MinPriorCount)
			}
			if tt.minPriorCount == 0 && config.MinPriorCount <= 0 {
				t.Error("expected default MinPriorCount to be positive")
			}
		})
	}
}

func TestGetMatchingProfiles(t *testing.T) {
	profiles := GetMatchingProfiles()

	if len(profiles) == 0 {
		t.Fatal("expected at least one matching profile")
	}

	expectedProfiles := []string{"default", "strict", "relaxed"}
	for _, expected := range expectedProfiles {
		found := false
		for _, profile := range profiles {
			if profile.Name == expected {
				found = true
				// Validate the profile configuration
				if err := profile.Config.Validate(); err != nil {
					t.Errorf("profile %s should have valid config: %v", expected, err)
				}
				break
			}
		}
		if !found {
			t.Errorf("expected to find profile '%s'", expected)
		}
	}
}

func TestGetMatchingProfile(t *testing.T) {
	tests := []struct {
		name        string
		profileName string
		expectError bool
	}{
		{"valid profile", "default", false},
		{"another valid profile", "strict", false},
		{"invalid profile", "nonexistent", true},
		{"empty name", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := GetMatchingProfile(tt.profileName)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error for profile '%s'", tt.profileName)
				}
				if config != nil {
					t.Error("expected nil config on error")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if config == nil {
					t.Error("expected valid config")
				}
				// Validate the configuration
				if config != nil {
					if err := config.Validate(); err != nil {
						t.Errorf("profile config should be valid: %v", err)
					}
				}
			}
		})
	}
}

func TestValidateConfigs(t *testing.T) {
	vendorConfig, _ := CreateVendorParserConfig()
	locationConfig, _ := CreateLocationParserConfig()
	invoiceConfig, _ := CreateInvoiceParserConfig()
	overrideConfig, _ := CreateOverrideParserConfig()
	matchingConfig, _ := CreateMatchingConfig("default", nil)

	tests := []struct {
		name        string
		mutate      func()
		restore     func()
		expectError bool
	}{
		{
			name:        "all valid",
			mutate:      func() {},
			restore:     func() {},
			expectError: false,
		},
		{
			name:        "invalid vendor config",
			mutate:      func() { vendorConfig.NameColumn = "" },
			restore:     func() { vendorConfig.NameColumn = "vendor_name" },
			expectError: true,
		},
		{
			name:        "invalid invoice config",
			mutate:      func() { invoiceConfig.InvoiceIDColumn = "" },
			restore:     func() { invoiceConfig.InvoiceIDColumn = "invoice_md5" },
			expectError: true,
		},
		{
			name:        "invalid matching config",
			mutate:      func() { matchingConfig.GlobalFuzzyThreshold = 150 },
			restore:     func() { matchingConfig.GlobalFuzzyThreshold = matcher.DefaultMatchingConfig().GlobalFuzzyThreshold },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mutate()
			defer tt.restore()

			err := ValidateConfigs(vendorConfig, locationConfig, invoiceConfig, overrideConfig, matchingConfig)

			if tt.expectError && err == nil {
				t.Error("expected validation error")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
