package config

import (
	"fmt"
	"time"

	"vendor-normalization-service/internal/matcher"
	"vendor-normalization-service/internal/parsers"
	"vendor-normalization-service/internal/reporter"
	"vendor-normalization-service/internal/resolver"
)

// CreateVendorParserConfig creates a default vendor list parser configuration
func CreateVendorParserConfig() (*parsers.VendorParserConfig, error) {
	config := parsers.DefaultVendorParserConfig()
	config.ColumnAliases = map[string]string{
		// Common aliases for vendor list columns
		"vendor":         "vendor_name",
		"name":           "vendor_name",
		"canonical_name": "vendor_name",
		"company":        "vendor_name",
		"company_name":   "vendor_name",
	}
	return config, nil
}

// CreateLocationParserConfig creates a default location relation parser configuration
func CreateLocationParserConfig() (*parsers.LocationParserConfig, error) {
	config := parsers.DefaultLocationParserConfig()
	config.ColumnAliases = map[string]string{
		// Common aliases for location relation columns
		"location": "location_name",
		"site":     "location_name",
		"yard":     "location_name",
		"facility": "location_name",
		"vendor":   "vendor_name",
		"name":     "vendor_name",
	}
	return config, nil
}

// CreateInvoiceParserConfig creates a default invoice parser configuration
func CreateInvoiceParserConfig() (*parsers.InvoiceParserConfig, error) {
	config := parsers.DefaultInvoiceParserConfig()
	config.ColumnAliases = map[string]string{
		// Common aliases for invoice export columns
		"id":            "invoice_md5",
		"invoice_id":    "invoice_md5",
		"invoice_hash":  "invoice_md5",
		"md5":           "invoice_md5",
		"vendor":        "vendor_name",
		"vendor_raw":    "vendor_name",
		"raw_name":      "vendor_name",
		"location":      "counterparty",
		"site":          "counterparty",
		"yard":          "counterparty",
		"amt":           "amount",
		"total":         "amount",
		"invoice_total": "amount",
		"created":       "sp_created_date",
		"created_date":  "sp_created_date",
		"invoice_date":  "sp_created_date",
		"date":          "sp_created_date",
	}
	return config, nil
}

// CreateOverrideParserConfig creates a default override table parser configuration
func CreateOverrideParserConfig() (*parsers.OverrideParserConfig, error) {
	config := parsers.DefaultOverrideParserConfig()
	config.ColumnAliases = map[string]string{
		// Common aliases for override table columns
		"raw_name":   "vendor_name",
		"messy_name": "vendor_name",
		"alias":      "vendor_name",
		"canonical":  "normalized_vendor",
		"target":     "normalized_vendor",
		"maps_to":    "normalized_vendor",
	}
	return config, nil
}

// MatchingOverrides holds CLI flag values that override a matching profile
type MatchingOverrides struct {
	GlobalFuzzyThreshold      int
	LocationFuzzyThreshold    int
	ConstrainedFuzzyThreshold int
	DisableLocationMatching   bool
	DisablePartialMatching    bool
}

// CreateMatchingConfig creates a matching configuration from a profile name
// with CLI threshold overrides applied on top. A zero threshold override
// leaves the profile value in place.
func CreateMatchingConfig(profile string, overrides *MatchingOverrides) (*matcher.MatchingConfig, error) {
	var config *matcher.MatchingConfig

	switch profile {
	case "", "default":
		config = matcher.DefaultMatchingConfig()
	case "strict":
		config = matcher.StrictMatchingConfig()
	case "relaxed":
		config = matcher.RelaxedMatchingConfig()
	default:
		return nil, fmt.Errorf("unknown matching profile '%s'. Valid profiles: default, strict, relaxed", profile)
	}

	if overrides != nil {
		if overrides.GlobalFuzzyThreshold > 0 {
			config.GlobalFuzzyThreshold = overrides.GlobalFuzzyThreshold
		}
		if overrides.LocationFuzzyThreshold > 0 {
			config.LocationFuzzyThreshold = overrides.LocationFuzzyThreshold
		}
		if overrides.ConstrainedFuzzyThreshold > 0 {
			config.ConstrainedFuzzyThreshold = overrides.ConstrainedFuzzyThreshold
		}
		if overrides.DisableLocationMatching {
			config.EnableLocationMatching = false
		}
		if overrides.DisablePartialMatching {
			config.EnablePartialMatching = false
		}
	}

	return config, nil
}

// CreateResolverConfig creates a resolution service configuration
func CreateResolverConfig(showProgress bool, batchSize int, skipQualityChecks bool) *resolver.Config {
	config := resolver.DefaultConfig()

	// Apply CLI overrides
	config.ProgressReporting = showProgress
	if batchSize > 0 {
		config.BatchSize = batchSize
	}
	config.IncludeQualityReport = !skipQualityChecks
	config.DetailedBreakdown = true

	return config
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
		config.IncludeMethodBreakdown = true
		config.IncludeProcessingStats = true
	case "json":
		config.Format = reporter.FormatJSON
		config.IncludeMethodBreakdown = true
		config.IncludeProcessingStats = true
	}

	return config
}

// CreateAggregatesConfig creates a dashboard aggregation configuration. Zero
// month values fall back to the derived defaults; a zero year keeps the
// current year.
func CreateAggregatesConfig(year, priorMonth, currentMonth, minPriorCount int) (*reporter.AggregatesConfig, error) {
	config := reporter.DefaultAggregatesConfig()

	if year > 0 {
		config.Year = year
	}
	if priorMonth != 0 {
		if priorMonth < 1 || priorMonth > 12 {
			return nil, fmt.Errorf("prior month must be between 1 and 12, got %d", priorMonth)
		}
		config.PriorMonth = time.Month(priorMonth)
	}
	if currentMonth != 0 {
		if currentMonth < 1 || currentMonth > 12 {
			return nil, fmt.Errorf("current month must be between 1 and 12, got %d", currentMonth)
		}
		config.CurrentMonth = time.Month(currentMonth)
	}
	if minPriorCount > 0 {
		config.MinPriorCount = minPriorCount
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MatchingProfile represents a pre-configured matching profile
type MatchingProfile struct {
	Name        string
	Description string
	Config      *matcher.MatchingConfig
}

// GetMatchingProfiles returns the built-in matching profiles
func GetMatchingProfiles() []MatchingProfile {
	return []MatchingProfile{
		{
			Name:        "default",
			Description: "Balanced thresholds suitable for most vendor lists",
			Config:      matcher.DefaultMatchingConfig(),
		},
		{
			Name:        "strict",
			Description: "High-confidence stages only, partial matching disabled",
			Config:      matcher.StrictMatchingConfig(),
		},
		{
			Name:        "relaxed",
			Description: "Lower thresholds with an expanded stop-list for exploratory runs",
			Config:      matcher.RelaxedMatchingConfig(),
		},
	}
}

// GetMatchingProfile returns a matching configuration by profile name
func GetMatchingProfile(profileName string) (*matcher.MatchingConfig, error) {
	for _, profile := range GetMatchingProfiles() {
		if profile.Name == profileName {
			return profile.Config, nil
		}
	}

	return nil, fmt.Errorf("unknown matching profile: %s", profileName)
}

// ValidateConfigs validates that all required configurations are valid
func ValidateConfigs(
	vendorConfig *parsers.VendorParserConfig,
	locationConfig *parsers.LocationParserConfig,
	invoiceConfig *parsers.InvoiceParserConfig,
	overrideConfig *parsers.OverrideParserConfig,
	matchingConfig *matcher.MatchingConfig,
) error {
	if err := vendorConfig.Validate(); err != nil {
		return fmt.Errorf("invalid vendor parser config: %w", err)
	}

	if err := locationConfig.Validate(); err != nil {
		return fmt.Errorf("invalid location parser config: %w", err)
	}

	if err := invoiceConfig.Validate(); err != nil {
		return fmt.Errorf("invalid invoice parser config: %w", err)
	}

	if err := overrideConfig.Validate(); err != nil {
		return fmt.Errorf("invalid override parser config: %w", err)
	}

	if err := matchingConfig.Validate(); err != nil {
		return fmt.Errorf("invalid matching config: %w", err)
	}

	return nil
}
