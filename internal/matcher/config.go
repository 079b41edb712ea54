// Package matcher provides the vendor name matching engine and configuration.
//
// This package implements the cascade that resolves messy free-text vendor
// names against a canonical vendor reference, handling various real-world
// scenarios including:
//   - Manual overrides for names automation cannot resolve
//   - Structurally damaged names (truncated, numeric, garbage)
//   - Punctuation and legal-suffix variation between systems
//   - Shared service locations that constrain the candidate set
//   - Fuzzy and partial string similarity for imperfect data
//
// The matching engine uses a strict multi-stage cascade:
//  1. Manual override lookup
//  2. Invalid-name screening
//  3. Exact and aggressive key lookups
//  4. Location-constrained matching via counterparty resolution
//  5. Global fuzzy matching against all canonical vendors
//  6. Partial prefix/substring matching
//
// Example usage:
//
//	config := matcher.DefaultMatchingConfig()
//	config.GlobalFuzzyThreshold = 85
//
//	engine := matcher.NewMatchingEngine(config)
//	engine.LoadReference(vendors, locations)
//
//	result := engine.Resolve(rawName, counterparties)
package matcher

import (
	"fmt"
	"strings"

	"vendor-normalization-service/internal/normalize"
)

// MatchingConfig holds configuration parameters for vendor name matching.
// This configuration controls all thresholds of the cascade as well as the
// invalid-name screening rules and the aggressive key stop-list. Different
// configurations can be used for different scenarios (strict vs relaxed
// matching).
//
// Key configuration areas:
//   - Screening: minimum length and letter-count floors
//   - Key derivation: suffix tokens stripped by the aggressive transform
//   - Location matching: counterparty resolution and constrained thresholds
//   - Global matching: fuzzy threshold and partial-match length floor
//
// Use the provided factory functions for common scenarios:
//   - DefaultMatchingConfig(): balanced approach for most use cases
//   - StrictMatchingConfig(): high-confidence stages only
//   - RelaxedMatchingConfig(): loose thresholds for exploratory matching
type MatchingConfig struct {
	// MinNameLength is the minimum character count for a name to be
	// considered resolvable
	MinNameLength int `json:"min_name_length"`

	// MinAlphaChars is the minimum number of letters a resolvable name
	// must contain
	MinAlphaChars int `json:"min_alpha_chars"`

	// SuffixStopwords are the tokens removed by the aggressive key
	// transform
	SuffixStopwords []string `json:"suffix_stopwords"`

	// LocationFuzzyThreshold is the minimum similarity (0-100) for
	// resolving a counterparty string to a known location
	LocationFuzzyThreshold int `json:"location_fuzzy_threshold"`

	// ConstrainedFuzzyThreshold is the minimum token-sort similarity
	// (0-100) when matching within a resolved location's vendor set
	ConstrainedFuzzyThreshold int `json:"constrained_fuzzy_threshold"`

	// ConstrainedPartialThreshold is the minimum partial similarity
	// (0-100) when matching within a resolved location's vendor set
	ConstrainedPartialThreshold int `json:"constrained_partial_threshold"`

	// GlobalFuzzyThreshold is the minimum token-sort similarity (0-100)
	// for the unconstrained fuzzy stage
	GlobalFuzzyThreshold int `json:"global_fuzzy_threshold"`

	// PartialMinLength is the minimum name length for the partial
	// prefix/substring stage
	PartialMinLength int `json:"partial_min_length"`

	// EnableLocationMatching enables the location-constrained stages
	EnableLocationMatching bool `json:"enable_location_matching"`

	// EnablePartialMatching enables the final partial-match stage
	EnablePartialMatching bool `json:"enable_partial_matching"`
}

// DefaultMatchingConfig returns a configuration with sensible defaults.
// The suffix stop-list covers legal-entity tokens only so that distinct
// canonical names sharing an industry term do not collapse to one key.
func DefaultMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		MinNameLength:               5,
		MinAlphaChars:               3,
		SuffixStopwords:             append([]string{}, normalize.DefaultSuffixStopwords...),
		LocationFuzzyThreshold:      75,
		ConstrainedFuzzyThreshold:   40,
		ConstrainedPartialThreshold: 50,
		GlobalFuzzyThreshold:        80,
		PartialMinLength:            4,
		EnableLocationMatching:      true,
		EnablePartialMatching:       true,
	}
}

// StrictMatchingConfig returns a configuration that only accepts
// high-confidence matches: the location-constrained fuzzy thresholds are
// raised and the partial stage is disabled.
func StrictMatchingConfig() *MatchingConfig {
	return &MatchingConfig{
		MinNameLength:               5,
		MinAlphaChars:               3,
		SuffixStopwords:             append([]string{}, normalize.DefaultSuffixStopwords...),
		LocationFuzzyThreshold:      85,
		ConstrainedFuzzyThreshold:   70,
		ConstrainedPartialThreshold: 80,
		GlobalFuzzyThreshold:        90,
		PartialMinLength:            6,
		EnableLocationMatching:      true,
		EnablePartialMatching:       false,
	}
}

// RelaxedMatchingConfig returns a configuration for exploratory matching:
// lower fuzzy thresholds and an expanded stop-list that also strips
// common industry noise tokens.
func RelaxedMatchingConfig() *MatchingConfig {
	stopwords := append([]string{}, normalize.DefaultSuffixStopwords...)
	stopwords = append(stopwords, normalize.DomainNoiseStopwords...)

	return &MatchingConfig{
		MinNameLength:               4,
		MinAlphaChars:               2,
		SuffixStopwords:             stopwords,
		LocationFuzzyThreshold:      65,
		ConstrainedFuzzyThreshold:   35,
		ConstrainedPartialThreshold: 50,
		GlobalFuzzyThreshold:        70,
		PartialMinLength:            4,
		EnableLocationMatching:      true,
		EnablePartialMatching:       true,
	}
}

// Validate checks if the matching configuration is valid
func (mc *MatchingConfig) Validate() error {
	if mc.MinNameLength < 1 {
		return fmt.Errorf("minimum name length must be positive: %d", mc.MinNameLength)
	}

	if mc.MinAlphaChars < 1 {
		return fmt.Errorf("minimum alpha chars must be positive: %d", mc.MinAlphaChars)
	}

	if err := validateThreshold("location fuzzy threshold", mc.LocationFuzzyThreshold); err != nil {
		return err
	}
	if err := validateThreshold("constrained fuzzy threshold", mc.ConstrainedFuzzyThreshold); err != nil {
		return err
	}
	if err := validateThreshold("constrained partial threshold", mc.ConstrainedPartialThreshold); err != nil {
		return err
	}
	if err := validateThreshold("global fuzzy threshold", mc.GlobalFuzzyThreshold); err != nil {
		return err
	}

	if mc.PartialMinLength < 1 {
		return fmt.Errorf("partial minimum length must be positive: %d", mc.PartialMinLength)
	}

	for _, word := range mc.SuffixStopwords {
		if strings.TrimSpace(word) == "" {
			return fmt.Errorf("suffix stopwords must not contain blank entries")
		}
	}

	return nil
}

func validateThreshold(name string, value int) error {
	if value < 0 || value > 100 {
		return fmt.Errorf("%s must be between 0 and 100: %d", name, value)
	}
	return nil
}

// Clone creates a deep copy of the matching configuration
func (mc *MatchingConfig) Clone() *MatchingConfig {
	if mc == nil {
		return nil
	}

	clone := *mc
	clone.SuffixStopwords = append([]string{}, mc.SuffixStopwords...)
	return &clone
}

// String returns a human-readable description of the configuration
func (mc *MatchingConfig) String() string {
	return fmt.Sprintf("MatchingConfig{MinLength: %d, MinAlpha: %d, LocationFuzzy: %d, ConstrainedFuzzy: %d, GlobalFuzzy: %d, PartialMinLength: %d, Stopwords: %d}",
		mc.MinNameLength, mc.MinAlphaChars, mc.LocationFuzzyThreshold, mc.ConstrainedFuzzyThreshold, mc.GlobalFuzzyThreshold, mc.PartialMinLength, len(mc.SuffixStopwords))
}
