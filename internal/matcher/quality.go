package matcher

import (
	"fmt"

	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/internal/normalize"
)

// QualityChecker screens the canonical reference data for conditions that
// silently degrade match quality: names that collapse to the same key,
// near-duplicate vendors, locations with no vendors, and overrides that an
// earlier cascade stage already shadows.
type QualityChecker struct {
	Config *MatchingConfig

	normalizer *normalize.Normalizer
}

// NewQualityChecker creates a quality checker using the same key
// derivation as the matching engine.
func NewQualityChecker(config *MatchingConfig, normalizer *normalize.Normalizer) *QualityChecker {
	return &QualityChecker{
		Config:     config,
		normalizer: normalizer,
	}
}

// QualityReport aggregates all reference data findings.
type QualityReport struct {
	KeyCollisions    []KeyCollision
	NearDuplicates   []DuplicateGroup
	EmptyLocations   []string
	ShadowedOverride []ShadowedOverride
}

// DuplicateGroup represents canonical vendors whose names are so similar
// that they likely describe the same real-world vendor.
type DuplicateGroup struct {
	Vendors []string
	Score   int
	Reason  string
}

// ShadowedOverride represents a manual override whose raw name already
// resolves through the exact-key stage, meaning the override never fires
// for reference-backed names.
type ShadowedOverride struct {
	Key            string
	OverrideTarget string
	ExactTarget    string
}

// HasFindings reports whether the checks surfaced anything.
func (qr *QualityReport) HasFindings() bool {
	return len(qr.KeyCollisions) > 0 || len(qr.NearDuplicates) > 0 ||
		len(qr.EmptyLocations) > 0 || len(qr.ShadowedOverride) > 0
}

// Check runs all quality checks against the built index and override table.
func (qc *QualityChecker) Check(index *ReferenceIndex, overrides *OverrideTable) *QualityReport {
	report := &QualityReport{
		KeyCollisions: index.Collisions(),
	}

	report.NearDuplicates = qc.detectNearDuplicates(index.AllVendors, index)
	report.EmptyLocations = qc.detectEmptyLocations(index.AllLocations)
	report.ShadowedOverride = qc.detectShadowedOverrides(index, overrides)

	return report
}

// detectNearDuplicates identifies canonical vendor pairs whose keys score
// above the global fuzzy threshold against each other. Such pairs make
// fuzzy results order-dependent and deserve consolidation upstream.
func (qc *QualityChecker) detectNearDuplicates(vendors []*models.CanonicalVendor, index *ReferenceIndex) []DuplicateGroup {
	var groups []DuplicateGroup
	processed := make(map[string]bool)

	for i, v1 := range vendors {
		if processed[v1.Name] {
			continue
		}

		duplicates := []string{v1.Name}
		best := 0
		key1 := index.ExactKeyFor(v1.Name)

		for j := i + 1; j < len(vendors); j++ {
			v2 := vendors[j]
			if processed[v2.Name] || v2.Name == v1.Name {
				continue
			}

			score := TokenSortRatio(key1, index.ExactKeyFor(v2.Name))
			if score >= qc.Config.GlobalFuzzyThreshold && score < 100 {
				duplicates = append(duplicates, v2.Name)
				processed[v2.Name] = true
				if score > best {
					best = score
				}
			}
		}

		if len(duplicates) > 1 {
			groups = append(groups, DuplicateGroup{
				Vendors: duplicates,
				Score:   best,
				Reason:  fmt.Sprintf("%d vendor names score %d or higher against each other", len(duplicates), qc.Config.GlobalFuzzyThreshold),
			})
		}

		processed[v1.Name] = true
	}

	return groups
}

// detectEmptyLocations returns locations with no registered vendors. A
// counterparty resolving to one of these can never produce a match.
func (qc *QualityChecker) detectEmptyLocations(locations []*models.Location) []string {
	var empty []string
	for _, location := range locations {
		if location.VendorCount() == 0 {
			empty = append(empty, location.Name)
		}
	}
	return empty
}

// detectShadowedOverrides flags overrides whose key also hits the exact
// index, since the override stage runs first and masks the reference
// vendor for that spelling.
func (qc *QualityChecker) detectShadowedOverrides(index *ReferenceIndex, overrides *OverrideTable) []ShadowedOverride {
	if overrides == nil {
		return nil
	}

	var shadowed []ShadowedOverride
	for _, key := range overrides.Keys() {
		vendor, ok := index.LookupExact(key)
		if !ok {
			continue
		}
		target, _ := overrides.Lookup(key)
		if target != vendor.Name {
			shadowed = append(shadowed, ShadowedOverride{
				Key:            key,
				OverrideTarget: target,
				ExactTarget:    vendor.Name,
			})
		}
	}

	return shadowed
}
