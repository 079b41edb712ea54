package matcher

import (
	"testing"

	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/internal/normalize"
)

func TestQualityCheckerCleanReference(t *testing.T) {
	config := DefaultMatchingConfig()
	normalizer := normalize.NewNormalizer(config.SuffixStopwords)
	index := createTestIndex(t)

	checker := NewQualityChecker(config, normalizer)
	report := checker.Check(index, NewOverrideTable(nil))

	if report.HasFindings() {
		t.Errorf("clean reference produced findings: %+v", report)
	}
}

func TestQualityCheckerKeyCollisions(t *testing.T) {
	config := DefaultMatchingConfig()
	normalizer := normalize.NewNormalizer(config.SuffixStopwords)

	vendors := []*models.CanonicalVendor{
		models.NewCanonicalVendor("Acme Waste Inc"),
		models.NewCanonicalVendor("Acme Waste LLC"),
	}
	index := NewReferenceIndex(vendors, nil, normalizer)

	checker := NewQualityChecker(config, normalizer)
	report := checker.Check(index, NewOverrideTable(nil))

	if len(report.KeyCollisions) != 1 {
		t.Errorf("key collisions = %d, expected 1", len(report.KeyCollisions))
	}
	if !report.HasFindings() {
		t.Error("report should have findings")
	}
}

func TestQualityCheckerNearDuplicates(t *testing.T) {
	config := DefaultMatchingConfig()
	normalizer := normalize.NewNormalizer(config.SuffixStopwords)

	vendors := []*models.CanonicalVendor{
		models.NewCanonicalVendor("Casella Waste Systems"),
		models.NewCanonicalVendor("Casella Waste System"),
		models.NewCanonicalVendor("Republic Services"),
	}
	index := NewReferenceIndex(vendors, nil, normalizer)

	checker := NewQualityChecker(config, normalizer)
	report := checker.Check(index, NewOverrideTable(nil))

	if len(report.NearDuplicates) != 1 {
		t.Fatalf("near duplicates = %d, expected 1", len(report.NearDuplicates))
	}
	group := report.NearDuplicates[0]
	if len(group.Vendors) != 2 {
		t.Errorf("group size = %d, expected 2", len(group.Vendors))
	}
	if group.Score < config.GlobalFuzzyThreshold {
		t.Errorf("group score = %d, below threshold", group.Score)
	}
}

func TestQualityCheckerEmptyLocations(t *testing.T) {
	config := DefaultMatchingConfig()
	normalizer := normalize.NewNormalizer(config.SuffixStopwords)

	locations := []*models.Location{
		models.NewLocation("Vacant Yard"),
	}
	index := NewReferenceIndex(nil, locations, normalizer)

	checker := NewQualityChecker(config, normalizer)
	report := checker.Check(index, NewOverrideTable(nil))

	if len(report.EmptyLocations) != 1 || report.EmptyLocations[0] != "Vacant Yard" {
		t.Errorf("empty locations = %v", report.EmptyLocations)
	}
}

func TestQualityCheckerShadowedOverrides(t *testing.T) {
	config := DefaultMatchingConfig()
	normalizer := normalize.NewNormalizer(config.SuffixStopwords)

	vendors := []*models.CanonicalVendor{
		models.NewCanonicalVendor("Republic Services"),
	}
	index := NewReferenceIndex(vendors, nil, normalizer)

	overrides := NewOverrideTable([]*models.OverrideEntry{
		// Redirects a spelling the exact stage would otherwise settle.
		{RawName: "Republic Services", VendorName: "Some Other Vendor"},
		// Keys that miss the exact index are not shadowed.
		{RawName: "Repub Svcs", VendorName: "Republic Services"},
	})

	checker := NewQualityChecker(config, normalizer)
	report := checker.Check(index, overrides)

	if len(report.ShadowedOverride) != 1 {
		t.Fatalf("shadowed overrides = %d, expected 1", len(report.ShadowedOverride))
	}
	finding := report.ShadowedOverride[0]
	if finding.OverrideTarget != "Some Other Vendor" || finding.ExactTarget != "Republic Services" {
		t.Errorf("unexpected finding: %+v", finding)
	}
}
