package matcher

import (
	"sort"

	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/internal/normalize"
)

// ReferenceIndex provides efficient lookups over the canonical vendor and
// location reference data. All keys are derived once at build time; the
// index is immutable afterwards and safe for concurrent readers.
type ReferenceIndex struct {
	// ExactKeyIndex maps exact normalized keys to canonical vendors
	ExactKeyIndex map[string]*models.CanonicalVendor

	// AggressiveKeyIndex maps aggressive normalized keys to canonical vendors
	AggressiveKeyIndex map[string]*models.CanonicalVendor

	// LocationExactIndex maps (location key, vendor exact key) pairs to vendors
	LocationExactIndex map[LocationVendorKey]*models.CanonicalVendor

	// LocationAggressiveIndex maps (location key, vendor aggressive key) pairs to vendors
	LocationAggressiveIndex map[LocationVendorKey]*models.CanonicalVendor

	// LocationKeyIndex maps exact normalized location names to locations
	LocationKeyIndex map[string]*models.Location

	// AllVendors holds all indexed canonical vendors
	AllVendors []*models.CanonicalVendor

	// AllLocations holds all indexed locations
	AllLocations []*models.Location

	normalizer *normalize.Normalizer

	// vendorExactKeys and vendorAggressiveKeys cache each vendor's keys
	// for the fuzzy stages
	vendorExactKeys      map[string]string
	vendorAggressiveKeys map[string]string

	collisions []KeyCollision
}

// LocationVendorKey identifies a vendor within a specific service location.
type LocationVendorKey struct {
	Location string
	Vendor   string
}

// KeyCollision records two distinct canonical vendors whose names collapse
// to the same lookup key. The first vendor indexed keeps the key.
type KeyCollision struct {
	Key     string
	Kept    string
	Dropped string
}

// NewReferenceIndex builds a reference index from canonical vendors and
// locations using the given normalizer for key derivation. When two
// vendors collapse to the same key the first one indexed wins and the
// collision is recorded for reporting.
func NewReferenceIndex(vendors []*models.CanonicalVendor, locations []*models.Location, normalizer *normalize.Normalizer) *ReferenceIndex {
	index := &ReferenceIndex{
		ExactKeyIndex:           make(map[string]*models.CanonicalVendor),
		AggressiveKeyIndex:      make(map[string]*models.CanonicalVendor),
		LocationExactIndex:      make(map[LocationVendorKey]*models.CanonicalVendor),
		LocationAggressiveIndex: make(map[LocationVendorKey]*models.CanonicalVendor),
		LocationKeyIndex:        make(map[string]*models.Location),
		AllVendors:              vendors,
		AllLocations:            locations,
		normalizer:              normalizer,
		vendorExactKeys:         make(map[string]string),
		vendorAggressiveKeys:    make(map[string]string),
	}

	index.buildIndexes()
	return index
}

// buildIndexes constructs all internal indexes
func (ri *ReferenceIndex) buildIndexes() {
	for _, vendor := range ri.AllVendors {
		exactKey := ri.normalizer.Exact(vendor.Name)
		aggressiveKey := ri.normalizer.Aggressive(vendor.Name)

		ri.vendorExactKeys[vendor.Name] = exactKey
		ri.vendorAggressiveKeys[vendor.Name] = aggressiveKey

		if exactKey != "" {
			ri.indexVendorKey(ri.ExactKeyIndex, exactKey, vendor)
		}
		if aggressiveKey != "" {
			ri.indexVendorKey(ri.AggressiveKeyIndex, aggressiveKey, vendor)
		}
	}

	for _, location := range ri.AllLocations {
		locationKey := normalize.NormalizeExact(location.Name)
		if locationKey == "" {
			continue
		}
		ri.LocationKeyIndex[locationKey] = location

		for _, vendor := range location.Vendors {
			exactKey := ri.normalizer.Exact(vendor.Name)
			aggressiveKey := ri.normalizer.Aggressive(vendor.Name)

			if _, known := ri.vendorExactKeys[vendor.Name]; !known {
				ri.vendorExactKeys[vendor.Name] = exactKey
				ri.vendorAggressiveKeys[vendor.Name] = aggressiveKey
			}

			if exactKey != "" {
				ri.LocationExactIndex[LocationVendorKey{locationKey, exactKey}] = vendor
			}
			if aggressiveKey != "" {
				ri.LocationAggressiveIndex[LocationVendorKey{locationKey, aggressiveKey}] = vendor
			}
		}
	}
}

// indexVendorKey inserts a vendor under key with first-write-wins
// semantics, recording a collision when a different vendor already holds
// the key.
func (ri *ReferenceIndex) indexVendorKey(target map[string]*models.CanonicalVendor, key string, vendor *models.CanonicalVendor) {
	existing, exists := target[key]
	if !exists {
		target[key] = vendor
		return
	}
	if existing.Name != vendor.Name {
		ri.collisions = append(ri.collisions, KeyCollision{
			Key:     key,
			Kept:    existing.Name,
			Dropped: vendor.Name,
		})
	}
}

// LookupExact returns the vendor registered under the exact key, if any.
func (ri *ReferenceIndex) LookupExact(key string) (*models.CanonicalVendor, bool) {
	vendor, ok := ri.ExactKeyIndex[key]
	return vendor, ok
}

// LookupAggressive returns the vendor registered under the aggressive key, if any.
func (ri *ReferenceIndex) LookupAggressive(key string) (*models.CanonicalVendor, bool) {
	vendor, ok := ri.AggressiveKeyIndex[key]
	return vendor, ok
}

// LookupLocation returns the location registered under the exact location key.
func (ri *ReferenceIndex) LookupLocation(locationKey string) (*models.Location, bool) {
	location, ok := ri.LocationKeyIndex[locationKey]
	return location, ok
}

// LookupLocationVendor returns the vendor registered at the location under
// the exact vendor key.
func (ri *ReferenceIndex) LookupLocationVendor(locationKey, vendorKey string) (*models.CanonicalVendor, bool) {
	vendor, ok := ri.LocationExactIndex[LocationVendorKey{locationKey, vendorKey}]
	return vendor, ok
}

// LookupLocationVendorAggressive returns the vendor registered at the
// location under the aggressive vendor key.
func (ri *ReferenceIndex) LookupLocationVendorAggressive(locationKey, vendorKey string) (*models.CanonicalVendor, bool) {
	vendor, ok := ri.LocationAggressiveIndex[LocationVendorKey{locationKey, vendorKey}]
	return vendor, ok
}

// ExactKeyFor returns the cached exact key for a canonical vendor name,
// deriving it on the fly for vendors that were never indexed.
func (ri *ReferenceIndex) ExactKeyFor(vendorName string) string {
	if key, ok := ri.vendorExactKeys[vendorName]; ok {
		return key
	}
	return ri.normalizer.Exact(vendorName)
}

// AggressiveKeyFor returns the cached aggressive key for a canonical
// vendor name, deriving it on the fly for vendors that were never indexed.
func (ri *ReferenceIndex) AggressiveKeyFor(vendorName string) string {
	if key, ok := ri.vendorAggressiveKeys[vendorName]; ok {
		return key
	}
	return ri.normalizer.Aggressive(vendorName)
}

// LocationKeys returns all indexed location keys in sorted order. The
// counterparty resolver iterates these for its fuzzy fallback.
func (ri *ReferenceIndex) LocationKeys() []string {
	keys := make([]string, 0, len(ri.LocationKeyIndex))
	for key := range ri.LocationKeyIndex {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Collisions returns the key collisions recorded during index construction.
func (ri *ReferenceIndex) Collisions() []KeyCollision {
	return ri.collisions
}

// GetIndexStats returns statistics about the reference index
func (ri *ReferenceIndex) GetIndexStats() IndexStats {
	return IndexStats{
		TotalVendors:         len(ri.AllVendors),
		TotalLocations:       len(ri.AllLocations),
		UniqueExactKeys:      len(ri.ExactKeyIndex),
		UniqueAggressiveKeys: len(ri.AggressiveKeyIndex),
		KeyCollisions:        len(ri.collisions),
	}
}

// IndexStats provides statistics about index construction and key coverage
type IndexStats struct {
	TotalVendors         int
	TotalLocations       int
	UniqueExactKeys      int
	UniqueAggressiveKeys int
	KeyCollisions        int
}
