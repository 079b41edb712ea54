package matcher

import (
	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/internal/normalize"
)

// LocationResolver maps free-text counterparty strings from invoices to
// known service locations. Counterparty strings repeat heavily across an
// invoice batch, so resolutions (including failures) are memoized.
//
// A LocationResolver is not safe for concurrent use; the pipeline resolves
// counterparties from a single goroutine.
type LocationResolver struct {
	index     *ReferenceIndex
	threshold int

	memo map[string]*models.Location
}

// NewLocationResolver creates a resolver over the given index. The
// threshold is the minimum token-sort similarity (0-100) for the fuzzy
// fallback when no exact location key matches.
func NewLocationResolver(index *ReferenceIndex, threshold int) *LocationResolver {
	return &LocationResolver{
		index:     index,
		threshold: threshold,
		memo:      make(map[string]*models.Location),
	}
}

// Resolve maps a counterparty string to a location. Exact normalized
// lookup is tried first, then the best fuzzy match over all location keys
// at or above the threshold. Ties break toward the lexicographically
// smallest location key. Returns false when the counterparty cannot be
// resolved; that outcome is memoized too.
func (lr *LocationResolver) Resolve(counterparty string) (*models.Location, bool) {
	key := normalize.NormalizeExact(counterparty)
	if key == "" {
		return nil, false
	}

	if location, seen := lr.memo[key]; seen {
		return location, location != nil
	}

	location := lr.resolve(key)
	lr.memo[key] = location
	return location, location != nil
}

func (lr *LocationResolver) resolve(key string) *models.Location {
	if location, ok := lr.index.LookupLocation(key); ok {
		return location
	}

	candidates := make([]scoredCandidate, 0, len(lr.index.LocationKeyIndex))
	for _, locationKey := range lr.index.LocationKeys() {
		candidates = append(candidates, scoredCandidate{
			name:  locationKey,
			score: TokenSortRatio(key, locationKey),
		})
	}

	best, ok := bestCandidate(candidates, lr.threshold)
	if !ok {
		return nil
	}

	location, _ := lr.index.LookupLocation(best.name)
	return location
}

// CachedResolutions returns the number of memoized counterparty lookups,
// successful or not.
func (lr *LocationResolver) CachedResolutions() int {
	return len(lr.memo)
}
