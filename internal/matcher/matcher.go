package matcher

import (
	"strings"

	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/internal/normalize"
)

// MatchingEngine is the core engine responsible for resolving messy vendor
// names against the canonical reference. Stages run in a fixed order and
// the first stage that produces a result wins; later stages never override
// an earlier decision.
type MatchingEngine struct {
	Config    *MatchingConfig
	Index     *ReferenceIndex
	Overrides *OverrideTable
	Locations *LocationResolver

	normalizer *normalize.Normalizer
	classifier *normalize.Classifier

	vendorsByName map[string]*models.CanonicalVendor
	fileOverrides []*models.OverrideEntry
}

// NewMatchingEngine creates a new matching engine with the specified configuration
func NewMatchingEngine(config *MatchingConfig) *MatchingEngine {
	if config == nil {
		config = DefaultMatchingConfig()
	}

	return &MatchingEngine{
		Config:     config,
		Overrides:  NewOverrideTable(DefaultOverrideEntries()),
		normalizer: normalize.NewNormalizer(config.SuffixStopwords),
		classifier: normalize.NewClassifier(config.MinNameLength, config.MinAlphaChars),
	}
}

// LoadReference loads canonical vendors and locations into the engine and
// builds the lookup indexes.
func (me *MatchingEngine) LoadReference(vendors []*models.CanonicalVendor, locations []*models.Location) {
	me.Index = NewReferenceIndex(vendors, locations, me.normalizer)
	me.Locations = NewLocationResolver(me.Index, me.Config.LocationFuzzyThreshold)

	me.vendorsByName = make(map[string]*models.CanonicalVendor, len(vendors))
	for _, vendor := range vendors {
		if _, exists := me.vendorsByName[vendor.Name]; !exists {
			me.vendorsByName[vendor.Name] = vendor
		}
	}
	for _, location := range locations {
		for _, vendor := range location.Vendors {
			if _, exists := me.vendorsByName[vendor.Name]; !exists {
				me.vendorsByName[vendor.Name] = vendor
			}
		}
	}

	me.rebuildOverrides()
}

// LoadOverrides loads manual override entries into the engine. Loaded
// entries replace built-in defaults for the same raw name.
func (me *MatchingEngine) LoadOverrides(entries []*models.OverrideEntry) {
	me.fileOverrides = entries
	me.rebuildOverrides()
}

// rebuildOverrides recomputes the effective override table. Built-in
// defaults whose exact key belongs to a loaded canonical vendor are
// dropped so a canonical name keeps resolving to itself through the
// exact stage; overrides loaded from a file are never pruned.
func (me *MatchingEngine) rebuildOverrides() {
	entries := make([]*models.OverrideEntry, 0)
	for _, entry := range DefaultOverrideEntries() {
		if me.Index != nil {
			if _, taken := me.Index.LookupExact(normalize.NormalizeExact(entry.RawName)); taken {
				continue
			}
		}
		entries = append(entries, entry)
	}
	me.Overrides = NewOverrideTable(append(entries, me.fileOverrides...))
}

// Resolve runs the full cascade for one raw vendor name. The counterparty
// strings are tried in order for the location-constrained stages; the
// first counterparty whose location produces a hit settles the name.
// Resolve never fails: every name ends as matched, invalid, or unmatched.
func (me *MatchingEngine) Resolve(rawName string, counterparties []string) *models.MatchResult {
	cleaned := normalize.CleanRawName(rawName)
	exactKey := normalize.NormalizeExact(cleaned)

	// Stage 1: manual override. Overrides outrank everything, including
	// the invalid-name screen, so a known-bad raw string can still be
	// pinned to a vendor.
	if target, ok := me.Overrides.Lookup(exactKey); ok {
		return models.Matched(rawName, me.vendorFor(target), models.MethodManual, 100)
	}

	// Stage 2: invalid-name screen.
	if reason, invalid := me.classifier.Classify(cleaned); invalid {
		return models.Invalid(rawName, reason)
	}

	if me.Index == nil {
		return models.Unmatched(rawName)
	}

	// Stage 3: exact key lookup.
	if vendor, ok := me.Index.LookupExact(exactKey); ok {
		return models.Matched(rawName, vendor, models.MethodExact, 100)
	}

	// Stage 4: aggressive key lookup.
	aggressiveKey := me.normalizer.Aggressive(cleaned)
	if vendor, ok := me.Index.LookupAggressive(aggressiveKey); ok {
		return models.Matched(rawName, vendor, models.MethodNormalized, 100)
	}

	// Stage 5: location-constrained matching.
	if me.Config.EnableLocationMatching {
		for _, counterparty := range counterparties {
			if result := me.resolveAtLocation(rawName, exactKey, aggressiveKey, counterparty); result != nil {
				return result
			}
		}
	}

	// Stage 6: global fuzzy matching.
	if result := me.resolveGlobalFuzzy(rawName, aggressiveKey); result != nil {
		return result
	}

	// Stage 7: partial prefix/substring matching.
	if me.Config.EnablePartialMatching {
		if result := me.resolvePartial(rawName, exactKey); result != nil {
			return result
		}
	}

	return models.Unmatched(rawName)
}

// resolveAtLocation runs the location-constrained sub-cascade for one
// counterparty. Returns nil when the counterparty does not resolve to a
// location or nothing at the location clears a threshold.
func (me *MatchingEngine) resolveAtLocation(rawName, exactKey, aggressiveKey, counterparty string) *models.MatchResult {
	location, ok := me.Locations.Resolve(counterparty)
	if !ok {
		return nil
	}

	// A single-vendor location settles the name outright: the site only
	// ever bills through one vendor, so no similarity evidence is needed.
	if location.VendorCount() == 1 {
		result := models.Matched(rawName, location.Vendors[0], models.MethodLocationExact, 100)
		result.Location = location.Name
		return result
	}

	locationKey := normalize.NormalizeExact(location.Name)

	if vendor, ok := me.Index.LookupLocationVendor(locationKey, exactKey); ok {
		result := models.Matched(rawName, vendor, models.MethodLocationExact, 100)
		result.Location = location.Name
		return result
	}

	if vendor, ok := me.Index.LookupLocationVendorAggressive(locationKey, aggressiveKey); ok {
		result := models.Matched(rawName, vendor, models.MethodLocationNormalized, 100)
		result.Location = location.Name
		return result
	}

	// Constrained fuzzy over the location's vendor set. The thresholds
	// sit far below the global ones: the location constraint already
	// carries most of the evidence.
	fuzzy := make([]scoredCandidate, 0, len(location.Vendors))
	partial := make([]scoredCandidate, 0, len(location.Vendors))
	for _, vendor := range location.Vendors {
		vendorKey := me.Index.ExactKeyFor(vendor.Name)
		fuzzy = append(fuzzy, scoredCandidate{name: vendor.Name, score: TokenSortRatio(exactKey, vendorKey)})
		partial = append(partial, scoredCandidate{name: vendor.Name, score: PartialRatio(exactKey, vendorKey)})
	}

	if best, ok := bestCandidate(fuzzy, me.Config.ConstrainedFuzzyThreshold); ok {
		result := models.Matched(rawName, me.vendorFor(best.name), models.MethodLocationFuzzy, float64(best.score))
		result.Location = location.Name
		return result
	}

	if best, ok := bestCandidate(partial, me.Config.ConstrainedPartialThreshold); ok {
		result := models.Matched(rawName, me.vendorFor(best.name), models.MethodLocationPartial, float64(best.score))
		result.Location = location.Name
		return result
	}

	return nil
}

// resolveGlobalFuzzy scores the name against every canonical vendor. Both
// sides are compared through their aggressive keys so suffix and
// punctuation noise cannot depress the score.
func (me *MatchingEngine) resolveGlobalFuzzy(rawName, aggressiveKey string) *models.MatchResult {
	candidates := make([]scoredCandidate, 0, len(me.Index.AllVendors))
	for _, vendor := range me.Index.AllVendors {
		candidates = append(candidates, scoredCandidate{
			name:  vendor.Name,
			score: TokenSortRatio(aggressiveKey, me.Index.AggressiveKeyFor(vendor.Name)),
		})
	}

	best, ok := bestCandidate(candidates, me.Config.GlobalFuzzyThreshold)
	if !ok {
		return nil
	}

	return models.Matched(rawName, me.vendorFor(best.name), models.MethodGlobal, float64(best.score))
}

// resolvePartial handles truncated names: a raw name that is a prefix of a
// canonical name scores 95, a raw name contained in the canonical name's
// first word scores 90. Among equally scored candidates the shortest
// canonical name wins, then the lexicographically smallest.
func (me *MatchingEngine) resolvePartial(rawName, exactKey string) *models.MatchResult {
	if len([]rune(exactKey)) < me.Config.PartialMinLength {
		return nil
	}

	var bestVendor *models.CanonicalVendor
	bestScore := 0

	for _, vendor := range me.Index.AllVendors {
		vendorKey := me.Index.ExactKeyFor(vendor.Name)
		if vendorKey == "" {
			continue
		}

		score := 0
		if strings.HasPrefix(vendorKey, exactKey) {
			score = 95
		} else if firstWord := firstToken(vendorKey); firstWord != "" && strings.Contains(firstWord, exactKey) {
			score = 90
		}
		if score == 0 {
			continue
		}

		if bestVendor == nil || score > bestScore || (score == bestScore && preferPartial(vendor.Name, bestVendor.Name)) {
			bestVendor = vendor
			bestScore = score
		}
	}

	if bestVendor == nil {
		return nil
	}

	return models.Matched(rawName, bestVendor, models.MethodPartial, float64(bestScore))
}

// preferPartial reports whether candidate should replace current at equal
// score: shorter canonical names win, then lexicographic order.
func preferPartial(candidate, current string) bool {
	if len(candidate) != len(current) {
		return len(candidate) < len(current)
	}
	return candidate < current
}

func firstToken(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// vendorFor returns the canonical vendor registered under name, or a
// detached vendor for override targets absent from the reference data.
func (me *MatchingEngine) vendorFor(name string) *models.CanonicalVendor {
	if vendor, ok := me.vendorsByName[name]; ok {
		return vendor
	}
	return models.NewCanonicalVendor(name)
}

// Normalizer exposes the engine's key normalizer for callers that need to
// derive keys consistently with the engine, such as quality checks.
func (me *MatchingEngine) Normalizer() *normalize.Normalizer {
	return me.normalizer
}
