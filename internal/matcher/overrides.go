package matcher

import (
	"sort"

	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/internal/normalize"
)

// OverrideTable holds manual raw-name to canonical-vendor mappings. Entries
// are keyed by the exact normalized form of the raw name, so an override
// fires for any casing or spacing variant of the name it was written for.
// Overrides are consulted before every other stage and may map to vendors
// that do not appear in the reference data at all.
type OverrideTable struct {
	entries map[string]string
}

// NewOverrideTable builds an override table from parsed entries. Later
// entries for the same raw name replace earlier ones.
func NewOverrideTable(entries []*models.OverrideEntry) *OverrideTable {
	table := &OverrideTable{
		entries: make(map[string]string, len(entries)),
	}

	for _, entry := range entries {
		key := normalize.NormalizeExact(entry.RawName)
		if key == "" {
			continue
		}
		table.entries[key] = entry.VendorName
	}

	return table
}

// DefaultOverrideEntries returns the built-in override mappings that ship
// with the tool. They cover known raw-name variants that the cascade alone
// resolves wrongly or not at all; entries loaded from an override file are
// applied on top and replace these for the same raw name.
func DefaultOverrideEntries() []*models.OverrideEntry {
	defaults := []struct{ raw, vendor string }{
		{"Waste Pro", "Waste Pro"},
		{"WastePro", "Waste Pro"},
		{"Waste Pro USA", "Waste Pro"},
		{"Waste Pro Caring For Our Communities", "Waste Pro"},
		{"Republic Services", "Republic Services"},
		{"Waste Management", "Waste Management"},
		{"Casella", "Casella Waste"},
		{"Casella Waste", "Casella Waste"},
		{"Casella Waste Systems", "Casella Waste"},
		{"GFL", "GFL Environmental"},
		{"GFL Environmental", "GFL Environmental"},
		{"Rumpke", "Rumpke"},
		{"Flood Brothers", "Flood Brothers Disposal"},
		{"Meridian Waste", "Meridian Waste"},
		{"Delta Waste Solutions", "Delta Waste Solutions"},
		{"1-800-GOT-JUNK", "1-800-GOT-JUNK National"},
		{"1-800-GOT-JUNK?", "1-800-GOT-JUNK National"},
		{"1-800-Got Junk", "1-800-GOT-JUNK National"},
		{"1-800 Got Junk", "1-800-GOT-JUNK National"},
		{"1-800-Got Junk Commercial Services (USA) LLC", "1-800-GOT-JUNK National"},
	}

	entries := make([]*models.OverrideEntry, 0, len(defaults))
	for _, d := range defaults {
		entries = append(entries, &models.OverrideEntry{RawName: d.raw, VendorName: d.vendor})
	}
	return entries
}

// Lookup returns the canonical vendor name mapped to the raw name's exact
// key, if an override exists.
func (ot *OverrideTable) Lookup(exactKey string) (string, bool) {
	name, ok := ot.entries[exactKey]
	return name, ok
}

// Len returns the number of override entries.
func (ot *OverrideTable) Len() int {
	return len(ot.entries)
}

// Keys returns the override keys in sorted order, used by reference
// quality checks to detect overrides shadowed by exact-key matches.
func (ot *OverrideTable) Keys() []string {
	keys := make([]string, 0, len(ot.entries))
	for key := range ot.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
