// Package models defines the core data types for vendor name resolution.
//
// The types here mirror the shape of the reference data the pipeline
// consumes (canonical vendor list, location to vendor relation, invoice
// records, manual overrides) and the result types it produces (match
// results with method and confidence score).
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// MatchMethod identifies which stage of the matching cascade produced a match.
type MatchMethod string

const (
	// MethodManual indicates a hit in the human-curated override table.
	MethodManual MatchMethod = "manual"
	// MethodExact indicates an exact normalized-key lookup hit.
	MethodExact MatchMethod = "exact"
	// MethodNormalized indicates an aggressive normalized-key lookup hit.
	MethodNormalized MatchMethod = "normalized"
	// MethodLocationExact indicates an exact-key hit within a location's
	// vendor set, or the single vendor of a single-vendor location.
	MethodLocationExact MatchMethod = "location_exact"
	// MethodLocationNormalized indicates an aggressive-key hit within a
	// location's vendor set.
	MethodLocationNormalized MatchMethod = "location_normalized"
	// MethodLocationFuzzy indicates a fuzzy match restricted to a location's
	// vendor set.
	MethodLocationFuzzy MatchMethod = "location_fuzzy"
	// MethodLocationPartial indicates a substring-similarity match restricted
	// to a location's vendor set.
	MethodLocationPartial MatchMethod = "location_partial"
	// MethodGlobal indicates an unconstrained fuzzy match against the full
	// canonical vendor list.
	MethodGlobal MatchMethod = "global"
	// MethodPartial indicates a prefix/first-word substring match against the
	// full canonical vendor list.
	MethodPartial MatchMethod = "partial"
)

// String returns the string representation of MatchMethod
func (m MatchMethod) String() string {
	return string(m)
}

// IsLocationConstrained reports whether the method used location context.
func (m MatchMethod) IsLocationConstrained() bool {
	switch m {
	case MethodLocationExact, MethodLocationNormalized, MethodLocationFuzzy, MethodLocationPartial:
		return true
	default:
		return false
	}
}

// InvalidReason explains why a raw name was classified as unusable.
type InvalidReason string

const (
	ReasonEmpty           InvalidReason = "empty"
	ReasonTooShort        InvalidReason = "too_short"
	ReasonTooFewLetters   InvalidReason = "too_few_letters"
	ReasonStartsLowercase InvalidReason = "starts_lowercase"
	ReasonGarbagePattern  InvalidReason = "garbage_pattern"
)

// String returns the string representation of InvalidReason
func (r InvalidReason) String() string {
	return string(r)
}

// MatchOutcome is the top-level disposition of one raw vendor name.
type MatchOutcome int

const (
	// OutcomeMatched means the name resolved to a canonical vendor.
	OutcomeMatched MatchOutcome = iota
	// OutcomeInvalid means the name is structurally unusable and was flagged.
	OutcomeInvalid
	// OutcomeUnmatched means the name is valid but no sufficiently confident
	// canonical target was found.
	OutcomeUnmatched
)

// String returns the string representation of MatchOutcome
func (o MatchOutcome) String() string {
	switch o {
	case OutcomeMatched:
		return "Matched"
	case OutcomeInvalid:
		return "Invalid"
	case OutcomeUnmatched:
		return "Unmatched"
	default:
		return "Unknown"
	}
}

// CanonicalVendor is an entry from the curated reference list — the only
// valid target of a match.
type CanonicalVendor struct {
	Name string `json:"name" csv:"vendor_name"`
}

// NewCanonicalVendor creates a CanonicalVendor, trimming surrounding
// whitespace from the name.
func NewCanonicalVendor(name string) *CanonicalVendor {
	return &CanonicalVendor{Name: strings.TrimSpace(name)}
}

// Validate performs basic validation on the CanonicalVendor
func (v *CanonicalVendor) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("canonical vendor name cannot be empty")
	}
	return nil
}

// String returns a string representation of the CanonicalVendor
func (v *CanonicalVendor) String() string {
	return fmt.Sprintf("CanonicalVendor{Name: %s}", v.Name)
}

// Location is a named physical/business site associated with the set of
// canonical vendors known to service it.
type Location struct {
	Name    string             `json:"name" csv:"location_name"`
	Vendors []*CanonicalVendor `json:"vendors"`
}

// NewLocation creates a Location with an empty vendor set
func NewLocation(name string) *Location {
	return &Location{
		Name:    strings.TrimSpace(name),
		Vendors: make([]*CanonicalVendor, 0),
	}
}

// AddVendor appends a vendor to the location's vendor set if it is not
// already present (by canonical name).
func (l *Location) AddVendor(vendor *CanonicalVendor) {
	for _, existing := range l.Vendors {
		if existing.Name == vendor.Name {
			return
		}
	}
	l.Vendors = append(l.Vendors, vendor)
}

// VendorCount returns the number of vendors known to serve this location
func (l *Location) VendorCount() int {
	return len(l.Vendors)
}

// Validate performs basic validation on the Location
func (l *Location) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("location name cannot be empty")
	}
	return nil
}

// String returns a string representation of the Location
func (l *Location) String() string {
	return fmt.Sprintf("Location{Name: %s, Vendors: %d}", l.Name, len(l.Vendors))
}

// InvoiceRecord is one invoice row. The resolution core only consumes the
// raw vendor name and counterparty; the remaining fields flow through to
// reporting and aggregates.
type InvoiceRecord struct {
	InvoiceID     string          `json:"invoiceID" csv:"invoice_md5"`
	VendorNameRaw string          `json:"vendorNameRaw" csv:"vendor_name"`
	Counterparty  string          `json:"counterparty" csv:"counterparty"`
	Amount        decimal.Decimal `json:"amount" csv:"amount"`
	CreatedDate   time.Time       `json:"createdDate" csv:"sp_created_date"`
}

// NewInvoiceRecord creates a new InvoiceRecord instance
func NewInvoiceRecord(invoiceID, vendorNameRaw, counterparty string) *InvoiceRecord {
	return &InvoiceRecord{
		InvoiceID:     invoiceID,
		VendorNameRaw: vendorNameRaw,
		Counterparty:  counterparty,
	}
}

// Validate performs basic validation on the InvoiceRecord
func (r *InvoiceRecord) Validate() error {
	if strings.TrimSpace(r.VendorNameRaw) == "" {
		return fmt.Errorf("invoice vendor name cannot be empty")
	}
	if strings.TrimSpace(r.Counterparty) == "" {
		return fmt.Errorf("invoice counterparty cannot be empty")
	}
	return nil
}

// String returns a string representation of the InvoiceRecord
func (r *InvoiceRecord) String() string {
	return fmt.Sprintf("InvoiceRecord{ID: %s, Vendor: %s, Counterparty: %s}",
		r.InvoiceID, r.VendorNameRaw, r.Counterparty)
}

// MarshalJSON implements custom JSON marshaling for InvoiceRecord
func (r *InvoiceRecord) MarshalJSON() ([]byte, error) {
	type Alias InvoiceRecord
	return json.Marshal(&struct {
		Amount      string `json:"amount"`
		CreatedDate string `json:"createdDate"`
		*Alias
	}{
		Amount:      r.Amount.String(),
		CreatedDate: r.CreatedDate.Format(time.RFC3339),
		Alias:       (*Alias)(r),
	})
}

// OverrideEntry is a human-curated exact mapping from a messy raw name to a
// canonical vendor. Overrides take precedence over all algorithmic matching.
type OverrideEntry struct {
	RawName    string `json:"rawName" csv:"vendor_name"`
	VendorName string `json:"vendorName" csv:"normalized_vendor"`
}

// Validate performs basic validation on the OverrideEntry
func (o *OverrideEntry) Validate() error {
	if o.RawName == "" {
		return fmt.Errorf("override raw name cannot be empty")
	}
	if strings.TrimSpace(o.VendorName) == "" {
		return fmt.Errorf("override target vendor cannot be empty")
	}
	return nil
}

// MatchResult is the disposition of one distinct raw vendor name: exactly
// one of Matched, Invalid or Unmatched per run.
type MatchResult struct {
	RawName       string           `json:"rawName"`
	Outcome       MatchOutcome     `json:"outcome"`
	Vendor        *CanonicalVendor `json:"vendor,omitempty"`
	Method        MatchMethod      `json:"method,omitempty"`
	Score         float64          `json:"score"`
	InvalidReason InvalidReason    `json:"invalidReason,omitempty"`
	Location      string           `json:"location,omitempty"`
}

// Matched constructs a successful MatchResult
func Matched(rawName string, vendor *CanonicalVendor, method MatchMethod, score float64) *MatchResult {
	return &MatchResult{
		RawName: rawName,
		Outcome: OutcomeMatched,
		Vendor:  vendor,
		Method:  method,
		Score:   score,
	}
}

// Invalid constructs a MatchResult for a structurally unusable name
func Invalid(rawName string, reason InvalidReason) *MatchResult {
	return &MatchResult{
		RawName:       rawName,
		Outcome:       OutcomeInvalid,
		InvalidReason: reason,
	}
}

// Unmatched constructs a MatchResult for a valid name with no canonical target
func Unmatched(rawName string) *MatchResult {
	return &MatchResult{
		RawName: rawName,
		Outcome: OutcomeUnmatched,
	}
}

// IsMatched reports whether the result carries a canonical vendor
func (mr *MatchResult) IsMatched() bool {
	return mr.Outcome == OutcomeMatched && mr.Vendor != nil
}

// String returns a string representation of the MatchResult
func (mr *MatchResult) String() string {
	switch mr.Outcome {
	case OutcomeMatched:
		return fmt.Sprintf("MatchResult{%q -> %q, method: %s, score: %.0f}",
			mr.RawName, mr.Vendor.Name, mr.Method, mr.Score)
	case OutcomeInvalid:
		return fmt.Sprintf("MatchResult{%q invalid: %s}", mr.RawName, mr.InvalidReason)
	default:
		return fmt.Sprintf("MatchResult{%q unmatched}", mr.RawName)
	}
}

// CountLetters returns the number of alphabetic characters in a string.
// Shared by the invalid-name classifier and reference quality checks.
func CountLetters(s string) int {
	count := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			count++
		}
	}
	return count
}
