// Package normalize derives comparison keys from messy vendor name strings
// and classifies names that are too damaged to resolve at all.
//
// Two key fidelities are produced:
//   - the exact key: whitespace collapsed, uppercased, structure preserved
//   - the aggressive key: exact key with punctuation stripped and
//     legal-entity suffix tokens removed
//
// Both transforms are total (they never fail, including on embedded
// newlines and control characters, which are treated as whitespace) and
// idempotent: applying either twice yields the same key as applying it once.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultSuffixStopwords is the default stop-list removed by the aggressive
// key transform: legal-entity suffix tokens only. Domain-specific noise
// tokens (SERVICE, WASTE, ...) are opt-in via configuration because
// stripping them collapses otherwise distinct canonical names.
var DefaultSuffixStopwords = []string{"INC", "LLC", "CORP", "CO", "LTD"}

// DomainNoiseStopwords are additional tokens stripped by relaxed matching
// configurations, mirroring the looser of the two original pipelines.
var DomainNoiseStopwords = []string{
	"COMPANY", "SERVICE", "SERVICES", "DISPOSAL", "WASTE", "SANITATION",
}

var (
	// Dotted abbreviation form of LLC ("L.L.C."), collapsed before
	// punctuation stripping so the suffix stop-list can see it as one token.
	dottedLLCRegex = regexp.MustCompile(`\bL\.?L\.?C\b\.?`)

	nonAlnumRegex = regexp.MustCompile(`[^A-Z0-9 ]`)
)

// Normalizer derives normalized comparison keys from raw name strings.
// A Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	stopwords map[string]bool
}

// NewNormalizer creates a Normalizer with the given aggressive-key stop-list.
// A nil or empty list falls back to DefaultSuffixStopwords.
func NewNormalizer(stopwords []string) *Normalizer {
	if len(stopwords) == 0 {
		stopwords = DefaultSuffixStopwords
	}

	set := make(map[string]bool, len(stopwords))
	for _, word := range stopwords {
		word = strings.ToUpper(strings.TrimSpace(word))
		if word != "" {
			set[word] = true
		}
	}

	return &Normalizer{stopwords: set}
}

// Exact produces the exact comparison key: surrounding whitespace trimmed,
// internal whitespace runs collapsed to a single space, uppercased.
// Empty or all-whitespace input yields the empty key.
func (n *Normalizer) Exact(name string) string {
	return NormalizeExact(name)
}

// Aggressive produces the loose comparison key: the exact key with dotted
// abbreviations collapsed, all punctuation replaced by spaces, stop-list
// tokens removed, and whitespace re-collapsed.
func (n *Normalizer) Aggressive(name string) string {
	key := NormalizeExact(name)
	if key == "" {
		return ""
	}

	key = dottedLLCRegex.ReplaceAllString(key, "LLC")
	key = nonAlnumRegex.ReplaceAllString(key, " ")

	fields := strings.Fields(key)
	kept := fields[:0]
	for _, token := range fields {
		if !n.stopwords[token] {
			kept = append(kept, token)
		}
	}

	return strings.Join(kept, " ")
}

// NormalizeExact is the package-level exact key transform. It is shared by
// every component that needs a structure-preserving lookup key, including
// location key derivation where no stop-list applies.
func NormalizeExact(name string) string {
	fields := strings.FieldsFunc(name, isSpaceOrControl)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(strings.Join(fields, " "))
}

// CleanRawName is the pre-cleaning applied to raw invoice vendor names at
// parse time: newlines and other control characters become spaces, then
// whitespace runs collapse and surrounding whitespace is trimmed. Unlike
// the key transforms it preserves the original casing.
func CleanRawName(name string) string {
	fields := strings.FieldsFunc(name, isSpaceOrControl)
	return strings.Join(fields, " ")
}

func isSpaceOrControl(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r)
}
