package normalize

import (
	"regexp"
	"unicode"

	"vendor-normalization-service/internal/models"
)

var garbagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(INC|LLC|CORP|CO|LTD)\.?$`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^[^a-zA-Z]*$`),
}

// Classifier screens raw names for structural damage before any matching
// is attempted. Rules are evaluated in a fixed order and the first rule
// that fires determines the reported reason.
type Classifier struct {
	minNameLength int
	minAlphaChars int
}

// NewClassifier creates a Classifier with the given thresholds. Values
// below 1 fall back to the standard thresholds (5 characters, 3 letters).
func NewClassifier(minNameLength, minAlphaChars int) *Classifier {
	if minNameLength < 1 {
		minNameLength = 5
	}
	if minAlphaChars < 1 {
		minAlphaChars = 3
	}
	return &Classifier{
		minNameLength: minNameLength,
		minAlphaChars: minAlphaChars,
	}
}

// Classify reports whether a cleaned raw name is structurally unusable.
// The returned boolean is true for invalid names, with the reason for the
// first rule that matched. Classification operates on the name as given;
// callers apply CleanRawName first.
func (c *Classifier) Classify(name string) (models.InvalidReason, bool) {
	if name == "" {
		return models.ReasonEmpty, true
	}

	if len([]rune(name)) < c.minNameLength {
		return models.ReasonTooShort, true
	}

	if models.CountLetters(name) < c.minAlphaChars {
		return models.ReasonTooFewLetters, true
	}

	first := []rune(name)[0]
	if unicode.IsLower(first) {
		return models.ReasonStartsLowercase, true
	}

	for _, pattern := range garbagePatterns {
		if pattern.MatchString(name) {
			return models.ReasonGarbagePattern, true
		}
	}

	return "", false
}
