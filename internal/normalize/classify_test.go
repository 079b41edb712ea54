package normalize

import (
	"testing"

	"vendor-normalization-service/internal/models"
)

func TestClassifierClassify(t *testing.T) {
	c := NewClassifier(5, 3)

	tests := []struct {
		name           string
		input          string
		expectInvalid  bool
		expectedReason models.InvalidReason
	}{
		{
			name:           "empty name",
			input:          "",
			expectInvalid:  true,
			expectedReason: models.ReasonEmpty,
		},
		{
			name:           "below minimum length",
			input:          "AB",
			expectInvalid:  true,
			expectedReason: models.ReasonTooShort,
		},
		{
			name:           "length check precedes garbage check",
			input:          "123",
			expectInvalid:  true,
			expectedReason: models.ReasonTooShort,
		},
		{
			name:           "too few letters",
			input:          "1-800-1",
			expectInvalid:  true,
			expectedReason: models.ReasonTooFewLetters,
		},
		{
			name:           "starts lowercase",
			input:          "acme waste",
			expectInvalid:  true,
			expectedReason: models.ReasonStartsLowercase,
		},
		{
			name:           "bare legal suffix",
			input:          "CORP.",
			expectInvalid:  true,
			expectedReason: models.ReasonGarbagePattern,
		},
		{
			name:           "all digits at valid length",
			input:          "12345678",
			expectInvalid:  true,
			expectedReason: models.ReasonTooFewLetters,
		},
		{
			name:          "valid name",
			input:         "Waste Pro",
			expectInvalid: false,
		},
		{
			name:          "valid name with digits",
			input:         "Area 51 Disposal",
			expectInvalid: false,
		},
		{
			name:           "punctuation only at valid length",
			input:          "-----",
			expectInvalid:  true,
			expectedReason: models.ReasonTooFewLetters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, invalid := c.Classify(tt.input)
			if invalid != tt.expectInvalid {
				t.Fatalf("Classify(%q) invalid = %v, expected %v", tt.input, invalid, tt.expectInvalid)
			}
			if invalid && reason != tt.expectedReason {
				t.Errorf("Classify(%q) reason = %q, expected %q", tt.input, reason, tt.expectedReason)
			}
		})
	}
}

func TestClassifierGarbagePattern(t *testing.T) {
	// A classifier with a low length floor exposes the garbage patterns
	// that the default thresholds usually shadow.
	c := NewClassifier(1, 1)

	tests := []struct {
		input          string
		expectedReason models.InvalidReason
	}{
		{"INC", models.ReasonGarbagePattern},
		{"llc.", models.ReasonStartsLowercase},
		{"LTD.", models.ReasonGarbagePattern},
		{"99", models.ReasonTooFewLetters},
		{"??", models.ReasonTooFewLetters},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			reason, invalid := c.Classify(tt.input)
			if !invalid {
				t.Fatalf("Classify(%q) expected invalid", tt.input)
			}
			if reason != tt.expectedReason {
				t.Errorf("Classify(%q) reason = %q, expected %q", tt.input, reason, tt.expectedReason)
			}
		})
	}
}

func TestNewClassifierDefaults(t *testing.T) {
	c := NewClassifier(0, -1)
	if c.minNameLength != 5 {
		t.Errorf("minNameLength = %d, expected 5", c.minNameLength)
	}
	if c.minAlphaChars != 3 {
		t.Errorf("minAlphaChars = %d, expected 3", c.minAlphaChars)
	}
}
