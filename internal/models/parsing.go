package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// invoiceDateFormats are tried in order when parsing invoice dates.
// Export feeds vary between ISO timestamps and plain dates.
var invoiceDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
}

// ParseDecimalFromString parses a monetary amount, tolerating currency
// symbols, thousands separators and surrounding whitespace.
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// ParseTimeWithFormats parses a date string against the known invoice
// date formats in order.
func ParseTimeWithFormats(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, format := range invoiceDateFormats {
		if t, err := time.Parse(format, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format %q", s)
}

// CreateInvoiceFromCSV builds an InvoiceRecord from raw CSV field values.
// Amount and date are optional: blank values leave the zero value in
// place so resolution can proceed on name and counterparty alone.
func CreateInvoiceFromCSV(invoiceID, vendorNameRaw, counterparty, amountStr, dateStr string) (*InvoiceRecord, error) {
	record := NewInvoiceRecord(invoiceID, vendorNameRaw, counterparty)

	if strings.TrimSpace(amountStr) != "" {
		amount, err := ParseDecimalFromString(amountStr)
		if err != nil {
			return nil, err
		}
		record.Amount = amount
	}

	if strings.TrimSpace(dateStr) != "" {
		created, err := ParseTimeWithFormats(dateStr)
		if err != nil {
			return nil, err
		}
		record.CreatedDate = created
	}

	return record, nil
}
