package main

import (
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceGenerator generates invoice export CSV files with messy vendor names
type InvoiceGenerator struct {
	Count     int
	StartDate time.Time
	EndDate   time.Time
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	Seed      int64
	Vendors   []string
	Locations []string
}

// InvoiceTemplate represents an invoice record
type InvoiceTemplate struct {
	InvoiceID    string
	VendorName   string
	Counterparty string
	Amount       decimal.Decimal
	CreatedDate  time.Time
}

var defaultVendors = []string{
	"Waste Management of Texas, Inc.",
	"Waste Pro of Florida",
	"Republic Services of Georgia",
	"ABC Manufacturing Corp",
	"Acme Hauling LLC",
	"Lone Star Disposal, Ltd.",
	"Evergreen Recycling Co",
	"Metro Container Services Inc",
	"Allied Debris Removal",
	"Peach State Environmental LLC",
}

var defaultLocations = []string{
	"Elm Street Yard",
	"Oak Avenue Yard",
	"Houston North Yard",
	"Atlanta Perimeter Yard",
	"Tampa Bay Yard",
	"Dallas South Yard",
}

var invalidNames = []string{
	"na",
	"n/a",
	"x",
	"...",
	"123456",
	"tbd",
	"unknown vendor",
	"--",
}

func main() {
	var (
		output     = flag.String("output", "generated_invoices.csv", "Output CSV file path")
		count      = flag.Int("count", 1000, "Number of invoices to generate")
		startDate  = flag.String("start-date", "2025-01-01", "Start date (YYYY-MM-DD)")
		endDate    = flag.String("end-date", "2025-12-31", "End date (YYYY-MM-DD)")
		minAmount  = flag.Float64("min-amount", 10.00, "Minimum invoice amount")
		maxAmount  = flag.Float64("max-amount", 25000.00, "Maximum invoice amount")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
		pattern    = flag.String("pattern", "random", "Generation pattern: random, messy, invalid-heavy, monthly-drop")
		vendorFile = flag.String("vendor-file", "", "Optional canonical vendor list to draw names from")
	)
	flag.Parse()

	// Parse dates
	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}

	end, err := time.Parse("2006-01-02", *endDate)
	if err != nil {
		log.Fatalf("Invalid end date: %v", err)
	}

	vendors := defaultVendors
	if *vendorFile != "" {
		vendors, err = loadVendorNames(*vendorFile)
		if err != nil {
			log.Fatalf("Failed to load vendor file: %v", err)
		}
	}

	generator := &InvoiceGenerator{
		Count:     *count,
		StartDate: start,
		EndDate:   end,
		MinAmount: decimal.NewFromFloat(*minAmount),
		MaxAmount: decimal.NewFromFloat(*maxAmount),
		Seed:      *seed,
		Vendors:   vendors,
		Locations: defaultLocations,
	}

	// Generate invoices based on pattern
	var invoices []InvoiceTemplate
	switch *pattern {
	case "messy":
		invoices = generator.GenerateMessy()
	case "invalid-heavy":
		invoices = generator.GenerateInvalidHeavy()
	case "monthly-drop":
		invoices = generator.GenerateMonthlyDrop()
	default:
		invoices = generator.GenerateRandom()
	}

	// Write to CSV
	if err := generator.WriteToCSV(*output, invoices); err != nil {
		log.Fatalf("Failed to write CSV: %v", err)
	}

	fmt.Printf("Generated %d invoices in %s\n", len(invoices), *output)
	fmt.Printf("Date range: %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("Vendors drawn from: %d canonical names\n", len(vendors))
	fmt.Printf("Seed used: %d\n", *seed)
}

// GenerateRandom creates invoices whose vendor names are copied verbatim
// from the canonical list, distributed evenly across the date range
func (ig *InvoiceGenerator) GenerateRandom() []InvoiceTemplate {
	rng := rand.New(rand.NewSource(ig.Seed))
	invoices := make([]InvoiceTemplate, ig.Count)

	for i := 0; i < ig.Count; i++ {
		invoices[i] = InvoiceTemplate{
			InvoiceID:    ig.invoiceID(i),
			VendorName:   ig.Vendors[rng.Intn(len(ig.Vendors))],
			Counterparty: ig.Locations[rng.Intn(len(ig.Locations))],
			Amount:       ig.randomAmount(rng),
			CreatedDate:  ig.randomDate(rng),
		}
	}

	return invoices
}

// GenerateMessy creates invoices where most vendor names are corrupted
// variants of the canonical names: suffix drift, case changes, typos,
// truncation, and parenthetical annotations
func (ig *InvoiceGenerator) GenerateMessy() []InvoiceTemplate {
	rng := rand.New(rand.NewSource(ig.Seed))
	invoices := make([]InvoiceTemplate, ig.Count)

	for i := 0; i < ig.Count; i++ {
		name := ig.Vendors[rng.Intn(len(ig.Vendors))]
		if rng.Float64() < 0.7 {
			name = corruptName(rng, name)
		}

		invoices[i] = InvoiceTemplate{
			InvoiceID:    ig.invoiceID(i),
			VendorName:   name,
			Counterparty: ig.Locations[rng.Intn(len(ig.Locations))],
			Amount:       ig.randomAmount(rng),
			CreatedDate:  ig.randomDate(rng),
		}
	}

	return invoices
}

// GenerateInvalidHeavy creates invoices where a large share of vendor
// names are placeholders and garbage that the classifier should flag
func (ig *InvoiceGenerator) GenerateInvalidHeavy() []InvoiceTemplate {
	rng := rand.New(rand.NewSource(ig.Seed))
	invoices := make([]InvoiceTemplate, ig.Count)

	for i := 0; i < ig.Count; i++ {
		var name string
		if rng.Float64() < 0.4 {
			name = invalidNames[rng.Intn(len(invalidNames))]
		} else {
			name = ig.Vendors[rng.Intn(len(ig.Vendors))]
		}

		invoices[i] = InvoiceTemplate{
			InvoiceID:    ig.invoiceID(i),
			VendorName:   name,
			Counterparty: ig.Locations[rng.Intn(len(ig.Locations))],
			Amount:       ig.randomAmount(rng),
			CreatedDate:  ig.randomDate(rng),
		}
	}

	return invoices
}

// GenerateMonthlyDrop creates invoices where the first vendor's volume
// collapses in the final month of the range, exercising the dashboard
// month-over-month alerts
func (ig *InvoiceGenerator) GenerateMonthlyDrop() []InvoiceTemplate {
	rng := rand.New(rand.NewSource(ig.Seed))
	invoices := make([]InvoiceTemplate, 0, ig.Count)

	lastMonthStart := time.Date(ig.EndDate.Year(), ig.EndDate.Month(), 1, 0, 0, 0, 0, ig.EndDate.Location())
	dropVendor := ig.Vendors[0]

	for i := 0; i < ig.Count; i++ {
		date := ig.randomDate(rng)
		name := ig.Vendors[rng.Intn(len(ig.Vendors))]

		// Suppress 90% of the drop vendor's final-month volume
		if name == dropVendor && !date.Before(lastMonthStart) && rng.Float64() < 0.9 {
			name = ig.Vendors[1+rng.Intn(len(ig.Vendors)-1)]
		}

		invoices = append(invoices, InvoiceTemplate{
			InvoiceID:    ig.invoiceID(i),
			VendorName:   name,
			Counterparty: ig.Locations[rng.Intn(len(ig.Locations))],
			Amount:       ig.randomAmount(rng),
			CreatedDate:  date,
		})
	}

	return invoices
}

func (ig *InvoiceGenerator) invoiceID(index int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%d:%d", ig.Seed, index)))
	return hex.EncodeToString(sum[:])
}

func (ig *InvoiceGenerator) randomAmount(rng *rand.Rand) decimal.Decimal {
	amountRange := ig.MaxAmount.Sub(ig.MinAmount)
	return decimal.NewFromFloat(rng.Float64()).Mul(amountRange).Add(ig.MinAmount).Round(2)
}

func (ig *InvoiceGenerator) randomDate(rng *rand.Rand) time.Time {
	duration := ig.EndDate.Sub(ig.StartDate)
	return ig.StartDate.Add(time.Duration(rng.Int63n(int64(duration))))
}

// corruptName applies one random corruption to a canonical vendor name
func corruptName(rng *rand.Rand, name string) string {
	switch rng.Intn(6) {
	case 0:
		// Upper-case the whole name
		return strings.ToUpper(name)
	case 1:
		// Strip punctuation
		replacer := strings.NewReplacer(",", "", ".", "")
		return replacer.Replace(name)
	case 2:
		// Drop a trailing suffix token
		for _, suffix := range []string{", Inc.", " Inc", " LLC", " Corp", ", Ltd.", " Co"} {
			if strings.HasSuffix(name, suffix) {
				return strings.TrimSuffix(name, suffix)
			}
		}
		return name
	case 3:
		// Append a parenthetical annotation
		annotations := []string{"(old)", "(do not use)", "(new acct)", "(2)"}
		return name + " " + annotations[rng.Intn(len(annotations))]
	case 4:
		// Duplicate internal whitespace
		return strings.Replace(name, " ", "  ", 1)
	default:
		// Truncate to the first few tokens
		fields := strings.Fields(name)
		if len(fields) <= 2 {
			return name
		}
		return strings.Join(fields[:2], " ")
	}
}

// loadVendorNames reads canonical names from a vendor list CSV with a header
func loadVendorNames(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("file must have header and at least one data row")
	}

	// Skip header
	var names []string
	for i := 1; i < len(records); i++ {
		if len(records[i]) > 0 && strings.TrimSpace(records[i][0]) != "" {
			names = append(names, strings.TrimSpace(records[i][0]))
		}
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("no vendor names found in %s", filename)
	}

	return names, nil
}

// WriteToCSV writes invoices to a CSV file
func (ig *InvoiceGenerator) WriteToCSV(filename string, invoices []InvoiceTemplate) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"invoice_md5", "vendor_name", "counterparty", "amount", "sp_created_date"}); err != nil {
		return err
	}

	// Write invoices
	for _, invoice := range invoices {
		record := []string{
			invoice.InvoiceID,
			invoice.VendorName,
			invoice.Counterparty,
			invoice.Amount.String(),
			invoice.CreatedDate.Format("2006-01-02"),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}
