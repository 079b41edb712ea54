package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// ScenarioGenerator creates specific resolution test scenarios. Each
// scenario is a directory holding a vendor list, a location relation, an
// override table, and an invoice export exercising one cascade stage.
type ScenarioGenerator struct {
	Seed      int64
	OutputDir string
}

func main() {
	var (
		outputDir = flag.String("output-dir", "generated_scenarios", "Output directory for scenario files")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
		scenario  = flag.String("scenario", "all", "Scenario to generate: all, overrides, invalid-names, key-matching, location, fuzzy, quality-findings")
	)
	flag.Parse()

	// Create output directory
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	generator := &ScenarioGenerator{
		Seed:      *seed,
		OutputDir: *outputDir,
	}

	switch *scenario {
	case "overrides":
		generator.GenerateOverrideScenario()
	case "invalid-names":
		generator.GenerateInvalidNameScenario()
	case "key-matching":
		generator.GenerateKeyMatchingScenario()
	case "location":
		generator.GenerateLocationScenario()
	case "fuzzy":
		generator.GenerateFuzzyScenario()
	case "quality-findings":
		generator.GenerateQualityFindingsScenario()
	case "all":
		generator.GenerateAllScenarios()
	default:
		log.Fatalf("Unknown scenario: %s", *scenario)
	}

	fmt.Printf("Generated scenarios in %s\n", *outputDir)
	fmt.Printf("Seed used: %d\n", *seed)
}

// GenerateAllScenarios generates all predefined scenarios
func (sg *ScenarioGenerator) GenerateAllScenarios() {
	fmt.Println("Generating all scenarios...")
	sg.GenerateOverrideScenario()
	sg.GenerateInvalidNameScenario()
	sg.GenerateKeyMatchingScenario()
	sg.GenerateLocationScenario()
	sg.GenerateFuzzyScenario()
	sg.GenerateQualityFindingsScenario()
}

// GenerateOverrideScenario creates data where manual overrides must win
// over every later stage, including names the classifier would flag
func (sg *ScenarioGenerator) GenerateOverrideScenario() {
	fmt.Println("Generating manual override scenario...")

	vendors := [][]string{
		{"vendor_name"},
		{"Waste Pro of Florida"},
		{"Republic Services of Georgia"},
	}

	overrides := [][]string{
		{"vendor_name", "normalized_vendor"},
		// Alias that no fuzzy stage would find
		{"WPF", "Waste Pro of Florida"},
		// Override with an annotation that survives cleaning
		{"WASTE PRO (do not use)", "Waste Pro of Florida"},
		// Name the classifier would reject, override still wins
		{"rs", "Republic Services of Georgia"},
	}

	invoices := [][]string{
		{"invoice_md5", "vendor_name", "counterparty", "amount", "sp_created_date"},
		{"ovr00001", "WPF", "Tampa Bay Yard", "150.00", "2025-06-02"},
		{"ovr00002", "waste pro (do not use)", "Tampa Bay Yard", "90.00", "2025-06-03"},
		{"ovr00003", "rs", "Atlanta Perimeter Yard", "410.50", "2025-06-04"},
	}

	sg.writeScenario("overrides", vendors, nil, overrides, invoices)
}

// GenerateInvalidNameScenario creates invoices whose vendor names hit
// every classifier rule
func (sg *ScenarioGenerator) GenerateInvalidNameScenario() {
	fmt.Println("Generating invalid name scenario...")

	vendors := [][]string{
		{"vendor_name"},
		{"Acme Hauling LLC"},
	}

	invoices := [][]string{
		{"invoice_md5", "vendor_name", "counterparty", "amount", "sp_created_date"},
		// Empty after cleaning
		{"inv00001", "   ", "Elm Street Yard", "10.00", "2025-06-02"},
		// Too short
		{"inv00002", "na", "Elm Street Yard", "20.00", "2025-06-02"},
		// Too few letters
		{"inv00003", "12345678", "Elm Street Yard", "30.00", "2025-06-03"},
		// Starts lowercase
		{"inv00004", "unknown vendor", "Elm Street Yard", "40.00", "2025-06-03"},
		// Garbage pattern
		{"inv00005", "######", "Elm Street Yard", "50.00", "2025-06-04"},
		// Valid name for contrast
		{"inv00006", "Acme Hauling LLC", "Elm Street Yard", "60.00", "2025-06-04"},
	}

	sg.writeScenario("invalid-names", vendors, nil, nil, invoices)
}

// GenerateKeyMatchingScenario creates names that resolve by exact and
// aggressive key lookups but not verbatim equality
func (sg *ScenarioGenerator) GenerateKeyMatchingScenario() {
	fmt.Println("Generating key matching scenario...")

	vendors := [][]string{
		{"vendor_name"},
		{"Waste Management of Texas, Inc."},
		{"Lone Star Disposal, Ltd."},
	}

	invoices := [][]string{
		{"invoice_md5", "vendor_name", "counterparty", "amount", "sp_created_date"},
		// Exact key: case and whitespace differences only
		{"key00001", "WASTE MANAGEMENT OF TEXAS, INC.", "Houston North Yard", "100.00", "2025-06-02"},
		{"key00002", "waste  management  of  texas, inc.", "Houston North Yard", "200.00", "2025-06-02"},
		// Aggressive key: punctuation and suffix drift
		{"key00003", "Waste Management of Texas", "Houston North Yard", "300.00", "2025-06-03"},
		{"key00004", "Lone Star Disposal", "Dallas South Yard", "400.00", "2025-06-03"},
	}

	sg.writeScenario("key-matching", vendors, nil, nil, invoices)
}

// GenerateLocationScenario creates data where the counterparty resolves
// the match: a single-vendor location and a shared location that needs
// constrained fuzzy matching
func (sg *ScenarioGenerator) GenerateLocationScenario() {
	fmt.Println("Generating location-constrained scenario...")

	vendors := [][]string{
		{"vendor_name"},
		{"Waste Pro of Florida"},
		{"Evergreen Recycling Co"},
		{"Metro Container Services Inc"},
	}

	locations := [][]string{
		{"location_name", "vendor_name"},
		// Single-vendor location: any unresolved name here maps to the vendor
		{"Tampa Bay Yard", "Waste Pro of Florida"},
		// Shared location: constrained fuzzy must pick between two vendors
		{"Orlando Central Yard", "Evergreen Recycling Co"},
		{"Orlando Central Yard", "Metro Container Services Inc"},
	}

	invoices := [][]string{
		{"invoice_md5", "vendor_name", "counterparty", "amount", "sp_created_date"},
		// Resolves via the single-vendor location
		{"loc00001", "Waste Pro", "Tampa Bay Yard", "75.00", "2025-06-02"},
		// Fuzzy counterparty: misspelled location name
		{"loc00002", "Waste Pro", "Tampa Bay Yrd", "85.00", "2025-06-03"},
		// Constrained fuzzy inside the shared location
		{"loc00003", "Evergreen Recycling", "Orlando Central Yard", "95.00", "2025-06-04"},
		{"loc00004", "Metro Container", "Orlando Central Yard", "105.00", "2025-06-04"},
	}

	sg.writeScenario("location", vendors, locations, nil, invoices)
}

// GenerateFuzzyScenario creates names only the global fuzzy and partial
// stages can resolve, plus one name that must stay unmatched
func (sg *ScenarioGenerator) GenerateFuzzyScenario() {
	fmt.Println("Generating global fuzzy scenario...")

	vendors := [][]string{
		{"vendor_name"},
		{"Peach State Environmental LLC"},
		{"Allied Debris Removal"},
	}

	invoices := [][]string{
		{"invoice_md5", "vendor_name", "counterparty", "amount", "sp_created_date"},
		// Token reordering, caught by token-sort fuzzy
		{"fuz00001", "Environmental Peach State LLC", "Atlanta Perimeter Yard", "120.00", "2025-06-02"},
		// Typo within threshold
		{"fuz00002", "Allied Debris Removel", "Atlanta Perimeter Yard", "130.00", "2025-06-03"},
		// Prefix, caught by the partial stage
		{"fuz00003", "Peach State Environ", "Atlanta Perimeter Yard", "140.00", "2025-06-04"},
		// No plausible match, must end unmatched
		{"fuz00004", "Zebra Holdings Group", "Atlanta Perimeter Yard", "150.00", "2025-06-05"},
	}

	sg.writeScenario("fuzzy", vendors, nil, nil, invoices)
}

// GenerateQualityFindingsScenario creates reference data the quality
// checker should flag: colliding aggressive keys, near-duplicate vendors,
// and an override shadowing a canonical name
func (sg *ScenarioGenerator) GenerateQualityFindingsScenario() {
	fmt.Println("Generating quality findings scenario...")

	vendors := [][]string{
		{"vendor_name"},
		// Aggressive keys collide after suffix stripping
		{"Summit Sanitation Inc"},
		{"Summit Sanitation LLC"},
		// Near-duplicates
		{"Gulf Coast Hauling"},
		{"Gulf Coast Haulling"},
		{"Pioneer Container Services"},
	}

	locations := [][]string{
		{"location_name", "vendor_name"},
		// Location with no resolvable vendors beyond a blank row
		{"Memphis East Yard", ""},
		{"Nashville West Yard", "Pioneer Container Services"},
	}

	overrides := [][]string{
		{"vendor_name", "normalized_vendor"},
		// Shadows a canonical name instead of a messy alias
		{"Pioneer Container Services", "Gulf Coast Hauling"},
	}

	invoices := [][]string{
		{"invoice_md5", "vendor_name", "counterparty", "amount", "sp_created_date"},
		{"qlt00001", "Summit Sanitation", "Nashville West Yard", "55.00", "2025-06-02"},
		{"qlt00002", "Pioneer Container Services", "Nashville West Yard", "65.00", "2025-06-03"},
	}

	sg.writeScenario("quality-findings", vendors, locations, overrides, invoices)
}

// writeScenario writes one scenario's files into its own subdirectory.
// Nil tables are skipped so scenarios only carry the inputs they need.
func (sg *ScenarioGenerator) writeScenario(name string, vendors, locations, overrides, invoices [][]string) {
	dir := filepath.Join(sg.OutputDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("Failed to create scenario directory %s: %v", dir, err)
	}

	files := map[string][][]string{
		"vendors.csv":   vendors,
		"locations.csv": locations,
		"overrides.csv": overrides,
		"invoices.csv":  invoices,
	}

	for filename, rows := range files {
		if rows == nil {
			continue
		}
		if err := writeRowsCSV(filepath.Join(dir, filename), rows); err != nil {
			log.Fatalf("Failed to write %s: %v", filename, err)
		}
	}
}

func writeRowsCSV(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	return writer.WriteAll(rows)
}
