package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Generator represents a data generator command
type Generator struct {
	Name        string
	Command     string
	Description string
}

var generators = []Generator{
	{
		Name:        "invoices",
		Command:     "invoice_generator",
		Description: "Generate invoice export CSV files with messy vendor names",
	},
	{
		Name:        "reference",
		Command:     "reference_generator",
		Description: "Generate vendor list, location relation, and override table",
	},
	{
		Name:        "scenarios",
		Command:     "scenario_generator",
		Description: "Generate specific cascade stage test scenarios",
	},
}

func main() {
	var (
		generator = flag.String("generator", "", "Generator to run: invoices, reference, scenarios, or 'all'")
		list      = flag.Bool("list", false, "List available generators")
		outputDir = flag.String("output-dir", "../generated", "Output directory for generated files")
		help      = flag.Bool("help", false, "Show help for specific generator")
	)
	flag.Parse()

	if *list {
		listGenerators()
		return
	}

	if *generator == "" {
		fmt.Println("Test Data Generator CLI")
		fmt.Println("======================")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  go run generate.go -generator=<name> [options]")
		fmt.Println()
		fmt.Println("Available generators:")
		for _, gen := range generators {
			fmt.Printf("  %-12s %s\n", gen.Name, gen.Description)
		}
		fmt.Println()
		fmt.Println("Use -list to see all generators")
		fmt.Println("Use -help -generator=<name> to see generator-specific options")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  go run generate.go -generator=invoices -count=1000 -pattern=messy")
		fmt.Println("  go run generate.go -generator=reference -vendor-count=100")
		fmt.Println("  go run generate.go -generator=scenarios -scenario=all")
		fmt.Println("  go run generate.go -generator=all")
		return
	}

	// Create output directory
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	if *help {
		showGeneratorHelp(*generator)
		return
	}

	if *generator == "all" {
		generateAll(*outputDir)
		return
	}

	// Find and run specific generator
	for _, gen := range generators {
		if gen.Name == *generator {
			runGenerator(gen, *outputDir, flag.Args())
			return
		}
	}

	log.Fatalf("Unknown generator: %s", *generator)
}

func listGenerators() {
	fmt.Println("Available Test Data Generators:")
	fmt.Println("===============================")
	fmt.Println()

	for _, gen := range generators {
		fmt.Printf("Name: %s\n", gen.Name)
		fmt.Printf("Description: %s\n", gen.Description)
		fmt.Printf("Command: %s\n", gen.Command)
		fmt.Println()
	}
}

func showGeneratorHelp(generatorName string) {
	for _, gen := range generators {
		if gen.Name == generatorName {
			fmt.Printf("Help for %s generator:\n", generatorName)
			fmt.Printf("======================\n\n")

			// Run the generator with -help flag
			cmd := exec.Command("go", "run", gen.Command+".go", "-help")
			output, err := cmd.CombinedOutput()
			if err != nil {
				log.Printf("Failed to get help for %s: %v", generatorName, err)
				return
			}

			fmt.Println(string(output))
			return
		}
	}

	log.Fatalf("Unknown generator: %s", generatorName)
}

func runGenerator(gen Generator, outputDir string, args []string) {
	fmt.Printf("Running %s generator...\n", gen.Name)

	// Prepare command arguments
	cmdArgs := []string{"run", gen.Command + ".go"}

	// Add output directory argument for scenarios generator
	if gen.Name == "scenarios" {
		cmdArgs = append(cmdArgs, "-output-dir="+outputDir)
	}

	// Add additional arguments passed from command line
	cmdArgs = append(cmdArgs, args...)

	// Execute the generator
	cmd := exec.Command("go", cmdArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		log.Fatalf("Failed to run %s generator: %v", gen.Name, err)
	}

	fmt.Printf("✓ %s generator completed successfully\n", gen.Name)
}

func generateAll(outputDir string) {
	fmt.Println("Generating comprehensive test dataset...")
	fmt.Println("======================================")
	fmt.Println()

	seed := time.Now().UnixNano()
	fmt.Printf("Using seed: %d\n\n", seed)

	// Create subdirectories
	dirs := []string{
		filepath.Join(outputDir, "reference"),
		filepath.Join(outputDir, "invoices"),
		filepath.Join(outputDir, "scenarios"),
		filepath.Join(outputDir, "performance"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	// Generate reference data first so invoices can draw from it
	fmt.Println("1. Generating reference datasets...")
	generateReferenceSet(outputDir, seed)

	// Generate invoices
	fmt.Println("\n2. Generating invoice datasets...")
	generateInvoiceSets(outputDir, seed)

	// Generate scenarios
	fmt.Println("\n3. Generating scenario datasets...")
	generateScenarioSets(outputDir, seed)

	// Generate performance datasets
	fmt.Println("\n4. Generating performance datasets...")
	generatePerformanceSets(outputDir, seed)

	// Generate documentation
	fmt.Println("\n5. Generating documentation...")
	generateDocumentation(outputDir)

	fmt.Println("\n✓ All generators completed successfully!")
	fmt.Printf("Generated files are in: %s\n", outputDir)
}

func generateReferenceSet(outputDir string, seed int64) {
	refDir := filepath.Join(outputDir, "reference")

	fmt.Printf("  Generating vendor list, locations, and overrides...\n")

	cmd := exec.Command("go", "run", "reference_generator.go",
		"-vendor-output="+filepath.Join(refDir, "vendors.csv"),
		"-location-output="+filepath.Join(refDir, "locations.csv"),
		"-override-output="+filepath.Join(refDir, "overrides.csv"),
		"-vendor-count=100",
		"-location-count=20",
		"-seed="+fmt.Sprintf("%d", seed),
	)

	if err := cmd.Run(); err != nil {
		log.Printf("Failed to generate reference data: %v", err)
	}
}

func generateInvoiceSets(outputDir string, seed int64) {
	invoiceDir := filepath.Join(outputDir, "invoices")
	vendorFile := filepath.Join(outputDir, "reference", "vendors.csv")

	sets := []struct {
		name    string
		count   int
		pattern string
		desc    string
	}{
		{"small_random.csv", 100, "random", "Small clean dataset"},
		{"medium_random.csv", 1000, "random", "Medium clean dataset"},
		{"large_messy.csv", 10000, "messy", "Large dataset with corrupted names"},
		{"messy_names.csv", 1000, "messy", "Corrupted name variants"},
		{"invalid_heavy.csv", 500, "invalid-heavy", "High share of invalid names"},
		{"monthly_drop.csv", 2000, "monthly-drop", "Vendor volume drop for alert testing"},
	}

	for _, set := range sets {
		fmt.Printf("  Generating %s (%s)...\n", set.name, set.desc)

		outputPath := filepath.Join(invoiceDir, set.name)
		cmd := exec.Command("go", "run", "invoice_generator.go",
			"-output="+outputPath,
			"-count="+fmt.Sprintf("%d", set.count),
			"-pattern="+set.pattern,
			"-vendor-file="+vendorFile,
			"-seed="+fmt.Sprintf("%d", seed),
		)

		if err := cmd.Run(); err != nil {
			log.Printf("Failed to generate %s: %v", set.name, err)
		}
	}
}

func generateScenarioSets(outputDir string, seed int64) {
	scenarioDir := filepath.Join(outputDir, "scenarios")

	fmt.Printf("  Generating all scenario datasets...\n")

	cmd := exec.Command("go", "run", "scenario_generator.go",
		"-output-dir="+scenarioDir,
		"-scenario=all",
		"-seed="+fmt.Sprintf("%d", seed),
	)

	if err := cmd.Run(); err != nil {
		log.Printf("Failed to generate scenarios: %v", err)
	}
}

func generatePerformanceSets(outputDir string, seed int64) {
	perfDir := filepath.Join(outputDir, "performance")
	vendorFile := filepath.Join(outputDir, "reference", "vendors.csv")

	sets := []struct {
		name  string
		count int
		desc  string
	}{
		{"stress_test_10k.csv", 10000, "10K invoices for stress testing"},
		{"stress_test_50k.csv", 50000, "50K invoices for load testing"},
		{"stress_test_100k.csv", 100000, "100K invoices for extreme load testing"},
	}

	for _, set := range sets {
		fmt.Printf("  Generating %s (%s)...\n", set.name, set.desc)

		outputPath := filepath.Join(perfDir, set.name)
		cmd := exec.Command("go", "run", "invoice_generator.go",
			"-output="+outputPath,
			"-count="+fmt.Sprintf("%d", set.count),
			"-pattern=messy",
			"-vendor-file="+vendorFile,
			"-seed="+fmt.Sprintf("%d", seed),
		)

		if err := cmd.Run(); err != nil {
			log.Printf("Failed to generate %s: %v", set.name, err)
		}
	}
}

func generateDocumentation(outputDir string) {
	docContent := `# Generated Test Data

This directory contains automatically generated test data for the vendor
name normalization service.

## Directory Structure

- **reference/**: Canonical vendor list, location relation, and override table
- **invoices/**: Invoice exports with different name quality patterns
- **scenarios/**: Specific cascade stage scenarios (overrides, invalid names, etc.)
- **performance/**: Large datasets for performance and stress testing

## File Descriptions

### Reference
- vendors.csv: Canonical vendor list (vendor_name)
- locations.csv: Location relation (location_name, vendor_name)
- overrides.csv: Manual override table (vendor_name, normalized_vendor)

### Invoices
- small_random.csv: 100 invoices with clean names
- medium_random.csv: 1,000 invoices with clean names
- large_messy.csv: 10,000 invoices with corrupted name variants
- messy_names.csv: 1,000 invoices exercising every corruption type
- invalid_heavy.csv: 500 invoices, 40% placeholder and garbage names
- monthly_drop.csv: 2,000 invoices with a vendor volume collapse for alert testing

### Scenarios
- overrides/: Manual overrides win over every later stage
- invalid-names/: One invoice per classifier rule
- key-matching/: Exact and aggressive key resolution
- location/: Single-vendor and shared location matching
- fuzzy/: Global fuzzy, partial, and unmatched names
- quality-findings/: Reference data the quality checker should flag

### Performance
- stress_test_10k.csv: 10,000 invoices
- stress_test_50k.csv: 50,000 invoices
- stress_test_100k.csv: 100,000 invoices

## Usage

Use these datasets to test different aspects of the resolution pipeline:

1. **Functional Testing**: Use small and medium datasets
2. **Performance Testing**: Use large datasets and performance folder
3. **Cascade Stage Testing**: Use scenario-specific datasets
4. **Dashboard Testing**: Use monthly_drop.csv for alert thresholds
5. **Classifier Testing**: Use invalid_heavy.csv

## Regeneration

To regenerate all test data:
` + "```bash\ngo run generate.go -generator=all\n```" + `

To generate specific datasets:
` + "```bash\ngo run generate.go -generator=invoices -count=5000 -pattern=messy\ngo run generate.go -generator=reference -vendor-count=200\ngo run generate.go -generator=scenarios -scenario=location\n```" + `

Generated on: ` + time.Now().Format("2006-01-02 15:04:05") + `
`

	docPath := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(docPath, []byte(docContent), 0644); err != nil {
		log.Printf("Failed to write documentation: %v", err)
	} else {
		fmt.Printf("  Generated README.md\n")
	}
}
