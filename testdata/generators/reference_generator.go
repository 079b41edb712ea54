package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"
)

// ReferenceGenerator generates the reference data files: a canonical
// vendor list, a location relation, and a manual override table
type ReferenceGenerator struct {
	VendorCount   int
	LocationCount int
	OverrideRatio float64
	Seed          int64
}

var namePrefixes = []string{
	"Waste", "Republic", "Allied", "Evergreen", "Metro", "Lone Star",
	"Peach State", "Gulf Coast", "Summit", "Pioneer", "Cascade", "Liberty",
}

var nameCores = []string{
	"Management", "Services", "Disposal", "Recycling", "Hauling",
	"Container", "Environmental", "Debris Removal", "Sanitation",
}

var nameRegions = []string{
	"of Texas", "of Florida", "of Georgia", "of Tennessee",
	"of the Carolinas", "Southeast", "Gulf", "",
}

var nameSuffixes = []string{", Inc.", " LLC", " Corp", ", Ltd.", " Co", ""}

var locationCities = []string{
	"Houston", "Dallas", "Atlanta", "Tampa", "Orlando", "Nashville",
	"Charlotte", "Memphis", "Austin", "Jacksonville",
}

var locationKinds = []string{"North Yard", "South Yard", "East Yard", "West Yard", "Central Yard"}

func main() {
	var (
		vendorOutput   = flag.String("vendor-output", "generated_vendors.csv", "Output path for the vendor list")
		locationOutput = flag.String("location-output", "generated_locations.csv", "Output path for the location relation")
		overrideOutput = flag.String("override-output", "generated_overrides.csv", "Output path for the override table")
		vendorCount    = flag.Int("vendor-count", 50, "Number of canonical vendors to generate")
		locationCount  = flag.Int("location-count", 12, "Number of locations to generate")
		overrideRatio  = flag.Float64("override-ratio", 0.1, "Fraction of vendors that get a manual override alias")
		seed           = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	if *vendorCount < 1 {
		log.Fatalf("vendor-count must be at least 1")
	}
	if *overrideRatio < 0 || *overrideRatio > 1 {
		log.Fatalf("override-ratio must be between 0 and 1")
	}

	generator := &ReferenceGenerator{
		VendorCount:   *vendorCount,
		LocationCount: *locationCount,
		OverrideRatio: *overrideRatio,
		Seed:          *seed,
	}

	vendors := generator.GenerateVendors()
	locations := generator.GenerateLocations(vendors)
	overrides := generator.GenerateOverrides(vendors)

	if err := writeSingleColumnCSV(*vendorOutput, "vendor_name", vendors); err != nil {
		log.Fatalf("Failed to write vendor list: %v", err)
	}
	if err := writePairCSV(*locationOutput, "location_name", "vendor_name", locations); err != nil {
		log.Fatalf("Failed to write location relation: %v", err)
	}
	if err := writePairCSV(*overrideOutput, "vendor_name", "normalized_vendor", overrides); err != nil {
		log.Fatalf("Failed to write override table: %v", err)
	}

	fmt.Printf("Generated %d vendors in %s\n", len(vendors), *vendorOutput)
	fmt.Printf("Generated %d location rows in %s\n", len(locations), *locationOutput)
	fmt.Printf("Generated %d overrides in %s\n", len(overrides), *overrideOutput)
	fmt.Printf("Seed used: %d\n", *seed)
}

// GenerateVendors builds distinct canonical vendor names from name parts
func (rg *ReferenceGenerator) GenerateVendors() []string {
	rng := rand.New(rand.NewSource(rg.Seed))

	seen := make(map[string]bool)
	var vendors []string
	for len(vendors) < rg.VendorCount {
		parts := []string{
			namePrefixes[rng.Intn(len(namePrefixes))],
			nameCores[rng.Intn(len(nameCores))],
		}
		if region := nameRegions[rng.Intn(len(nameRegions))]; region != "" {
			parts = append(parts, region)
		}
		name := strings.Join(parts, " ") + nameSuffixes[rng.Intn(len(nameSuffixes))]

		if seen[name] {
			continue
		}
		seen[name] = true
		vendors = append(vendors, name)
	}

	return vendors
}

// GenerateLocations builds the location relation: each location lists the
// vendors that operate there, with a mix of single-vendor and shared
// locations so both constrained match paths get exercised
func (rg *ReferenceGenerator) GenerateLocations(vendors []string) [][2]string {
	rng := rand.New(rand.NewSource(rg.Seed + 1))

	var rows [][2]string
	for i := 0; i < rg.LocationCount; i++ {
		city := locationCities[rng.Intn(len(locationCities))]
		kind := locationKinds[rng.Intn(len(locationKinds))]
		location := city + " " + kind

		// Roughly a third of locations are single-vendor
		vendorsHere := 1
		if rng.Float64() > 0.35 {
			vendorsHere = 2 + rng.Intn(3)
		}

		used := make(map[int]bool)
		for v := 0; v < vendorsHere && v < len(vendors); v++ {
			idx := rng.Intn(len(vendors))
			if used[idx] {
				continue
			}
			used[idx] = true
			rows = append(rows, [2]string{location, vendors[idx]})
		}
	}

	return rows
}

// GenerateOverrides builds manual override rows mapping corrupted aliases
// to their canonical vendor
func (rg *ReferenceGenerator) GenerateOverrides(vendors []string) [][2]string {
	rng := rand.New(rand.NewSource(rg.Seed + 2))

	var rows [][2]string
	for _, vendor := range vendors {
		if rng.Float64() >= rg.OverrideRatio {
			continue
		}
		rows = append(rows, [2]string{aliasVariant(rng, vendor), vendor})
	}

	return rows
}

// aliasVariant produces a plausible messy alias for a canonical name
func aliasVariant(rng *rand.Rand, name string) string {
	switch rng.Intn(4) {
	case 0:
		return strings.ToUpper(name) + " (do not use)"
	case 1:
		fields := strings.Fields(name)
		if len(fields) > 2 {
			return strings.Join(fields[:2], " ")
		}
		return name + " (old)"
	case 2:
		replacer := strings.NewReplacer(",", "", ".", "")
		return replacer.Replace(name) + " #2"
	default:
		initials := ""
		for _, field := range strings.Fields(name) {
			initials += string([]rune(field)[0])
		}
		return strings.ToUpper(initials)
	}
}

func writeSingleColumnCSV(filename, header string, values []string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{header}); err != nil {
		return err
	}
	for _, value := range values {
		if err := writer.Write([]string{value}); err != nil {
			return err
		}
	}

	return nil
}

func writePairCSV(filename, header1, header2 string, rows [][2]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{header1, header2}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{row[0], row[1]}); err != nil {
			return err
		}
	}

	return nil
}
