package cmd

import (
	"context"
	"fmt"
	"os"

	"vendor-normalization-service/cmd/normalizer/config"
	"vendor-normalization-service/internal/matcher"
	"vendor-normalization-service/internal/models"
	"vendor-normalization-service/internal/parsers"
	"vendor-normalization-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the dashboard command
var (
	dashVendorFile   string
	dashLocationFile string
	dashInvoiceFile  string
	dashOverrideFile string
	dashOutputDir    string
	dashProfile      string

	dashYear          int
	dashPriorMonth    int
	dashCurrentMonth  int
	dashMinPriorCount int
)

// dashboardCmd represents the dashboard command
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Generate dashboard aggregate CSVs from an invoice export",
	Long: `Dashboard resolves invoice vendor names and produces three aggregate CSVs:
daily invoice counts with weekend flags, a per-vendor monthly trend with a
synthetic all-vendors series, and month-over-month volume alerts.

Invoices whose vendor name cannot be resolved are counted under the
"Unmatched" series so volume totals stay complete.

Examples:
  # Aggregates for the current year into the working directory
  normalizer dashboard --vendor-file vendors.csv --invoice-file invoices.csv

  # Compare specific months with full reference data
  normalizer dashboard --vendor-file vendors.csv --invoice-file invoices.csv \
    --location-file locations.csv --override-file overrides.csv \
    --year 2025 --prior-month 10 --current-month 11 --output-dir out/`,

	PreRunE: validateDashboardFlags,
	RunE:    runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	// Required flags
	dashboardCmd.Flags().StringVar(&dashVendorFile, "vendor-file", "", "path to canonical vendor list (required)")
	dashboardCmd.Flags().StringVar(&dashInvoiceFile, "invoice-file", "", "path to invoice export (required)")

	// Optional reference data
	dashboardCmd.Flags().StringVar(&dashLocationFile, "location-file", "", "path to location relation file")
	dashboardCmd.Flags().StringVar(&dashOverrideFile, "override-file", "", "path to manual override table")

	// Output and matching flags
	dashboardCmd.Flags().StringVar(&dashOutputDir, "output-dir", ".", "directory for aggregate CSVs")
	dashboardCmd.Flags().StringVar(&dashProfile, "profile", "default", "matching profile: default, strict, relaxed")

	// Aggregation window flags
	dashboardCmd.Flags().IntVar(&dashYear, "year", 0, "restrict aggregation to this year (0 uses the current year)")
	dashboardCmd.Flags().IntVar(&dashPriorMonth, "prior-month", 0, "prior month for alerts, 1-12 (0 derives from today)")
	dashboardCmd.Flags().IntVar(&dashCurrentMonth, "current-month", 0, "current month for alerts, 1-12 (0 derives from today)")
	dashboardCmd.Flags().IntVar(&dashMinPriorCount, "min-prior-count", 0, "minimum prior-month count for a vendor to appear in alerts (0 uses the default)")

	// Mark required flags
	dashboardCmd.MarkFlagRequired("vendor-file")
	dashboardCmd.MarkFlagRequired("invoice-file")
}

func validateDashboardFlags(cmd *cobra.Command, args []string) error {
	if dashVendorFile == "" {
		return fmt.Errorf("vendor-file is required")
	}
	if dashInvoiceFile == "" {
		return fmt.Errorf("invoice-file is required")
	}

	if err := validateFileExists(dashVendorFile, "vendor list file"); err != nil {
		return err
	}
	if err := validateFileExists(dashInvoiceFile, "invoice file"); err != nil {
		return err
	}
	if dashLocationFile != "" {
		if err := validateFileExists(dashLocationFile, "location file"); err != nil {
			return err
		}
	}
	if dashOverrideFile != "" {
		if err := validateFileExists(dashOverrideFile, "override file"); err != nil {
			return err
		}
	}

	if dashProfile != "" {
		if _, err := config.GetMatchingProfile(dashProfile); err != nil {
			return err
		}
	}

	if dashOutputDir != "" {
		if info, err := os.Stat(dashOutputDir); err == nil && !info.IsDir() {
			return fmt.Errorf("output-dir is a file, expected a directory: %s", dashOutputDir)
		}
	}

	return nil
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	aggregatesConfig, err := config.CreateAggregatesConfig(dashYear, dashPriorMonth, dashCurrentMonth, dashMinPriorCount)
	if err != nil {
		return fmt.Errorf("failed to create aggregates config: %w", err)
	}

	matchingConfig, err := config.CreateMatchingConfig(dashProfile, nil)
	if err != nil {
		return fmt.Errorf("failed to create matching config: %w", err)
	}

	engine, invoices, err := loadDashboardInputs(ctx, matchingConfig)
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Aggregating %d invoices for %d (comparing %s to %s)...\n",
			len(invoices), aggregatesConfig.Year, aggregatesConfig.PriorMonth, aggregatesConfig.CurrentMonth)
	}

	aggregator, err := reporter.NewDashboardAggregator(aggregatesConfig)
	if err != nil {
		return fmt.Errorf("failed to create aggregator: %w", err)
	}

	// Each distinct raw name is resolved once against every counterparty
	// it appears with, then invoices are attributed to the resolved vendor
	counterpartiesByName := make(map[string][]string)
	counterpartySeen := make(map[string]map[string]bool)
	var nameOrder []string
	for _, invoice := range invoices {
		name := invoice.VendorNameRaw
		if _, ok := counterpartySeen[name]; !ok {
			counterpartySeen[name] = make(map[string]bool)
			nameOrder = append(nameOrder, name)
		}
		if invoice.Counterparty != "" && !counterpartySeen[name][invoice.Counterparty] {
			counterpartySeen[name][invoice.Counterparty] = true
			counterpartiesByName[name] = append(counterpartiesByName[name], invoice.Counterparty)
		}
	}

	labels := make(map[string]string, len(nameOrder))
	for _, name := range nameOrder {
		result := engine.Resolve(name, counterpartiesByName[name])
		if result.IsMatched() {
			labels[name] = result.Vendor.Name
		} else {
			labels[name] = reporter.UnmatchedLabel
		}
	}

	for _, invoice := range invoices {
		aggregator.Add(invoice, labels[invoice.VendorNameRaw])
	}

	if dashOutputDir != "" && dashOutputDir != "." {
		if err := os.MkdirAll(dashOutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := aggregator.WriteArtifacts(dashOutputDir); err != nil {
		return fmt.Errorf("failed to write dashboard artifacts: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Aggregated %d invoices, skipped %d outside the window.\n",
			aggregator.InvoicesSeen(), aggregator.InvoicesSkipped())
	}
	fmt.Fprintf(os.Stderr, "Dashboard aggregates written to %s\n", dashOutputDir)

	flagged := aggregator.FlaggedAlerts()
	if len(flagged) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d vendor(s) outside volume bounds:\n", len(flagged))
		for _, alert := range flagged {
			fmt.Fprintf(os.Stderr, "  %s: %d -> %d (%.1f%% of prior)\n",
				alert.Vendor, alert.PriorCount, alert.CurrentCount, alert.Pct)
		}
	}

	return nil
}

// loadDashboardInputs parses the reference data and the invoice export and
// returns a loaded matching engine alongside the invoices.
func loadDashboardInputs(ctx context.Context, matchingConfig *matcher.MatchingConfig) (*matcher.MatchingEngine, []*models.InvoiceRecord, error) {
	vendorConfig, err := config.CreateVendorParserConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create vendor parser config: %w", err)
	}

	vendorParser, err := parsers.NewVendorParser(vendorConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create vendor parser: %w", err)
	}

	vendors, _, err := vendorParser.ParseVendorsWithContext(ctx, dashVendorFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse vendor file: %w", err)
	}

	var locations []*models.Location
	if dashLocationFile != "" {
		locationConfig, err := config.CreateLocationParserConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create location parser config: %w", err)
		}
		locationParser, err := parsers.NewLocationParser(locationConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create location parser: %w", err)
		}
		locations, _, err = locationParser.ParseLocationsWithContext(ctx, dashLocationFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse location file: %w", err)
		}
	}

	engine := matcher.NewMatchingEngine(matchingConfig)
	engine.LoadReference(vendors, locations)

	if dashOverrideFile != "" {
		overrideConfig, err := config.CreateOverrideParserConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create override parser config: %w", err)
		}
		overrideParser, err := parsers.NewOverrideParser(overrideConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create override parser: %w", err)
		}
		overrides, _, err := overrideParser.ParseOverridesWithContext(ctx, dashOverrideFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse override file: %w", err)
		}
		engine.LoadOverrides(overrides)
	}

	invoiceConfig, err := config.CreateInvoiceParserConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create invoice parser config: %w", err)
	}
	invoiceParser, err := parsers.NewInvoiceParser(invoiceConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create invoice parser: %w", err)
	}
	invoices, stats, err := invoiceParser.ParseInvoicesWithContext(ctx, dashInvoiceFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse invoice file: %w", err)
	}
	if stats != nil && stats.ErrorCount > 0 && viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Skipped %d invoice rows with parse errors.\n", stats.ErrorCount)
	}

	return engine, invoices, nil
}
