package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"vendor-normalization-service/cmd/normalizer/config"
	"vendor-normalization-service/internal/reporter"
	"vendor-normalization-service/internal/resolver"
	"vendor-normalization-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the resolve command
var (
	vendorFile   string
	locationFile string
	invoiceFile  string
	overrideFile string

	outputDir    string
	outputFormat string
	outputFile   string

	matchingProfile           string
	globalFuzzyThreshold      int
	locationFuzzyThreshold    int
	constrainedFuzzyThreshold int
	disableLocationMatching   bool
	disablePartialMatching    bool

	batchSize             int
	showProgress          bool
	skipQualityChecks     bool
	failOnQualityFindings bool
	resolveTimeout        time.Duration
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve messy vendor names to canonical vendors",
	Long: `Resolve reads an invoice export and maps each distinct vendor name to a
canonical vendor using a fixed cascade: manual overrides, invalid name
screening, exact and aggressive key lookups, location-constrained matching,
global fuzzy matching, and partial matching.

This command requires:
- A canonical vendor list (CSV or XLSX)
- An invoice export (CSV or XLSX)

Optional inputs:
- A location relation file enabling location-constrained matching
- A manual override table applied before all other stages

Examples:
  # Basic resolution with console summary
  normalizer resolve --vendor-file vendors.csv --invoice-file invoices.csv

  # Full reference data and CSV artifacts
  normalizer resolve --vendor-file vendors.csv --invoice-file invoices.csv \
    --location-file locations.csv --override-file overrides.csv \
    --output-dir out/

  # JSON summary to a file with a stricter profile
  normalizer resolve --vendor-file vendors.csv --invoice-file invoices.csv \
    --output-format json --output-file report.json --profile strict

  # Tune fuzzy thresholds directly
  normalizer resolve --vendor-file vendors.csv --invoice-file invoices.csv \
    --global-fuzzy-threshold 85 --location-fuzzy-threshold 80

  # With progress indicators
  normalizer resolve --vendor-file vendors.csv --invoice-file invoices.csv --progress`,

	PreRunE: validateResolveFlags,
	RunE:    runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	// Required flags
	resolveCmd.Flags().StringVarP(&vendorFile, "vendor-file", "r", "", "path to canonical vendor list (required)")
	resolveCmd.Flags().StringVarP(&invoiceFile, "invoice-file", "i", "", "path to invoice export (required)")

	// Optional reference data
	resolveCmd.Flags().StringVarP(&locationFile, "location-file", "l", "", "path to location relation file")
	resolveCmd.Flags().StringVarP(&overrideFile, "override-file", "m", "", "path to manual override table")

	// Output flags
	resolveCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for CSV artifacts (skipped when empty)")
	resolveCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "summary format: console, json")
	resolveCmd.Flags().StringVar(&outputFile, "output-file", "", "summary file path (default: stdout)")

	// Matching configuration flags
	resolveCmd.Flags().StringVarP(&matchingProfile, "profile", "p", "default", "matching profile: default, strict, relaxed")
	resolveCmd.Flags().IntVar(&globalFuzzyThreshold, "global-fuzzy-threshold", 0, "global fuzzy similarity threshold 1-100 (0 keeps profile value)")
	resolveCmd.Flags().IntVar(&locationFuzzyThreshold, "location-fuzzy-threshold", 0, "counterparty fuzzy threshold 1-100 (0 keeps profile value)")
	resolveCmd.Flags().IntVar(&constrainedFuzzyThreshold, "constrained-fuzzy-threshold", 0, "location-constrained fuzzy threshold 1-100 (0 keeps profile value)")
	resolveCmd.Flags().BoolVar(&disableLocationMatching, "no-location-matching", false, "disable the location-constrained stages")
	resolveCmd.Flags().BoolVar(&disablePartialMatching, "no-partial-matching", false, "disable the final partial-match stage")

	// Processing flags
	resolveCmd.Flags().IntVar(&batchSize, "batch-size", 0, "invoice streaming batch size (0 uses the default)")
	resolveCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")
	resolveCmd.Flags().BoolVar(&skipQualityChecks, "skip-quality-checks", false, "skip reference data quality checks")
	resolveCmd.Flags().BoolVar(&failOnQualityFindings, "fail-on-quality-findings", false, "abort when reference quality checks surface findings")
	resolveCmd.Flags().DurationVar(&resolveTimeout, "timeout", 0, "abort the run after this duration (0 means no timeout)")

	// Mark required flags
	resolveCmd.MarkFlagRequired("vendor-file")
	resolveCmd.MarkFlagRequired("invoice-file")

	// Bind flags to viper
	viper.BindPFlag("vendor-file", resolveCmd.Flags().Lookup("vendor-file"))
	viper.BindPFlag("invoice-file", resolveCmd.Flags().Lookup("invoice-file"))
	viper.BindPFlag("location-file", resolveCmd.Flags().Lookup("location-file"))
	viper.BindPFlag("override-file", resolveCmd.Flags().Lookup("override-file"))
	viper.BindPFlag("output-dir", resolveCmd.Flags().Lookup("output-dir"))
	viper.BindPFlag("output-format", resolveCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", resolveCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("profile", resolveCmd.Flags().Lookup("profile"))
	viper.BindPFlag("global-fuzzy-threshold", resolveCmd.Flags().Lookup("global-fuzzy-threshold"))
	viper.BindPFlag("location-fuzzy-threshold", resolveCmd.Flags().Lookup("location-fuzzy-threshold"))
	viper.BindPFlag("constrained-fuzzy-threshold", resolveCmd.Flags().Lookup("constrained-fuzzy-threshold"))
	viper.BindPFlag("no-location-matching", resolveCmd.Flags().Lookup("no-location-matching"))
	viper.BindPFlag("no-partial-matching", resolveCmd.Flags().Lookup("no-partial-matching"))
	viper.BindPFlag("batch-size", resolveCmd.Flags().Lookup("batch-size"))
	viper.BindPFlag("progress", resolveCmd.Flags().Lookup("progress"))
	viper.BindPFlag("skip-quality-checks", resolveCmd.Flags().Lookup("skip-quality-checks"))
	viper.BindPFlag("fail-on-quality-findings", resolveCmd.Flags().Lookup("fail-on-quality-findings"))
}

func validateResolveFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	vendorFile = viper.GetString("vendor-file")
	invoiceFile = viper.GetString("invoice-file")
	locationFile = viper.GetString("location-file")
	overrideFile = viper.GetString("override-file")
	outputDir = viper.GetString("output-dir")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	matchingProfile = viper.GetString("profile")
	globalFuzzyThreshold = viper.GetInt("global-fuzzy-threshold")
	locationFuzzyThreshold = viper.GetInt("location-fuzzy-threshold")
	constrainedFuzzyThreshold = viper.GetInt("constrained-fuzzy-threshold")
	batchSize = viper.GetInt("batch-size")
	showProgress = viper.GetBool("progress")
	skipQualityChecks = viper.GetBool("skip-quality-checks")
	failOnQualityFindings = viper.GetBool("fail-on-quality-findings")

	// Validate required flags
	if vendorFile == "" {
		return fmt.Errorf("vendor-file is required")
	}
	if invoiceFile == "" {
		return fmt.Errorf("invoice-file is required")
	}

	// Validate file existence
	if err := validateFileExists(vendorFile, "vendor list file"); err != nil {
		return err
	}
	if err := validateFileExists(invoiceFile, "invoice file"); err != nil {
		return err
	}
	if locationFile != "" {
		if err := validateFileExists(locationFile, "location file"); err != nil {
			return err
		}
	}
	if overrideFile != "" {
		if err := validateFileExists(overrideFile, "override file"); err != nil {
			return err
		}
	}

	// Validate output format
	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json", outputFormat)
	}

	// Validate matching profile
	if matchingProfile != "" {
		if _, err := config.GetMatchingProfile(matchingProfile); err != nil {
			return err
		}
	}

	// Validate thresholds, zero means the profile value applies
	for _, threshold := range []struct {
		name  string
		value int
	}{
		{"global-fuzzy-threshold", globalFuzzyThreshold},
		{"location-fuzzy-threshold", locationFuzzyThreshold},
		{"constrained-fuzzy-threshold", constrainedFuzzyThreshold},
	} {
		if threshold.value < 0 || threshold.value > 100 {
			return fmt.Errorf("%s must be between 0 and 100", threshold.name)
		}
	}

	if batchSize < 0 {
		return fmt.Errorf("batch size cannot be negative")
	}

	// Validate output destinations
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}
	if outputDir != "" {
		if info, err := os.Stat(outputDir); err == nil && !info.IsDir() {
			return fmt.Errorf("output-dir is a file, expected a directory: %s", outputDir)
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting vendor name resolution...\n")
		fmt.Fprintf(os.Stderr, "Vendor file: %s\n", vendorFile)
		fmt.Fprintf(os.Stderr, "Invoice file: %s\n", invoiceFile)
		if locationFile != "" {
			fmt.Fprintf(os.Stderr, "Location file: %s\n", locationFile)
		}
		if overrideFile != "" {
			fmt.Fprintf(os.Stderr, "Override file: %s\n", overrideFile)
		}
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputDir != "" {
			fmt.Fprintf(os.Stderr, "Output directory: %s\n", outputDir)
		}
	}

	// Create configurations
	vendorConfig, err := config.CreateVendorParserConfig()
	if err != nil {
		return fmt.Errorf("failed to create vendor parser config: %w", err)
	}

	locationConfig, err := config.CreateLocationParserConfig()
	if err != nil {
		return fmt.Errorf("failed to create location parser config: %w", err)
	}

	invoiceConfig, err := config.CreateInvoiceParserConfig()
	if err != nil {
		return fmt.Errorf("failed to create invoice parser config: %w", err)
	}

	overrideConfig, err := config.CreateOverrideParserConfig()
	if err != nil {
		return fmt.Errorf("failed to create override parser config: %w", err)
	}

	matchingConfig, err := config.CreateMatchingConfig(matchingProfile, &config.MatchingOverrides{
		GlobalFuzzyThreshold:      globalFuzzyThreshold,
		LocationFuzzyThreshold:    locationFuzzyThreshold,
		ConstrainedFuzzyThreshold: constrainedFuzzyThreshold,
		DisableLocationMatching:   disableLocationMatching,
		DisablePartialMatching:    disablePartialMatching,
	})
	if err != nil {
		return fmt.Errorf("failed to create matching config: %w", err)
	}

	resolverConfig := config.CreateResolverConfig(showProgress, batchSize, skipQualityChecks)

	if err := config.ValidateConfigs(vendorConfig, locationConfig, invoiceConfig, overrideConfig, matchingConfig); err != nil {
		return err
	}

	// Create resolution service and orchestrator
	service, err := resolver.NewResolutionService(matchingConfig, nil, resolverConfig)
	if err != nil {
		return fmt.Errorf("failed to create resolution service: %w", err)
	}

	orchestrator := resolver.NewResolutionOrchestrator(service)

	if showProgress {
		orchestrator.RegisterProgressCallback(func(update resolver.ProgressUpdate) {
			fmt.Fprintf(os.Stderr, "\r[%s] %s (%.1f%% complete)",
				update.Stage, update.Message, update.PercentComplete)
		})
	}

	// Create resolution request
	request := &resolver.ResolutionRequest{
		VendorFile:   vendorFile,
		LocationFile: locationFile,
		InvoiceFile:  invoiceFile,
		OverrideFile: overrideFile,

		VendorConfig:   vendorConfig,
		LocationConfig: locationConfig,
		InvoiceConfig:  invoiceConfig,
		OverrideConfig: overrideConfig,
	}

	options := resolver.DefaultResolutionOptions()
	options.FailOnQualityFindings = failOnQualityFindings
	options.Timeout = resolveTimeout

	if showProgress {
		fmt.Fprintf(os.Stderr, "Processing invoices...\n")
	}

	// Perform resolution
	enhanced, err := orchestrator.Run(ctx, request, options)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}
	if showProgress {
		fmt.Fprintf(os.Stderr, "\n")
	}

	// Show any warnings
	for _, warning := range enhanced.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	// Generate summary report
	reportConfig := config.CreateReportConfig(outputFormat)
	reportGenerator, err := reporter.NewSafeReportGenerator(reportConfig, service.Normalizer(), logger.GetGlobalLogger())
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	// Determine output destination
	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := reportGenerator.GenerateReportSafely(enhanced.ResolutionResult, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// Write CSV artifacts if an output directory was given
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := reportGenerator.WriteArtifactsSafely(enhanced.ResolutionResult, outputDir); err != nil {
			return fmt.Errorf("failed to write artifacts: %w", err)
		}
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Artifacts written to %s\n", outputDir)
		}
	}

	// Show completion message
	if viper.GetBool("verbose") {
		summary := enhanced.Summary
		fmt.Fprintf(os.Stderr, "\nResolution completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Processed %d invoices covering %d distinct vendor names.\n",
			summary.TotalInvoices, summary.DistinctNames)
		fmt.Fprintf(os.Stderr, "Matched %d names, flagged %d invalid, left %d unmatched.\n",
			summary.MatchedNames, summary.InvalidNames, summary.UnmatchedNames)
		fmt.Fprintf(os.Stderr, "Match rate: %.1f%% of invoices.\n", summary.MatchRate)
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", summary.ProcessingDuration)
	}

	return nil
}
