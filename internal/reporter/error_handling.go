package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vendor-normalization-service/internal/normalize"
	"vendor-normalization-service/internal/resolver"
	"vendor-normalization-service/pkg/errors"
	"vendor-normalization-service/pkg/logger"
)

// SafeReportGenerator wraps ReportGenerator with enhanced error handling
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a new safe report generator
func NewSafeReportGenerator(config *ReportConfig, normalizer *normalize.Normalizer, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config, normalizer)
	if err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"report_config",
			config,
			err,
		).WithSuggestion("Check the report configuration values")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely writes the summary with fallbacks: a JSON failure
// falls back to the console format, and a failed file write falls back to
// a backup path next to the original.
func (srg *SafeReportGenerator) GenerateReportSafely(result *resolver.ResolutionResult, writer io.Writer) error {
	srg.logger.WithFields(logger.Fields{
		"format": srg.config.Format,
		"output": writerDescription(writer),
	}).Info("Starting report generation")

	if err := srg.validateInputs(result, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed: input validation")
		return err
	}

	if err := srg.generateWithFallback(result, writer); err != nil {
		srg.logger.WithError(err).Error("Report generation failed")
		return err
	}

	srg.logger.Info("Report generation completed")
	return nil
}

// WriteArtifactsSafely writes the CSV artifacts, falling back to a backup
// directory when the output directory cannot be written
func (srg *SafeReportGenerator) WriteArtifactsSafely(result *resolver.ResolutionResult, outputDir string) error {
	if result == nil {
		return errors.ValidationError(
			errors.CodeMissingField,
			"result",
			nil,
			nil,
		).WithSuggestion("Provide a valid resolution result")
	}

	err := srg.WriteArtifacts(result, outputDir)
	if err == nil {
		return nil
	}

	srg.logger.WithError(err).Warn("Artifact write failed, attempting backup directory")

	backupDir := backupPath(outputDir)
	if backupErr := srg.WriteArtifacts(result, backupDir); backupErr != nil {
		return errors.InternalError(
			errors.CodeUnexpectedError,
			"artifact_output_fallback",
			fmt.Errorf("both primary and backup output failed: primary=%v, backup=%v", err, backupErr),
		)
	}

	srg.logger.WithField("backup_dir", backupDir).Info("Artifacts written to backup directory")
	fmt.Fprintf(os.Stderr, "Warning: could not write to %s, artifacts saved to %s\n", outputDir, backupDir)
	return nil
}

// validateInputs validates the inputs for report generation
func (srg *SafeReportGenerator) validateInputs(result *resolver.ResolutionResult, writer io.Writer) error {
	if result == nil {
		return errors.ValidationError(
			errors.CodeMissingField,
			"result",
			nil,
			nil,
		).WithSuggestion("Provide a valid resolution result")
	}

	if result.Summary == nil {
		return errors.ValidationError(
			errors.CodeMissingField,
			"summary",
			nil,
			nil,
		).WithSuggestion("Ensure the resolution result includes a summary")
	}

	if writer == nil {
		return errors.ValidationError(
			errors.CodeMissingField,
			"writer",
			nil,
			nil,
		).WithSuggestion("Provide a valid output writer")
	}

	return nil
}

// generateWithFallback attempts generation with a console format fallback
func (srg *SafeReportGenerator) generateWithFallback(result *resolver.ResolutionResult, writer io.Writer) error {
	err := srg.GenerateReport(result, writer)
	if err == nil {
		return nil
	}

	if srg.config.Format == FormatConsole {
		return srg.wrapGenerationError(err)
	}

	srg.logger.WithError(err).Warn("Primary report generation failed, attempting console fallback")

	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole

	fallbackGenerator, genErr := NewReportGenerator(&fallbackConfig, srg.normalizer)
	if genErr != nil {
		return srg.wrapGenerationError(err)
	}

	fmt.Fprintf(writer, "NOTE: report generated in console format, %s output failed: %v\n\n",
		srg.config.Format, err)

	if fallbackErr := fallbackGenerator.GenerateReport(result, writer); fallbackErr != nil {
		return errors.InternalError(
			errors.CodeUnexpectedError,
			"report_fallback",
			fmt.Errorf("both primary and fallback generation failed: primary=%v, fallback=%v", err, fallbackErr),
		)
	}

	srg.logger.Info("Report generated using console fallback")
	return nil
}

// wrapGenerationError wraps generation errors with context
func (srg *SafeReportGenerator) wrapGenerationError(err error) error {
	if resolverErr, ok := errors.AsResolverError(err); ok {
		return resolverErr
	}

	return errors.InternalError(
		errors.CodeProcessingError,
		"report_generation",
		err,
	).WithSuggestion("Check the output destination and report format settings")
}

// backupPath derives a sibling backup path from the original
func backupPath(original string) string {
	dir := filepath.Dir(original)
	base := filepath.Base(original)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	return filepath.Join(dir, fmt.Sprintf("%s_backup%s", name, ext))
}

func writerDescription(writer io.Writer) string {
	switch w := writer.(type) {
	case *os.File:
		if w.Name() != "" {
			return fmt.Sprintf("file:%s", w.Name())
		}
		return "file:unnamed"
	default:
		return fmt.Sprintf("writer:%T", writer)
	}
}
