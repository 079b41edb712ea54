package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"vendor-normalization-service/internal/models"
)

// Dashboard artifact file names
const (
	DailyCountsFile  = "daily_mtd.csv"
	MonthlyTrendFile = "monthly_trend.csv"
	AlertsFile       = "alerts.csv"
)

// AllVendorsSeries is the synthetic vendor name for the aggregate trend row
const AllVendorsSeries = "All Vendors"

// UnmatchedLabel is the vendor name unresolved invoices are counted under
const UnmatchedLabel = "Unmatched"

// AggregatesConfig controls dashboard aggregation
type AggregatesConfig struct {
	// Only invoices created in this year are aggregated; zero means all
	Year int `json:"year"`

	// Months compared by the month-over-month alerts
	PriorMonth   time.Month `json:"prior_month"`
	CurrentMonth time.Month `json:"current_month"`

	// Minimum prior-month invoice count for a vendor to appear in alerts
	MinPriorCount int `json:"min_prior_count"`

	// Percent-of-prior bounds outside which a vendor is flagged
	LowerBoundPct float64 `json:"lower_bound_pct"`
	UpperBoundPct float64 `json:"upper_bound_pct"`
}

// DefaultAggregatesConfig returns the default aggregation settings. The
// compared months default to the two most recently completed, derived
// from the current date.
func DefaultAggregatesConfig() *AggregatesConfig {
	now := time.Now()
	current := now.Month()
	prior := current - 1
	if prior < time.January {
		prior = time.December
	}

	return &AggregatesConfig{
		Year:          now.Year(),
		PriorMonth:    prior,
		CurrentMonth:  current,
		MinPriorCount: 10,
		LowerBoundPct: 75,
		UpperBoundPct: 125,
	}
}

// Validate validates the aggregation configuration
func (c *AggregatesConfig) Validate() error {
	if c.MinPriorCount < 0 {
		return fmt.Errorf("min prior count must be non-negative, got %d", c.MinPriorCount)
	}

	if c.LowerBoundPct >= c.UpperBoundPct {
		return fmt.Errorf("lower bound %.1f must be below upper bound %.1f",
			c.LowerBoundPct, c.UpperBoundPct)
	}

	return nil
}

// DashboardAggregator accumulates per-invoice counts for the dashboard
// CSVs: daily counts with weekend flags, per-vendor monthly trend, and
// month-over-month alerts.
type DashboardAggregator struct {
	config *AggregatesConfig

	dailyCounts   map[dayKey]int
	monthlyCounts map[monthKey]int

	invoicesSeen    int
	invoicesSkipped int
}

type dayKey struct {
	month     time.Month
	day       string
	isWeekend bool
}

type monthKey struct {
	vendor string
	month  time.Month
}

// NewDashboardAggregator creates a dashboard aggregator
func NewDashboardAggregator(config *AggregatesConfig) (*DashboardAggregator, error) {
	if config == nil {
		config = DefaultAggregatesConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid aggregates configuration: %w", err)
	}

	return &DashboardAggregator{
		config:        config,
		dailyCounts:   make(map[dayKey]int),
		monthlyCounts: make(map[monthKey]int),
	}, nil
}

// Add folds one invoice into the aggregates under the vendor name its raw
// name resolved to. Unresolved invoices pass UnmatchedLabel so they still
// count toward the daily and all-vendor series. Invoices without a usable
// created date are skipped and counted.
func (da *DashboardAggregator) Add(invoice *models.InvoiceRecord, vendor string) {
	da.invoicesSeen++

	date := invoice.CreatedDate
	if date.IsZero() || (da.config.Year != 0 && date.Year() != da.config.Year) {
		da.invoicesSkipped++
		return
	}

	weekday := date.Weekday()
	da.dailyCounts[dayKey{
		month:     date.Month(),
		day:       date.Format("Jan 02"),
		isWeekend: weekday == time.Saturday || weekday == time.Sunday,
	}]++

	da.monthlyCounts[monthKey{vendor: vendor, month: date.Month()}]++
	da.monthlyCounts[monthKey{vendor: AllVendorsSeries, month: date.Month()}]++
}

// InvoicesSeen returns the number of invoices offered to the aggregator
func (da *DashboardAggregator) InvoicesSeen() int {
	return da.invoicesSeen
}

// InvoicesSkipped returns the number of invoices excluded by date
func (da *DashboardAggregator) InvoicesSkipped() int {
	return da.invoicesSkipped
}

// DailyCount is one row of the daily counts artifact
type DailyCount struct {
	Month     string `json:"month"`
	Day       string `json:"day"`
	IsWeekend bool   `json:"isWeekend"`
	Count     int    `json:"count"`
}

// DailyCounts returns the per-day invoice counts in calendar order
func (da *DashboardAggregator) DailyCounts() []DailyCount {
	rows := make([]DailyCount, 0, len(da.dailyCounts))
	months := make(map[string]time.Month, len(da.dailyCounts))

	for key, count := range da.dailyCounts {
		rows = append(rows, DailyCount{
			Month:     key.month.String()[:3],
			Day:       key.day,
			IsWeekend: key.isWeekend,
			Count:     count,
		})
		months[key.month.String()[:3]] = key.month
	}

	sort.Slice(rows, func(i, j int) bool {
		if months[rows[i].Month] != months[rows[j].Month] {
			return months[rows[i].Month] < months[rows[j].Month]
		}
		return rows[i].Day < rows[j].Day
	})

	return rows
}

// MonthlyCount is one row of the monthly trend artifact
type MonthlyCount struct {
	Vendor string `json:"vendor"`
	Month  string `json:"month"`
	Count  int    `json:"count"`
}

// MonthlyTrend returns per-vendor monthly counts, vendor ascending then
// month in calendar order. The "All Vendors" series sorts among the
// vendors like any other name.
func (da *DashboardAggregator) MonthlyTrend() []MonthlyCount {
	type row struct {
		vendor string
		month  time.Month
		count  int
	}

	rows := make([]row, 0, len(da.monthlyCounts))
	for key, count := range da.monthlyCounts {
		rows = append(rows, row{vendor: key.vendor, month: key.month, count: count})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].vendor != rows[j].vendor {
			return rows[i].vendor < rows[j].vendor
		}
		return rows[i].month < rows[j].month
	})

	trend := make([]MonthlyCount, 0, len(rows))
	for _, r := range rows {
		trend = append(trend, MonthlyCount{
			Vendor: r.vendor,
			Month:  r.month.String()[:3],
			Count:  r.count,
		})
	}
	return trend
}

// VendorAlert compares a vendor's invoice volume across the two
// configured months
type VendorAlert struct {
	Vendor       string  `json:"vendor"`
	PriorCount   int     `json:"priorCount"`
	CurrentCount int     `json:"currentCount"`
	Pct          float64 `json:"pct"`
}

// IsFlagged reports whether the vendor's volume moved outside the
// configured bounds
func (a VendorAlert) IsFlagged(config *AggregatesConfig) bool {
	return a.Pct < config.LowerBoundPct || a.Pct > config.UpperBoundPct
}

// Alerts returns month-over-month volume comparisons for vendors whose
// prior-month count meets the minimum, prior count descending. The
// synthetic all-vendor series is excluded.
func (da *DashboardAggregator) Alerts() []VendorAlert {
	prior := make(map[string]int)
	current := make(map[string]int)

	for key, count := range da.monthlyCounts {
		if key.vendor == AllVendorsSeries {
			continue
		}
		switch key.month {
		case da.config.PriorMonth:
			prior[key.vendor] = count
		case da.config.CurrentMonth:
			current[key.vendor] = count
		}
	}

	alerts := make([]VendorAlert, 0, len(prior))
	for vendor, priorCount := range prior {
		if priorCount < da.config.MinPriorCount {
			continue
		}

		currentCount := current[vendor]
		pct := float64(currentCount) / float64(priorCount) * 100
		alerts = append(alerts, VendorAlert{
			Vendor:       vendor,
			PriorCount:   priorCount,
			CurrentCount: currentCount,
			Pct:          roundTenth(pct),
		})
	}

	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].PriorCount != alerts[j].PriorCount {
			return alerts[i].PriorCount > alerts[j].PriorCount
		}
		return alerts[i].Vendor < alerts[j].Vendor
	})

	return alerts
}

// FlaggedAlerts returns only the alerts outside the configured bounds
func (da *DashboardAggregator) FlaggedAlerts() []VendorAlert {
	flagged := make([]VendorAlert, 0)
	for _, alert := range da.Alerts() {
		if alert.IsFlagged(da.config) {
			flagged = append(flagged, alert)
		}
	}
	return flagged
}

// WriteDailyCounts writes the daily counts CSV
func (da *DashboardAggregator) WriteDailyCounts(writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	if err := csvWriter.Write([]string{"month", "day", "isWeekend", "count"}); err != nil {
		return err
	}

	for _, row := range da.DailyCounts() {
		record := []string{
			row.Month,
			row.Day,
			strconv.FormatBool(row.IsWeekend),
			strconv.Itoa(row.Count),
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteMonthlyTrend writes the monthly trend CSV
func (da *DashboardAggregator) WriteMonthlyTrend(writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	if err := csvWriter.Write([]string{"vendor", "month", "count"}); err != nil {
		return err
	}

	for _, row := range da.MonthlyTrend() {
		record := []string{row.Vendor, row.Month, strconv.Itoa(row.Count)}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteAlerts writes the month-over-month alerts CSV
func (da *DashboardAggregator) WriteAlerts(writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	if err := csvWriter.Write([]string{"vendor", "priorCount", "currentCount", "pct"}); err != nil {
		return err
	}

	for _, alert := range da.Alerts() {
		record := []string{
			alert.Vendor,
			strconv.Itoa(alert.PriorCount),
			strconv.Itoa(alert.CurrentCount),
			strconv.FormatFloat(alert.Pct, 'f', 1, 64),
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteArtifacts writes all three dashboard CSVs into the output directory
func (da *DashboardAggregator) WriteArtifacts(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	writers := []struct {
		file  string
		write func(io.Writer) error
	}{
		{DailyCountsFile, da.WriteDailyCounts},
		{MonthlyTrendFile, da.WriteMonthlyTrend},
		{AlertsFile, da.WriteAlerts},
	}

	for _, artifact := range writers {
		path := filepath.Join(outputDir, artifact.file)
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", artifact.file, err)
		}

		writeErr := artifact.write(file)
		closeErr := file.Close()
		if writeErr != nil {
			return fmt.Errorf("failed to write %s: %w", artifact.file, writeErr)
		}
		if closeErr != nil {
			return fmt.Errorf("failed to close %s: %w", artifact.file, closeErr)
		}
	}

	return nil
}

func roundTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
