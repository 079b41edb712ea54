package resolver

import (
	"context"
	"strings"
	"sync"
	"testing"
)

func createTestOrchestrator(t *testing.T) *ResolutionOrchestrator {
	t.Helper()
	return NewResolutionOrchestrator(createTestService(t))
}

func TestOrchestratorRun(t *testing.T) {
	vendorFile := writeTestFile(t, "vendors.csv",
		"vendor_name\n\"Acme Waste Services, Inc.\"\n")
	invoiceFile := writeTestFile(t, "invoices.csv",
		"invoice_md5,vendor_name,counterparty,amount\n"+
			"inv-001,\"Acme Waste Services, Inc.\",Yard A,100.00\n"+
			"inv-002,Unrelated Mystery Business,Yard B,50.00\n")

	orchestrator := createTestOrchestrator(t)

	var mu sync.Mutex
	var stages []string
	orchestrator.RegisterProgressCallback(func(update ProgressUpdate) {
		mu.Lock()
		stages = append(stages, update.Stage)
		mu.Unlock()
	})

	result, err := orchestrator.Run(context.Background(), &ResolutionRequest{
		VendorFile:  vendorFile,
		InvoiceFile: invoiceFile,
	}, nil)
	if err != nil {
		t.Fatalf("orchestrated run failed: %v", err)
	}

	if result.Summary.MatchedNames != 1 {
		t.Errorf("matched names = %d, expected 1", result.Summary.MatchedNames)
	}
	if result.DataQuality == nil {
		t.Fatal("expected data quality metrics")
	}
	if result.Performance == nil {
		t.Fatal("expected performance metrics")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(stages) == 0 {
		t.Fatal("expected progress updates")
	}
	if stages[0] != "starting" {
		t.Errorf("first stage = %s, expected starting", stages[0])
	}
	if stages[len(stages)-1] != "completed" {
		t.Errorf("last stage = %s, expected completed", stages[len(stages)-1])
	}
}

func TestOrchestratorRunFailure(t *testing.T) {
	orchestrator := createTestOrchestrator(t)

	var mu sync.Mutex
	var lastStage string
	orchestrator.RegisterProgressCallback(func(update ProgressUpdate) {
		mu.Lock()
		lastStage = update.Stage
		mu.Unlock()
	})

	_, err := orchestrator.Run(context.Background(), &ResolutionRequest{}, nil)
	if err == nil {
		t.Fatal("expected error for empty request")
	}

	mu.Lock()
	defer mu.Unlock()
	if lastStage != "failed" {
		t.Errorf("last stage = %s, expected failed", lastStage)
	}
}

func TestOrchestratorExcludeResolutions(t *testing.T) {
	vendorFile := writeTestFile(t, "vendors.csv", "vendor_name\nAcme Corp\n")
	invoiceFile := writeTestFile(t, "invoices.csv",
		"invoice_md5,vendor_name,counterparty\ninv-001,Acme Corp,Yard A\n")

	orchestrator := createTestOrchestrator(t)
	result, err := orchestrator.Run(context.Background(), &ResolutionRequest{
		VendorFile:  vendorFile,
		InvoiceFile: invoiceFile,
	}, &ResolutionOptions{IncludeResolutions: false})
	if err != nil {
		t.Fatalf("orchestrated run failed: %v", err)
	}

	if result.Resolutions != nil {
		t.Errorf("resolutions = %d entries, expected none", len(result.Resolutions))
	}
	if result.Summary.MatchedNames != 1 {
		t.Errorf("matched names = %d, expected 1", result.Summary.MatchedNames)
	}
}

func TestOrchestratorWarnings(t *testing.T) {
	vendorFile := writeTestFile(t, "vendors.csv", "vendor_name\nAcme Corp\n")
	invoiceFile := writeTestFile(t, "invoices.csv",
		"invoice_md5,vendor_name,counterparty\n"+
			"inv-001,Mystery Vendor One,Yard A\n"+
			"inv-002,Mystery Vendor Two,Yard B\n"+
			"inv-003,Acme Corp,Yard C\n")

	orchestrator := createTestOrchestrator(t)
	result, err := orchestrator.Run(context.Background(), &ResolutionRequest{
		VendorFile:  vendorFile,
		InvoiceFile: invoiceFile,
	}, nil)
	if err != nil {
		t.Fatalf("orchestrated run failed: %v", err)
	}

	found := false
	for _, warning := range result.Warnings {
		if strings.Contains(warning, "Low match rate") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected low match rate warning, got %v", result.Warnings)
	}
}

func TestOrchestratorDataQualityMetrics(t *testing.T) {
	orchestrator := createTestOrchestrator(t)

	result := &ResolutionResult{
		Summary: &ResultSummary{
			TotalInvoices:   10,
			MatchedInvoices: 6,
			InvalidInvoices: 2,
			DistinctNames:   5,
		},
	}

	metrics := orchestrator.calculateDataQuality(result)

	if metrics.InvalidNameRate != 20 {
		t.Errorf("invalid name rate = %.1f, expected 20.0", metrics.InvalidNameRate)
	}
	if metrics.NameDiversity != 0.5 {
		t.Errorf("name diversity = %.2f, expected 0.50", metrics.NameDiversity)
	}
}
