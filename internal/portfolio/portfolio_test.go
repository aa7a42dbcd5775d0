package portfolio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/history"
	"github.com/opensource-finance/kestrel/internal/scoring"
)

func newTestProcessor(seed int64) *Processor {
	tables := scoring.DefaultRiskTables()
	rnd := scoring.NewRand(seed)
	return NewProcessor(Config{
		Credit:  scoring.NewCreditScorer(tables, rnd),
		Fraud:   scoring.NewFraudDetector(tables, rnd),
		History: history.New(nil, rnd),
	})
}

func pipelineInvoice(id string) *domain.Invoice {
	issue := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return &domain.Invoice{
		ID:              id,
		SupplierID:      "supplier-0001",
		DebtorID:        "debtor-0001",
		Amount:          250000.21,
		Currency:        "USD",
		SupplierCountry: "SG",
		DebtorCountry:   "US",
		Region:          "Asia-Pacific",
		Industry:        "Manufacturing",
		PaymentTerms:    "Net 30",
		IssueDate:       issue,
		DueDate:         issue.AddDate(0, 0, 30),
	}
}

func TestAnalyzeFull(t *testing.T) {
	proc := newTestProcessor(42)
	ctx := context.Background()

	invoices := []*domain.Invoice{
		pipelineInvoice("inv-001"),
		pipelineInvoice("inv-002"),
		pipelineInvoice("inv-003"),
	}

	analysis, err := proc.Analyze(ctx, "tenant-1", invoices, domain.AnalysisFull)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if analysis.TotalAnalyzed != 3 {
		t.Errorf("totalAnalyzed = %d, want 3", analysis.TotalAnalyzed)
	}
	if len(analysis.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(analysis.Results))
	}

	gradeCount := 0
	for _, r := range analysis.Results {
		if r.CreditRisk == nil || r.FraudRisk == nil {
			t.Error("full analysis should include both scorers")
		}
		if r.QualityScore < 0 || r.QualityScore > 100 {
			t.Errorf("quality score out of range: %v", r.QualityScore)
		}
		if r.InvestmentGrade {
			gradeCount++
			if r.Recommendation != domain.GradeBuy {
				t.Errorf("grade invoice should be BUY, got %s", r.Recommendation)
			}
		} else if r.Recommendation != domain.GradeSkip {
			t.Errorf("non-grade invoice should be SKIP, got %s", r.Recommendation)
		}
	}
	if analysis.InvestmentGrade != gradeCount {
		t.Errorf("investmentGrade count = %d, want %d", analysis.InvestmentGrade, gradeCount)
	}
}

func TestAnalyzePartialTypes(t *testing.T) {
	ctx := context.Background()

	t.Run("credit only", func(t *testing.T) {
		proc := newTestProcessor(42)
		analysis, err := proc.Analyze(ctx, "tenant-1", []*domain.Invoice{pipelineInvoice("inv-001")}, domain.AnalysisCredit)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		r := analysis.Results[0]
		if r.CreditRisk == nil || r.FraudRisk != nil {
			t.Error("credit analysis should only run the credit scorer")
		}
		if r.QualityScore != 0 || r.Recommendation != "" {
			t.Error("quality grading applies to full analysis only")
		}
	})

	t.Run("fraud only", func(t *testing.T) {
		proc := newTestProcessor(42)
		analysis, err := proc.Analyze(ctx, "tenant-1", []*domain.Invoice{pipelineInvoice("inv-001")}, domain.AnalysisFraud)
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		r := analysis.Results[0]
		if r.FraudRisk == nil || r.CreditRisk != nil {
			t.Error("fraud analysis should only run the fraud detector")
		}
	})

	t.Run("empty type defaults to full", func(t *testing.T) {
		proc := newTestProcessor(42)
		analysis, err := proc.Analyze(ctx, "tenant-1", []*domain.Invoice{pipelineInvoice("inv-001")}, "")
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if analysis.AnalysisType != domain.AnalysisFull {
			t.Errorf("analysisType = %s, want full", analysis.AnalysisType)
		}
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		proc := newTestProcessor(42)
		_, err := proc.Analyze(ctx, "tenant-1", []*domain.Invoice{pipelineInvoice("inv-001")}, "forensic")
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestAnalyzeValidation(t *testing.T) {
	proc := newTestProcessor(42)
	ctx := context.Background()

	if _, err := proc.Analyze(ctx, "tenant-1", nil, domain.AnalysisFull); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty batch, got %v", err)
	}

	bad := pipelineInvoice("inv-001")
	bad.SupplierID = ""
	if _, err := proc.Analyze(ctx, "tenant-1", []*domain.Invoice{bad}, domain.AnalysisFull); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad invoice, got %v", err)
	}
}

func TestQuality(t *testing.T) {
	tests := []struct {
		credit float64
		fraud  float64
		want   float64
	}{
		{100, 0, 100},
		{0, 100, 0},
		{80, 20, 80},  // 56 + 24
		{90, 50, 78},  // 63 + 15
		{70, 10, 76},  // 49 + 27
	}

	for _, tt := range tests {
		if got := Quality(tt.credit, tt.fraud); got != tt.want {
			t.Errorf("Quality(%v, %v) = %v, want %v", tt.credit, tt.fraud, got, tt.want)
		}
	}
}

func TestInvestmentGradeThreshold(t *testing.T) {
	proc := newTestProcessor(42)
	if proc.InvestmentGradeThreshold != DefaultInvestmentGradeThreshold {
		t.Errorf("default threshold = %v, want %v", proc.InvestmentGradeThreshold, DefaultInvestmentGradeThreshold)
	}

	custom := NewProcessor(Config{Threshold: 80})
	if custom.InvestmentGradeThreshold != 80 {
		t.Errorf("custom threshold = %v, want 80", custom.InvestmentGradeThreshold)
	}
}
