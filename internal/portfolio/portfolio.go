// Package portfolio runs the receivable analysis pipeline: credit and
// fraud scoring, screening rules, and quality aggregation.
package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/history"
	"github.com/opensource-finance/kestrel/internal/scoring"
	"github.com/opensource-finance/kestrel/internal/screening"
)

// Quality weights: credit carries 0.7, inverse fraud 0.3.
const (
	creditWeight = 0.7
	fraudWeight  = 0.3
)

// DefaultInvestmentGradeThreshold marks invoices worth buying.
const DefaultInvestmentGradeThreshold = 75.0

// Processor orchestrates per-invoice scoring and batch aggregation.
type Processor struct {
	credit    *scoring.CreditScorer
	fraud     *scoring.FraudDetector
	screening *screening.Engine
	history   *history.Service
	repo      domain.Repository

	// InvestmentGradeThreshold is the minimum quality score for a BUY.
	InvestmentGradeThreshold float64
}

// Config holds processor construction options.
type Config struct {
	Credit    *scoring.CreditScorer
	Fraud     *scoring.FraudDetector
	Screening *screening.Engine
	History   *history.Service
	Repo      domain.Repository
	Threshold float64
}

// NewProcessor creates a processor. Screening, history, and repo are
// optional.
func NewProcessor(cfg Config) *Processor {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultInvestmentGradeThreshold
	}
	return &Processor{
		credit:                   cfg.Credit,
		fraud:                    cfg.Fraud,
		screening:                cfg.Screening,
		history:                  cfg.History,
		repo:                     cfg.Repo,
		InvestmentGradeThreshold: threshold,
	}
}

// Analyze runs the pipeline over a batch of invoices.
func (p *Processor) Analyze(ctx context.Context, tenantID string, invoices []*domain.Invoice, analysisType string) (*domain.ReceivableAnalysis, error) {
	if len(invoices) == 0 {
		return nil, fmt.Errorf("%w: invoices array is required", domain.ErrInvalidInput)
	}
	switch analysisType {
	case "":
		analysisType = domain.AnalysisFull
	case domain.AnalysisFull, domain.AnalysisCredit, domain.AnalysisFraud:
	default:
		return nil, fmt.Errorf("%w: unknown analysisType %q", domain.ErrInvalidInput, analysisType)
	}

	started := time.Now()
	rulesEvaluated := 0
	results := make([]domain.InvoiceAssessment, 0, len(invoices))

	for _, inv := range invoices {
		assessment, err := p.assess(ctx, tenantID, inv, analysisType)
		if err != nil {
			return nil, err
		}
		rulesEvaluated += len(assessment.Screening)
		results = append(results, *assessment)

		if p.repo != nil {
			if err := p.repo.SaveInvoice(ctx, tenantID, inv); err != nil {
				slog.Warn("failed to persist invoice", "invoice_id", inv.ID, "error", err)
			}
		}
	}

	analysis := &domain.ReceivableAnalysis{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		AnalysisType: analysisType,
		Results:      results,
		Timestamp:    time.Now(),
		Metadata: domain.AnalysisMetadata{
			ProcessingMs:   time.Since(started).Milliseconds(),
			RulesEvaluated: rulesEvaluated,
		},
	}
	aggregate(analysis)

	if p.repo != nil {
		if err := p.repo.SaveAnalysis(ctx, tenantID, analysis); err != nil {
			slog.Error("failed to persist analysis", "analysis_id", analysis.ID, "error", err)
		}
	}

	return analysis, nil
}

// assess runs the requested scorers over a single invoice.
func (p *Processor) assess(ctx context.Context, tenantID string, inv *domain.Invoice, analysisType string) (*domain.InvoiceAssessment, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	assessment := &domain.InvoiceAssessment{
		InvoiceID:    inv.ID,
		Amount:       inv.Amount,
		Currency:     inv.Currency,
		SupplierID:   inv.SupplierID,
		DebtorID:     inv.DebtorID,
		DueDate:      inv.DueDate,
		AnalysisType: analysisType,
	}

	if analysisType == domain.AnalysisFull || analysisType == domain.AnalysisCredit {
		credit, err := p.credit.Score(inv)
		if err != nil {
			return nil, err
		}
		assessment.CreditRisk = credit
	}

	if analysisType == domain.AnalysisFull || analysisType == domain.AnalysisFraud {
		var stats *domain.SupplierStats
		if p.history != nil {
			s, err := p.history.SupplierStats(ctx, tenantID, inv.SupplierID)
			if err != nil {
				return nil, err
			}
			stats = s
		}
		fraud, err := p.fraud.Detect(inv, stats)
		if err != nil {
			return nil, err
		}
		assessment.FraudRisk = fraud
	}

	if analysisType == domain.AnalysisFull {
		if p.screening != nil && p.screening.RulesCount() > 0 {
			screened, err := p.screening.EvaluateAll(ctx, screening.InputFromInvoice(tenantID, inv, time.Now()))
			if err != nil {
				return nil, fmt.Errorf("%w: screening failed: %v", domain.ErrComputation, err)
			}
			assessment.Screening = screened
		}

		assessment.QualityScore = Quality(assessment.CreditRisk.Score, assessment.FraudRisk.Score)
		assessment.InvestmentGrade = assessment.QualityScore >= p.InvestmentGradeThreshold
		if assessment.InvestmentGrade {
			assessment.Recommendation = domain.GradeBuy
		} else {
			assessment.Recommendation = domain.GradeSkip
		}

		// Feed the scorer outputs forward for matching.
		inv.QualityScore = assessment.QualityScore
		inv.RiskLevel = assessment.CreditRisk.RiskLevel
	}

	return assessment, nil
}

// Quality blends credit and inverse fraud scores into a 0-100 grade.
func Quality(creditScore, fraudScore float64) float64 {
	return math.Round(creditScore*creditWeight + (100-fraudScore)*fraudWeight)
}

// aggregate fills the batch-level counters.
func aggregate(analysis *domain.ReceivableAnalysis) {
	analysis.TotalAnalyzed = len(analysis.Results)

	gradeCount := 0
	qualitySum := 0.0
	for _, r := range analysis.Results {
		if r.InvestmentGrade {
			gradeCount++
		}
		qualitySum += r.QualityScore
	}
	analysis.InvestmentGrade = gradeCount
	if analysis.TotalAnalyzed > 0 {
		analysis.AverageQualityScore = math.Round(qualitySum/float64(analysis.TotalAnalyzed)*10) / 10
	}
}
