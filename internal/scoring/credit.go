package scoring

import (
	"math"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Credit factor weights. They sum to 1.
const (
	weightPaymentHistory     = 0.30
	weightCountryRisk        = 0.25
	weightIndustryRisk       = 0.20
	weightInvoiceTerms       = 0.15
	weightSupplierReputation = 0.10
)

// CreditScorer computes weighted credit-risk assessments for invoices.
// Debtor payment history and supplier reputation are simulated from the
// injected source until real bureau data is wired in.
type CreditScorer struct {
	tables *RiskTables
	rnd    *Rand
}

// NewCreditScorer creates a credit scorer over the given tables and source.
func NewCreditScorer(tables *RiskTables, rnd *Rand) *CreditScorer {
	return &CreditScorer{tables: tables, rnd: rnd}
}

// Score assesses a single invoice. The invoice must pass validation;
// required fields are never defaulted.
func (s *CreditScorer) Score(inv *domain.Invoice) (*domain.CreditAssessment, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	paymentHistory := s.paymentHistoryScore()
	countryRisk := s.countryRiskScore(inv)
	industryRisk := s.industryRiskScore(inv)
	invoiceTerms := s.invoiceTermsScore(inv)
	reputation := s.supplierReputationScore()

	overall := paymentHistory*weightPaymentHistory +
		countryRisk*weightCountryRisk +
		industryRisk*weightIndustryRisk +
		invoiceTerms*weightInvoiceTerms +
		reputation*weightSupplierReputation
	overall = clamp(math.Round(overall), 0, 100)

	return &domain.CreditAssessment{
		Score:       overall,
		Probability: round2(1 / (1 + math.Exp(-(overall-50)/10))),
		RiskLevel:   CreditRiskLevel(overall),
		Factors: []domain.FactorScore{
			{Factor: "Payment History", Weight: weightPaymentHistory, Score: paymentHistory, Impact: factorImpact(paymentHistory)},
			{Factor: "Country Risk", Weight: weightCountryRisk, Score: countryRisk, Impact: factorImpact(countryRisk)},
			{Factor: "Industry Risk", Weight: weightIndustryRisk, Score: industryRisk, Impact: factorImpact(industryRisk)},
			{Factor: "Invoice Terms", Weight: weightInvoiceTerms, Score: invoiceTerms, Impact: factorImpact(invoiceTerms)},
			{Factor: "Supplier Reputation", Weight: weightSupplierReputation, Score: reputation, Impact: factorImpact(reputation)},
		},
		Confidence:     round2(0.85 + s.rnd.Float64()*0.10),
		Recommendation: creditRecommendation(overall),
	}, nil
}

func (s *CreditScorer) paymentHistoryScore() float64 {
	history := s.rnd.Between(0.7, 1.0)
	consistency := s.rnd.Between(0.6, 1.0)
	avgDays := s.rnd.Between(25, 45)

	score := history*100 + consistency*10 - math.Max(0, (avgDays-30)*0.5)
	return clamp(score, 0, 100)
}

func (s *CreditScorer) countryRiskScore(inv *domain.Invoice) float64 {
	risk := s.tables.CountryRiskFor(inv.DebtorCountry)
	stability := s.tables.CurrencyStabilityFor(inv.Currency)
	return clamp((100-risk)+stability*10, 0, 100)
}

func (s *CreditScorer) industryRiskScore(inv *domain.Invoice) float64 {
	risk := s.tables.IndustryRiskFor(inv.Industry)
	seasonal := s.rnd.Between(0.8, 1.2)
	return clamp((100-risk)+seasonal*5, 0, 100)
}

func (s *CreditScorer) invoiceTermsScore(inv *domain.Invoice) float64 {
	terms := scoreLadder(float64(inv.TermDays()), 30, 60, 90)
	amount := amountScore(inv.Amount)
	age := scoreLadder(float64(inv.AgeDays()), 30, 60, 90)
	return clamp((terms+amount+age)/3, 0, 100)
}

func (s *CreditScorer) supplierReputationScore() float64 {
	reputation := s.rnd.Between(0.6, 1.0)
	defaultRate := s.rnd.Float64() * 0.1
	relationshipYears := s.rnd.Float64() * 5

	score := reputation*100 - defaultRate*50 + math.Min(relationshipYears*5, 20)
	return clamp(score, 0, 100)
}

// scoreLadder maps a day count onto the standard 100/80/60/40 bands.
func scoreLadder(days, a, b, c float64) float64 {
	switch {
	case days <= a:
		return 100
	case days <= b:
		return 80
	case days <= c:
		return 60
	default:
		return 40
	}
}

func amountScore(amount float64) float64 {
	switch {
	case amount >= 1000000:
		return 100
	case amount >= 500000:
		return 90
	case amount >= 100000:
		return 80
	case amount >= 50000:
		return 70
	default:
		return 60
	}
}

// CreditRiskLevel maps a credit score to a risk level. Boundaries are
// lower-inclusive at 85, 70, and 50.
func CreditRiskLevel(score float64) string {
	switch {
	case score >= 85:
		return domain.RiskLow
	case score >= 70:
		return domain.RiskMedium
	case score >= 50:
		return domain.RiskHigh
	default:
		return domain.RiskVeryHigh
	}
}

func factorImpact(score float64) string {
	switch {
	case score >= 85:
		return "Strong positive impact"
	case score >= 70:
		return "Positive impact"
	case score >= 50:
		return "Neutral impact"
	case score >= 30:
		return "Negative impact"
	default:
		return "Strong negative impact"
	}
}

func creditRecommendation(score float64) string {
	switch {
	case score >= 85:
		return domain.RecommendStrongBuy
	case score >= 75:
		return domain.RecommendBuy
	case score >= 65:
		return domain.RecommendConditionalBuy
	case score >= 50:
		return domain.RecommendHold
	default:
		return domain.RecommendAvoid
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
