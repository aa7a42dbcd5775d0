package scoring

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Fraud indicator flags.
const (
	FlagAmountOutlier           = "AMOUNT_OUTLIER"
	FlagUnusualAmount           = "UNUSUAL_AMOUNT"
	FlagRoundAmount             = "ROUND_AMOUNT"
	FlagNewRelationship         = "NEW_RELATIONSHIP"
	FlagWeekendIssuance         = "WEEKEND_ISSUANCE"
	FlagCrossBorder             = "CROSS_BORDER"
	FlagHighRiskSupplierCountry = "HIGH_RISK_SUPPLIER_COUNTRY"
	FlagHighRiskDebtorCountry   = "HIGH_RISK_DEBTOR_COUNTRY"
	FlagShortTerm               = "SHORT_TERM"
	FlagLongTerm                = "LONG_TERM"
)

var fraudReasons = map[string]string{
	FlagAmountOutlier:           "Invoice amount significantly exceeds supplier's typical range",
	FlagUnusualAmount:           "Invoice amount appears unusual for this industry",
	FlagRoundAmount:             "Round number amounts may indicate fabricated invoices",
	FlagNewRelationship:         "New supplier-debtor relationship requires additional verification",
	FlagWeekendIssuance:         "Weekend invoice issuance is uncommon and may indicate fraud",
	FlagCrossBorder:             "Cross-border transactions have higher fraud risk",
	FlagHighRiskSupplierCountry: "Supplier country has elevated fraud risk",
	FlagHighRiskDebtorCountry:   "Debtor country has elevated fraud risk",
	FlagShortTerm:               "Unusually short payment terms may indicate urgency to avoid detection",
	FlagLongTerm:                "Unusually long payment terms may indicate cash flow issues",
}

// FraudDetector flags anomalous invoices with a point-sum score.
type FraudDetector struct {
	tables *RiskTables
	rnd    *Rand
	now    func() time.Time
}

// NewFraudDetector creates a fraud detector over the given tables and source.
func NewFraudDetector(tables *RiskTables, rnd *Rand) *FraudDetector {
	return &FraudDetector{tables: tables, rnd: rnd, now: time.Now}
}

// Detect scores a single invoice against the supplier's trade history.
func (d *FraudDetector) Detect(inv *domain.Invoice, stats *domain.SupplierStats) (*domain.FraudAssessment, error) {
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	score := 0.0
	var flags []string
	add := func(flag string, points float64) {
		score += points
		flags = append(flags, flag)
	}

	if stats != nil && stats.AverageAmount > 0 {
		if inv.Amount > stats.AverageAmount*3 || inv.Amount < stats.AverageAmount*0.1 {
			add(FlagAmountOutlier, 30)
		}
	}
	if unusualDigits(inv.Amount) {
		add(FlagUnusualAmount, 20)
	}
	if math.Abs(inv.Amount-math.Round(inv.Amount)) < 0.01 && inv.Amount > 1000 {
		add(FlagRoundAmount, 10)
	}
	if stats != nil && stats.NewRelationship {
		add(FlagNewRelationship, 25)
	}
	if inv.WeekendIssued() {
		add(FlagWeekendIssuance, 15)
	}
	if inv.CrossBorder() {
		add(FlagCrossBorder, 10)
	}
	if d.tables.HighRiskCountries[inv.SupplierCountry] {
		add(FlagHighRiskSupplierCountry, 20)
	}
	if d.tables.HighRiskCountries[inv.DebtorCountry] {
		add(FlagHighRiskDebtorCountry, 15)
	}
	daysToDue := inv.DaysToDue(d.now())
	if daysToDue < 7 {
		add(FlagShortTerm, 20)
	} else if daysToDue > 180 {
		add(FlagLongTerm, 15)
	}

	score += d.rnd.Float64() * 10
	score = clamp(score, 0, 100)

	return &domain.FraudAssessment{
		Score:          score,
		RiskLevel:      FraudRiskLevel(score),
		Flags:          flags,
		Reasons:        fraudReasonsFor(flags),
		Confidence:     fraudConfidence(score, len(flags)),
		Recommendation: fraudRecommendation(FraudRiskLevel(score)),
	}, nil
}

// unusualDigits checks for digit patterns often seen in fabricated
// amounts. Heuristic carried over from the screening playbook.
func unusualDigits(amount float64) bool {
	s := strconv.FormatFloat(amount, 'f', -1, 64)
	return strings.Contains(s, "12345") ||
		strings.Contains(s, "9999") ||
		strings.Contains(s, "0000")
}

// FraudRiskLevel maps a fraud score to a tier.
func FraudRiskLevel(score float64) string {
	switch {
	case score >= 80:
		return domain.FraudHigh
	case score >= 60:
		return domain.FraudMedium
	case score >= 30:
		return domain.FraudLow
	default:
		return domain.FraudMinimal
	}
}

func fraudConfidence(score float64, flagCount int) float64 {
	confidence := 0.7 +
		math.Min(float64(flagCount)*0.05, 0.2) +
		math.Min(score/200, 0.1)
	return clamp(confidence, 0.5, 0.98)
}

func fraudReasonsFor(flags []string) []string {
	if len(flags) == 0 {
		return []string{"No significant fraud indicators detected"}
	}
	reasons := make([]string, 0, len(flags))
	for _, f := range flags {
		if r, ok := fraudReasons[f]; ok {
			reasons = append(reasons, r)
		}
	}
	return reasons
}

func fraudRecommendation(riskLevel string) string {
	switch riskLevel {
	case domain.FraudHigh:
		return domain.RecommendImmediateReview
	case domain.FraudMedium:
		return domain.RecommendManualVerification
	case domain.FraudLow:
		return domain.RecommendMonitor
	default:
		return domain.RecommendApprove
	}
}
