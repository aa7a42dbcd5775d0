// Package matching scores invoices against the buyer book and builds
// capacity-aware allocations.
package matching

import (
	"math"
	"strings"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Default allocation used when no buyer scores above zero.
const (
	DefaultBuyerID   = "default-buyer"
	DefaultBuyerName = "Default Allocation"
)

// Preferences tune match scoring across a batch.
type Preferences struct {
	PrioritizeReturn bool `json:"prioritizeReturn"`
	PrioritizeRisk   bool `json:"prioritizeRisk"`
}

var riskLevelRank = map[string]int{
	domain.RiskLow:      1,
	domain.RiskMedium:   2,
	domain.RiskHigh:     3,
	domain.RiskVeryHigh: 4,
}

var riskLevelBase = map[string]float64{
	domain.RiskLow:      5,
	domain.RiskMedium:   15,
	domain.RiskHigh:     25,
	domain.RiskVeryHigh: 35,
}

var riskReturnAdjustment = map[string]float64{
	domain.RiskLow:      0.5,
	domain.RiskMedium:   0,
	domain.RiskHigh:     -0.5,
	domain.RiskVeryHigh: -1.0,
}

var regionRiskContribution = map[string]float64{
	"Asia-Pacific":  5,
	"Europe":        3,
	"North America": 2,
	"Latin America": 12,
	"Africa":        18,
	"Middle East":   15,
}

var buyerTypeTolerance = map[string]float64{
	"Institutional Investor": 10,
	"Specialized Fund":       15,
	"Private Equity":         5,
	"Bank":                   8,
}

// Engine matches single invoices to buyers.
type Engine struct{}

// NewEngine creates a matching engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Match picks the best buyer for an invoice. Ties keep the first-seen
// buyer; when nobody scores above zero the default allocation applies.
func (e *Engine) Match(inv *domain.Invoice, buyers []*domain.BuyerProfile, prefs Preferences) domain.Allocation {
	var best *domain.BuyerProfile
	bestScore := 0.0
	bestReturn := 0.0
	bestRisk := 0.0

	for _, buyer := range buyers {
		if buyer.Status != "" && buyer.Status != domain.BuyerActive {
			continue
		}

		expectedReturn := expectedReturn(buyer, inv)
		riskScore := riskScore(buyer, inv)
		score := e.matchScore(inv, buyer, prefs, expectedReturn, riskScore)

		if score > bestScore {
			best = buyer
			bestScore = score
			bestReturn = expectedReturn
			bestRisk = riskScore
		}
	}

	if best == nil || bestScore <= 0 {
		return domain.Allocation{
			InvoiceID:      inv.ID,
			BuyerID:        DefaultBuyerID,
			BuyerName:      DefaultBuyerName,
			MatchScore:     50,
			Amount:         inv.Amount,
			Region:         inv.Region,
			Industry:       inv.Industry,
			ExpectedReturn: 8.0,
			RiskScore:      20,
			Confidence:     0.5,
			MatchReason:    "Default allocation - no specific buyer match found",
		}
	}

	return domain.Allocation{
		InvoiceID:      inv.ID,
		BuyerID:        best.ID,
		BuyerName:      best.Name,
		MatchScore:     math.Round(bestScore),
		Amount:         inv.Amount,
		Region:         inv.Region,
		Industry:       inv.Industry,
		ExpectedReturn: bestReturn,
		RiskScore:      bestRisk,
		Confidence:     confidence(bestScore),
		MatchReason:    matchReason(inv, best),
	}
}

// matchScore applies the criteria point system, the capacity penalty,
// and preference bonuses.
func (e *Engine) matchScore(inv *domain.Invoice, buyer *domain.BuyerProfile, prefs Preferences, expectedReturn, riskScore float64) float64 {
	p := buyer.Preferences
	score := 0.0

	if inv.Amount >= p.MinAmount && inv.Amount <= p.MaxAmount {
		score += 25
	}
	if containsString(p.Regions, inv.Region) {
		score += 20
	}
	if containsString(p.Industries, inv.Industry) {
		score += 20
	}
	if inv.QualityScore >= p.MinQualityScore {
		score += 15
	}
	if riskCompatible(inv.RiskLevel, p.MaxRiskLevel) {
		score += 10
	}
	if containsString(p.PaymentTerms, inv.PaymentTerms) {
		score += 5
	}
	if containsString(p.Currencies, inv.Currency) {
		score += 5
	}

	// A buyer without headroom is still matchable, at half strength.
	if buyer.Capacity.Available < inv.Amount {
		score *= 0.5
	}

	if prefs.PrioritizeReturn {
		score += math.Min(10, expectedReturn-8)
	}
	if prefs.PrioritizeRisk {
		score += math.Min(10, math.Max(0, 20-riskScore))
	}

	return math.Min(100, score)
}

func riskCompatible(invoiceLevel, buyerMax string) bool {
	invRank, ok := riskLevelRank[invoiceLevel]
	if !ok {
		return false
	}
	maxRank, ok := riskLevelRank[buyerMax]
	if !ok {
		return false
	}
	return invRank <= maxRank
}

func expectedReturn(buyer *domain.BuyerProfile, inv *domain.Invoice) float64 {
	adj, ok := riskReturnAdjustment[inv.RiskLevel]
	if !ok {
		adj = 0
	}
	ret := buyer.Performance.AverageReturn + (inv.QualityScore-75)*0.1 + adj
	return round2(ret)
}

func riskScore(buyer *domain.BuyerProfile, inv *domain.Invoice) float64 {
	base, ok := riskLevelBase[inv.RiskLevel]
	if !ok {
		base = 20
	}
	region, ok := regionRiskContribution[inv.Region]
	if !ok {
		region = 10
	}
	tolerance, ok := buyerTypeTolerance[buyer.Type]
	if !ok {
		tolerance = 12
	}
	return round1(base + region - tolerance)
}

func confidence(score float64) float64 {
	return math.Max(0.5, math.Min(0.98, score/100))
}

func matchReason(inv *domain.Invoice, buyer *domain.BuyerProfile) string {
	p := buyer.Preferences
	var reasons []string
	if inv.Amount >= p.MinAmount && inv.Amount <= p.MaxAmount {
		reasons = append(reasons, "Amount within buyer range")
	}
	if containsString(p.Regions, inv.Region) {
		reasons = append(reasons, "Geographic preference match")
	}
	if containsString(p.Industries, inv.Industry) {
		reasons = append(reasons, "Industry preference match")
	}
	if inv.QualityScore >= p.MinQualityScore {
		reasons = append(reasons, "Quality score meets requirements")
	}
	if len(reasons) == 0 {
		return "Best available match based on overall criteria"
	}
	return strings.Join(reasons, ", ")
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
