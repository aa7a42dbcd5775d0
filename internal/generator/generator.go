// Package generator synthesizes supplier records for the origination
// funnel. Field distributions follow the published origination dataset
// profile so downstream scorers see realistic inputs.
package generator

import (
	"fmt"
	"math"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/scoring"
)

// Regions covered by the origination funnel.
var Regions = []string{
	"Asia-Pacific", "Europe", "North America",
	"Latin America", "Africa", "Middle East",
}

// Industries covered by the origination funnel.
var Industries = []string{
	"Manufacturing", "Technology", "Agriculture", "Energy",
	"Healthcare", "Financial Services", "Retail", "Construction",
}

var regionCountries = map[string][]string{
	"Asia-Pacific":  {"SG", "HK", "CN", "JP", "KR", "TH", "MY", "ID", "PH", "VN"},
	"Europe":        {"DE", "FR", "GB", "IT", "ES", "NL", "BE", "CH", "AT", "SE"},
	"North America": {"US", "CA", "MX"},
	"Latin America": {"BR", "AR", "CL", "CO", "PE", "UY"},
	"Africa":        {"ZA", "NG", "EG", "KE", "MA", "GH"},
	"Middle East":   {"AE", "SA", "IL", "TR", "QA", "KW"},
}

var namePrefixes = []string{
	"Global", "International", "Advanced", "Premium",
	"Elite", "Superior", "Dynamic", "Innovative",
}

var nameSuffixes = []string{
	"Ltd", "Corp", "Inc", "Group",
	"Holdings", "Enterprises", "Solutions", "Systems",
}

var industryTerms = map[string][]string{
	"Manufacturing":      {"Manufacturing", "Industries", "Production", "Fabrication"},
	"Technology":         {"Technologies", "Systems", "Solutions", "Innovations"},
	"Agriculture":        {"Agriculture", "Farming", "Agri", "Crops"},
	"Energy":             {"Energy", "Power", "Utilities", "Resources"},
	"Healthcare":         {"Healthcare", "Medical", "Pharma", "Biotech"},
	"Financial Services": {"Finance", "Capital", "Investments", "Banking"},
	"Retail":             {"Retail", "Commerce", "Trading", "Merchandise"},
	"Construction":       {"Construction", "Building", "Engineering", "Contractors"},
}

var creditRatings = []string{
	"AAA", "AA+", "AA", "AA-", "A+", "A", "A-", "BBB+",
	"BBB", "BBB-", "BB+", "BB", "BB-", "B+", "B", "B-",
}

var creditRatingWeights = []float64{
	0.02, 0.03, 0.05, 0.08, 0.10, 0.12, 0.15, 0.15,
	0.12, 0.08, 0.05, 0.03, 0.02, 0.01, 0.01, 0.01,
}

var volumeBase = map[string]float64{
	"Manufacturing":      2000000,
	"Technology":         1500000,
	"Agriculture":        1000000,
	"Energy":             3000000,
	"Healthcare":         1200000,
	"Financial Services": 800000,
	"Retail":             600000,
	"Construction":       1800000,
}

var regionMultiplier = map[string]float64{
	"Asia-Pacific":  1.2,
	"Europe":        1.0,
	"North America": 1.1,
	"Latin America": 0.8,
	"Africa":        0.6,
	"Middle East":   0.9,
}

var revenueBase = map[string]float64{
	"Manufacturing":      50000000,
	"Technology":         30000000,
	"Agriculture":        20000000,
	"Energy":             80000000,
	"Healthcare":         40000000,
	"Financial Services": 60000000,
	"Retail":             15000000,
	"Construction":       35000000,
}

var marginBase = map[string]float64{
	"Manufacturing":      0.08,
	"Technology":         0.15,
	"Agriculture":        0.05,
	"Energy":             0.12,
	"Healthcare":         0.18,
	"Financial Services": 0.20,
	"Retail":             0.06,
	"Construction":       0.10,
}

var transactionBase = map[string]float64{
	"Manufacturing":      500000,
	"Technology":         300000,
	"Agriculture":        200000,
	"Energy":             800000,
	"Healthcare":         400000,
	"Financial Services": 600000,
	"Retail":             100000,
	"Construction":       350000,
}

var phoneCodes = map[string]string{
	"SG": "+65", "HK": "+852", "CN": "+86", "JP": "+81", "KR": "+82",
	"DE": "+49", "FR": "+33", "GB": "+44", "IT": "+39", "ES": "+34",
	"US": "+1", "CA": "+1", "MX": "+52",
	"BR": "+55", "AR": "+54", "CL": "+56",
	"ZA": "+27", "NG": "+234", "EG": "+20",
	"AE": "+971", "SA": "+966", "IL": "+972",
}

var businessTypes = []string{
	"Corporation", "LLC", "Partnership",
	"Sole Proprietorship", "Limited Partnership",
}

var supplierStatuses = []string{"active", "pending", "suspended", "inactive"}
var supplierStatusWeights = []float64{0.70, 0.15, 0.10, 0.05}

var complianceStatuses = []string{
	domain.CompliancePassed, domain.CompliancePending,
	domain.ComplianceReviewRequired, domain.ComplianceFailed,
}

// Generator produces synthetic supplier records. All randomness comes
// from the injected source, so a fixed seed gives a reproducible book.
type Generator struct {
	rnd *scoring.Rand
	now func() time.Time
}

// New creates a generator over the given source.
func New(rnd *scoring.Rand) *Generator {
	return &Generator{rnd: rnd, now: time.Now}
}

// Generate produces count supplier records.
func (g *Generator) Generate(count int) []*domain.Supplier {
	suppliers := make([]*domain.Supplier, 0, count)
	for i := 1; i <= count; i++ {
		suppliers = append(suppliers, g.generateOne(i))
	}
	return suppliers
}

func (g *Generator) generateOne(n int) *domain.Supplier {
	region := g.rnd.Pick(Regions)
	industry := g.rnd.Pick(Industries)
	country := g.rnd.Pick(regionCountries[region])
	years := 1 + g.rnd.IntN(20)
	employees := 10 + g.rnd.IntN(500)
	now := g.now()

	return &domain.Supplier{
		ID:              fmt.Sprintf("supplier-%04d", n),
		Name:            g.companyName(industry),
		Region:          region,
		Country:         country,
		Industry:        industry,
		YearsInBusiness: years,
		EmployeeCount:   employees,
		CreditRating:    g.creditRating(),
		PredictedVolume: g.predictedVolume(industry, region),
		AIScore:         60 + g.rnd.IntN(40),
		Status:          g.rnd.Weighted(supplierStatuses, supplierStatusWeights),
		LastUpdated:     now.Add(-time.Duration(g.rnd.Float64() * 30 * 24 * float64(time.Hour))),
		Contact: domain.ContactInfo{
			Email:   fmt.Sprintf("contact%d@supplier%d.com", n, n),
			Phone:   g.phone(country),
			Website: fmt.Sprintf("https://supplier%d.com", n),
		},
		Business: domain.BusinessInfo{
			LegalName:        g.companyName(industry),
			TaxID:            g.taxID(country),
			RegistrationDate: now.AddDate(-years, 0, 0).Truncate(24 * time.Hour),
			BusinessType:     g.rnd.Pick(businessTypes),
		},
		Financials: domain.FinancialInfo{
			AnnualRevenue: math.Round(baseFor(revenueBase, industry, 25000000) * g.rnd.Between(0.5, 2.0)),
			ProfitMargin:  round2(baseFor(marginBase, industry, 0.10) * g.rnd.Between(0.5, 1.5)),
			DebtToEquity:  round2(g.rnd.Between(0.2, 1.0)),
			CurrentRatio:  round2(g.rnd.Between(1.0, 2.5)),
		},
		Compliance: domain.ComplianceInfo{
			KYCStatus:    g.rnd.Weighted(complianceStatuses, []float64{0.85, 0.10, 0.04, 0.01}),
			AMLStatus:    g.rnd.Weighted(complianceStatuses, []float64{0.92, 0.05, 0.02, 0.01}),
			UBOStatus:    g.rnd.Weighted(complianceStatuses, []float64{0.89, 0.08, 0.02, 0.01}),
			LastVerified: now.AddDate(0, 0, -(1 + g.rnd.IntN(90))),
		},
		TradeHistory: domain.TradeHistory{
			TotalTransactions:      10 + g.rnd.IntN(100),
			AverageTransactionSize: math.Round(baseFor(transactionBase, industry, 250000) * g.rnd.Between(0.5, 2.0)),
			PaymentHistory:         round2(g.rnd.Between(0.7, 1.0)),
			DefaultRate:            round3(g.rnd.Float64() * 0.05),
		},
	}
}

func (g *Generator) companyName(industry string) string {
	terms := industryTerms[industry]
	if len(terms) == 0 {
		terms = []string{"Trading"}
	}
	return g.rnd.Pick(namePrefixes) + " " + g.rnd.Pick(terms) + " " + g.rnd.Pick(nameSuffixes)
}

func (g *Generator) creditRating() string {
	return g.rnd.Weighted(creditRatings, creditRatingWeights)
}

func (g *Generator) predictedVolume(industry, region string) float64 {
	base := baseFor(volumeBase, industry, 1000000)
	mult, ok := regionMultiplier[region]
	if !ok {
		mult = 1.0
	}
	return math.Round(base * mult * g.rnd.Between(0.5, 1.5))
}

func (g *Generator) phone(country string) string {
	code, ok := phoneCodes[country]
	if !ok {
		code = "+1"
	}
	return fmt.Sprintf("%s%08d", code, g.rnd.IntN(100000000))
}

func (g *Generator) taxID(country string) string {
	return fmt.Sprintf("%s%09d", country, g.rnd.IntN(1000000000))
}

func baseFor(table map[string]float64, key string, fallback float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	return fallback
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
