package scoring

// RiskTables holds the immutable lookup tables the scorers read from.
// Constructed once at startup and never mutated afterwards.
type RiskTables struct {
	// Country risk on 0-100, higher is riskier.
	CountryRisk        map[string]float64
	DefaultCountryRisk float64

	// Currency stability on 0-1, higher is more stable.
	CurrencyStability        map[string]float64
	DefaultCurrencyStability float64

	// Industry risk on 0-100, higher is riskier.
	IndustryRisk        map[string]float64
	DefaultIndustryRisk float64

	// Industry stability on 0-1, used by the lead scorer.
	IndustryStability        map[string]float64
	DefaultIndustryStability float64

	// Region risk on 0-100, used by the lead scorer and matching engine.
	RegionRisk        map[string]float64
	DefaultRegionRisk float64

	// Credit rating factors on 0-1, AAA best.
	CreditRatings       map[string]float64
	DefaultCreditRating float64

	// Countries with elevated fraud exposure.
	HighRiskCountries map[string]bool
}

// DefaultRiskTables returns the standard table set.
func DefaultRiskTables() *RiskTables {
	return &RiskTables{
		CountryRisk: map[string]float64{
			"US": 10, "CA": 12, "GB": 15, "DE": 8, "FR": 12,
			"JP": 15, "AU": 18, "SG": 20, "HK": 25, "CN": 35,
			"IN": 40, "BR": 45, "MX": 50, "RU": 60, "AR": 65,
		},
		DefaultCountryRisk: 30,

		CurrencyStability: map[string]float64{
			"USD": 0.95, "EUR": 0.90, "GBP": 0.85, "JPY": 0.80,
			"CAD": 0.85, "AUD": 0.80, "CHF": 0.90, "CNY": 0.70,
		},
		DefaultCurrencyStability: 0.75,

		IndustryRisk: map[string]float64{
			"Manufacturing":      20,
			"Technology":         25,
			"Healthcare":         15,
			"Financial Services": 30,
			"Energy":             35,
			"Agriculture":        40,
			"Retail":             25,
			"Construction":       45,
			"Transportation":     30,
		},
		DefaultIndustryRisk: 25,

		IndustryStability: map[string]float64{
			"Manufacturing":      0.8,
			"Technology":         0.7,
			"Agriculture":        0.6,
			"Energy":             0.5,
			"Healthcare":         0.9,
			"Financial Services": 0.85,
		},
		DefaultIndustryStability: 0.7,

		RegionRisk: map[string]float64{
			"Asia-Pacific":  25,
			"Europe":        15,
			"North America": 10,
			"Latin America": 45,
			"Africa":        60,
			"Middle East":   40,
		},
		DefaultRegionRisk: 30,

		CreditRatings: map[string]float64{
			"AAA": 1.0, "AA+": 0.95, "AA": 0.9, "AA-": 0.85,
			"A+": 0.8, "A": 0.75, "A-": 0.7,
			"BBB+": 0.65, "BBB": 0.6, "BBB-": 0.55,
			"BB+": 0.5, "BB": 0.45, "BB-": 0.4,
			"B+": 0.35, "B": 0.3, "B-": 0.25,
			"CCC": 0.2, "CC": 0.15, "C": 0.1, "D": 0.05,
		},
		DefaultCreditRating: 0.5,

		HighRiskCountries: map[string]bool{
			"IR": true, "KP": true, "SY": true, "CU": true,
			"SD": true, "MM": true, "AF": true, "YE": true,
		},
	}
}

// CountryRiskFor returns the country risk score with default fallback.
func (t *RiskTables) CountryRiskFor(code string) float64 {
	if v, ok := t.CountryRisk[code]; ok {
		return v
	}
	return t.DefaultCountryRisk
}

// CurrencyStabilityFor returns the currency stability with default fallback.
func (t *RiskTables) CurrencyStabilityFor(ccy string) float64 {
	if v, ok := t.CurrencyStability[ccy]; ok {
		return v
	}
	return t.DefaultCurrencyStability
}

// IndustryRiskFor returns the industry risk score with default fallback.
func (t *RiskTables) IndustryRiskFor(industry string) float64 {
	if v, ok := t.IndustryRisk[industry]; ok {
		return v
	}
	return t.DefaultIndustryRisk
}

// IndustryStabilityFor returns the industry stability with default fallback.
func (t *RiskTables) IndustryStabilityFor(industry string) float64 {
	if v, ok := t.IndustryStability[industry]; ok {
		return v
	}
	return t.DefaultIndustryStability
}

// RegionRiskFor returns the region risk score with default fallback.
func (t *RiskTables) RegionRiskFor(region string) float64 {
	if v, ok := t.RegionRisk[region]; ok {
		return v
	}
	return t.DefaultRegionRisk
}

// RatingFactorFor returns the credit rating factor with default fallback.
func (t *RiskTables) RatingFactorFor(rating string) float64 {
	if v, ok := t.CreditRatings[rating]; ok {
		return v
	}
	return t.DefaultCreditRating
}
