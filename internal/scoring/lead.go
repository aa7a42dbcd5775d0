package scoring

import (
	"math"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Lead sub-score weights. They sum to 1.
const (
	weightVolumePotential   = 0.30
	weightCreditworthiness  = 0.25
	weightGeographicRisk    = 0.20
	weightIndustryStability = 0.15
	weightBusinessMaturity  = 0.10
)

// LeadScorer ranks suppliers as origination leads against target criteria.
type LeadScorer struct {
	tables *RiskTables
	rnd    *Rand
}

// NewLeadScorer creates a lead scorer over the given tables and source.
func NewLeadScorer(tables *RiskTables, rnd *Rand) *LeadScorer {
	return &LeadScorer{tables: tables, rnd: rnd}
}

// Score computes a lead score for a supplier. Criteria may be zero-valued,
// in which case region/industry/volume matching bonuses are neutral.
func (s *LeadScorer) Score(supplier *domain.Supplier, criteria domain.LeadCriteria) (*domain.LeadScore, error) {
	if supplier == nil || supplier.ID == "" {
		return nil, domain.ErrInvalidInput
	}

	volume := s.volumePotential(supplier)
	credit := s.creditworthiness(supplier)
	geo := s.geographicRisk(supplier, criteria)
	industry := s.industryStability(supplier, criteria)
	maturity := s.businessMaturity(supplier)

	overall := float64(volume)*weightVolumePotential +
		float64(credit)*weightCreditworthiness +
		float64(geo)*weightGeographicRisk +
		float64(industry)*weightIndustryStability +
		float64(maturity)*weightBusinessMaturity
	overallScore := int(clamp(math.Round(overall), 0, 100))

	return &domain.LeadScore{
		SupplierID: supplier.ID,
		Score:      overallScore,
		Breakdown: domain.LeadBreakdown{
			VolumePotential:   volume,
			Creditworthiness:  credit,
			GeographicRisk:    geo,
			IndustryStability: industry,
			BusinessMaturity:  maturity,
		},
		Confidence:      round2(s.rnd.Between(0.75, 0.95)),
		Recommendations: leadRecommendations(volume, credit, geo, industry, maturity),
		NextSteps:       leadNextSteps(overallScore),
	}, nil
}

func (s *LeadScorer) volumePotential(supplier *domain.Supplier) int {
	growthRate := s.rnd.Between(-0.1, 0.2)
	seasonality := s.rnd.Between(0.7, 1.0)

	score := (supplier.PredictedVolume/1000000)*20 +
		growthRate*15 +
		seasonality*10 +
		s.rnd.Float64()*10
	return subScore(score)
}

func (s *LeadScorer) creditworthiness(supplier *domain.Supplier) int {
	factor := s.tables.RatingFactorFor(supplier.CreditRating)

	score := factor*25 +
		math.Min(float64(supplier.YearsInBusiness)*3, 30) +
		math.Min(float64(supplier.EmployeeCount)/10, 20) +
		s.rnd.Float64()*15
	return subScore(score)
}

func (s *LeadScorer) geographicRisk(supplier *domain.Supplier, criteria domain.LeadCriteria) int {
	risk := s.tables.RegionRiskFor(supplier.Region)
	match := matchBonus(supplier.Region, criteria.Regions)

	score := (100 - risk) + match*20 + s.rnd.Float64()*10
	return subScore(score)
}

func (s *LeadScorer) industryStability(supplier *domain.Supplier, criteria domain.LeadCriteria) int {
	stability := s.tables.IndustryStabilityFor(supplier.Industry)
	match := matchBonus(supplier.Industry, criteria.Industries)

	score := stability*30 + match*25 + s.rnd.Float64()*15
	return subScore(score)
}

func (s *LeadScorer) businessMaturity(supplier *domain.Supplier) int {
	score := math.Min(float64(supplier.YearsInBusiness)*4, 40) +
		employeeScale(supplier.EmployeeCount)*20 +
		s.rnd.Float64()*20
	return subScore(score)
}

// matchBonus is 1 when the value matches the criteria list or no
// criteria were given, 0 otherwise.
func matchBonus(value string, wanted []string) float64 {
	if len(wanted) == 0 {
		return 1
	}
	for _, w := range wanted {
		if w == value {
			return 1
		}
	}
	return 0
}

func employeeScale(count int) float64 {
	switch {
	case count > 1000:
		return 1.0
	case count > 500:
		return 0.8
	case count > 100:
		return 0.6
	case count > 50:
		return 0.4
	default:
		return 0.2
	}
}

func subScore(v float64) int {
	return int(math.Round(clamp(v, 0, 100)))
}

func leadRecommendations(volume, credit, geo, industry, maturity int) []string {
	var recs []string
	if volume > 80 {
		recs = append(recs, "High volume potential - prioritize for outreach")
	}
	if credit < 70 {
		recs = append(recs, "Creditworthiness concerns - additional verification needed")
	}
	if geo < 60 {
		recs = append(recs, "Geographic risk - consider hedging strategies")
	}
	if industry < 70 {
		recs = append(recs, "Industry volatility - monitor market conditions")
	}
	if maturity < 60 {
		recs = append(recs, "Newer business - require additional documentation")
	}
	return recs
}

func leadNextSteps(score int) []string {
	switch {
	case score > 80:
		return []string{
			"Immediate outreach with personalized proposal",
			"Schedule discovery call within 48 hours",
		}
	case score > 60:
		return []string{
			"Add to nurture campaign",
			"Follow up in 2 weeks",
		}
	default:
		return []string{
			"Monitor for improvement",
			"Re-evaluate in 30 days",
		}
	}
}
