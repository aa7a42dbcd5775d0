package scoring

import (
	"errors"
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func testSupplier() *domain.Supplier {
	return &domain.Supplier{
		ID:              "supplier-0042",
		Name:            "Global Manufacturing Ltd",
		Region:          "Asia-Pacific",
		Country:         "SG",
		Industry:        "Manufacturing",
		YearsInBusiness: 8,
		EmployeeCount:   150,
		CreditRating:    "A-",
		PredictedVolume: 2500000,
	}
}

func TestLeadScorer(t *testing.T) {
	scorer := NewLeadScorer(DefaultRiskTables(), NewRand(42))

	t.Run("score within bounds", func(t *testing.T) {
		lead, err := scorer.Score(testSupplier(), domain.LeadCriteria{})
		if err != nil {
			t.Fatalf("Score failed: %v", err)
		}
		if lead.Score < 0 || lead.Score > 100 {
			t.Errorf("score out of range: %d", lead.Score)
		}
		if lead.Confidence < 0.75 || lead.Confidence > 0.95 {
			t.Errorf("confidence out of range: %v", lead.Confidence)
		}
		for name, sub := range map[string]int{
			"volumePotential":   lead.Breakdown.VolumePotential,
			"creditworthiness":  lead.Breakdown.Creditworthiness,
			"geographicRisk":    lead.Breakdown.GeographicRisk,
			"industryStability": lead.Breakdown.IndustryStability,
			"businessMaturity":  lead.Breakdown.BusinessMaturity,
		} {
			if sub < 0 || sub > 100 {
				t.Errorf("%s out of range: %d", name, sub)
			}
		}
	})

	t.Run("next steps follow thresholds", func(t *testing.T) {
		steps := leadNextSteps(85)
		if steps[0] != "Immediate outreach with personalized proposal" {
			t.Errorf("unexpected high-score next step: %v", steps)
		}
		steps = leadNextSteps(70)
		if steps[0] != "Add to nurture campaign" {
			t.Errorf("unexpected mid-score next step: %v", steps)
		}
		steps = leadNextSteps(40)
		if steps[0] != "Monitor for improvement" {
			t.Errorf("unexpected low-score next step: %v", steps)
		}
	})

	t.Run("nil supplier rejected", func(t *testing.T) {
		_, err := scorer.Score(nil, domain.LeadCriteria{})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestLeadScorerDeterminism(t *testing.T) {
	a := NewLeadScorer(DefaultRiskTables(), NewRand(3))
	b := NewLeadScorer(DefaultRiskTables(), NewRand(3))

	criteria := domain.LeadCriteria{Regions: []string{"Asia-Pacific"}}
	for i := 0; i < 10; i++ {
		ra, err := a.Score(testSupplier(), criteria)
		if err != nil {
			t.Fatalf("Score failed: %v", err)
		}
		rb, err := b.Score(testSupplier(), criteria)
		if err != nil {
			t.Fatalf("Score failed: %v", err)
		}
		if ra.Score != rb.Score || ra.Breakdown != rb.Breakdown {
			t.Fatalf("same seed diverged at draw %d", i)
		}
	}
}

func TestEmployeeScale(t *testing.T) {
	tests := []struct {
		count int
		want  float64
	}{
		{1500, 1.0},
		{600, 0.8},
		{150, 0.6},
		{60, 0.4},
		{10, 0.2},
	}

	for _, tt := range tests {
		if got := employeeScale(tt.count); got != tt.want {
			t.Errorf("employeeScale(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestMatchBonus(t *testing.T) {
	if matchBonus("Europe", nil) != 1 {
		t.Error("empty criteria should be neutral")
	}
	if matchBonus("Europe", []string{"Europe", "Asia-Pacific"}) != 1 {
		t.Error("matching region should score 1")
	}
	if matchBonus("Africa", []string{"Europe"}) != 0 {
		t.Error("non-matching region should score 0")
	}
}
