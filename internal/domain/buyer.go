package domain

import "time"

// Buyer statuses.
const (
	BuyerActive   = "active"
	BuyerInactive = "inactive"
)

// Reservation statuses.
const (
	ReservationHeld      = "held"
	ReservationCommitted = "committed"
	ReservationReleased  = "released"
)

// BuyerProfile is an investor in the buyer book with preferences,
// deployable capacity, and historical performance.
type BuyerProfile struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenantId,omitempty"`
	Name        string           `json:"name"`
	Type        string           `json:"type"` // Institutional Investor, Specialized Fund, Private Equity, Bank
	Status      string           `json:"status"`
	Preferences BuyerPreferences `json:"preferences"`
	Capacity    BuyerCapacity    `json:"capacity"`
	Performance BuyerPerformance `json:"performance"`
}

// BuyerPreferences constrain which invoices a buyer will take.
type BuyerPreferences struct {
	MinAmount       float64  `json:"minAmount"`
	MaxAmount       float64  `json:"maxAmount"`
	Regions         []string `json:"regions"`
	Industries      []string `json:"industries"`
	MinQualityScore float64  `json:"minQualityScore"`
	MaxRiskLevel    string   `json:"maxRiskLevel"`
	PaymentTerms    []string `json:"paymentTerms"`
	Currencies      []string `json:"currencies"`
}

// BuyerCapacity tracks deployable funds. Available shrinks as
// reservations are held and Deployed grows as they commit.
type BuyerCapacity struct {
	Total     float64 `json:"total"`
	Available float64 `json:"available"`
	Deployed  float64 `json:"deployed"`
}

// BuyerPerformance holds historical return figures.
type BuyerPerformance struct {
	AverageReturn     float64 `json:"averageReturn"`
	DefaultRate       float64 `json:"defaultRate"`
	SatisfactionScore float64 `json:"satisfactionScore,omitempty"`
}

// Allocation assigns one invoice to one buyer.
type Allocation struct {
	InvoiceID      string  `json:"invoiceId"`
	BuyerID        string  `json:"buyerId"`
	BuyerName      string  `json:"buyerName"`
	MatchScore     float64 `json:"matchScore"`
	Amount         float64 `json:"amount"`
	Region         string  `json:"region,omitempty"`
	Industry       string  `json:"industry,omitempty"`
	ExpectedReturn float64 `json:"expectedReturn"`
	RiskScore      float64 `json:"riskScore"`
	Confidence     float64 `json:"confidence"`
	MatchReason    string  `json:"matchReason"`
	ReservationID  string  `json:"reservationId,omitempty"`
	Committed      bool    `json:"committed"`
}

// AllocationSummary aggregates portfolio-level figures over a batch of
// allocations.
type AllocationSummary struct {
	AverageMatchScore    float64 `json:"averageMatchScore"`
	DiversificationScore float64 `json:"diversificationScore"`
	RiskScore            float64 `json:"riskScore"`
	ExpectedReturn       float64 `json:"expectedReturn"`
}

// AllocationResult is a full matching run over a batch of invoices.
type AllocationResult struct {
	ID              string            `json:"id"`
	TenantID        string            `json:"tenantId,omitempty"`
	TotalInvoices   int               `json:"totalInvoices"`
	TotalValue      float64           `json:"totalValue"`
	Allocations     []Allocation      `json:"allocation"`
	Summary         AllocationSummary `json:"summary"`
	Recommendations []string          `json:"recommendations"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// Reservation is a capacity hold against a buyer, created inside a
// repository transaction and later committed or released.
type Reservation struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId,omitempty"`
	BuyerID   string    `json:"buyerId"`
	InvoiceID string    `json:"invoiceId"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
