package domain

import "time"

// Supplier statuses.
const (
	SupplierActive    = "active"
	SupplierPending   = "pending"
	SupplierSuspended = "suspended"
	SupplierInactive  = "inactive"
)

// Supplier is a trade-finance supplier record, either synthesized by the
// generator or loaded from the repository.
type Supplier struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenantId,omitempty"`
	Name            string    `json:"name"`
	Region          string    `json:"region"`
	Country         string    `json:"country"`
	Industry        string    `json:"industry"`
	YearsInBusiness int       `json:"yearsInBusiness"`
	EmployeeCount   int       `json:"employeeCount"`
	CreditRating    string    `json:"creditRating"`
	PredictedVolume float64   `json:"predictedVolume"`
	AIScore         int       `json:"aiScore"`
	Status          string    `json:"status"`
	LastUpdated     time.Time `json:"lastUpdated"`

	Contact      ContactInfo    `json:"contactInfo"`
	Business     BusinessInfo   `json:"businessInfo"`
	Financials   FinancialInfo  `json:"financialInfo"`
	Compliance   ComplianceInfo `json:"compliance"`
	TradeHistory TradeHistory   `json:"tradeHistory"`
}

// ContactInfo holds supplier contact details.
type ContactInfo struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
}

// BusinessInfo holds registration details.
type BusinessInfo struct {
	LegalName        string    `json:"legalName"`
	TaxID            string    `json:"taxId"`
	RegistrationDate time.Time `json:"registrationDate"`
	BusinessType     string    `json:"businessType"`
}

// FinancialInfo holds supplier financial indicators.
type FinancialInfo struct {
	AnnualRevenue float64 `json:"annualRevenue"`
	ProfitMargin  float64 `json:"profitMargin"`
	DebtToEquity  float64 `json:"debtToEquity"`
	CurrentRatio  float64 `json:"currentRatio"`
}

// ComplianceInfo holds the supplier's latest verification statuses.
type ComplianceInfo struct {
	KYCStatus    string    `json:"kycStatus"`
	AMLStatus    string    `json:"amlStatus"`
	UBOStatus    string    `json:"uboStatus"`
	LastVerified time.Time `json:"lastVerified"`
}

// TradeHistory summarizes the supplier's transaction track record.
type TradeHistory struct {
	TotalTransactions      int     `json:"totalTransactions"`
	AverageTransactionSize float64 `json:"averageTransactionSize"`
	PaymentHistory         float64 `json:"paymentHistory"` // 0..1
	DefaultRate            float64 `json:"defaultRate"`    // 0..1
}

// SupplierStats is the per-supplier trade-history summary backing fraud
// features. Synthetic when no persisted history exists.
type SupplierStats struct {
	SupplierID       string  `json:"supplierId"`
	AverageAmount    float64 `json:"averageAmount"`
	InvoiceCount     int64   `json:"invoiceCount"`
	RelationshipDays int64   `json:"relationshipDays"`
	NewRelationship  bool    `json:"newRelationship"`
	Synthetic        bool    `json:"synthetic"`
}
