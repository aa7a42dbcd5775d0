package domain

import "time"

// Compliance check statuses, ordered by severity (FAILED dominates).
const (
	CompliancePassed         = "PASSED"
	ComplianceReviewRequired = "REVIEW_REQUIRED"
	CompliancePending        = "PENDING"
	ComplianceFailed         = "FAILED"
)

// ComplianceSeverity ranks check statuses for overall-status rollup.
// Higher wins.
func ComplianceSeverity(status string) int {
	switch status {
	case ComplianceFailed:
		return 3
	case CompliancePending:
		return 2
	case ComplianceReviewRequired:
		return 1
	default:
		return 0
	}
}

// ComplianceResult is a full KYC/AML/UBO verification run for a supplier.
type ComplianceResult struct {
	SupplierID       string     `json:"supplierId"`
	TenantID         string     `json:"tenantId,omitempty"`
	Status           string     `json:"status"`
	Checks           Checks     `json:"checks"`
	OverallRiskScore int        `json:"overallRiskScore"`
	ProcessingTime   string     `json:"processingTime"`
	AuditTrail       AuditTrail `json:"auditTrail"`
	Recommendations  []string   `json:"recommendations"`
	VerifiedAt       time.Time  `json:"verifiedAt"`
}

// Checks groups the three verification checks.
type Checks struct {
	KYC KYCCheck `json:"kyc"`
	AML AMLCheck `json:"aml"`
	UBO UBOCheck `json:"ubo"`
}

// KYCCheck is the know-your-customer verification result.
type KYCCheck struct {
	Status     string     `json:"status"`
	Confidence float64    `json:"confidence"`
	VerifiedAt time.Time  `json:"verifiedAt"`
	Details    KYCDetails `json:"details"`
}

// KYCDetails holds KYC sub-check outcomes.
type KYCDetails struct {
	IdentityVerified bool   `json:"identityVerified"`
	AddressVerified  bool   `json:"addressVerified"`
	PhoneVerified    bool   `json:"phoneVerified"`
	EmailVerified    bool   `json:"emailVerified"`
	DocumentQuality  string `json:"documentQuality"` // GOOD, FAIR, POOR, INVALID
	BiometricMatch   bool   `json:"biometricMatch"`
	WatchlistMatch   bool   `json:"watchlistMatch"`
}

// AMLCheck is the anti-money-laundering screening result.
type AMLCheck struct {
	Status        string     `json:"status"`
	RiskLevel     string     `json:"riskLevel"`
	SanctionsMatch bool      `json:"sanctionsMatch"`
	PEPMatch      bool       `json:"pepMatch"`
	Details       AMLDetails `json:"details"`
}

// AMLDetails holds AML sub-screen outcomes.
type AMLDetails struct {
	SanctionsScreening  SanctionsScreening  `json:"sanctionsScreening"`
	PEPScreening        PEPScreening        `json:"pepScreening"`
	AdverseMedia        bool                `json:"adverseMedia"`
	TransactionPatterns TransactionPatterns `json:"transactionPatterns"`
	SourceOfFunds       SourceOfFunds       `json:"sourceOfFunds"`
}

// SanctionsScreening holds per-list sanctions hits.
type SanctionsScreening struct {
	OFAC bool `json:"ofac"`
	EU   bool `json:"eu"`
	UN   bool `json:"un"`
	UK   bool `json:"uk"`
}

// PEPScreening holds politically-exposed-person screen hits.
type PEPScreening struct {
	Global bool `json:"global"`
	EU     bool `json:"eu"`
	US     bool `json:"us"`
}

// TransactionPatterns summarizes observed transaction behavior.
type TransactionPatterns struct {
	AverageAmount      float64 `json:"averageAmount"`
	Frequency          string  `json:"frequency"`
	SuspiciousPatterns bool    `json:"suspiciousPatterns"`
	RiskScore          float64 `json:"riskScore"`
}

// SourceOfFunds describes the verified funding source.
type SourceOfFunds struct {
	Verified      bool   `json:"verified"`
	Source        string `json:"source"` // BUSINESS_INCOME, INVESTMENT, LOAN, OTHER
	Documentation bool   `json:"documentation"`
	RiskLevel     string `json:"riskLevel"`
}

// UBOCheck is the ultimate-beneficial-owner verification result.
type UBOCheck struct {
	Status             string            `json:"status"`
	OwnershipStructure string            `json:"ownershipStructure"` // SIMPLE, COMPLEX, MULTI_LAYER, TRUST
	BeneficialOwners   []BeneficialOwner `json:"beneficialOwners"`
	Confidence         float64           `json:"confidence"`
	Details            UBODetails        `json:"details"`
}

// BeneficialOwner is one identified owner in the UBO chain.
type BeneficialOwner struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Ownership float64 `json:"ownership"` // fraction 0..1
	Type      string  `json:"type"`      // INDIVIDUAL, CORPORATE, TRUST
	Verified  bool    `json:"verified"`
}

// UBODetails holds ownership-structure analysis.
type UBODetails struct {
	CorporateStructure    CorporateStructure    `json:"corporateStructure"`
	OwnershipTransparency OwnershipTransparency `json:"ownershipTransparency"`
	ControlAnalysis       ControlAnalysis       `json:"controlAnalysis"`
	UltimateBeneficiaries UltimateBeneficiaries `json:"ultimateBeneficiaries"`
}

// CorporateStructure describes the legal entity layering.
type CorporateStructure struct {
	Type         string  `json:"type"`         // LLC, CORP, PARTNERSHIP, OTHER
	Jurisdiction string  `json:"jurisdiction"` // US, UK, DE, SG, OTHER
	Complexity   string  `json:"complexity"`   // SIMPLE, MODERATE, COMPLEX, VERY_COMPLEX
	Transparency float64 `json:"transparency"`
}

// OwnershipTransparency scores how visible the ownership chain is.
type OwnershipTransparency struct {
	Score      float64  `json:"score"`
	Issues     []string `json:"issues"`
	Compliance bool     `json:"compliance"`
}

// ControlAnalysis describes who exercises control over the entity.
type ControlAnalysis struct {
	ControllingParties int     `json:"controllingParties"`
	ControlType        string  `json:"controlType"` // DIRECT, INDIRECT, JOINT
	Transparency       float64 `json:"transparency"`
}

// UltimateBeneficiaries summarizes the end of the ownership chain.
type UltimateBeneficiaries struct {
	Count     int    `json:"count"`
	Verified  bool   `json:"verified"`
	RiskLevel string `json:"riskLevel"`
}

// AuditTrail records what a verification run actually checked.
type AuditTrail struct {
	VerificationID string                `json:"verificationId"`
	Timestamp      time.Time             `json:"timestamp"`
	Checks         map[string]AuditCheck `json:"checks"`
	System         AuditSystem           `json:"system"`
}

// AuditCheck is a single audit-trail entry per check.
type AuditCheck struct {
	Performed  bool      `json:"performed"`
	Result     string    `json:"result"`
	Confidence float64   `json:"confidence,omitempty"`
	RiskLevel  string    `json:"riskLevel,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// AuditSystem identifies the engine run that produced a trail.
type AuditSystem struct {
	Version    string `json:"version"`
	Checksum   string `json:"checksum"`
	Compliance string `json:"compliance"`
}

// ComplianceStatus is the lightweight cached-status view.
type ComplianceStatus struct {
	SupplierID   string    `json:"supplierId"`
	Status       string    `json:"status"`
	RiskLevel    string    `json:"riskLevel"`
	LastVerified time.Time `json:"lastVerified"`
	NextReview   time.Time `json:"nextReview"`
	Flags        []string  `json:"flags"`
}
