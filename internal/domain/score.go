package domain

// Risk levels shared by the credit scorer and matching engine.
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskVeryHigh = "VERY_HIGH"
)

// Fraud risk tiers.
const (
	FraudMinimal = "MINIMAL"
	FraudLow     = "LOW"
	FraudMedium  = "MEDIUM"
	FraudHigh    = "HIGH"
)

// Credit recommendations.
const (
	RecommendStrongBuy      = "STRONG_BUY"
	RecommendBuy            = "BUY"
	RecommendConditionalBuy = "CONDITIONAL_BUY"
	RecommendHold           = "HOLD"
	RecommendAvoid          = "AVOID"
)

// Fraud recommendations.
const (
	RecommendImmediateReview    = "IMMEDIATE_REVIEW"
	RecommendManualVerification = "MANUAL_VERIFICATION"
	RecommendMonitor            = "MONITOR"
	RecommendApprove            = "APPROVE"
)

// CreditAssessment is the credit-risk scorer output for a single invoice.
type CreditAssessment struct {
	Score          float64       `json:"score"`
	Probability    float64       `json:"probability"` // default probability
	RiskLevel      string        `json:"riskLevel"`
	Factors        []FactorScore `json:"factors"`
	Confidence     float64       `json:"confidence"`
	Recommendation string        `json:"recommendation"`
}

// FactorScore is one weighted component of a credit assessment.
type FactorScore struct {
	Factor string  `json:"factor"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
	Impact string  `json:"impact"`
}

// FraudAssessment is the fraud detector output for a single invoice.
type FraudAssessment struct {
	Score          float64  `json:"score"`
	RiskLevel      string   `json:"riskLevel"`
	Flags          []string `json:"flags"`
	Reasons        []string `json:"reasons"`
	Confidence     float64  `json:"confidence"`
	Recommendation string   `json:"recommendation"`
}

// LeadScore is the supplier lead-scoring output.
type LeadScore struct {
	SupplierID      string         `json:"supplierId"`
	Score           int            `json:"score"`
	Breakdown       LeadBreakdown  `json:"breakdown"`
	Confidence      float64        `json:"confidence"`
	Recommendations []string       `json:"recommendations"`
	NextSteps       []string       `json:"nextSteps"`
}

// LeadBreakdown holds the five lead sub-scores.
type LeadBreakdown struct {
	VolumePotential   int `json:"volumePotential"`
	Creditworthiness  int `json:"creditworthiness"`
	GeographicRisk    int `json:"geographicRisk"`
	IndustryStability int `json:"industryStability"`
	BusinessMaturity  int `json:"businessMaturity"`
}

// LeadCriteria narrows lead scoring to an origination target profile.
type LeadCriteria struct {
	Regions    []string `json:"regions,omitempty"`
	Industries []string `json:"industries,omitempty"`
	MinVolume  float64  `json:"minVolume,omitempty"`
	MaxVolume  float64  `json:"maxVolume,omitempty"`
}
