package domain

import "time"

// Analysis types accepted by the receivables pipeline.
const (
	AnalysisFull   = "full"
	AnalysisCredit = "credit"
	AnalysisFraud  = "fraud"
)

// Investment recommendations for analyzed invoices.
const (
	GradeBuy  = "BUY"
	GradeSkip = "SKIP"
)

// InvoiceAssessment is the per-invoice output of a receivable analysis.
type InvoiceAssessment struct {
	InvoiceID       string            `json:"invoiceId"`
	Amount          float64           `json:"amount"`
	Currency        string            `json:"currency"`
	SupplierID      string            `json:"supplierId"`
	DebtorID        string            `json:"debtorId"`
	DueDate         time.Time         `json:"dueDate"`
	AnalysisType    string            `json:"analysisType"`
	CreditRisk      *CreditAssessment `json:"creditRisk,omitempty"`
	FraudRisk       *FraudAssessment  `json:"fraudRisk,omitempty"`
	Screening       []RuleResult      `json:"screening,omitempty"`
	QualityScore    float64           `json:"qualityScore,omitempty"`
	InvestmentGrade bool              `json:"investmentGrade"`
	Recommendation  string            `json:"recommendation,omitempty"`
}

// ReceivableAnalysis aggregates a batch of invoice assessments.
type ReceivableAnalysis struct {
	ID                  string              `json:"id"`
	TenantID            string              `json:"tenantId,omitempty"`
	AnalysisType        string              `json:"analysisType"`
	TotalAnalyzed       int                 `json:"totalAnalyzed"`
	InvestmentGrade     int                 `json:"investmentGrade"`
	AverageQualityScore float64             `json:"averageQualityScore"`
	Results             []InvoiceAssessment `json:"results"`
	Timestamp           time.Time           `json:"timestamp"`
	Metadata            AnalysisMetadata    `json:"metadata"`
}

// AnalysisMetadata carries run-level diagnostics.
type AnalysisMetadata struct {
	TraceID        string `json:"traceId,omitempty"`
	ProcessingMs   int64  `json:"processingMs"`
	RulesEvaluated int    `json:"rulesEvaluated"`
	EngineVersion  string `json:"engineVersion,omitempty"`
}
