package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

var netTermsPattern = regexp.MustCompile(`Net\s+(\d+)`)

// Invoice is a receivable submitted for analysis or allocation.
type Invoice struct {
	ID              string         `json:"id"`
	TenantID        string         `json:"tenantId,omitempty"`
	SupplierID      string         `json:"supplierId"`
	DebtorID        string         `json:"debtorId"`
	Amount          float64        `json:"amount"`
	Currency        string         `json:"currency"`
	SupplierCountry string         `json:"supplierCountry,omitempty"`
	DebtorCountry   string         `json:"debtorCountry,omitempty"`
	Region          string         `json:"region,omitempty"`
	Industry        string         `json:"industry,omitempty"`
	PaymentTerms    string         `json:"paymentTerms,omitempty"` // e.g. "Net 30"
	IssueDate       time.Time      `json:"issueDate"`
	DueDate         time.Time      `json:"dueDate"`
	QualityScore    float64        `json:"qualityScore,omitempty"`
	RiskLevel       string         `json:"riskLevel,omitempty"`
	CreatedAt       time.Time      `json:"createdAt,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Validate checks required fields. Missing identifiers, non-positive
// amounts, and inverted date ranges are rejected rather than defaulted.
func (inv *Invoice) Validate() error {
	if inv.SupplierID == "" {
		return fmt.Errorf("%w: supplierId is required", ErrInvalidInput)
	}
	if inv.DebtorID == "" {
		return fmt.Errorf("%w: debtorId is required", ErrInvalidInput)
	}
	if inv.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if inv.IssueDate.IsZero() {
		return fmt.Errorf("%w: issueDate is required", ErrInvalidInput)
	}
	if inv.DueDate.IsZero() {
		return fmt.Errorf("%w: dueDate is required", ErrInvalidInput)
	}
	if inv.DueDate.Before(inv.IssueDate) {
		return fmt.Errorf("%w: dueDate precedes issueDate", ErrInvalidInput)
	}
	return nil
}

// TermDays parses the numeric day count out of payment terms like
// "Net 30". Unparseable terms default to 30.
func (inv *Invoice) TermDays() int {
	m := netTermsPattern.FindStringSubmatch(inv.PaymentTerms)
	if len(m) == 2 {
		if days, err := strconv.Atoi(m[1]); err == nil {
			return days
		}
	}
	return 30
}

// AgeDays is the issue-to-due span in days, rounded up.
func (inv *Invoice) AgeDays() int {
	return int(math.Ceil(inv.DueDate.Sub(inv.IssueDate).Hours() / 24))
}

// DaysToDue is the span from now until the due date in days, rounded up.
func (inv *Invoice) DaysToDue(now time.Time) int {
	return int(math.Ceil(inv.DueDate.Sub(now).Hours() / 24))
}

// WeekendIssued reports whether the invoice was issued on a Saturday or
// Sunday.
func (inv *Invoice) WeekendIssued() bool {
	wd := inv.IssueDate.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// CrossBorder reports whether supplier and debtor countries differ.
func (inv *Invoice) CrossBorder() bool {
	return inv.SupplierCountry != "" && inv.DebtorCountry != "" &&
		inv.SupplierCountry != inv.DebtorCountry
}
