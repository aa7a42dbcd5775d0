// Package compliance implements KYC, AML, and UBO verification with
// severity rollup, audit trails, and cached results.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/scoring"
)

// EngineVersion identifies the verification logic in audit trails.
const EngineVersion = "1.3.0"

// DefaultCacheTTL is how long verification results stay cached.
const DefaultCacheTTL = 24 * time.Hour

// DefaultMaxWorkers bounds bulk-verify fan-out.
const DefaultMaxWorkers = 8

// SanctionsLists screened during AML checks.
var SanctionsLists = []string{"OFAC", "EU", "UN", "UK"}

var checkStatuses = []string{
	domain.CompliancePassed,
	domain.ComplianceReviewRequired,
	domain.ComplianceFailed,
	domain.CompliancePending,
}

var amlRiskLevels = []string{
	domain.RiskLow, domain.RiskMedium, domain.RiskHigh, domain.RiskVeryHigh,
}

// Engine runs the three verification checks concurrently. Check
// outcomes are drawn from the injected source until the provider
// integrations land, so a fixed seed replays a full verification run.
type Engine struct {
	repo       domain.Repository
	cache      domain.Cache
	rnd        *scoring.Rand
	cacheTTL   time.Duration
	maxWorkers int
}

// NewEngine creates a compliance engine. repo and cache may be nil.
func NewEngine(repo domain.Repository, cache domain.Cache, rnd *scoring.Rand) *Engine {
	return &Engine{
		repo:       repo,
		cache:      cache,
		rnd:        rnd,
		cacheTTL:   DefaultCacheTTL,
		maxWorkers: DefaultMaxWorkers,
	}
}

// Verify runs a full verification for a supplier. Cached results are
// returned unless forceRefresh is set.
func (e *Engine) Verify(ctx context.Context, tenantID, supplierID string, forceRefresh bool) (*domain.ComplianceResult, error) {
	if supplierID == "" {
		return nil, fmt.Errorf("%w: supplierID is required", domain.ErrInvalidInput)
	}

	if !forceRefresh && e.cache != nil {
		cached, err := e.cache.GetCompliance(ctx, tenantID, supplierID)
		if err != nil {
			slog.Warn("compliance cache read failed", "supplier_id", supplierID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	started := time.Now()

	// The three checks are independent, run them concurrently.
	var (
		wg  sync.WaitGroup
		kyc domain.KYCCheck
		aml domain.AMLCheck
		ubo domain.UBOCheck
	)
	wg.Add(3)
	go func() { defer wg.Done(); kyc = e.performKYC() }()
	go func() { defer wg.Done(); aml = e.performAML() }()
	go func() { defer wg.Done(); ubo = e.performUBO() }()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &domain.ComplianceResult{
		SupplierID:       supplierID,
		TenantID:         tenantID,
		Status:           overallStatus(kyc.Status, aml.Status, ubo.Status),
		Checks:           domain.Checks{KYC: kyc, AML: aml, UBO: ubo},
		OverallRiskScore: overallRiskScore(kyc, aml, ubo),
		ProcessingTime:   fmt.Sprintf("%dms", time.Since(started).Milliseconds()),
		AuditTrail:       e.auditTrail(supplierID, kyc, aml, ubo),
		Recommendations:  recommendations(kyc, aml, ubo),
		VerifiedAt:       time.Now(),
	}

	if e.cache != nil {
		if err := e.cache.SetCompliance(ctx, tenantID, supplierID, result, e.cacheTTL); err != nil {
			slog.Warn("compliance cache write failed", "supplier_id", supplierID, "error", err)
		}
	}
	if e.repo != nil {
		if err := e.repo.SaveComplianceResult(ctx, tenantID, result); err != nil {
			slog.Error("failed to persist compliance result", "supplier_id", supplierID, "error", err)
		}
	}

	return result, nil
}

// Status returns the cached or last persisted verification status
// without recomputing.
func (e *Engine) Status(ctx context.Context, tenantID, supplierID string) (*domain.ComplianceStatus, error) {
	if supplierID == "" {
		return nil, fmt.Errorf("%w: supplierID is required", domain.ErrInvalidInput)
	}

	var result *domain.ComplianceResult
	if e.cache != nil {
		cached, err := e.cache.GetCompliance(ctx, tenantID, supplierID)
		if err != nil {
			slog.Warn("compliance cache read failed", "supplier_id", supplierID, "error", err)
		} else {
			result = cached
		}
	}
	if result == nil && e.repo != nil {
		persisted, err := e.repo.GetLatestComplianceResult(ctx, tenantID, supplierID)
		if err == nil {
			result = persisted
		}
	}
	if result == nil {
		return nil, fmt.Errorf("%w: no verification on record for %s", domain.ErrUnknownEntity, supplierID)
	}

	return &domain.ComplianceStatus{
		SupplierID:   supplierID,
		Status:       result.Status,
		RiskLevel:    result.Checks.AML.RiskLevel,
		LastVerified: result.VerifiedAt,
		NextReview:   result.VerifiedAt.AddDate(0, 0, 30),
		Flags:        statusFlags(result),
	}, nil
}

// BulkVerify fans verification out over a bounded worker pool and
// returns results in input order.
func (e *Engine) BulkVerify(ctx context.Context, tenantID string, supplierIDs []string) ([]*domain.ComplianceResult, error) {
	if len(supplierIDs) == 0 {
		return nil, fmt.Errorf("%w: supplierIds array is required", domain.ErrInvalidInput)
	}

	results := make([]*domain.ComplianceResult, len(supplierIDs))
	errs := make([]error, len(supplierIDs))
	sem := make(chan struct{}, e.maxWorkers)
	var wg sync.WaitGroup

	for i, id := range supplierIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, supplierID string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx], errs[idx] = e.Verify(ctx, tenantID, supplierID, false)
		}(i, id)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (e *Engine) performKYC() domain.KYCCheck {
	status := e.rnd.Weighted(checkStatuses, []float64{0.85, 0.10, 0.03, 0.02})
	return domain.KYCCheck{
		Status:     status,
		Confidence: round2(e.rnd.Between(0.75, 0.95)),
		VerifiedAt: time.Now(),
		Details: domain.KYCDetails{
			IdentityVerified: e.rnd.Float64() > 0.1,
			AddressVerified:  e.rnd.Float64() > 0.15,
			PhoneVerified:    e.rnd.Float64() > 0.2,
			EmailVerified:    e.rnd.Float64() > 0.1,
			DocumentQuality:  e.rnd.Weighted([]string{"GOOD", "FAIR", "POOR", "INVALID"}, []float64{0.7, 0.2, 0.08, 0.02}),
			BiometricMatch:   e.rnd.Float64() > 0.05,
			WatchlistMatch:   e.rnd.Float64() > 0.95,
		},
	}
}

func (e *Engine) performAML() domain.AMLCheck {
	status := e.rnd.Weighted(checkStatuses, []float64{0.92, 0.05, 0.02, 0.01})
	return domain.AMLCheck{
		Status:         status,
		RiskLevel:      e.rnd.Weighted(amlRiskLevels, []float64{0.6, 0.25, 0.12, 0.03}),
		SanctionsMatch: e.rnd.Float64() > 0.98,
		PEPMatch:       e.rnd.Float64() > 0.95,
		Details: domain.AMLDetails{
			SanctionsScreening: domain.SanctionsScreening{
				OFAC: e.rnd.Float64() > 0.99,
				EU:   e.rnd.Float64() > 0.99,
				UN:   e.rnd.Float64() > 0.99,
				UK:   e.rnd.Float64() > 0.99,
			},
			PEPScreening: domain.PEPScreening{
				Global: e.rnd.Float64() > 0.96,
				EU:     e.rnd.Float64() > 0.97,
				US:     e.rnd.Float64() > 0.98,
			},
			AdverseMedia: e.rnd.Float64() > 0.9,
			TransactionPatterns: domain.TransactionPatterns{
				AverageAmount:      500000 + e.rnd.Float64()*2000000,
				Frequency:          "monthly",
				SuspiciousPatterns: e.rnd.Float64() > 0.9,
				RiskScore:          e.rnd.Float64() * 30,
			},
			SourceOfFunds: domain.SourceOfFunds{
				Verified:      e.rnd.Float64() > 0.1,
				Source:        e.rnd.Weighted([]string{"BUSINESS_INCOME", "INVESTMENT", "LOAN", "OTHER"}, []float64{0.4, 0.3, 0.2, 0.1}),
				Documentation: e.rnd.Float64() > 0.15,
				RiskLevel:     e.rnd.Weighted(amlRiskLevels, []float64{0.6, 0.25, 0.12, 0.03}),
			},
		},
	}
}

func (e *Engine) performUBO() domain.UBOCheck {
	status := e.rnd.Weighted(checkStatuses, []float64{0.89, 0.08, 0.02, 0.01})

	ownerCount := 1 + e.rnd.IntN(3)
	owners := make([]domain.BeneficialOwner, 0, ownerCount)
	for i := 1; i <= ownerCount; i++ {
		owners = append(owners, domain.BeneficialOwner{
			ID:        fmt.Sprintf("owner-%d", i),
			Name:      fmt.Sprintf("Owner %d", i),
			Ownership: round2(e.rnd.Between(0.1, 0.7)),
			Type:      e.rnd.Weighted([]string{"INDIVIDUAL", "CORPORATE", "TRUST"}, []float64{0.7, 0.2, 0.1}),
			Verified:  e.rnd.Float64() > 0.1,
		})
	}

	var issues []string
	if e.rnd.Float64() > 0.8 {
		issues = []string{"NOMINEE_SHARES", "BEARER_SHARES"}
	}

	return domain.UBOCheck{
		Status:             status,
		OwnershipStructure: e.rnd.Pick([]string{"SIMPLE", "COMPLEX", "MULTI_LAYER", "TRUST"}),
		BeneficialOwners:   owners,
		Confidence:         round2(e.rnd.Between(0.70, 0.95)),
		Details: domain.UBODetails{
			CorporateStructure: domain.CorporateStructure{
				Type:         e.rnd.Weighted([]string{"LLC", "CORP", "PARTNERSHIP", "OTHER"}, []float64{0.4, 0.3, 0.2, 0.1}),
				Jurisdiction: e.rnd.Weighted([]string{"US", "UK", "DE", "SG", "OTHER"}, []float64{0.3, 0.25, 0.2, 0.15, 0.1}),
				Complexity:   e.rnd.Weighted([]string{"SIMPLE", "MODERATE", "COMPLEX", "VERY_COMPLEX"}, []float64{0.5, 0.3, 0.15, 0.05}),
				Transparency: round2(e.rnd.Between(0.6, 1.0)),
			},
			OwnershipTransparency: domain.OwnershipTransparency{
				Score:      math.Round(e.rnd.Between(60, 100)),
				Issues:     issues,
				Compliance: e.rnd.Float64() > 0.1,
			},
			ControlAnalysis: domain.ControlAnalysis{
				ControllingParties: 1 + e.rnd.IntN(2),
				ControlType:        e.rnd.Weighted([]string{"DIRECT", "INDIRECT", "JOINT"}, []float64{0.6, 0.3, 0.1}),
				Transparency:       round2(e.rnd.Between(0.7, 1.0)),
			},
			UltimateBeneficiaries: domain.UltimateBeneficiaries{
				Count:     1 + e.rnd.IntN(2),
				Verified:  e.rnd.Float64() > 0.15,
				RiskLevel: e.rnd.Weighted(amlRiskLevels, []float64{0.7, 0.2, 0.08, 0.02}),
			},
		},
	}
}

// overallStatus rolls up check statuses by severity. FAILED dominates,
// then PENDING, then REVIEW_REQUIRED.
func overallStatus(statuses ...string) string {
	overall := domain.CompliancePassed
	for _, s := range statuses {
		if domain.ComplianceSeverity(s) > domain.ComplianceSeverity(overall) {
			overall = s
		}
	}
	return overall
}

var amlRiskMultiplier = map[string]float64{
	domain.RiskLow:      0.1,
	domain.RiskMedium:   0.3,
	domain.RiskHigh:     0.6,
	domain.RiskVeryHigh: 0.9,
}

func overallRiskScore(kyc domain.KYCCheck, aml domain.AMLCheck, ubo domain.UBOCheck) int {
	score := 0.0

	switch kyc.Status {
	case domain.ComplianceFailed:
		score += 50
	case domain.ComplianceReviewRequired:
		score += 25
	default:
		score += (1 - kyc.Confidence) * 20
	}

	switch aml.Status {
	case domain.ComplianceFailed:
		score += 60
	case domain.ComplianceReviewRequired:
		score += 30
	default:
		score += amlRiskMultiplier[aml.RiskLevel] * 40
	}

	switch ubo.Status {
	case domain.ComplianceFailed:
		score += 50
	case domain.ComplianceReviewRequired:
		score += 25
	default:
		score += (1 - ubo.Confidence) * 20
	}

	return int(math.Min(100, math.Round(score)))
}

func (e *Engine) auditTrail(supplierID string, kyc domain.KYCCheck, aml domain.AMLCheck, ubo domain.UBOCheck) domain.AuditTrail {
	now := time.Now()
	id := uuid.New().String()
	return domain.AuditTrail{
		VerificationID: id,
		Timestamp:      now,
		Checks: map[string]domain.AuditCheck{
			"kyc": {Performed: true, Result: kyc.Status, Confidence: kyc.Confidence, Timestamp: now},
			"aml": {Performed: true, Result: aml.Status, RiskLevel: aml.RiskLevel, Timestamp: now},
			"ubo": {Performed: true, Result: ubo.Status, Confidence: ubo.Confidence, Timestamp: now},
		},
		System: domain.AuditSystem{
			Version:    EngineVersion,
			Checksum:   checksum(supplierID, now),
			Compliance: "REGULATORY_COMPLIANT",
		},
	}
}

// checksum builds the audit-trail integrity token CHK_<id>_<base36 ms>.
func checksum(supplierID string, ts time.Time) string {
	return "CHK_" + supplierID + "_" + strings.ToUpper(strconv.FormatInt(ts.UnixMilli(), 36))
}

func recommendations(kyc domain.KYCCheck, aml domain.AMLCheck, ubo domain.UBOCheck) []string {
	var recs []string
	if kyc.Status == domain.ComplianceReviewRequired {
		recs = append(recs, "Additional KYC documentation required")
	}
	if aml.RiskLevel == domain.RiskHigh || aml.RiskLevel == domain.RiskVeryHigh {
		recs = append(recs, "Enhanced due diligence recommended for AML risk")
	}
	if ubo.Status == domain.ComplianceReviewRequired {
		recs = append(recs, "UBO structure requires clarification")
	}
	if kyc.Confidence < 0.8 {
		recs = append(recs, "KYC confidence below threshold - consider re-verification")
	}
	if ubo.Confidence < 0.8 {
		recs = append(recs, "UBO confidence below threshold - additional documentation needed")
	}
	if len(recs) == 0 {
		recs = []string{"All compliance checks passed"}
	}
	return recs
}

func statusFlags(result *domain.ComplianceResult) []string {
	flags := []string{}
	if result.Checks.AML.PEPMatch {
		flags = append(flags, "PEP_MATCH")
	}
	if result.Checks.AML.SanctionsMatch {
		flags = append(flags, "SANCTIONS_MATCH")
	}
	if result.Checks.KYC.Details.WatchlistMatch {
		flags = append(flags, "WATCHLIST_MATCH")
	}
	return flags
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
