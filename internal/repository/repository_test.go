package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func newTestRepo(t *testing.T) domain.Repository {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "kestrel-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func testDBSupplier(id string) *domain.Supplier {
	return &domain.Supplier{
		ID:              id,
		Name:            "Pacific Global Manufacturing Ltd",
		Region:          "Asia-Pacific",
		Country:         "SG",
		Industry:        "Manufacturing",
		YearsInBusiness: 8,
		EmployeeCount:   150,
		CreditRating:    "A-",
		PredictedVolume: 2500000,
		AIScore:         87,
		Status:          domain.SupplierActive,
		LastUpdated:     time.Now().UTC(),
		Contact: domain.ContactInfo{
			Email:   "contact1@supplier1.com",
			Phone:   "+65 12345678",
			Website: "https://supplier1.com",
		},
		Business: domain.BusinessInfo{
			LegalName:        "Pacific Global Manufacturing Ltd",
			TaxID:            "SG123456789",
			RegistrationDate: time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC),
			BusinessType:     "Corporation",
		},
		Financials: domain.FinancialInfo{
			AnnualRevenue: 12000000,
			ProfitMargin:  0.12,
			DebtToEquity:  0.45,
			CurrentRatio:  1.8,
		},
		Compliance: domain.ComplianceInfo{
			KYCStatus:    domain.CompliancePassed,
			AMLStatus:    domain.CompliancePassed,
			UBOStatus:    domain.CompliancePassed,
			LastVerified: time.Now().UTC().AddDate(0, 0, -10),
		},
		TradeHistory: domain.TradeHistory{
			TotalTransactions:      45,
			AverageTransactionSize: 180000,
			PaymentHistory:         0.94,
			DefaultRate:            0.01,
		},
	}
}

func testDBInvoice(id, supplierID string, amount float64) *domain.Invoice {
	issue := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return &domain.Invoice{
		ID:              id,
		SupplierID:      supplierID,
		DebtorID:        "debtor-0001",
		Amount:          amount,
		Currency:        "USD",
		SupplierCountry: "SG",
		DebtorCountry:   "US",
		Region:          "Asia-Pacific",
		Industry:        "Manufacturing",
		PaymentTerms:    "Net 30",
		IssueDate:       issue,
		DueDate:         issue.AddDate(0, 0, 30),
		CreatedAt:       time.Now().UTC(),
		Metadata:        map[string]any{"source": "api"},
	}
}

func TestSupplierPersistence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	tenantID := "tenant-001"

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		supplier := testDBSupplier("supplier-0001")
		if err := repo.SaveSupplier(ctx, tenantID, supplier); err != nil {
			t.Fatalf("SaveSupplier failed: %v", err)
		}

		retrieved, err := repo.GetSupplier(ctx, tenantID, supplier.ID)
		if err != nil {
			t.Fatalf("GetSupplier failed: %v", err)
		}
		if retrieved.Name != supplier.Name {
			t.Errorf("expected Name %s, got %s", supplier.Name, retrieved.Name)
		}
		if retrieved.TradeHistory.TotalTransactions != 45 {
			t.Errorf("expected 45 transactions, got %d", retrieved.TradeHistory.TotalTransactions)
		}
		if retrieved.Contact.Email != supplier.Contact.Email {
			t.Errorf("expected email %s, got %s", supplier.Contact.Email, retrieved.Contact.Email)
		}
		if retrieved.TenantID != tenantID {
			t.Errorf("expected TenantID %s, got %s", tenantID, retrieved.TenantID)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		supplier := testDBSupplier("supplier-0001")
		supplier.AIScore = 93
		if err := repo.SaveSupplier(ctx, tenantID, supplier); err != nil {
			t.Fatalf("SaveSupplier upsert failed: %v", err)
		}

		retrieved, err := repo.GetSupplier(ctx, tenantID, supplier.ID)
		if err != nil {
			t.Fatalf("GetSupplier failed: %v", err)
		}
		if retrieved.AIScore != 93 {
			t.Errorf("expected updated AIScore 93, got %d", retrieved.AIScore)
		}
	})

	t.Run("TenantIsolation", func(t *testing.T) {
		_, err := repo.GetSupplier(ctx, "tenant-002", "supplier-0001")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound for different tenant, got: %v", err)
		}
	})

	t.Run("RequiresTenantID", func(t *testing.T) {
		if err := repo.SaveSupplier(ctx, "", testDBSupplier("supplier-x")); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got: %v", err)
		}
		if _, err := repo.GetSupplier(ctx, "", "supplier-0001"); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got: %v", err)
		}
	})

	t.Run("ListWithFilters", func(t *testing.T) {
		other := testDBSupplier("supplier-0002")
		other.Region = "Europe"
		other.Industry = "Technology"
		other.PredictedVolume = 500000
		other.AIScore = 95
		if err := repo.SaveSupplier(ctx, tenantID, other); err != nil {
			t.Fatalf("SaveSupplier failed: %v", err)
		}

		all, total, err := repo.ListSuppliers(ctx, tenantID, domain.SupplierFilter{})
		if err != nil {
			t.Fatalf("ListSuppliers failed: %v", err)
		}
		if total != 2 || len(all) != 2 {
			t.Fatalf("expected 2 suppliers, got %d (total %d)", len(all), total)
		}
		if all[0].AIScore < all[1].AIScore {
			t.Error("suppliers should be ordered by AI score descending")
		}

		europe, total, err := repo.ListSuppliers(ctx, tenantID, domain.SupplierFilter{Region: "Europe"})
		if err != nil {
			t.Fatalf("ListSuppliers failed: %v", err)
		}
		if total != 1 || len(europe) != 1 || europe[0].ID != "supplier-0002" {
			t.Errorf("region filter returned wrong set: %d results, total %d", len(europe), total)
		}

		highVolume, _, err := repo.ListSuppliers(ctx, tenantID, domain.SupplierFilter{MinVolume: 1000000})
		if err != nil {
			t.Fatalf("ListSuppliers failed: %v", err)
		}
		if len(highVolume) != 1 || highVolume[0].ID != "supplier-0001" {
			t.Errorf("minVolume filter returned wrong set: %d results", len(highVolume))
		}
	})

	t.Run("Pagination", func(t *testing.T) {
		page1, total, err := repo.ListSuppliers(ctx, tenantID, domain.SupplierFilter{Page: 1, Limit: 1})
		if err != nil {
			t.Fatalf("ListSuppliers failed: %v", err)
		}
		if total != 2 {
			t.Errorf("total should count all matches, got %d", total)
		}
		if len(page1) != 1 {
			t.Fatalf("expected 1 supplier on page 1, got %d", len(page1))
		}

		page2, _, err := repo.ListSuppliers(ctx, tenantID, domain.SupplierFilter{Page: 2, Limit: 1})
		if err != nil {
			t.Fatalf("ListSuppliers failed: %v", err)
		}
		if len(page2) != 1 || page2[0].ID == page1[0].ID {
			t.Error("page 2 should return the next supplier")
		}
	})
}

func TestInvoicePersistence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	tenantID := "tenant-001"

	t.Run("SaveAndGet", func(t *testing.T) {
		inv := testDBInvoice("inv-001", "supplier-0001", 250000)
		if err := repo.SaveInvoice(ctx, tenantID, inv); err != nil {
			t.Fatalf("SaveInvoice failed: %v", err)
		}

		retrieved, err := repo.GetInvoice(ctx, tenantID, inv.ID)
		if err != nil {
			t.Fatalf("GetInvoice failed: %v", err)
		}
		if retrieved.Amount != inv.Amount {
			t.Errorf("expected Amount %.2f, got %.2f", inv.Amount, retrieved.Amount)
		}
		if retrieved.SupplierID != inv.SupplierID {
			t.Errorf("expected SupplierID %s, got %s", inv.SupplierID, retrieved.SupplierID)
		}
		if retrieved.Metadata["source"] != "api" {
			t.Errorf("metadata not preserved: %v", retrieved.Metadata)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetInvoice(ctx, tenantID, "nonexistent")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("SupplierStats", func(t *testing.T) {
		if err := repo.SaveInvoice(ctx, tenantID, testDBInvoice("inv-002", "supplier-0001", 150000)); err != nil {
			t.Fatalf("SaveInvoice failed: %v", err)
		}

		since := time.Now().UTC().AddDate(0, 0, -365)
		stats, err := repo.GetSupplierInvoiceStats(ctx, tenantID, "supplier-0001", since)
		if err != nil {
			t.Fatalf("GetSupplierInvoiceStats failed: %v", err)
		}
		if stats.InvoiceCount != 2 {
			t.Errorf("expected 2 invoices, got %d", stats.InvoiceCount)
		}
		if stats.AverageAmount != 200000 {
			t.Errorf("expected average 200000, got %.2f", stats.AverageAmount)
		}
		if stats.Synthetic {
			t.Error("repository stats must not be marked synthetic")
		}
	})

	t.Run("SupplierStatsEmpty", func(t *testing.T) {
		stats, err := repo.GetSupplierInvoiceStats(ctx, tenantID, "supplier-9999", time.Now().AddDate(0, 0, -365))
		if err != nil {
			t.Fatalf("GetSupplierInvoiceStats failed: %v", err)
		}
		if stats.InvoiceCount != 0 || stats.AverageAmount != 0 {
			t.Errorf("expected empty stats, got %+v", stats)
		}
	})
}

func TestAnalysisPersistence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	tenantID := "tenant-001"

	analysis := &domain.ReceivableAnalysis{
		ID:                  "analysis-001",
		AnalysisType:        domain.AnalysisFull,
		TotalAnalyzed:       2,
		InvestmentGrade:     1,
		AverageQualityScore: 81.5,
		Results: []domain.InvoiceAssessment{
			{InvoiceID: "inv-001", Amount: 250000, QualityScore: 88, InvestmentGrade: true, Recommendation: domain.GradeBuy},
			{InvoiceID: "inv-002", Amount: 100000, QualityScore: 75, Recommendation: domain.GradeSkip},
		},
		Timestamp: time.Now().UTC(),
		Metadata:  domain.AnalysisMetadata{ProcessingMs: 12, RulesEvaluated: 4},
	}

	if err := repo.SaveAnalysis(ctx, tenantID, analysis); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	retrieved, err := repo.GetAnalysis(ctx, tenantID, analysis.ID)
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if retrieved.TotalAnalyzed != 2 || retrieved.InvestmentGrade != 1 {
		t.Errorf("counters not preserved: %+v", retrieved)
	}
	if len(retrieved.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(retrieved.Results))
	}
	if retrieved.Results[0].InvoiceID != "inv-001" {
		t.Errorf("result order not preserved: %s", retrieved.Results[0].InvoiceID)
	}
	if retrieved.Metadata.RulesEvaluated != 4 {
		t.Errorf("metadata not preserved: %+v", retrieved.Metadata)
	}

	if _, err := repo.GetAnalysis(ctx, tenantID, "nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestScreeningRulePersistence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	tenantID := "tenant-001"

	upper := 1000000.0
	rule := &domain.ScreeningRule{
		ID:         "rule-001",
		Name:       "Large amount review",
		Version:    "1.0.0",
		Expression: "amount",
		Bands: []domain.RuleBand{
			{UpperLimit: &upper, SubRuleRef: domain.RuleOutcomePass, Reason: "within limits"},
			{LowerLimit: &upper, SubRuleRef: domain.RuleOutcomeReview, Reason: "needs review"},
		},
		Weight:  1.0,
		Enabled: true,
	}

	if err := repo.SaveScreeningRule(ctx, tenantID, rule); err != nil {
		t.Fatalf("SaveScreeningRule failed: %v", err)
	}

	retrieved, err := repo.GetScreeningRule(ctx, tenantID, rule.ID)
	if err != nil {
		t.Fatalf("GetScreeningRule failed: %v", err)
	}
	if retrieved.Expression != rule.Expression {
		t.Errorf("expected expression %q, got %q", rule.Expression, retrieved.Expression)
	}
	if len(retrieved.Bands) != 2 {
		t.Fatalf("expected 2 bands, got %d", len(retrieved.Bands))
	}
	if retrieved.Bands[0].UpperLimit == nil || *retrieved.Bands[0].UpperLimit != upper {
		t.Error("band limits not preserved")
	}

	t.Run("DisabledExcludedFromList", func(t *testing.T) {
		disabled := &domain.ScreeningRule{
			ID:         "rule-002",
			Name:       "Disabled rule",
			Version:    "1.0.0",
			Expression: "amount",
			Bands:      rule.Bands,
			Weight:     1.0,
			Enabled:    false,
		}
		if err := repo.SaveScreeningRule(ctx, tenantID, disabled); err != nil {
			t.Fatalf("SaveScreeningRule failed: %v", err)
		}

		rules, err := repo.ListScreeningRules(ctx, tenantID)
		if err != nil {
			t.Fatalf("ListScreeningRules failed: %v", err)
		}
		if len(rules) != 1 || rules[0].ID != "rule-001" {
			t.Errorf("expected only the enabled rule, got %d rules", len(rules))
		}
	})

	t.Run("LatestVersionWins", func(t *testing.T) {
		v2 := *rule
		v2.Version = "2.0.0"
		v2.Expression = "amount * 2.0"
		if err := repo.SaveScreeningRule(ctx, tenantID, &v2); err != nil {
			t.Fatalf("SaveScreeningRule failed: %v", err)
		}

		latest, err := repo.GetScreeningRule(ctx, tenantID, rule.ID)
		if err != nil {
			t.Fatalf("GetScreeningRule failed: %v", err)
		}
		if latest.Version != "2.0.0" {
			t.Errorf("expected version 2.0.0, got %s", latest.Version)
		}
	})
}

func TestCompliancePersistence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	tenantID := "tenant-001"

	first := &domain.ComplianceResult{
		SupplierID:       "supplier-0001",
		Status:           domain.CompliancePassed,
		OverallRiskScore: 12,
		VerifiedAt:       time.Now().UTC().Add(-1 * time.Hour),
		AuditTrail:       domain.AuditTrail{VerificationID: "verify-001"},
	}
	second := &domain.ComplianceResult{
		SupplierID:       "supplier-0001",
		Status:           domain.ComplianceReviewRequired,
		OverallRiskScore: 35,
		VerifiedAt:       time.Now().UTC(),
		AuditTrail:       domain.AuditTrail{VerificationID: "verify-002"},
	}

	if err := repo.SaveComplianceResult(ctx, tenantID, first); err != nil {
		t.Fatalf("SaveComplianceResult failed: %v", err)
	}
	if err := repo.SaveComplianceResult(ctx, tenantID, second); err != nil {
		t.Fatalf("SaveComplianceResult failed: %v", err)
	}

	latest, err := repo.GetLatestComplianceResult(ctx, tenantID, "supplier-0001")
	if err != nil {
		t.Fatalf("GetLatestComplianceResult failed: %v", err)
	}
	if latest.AuditTrail.VerificationID != "verify-002" {
		t.Errorf("expected latest verification, got %s", latest.AuditTrail.VerificationID)
	}
	if latest.Status != domain.ComplianceReviewRequired {
		t.Errorf("expected status %s, got %s", domain.ComplianceReviewRequired, latest.Status)
	}

	if _, err := repo.GetLatestComplianceResult(ctx, tenantID, "supplier-9999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestBuyerAndReservations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	tenantID := "tenant-001"

	buyer := &domain.BuyerProfile{
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
	}

	if err := repo.SaveBuyer(ctx, tenantID, buyer); err != nil {
		t.Fatalf("SaveBuyer failed: %v", err)
	}

	t.Run("GetAndList", func(t *testing.T) {
		retrieved, err := repo.GetBuyer(ctx, tenantID, buyer.ID)
		if err != nil {
			t.Fatalf("GetBuyer failed: %v", err)
		}
		if retrieved.Capacity.Available != 15000000 {
			t.Errorf("expected available 15000000, got %.2f", retrieved.Capacity.Available)
		}
		if len(retrieved.Preferences.Regions) != 2 {
			t.Errorf("preferences not preserved: %+v", retrieved.Preferences)
		}

		buyers, err := repo.ListBuyers(ctx, tenantID)
		if err != nil {
			t.Fatalf("ListBuyers failed: %v", err)
		}
		if len(buyers) != 1 {
			t.Errorf("expected 1 buyer, got %d", len(buyers))
		}
	})

	t.Run("ReserveAndCommit", func(t *testing.T) {
		res, err := repo.ReserveCapacity(ctx, tenantID, buyer.ID, "inv-001", 500000)
		if err != nil {
			t.Fatalf("ReserveCapacity failed: %v", err)
		}
		if res.Status != domain.ReservationHeld {
			t.Errorf("expected held status, got %s", res.Status)
		}

		afterReserve, err := repo.GetBuyer(ctx, tenantID, buyer.ID)
		if err != nil {
			t.Fatalf("GetBuyer failed: %v", err)
		}
		if afterReserve.Capacity.Available != 14500000 {
			t.Errorf("reserve should reduce available, got %.2f", afterReserve.Capacity.Available)
		}

		if err := repo.CommitReservation(ctx, tenantID, res.ID); err != nil {
			t.Fatalf("CommitReservation failed: %v", err)
		}

		afterCommit, err := repo.GetBuyer(ctx, tenantID, buyer.ID)
		if err != nil {
			t.Fatalf("GetBuyer failed: %v", err)
		}
		if afterCommit.Capacity.Available != 14500000 {
			t.Errorf("commit must not restore available, got %.2f", afterCommit.Capacity.Available)
		}
		if afterCommit.Capacity.Deployed != 35500000 {
			t.Errorf("commit should grow deployed, got %.2f", afterCommit.Capacity.Deployed)
		}

		// A settled reservation can't be settled twice.
		if err := repo.CommitReservation(ctx, tenantID, res.ID); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for double commit, got: %v", err)
		}
	})

	t.Run("ReserveAndRelease", func(t *testing.T) {
		res, err := repo.ReserveCapacity(ctx, tenantID, buyer.ID, "inv-002", 1000000)
		if err != nil {
			t.Fatalf("ReserveCapacity failed: %v", err)
		}

		if err := repo.ReleaseReservation(ctx, tenantID, res.ID); err != nil {
			t.Fatalf("ReleaseReservation failed: %v", err)
		}

		afterRelease, err := repo.GetBuyer(ctx, tenantID, buyer.ID)
		if err != nil {
			t.Fatalf("GetBuyer failed: %v", err)
		}
		if afterRelease.Capacity.Available != 14500000 {
			t.Errorf("release should restore available, got %.2f", afterRelease.Capacity.Available)
		}
	})

	t.Run("InsufficientCapacity", func(t *testing.T) {
		_, err := repo.ReserveCapacity(ctx, tenantID, buyer.ID, "inv-003", 99000000)
		if !errors.Is(err, ErrInsufficientCapacity) {
			t.Errorf("expected ErrInsufficientCapacity, got: %v", err)
		}

		// The failed reservation must leave capacity untouched.
		unchanged, err := repo.GetBuyer(ctx, tenantID, buyer.ID)
		if err != nil {
			t.Fatalf("GetBuyer failed: %v", err)
		}
		if unchanged.Capacity.Available != 14500000 {
			t.Errorf("failed reserve should not change available, got %.2f", unchanged.Capacity.Available)
		}
	})

	t.Run("UnknownBuyer", func(t *testing.T) {
		_, err := repo.ReserveCapacity(ctx, tenantID, "buyer-999", "inv-004", 1000)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("UnknownReservation", func(t *testing.T) {
		if err := repo.CommitReservation(ctx, tenantID, "nonexistent"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := domain.RepositoryConfig{
		Driver: "mysql",
	}

	_, err := New(cfg)
	if err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	repo := &SQLRepository{driver: "postgres"}

	tests := []struct {
		input    string
		expected string
	}{
		{"SELECT * FROM t WHERE id = ?", "SELECT * FROM t WHERE id = $1"},
		{"INSERT INTO t (a, b) VALUES (?, ?)", "INSERT INTO t (a, b) VALUES ($1, $2)"},
		{"SELECT * FROM t", "SELECT * FROM t"},
	}

	for _, tt := range tests {
		result := repo.rebind(tt.input)
		if result != tt.expected {
			t.Errorf("rebind(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
