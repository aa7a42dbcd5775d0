// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/domain"
)

var (
	// ErrNotFound is returned when a record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput is returned for invalid input parameters.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientCapacity is returned when a buyer's available
	// capacity can't cover a requested reservation.
	ErrInsufficientCapacity = errors.New("insufficient capacity")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// migrate creates tables if they don't exist.
func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveSupplier persists a supplier record.
func (r *SQLRepository) SaveSupplier(ctx context.Context, tenantID string, supplier *domain.Supplier) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if supplier == nil || supplier.ID == "" {
		return fmt.Errorf("%w: supplier with ID is required", ErrInvalidInput)
	}

	contactJSON, err := json.Marshal(supplier.Contact)
	if err != nil {
		return fmt.Errorf("failed to marshal contact info: %w", err)
	}
	businessJSON, err := json.Marshal(supplier.Business)
	if err != nil {
		return fmt.Errorf("failed to marshal business info: %w", err)
	}
	financialJSON, err := json.Marshal(supplier.Financials)
	if err != nil {
		return fmt.Errorf("failed to marshal financial info: %w", err)
	}
	complianceJSON, err := json.Marshal(supplier.Compliance)
	if err != nil {
		return fmt.Errorf("failed to marshal compliance info: %w", err)
	}
	historyJSON, err := json.Marshal(supplier.TradeHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal trade history: %w", err)
	}

	query := `
		INSERT INTO suppliers (
			id, tenant_id, name, region, country, industry,
			years_in_business, employee_count, credit_rating,
			predicted_volume, ai_score, status,
			contact_info, business_info, financial_info, compliance_info, trade_history,
			last_updated, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			name = excluded.name,
			region = excluded.region,
			country = excluded.country,
			industry = excluded.industry,
			years_in_business = excluded.years_in_business,
			employee_count = excluded.employee_count,
			credit_rating = excluded.credit_rating,
			predicted_volume = excluded.predicted_volume,
			ai_score = excluded.ai_score,
			status = excluded.status,
			contact_info = excluded.contact_info,
			business_info = excluded.business_info,
			financial_info = excluded.financial_info,
			compliance_info = excluded.compliance_info,
			trade_history = excluded.trade_history,
			last_updated = excluded.last_updated`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		supplier.ID, tenantID, supplier.Name, supplier.Region, supplier.Country, supplier.Industry,
		supplier.YearsInBusiness, supplier.EmployeeCount, supplier.CreditRating,
		supplier.PredictedVolume, supplier.AIScore, supplier.Status,
		string(contactJSON), string(businessJSON), string(financialJSON), string(complianceJSON), string(historyJSON),
		supplier.LastUpdated, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save supplier: %w", err)
	}

	return nil
}

// GetSupplier retrieves a supplier by ID.
func (r *SQLRepository) GetSupplier(ctx context.Context, tenantID string, supplierID string) (*domain.Supplier, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, name, region, country, industry,
		       years_in_business, employee_count, credit_rating,
		       predicted_volume, ai_score, status,
		       contact_info, business_info, financial_info, compliance_info, trade_history,
		       last_updated
		FROM suppliers
		WHERE id = ? AND tenant_id = ?`

	supplier, err := r.scanSupplier(r.db.QueryRowContext(ctx, r.rebind(query), supplierID, tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get supplier: %w", err)
	}
	supplier.TenantID = tenantID

	return supplier, nil
}

// ListSuppliers returns suppliers matching the filter, highest AI score
// first, plus the total match count before pagination.
func (r *SQLRepository) ListSuppliers(ctx context.Context, tenantID string, filter domain.SupplierFilter) ([]*domain.Supplier, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	where := "WHERE tenant_id = ?"
	args := []any{tenantID}

	if filter.Region != "" {
		where += " AND region = ?"
		args = append(args, filter.Region)
	}
	if filter.Industry != "" {
		where += " AND industry = ?"
		args = append(args, filter.Industry)
	}
	if filter.MinVolume > 0 {
		where += " AND predicted_volume >= ?"
		args = append(args, filter.MinVolume)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM suppliers " + where
	if err := r.db.QueryRowContext(ctx, r.rebind(countQuery), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count suppliers: %w", err)
	}

	query := `
		SELECT id, name, region, country, industry,
		       years_in_business, employee_count, credit_rating,
		       predicted_volume, ai_score, status,
		       contact_info, business_info, financial_info, compliance_info, trade_history,
		       last_updated
		FROM suppliers ` + where + `
		ORDER BY ai_score DESC, id`

	if filter.Limit > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.Limit
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []*domain.Supplier
	for rows.Next() {
		supplier, err := r.scanSupplier(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan supplier: %w", err)
		}
		supplier.TenantID = tenantID
		suppliers = append(suppliers, supplier)
	}

	return suppliers, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLRepository) scanSupplier(row rowScanner) (*domain.Supplier, error) {
	var supplier domain.Supplier
	var contactJSON, businessJSON, financialJSON, complianceJSON, historyJSON string

	err := row.Scan(
		&supplier.ID, &supplier.Name, &supplier.Region, &supplier.Country, &supplier.Industry,
		&supplier.YearsInBusiness, &supplier.EmployeeCount, &supplier.CreditRating,
		&supplier.PredictedVolume, &supplier.AIScore, &supplier.Status,
		&contactJSON, &businessJSON, &financialJSON, &complianceJSON, &historyJSON,
		&supplier.LastUpdated,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(contactJSON), &supplier.Contact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contact info: %w", err)
	}
	if err := json.Unmarshal([]byte(businessJSON), &supplier.Business); err != nil {
		return nil, fmt.Errorf("failed to unmarshal business info: %w", err)
	}
	if err := json.Unmarshal([]byte(financialJSON), &supplier.Financials); err != nil {
		return nil, fmt.Errorf("failed to unmarshal financial info: %w", err)
	}
	if err := json.Unmarshal([]byte(complianceJSON), &supplier.Compliance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal compliance info: %w", err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &supplier.TradeHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trade history: %w", err)
	}

	return &supplier, nil
}

// SaveInvoice persists an invoice.
func (r *SQLRepository) SaveInvoice(ctx context.Context, tenantID string, inv *domain.Invoice) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if inv == nil || inv.ID == "" {
		return fmt.Errorf("%w: invoice with ID is required", ErrInvalidInput)
	}

	metadataJSON, err := json.Marshal(inv.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	createdAt := inv.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO invoices (
			id, tenant_id, supplier_id, debtor_id, amount, currency,
			supplier_country, debtor_country, region, industry, payment_terms,
			issue_date, due_date, created_at, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			supplier_id = excluded.supplier_id,
			debtor_id = excluded.debtor_id,
			amount = excluded.amount,
			currency = excluded.currency,
			supplier_country = excluded.supplier_country,
			debtor_country = excluded.debtor_country,
			region = excluded.region,
			industry = excluded.industry,
			payment_terms = excluded.payment_terms,
			issue_date = excluded.issue_date,
			due_date = excluded.due_date,
			metadata = excluded.metadata`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		inv.ID, tenantID, inv.SupplierID, inv.DebtorID, inv.Amount, inv.Currency,
		inv.SupplierCountry, inv.DebtorCountry, inv.Region, inv.Industry, inv.PaymentTerms,
		inv.IssueDate, inv.DueDate, createdAt, string(metadataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}

	return nil
}

// GetInvoice retrieves an invoice by ID.
func (r *SQLRepository) GetInvoice(ctx context.Context, tenantID string, invoiceID string) (*domain.Invoice, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, supplier_id, debtor_id, amount, currency,
		       supplier_country, debtor_country, region, industry, payment_terms,
		       issue_date, due_date, created_at, metadata
		FROM invoices
		WHERE id = ? AND tenant_id = ?`

	var inv domain.Invoice
	var metadataJSON string

	err := r.db.QueryRowContext(ctx, r.rebind(query), invoiceID, tenantID).Scan(
		&inv.ID, &inv.SupplierID, &inv.DebtorID, &inv.Amount, &inv.Currency,
		&inv.SupplierCountry, &inv.DebtorCountry, &inv.Region, &inv.Industry, &inv.PaymentTerms,
		&inv.IssueDate, &inv.DueDate, &inv.CreatedAt, &metadataJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	inv.TenantID = tenantID
	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &inv.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &inv, nil
}

// GetSupplierInvoiceStats summarizes a supplier's invoice history since
// the given cutoff. Returns zero counts when no history exists.
func (r *SQLRepository) GetSupplierInvoiceStats(ctx context.Context, tenantID string, supplierID string, since time.Time) (*domain.SupplierStats, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if supplierID == "" {
		return nil, fmt.Errorf("%w: supplierID is required", ErrInvalidInput)
	}

	query := `
		SELECT COUNT(*), COALESCE(AVG(amount), 0), MIN(issue_date)
		FROM invoices
		WHERE tenant_id = ? AND supplier_id = ? AND created_at >= ?`

	var count int64
	var avgAmount float64
	var firstIssue sql.NullTime

	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, supplierID, since).Scan(&count, &avgAmount, &firstIssue)
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier invoice stats: %w", err)
	}

	stats := &domain.SupplierStats{
		SupplierID:    supplierID,
		InvoiceCount:  count,
		AverageAmount: avgAmount,
	}
	if firstIssue.Valid {
		stats.RelationshipDays = int64(time.Since(firstIssue.Time).Hours() / 24)
	}

	return stats, nil
}

// SaveAnalysis persists a receivable analysis run.
func (r *SQLRepository) SaveAnalysis(ctx context.Context, tenantID string, analysis *domain.ReceivableAnalysis) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if analysis == nil || analysis.ID == "" {
		return fmt.Errorf("%w: analysis with ID is required", ErrInvalidInput)
	}

	resultsJSON, err := json.Marshal(analysis.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	metadataJSON, err := json.Marshal(analysis.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO analyses (
			id, tenant_id, analysis_type, total_analyzed, investment_grade,
			average_quality, results, metadata, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			analysis_type = excluded.analysis_type,
			total_analyzed = excluded.total_analyzed,
			investment_grade = excluded.investment_grade,
			average_quality = excluded.average_quality,
			results = excluded.results,
			metadata = excluded.metadata,
			timestamp = excluded.timestamp`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		analysis.ID, tenantID, analysis.AnalysisType, analysis.TotalAnalyzed, analysis.InvestmentGrade,
		analysis.AverageQualityScore, string(resultsJSON), string(metadataJSON), analysis.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	return nil
}

// GetAnalysis retrieves an analysis run by ID.
func (r *SQLRepository) GetAnalysis(ctx context.Context, tenantID string, analysisID string) (*domain.ReceivableAnalysis, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, analysis_type, total_analyzed, investment_grade,
		       average_quality, results, metadata, timestamp
		FROM analyses
		WHERE id = ? AND tenant_id = ?`

	var analysis domain.ReceivableAnalysis
	var resultsJSON, metadataJSON string

	err := r.db.QueryRowContext(ctx, r.rebind(query), analysisID, tenantID).Scan(
		&analysis.ID, &analysis.AnalysisType, &analysis.TotalAnalyzed, &analysis.InvestmentGrade,
		&analysis.AverageQualityScore, &resultsJSON, &metadataJSON, &analysis.Timestamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	analysis.TenantID = tenantID
	if err := json.Unmarshal([]byte(resultsJSON), &analysis.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}
	if err := json.Unmarshal([]byte(metadataJSON), &analysis.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &analysis, nil
}

// SaveScreeningRule persists a screening rule.
func (r *SQLRepository) SaveScreeningRule(ctx context.Context, tenantID string, rule *domain.ScreeningRule) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("%w: rule with ID is required", ErrInvalidInput)
	}

	bandsJSON, err := json.Marshal(rule.Bands)
	if err != nil {
		return fmt.Errorf("failed to marshal bands: %w", err)
	}

	version := rule.Version
	if version == "" {
		version = "1.0.0"
	}
	enabled := 0
	if rule.Enabled {
		enabled = 1
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO screening_rules (
			id, tenant_id, name, description, version, expression,
			bands, weight, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id, version) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			expression = excluded.expression,
			bands = excluded.bands,
			weight = excluded.weight,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, tenantID, rule.Name, rule.Description, version, rule.Expression,
		string(bandsJSON), rule.Weight, enabled, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save screening rule: %w", err)
	}

	return nil
}

// GetScreeningRule retrieves the latest version of a rule by ID.
func (r *SQLRepository) GetScreeningRule(ctx context.Context, tenantID string, ruleID string) (*domain.ScreeningRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, name, description, version, expression, bands, weight, enabled
		FROM screening_rules
		WHERE id = ? AND tenant_id = ?
		ORDER BY version DESC
		LIMIT 1`

	rule, err := r.scanScreeningRule(r.db.QueryRowContext(ctx, r.rebind(query), ruleID, tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get screening rule: %w", err)
	}
	rule.TenantID = tenantID

	return rule, nil
}

// ListScreeningRules returns all enabled rules for a tenant.
func (r *SQLRepository) ListScreeningRules(ctx context.Context, tenantID string) ([]*domain.ScreeningRule, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, name, description, version, expression, bands, weight, enabled
		FROM screening_rules
		WHERE tenant_id = ? AND enabled = 1
		ORDER BY name`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list screening rules: %w", err)
	}
	defer rows.Close()

	var rules []*domain.ScreeningRule
	for rows.Next() {
		rule, err := r.scanScreeningRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan screening rule: %w", err)
		}
		rule.TenantID = tenantID
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

func (r *SQLRepository) scanScreeningRule(row rowScanner) (*domain.ScreeningRule, error) {
	var rule domain.ScreeningRule
	var bandsJSON string
	var enabled int

	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Description, &rule.Version,
		&rule.Expression, &bandsJSON, &rule.Weight, &enabled,
	)
	if err != nil {
		return nil, err
	}

	rule.Enabled = enabled == 1
	if err := json.Unmarshal([]byte(bandsJSON), &rule.Bands); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bands: %w", err)
	}

	return &rule, nil
}

// SaveComplianceResult persists a compliance verification run.
func (r *SQLRepository) SaveComplianceResult(ctx context.Context, tenantID string, result *domain.ComplianceResult) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if result == nil || result.SupplierID == "" {
		return fmt.Errorf("%w: result with supplierID is required", ErrInvalidInput)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal compliance result: %w", err)
	}

	id := result.AuditTrail.VerificationID
	if id == "" {
		id = uuid.New().String()
	}

	query := `
		INSERT INTO compliance_results (
			id, tenant_id, supplier_id, status, risk_score, result, verified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			risk_score = excluded.risk_score,
			result = excluded.result,
			verified_at = excluded.verified_at`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		id, tenantID, result.SupplierID, result.Status, result.OverallRiskScore,
		string(resultJSON), result.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save compliance result: %w", err)
	}

	return nil
}

// GetLatestComplianceResult returns the most recent verification for a
// supplier.
func (r *SQLRepository) GetLatestComplianceResult(ctx context.Context, tenantID string, supplierID string) (*domain.ComplianceResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT result
		FROM compliance_results
		WHERE tenant_id = ? AND supplier_id = ?
		ORDER BY verified_at DESC
		LIMIT 1`

	var resultJSON string
	err := r.db.QueryRowContext(ctx, r.rebind(query), tenantID, supplierID).Scan(&resultJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get compliance result: %w", err)
	}

	var result domain.ComplianceResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal compliance result: %w", err)
	}
	result.TenantID = tenantID

	return &result, nil
}

// SaveBuyer persists a buyer profile.
func (r *SQLRepository) SaveBuyer(ctx context.Context, tenantID string, buyer *domain.BuyerProfile) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if buyer == nil || buyer.ID == "" {
		return fmt.Errorf("%w: buyer with ID is required", ErrInvalidInput)
	}

	prefsJSON, err := json.Marshal(buyer.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	perfJSON, err := json.Marshal(buyer.Performance)
	if err != nil {
		return fmt.Errorf("failed to marshal performance: %w", err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO buyers (
			id, tenant_id, name, type, status, preferences,
			capacity_total, capacity_available, capacity_deployed,
			performance, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, tenant_id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			status = excluded.status,
			preferences = excluded.preferences,
			capacity_total = excluded.capacity_total,
			capacity_available = excluded.capacity_available,
			capacity_deployed = excluded.capacity_deployed,
			performance = excluded.performance,
			updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		buyer.ID, tenantID, buyer.Name, buyer.Type, buyer.Status, string(prefsJSON),
		buyer.Capacity.Total, buyer.Capacity.Available, buyer.Capacity.Deployed,
		string(perfJSON), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save buyer: %w", err)
	}

	return nil
}

// GetBuyer retrieves a buyer by ID.
func (r *SQLRepository) GetBuyer(ctx context.Context, tenantID string, buyerID string) (*domain.BuyerProfile, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, name, type, status, preferences,
		       capacity_total, capacity_available, capacity_deployed, performance
		FROM buyers
		WHERE id = ? AND tenant_id = ?`

	buyer, err := r.scanBuyer(r.db.QueryRowContext(ctx, r.rebind(query), buyerID, tenantID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get buyer: %w", err)
	}
	buyer.TenantID = tenantID

	return buyer, nil
}

// ListBuyers returns all buyers for a tenant ordered by ID.
func (r *SQLRepository) ListBuyers(ctx context.Context, tenantID string) ([]*domain.BuyerProfile, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, name, type, status, preferences,
		       capacity_total, capacity_available, capacity_deployed, performance
		FROM buyers
		WHERE tenant_id = ?
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buyers: %w", err)
	}
	defer rows.Close()

	var buyers []*domain.BuyerProfile
	for rows.Next() {
		buyer, err := r.scanBuyer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan buyer: %w", err)
		}
		buyer.TenantID = tenantID
		buyers = append(buyers, buyer)
	}

	return buyers, rows.Err()
}

func (r *SQLRepository) scanBuyer(row rowScanner) (*domain.BuyerProfile, error) {
	var buyer domain.BuyerProfile
	var prefsJSON, perfJSON string

	err := row.Scan(
		&buyer.ID, &buyer.Name, &buyer.Type, &buyer.Status, &prefsJSON,
		&buyer.Capacity.Total, &buyer.Capacity.Available, &buyer.Capacity.Deployed, &perfJSON,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(prefsJSON), &buyer.Preferences); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	if err := json.Unmarshal([]byte(perfJSON), &buyer.Performance); err != nil {
		return nil, fmt.Errorf("failed to unmarshal performance: %w", err)
	}

	return &buyer, nil
}

// ReserveCapacity places a hold on a buyer's available capacity. The
// conditional update and the reservation insert share one transaction,
// so concurrent reservations can't oversubscribe a buyer.
func (r *SQLRepository) ReserveCapacity(ctx context.Context, tenantID string, buyerID string, invoiceID string, amount float64) (*domain.Reservation, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if buyerID == "" || invoiceID == "" {
		return nil, fmt.Errorf("%w: buyerID and invoiceID are required", ErrInvalidInput)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	update := `
		UPDATE buyers
		SET capacity_available = capacity_available - ?, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND capacity_available >= ?`

	res, err := tx.ExecContext(ctx, r.rebind(update), amount, now, buyerID, tenantID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve capacity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve capacity: %w", err)
	}
	if affected == 0 {
		var exists int
		check := `SELECT COUNT(*) FROM buyers WHERE id = ? AND tenant_id = ?`
		if err := tx.QueryRowContext(ctx, r.rebind(check), buyerID, tenantID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check buyer: %w", err)
		}
		if exists == 0 {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: buyer %s cannot cover %.2f", ErrInsufficientCapacity, buyerID, amount)
	}

	reservation := &domain.Reservation{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		BuyerID:   buyerID,
		InvoiceID: invoiceID,
		Amount:    amount,
		Status:    domain.ReservationHeld,
		CreatedAt: now,
		UpdatedAt: now,
	}

	insert := `
		INSERT INTO reservations (id, tenant_id, buyer_id, invoice_id, amount, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, r.rebind(insert),
		reservation.ID, tenantID, buyerID, invoiceID, amount,
		reservation.Status, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	return reservation, nil
}

// CommitReservation finalizes a held reservation, moving its amount into
// the buyer's deployed capacity.
func (r *SQLRepository) CommitReservation(ctx context.Context, tenantID string, reservationID string) error {
	return r.settleReservation(ctx, tenantID, reservationID, domain.ReservationCommitted)
}

// ReleaseReservation cancels a held reservation, returning its amount to
// the buyer's available capacity.
func (r *SQLRepository) ReleaseReservation(ctx context.Context, tenantID string, reservationID string) error {
	return r.settleReservation(ctx, tenantID, reservationID, domain.ReservationReleased)
}

func (r *SQLRepository) settleReservation(ctx context.Context, tenantID string, reservationID string, target string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if reservationID == "" {
		return fmt.Errorf("%w: reservationID is required", ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var buyerID, status string
	var amount float64

	query := `SELECT buyer_id, amount, status FROM reservations WHERE id = ? AND tenant_id = ?`
	err = tx.QueryRowContext(ctx, r.rebind(query), reservationID, tenantID).Scan(&buyerID, &amount, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get reservation: %w", err)
	}
	if status != domain.ReservationHeld {
		return fmt.Errorf("%w: reservation %s is %s, not held", ErrInvalidInput, reservationID, status)
	}

	now := time.Now().UTC()

	update := `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND tenant_id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, r.rebind(update), target, now, reservationID, tenantID, domain.ReservationHeld)
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: reservation %s is no longer held", ErrInvalidInput, reservationID)
	}

	var buyerUpdate string
	if target == domain.ReservationCommitted {
		buyerUpdate = `UPDATE buyers SET capacity_deployed = capacity_deployed + ?, updated_at = ? WHERE id = ? AND tenant_id = ?`
	} else {
		buyerUpdate = `UPDATE buyers SET capacity_available = capacity_available + ?, updated_at = ? WHERE id = ? AND tenant_id = ?`
	}
	if _, err := tx.ExecContext(ctx, r.rebind(buyerUpdate), amount, now, buyerID, tenantID); err != nil {
		return fmt.Errorf("failed to update buyer capacity: %w", err)
	}

	return tx.Commit()
}

// Ping verifies the database connection.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $N for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	result := make([]byte, 0, len(query)+10)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			result = append(result, fmt.Sprintf("$%d", n)...)
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
