// Package domain defines the core interfaces and types for Kestrel.
package domain

import (
	"context"
	"time"
)

// SupplierFilter narrows supplier listings.
type SupplierFilter struct {
	Region    string
	Industry  string
	MinVolume float64
	Page      int
	Limit     int
}

// Repository defines the interface for data persistence.
// All methods require tenantID for strict multi-tenancy isolation.
type Repository interface {
	// Supplier operations
	SaveSupplier(ctx context.Context, tenantID string, supplier *Supplier) error
	GetSupplier(ctx context.Context, tenantID string, supplierID string) (*Supplier, error)
	ListSuppliers(ctx context.Context, tenantID string, filter SupplierFilter) ([]*Supplier, int, error)

	// Invoice operations
	SaveInvoice(ctx context.Context, tenantID string, inv *Invoice) error
	GetInvoice(ctx context.Context, tenantID string, invoiceID string) (*Invoice, error)
	GetSupplierInvoiceStats(ctx context.Context, tenantID string, supplierID string, since time.Time) (*SupplierStats, error)

	// Analysis results
	SaveAnalysis(ctx context.Context, tenantID string, analysis *ReceivableAnalysis) error
	GetAnalysis(ctx context.Context, tenantID string, analysisID string) (*ReceivableAnalysis, error)

	// Screening rule operations
	SaveScreeningRule(ctx context.Context, tenantID string, rule *ScreeningRule) error
	GetScreeningRule(ctx context.Context, tenantID string, ruleID string) (*ScreeningRule, error)
	ListScreeningRules(ctx context.Context, tenantID string) ([]*ScreeningRule, error)

	// Compliance runs
	SaveComplianceResult(ctx context.Context, tenantID string, result *ComplianceResult) error
	GetLatestComplianceResult(ctx context.Context, tenantID string, supplierID string) (*ComplianceResult, error)

	// Buyer book
	SaveBuyer(ctx context.Context, tenantID string, buyer *BuyerProfile) error
	GetBuyer(ctx context.Context, tenantID string, buyerID string) (*BuyerProfile, error)
	ListBuyers(ctx context.Context, tenantID string) ([]*BuyerProfile, error)

	// Capacity reservations (reserve-then-commit)
	ReserveCapacity(ctx context.Context, tenantID string, buyerID string, invoiceID string, amount float64) (*Reservation, error)
	CommitReservation(ctx context.Context, tenantID string, reservationID string) error
	ReleaseReservation(ctx context.Context, tenantID string, reservationID string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
