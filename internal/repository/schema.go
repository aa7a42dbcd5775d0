package repository

// Schema definitions for the Kestrel database.
// Compatible with both SQLite and PostgreSQL.

const schemaSuppliers = `
CREATE TABLE IF NOT EXISTS suppliers (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    region TEXT NOT NULL,
    country TEXT NOT NULL,
    industry TEXT NOT NULL,
    years_in_business INTEGER NOT NULL DEFAULT 0,
    employee_count INTEGER NOT NULL DEFAULT 0,
    credit_rating TEXT NOT NULL,
    predicted_volume REAL NOT NULL DEFAULT 0,
    ai_score INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    contact_info TEXT,
    business_info TEXT,
    financial_info TEXT,
    compliance_info TEXT,
    trade_history TEXT,
    last_updated TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_suppliers_tenant ON suppliers(tenant_id);
CREATE INDEX IF NOT EXISTS idx_suppliers_region ON suppliers(tenant_id, region);
CREATE INDEX IF NOT EXISTS idx_suppliers_industry ON suppliers(tenant_id, industry);
CREATE INDEX IF NOT EXISTS idx_suppliers_score ON suppliers(tenant_id, ai_score);
`

const schemaInvoices = `
CREATE TABLE IF NOT EXISTS invoices (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    supplier_id TEXT NOT NULL,
    debtor_id TEXT NOT NULL,
    amount REAL NOT NULL,
    currency TEXT NOT NULL,
    supplier_country TEXT,
    debtor_country TEXT,
    region TEXT,
    industry TEXT,
    payment_terms TEXT,
    issue_date TIMESTAMP NOT NULL,
    due_date TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL,
    metadata TEXT,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_invoices_tenant ON invoices(tenant_id);
CREATE INDEX IF NOT EXISTS idx_invoices_supplier ON invoices(tenant_id, supplier_id);
CREATE INDEX IF NOT EXISTS idx_invoices_created ON invoices(tenant_id, created_at);
`

const schemaAnalyses = `
CREATE TABLE IF NOT EXISTS analyses (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    analysis_type TEXT NOT NULL,
    total_analyzed INTEGER NOT NULL,
    investment_grade INTEGER NOT NULL,
    average_quality REAL NOT NULL,
    results TEXT NOT NULL,
    metadata TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_tenant ON analyses(tenant_id);
CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(tenant_id, timestamp);
`

const schemaScreeningRules = `
CREATE TABLE IF NOT EXISTS screening_rules (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    version TEXT NOT NULL,
    expression TEXT NOT NULL,
    bands TEXT NOT NULL,
    weight REAL NOT NULL DEFAULT 1.0,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id, version)
);

CREATE INDEX IF NOT EXISTS idx_screening_rules_tenant ON screening_rules(tenant_id);
CREATE INDEX IF NOT EXISTS idx_screening_rules_enabled ON screening_rules(tenant_id, enabled);
`

const schemaComplianceResults = `
CREATE TABLE IF NOT EXISTS compliance_results (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    supplier_id TEXT NOT NULL,
    status TEXT NOT NULL,
    risk_score INTEGER NOT NULL,
    result TEXT NOT NULL,
    verified_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_compliance_tenant ON compliance_results(tenant_id);
CREATE INDEX IF NOT EXISTS idx_compliance_supplier ON compliance_results(tenant_id, supplier_id, verified_at);
`

const schemaBuyers = `
CREATE TABLE IF NOT EXISTS buyers (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    status TEXT NOT NULL,
    preferences TEXT NOT NULL,
    capacity_total REAL NOT NULL DEFAULT 0,
    capacity_available REAL NOT NULL DEFAULT 0,
    capacity_deployed REAL NOT NULL DEFAULT 0,
    performance TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_buyers_tenant ON buyers(tenant_id);
CREATE INDEX IF NOT EXISTS idx_buyers_status ON buyers(tenant_id, status);
`

// schemaReservations holds capacity holds against buyers.
// A reservation moves available capacity out of the buyer row inside
// the same transaction that inserts it.
const schemaReservations = `
CREATE TABLE IF NOT EXISTS reservations (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    buyer_id TEXT NOT NULL,
    invoice_id TEXT NOT NULL,
    amount REAL NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reservations_tenant ON reservations(tenant_id);
CREATE INDEX IF NOT EXISTS idx_reservations_buyer ON reservations(tenant_id, buyer_id);
CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(tenant_id, status);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaSuppliers,
		schemaInvoices,
		schemaAnalyses,
		schemaScreeningRules,
		schemaComplianceResults,
		schemaBuyers,
		schemaReservations,
	}
}
