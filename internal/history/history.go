// Package history computes per-supplier trade-history stats that feed
// the fraud detector's outlier and relationship features.
package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/scoring"
)

// Window is how far back invoice history is considered.
const Window = 365 * 24 * time.Hour

// NewRelationshipDays is the relationship age below which a supplier is
// treated as new.
const NewRelationshipDays = 90

// Service resolves supplier stats from persisted invoices, falling back
// to a synthetic profile when no history exists yet.
type Service struct {
	repo domain.Repository
	rnd  *scoring.Rand
}

// New creates a history service. repo may be nil, in which case every
// lookup is synthetic.
func New(repo domain.Repository, rnd *scoring.Rand) *Service {
	return &Service{repo: repo, rnd: rnd}
}

// SupplierStats returns trade-history stats for a supplier.
func (s *Service) SupplierStats(ctx context.Context, tenantID, supplierID string) (*domain.SupplierStats, error) {
	if supplierID == "" {
		return nil, domain.ErrInvalidInput
	}

	if s.repo != nil {
		since := time.Now().Add(-Window)
		stats, err := s.repo.GetSupplierInvoiceStats(ctx, tenantID, supplierID, since)
		if err != nil {
			slog.Warn("supplier stats lookup failed, using synthetic profile",
				"supplier_id", supplierID,
				"error", err,
			)
		} else if stats != nil && stats.InvoiceCount > 0 {
			stats.NewRelationship = stats.RelationshipDays < NewRelationshipDays
			return stats, nil
		}
	}

	return s.synthetic(supplierID), nil
}

// synthetic draws a plausible profile for suppliers with no persisted
// invoices. Roughly one in ten is treated as a new relationship.
func (s *Service) synthetic(supplierID string) *domain.SupplierStats {
	return &domain.SupplierStats{
		SupplierID:      supplierID,
		AverageAmount:   s.rnd.Between(500000, 2500000),
		InvoiceCount:    0,
		NewRelationship: s.rnd.Chance(0.10),
		Synthetic:       true,
	}
}
