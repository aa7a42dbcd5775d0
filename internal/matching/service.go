package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/repository"
)

// Service runs batch allocation over the persisted buyer book and
// commits allocations through capacity reservations.
type Service struct {
	repo   domain.Repository
	bus    domain.EventBus
	engine *Engine
}

// NewService creates a matching service.
func NewService(repo domain.Repository, bus domain.EventBus, engine *Engine) *Service {
	return &Service{repo: repo, bus: bus, engine: engine}
}

// Allocate matches a batch of invoices against the tenant's buyer book
// and computes the portfolio summary. Nothing is reserved yet.
func (s *Service) Allocate(ctx context.Context, tenantID string, invoices []*domain.Invoice, prefs Preferences) (*domain.AllocationResult, error) {
	if len(invoices) == 0 {
		return nil, fmt.Errorf("%w: invoices array is required", domain.ErrInvalidInput)
	}
	for _, inv := range invoices {
		if err := inv.Validate(); err != nil {
			return nil, err
		}
	}

	buyers, err := s.buyerBook(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	totalValue := 0.0
	allocations := make([]domain.Allocation, 0, len(invoices))
	for _, inv := range invoices {
		totalValue += inv.Amount
		allocations = append(allocations, s.engine.Match(inv, buyers, prefs))
	}

	return &domain.AllocationResult{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		TotalInvoices:   len(invoices),
		TotalValue:      totalValue,
		Allocations:     allocations,
		Summary:         summarize(allocations),
		Recommendations: recommendations(allocations),
		CreatedAt:       time.Now(),
	}, nil
}

// Commit reserves buyer capacity for each allocation and commits the
// reservations. Allocations whose buyer lacks capacity stay uncommitted
// rather than failing the batch. Default allocations have no capacity
// to reserve and commit immediately.
func (s *Service) Commit(ctx context.Context, tenantID string, allocations []domain.Allocation) ([]domain.Allocation, error) {
	if len(allocations) == 0 {
		return nil, fmt.Errorf("%w: allocations array is required", domain.ErrInvalidInput)
	}
	if s.repo == nil {
		return nil, fmt.Errorf("%w: no repository configured", domain.ErrComputation)
	}

	committed := make([]domain.Allocation, len(allocations))
	for i, alloc := range allocations {
		committed[i] = alloc

		if alloc.BuyerID == DefaultBuyerID {
			committed[i].Committed = true
			continue
		}

		reservation, err := s.repo.ReserveCapacity(ctx, tenantID, alloc.BuyerID, alloc.InvoiceID, alloc.Amount)
		if err != nil {
			if errors.Is(err, repository.ErrInsufficientCapacity) {
				slog.Warn("capacity reservation declined",
					"buyer_id", alloc.BuyerID,
					"invoice_id", alloc.InvoiceID,
					"amount", alloc.Amount,
				)
				continue
			}
			return nil, err
		}

		if err := s.repo.CommitReservation(ctx, tenantID, reservation.ID); err != nil {
			// Hand the hold back so capacity is not stranded.
			if releaseErr := s.repo.ReleaseReservation(ctx, tenantID, reservation.ID); releaseErr != nil {
				slog.Error("failed to release reservation",
					"reservation_id", reservation.ID,
					"error", releaseErr,
				)
			}
			return nil, err
		}

		committed[i].ReservationID = reservation.ID
		committed[i].Committed = true
	}

	s.publishCommitted(ctx, tenantID, committed)
	return committed, nil
}

// Buyers returns the tenant's buyer book, seeding the standard book on
// first use.
func (s *Service) Buyers(ctx context.Context, tenantID string) ([]*domain.BuyerProfile, error) {
	return s.buyerBook(ctx, tenantID)
}

// EnsureBuyers seeds the standard buyer book when the tenant has none.
func (s *Service) EnsureBuyers(ctx context.Context, tenantID string) error {
	if s.repo == nil {
		return nil
	}
	existing, err := s.repo.ListBuyers(ctx, tenantID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, buyer := range StandardBuyers() {
		if err := s.repo.SaveBuyer(ctx, tenantID, buyer); err != nil {
			return err
		}
	}
	slog.Info("seeded standard buyer book", "tenant_id", tenantID)
	return nil
}

func (s *Service) buyerBook(ctx context.Context, tenantID string) ([]*domain.BuyerProfile, error) {
	if s.repo == nil {
		return StandardBuyers(), nil
	}
	if err := s.EnsureBuyers(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.repo.ListBuyers(ctx, tenantID)
}

func (s *Service) publishCommitted(ctx context.Context, tenantID string, allocations []domain.Allocation) {
	if s.bus == nil {
		return
	}
	payload, err := json.Marshal(allocations)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, tenantID, domain.TopicAllocationCommitted, payload); err != nil {
		slog.Warn("failed to publish allocation event", "error", err)
	}
}

// summarize computes the amount-weighted portfolio summary.
func summarize(allocations []domain.Allocation) domain.AllocationSummary {
	if len(allocations) == 0 {
		return domain.AllocationSummary{}
	}

	totalScore := 0.0
	totalAmount := 0.0
	weightedRisk := 0.0
	weightedReturn := 0.0
	regions := map[string]bool{}
	industries := map[string]bool{}
	buyers := map[string]bool{}

	for _, a := range allocations {
		totalScore += a.MatchScore
		totalAmount += a.Amount
		weightedRisk += a.RiskScore * a.Amount
		weightedReturn += a.ExpectedReturn * a.Amount
		if a.Region != "" {
			regions[a.Region] = true
		}
		if a.Industry != "" {
			industries[a.Industry] = true
		}
		buyers[a.BuyerID] = true
	}

	summary := domain.AllocationSummary{
		AverageMatchScore: round2(totalScore / float64(len(allocations))),
		DiversificationScore: math.Min(100,
			float64(len(regions))*20+float64(len(industries))*15+float64(len(buyers))*10),
	}
	if totalAmount > 0 {
		summary.RiskScore = math.Round(weightedRisk / totalAmount)
		summary.ExpectedReturn = round2(weightedReturn / totalAmount)
	}
	return summary
}

func recommendations(allocations []domain.Allocation) []string {
	var recs []string
	if len(allocations) < 5 {
		recs = append(recs, "Consider adding more invoices for better diversification")
	}

	totalScore := 0.0
	regions := map[string]bool{}
	for _, a := range allocations {
		totalScore += a.MatchScore
		if a.Region != "" {
			regions[a.Region] = true
		}
	}
	if len(allocations) > 0 && totalScore/float64(len(allocations)) < 80 {
		recs = append(recs, "Some invoices have low match scores - review buyer preferences")
	}
	if len(regions) < 3 {
		recs = append(recs, "Add invoices from more regions to improve geographic diversification")
	}
	return recs
}
