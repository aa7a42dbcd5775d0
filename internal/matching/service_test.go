package matching

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/repository"
)

// bookRepo is an in-memory Repository stub covering the buyer book and
// reservation paths the matching service exercises.
type bookRepo struct {
	buyers       map[string]*domain.BuyerProfile
	reservations map[string]*domain.Reservation
	nextID       int
}

func newBookRepo() *bookRepo {
	return &bookRepo{
		buyers:       make(map[string]*domain.BuyerProfile),
		reservations: make(map[string]*domain.Reservation),
	}
}

func (r *bookRepo) SaveBuyer(ctx context.Context, tenantID string, buyer *domain.BuyerProfile) error {
	copied := *buyer
	r.buyers[buyer.ID] = &copied
	return nil
}

func (r *bookRepo) GetBuyer(ctx context.Context, tenantID, buyerID string) (*domain.BuyerProfile, error) {
	b, ok := r.buyers[buyerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return b, nil
}

func (r *bookRepo) ListBuyers(ctx context.Context, tenantID string) ([]*domain.BuyerProfile, error) {
	out := make([]*domain.BuyerProfile, 0, len(r.buyers))
	for _, id := range []string{"buyer-001", "buyer-002", "buyer-003"} {
		if b, ok := r.buyers[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *bookRepo) ReserveCapacity(ctx context.Context, tenantID, buyerID, invoiceID string, amount float64) (*domain.Reservation, error) {
	buyer, ok := r.buyers[buyerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if buyer.Capacity.Available < amount {
		return nil, repository.ErrInsufficientCapacity
	}
	buyer.Capacity.Available -= amount
	r.nextID++
	res := &domain.Reservation{
		ID:        fmt.Sprintf("res-%03d", r.nextID),
		BuyerID:   buyerID,
		InvoiceID: invoiceID,
		Amount:    amount,
		Status:    domain.ReservationHeld,
	}
	r.reservations[res.ID] = res
	return res, nil
}

func (r *bookRepo) CommitReservation(ctx context.Context, tenantID, reservationID string) error {
	res, ok := r.reservations[reservationID]
	if !ok {
		return repository.ErrNotFound
	}
	res.Status = domain.ReservationCommitted
	r.buyers[res.BuyerID].Capacity.Deployed += res.Amount
	return nil
}

func (r *bookRepo) ReleaseReservation(ctx context.Context, tenantID, reservationID string) error {
	res, ok := r.reservations[reservationID]
	if !ok {
		return repository.ErrNotFound
	}
	res.Status = domain.ReservationReleased
	r.buyers[res.BuyerID].Capacity.Available += res.Amount
	return nil
}

// Unused Repository methods.
func (r *bookRepo) SaveSupplier(ctx context.Context, tenantID string, s *domain.Supplier) error {
	return nil
}
func (r *bookRepo) GetSupplier(ctx context.Context, tenantID, id string) (*domain.Supplier, error) {
	return nil, repository.ErrNotFound
}
func (r *bookRepo) ListSuppliers(ctx context.Context, tenantID string, f domain.SupplierFilter) ([]*domain.Supplier, int, error) {
	return nil, 0, nil
}
func (r *bookRepo) SaveInvoice(ctx context.Context, tenantID string, inv *domain.Invoice) error {
	return nil
}
func (r *bookRepo) GetInvoice(ctx context.Context, tenantID, id string) (*domain.Invoice, error) {
	return nil, repository.ErrNotFound
}
func (r *bookRepo) GetSupplierInvoiceStats(ctx context.Context, tenantID, supplierID string, since time.Time) (*domain.SupplierStats, error) {
	return nil, nil
}
func (r *bookRepo) SaveAnalysis(ctx context.Context, tenantID string, a *domain.ReceivableAnalysis) error {
	return nil
}
func (r *bookRepo) GetAnalysis(ctx context.Context, tenantID, id string) (*domain.ReceivableAnalysis, error) {
	return nil, repository.ErrNotFound
}
func (r *bookRepo) SaveScreeningRule(ctx context.Context, tenantID string, rule *domain.ScreeningRule) error {
	return nil
}
func (r *bookRepo) GetScreeningRule(ctx context.Context, tenantID, id string) (*domain.ScreeningRule, error) {
	return nil, repository.ErrNotFound
}
func (r *bookRepo) ListScreeningRules(ctx context.Context, tenantID string) ([]*domain.ScreeningRule, error) {
	return nil, nil
}
func (r *bookRepo) SaveComplianceResult(ctx context.Context, tenantID string, res *domain.ComplianceResult) error {
	return nil
}
func (r *bookRepo) GetLatestComplianceResult(ctx context.Context, tenantID, supplierID string) (*domain.ComplianceResult, error) {
	return nil, repository.ErrNotFound
}
func (r *bookRepo) Ping(ctx context.Context) error { return nil }
func (r *bookRepo) Close() error                   { return nil }

func TestAllocate(t *testing.T) {
	svc := NewService(newBookRepo(), nil, NewEngine())
	ctx := context.Background()

	invoices := []*domain.Invoice{matchableInvoice()}
	result, err := svc.Allocate(ctx, "tenant-1", invoices, Preferences{})
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}

	if result.TotalInvoices != 1 || result.TotalValue != 500000 {
		t.Errorf("unexpected totals: %+v", result)
	}
	if len(result.Allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(result.Allocations))
	}
	if result.Allocations[0].Committed {
		t.Error("allocate should not commit reservations")
	}

	t.Run("seeds standard buyer book", func(t *testing.T) {
		buyers, err := svc.Buyers(ctx, "tenant-1")
		if err != nil {
			t.Fatalf("Buyers failed: %v", err)
		}
		if len(buyers) != 3 {
			t.Errorf("expected 3 seeded buyers, got %d", len(buyers))
		}
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		_, err := svc.Allocate(ctx, "tenant-1", nil, Preferences{})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("invalid invoice rejected", func(t *testing.T) {
		bad := matchableInvoice()
		bad.Amount = -1
		_, err := svc.Allocate(ctx, "tenant-1", []*domain.Invoice{bad}, Preferences{})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestCommit(t *testing.T) {
	repo := newBookRepo()
	svc := NewService(repo, nil, NewEngine())
	ctx := context.Background()

	if err := svc.EnsureBuyers(ctx, "tenant-1"); err != nil {
		t.Fatalf("EnsureBuyers failed: %v", err)
	}

	t.Run("commits within capacity", func(t *testing.T) {
		allocations := []domain.Allocation{
			{InvoiceID: "inv-001", BuyerID: "buyer-001", Amount: 500000},
		}
		committed, err := svc.Commit(ctx, "tenant-1", allocations)
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		if !committed[0].Committed || committed[0].ReservationID == "" {
			t.Errorf("expected committed reservation: %+v", committed[0])
		}

		buyer, _ := repo.GetBuyer(ctx, "tenant-1", "buyer-001")
		if buyer.Capacity.Available != 14500000 {
			t.Errorf("available capacity = %v, want 14500000", buyer.Capacity.Available)
		}
		if buyer.Capacity.Deployed != 35500000 {
			t.Errorf("deployed capacity = %v, want 35500000", buyer.Capacity.Deployed)
		}
	})

	t.Run("insufficient capacity leaves allocation uncommitted", func(t *testing.T) {
		allocations := []domain.Allocation{
			{InvoiceID: "inv-002", BuyerID: "buyer-002", Amount: 9000000},
		}
		committed, err := svc.Commit(ctx, "tenant-1", allocations)
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		if committed[0].Committed {
			t.Error("allocation beyond capacity should stay uncommitted")
		}
	})

	t.Run("default allocations commit without reservation", func(t *testing.T) {
		allocations := []domain.Allocation{
			{InvoiceID: "inv-003", BuyerID: DefaultBuyerID, Amount: 100000},
		}
		committed, err := svc.Commit(ctx, "tenant-1", allocations)
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		if !committed[0].Committed || committed[0].ReservationID != "" {
			t.Errorf("unexpected default commit: %+v", committed[0])
		}
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		_, err := svc.Commit(ctx, "tenant-1", nil)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
