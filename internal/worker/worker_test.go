package worker

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/history"
	"github.com/opensource-finance/kestrel/internal/portfolio"
	"github.com/opensource-finance/kestrel/internal/scoring"
)

func newWorkerProcessor(seed int64) *portfolio.Processor {
	tables := scoring.DefaultRiskTables()
	rnd := scoring.NewRand(seed)
	return portfolio.NewProcessor(portfolio.Config{
		Credit:  scoring.NewCreditScorer(tables, rnd),
		Fraud:   scoring.NewFraudDetector(tables, rnd),
		History: history.New(nil, rnd),
	})
}

func workerInvoice(id string) *domain.Invoice {
	issue := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return &domain.Invoice{
		ID:              id,
		SupplierID:      "supplier-0001",
		DebtorID:        "debtor-0001",
		Amount:          250000.21,
		Currency:        "USD",
		SupplierCountry: "SG",
		DebtorCountry:   "US",
		Region:          "Asia-Pacific",
		Industry:        "Manufacturing",
		PaymentTerms:    "Net 30",
		IssueDate:       issue,
		DueDate:         issue.AddDate(0, 0, 30),
	}
}

func TestWorker(t *testing.T) {
	eventBus := bus.NewChannelBus(100)
	defer eventBus.Close()

	processor := newWorkerProcessor(42)
	worker := NewWorker(eventBus, processor)

	t.Run("StartAndStop", func(t *testing.T) {
		cfg := Config{
			TenantIDs:   []string{"tenant-001"},
			WorkerCount: 1,
		}

		err := worker.Start(cfg)
		if err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		stats := worker.GetStats()
		if stats.SubscriptionCount != 1 {
			t.Errorf("expected 1 subscription, got %d", stats.SubscriptionCount)
		}

		err = worker.Stop()
		if err != nil {
			t.Errorf("Stop failed: %v", err)
		}

		stats = worker.GetStats()
		if stats.SubscriptionCount != 0 {
			t.Errorf("expected 0 subscriptions after stop, got %d", stats.SubscriptionCount)
		}
	})

	t.Run("ProcessInvoice", func(t *testing.T) {
		w := NewWorker(eventBus, newWorkerProcessor(42))

		cfg := Config{
			TenantIDs: []string{"tenant-test"},
		}
		w.Start(cfg)
		defer w.Stop()

		var resultReceived atomic.Bool
		var resultPayload []byte

		eventBus.Subscribe(context.Background(), "tenant-test", domain.TopicAnalysisCompleted, func(ctx context.Context, msg *domain.Message) error {
			resultPayload = msg.Payload
			resultReceived.Store(true)
			return nil
		})

		// Allow subscriptions to be active
		time.Sleep(50 * time.Millisecond)

		invMsg := InvoiceMessage{
			TenantID: "tenant-test",
			TraceID:  "trace-001",
			Invoice:  workerInvoice("inv-001"),
		}

		payload, _ := json.Marshal(invMsg)
		err := eventBus.Publish(context.Background(), "tenant-test", domain.TopicInvoiceReceived, payload)
		if err != nil {
			t.Fatalf("Publish failed: %v", err)
		}

		// Wait for processing
		time.Sleep(100 * time.Millisecond)

		if !resultReceived.Load() {
			t.Error("expected analysis result to be published")
		}

		if resultPayload != nil {
			var analysis domain.ReceivableAnalysis
			if err := json.Unmarshal(resultPayload, &analysis); err != nil {
				t.Fatalf("failed to parse analysis: %v", err)
			}

			if analysis.TotalAnalyzed != 1 {
				t.Errorf("expected 1 analyzed invoice, got %d", analysis.TotalAnalyzed)
			}
			if analysis.TenantID != "tenant-test" {
				t.Errorf("expected tenantID 'tenant-test', got '%s'", analysis.TenantID)
			}
			if analysis.Metadata.TraceID != "trace-001" {
				t.Errorf("expected traceID 'trace-001', got '%s'", analysis.Metadata.TraceID)
			}
			if len(analysis.Results) != 1 || analysis.Results[0].InvoiceID != "inv-001" {
				t.Errorf("unexpected results: %+v", analysis.Results)
			}
		}
	})

	t.Run("InvalidMessageIgnored", func(t *testing.T) {
		w := NewWorker(eventBus, newWorkerProcessor(42))

		cfg := Config{
			TenantIDs: []string{"tenant-bad"},
		}
		w.Start(cfg)
		defer w.Stop()

		var resultReceived atomic.Bool
		eventBus.Subscribe(context.Background(), "tenant-bad", domain.TopicAnalysisCompleted, func(ctx context.Context, msg *domain.Message) error {
			resultReceived.Store(true)
			return nil
		})

		time.Sleep(50 * time.Millisecond)

		// Message without an invoice should not produce a result.
		payload, _ := json.Marshal(InvoiceMessage{TenantID: "tenant-bad"})
		eventBus.Publish(context.Background(), "tenant-bad", domain.TopicInvoiceReceived, payload)

		time.Sleep(100 * time.Millisecond)

		if resultReceived.Load() {
			t.Error("message without invoice must not publish a result")
		}
	})

	t.Run("MultiTenant", func(t *testing.T) {
		w := NewWorker(eventBus, processor)

		cfg := Config{
			TenantIDs: []string{"tenant-a", "tenant-b"},
		}
		w.Start(cfg)
		defer w.Stop()

		stats := w.GetStats()
		if stats.SubscriptionCount != 2 {
			t.Errorf("expected 2 subscriptions for 2 tenants, got %d", stats.SubscriptionCount)
		}
	})
}

func TestInvoiceMessageParsing(t *testing.T) {
	msg := InvoiceMessage{
		TenantID:     "tenant-001",
		TraceID:      "trace-456",
		AnalysisType: domain.AnalysisFull,
		Invoice:      workerInvoice("inv-123"),
	}

	// Marshal and unmarshal
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var parsed InvoiceMessage
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if parsed.Invoice == nil || parsed.Invoice.ID != "inv-123" {
		t.Fatalf("invoice not preserved: %+v", parsed.Invoice)
	}
	if parsed.Invoice.Amount != msg.Invoice.Amount {
		t.Errorf("expected Amount %.2f, got %.2f", msg.Invoice.Amount, parsed.Invoice.Amount)
	}
	if parsed.AnalysisType != domain.AnalysisFull {
		t.Errorf("expected analysisType full, got %s", parsed.AnalysisType)
	}
}
