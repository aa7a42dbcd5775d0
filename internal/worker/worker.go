// Package worker provides async invoice processing for the Pro tier.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/portfolio"
)

// Worker analyzes invoices asynchronously from the EventBus.
type Worker struct {
	bus       domain.EventBus
	processor *portfolio.Processor

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// Config holds worker configuration.
type Config struct {
	// TenantIDs is the list of tenants to process (empty = all via wildcard if supported)
	TenantIDs []string

	// WorkerCount is the number of concurrent workers per tenant
	WorkerCount int
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, processor *portfolio.Processor) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:       bus,
		processor: processor,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins processing messages for the given tenants.
func (w *Worker) Start(cfg Config) error {
	if len(cfg.TenantIDs) == 0 {
		return w.startGlobalWorker()
	}

	for _, tenantID := range cfg.TenantIDs {
		if err := w.startTenantWorker(tenantID); err != nil {
			slog.Error("failed to start worker for tenant",
				"tenant_id", tenantID,
				"error", err,
			)
			continue
		}
	}

	slog.Info("workers started",
		"tenant_count", len(cfg.TenantIDs),
	)

	return nil
}

// startGlobalWorker starts a worker that processes all tenants (for testing/dev).
func (w *Worker) startGlobalWorker() error {
	// Subscribe using a special "global" tenant ID
	// In production, you'd want to subscribe with wildcards or JetStream
	sub, err := w.bus.Subscribe(w.ctx, "_global", domain.TopicInvoiceReceived, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("global worker started")
	return nil
}

// startTenantWorker starts workers for a specific tenant.
func (w *Worker) startTenantWorker(tenantID string) error {
	sub, err := w.bus.Subscribe(w.ctx, tenantID, domain.TopicInvoiceReceived, func(ctx context.Context, msg *domain.Message) error {
		return w.processInvoice(ctx, tenantID, msg)
	})
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("tenant worker started",
		"tenant_id", tenantID,
		"topic", domain.TopicInvoiceReceived,
	)

	return nil
}

// handleMessage handles messages from global subscription.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	return w.processInvoice(ctx, msg.TenantID, msg)
}

// InvoiceMessage is the message payload for async invoice analysis.
type InvoiceMessage struct {
	TenantID     string          `json:"tenantId"`
	TraceID      string          `json:"traceId"`
	AnalysisType string          `json:"analysisType,omitempty"`
	Invoice      *domain.Invoice `json:"invoice"`
}

// processInvoice runs the analysis pipeline over a single invoice.
func (w *Worker) processInvoice(ctx context.Context, tenantID string, msg *domain.Message) error {
	start := time.Now()

	var invMsg InvoiceMessage
	if err := json.Unmarshal(msg.Payload, &invMsg); err != nil {
		slog.Error("failed to parse invoice message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}
	if invMsg.Invoice == nil {
		slog.Error("invoice message has no invoice", "message_id", msg.ID)
		return nil
	}

	// Use message tenant if provided
	if invMsg.TenantID != "" {
		tenantID = invMsg.TenantID
	}

	traceID := invMsg.TraceID
	if traceID == "" {
		traceID = msg.ID
	}

	slog.Debug("processing invoice",
		"invoice_id", invMsg.Invoice.ID,
		"tenant_id", tenantID,
		"trace_id", traceID,
	)

	analysis, err := w.processor.Analyze(ctx, tenantID, []*domain.Invoice{invMsg.Invoice}, invMsg.AnalysisType)
	if err != nil {
		slog.Error("invoice analysis failed",
			"invoice_id", invMsg.Invoice.ID,
			"error", err,
		)
		return err
	}
	analysis.Metadata.TraceID = traceID

	resultPayload, _ := json.Marshal(analysis)
	if err := w.bus.Publish(ctx, tenantID, domain.TopicAnalysisCompleted, resultPayload); err != nil {
		slog.Error("failed to publish analysis result",
			"invoice_id", invMsg.Invoice.ID,
			"error", err,
		)
	}

	// High fraud risk goes to the alert topic for downstream review.
	assessment := analysis.Results[0]
	if assessment.FraudRisk != nil && assessment.FraudRisk.RiskLevel == domain.RiskHigh {
		if err := w.bus.Publish(ctx, tenantID, domain.TopicAlert, resultPayload); err != nil {
			slog.Error("failed to publish alert",
				"invoice_id", invMsg.Invoice.ID,
				"error", err,
			)
		}
	}

	slog.Info("invoice processed",
		"invoice_id", invMsg.Invoice.ID,
		"tenant_id", tenantID,
		"quality_score", assessment.QualityScore,
		"recommendation", assessment.Recommendation,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops all workers.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("workers stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
