package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/opensource-finance/kestrel/internal/compliance"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/matching"
	"github.com/opensource-finance/kestrel/internal/portfolio"
	"github.com/opensource-finance/kestrel/internal/repository"
	"github.com/opensource-finance/kestrel/internal/scoring"
	"github.com/opensource-finance/kestrel/internal/screening"
)

// SupplierCatalogSize is the number of synthetic suppliers backing the
// origination catalog when no repository data exists.
const SupplierCatalogSize = 1247

// Handler holds dependencies for API handlers.
type Handler struct {
	repo       domain.Repository
	cache      domain.Cache
	bus        domain.EventBus
	processor  *portfolio.Processor
	matching   *matching.Service
	compliance *compliance.Engine
	screening  *screening.Engine
	leads      *scoring.LeadScorer
	version    string

	// suppliers is the synthetic origination catalog, sorted by AI
	// score descending at construction time.
	suppliers []*domain.Supplier
}

// Deps bundles handler dependencies.
type Deps struct {
	Repo       domain.Repository
	Cache      domain.Cache
	Bus        domain.EventBus
	Processor  *portfolio.Processor
	Matching   *matching.Service
	Compliance *compliance.Engine
	Screening  *screening.Engine
	Leads      *scoring.LeadScorer
	Suppliers  []*domain.Supplier
	Version    string
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	suppliers := make([]*domain.Supplier, len(deps.Suppliers))
	copy(suppliers, deps.Suppliers)
	sort.SliceStable(suppliers, func(i, j int) bool {
		return suppliers[i].AIScore > suppliers[j].AIScore
	})

	return &Handler{
		repo:       deps.Repo,
		cache:      deps.Cache,
		bus:        deps.Bus,
		processor:  deps.Processor,
		matching:   deps.Matching,
		compliance: deps.Compliance,
		screening:  deps.Screening,
		leads:      deps.Leads,
		suppliers:  suppliers,
		version:    deps.Version,
	}
}

// envelope is the standard API response shape.
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{
		Success:   false,
		Error:     msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeDomainError maps domain sentinel errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, repository.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnknownEntity), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// AnalyzeRequest is the request body for POST /api/receivables/analyze.
type AnalyzeRequest struct {
	Invoices     []*domain.Invoice `json:"invoices"`
	AnalysisType string            `json:"analysisType,omitempty"`
}

// AnalyzeReceivables handles POST /api/receivables/analyze.
func (h *Handler) AnalyzeReceivables(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	traceID := GetTraceID(ctx)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	analysis, err := h.processor.Analyze(ctx, tenantID, req.Invoices, req.AnalysisType)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	analysis.Metadata.TraceID = traceID

	if h.bus != nil {
		payload, _ := json.Marshal(analysis)
		if err := h.bus.Publish(ctx, tenantID, domain.TopicAnalysisCompleted, payload); err != nil {
			slog.Warn("failed to publish analysis event", "analysis_id", analysis.ID, "error", err)
		}
	}

	writeSuccess(w, http.StatusOK, analysis)
}

// ReceivableMetrics handles GET /api/receivables/metrics.
func (h *Handler) ReceivableMetrics(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.processor.GetMetrics())
}

// AllocateRequest is the request body for POST /api/matching/allocate.
type AllocateRequest struct {
	Invoices    []*domain.Invoice    `json:"invoices"`
	Preferences matching.Preferences `json:"preferences,omitempty"`
}

// Allocate handles POST /api/matching/allocate.
func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	result, err := h.matching.Allocate(ctx, tenantID, req.Invoices, req.Preferences)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}

// CommitRequest is the request body for POST /api/matching/commit.
type CommitRequest struct {
	Allocations []domain.Allocation `json:"allocations"`
}

// CommitAllocations handles POST /api/matching/commit. Allocations are
// committed via reserve-then-commit; ones the buyer can't cover come
// back uncommitted.
func (h *Handler) CommitAllocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	committed, err := h.matching.Commit(ctx, tenantID, req.Allocations)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	committedCount := 0
	for _, a := range committed {
		if a.Committed {
			committedCount++
		}
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"allocations": committed,
		"committed":   committedCount,
		"total":       len(committed),
	})
}

// ListBuyers handles GET /api/matching/buyers.
func (h *Handler) ListBuyers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	buyers, err := h.matching.Buyers(ctx, tenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"buyers": buyers,
		"count":  len(buyers),
	})
}

// MatchingMetrics handles GET /api/matching/metrics.
func (h *Handler) MatchingMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	buyers, err := h.matching.Buyers(ctx, tenantID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, matching.Metrics(buyers))
}

// VerifyCompliance handles GET /api/compliance/verify/{id}.
func (h *Handler) VerifyCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	supplierID := chi.URLParam(r, "id")
	forceRefresh := r.URL.Query().Get("forceRefresh") == "true"

	result, err := h.compliance.Verify(ctx, tenantID, supplierID, forceRefresh)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.bus != nil {
		payload, _ := json.Marshal(result)
		if err := h.bus.Publish(ctx, tenantID, domain.TopicComplianceCompleted, payload); err != nil {
			slog.Warn("failed to publish compliance event", "supplier_id", supplierID, "error", err)
		}
	}

	writeSuccess(w, http.StatusOK, result)
}

// ComplianceStatus handles GET /api/compliance/status/{id}.
func (h *Handler) ComplianceStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)
	supplierID := chi.URLParam(r, "id")

	status, err := h.compliance.Status(ctx, tenantID, supplierID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, status)
}

// BulkVerifyRequest is the request body for POST /api/compliance/bulk-verify.
type BulkVerifyRequest struct {
	SupplierIDs []string `json:"supplierIds"`
}

// BulkVerify handles POST /api/compliance/bulk-verify.
func (h *Handler) BulkVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req BulkVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	if h.cache != nil {
		if _, err := h.cache.IncrementCounter(ctx, tenantID, "bulk-verify", time.Hour); err != nil {
			slog.Warn("failed to count bulk-verify request", "error", err)
		}
	}

	results, err := h.compliance.BulkVerify(ctx, tenantID, req.SupplierIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"results": results,
		"count":   len(results),
	})
}

// ComplianceMetrics handles GET /api/compliance/metrics.
func (h *Handler) ComplianceMetrics(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, h.compliance.GetMetrics())
}

// SupplierPage is the paginated supplier listing payload.
type SupplierPage struct {
	Suppliers  []*domain.Supplier `json:"suppliers"`
	Pagination Pagination         `json:"pagination"`
}

// Pagination describes a page of results.
type Pagination struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// ListSuppliers handles GET /api/origination/suppliers. The catalog is
// served from the repository when populated, falling back to the
// synthetic generator output.
func (h *Handler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	filter := domain.SupplierFilter{
		Region:   r.URL.Query().Get("region"),
		Industry: r.URL.Query().Get("industry"),
		Page:     1,
		Limit:    50,
	}
	if v := r.URL.Query().Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		filter.Page = page
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		filter.Limit = limit
	}
	if v := r.URL.Query().Get("minVolume"); v != "" {
		minVolume, err := strconv.ParseFloat(v, 64)
		if err != nil || minVolume < 0 {
			writeError(w, http.StatusBadRequest, "minVolume must be a non-negative number")
			return
		}
		filter.MinVolume = minVolume
	}

	if h.repo != nil {
		suppliers, total, err := h.repo.ListSuppliers(ctx, tenantID, filter)
		if err == nil && total > 0 {
			writeSuccess(w, http.StatusOK, &SupplierPage{
				Suppliers: suppliers,
				Pagination: Pagination{
					Page:    filter.Page,
					Limit:   filter.Limit,
					Total:   total,
					HasMore: filter.Page*filter.Limit < total,
				},
			})
			return
		}
		if err != nil {
			slog.Warn("supplier listing fell back to catalog", "error", err)
		}
	}

	writeSuccess(w, http.StatusOK, h.catalogPage(filter))
}

// catalogPage filters and paginates the synthetic supplier catalog.
func (h *Handler) catalogPage(filter domain.SupplierFilter) *SupplierPage {
	matched := make([]*domain.Supplier, 0, len(h.suppliers))
	for _, s := range h.suppliers {
		if filter.Region != "" && s.Region != filter.Region {
			continue
		}
		if filter.Industry != "" && s.Industry != filter.Industry {
			continue
		}
		if filter.MinVolume > 0 && s.PredictedVolume < filter.MinVolume {
			continue
		}
		matched = append(matched, s)
	}

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}

	return &SupplierPage{
		Suppliers: matched[start:end],
		Pagination: Pagination{
			Page:    filter.Page,
			Limit:   filter.Limit,
			Total:   total,
			HasMore: end < total,
		},
	}
}

// ScoreRequest is the request body for POST /api/origination/score.
type ScoreRequest struct {
	SupplierID string              `json:"supplierId"`
	Criteria   domain.LeadCriteria `json:"criteria,omitempty"`
}

// ScoreLead handles POST /api/origination/score.
func (h *Handler) ScoreLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if req.SupplierID == "" {
		writeError(w, http.StatusBadRequest, "supplierId is required")
		return
	}

	supplier := h.lookupSupplier(r, tenantID, req.SupplierID)

	score, err := h.leads.Score(supplier, req.Criteria)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, score)
}

// lookupSupplier resolves a supplier from the catalog, then the
// repository, then a neutral placeholder so scoring always has a
// subject to work with.
func (h *Handler) lookupSupplier(r *http.Request, tenantID, supplierID string) *domain.Supplier {
	for _, s := range h.suppliers {
		if s.ID == supplierID {
			return s
		}
	}

	if h.repo != nil {
		if s, err := h.repo.GetSupplier(r.Context(), tenantID, supplierID); err == nil {
			return s
		}
	}

	return &domain.Supplier{
		ID:              supplierID,
		Name:            fmt.Sprintf("Supplier %s", supplierID),
		Region:          "Asia-Pacific",
		Country:         "SG",
		Industry:        "Manufacturing",
		YearsInBusiness: 8,
		EmployeeCount:   150,
		CreditRating:    "A-",
		PredictedVolume: 2500000,
	}
}

// OriginationMetrics handles GET /api/origination/metrics.
func (h *Handler) OriginationMetrics(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"totalSuppliers":    SupplierCatalogSize,
		"qualifiedLeads":    892,
		"conversionRate":    0.34,
		"averageLeadScore":  76.8,
		"averageOnboarding": "4.2 days",
		"regionalDistribution": map[string]int{
			"Asia-Pacific":  412,
			"Europe":        318,
			"North America": 287,
			"Latin America": 134,
			"Africa":        58,
			"Middle East":   38,
		},
		"topIndustries": []string{
			"Manufacturing",
			"Technology",
			"Healthcare",
			"Retail",
		},
	})
}

// ListScreeningRules handles GET /api/screening/rules.
func (h *Handler) ListScreeningRules(w http.ResponseWriter, r *http.Request) {
	loaded := h.screening.GetLoadedRules()

	writeSuccess(w, http.StatusOK, map[string]any{
		"rules": loaded,
		"count": len(loaded),
	})
}

// GetScreeningRule handles GET /api/screening/rules/{id}.
func (h *Handler) GetScreeningRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")
	if ruleID == "" {
		writeError(w, http.StatusBadRequest, "rule id is required")
		return
	}

	for _, rule := range h.screening.GetLoadedRules() {
		if rule.ID == ruleID {
			writeSuccess(w, http.StatusOK, rule)
			return
		}
	}

	writeError(w, http.StatusNotFound, "rule not found")
}

// CreateRuleRequest is the request body for creating a screening rule.
type CreateRuleRequest struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Expression  string            `json:"expression"`
	Bands       []domain.RuleBand `json:"bands"`
	Weight      float64           `json:"weight"`
	Enabled     bool              `json:"enabled"`
}

// CreateScreeningRule handles POST /api/screening/rules. The rule is
// validated, loaded into the engine, and persisted. A reload picks up
// persisted changes across restarts.
func (h *Handler) CreateScreeningRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	if req.ID == "" || req.Name == "" || req.Expression == "" {
		writeError(w, http.StatusBadRequest, "id, name, and expression are required")
		return
	}

	rule := &domain.ScreeningRule{
		ID:          req.ID,
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
		Version:     "1.0.0",
		Expression:  req.Expression,
		Bands:       req.Bands,
		Weight:      req.Weight,
		Enabled:     req.Enabled,
	}

	// Validate CEL expression by attempting to load
	if err := h.screening.LoadRule(rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid CEL expression: "+err.Error())
		return
	}

	if h.repo != nil {
		if err := h.repo.SaveScreeningRule(ctx, tenantID, rule); err != nil {
			slog.Error("failed to save screening rule", "id", rule.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save rule")
			return
		}
	}

	slog.Info("screening rule created", "id", rule.ID, "name", rule.Name)
	writeJSON(w, http.StatusCreated, envelope{
		Success:   true,
		Data:      rule,
		Message:   "Rule created. Call POST /api/screening/rules/reload to apply changes.",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ReloadScreeningRules handles POST /api/screening/rules/reload. Rules
// are reloaded from the database, enabling hot-reload without restart.
func (h *Handler) ReloadScreeningRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := GetTenantID(ctx)

	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "repository not available")
		return
	}

	dbRules, err := h.repo.ListScreeningRules(ctx, tenantID)
	if err != nil {
		slog.Error("failed to list screening rules", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load rules from database")
		return
	}

	if err := h.screening.ReloadRules(dbRules); err != nil {
		slog.Error("failed to reload screening rules", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reload rules: "+err.Error())
		return
	}

	slog.Info("screening rules reloaded", "count", len(dbRules))
	writeSuccess(w, http.StatusOK, map[string]any{
		"message": "rules reloaded successfully",
		"count":   len(dbRules),
	})
}
