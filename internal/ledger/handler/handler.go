package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fekuna/omnipos-ledger-service/internal/auth"
	"github.com/fekuna/omnipos-ledger-service/internal/ledger"
	"github.com/fekuna/omnipos-ledger-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-ledger-service/internal/model"
	"github.com/fekuna/omnipos-ledger-service/pkg/logger"
)

// LedgerHandler exposes the ledger operations over HTTP JSON. The caller
// identity arrives in the request context (see server.CallerMiddleware).
type LedgerHandler struct {
	uc     ledger.UseCase
	audit  ledger.AuditRepository
	logger logger.ZapLogger
}

func NewLedgerHandler(uc ledger.UseCase, audit ledger.AuditRepository, log logger.ZapLogger) *LedgerHandler {
	return &LedgerHandler{uc: uc, audit: audit, logger: log}
}

func (h *LedgerHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/products", h.addStock)
	mux.HandleFunc("GET /v1/products/available", h.listAvailable)
	mux.HandleFunc("GET /v1/products/search", h.search)
	mux.HandleFunc("GET /v1/products/{id}", h.getProduct)
	mux.HandleFunc("POST /v1/purchases", h.buy)
	mux.HandleFunc("POST /v1/returns", h.returnProduct)
	mux.HandleFunc("GET /v1/buyers", h.listBuyers)
	mux.HandleFunc("GET /v1/movements", h.listMovements)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

type addStockRequest struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

type buyRequest struct {
	ProductID int   `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type returnRequest struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

type productResponse struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Quantity   int64     `json:"quantity"`
	BuyerCount int       `json:"buyer_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toProductResponse(p *model.Product) productResponse {
	return productResponse{
		ID:         p.ID,
		Name:       p.Name,
		Quantity:   p.Quantity,
		BuyerCount: len(p.Buyers),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (h *LedgerHandler) addStock(w http.ResponseWriter, r *http.Request) {
	var body addStockRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}

	input := &dto.AddStockInput{
		Caller:   auth.GetCaller(r.Context()),
		Name:     body.Name,
		Quantity: body.Quantity,
	}
	p, created, err := h.uc.AddStock(r.Context(), input)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toProductResponse(p))
}

func (h *LedgerHandler) listAvailable(w http.ResponseWriter, r *http.Request) {
	names, err := h.uc.ListAvailable(r.Context())
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *LedgerHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "product not found")
		return
	}
	p, err := h.uc.GetProduct(r.Context(), id)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *LedgerHandler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	products, err := h.uc.SearchProducts(r.Context(), q)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *LedgerHandler) buy(w http.ResponseWriter, r *http.Request) {
	var body buyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}

	input := &dto.BuyInput{
		Buyer:     auth.GetCaller(r.Context()),
		ProductID: body.ProductID,
		Quantity:  body.Quantity,
	}
	p, err := h.uc.Buy(r.Context(), input)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *LedgerHandler) returnProduct(w http.ResponseWriter, r *http.Request) {
	var body returnRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid JSON body")
		return
	}

	input := &dto.ReturnInput{
		Buyer:    auth.GetCaller(r.Context()),
		Name:     body.Name,
		Quantity: body.Quantity,
	}
	p, err := h.uc.Return(r.Context(), input)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *LedgerHandler) listBuyers(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("product")
	buyers, err := h.uc.ListBuyers(r.Context(), name)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buyers)
}

func (h *LedgerHandler) listMovements(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeError(w, http.StatusNotImplemented, "audit_disabled", "movement audit store is not configured")
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	if pageSize <= 0 {
		pageSize = 50
	}

	filters := &dto.MovementFilters{
		ProductName:  q.Get("product"),
		MovementType: q.Get("type"),
		Actor:        q.Get("actor"),
		Page:         page,
		PageSize:     pageSize,
	}
	movements, total, err := h.audit.ListMovements(r.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list movements", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "failed to list movements")
		return
	}
	if movements == nil {
		movements = []model.StockMovement{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"movements": movements,
		"total":     total,
	})
}

// writeLedgerError translates an error kind into a status code and a
// machine-readable body so callers can branch without parsing messages.
func (h *LedgerHandler) writeLedgerError(w http.ResponseWriter, err error) {
	var insufficient *ledger.InsufficientStockError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": map[string]any{
				"kind":       "insufficient_stock",
				"message":    insufficient.Error(),
				"product_id": insufficient.ProductID,
				"name":       insufficient.Name,
				"requested":  insufficient.Requested,
				"available":  insufficient.Available,
			},
		})
		return
	}

	switch {
	case errors.Is(err, ledger.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, ledger.ErrMissingCaller):
		writeError(w, http.StatusUnauthorized, "missing_caller", err.Error())
	case errors.Is(err, ledger.ErrInvalidQuantity), errors.Is(err, ledger.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, ledger.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ledger.ErrPurchaseOpen):
		writeError(w, http.StatusConflict, "purchase_open", err.Error())
	case errors.Is(err, ledger.ErrNoOpenPurchase):
		writeError(w, http.StatusConflict, "no_open_purchase", err.Error())
	case errors.Is(err, ledger.ErrReturnWindowExpired):
		writeError(w, http.StatusUnprocessableEntity, "return_window_expired", err.Error())
	default:
		h.logger.Error("unhandled ledger error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"kind": kind, "message": msg},
	})
}
