package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/commerce-policy/internal/api/middleware"
	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/command"
	"github.com/example/commerce-policy/internal/domain/review"
	"github.com/example/commerce-policy/internal/query"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	logger       *zap.Logger
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		logger:       logger,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Checkout Handlers

func (h *Handlers) Quote(w http.ResponseWriter, r *http.Request) {
	var cmd command.ComputeTotals
	if !h.decode(w, r, &cmd) {
		return
	}

	quote, err := h.cmdHandler.ComputeTotals(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Order Handlers

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.PlaceOrder
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.CustomerID = middleware.GetCustomerID(r.Context())
	cmd.CustomerEmail = middleware.GetEmail(r.Context())

	o, err := h.cmdHandler.PlaceOrder(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queryHandler.ListOrders(r.Context(), middleware.GetCustomerID(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	o, err := h.queryHandler.GetOrder(ctx, chi.URLParam(r, "id"), middleware.GetCustomerID(ctx), middleware.IsAdmin(ctx))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	cmd := command.CancelOrder{
		OrderID:     chi.URLParam(r, "id"),
		RequesterID: middleware.GetCustomerID(r.Context()),
	}
	o, err := h.cmdHandler.CancelOrder(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.AdvanceOrder
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.OrderID = chi.URLParam(r, "id")

	o, err := h.cmdHandler.AdvanceOrder(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Review Handlers

func (h *Handlers) VerifiedPurchase(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	verified, err := h.queryHandler.IsVerifiedPurchase(r.Context(), middleware.GetCustomerID(r.Context()), productID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"product_id":        productID,
		"verified_purchase": verified,
	})
}

func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.queryHandler.ListReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []*review.Review{}
	}
	respondJSON(w, http.StatusOK, reviews)
}

func (h *Handlers) ReviewSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.queryHandler.GetReviewSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handlers) CreateReview(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateReview
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.ProductID = chi.URLParam(r, "id")
	cmd.AuthorID = middleware.GetCustomerID(r.Context())

	rv, err := h.cmdHandler.CreateReview(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rv)
}

func (h *Handlers) EditReview(w http.ResponseWriter, r *http.Request) {
	var cmd command.EditReview
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.ReviewID = chi.URLParam(r, "id")
	cmd.RequesterID = middleware.GetCustomerID(r.Context())

	rv, err := h.cmdHandler.EditReview(r.Context(), cmd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rv)
}

func (h *Handlers) DeleteReview(w http.ResponseWriter, r *http.Request) {
	cmd := command.DeleteReview{
		ReviewID:    chi.URLParam(r, "id"),
		RequesterID: middleware.GetCustomerID(r.Context()),
	}
	if err := h.cmdHandler.DeleteReview(r.Context(), cmd); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into v, answering 400 itself on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondError(w, r, apperr.NewValidationError("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
