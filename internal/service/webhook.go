package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/settlements/internal/auth"
	"github.com/mmynk/settlements/internal/middleware"
	"github.com/mmynk/settlements/internal/models"
	"github.com/mmynk/settlements/internal/settlement"
)

const maxWebhookBody = 1 << 20

// PaidOrderHandler creates the settlement for a paid order.
type PaidOrderHandler interface {
	HandlePaidOrder(ctx context.Context, order settlement.PaidOrder) (*models.Settlement, bool, error)
}

// PaymentWebhook receives paid-order events from the order-payment pipeline.
// Callers authenticate with the system key, either as a bearer token or in
// the X-System-Key header.
type PaymentWebhook struct {
	orders PaidOrderHandler
	key    *auth.SystemKey
}

// NewPaymentWebhook creates the webhook.
func NewPaymentWebhook(orders PaidOrderHandler, key *auth.SystemKey) *PaymentWebhook {
	return &PaymentWebhook{orders: orders, key: key}
}

// Routes returns the webhook router, meant to be mounted under /internal/v1.
func (h *PaymentWebhook) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.requireSystemKey)
	r.Post("/orders/paid", h.OrderPaid)
	return r
}

func (h *PaymentWebhook) requireSystemKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get("X-System-Key")
		if presented == "" {
			presented, _ = middleware.BearerToken(r.Header.Get("Authorization"))
		}
		if err := h.key.Verify(presented); err != nil {
			slog.Warn("Payment webhook rejected", "remote_addr", r.RemoteAddr, "error", err)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type paidOrderRequest struct {
	OrderID      string    `json:"order_id"`
	WholesalerID string    `json:"wholesaler_id"`
	OrderAmount  int64     `json:"order_amount"`
	PaidAt       time.Time `json:"paid_at"`
}

type paidOrderResponse struct {
	Settlement *Settlement `json:"settlement"`
	Created    bool        `json:"created"`
}

// OrderPaid handles POST /orders/paid. It answers 201 when the settlement was
// created and 200 when it already existed, so the pipeline may redeliver freely.
func (h *PaymentWebhook) OrderPaid(w http.ResponseWriter, r *http.Request) {
	var req paidOrderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	s, created, err := h.orders.HandlePaidOrder(r.Context(), settlement.PaidOrder{
		OrderID:      req.OrderID,
		WholesalerID: req.WholesalerID,
		OrderAmount:  req.OrderAmount,
		PaidAt:       req.PaidAt,
	})
	switch {
	case errors.Is(err, settlement.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, settlement.ErrTimeout):
		writeError(w, http.StatusGatewayTimeout, "timed out")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "settlement not created")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, paidOrderResponse{Settlement: toSettlement(s), Created: created})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
