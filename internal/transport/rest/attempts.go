package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/payment"
	"github.com/frahmantamala/recurrent-payments/internal/core/datamodel/recurrentpayment"
	"github.com/frahmantamala/recurrent-payments/internal/transport"
)

type AttemptLookup interface {
	GetAttempt(ctx context.Context, id string) (*recurrentpayment.RecurrentPayment, error)
}

type PaymentLookup interface {
	GetByMultiPaymentID(ctx context.Context, multiPaymentID string) ([]*payment.Payment, error)
}

type AttemptResponse struct {
	ID           string     `json:"id"`
	ContextID    string     `json:"context_id"`
	Status       string     `json:"status"`
	TryCount     int        `json:"try_count"`
	PayAfter     *time.Time `json:"pay_after,omitempty"`
	ReceiptIDs   []string   `json:"receipt_ids"`
	ErrorCode    string     `json:"error_code,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type PaymentResponse struct {
	ID             string          `json:"id"`
	ReceiptID      string          `json:"receipt_id"`
	MultiPaymentID string          `json:"multi_payment_id"`
	Status         string          `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
}

type AttemptHandler struct {
	*transport.BaseHandler
	attempts AttemptLookup
	payments PaymentLookup
}

func NewAttemptHandler(base *transport.BaseHandler, attempts AttemptLookup, payments PaymentLookup) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler: base,
		attempts:    attempts,
		payments:    payments,
	}
}

// GetAttempt handles GET /recurrent-payments/{id}.
func (h *AttemptHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.attempts.GetAttempt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	ids, err := attempt.ReceiptIDs()
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}

	h.WriteJSON(w, http.StatusOK, AttemptResponse{
		ID:           attempt.ID,
		ContextID:    attempt.RecurrentPaymentContextID,
		Status:       string(attempt.Status),
		TryCount:     attempt.TryCount,
		PayAfter:     attempt.PayAfter,
		ReceiptIDs:   ids,
		ErrorCode:    string(attempt.LastErrorCode()),
		ErrorMessage: attempt.LastErrorMessage(),
		CreatedAt:    attempt.CreatedAt,
	})
}

// ListMultiPayment handles GET /multi-payments/{id}/payments.
func (h *AttemptHandler) ListMultiPayment(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.GetByMultiPaymentID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, PaymentResponse{
			ID:             p.ID,
			ReceiptID:      p.ReceiptID,
			MultiPaymentID: p.MultiPaymentID,
			Status:         string(p.Status),
			Amount:         p.Amount,
		})
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"payments": out})
}
