package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/growtools/backend/internal/contextkeys"
	"github.com/growtools/backend/internal/domain"
	"github.com/growtools/backend/internal/service"
	"github.com/growtools/backend/pkg/payment"
)

// PaymentHandler serves checkout, the processor webhook, and status polls.
type PaymentHandler struct {
	subs    *service.SubscriptionService
	gateway payment.Gateway
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(subs *service.SubscriptionService, gateway payment.Gateway) *PaymentHandler {
	return &PaymentHandler{subs: subs, gateway: gateway}
}

// Checkout handles POST /api/payment/checkout.
func (h *PaymentHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(contextkeys.UserID).(string)
	if !ok || userID == "" {
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req domain.CheckoutRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}
	if err := Valid(&req); err != nil {
		Error(w, err)
		return
	}

	resp, err := h.subs.CreateCheckout(r.Context(), userID, req.ToolID, req.PlanType)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, resp)
}

// webhookPayload mirrors the processor's callback body. The metadata is
// the same udf map attached at checkout time.
type webhookPayload struct {
	MerchantRef string            `json:"merchantReferenceId"`
	TxnStatus   string            `json:"txnStatus"`
	Amount      int64             `json:"amount"`
	Metadata    map[string]string `json:"udf"`
}

// Webhook handles POST /api/payment/webhook. The signature is verified
// against the raw body before anything is parsed.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		JSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}

	if !h.gateway.VerifySignature(body, r.Header.Get("X-Paygic-Signature")) {
		log.Printf("[payment] webhook signature verification failed")
		JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	if payload.TxnStatus != payment.StatusSuccess {
		log.Printf("[payment] webhook for order %s: status %s, nothing to do",
			payload.MerchantRef, payload.TxnStatus)
		w.WriteHeader(http.StatusOK)
		return
	}

	userID := payload.Metadata["userId"]
	toolID := payload.Metadata["toolId"]
	planType := payload.Metadata["planType"]
	if userID == "" || toolID == "" || planType == "" {
		log.Printf("[payment] webhook for order %s missing metadata", payload.MerchantRef)
		JSON(w, http.StatusBadRequest, map[string]string{"error": "incomplete metadata"})
		return
	}

	if _, err := h.subs.HandlePaymentSuccess(r.Context(), userID, toolID, planType, payload.MerchantRef); err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Status handles GET /api/payment/status/{orderId}: a client-side poll
// for users stuck on the payment page.
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	status, err := h.gateway.CheckStatus(r.Context(), orderID)
	if err != nil {
		Error(w, domain.ErrInternal("failed to check payment status", err))
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"orderId": status.OrderID,
		"status":  status.Status,
	})
}

// Simulate handles POST /api/admin/payment/simulate: creates a
// subscription as if a payment had succeeded. Gated to admins in the
// router; useful for staging without real money.
func (h *PaymentHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId" validate:"required"`
		ToolID   string `json:"toolId" validate:"required"`
		PlanType string `json:"planType" validate:"required,oneof=SHARED PRIVATE"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, err)
		return
	}
	if err := Valid(&req); err != nil {
		Error(w, err)
		return
	}

	sub, err := h.subs.HandlePaymentSuccess(r.Context(), req.UserID, req.ToolID, req.PlanType, "simulated-"+domain.NewID())
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, sub)
}
