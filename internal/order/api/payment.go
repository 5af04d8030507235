package api

import (
	"encoding/json"
	"net/http"

	"ms-storefront/internal/payment"
	"ms-storefront/internal/utils"
)

// PaymentHandler exposes the checkout-side gateway operations. The key id
// is public and goes back to the browser so it can open the payment widget.
type PaymentHandler struct {
	Gateway *payment.Gateway
	KeyID   string
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount  int64  `json:"amount"`
		Receipt string `json:"receipt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Amount <= 0 {
		http.Error(w, "Amount must be positive", http.StatusBadRequest)
		return
	}
	if req.Receipt == "" {
		req.Receipt = utils.GenerateReceiptID()
	}

	order, err := h.Gateway.CreateOrder(r.Context(), req.Amount, req.Receipt)
	if err != nil {
		http.Error(w, "Could not create payment order: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":       order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"key_id":   h.KeyID,
	})
}

// VerifyPayment is a standalone signature check. The finalize endpoint does
// its own verification; this one lets the client pre-check a capture without
// committing an order.
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GatewayOrderID string `json:"gateway_order_id"`
		PaymentID      string `json:"payment_id"`
		Signature      string `json:"signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	valid := h.Gateway.VerifySignature(req.GatewayOrderID, req.PaymentID, req.Signature)
	w.Header().Set("Content-Type", "application/json")
	if !valid {
		w.WriteHeader(http.StatusBadRequest)
	}
	json.NewEncoder(w).Encode(map[string]bool{"valid": valid})
}
