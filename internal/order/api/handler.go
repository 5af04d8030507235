package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"

	"ms-storefront/internal/auth"
	"ms-storefront/internal/models"
	"ms-storefront/internal/order"
)

type Handler struct {
	OrderService *order.OrderService
}

// FinalizeOrder is the post-payment endpoint. A signature failure is a 400
// with nothing persisted; a persistence failure after a valid signature is
// a 500 telling the customer to contact support.
func (h *Handler) FinalizeOrder(w http.ResponseWriter, r *http.Request) {
	var req models.FinalizeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	userID := auth.UserID(r.Context())
	orderID, err := h.OrderService.FinalizeOrder(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrInvalidPaymentSignature):
			http.Error(w, "Payment verification failed", http.StatusBadRequest)
		case errors.Is(err, order.ErrOrderPersistence):
			http.Error(w, "Payment received but order could not be saved, please contact support", http.StatusInternalServerError)
		default:
			http.Error(w, "Could not place order: "+err.Error(), http.StatusBadRequest)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.FinalizeOrderResponse{
		Status:  "created",
		OrderID: orderID,
	})
}

// CalculateFee returns the pre-payment delivery fee estimate under the
// currently configured mode.
func (h *Handler) CalculateFee(w http.ResponseWriter, r *http.Request) {
	var req models.FeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	fee, err := h.OrderService.QuoteFee(r.Context(), req)
	if err != nil {
		http.Error(w, "Could not calculate delivery fee: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fee)
}

func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	orders, err := h.OrderService.MyOrders(userID)
	if err != nil {
		http.Error(w, "Could not fetch orders: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	o, err := h.OrderService.GetOrder(auth.UserID(r.Context()), orderID)
	if err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(o)
}

// TrackingQR renders the order's courier tracking link as a QR code PNG so
// it can be printed on the package slip.
func (h *Handler) TrackingQR(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	trackingURL, err := h.OrderService.TrackingURLFor(orderID)
	if err != nil || trackingURL == "" {
		http.Error(w, "No tracking link for this order yet", http.StatusNotFound)
		return
	}

	png, err := qrcode.Encode(trackingURL, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Could not render QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// VeloxWebhook receives courier status pushes from the Velox partner.
func (h *Handler) VeloxWebhook(w http.ResponseWriter, r *http.Request) {
	var event struct {
		OrderID     int64  `json:"order_id"`
		Status      string `json:"status"`
		TrackingURL string `json:"tracking_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Invalid webhook body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if event.OrderID == 0 || event.Status == "" {
		http.Error(w, "order_id and status are required", http.StatusBadRequest)
		return
	}

	taskID := strconv.FormatInt(event.OrderID, 10)
	if _, err := h.OrderService.ApplyPartnerUpdate("velox", taskID, event.Status, event.TrackingURL); err != nil {
		http.Error(w, "Unknown delivery task", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
