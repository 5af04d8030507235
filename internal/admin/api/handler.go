package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-storefront/internal/admin"
	"ms-storefront/internal/utils"
)

type Handler struct {
	AdminService *admin.AdminService
}

func (h *Handler) GetDeliveryMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.AdminService.DeliveryMode()
	if err != nil {
		http.Error(w, "Could not read delivery mode: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"delivery_mode": mode})
}

func (h *Handler) SetDeliveryMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.AdminService.SetDeliveryMode(req.Mode); err != nil {
		if errors.Is(err, admin.ErrInvalidMode) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Could not update delivery mode: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(utils.SuccessResponse("Delivery mode updated", map[string]string{"mode": req.Mode}))
}

func (h *Handler) SetSetting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.AdminService.SetPublicSetting(r.Context(), req.Key, req.Value); err != nil {
		http.Error(w, "Could not update setting: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(utils.SuccessResponse("Setting updated", nil))
}

func (h *Handler) PendingOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.AdminService.PendingOrders()
	if err != nil {
		http.Error(w, "Could not fetch pending orders: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(orders)
}

func (h *Handler) ManualBook(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	var req admin.ManualBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.AdminService.ManualBook(r.Context(), orderID, req)
	if err != nil {
		http.Error(w, "Could not book order: "+err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}
