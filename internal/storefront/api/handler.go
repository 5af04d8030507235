package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"ms-storefront/internal/auth"
	"ms-storefront/internal/models"
	"ms-storefront/internal/storefront"
)

type Handler struct {
	Service *storefront.StorefrontService
}

func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.Products()
	if err != nil {
		http.Error(w, "Could not fetch products: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, products)
}

func (h *Handler) Offers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.Service.Offers()
	if err != nil {
		http.Error(w, "Could not fetch offers: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, offers)
}

func (h *Handler) StoreStatus(w http.ResponseWriter, r *http.Request) {
	open, err := h.Service.StoreStatus(r.Context())
	if err != nil {
		http.Error(w, "Could not read store status: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"is_store_open": open})
}

func (h *Handler) PlatformFee(w http.ResponseWriter, r *http.Request) {
	fee, err := h.Service.PlatformFee(r.Context())
	if err != nil {
		http.Error(w, "Could not read platform fee: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int64{"platform_fee": fee})
}

func (h *Handler) SurgeFee(w http.ResponseWriter, r *http.Request) {
	fee, err := h.Service.SurgeFee(r.Context())
	if err != nil {
		http.Error(w, "Could not read surge fee: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int64{"surge_fee": fee})
}

func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string `json:"code"`
		Subtotal int64  `json:"subtotal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.Service.ValidateCoupon(req.Code, req.Subtotal)
	if err != nil {
		if errors.Is(err, storefront.ErrInvalidCoupon) {
			http.Error(w, "Invalid or expired coupon", http.StatusNotFound)
			return
		}
		http.Error(w, "Could not validate coupon: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) MyAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.Service.Addresses(auth.UserID(r.Context()))
	if err != nil {
		http.Error(w, "Could not fetch addresses: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, addresses)
}

func (h *Handler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var address models.Address
	if err := json.NewDecoder(r.Body).Decode(&address); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := h.Service.AddAddress(auth.UserID(r.Context()), address)
	if err != nil {
		http.Error(w, "Could not save address: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(saved)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
