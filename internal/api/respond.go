package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"go.uber.org/zap"

	"github.com/safar/go-storefront/internal/auth"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/payment"
	"github.com/safar/go-storefront/internal/store"
)

type errorResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Message: message})
}

// respondStoreError translates domain errors into their HTTP form. Anything
// unrecognised is logged and returned as a 500 carrying the raw message.
func (s *Server) respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *database.StockError
	switch {
	case errors.As(err, &stockErr):
		respondError(w, http.StatusBadRequest, stockErr.Error())
	case errors.Is(err, auth.ErrPasswordTooLong):
		respondError(w, http.StatusBadRequest, "Password must be at most 72 bytes")
	case errors.Is(err, store.ErrInvalidOrderItems):
		respondError(w, http.StatusBadRequest, "Invalid order items")
	case errors.Is(err, payment.ErrNothingToCharge):
		respondError(w, http.StatusConflict, "Order has nothing to charge")
	case errors.Is(err, database.ErrUserNotFound):
		respondError(w, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, database.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, database.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, database.ErrEmailTaken):
		respondError(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, database.ErrProductInUse):
		respondError(w, http.StatusConflict, "Product is referenced by orders")
	default:
		s.logFor(r).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// idParam reads a positive integer path parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
