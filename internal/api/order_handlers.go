package api

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/store"
)

// createOrderRequest is the checkout body. Line prices and the total are
// accepted for compatibility with the browser client but never trusted.
type createOrderRequest struct {
	Items []struct {
		ProductID int64            `json:"productId"`
		Quantity  int              `json:"quantity"`
		Price     *decimal.Decimal `json:"price,omitempty"`
	} `json:"items"`
	Total *decimal.Decimal `json:"total,omitempty"`
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order items")
		return
	}

	placement := store.PlaceOrderRequest{UserID: userIDFrom(r)}
	for _, item := range req.Items {
		placement.Items = append(placement.Items, store.OrderItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := s.store.PlaceOrder(r.Context(), placement)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	log := s.logFor(r)
	if req.Total != nil && !req.Total.Equal(order.Total) {
		log.Warn("client total differs from computed total",
			zap.Int64("order_id", order.ID),
			zap.String("client_total", req.Total.String()),
			zap.String("total", order.Total.String()),
		)
	}
	log.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.String("total", order.Total.String()),
	)

	respondJSON(w, http.StatusCreated, order)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.store.ListOrders(r.Context())
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	order, err := s.store.GetOrder(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil || !models.ValidOrderStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	order, err := s.store.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	s.logFor(r).Info("order status updated",
		zap.Int64("order_id", id),
		zap.String("status", req.Status),
	)
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	user, err := s.currentUser(r)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	order, err := s.store.GetOrder(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		respondError(w, http.StatusForbidden, "Forbidden")
		return
	}
	if order.Status != models.OrderStatusPending {
		respondError(w, http.StatusConflict, "Order is not pending")
		return
	}

	intent, err := s.payments.CreateIntent(r.Context(), order)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, intent)
}
