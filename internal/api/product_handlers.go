package api

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parsePagination reads page and page_size. Neither present means the full
// list. ok is false when either value is malformed.
func parsePagination(r *http.Request) (page, pageSize int, ok bool) {
	query := r.URL.Query()
	rawPage, rawSize := query.Get("page"), query.Get("page_size")
	if rawPage == "" && rawSize == "" {
		return 0, 0, true
	}

	page, pageSize = 1, defaultPageSize
	if rawPage != "" {
		n, err := strconv.Atoi(rawPage)
		if err != nil || n < 1 {
			return 0, 0, false
		}
		page = n
	}
	if rawSize != "" {
		n, err := strconv.Atoi(rawSize)
		if err != nil || n < 1 {
			return 0, 0, false
		}
		pageSize = n
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, true
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	page, pageSize, ok := parsePagination(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid pagination")
		return
	}

	filter := store.ProductFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Page:     page,
		PageSize: pageSize,
	}

	result, err := s.store.ListProducts(r.Context(), filter)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	if pageSize > 0 {
		w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
		w.Header().Set("X-Total-Pages", strconv.Itoa(result.TotalPages))
	}

	products := result.Items
	if products == nil {
		products = []models.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	product, err := s.store.GetProduct(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func decodeProduct(r *http.Request) (models.ProductInput, bool) {
	var in models.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		return in, false
	}
	return in, in.Valid()
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeProduct(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid product")
		return
	}

	product, err := s.store.CreateProduct(r.Context(), in)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	s.logFor(r).Info("product created", zap.Int64("product_id", product.ID))
	respondJSON(w, http.StatusCreated, product)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}
	in, ok := decodeProduct(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid product")
		return
	}

	product, err := s.store.UpdateProduct(r.Context(), id, in)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := s.store.DeleteProduct(r.Context(), id); err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	s.logFor(r).Info("product deleted", zap.Int64("product_id", id))
	w.WriteHeader(http.StatusNoContent)
}
