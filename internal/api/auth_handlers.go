package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/safar/go-storefront/internal/auth"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/store"
)

const (
	defaultOrdersLimit = 20
	maxOrdersLimit     = 100
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string       `json:"accessToken"`
	User        *models.User `json:"user"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, hash, err := s.store.GetUserCredentials(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.respondStoreError(w, r, err)
		return
	}
	if !auth.CheckPassword(hash, req.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s.respondWithToken(w, r, http.StatusOK, user)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		respondError(w, http.StatusBadRequest, "Password must be at most 72 bytes")
		return
	}

	hash, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	user, err := s.store.CreateUser(r.Context(), req.Email, hash, models.RoleCustomer)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}

	s.logFor(r).Info("user registered", zap.Int64("user_id", user.ID))
	s.respondWithToken(w, r, http.StatusCreated, user)
}

func (s *Server) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, status, authResponse{AccessToken: token, User: user})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) myOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultOrdersLimit
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		if n > maxOrdersLimit {
			n = maxOrdersLimit
		}
		limit = n
	}

	cursor := query.Get("cursor")
	if _, err := store.DecodeCursor(cursor); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid cursor")
		return
	}

	page, err := s.store.ListUserOrdersCursor(r.Context(), userIDFrom(r), cursor, limit)
	if err != nil {
		s.respondStoreError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}
