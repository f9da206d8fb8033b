// Package httpserver provides the HTTP wiring between the web layer and the
// storefront services: catalog queries, cart operations, and the simulated
// auth flows.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"milsabores/pkg/account"
	"milsabores/pkg/cart"
	"milsabores/pkg/catalog"
)

// Server exposes the catalog, the cart service, and the auth service over
// JSON endpoints.
type Server struct {
	catalog  *catalog.Catalog
	cart     *cart.Service
	accounts *account.Service
	logger   *zap.Logger
}

// New builds the server. A nil logger falls back to a no-op logger so tests
// stay quiet.
func New(cat *catalog.Catalog, cartService *cart.Service, accountService *account.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		catalog:  cat,
		cart:     cartService,
		accounts: accountService,
		logger:   logger,
	}
}

// Handler returns the mux with all necessary routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/products", s.productsHandler())
	mux.Handle("/api/product", s.productHandler())
	mux.Handle("/api/categories", s.categoriesHandler())
	mux.Handle("/api/featured", s.featuredHandler())
	mux.Handle("/api/cart", s.cartHandler())
	mux.Handle("/api/login", s.loginHandler())
	mux.Handle("/api/register", s.registerHandler())
	mux.Handle("/api/logout", s.logoutHandler())
	mux.Handle("/api/session", s.sessionHandler())
	return mux
}

// productsHandler runs the filter and sort pipeline from query parameters.
// Supplying min or max activates the price filter; everything else keeps its
// default.
func (s *Server) productsHandler() http.Handler {
	type response struct {
		Products []catalog.Product `json:"products"`
		Stats    catalog.Stats     `json:"stats"`
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		filters := catalog.Filters{
			Category:   r.URL.Query().Get("category"),
			SearchTerm: r.URL.Query().Get("search"),
			Sort:       catalog.SortMode(r.URL.Query().Get("sort")),
		}
		rawMin, rawMax := r.URL.Query().Get("min"), r.URL.Query().Get("max")
		if rawMin != "" || rawMax != "" {
			_, catalogMax := s.catalog.PriceBounds()
			min, err := parsePrice(rawMin, 0)
			if err != nil {
				s.respondError(w, "invalid min price", http.StatusBadRequest)
				return
			}
			max, err := parsePrice(rawMax, catalogMax)
			if err != nil {
				s.respondError(w, "invalid max price", http.StatusBadRequest)
				return
			}
			filters.Price = catalog.PriceRange{Min: min, Max: max, Active: true}
		}

		products, stats := s.catalog.Query(filters)
		s.logger.Debug("product query served",
			zap.String("category", filters.Category),
			zap.String("sort", string(filters.Sort)),
			zap.Int("filtered", stats.FilteredCount))
		s.respondJSON(w, response{Products: products, Stats: stats})
	})
}

// productHandler resolves a single product by id for the detail view.
func (s *Server) productHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := r.URL.Query().Get("id")
		if id == "" {
			s.respondError(w, "id is required", http.StatusBadRequest)
			return
		}
		product, ok := s.catalog.ByID(id)
		if !ok {
			s.respondError(w, catalog.ErrNotFound.Error(), http.StatusNotFound)
			return
		}
		s.respondJSON(w, product)
	})
}

func (s *Server) categoriesHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.respondJSON(w, s.catalog.Categories())
	})
}

// featuredHandler feeds the landing page carousel.
func (s *Server) featuredHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.respondJSON(w, s.catalog.Featured())
	})
}

// cartHandler manages the whole cart surface: GET snapshot, POST add,
// PUT quantity update, DELETE remove or clear.
func (s *Server) cartHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.readCart(w, r)
		case http.MethodPost:
			s.addToCart(w, r)
		case http.MethodPut:
			s.updateCart(w, r)
		case http.MethodDelete:
			s.deleteFromCart(w, r)
		default:
			s.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Server) readCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	snapshot, err := s.cart.Snapshot(ctx)
	if err != nil {
		s.logger.Error("cart snapshot failed", zap.Error(err))
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, snapshot)
}

// cartPayload is the transport shape of cart mutations. Delta takes precedence
// over Quantity on PUT so the +/- stepper and the direct input share one
// endpoint.
type cartPayload struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Delta    int    `json:"delta"`
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var payload cartPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if payload.ID == "" {
		s.respondError(w, "id is required", http.StatusBadRequest)
		return
	}
	quantity := payload.Quantity
	if quantity == 0 {
		quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	snapshot, err := s.cart.Add(ctx, payload.ID, quantity)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.logger.Warn("cart add rejected: unknown product", zap.String("product_id", payload.ID))
			s.respondError(w, err.Error(), http.StatusNotFound)
			return
		}
		s.logger.Error("cart add failed", zap.String("product_id", payload.ID), zap.Error(err))
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Info("cart add served",
		zap.String("product_id", payload.ID),
		zap.Int("total_items", snapshot.TotalItems))
	s.respondJSON(w, snapshot)
}

func (s *Server) updateCart(w http.ResponseWriter, r *http.Request) {
	var payload cartPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if payload.ID == "" {
		s.respondError(w, "id is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var (
		snapshot cart.Snapshot
		err      error
	)
	if payload.Delta != 0 {
		snapshot, err = s.cart.ChangeQuantity(ctx, payload.ID, payload.Delta)
	} else {
		snapshot, err = s.cart.SetQuantity(ctx, payload.ID, payload.Quantity)
	}
	if err != nil {
		s.logger.Error("cart update failed", zap.String("product_id", payload.ID), zap.Error(err))
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, snapshot)
}

// deleteFromCart removes one entry when an id is given and clears the whole
// cart otherwise.
func (s *Server) deleteFromCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	id := r.URL.Query().Get("id")
	var (
		snapshot cart.Snapshot
		err      error
	)
	if id == "" {
		snapshot, err = s.cart.Clear(ctx)
	} else {
		snapshot, err = s.cart.Remove(ctx, id)
	}
	if err != nil {
		s.logger.Error("cart delete failed", zap.String("product_id", id), zap.Error(err))
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, snapshot)
}

func (s *Server) loginHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var form account.LoginForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			s.respondError(w, "invalid payload", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := s.accounts.Login(ctx, form)
		if err != nil {
			s.respondAuthError(w, "login", err)
			return
		}
		s.logger.Info("login served", zap.String("email", user.Email))
		s.respondJSON(w, user)
	})
}

func (s *Server) registerHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var form account.RegisterForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			s.respondError(w, "invalid payload", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := s.accounts.Register(ctx, form)
		if err != nil {
			s.respondAuthError(w, "register", err)
			return
		}
		s.logger.Info("registration served",
			zap.String("email", user.Email),
			zap.Int("benefits", len(user.Benefits)))
		s.respondJSON(w, user)
	})
}

func (s *Server) logoutHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := s.accounts.Logout(ctx); err != nil {
			s.logger.Error("logout failed", zap.Error(err))
			s.respondError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) sessionHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		user, err := s.accounts.CurrentUser(ctx)
		if err != nil {
			if errors.Is(err, account.ErrNoSession) {
				s.respondError(w, err.Error(), http.StatusNotFound)
				return
			}
			s.logger.Error("session lookup failed", zap.Error(err))
			s.respondError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.respondJSON(w, user)
	})
}

// respondAuthError maps validation failures to 400 with the per-field
// messages and everything else to 500.
func (s *Server) respondAuthError(w http.ResponseWriter, flow string, err error) {
	var validation *account.ValidationError
	if errors.As(err, &validation) {
		s.logger.Warn("form failed validation",
			zap.String("flow", flow),
			zap.Int("fields", len(validation.Fields)))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error":  validation.Error(),
			"fields": validation.Fields,
		})
		return
	}
	s.logger.Error("auth flow failed", zap.String("flow", flow), zap.Error(err))
	s.respondError(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

// respondError keeps JSON error formatting consistent across endpoints.
func (s *Server) respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func parsePrice(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
