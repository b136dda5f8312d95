package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/pintim/pint/internal/core/routing"
	apimw "github.com/pintim/pint/internal/shell/api/middleware"
)

// =============================================================================
// Application Setup
// =============================================================================

// SetupAPI creates the application router. Requests the edge rewrote to a
// tenant (marked by routing.HeaderTenantSubdomain) go to the blog routes;
// everything else goes to the chi API router.
func (h *Handler) SetupAPI() http.Handler {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(recoveryMiddleware(h.logger))

	blog := router.Headers(routing.HeaderTenantSubdomain, "").Subrouter()
	blog.HandleFunc("/{subdomain}", h.handleBlogHome).Methods(http.MethodGet, http.MethodHead)
	blog.HandleFunc("/{subdomain}/{slug}", h.handleBlogEntry).Methods(http.MethodGet, http.MethodHead)
	blog.PathPrefix("/").HandlerFunc(h.handleBlogNotFound)

	router.PathPrefix("/").Handler(h.Routes())

	return router
}

// =============================================================================
// Middleware
// =============================================================================

// requestIDMiddleware keeps a caller-supplied X-Request-ID or assigns one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = "req_" + uuid.New().String()
			r.Header.Set("X-Request-ID", reqID)
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

func recoveryMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered", "error", err, "path", r.URL.Path)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(ErrorResponse{
						Error: apimw.ErrorBody{Code: CodeInternal, Message: "Internal server error"},
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
