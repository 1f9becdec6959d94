package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/douglascorrea/todo-api/internal/config"
	"github.com/douglascorrea/todo-api/internal/http/ratelimit"
	"github.com/douglascorrea/todo-api/internal/logging"
	"github.com/douglascorrea/todo-api/internal/metrics"
	"github.com/douglascorrea/todo-api/internal/store"
)

// NewRouter wires all API routes.
func NewRouter(cfg *config.Config, st *store.Store, h *Handler) http.Handler {
	r := chi.NewRouter()

	// OAuth endpoints: 5 requests per second, burst of 10
	authRateLimiter := ratelimit.NewIPRateLimiter(rate.Limit(5), 10, 5*time.Minute, cfg.TrustedProxies)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := st.HealthCheck(ctx); err != nil {
			http.Error(w, "unready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.PrometheusEnabled {
		r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			metrics.Handler().ServeHTTP(w, r)
		})
	}

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/", h.ListUsers)

		r.Group(func(r chi.Router) {
			r.Use(authRateLimiter.Middleware())
			r.Get("/microsoft/callback", h.MicrosoftCallback)
		})
		r.Post("/microsoft/notifications", h.MicrosoftNotifications)

		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", h.GetUser)
			r.Put("/", h.UpdateUser)
			r.Delete("/", h.DeleteUser)

			r.Route("/auth/microsoft", func(r chi.Router) {
				r.With(authRateLimiter.Middleware()).Get("/", h.MicrosoftSignin)
				r.Get("/me", h.MicrosoftMe)
				r.Get("/todolists", h.MicrosoftTaskLists)
				r.Get("/todolists/{listID}/todos", h.MicrosoftTasks)
				r.Get("/all", h.MicrosoftAll)
			})

			r.Route("/todolists", func(r chi.Router) {
				r.Post("/", h.CreateTodoList)
				r.Get("/", h.ListTodoLists)
				r.Get("/{todoListID}", h.GetTodoList)
				r.Put("/{todoListID}", h.UpdateTodoList)
				r.Delete("/{todoListID}", h.DeleteTodoList)
			})

			r.Route("/todos", func(r chi.Router) {
				r.Post("/", h.CreateTodo)
				r.Get("/", h.ListTodos)
				r.Get("/{todoID}", h.GetTodo)
				r.Put("/{todoID}", h.UpdateTodo)
				r.Delete("/{todoID}", h.DeleteTodo)
				r.Post("/{todoID}/complete", h.CompleteTodo)
				r.Post("/{todoID}/uncomplete", h.UncompleteTodo)
				r.Post("/{todoID}/toggle", h.ToggleTodo)
			})
		})
	})

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	log := logging.WithComponent("http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}
