package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dskvich/ifood-info-bot/pkg/logger"
)

type ConversationHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Rename(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	SendMessage(w http.ResponseWriter, r *http.Request)
	SelectTheme(w http.ResponseWriter, r *http.Request)
	Back(w http.ResponseWriter, r *http.Request)
	Clear(w http.ResponseWriter, r *http.Request)
}

type ThemeHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
}

func NewRouter(conversations ConversationHandler, themes ThemeHandler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Owner-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/themes", themes.List)
		r.Get("/themes/{themeID}", themes.Get)

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", conversations.List)
			r.Post("/", conversations.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", conversations.Get)
				r.Patch("/", conversations.Rename)
				r.Delete("/", conversations.Delete)
				r.Post("/messages", conversations.SendMessage)
				r.Post("/themes/{themeID}", conversations.SelectTheme)
				r.Post("/back", conversations.Back)
				r.Post("/clear", conversations.Clear)
			})
		})
	})

	return r
}

// requestLogger numbers each request for the log handler and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.ContextWithRequestID(r.Context(), int64(middleware.NextRequestID()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctx))

		logRequest(ctx, r, ww.Status(), time.Since(start))
	})
}

func logRequest(ctx context.Context, r *http.Request, status int, elapsed time.Duration) {
	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(ctx, level, "Handled request", "method", r.Method, "path", r.URL.Path, "status", status, "elapsed", elapsed)
}
