package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pmani/ad-mosaic/internal/auth"
	"github.com/pmani/ad-mosaic/internal/config"
)

// SetupRoutes configures the router. Auth and health endpoints are open;
// everything under /api requires a session unless auth is disabled or the
// server runs in dev mode.
func SetupRoutes(cfg config.ServerConfig, h *Handlers, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	// CORS must allow credentials for the session cookie.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	if authManager != nil {
		r.Get("/auth/login", authManager.HandleLogin)
		r.Get("/auth/callback", authManager.HandleCallback)
		r.Get("/auth/logout", authManager.HandleLogout)
		r.Get("/auth/user", authManager.HandleUserInfo)
	}

	devMode := os.Getenv("DEV_MODE") == "true" || os.Getenv("ENVIRONMENT") == "development"

	r.Route("/api", func(r chi.Router) {
		if authManager != nil && !devMode {
			r.Use(requireSession(authManager))
		}

		r.Get("/warehouse/tables", h.ListTables)

		r.Route("/pages", func(r chi.Router) {
			r.Get("/", h.ListPages)
			r.Post("/", h.CreatePage)
			r.Get("/{id}", h.GetPage)
			r.Put("/{id}", h.UpdatePage)
			r.Delete("/{id}", h.DeletePage)
		})

		r.Route("/inspector", func(r chi.Router) {
			r.Post("/datasets", h.UploadDataset)
			r.Post("/datasets/restore", h.RestoreDataset)
			r.Route("/datasets/{id}", func(r chi.Router) {
				r.Get("/view", h.DatasetView)
				r.Post("/scroll", h.DatasetScroll)
				r.Get("/summary", h.DatasetSummary)
				r.Patch("/records/{recordID}", h.UpdateRecord)
				r.Post("/export", h.StartExport)
				r.Get("/export/progress", h.ExportProgress)
				r.Get("/export/file", h.ExportFile)
				r.Delete("/", h.DeleteDataset)
			})
			r.Post("/social-upload", h.SocialUpload)
		})

		r.Post("/querybuilder/generate", h.GenerateQuery)
		r.Get("/querybuilder/columns", h.QueryBuilderColumns)
		r.Post("/textconvert", h.ConvertText)
	})

	return r
}

func requireSession(authManager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !authManager.IsAuthenticated(req) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized"}`))
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
