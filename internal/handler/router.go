// Package handler assembles the HTTP surface of the service.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/leadgen-backend/internal/auth"
	"github.com/unclebandit/leadgen-backend/internal/controller"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Campaigns *controller.CampaignController
	Leads     *controller.LeadController
	Files     *controller.FileController
	Stats     *controller.StatsController
	Auth      *controller.AuthController

	Authenticator  auth.Authenticator
	Realtime       http.Handler
	DB             Pinger
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors(d.AllowedOrigins))

	r.Get("/healthz", health(d.DB))
	r.Handle("/ws", d.Realtime)

	r.Route("/api", func(r chi.Router) {
		r.Get("/login", d.Auth.Login)
		r.Get("/logout", d.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(d.Authenticator))

			r.Get("/auth/user", d.Auth.CurrentUser)

			r.Route("/campaigns", func(r chi.Router) {
				r.Post("/", d.Campaigns.CreateCampaign)
				r.Get("/", d.Campaigns.ListCampaigns)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", d.Campaigns.GetCampaign)
					r.Patch("/", d.Campaigns.UpdateCampaign)
					r.Delete("/", d.Campaigns.DeleteCampaign)
					r.Post("/start", d.Campaigns.StartCampaign)
					r.Get("/events", d.Campaigns.ListEvents)
					r.Get("/leads", d.Leads.ListCampaignLeads)
					r.Post("/leads", d.Leads.CreateLead)
					r.Get("/leads/export", d.Leads.ExportCampaignLeads)
				})
			})

			r.Get("/leads", d.Leads.ListLeads)
			r.Get("/leads/{id}", d.Leads.GetLead)
			r.Patch("/leads/{id}", d.Leads.UpdateLead)

			r.Get("/stats", d.Stats.GetStats)

			r.Post("/files/upload", d.Files.Upload)
			r.Get("/files", d.Files.ListFiles)
			r.Get("/files/{id}/download", d.Files.Download)
		})
	})
	return r
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}`))
	}
}
