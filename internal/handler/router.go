package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/unclebandit/bidtracker-backend/internal/controller"
)

type Router struct {
	Customers      *controller.CustomerController
	Templates      *controller.TemplateController
	Campaigns      *controller.CampaignController
	FollowUps      *controller.FollowUpController
	Dashboard      *DashboardHandler
	AllowedOrigins []string
	Log            *zap.Logger
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(rt.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Get("/", Banner)
		api.Route("/customers", rt.Customers.Routes)
		api.Route("/templates", rt.Templates.Routes)
		api.Route("/campaigns", rt.Campaigns.Routes)
		api.Route("/followups", rt.FollowUps.Routes)
		api.Get("/dashboard/stats", rt.Dashboard.GetStats)
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
