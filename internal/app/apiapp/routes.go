package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rendydev404/beatly/internal/config"
	authsvc "github.com/rendydev404/beatly/internal/services/auth"
	billingsvc "github.com/rendydev404/beatly/internal/services/billing"
	planssvc "github.com/rendydev404/beatly/internal/services/plans"
	profilesvc "github.com/rendydev404/beatly/internal/services/profile"
	subssvc "github.com/rendydev404/beatly/internal/services/subscription"
	usagesvc "github.com/rendydev404/beatly/internal/services/usage"
	"github.com/rendydev404/beatly/internal/transport/http/handlers"
)

type Dependencies struct {
	Verifier            *authsvc.Verifier
	UsageService        *usagesvc.Service
	SubscriptionService *subssvc.Service
	BillingService      *billingsvc.Service
	PlanFinder          handlers.PlanFinder
	PlansService        *planssvc.Service
	ProfileService      *profilesvc.Service
	HealthPinger        handlers.Pinger
	Logger              *zap.Logger
	Config              config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	usageHandler := handlers.NewUsageHandler(deps.UsageService)
	subscriptionHandler := handlers.NewSubscriptionHandler(deps.SubscriptionService)
	billingHandler := handlers.NewBillingHandler(deps.BillingService, deps.PlanFinder)
	plansHandler := handlers.NewPlansHandler(deps.PlansService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService)
	healthHandler := handlers.NewHealthHandler(deps.HealthPinger)

	authMW := AuthMiddleware(deps.Verifier, deps.Logger)
	adminMW := AdminPasswordMiddleware(deps.Config.Admin.Password)

	r.Get("/healthz", healthHandler.Handle)

	r.Route("/api", func(r chi.Router) {
		r.Get("/plans", plansHandler.List)

		r.With(authMW).Get("/usage/check", usageHandler.Check)
		r.With(authMW).Post("/usage/increment", usageHandler.Increment)
		r.With(authMW).Get("/subscription/current", subscriptionHandler.Current)
		r.With(authMW).Get("/profile", profileHandler.Profile)
		r.With(authMW).Post("/history", profileHandler.RecordPlay)

		r.With(authMW).Post("/midtrans/token", billingHandler.Token)
		r.With(authMW).Post("/midtrans/verify", billingHandler.Verify)
		// The gateway calls this one; it authenticates with the payload
		// signature instead of a bearer token.
		r.Post("/midtrans/notification", billingHandler.Notification)

		r.Route("/admin", func(r chi.Router) {
			// The pricing page reads this without credentials; only
			// writes need the admin password.
			r.Get("/plans", plansHandler.List)
			r.With(adminMW).Put("/plans", plansHandler.UpdatePricing)
		})
	})
}
