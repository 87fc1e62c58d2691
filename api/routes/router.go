package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmarqs/promoterhub-backend/api/controllers"
	webhookcontrollers "github.com/dmarqs/promoterhub-backend/api/controllers/webhooks"
	"github.com/dmarqs/promoterhub-backend/api/middleware"
	"github.com/dmarqs/promoterhub-backend/internal/accounts"
	"github.com/dmarqs/promoterhub-backend/internal/analytics"
	"github.com/dmarqs/promoterhub-backend/internal/auth"
	"github.com/dmarqs/promoterhub-backend/internal/campaigns"
	"github.com/dmarqs/promoterhub-backend/internal/contacts"
	"github.com/dmarqs/promoterhub-backend/internal/entitlements"
	"github.com/dmarqs/promoterhub-backend/internal/feedback"
	"github.com/dmarqs/promoterhub-backend/internal/messaging"
	subscriptionsvc "github.com/dmarqs/promoterhub-backend/internal/subscriptions"
	squarewebhook "github.com/dmarqs/promoterhub-backend/internal/webhooks/square"
	"github.com/dmarqs/promoterhub-backend/pkg/auth/session"
	"github.com/dmarqs/promoterhub-backend/pkg/config"
	"github.com/dmarqs/promoterhub-backend/pkg/db"
	"github.com/dmarqs/promoterhub-backend/pkg/logger"
	"github.com/dmarqs/promoterhub-backend/pkg/redis"
	"github.com/dmarqs/promoterhub-backend/pkg/square"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Deps bundles the services the router mounts. Grouping them in a struct
// keeps the constructor signature stable as endpoints grow.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *db.Client
	Redis   *redis.Client
	Session sessionManager

	AuthService     auth.Service
	RegisterService auth.RegisterService
	Accounts        *accounts.Repository
	Entitlements    entitlements.Service
	Campaigns       campaigns.Service
	Feedback        feedback.Service
	Analytics       analytics.Service
	Contacts        contacts.Service
	Messaging       messaging.Service
	Subscriptions   subscriptionsvc.Service

	SquareClient       *square.Client
	SquareWebhook      *squarewebhook.Service
	SquareWebhookGuard *squarewebhook.IdempotencyGuard
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/responses/{campaignID}", controllers.PublicResponseSubmit(deps.Feedback, logg))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/square", webhookcontrollers.SquareWebhook(deps.SquareWebhook, deps.SquareClient, deps.SquareWebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.RegisterService, deps.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Session, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Session, cfg.JWT, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Session, logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/account", func(r chi.Router) {
			r.Get("/", controllers.AccountGet(deps.Accounts, logg))
			r.Put("/", controllers.AccountUpdate(deps.Accounts, logg))
		})

		r.Route("/v1/entitlements", func(r chi.Router) {
			r.Get("/trial", controllers.EntitlementsTrial(deps.Entitlements, logg))
			r.Get("/limits", controllers.EntitlementsLimits(deps.Entitlements, logg))
		})

		r.Route("/v1/campaigns", func(r chi.Router) {
			r.Get("/", controllers.CampaignList(deps.Campaigns, logg))
			r.Post("/", controllers.CampaignCreate(deps.Campaigns, logg))
			r.Get("/{campaignID}", controllers.CampaignGet(deps.Campaigns, logg))
			r.Put("/{campaignID}", controllers.CampaignUpdate(deps.Campaigns, logg))
			r.Post("/{campaignID}/activate", controllers.CampaignActivate(deps.Campaigns, logg))
			r.Post("/{campaignID}/archive", controllers.CampaignArchive(deps.Campaigns, logg))
			r.Get("/{campaignID}/responses", controllers.CampaignResponses(deps.Feedback, logg))
			r.Get("/{campaignID}/analytics", controllers.CampaignAnalytics(deps.Analytics, logg))
		})

		r.Get("/v1/analytics/summary", controllers.AccountAnalytics(deps.Analytics, logg))

		r.Route("/v1/contacts", func(r chi.Router) {
			r.Get("/", controllers.ContactList(deps.Contacts, logg))
			r.Post("/", controllers.ContactCreate(deps.Contacts, logg))
			r.Get("/{contactID}", controllers.ContactGet(deps.Contacts, logg))
			r.Put("/{contactID}", controllers.ContactUpdate(deps.Contacts, logg))
			r.Delete("/{contactID}", controllers.ContactDelete(deps.Contacts, logg))
		})

		r.Route("/v1/segments", func(r chi.Router) {
			r.Get("/", controllers.SegmentList(deps.Contacts, logg))
			r.Post("/", controllers.SegmentCreate(deps.Contacts, logg))
			r.Get("/{segmentID}/contacts", controllers.SegmentContacts(deps.Contacts, logg))
			r.Post("/{segmentID}/members", controllers.SegmentAddMember(deps.Contacts, logg))
			r.Delete("/{segmentID}/members/{contactID}", controllers.SegmentRemoveMember(deps.Contacts, logg))
		})

		r.Post("/v1/messaging/test", controllers.MessagingTest(deps.Messaging, logg))

		r.Get("/v1/billing/plans", controllers.PlansList(deps.Subscriptions, logg))
		r.Route("/v1/subscriptions", func(r chi.Router) {
			r.Get("/", controllers.SubscriptionCurrent(deps.Subscriptions, logg))
			r.Post("/", controllers.SubscriptionCreate(deps.Subscriptions, logg))
			r.Post("/cancel", controllers.SubscriptionCancel(deps.Subscriptions, logg))
		})
	})

	return r
}
