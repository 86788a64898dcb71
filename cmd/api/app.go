package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"workspots/internal/changefeed"
	"workspots/internal/config"
	"workspots/internal/domain/auth"
	"workspots/internal/domain/discovery"
	"workspots/internal/domain/moderation"
	"workspots/internal/domain/profile"
	"workspots/internal/domain/session"
	"workspots/internal/domain/upload"
	"workspots/internal/domain/venue"
	"workspots/internal/geo"
	"workspots/internal/imaging"
	"workspots/internal/metrics"
	"workspots/internal/middleware"
	jwtsvc "workspots/internal/pkg/jwt"
	"workspots/internal/realtime"
	"workspots/internal/source"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const maxMultipartMemory = 32 << 20

type app struct {
	router   *gin.Engine
	hub      *realtime.Hub
	limiters []*middleware.RateLimiter
}

func (a *app) close() {
	for _, l := range a.limiters {
		l.Stop()
	}
}

func newApp(ctx context.Context, cfg *config.Config, db *gorm.DB, feed changefeed.Broker, reg *prometheus.Registry) (*app, error) {
	collector := metrics.NewCollector(reg)
	hub := realtime.NewHub(cfg.CORSAllowedOrigins, collector)

	// storage
	profileRepo := profile.NewRepository(db, feed)
	venueRepo := venue.NewRepository(db, feed)
	objects := upload.NewStore(upload.NewCatalog(db), upload.NewBucket(cfg.UploadsDir, cfg.StaticURLBase))
	images := upload.NewImageStore(imaging.NewCompressor(), objects)

	// outbound
	outbound := geo.NewSafeClient(cfg.OutboundTimeout)
	geolocator := geo.NewGeolocator(outbound, cfg.GeolocationURL)
	autocompleter := geo.NewAutocompleter(outbound, cfg.GeocodingURL)

	// identity
	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := auth.NewService(
		auth.NewRepository(db),
		profileRepo,
		tokens,
		auth.NewLogMailer(slog.Default()),
		auth.NewEvents(),
		auth.ServiceConfig{
			TokenPepper:    cfg.TokenPepper,
			RefreshTTL:     cfg.RefreshTTL,
			ActionTokenTTL: cfg.ActionTokenTTL,
			PublicBaseURL:  cfg.PublicBaseURL,
		},
	)
	if cfg.GoogleEnabled() {
		google, err := auth.NewGoogle(ctx, auth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})
		if err != nil {
			return nil, fmt.Errorf("google sign-in: %w", err)
		}
		authService.SetGoogle(google)
	}
	resolver := session.NewResolver(authService, profileRepo)
	authService.SetSignInPolicy(resolver)

	// handlers
	authHandler := auth.NewHandler(authService, auth.CookieConfig{
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
		Path:     cfg.CookiePath,
	})
	sessionHandler := session.NewHandler()
	profileHandler := profile.NewHandler(profile.NewService(profileRepo, images))
	uploadHandler := upload.NewHandler(objects)
	venueHandler := venue.NewHandler(venue.NewSubmissionService(venueRepo, images, autocompleter, collector))
	discoveryHandler := discovery.NewHandler(
		discovery.NewService(source.FetchFunc[*venue.Venue](venueRepo.List), geolocator, autocompleter),
		hub, feed,
	)
	moderationHandler := moderation.NewHandler(
		moderation.NewPlaces(venueRepo, collector),
		moderation.NewUsers(profileRepo, authService, collector),
		hub, feed,
		session.NewContexts(resolver, authService.Events(), feed),
	)

	apiLimiter := middleware.PerIP(middleware.RateLimiterConfig{PerMinute: cfg.APIRatePerMinute})
	submitLimiter := middleware.PerIdentity("submit", middleware.RateLimiterConfig{PerMinute: cfg.SubmitRatePerMinute})

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(
		middleware.RequestID(),
		middleware.ErrorLogger(),
		collector.Middleware(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler(reg)))
	r.Static(cfg.StaticURLBase, cfg.UploadsDir)

	v1 := r.Group("/api/v1")
	v1.Use(apiLimiter.Middleware(), session.Middleware(tokens, resolver))
	{
		authHandler.RegisterPublicRoutes(v1)
		discoveryHandler.RegisterRoutes(v1, v1.Group("/ws"))

		sessionHandler.RegisterRoutes(v1)

		signedIn := v1.Group("")
		signedIn.Use(session.RequireIdentity())
		authHandler.RegisterProtectedRoutes(signedIn)

		submit := v1.Group("")
		submit.Use(session.RequirePage(session.PageSubmission), submitLimiter.Middleware())

		dashboard := v1.Group("")
		dashboard.Use(session.RequirePage(session.PageDashboard))
		{
			profile.RegisterRoutes(dashboard, profileHandler)
			upload.RegisterRoutes(dashboard, uploadHandler)
			authHandler.RegisterDashboardRoutes(dashboard)
		}
		venueHandler.RegisterRoutes(submit, dashboard)

		admin := v1.Group("")
		admin.Use(session.RequirePage(session.PageAdmin))
		moderationHandler.RegisterRoutes(admin.Group("/admin"), admin.Group("/ws"))
	}

	return &app{router: r, hub: hub, limiters: []*middleware.RateLimiter{apiLimiter, submitLimiter}}, nil
}
