// Package app assembles the HTTP surface from the booking components.
package app

import (
	"net/http"
	"time"

	"therapyspace/internal/config"
	"therapyspace/internal/middleware"
	"therapyspace/internal/modules/booking"
	"therapyspace/internal/modules/catalog"
	"therapyspace/internal/modules/mybookings"
	"therapyspace/internal/modules/realtime"
	"therapyspace/internal/modules/wizard"
	"therapyspace/internal/pkg/jwt"
	"therapyspace/internal/pkg/metrics"
	"therapyspace/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type App struct {
	Router    *gin.Engine
	Directory *catalog.Directory
	Store     *booking.Store
	Sessions  *wizard.Sessions
	Manager   *mybookings.Manager
	Hub       *realtime.Hub
	Tokens    *jwt.Service
	Limiter   *middleware.RateLimiter
	Metrics   *metrics.BookingMetrics

	undo mybookings.UndoStore
	log  *zap.Logger
}

// New wires every component on top of repo and undo. A nil reg registers
// metrics with the default Prometheus registry.
func New(cfg *config.Config, log *zap.Logger, repo booking.Repository, undo mybookings.UndoStore, reg *prometheus.Registry) *App {
	if log == nil {
		log = zap.NewNop()
	}

	var registerer prometheus.Registerer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	m := metrics.NewBookingMetrics(registerer)

	directory := NewDirectory(cfg)

	store := booking.NewStore(repo, log.Named("booking"), m)
	hub := realtime.NewHub(log.Named("realtime"))
	store.SetNotifier(hub)

	tokens := jwt.New(cfg.JWTSecret, cfg.ClientTokenTTL)
	sessions := wizard.NewSessions(directory, store, wizard.SessionConfig{
		SubmitDelay: cfg.SubmitDelay,
		IdleTTL:     cfg.WizardSessionTTL,
	}, log.Named("wizard"), m)
	manager := mybookings.NewManager(store, directory, undo, cfg.UndoTTL, log.Named("mybookings"))
	limiter := middleware.NewRateLimiter(cfg.SubmitRatePerMinute, cfg.SubmitBurst, log.Named("ratelimit"))

	a := &App{
		Directory: directory,
		Store:     store,
		Sessions:  sessions,
		Manager:   manager,
		Hub:       hub,
		Tokens:    tokens,
		Limiter:   limiter,
		Metrics:   m,
		undo:      undo,
		log:       log,
	}
	a.Router = a.routes(cfg, log, gatherer)
	return a
}

// NewDirectory builds the practitioner catalog; a zero start date means today.
func NewDirectory(cfg *config.Config) *catalog.Directory {
	start := cfg.CatalogStartDate
	if start.IsZero() {
		start = time.Now().UTC()
	}
	return catalog.NewDirectory(catalog.DefaultProfiles(), catalog.Config{
		StartDate: start,
		DaysAhead: cfg.CatalogDaysAhead,
		Seed:      cfg.AvailabilitySeed,
	})
}

func (a *App) routes(cfg *config.Config, log *zap.Logger, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(log.Named("http")))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok", "env": cfg.AppEnv})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		catalog.NewHandler(a.Directory).RegisterRoutes(v1)
		wizard.NewHandler(a.Sessions, a.Tokens, a.Metrics, log.Named("wizard"), a.Limiter.Middleware()).RegisterRoutes(v1)
		realtime.NewHandler(a.Hub, a.Tokens, cfg.AllowGlobalBookings, nil, log.Named("realtime")).RegisterRoutes(v1)

		mine := v1.Group("")
		mine.Use(middleware.ClientIdentity(a.Tokens, cfg.AllowGlobalBookings))
		booking.NewHandler(a.Store, a.Directory).RegisterRoutes(mine)
		mybookings.NewHandler(a.Manager).RegisterRoutes(mine)
	}

	return r
}
