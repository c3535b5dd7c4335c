package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitea.com/go-chi/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/AXI0MH1VE/State-Inverant/authenticator"
	"github.com/AXI0MH1VE/State-Inverant/config"
	"github.com/AXI0MH1VE/State-Inverant/controllers"
	"github.com/AXI0MH1VE/State-Inverant/database"
	appmiddleware "github.com/AXI0MH1VE/State-Inverant/middleware"
	"github.com/AXI0MH1VE/State-Inverant/repositories"
	"github.com/AXI0MH1VE/State-Inverant/services"
)

// sessionLifetime is the idle lifetime of sessions and their command bars, in seconds
const sessionLifetime = 3600

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg)

	if err := database.InitializeDatabase(cfg.DatabasePath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.CloseDB()

	repos := repositories.NewRepositories(database.GetDB())

	source, err := services.NewAuditSource(cfg.AuditSource, cfg.AuditBufferSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create audit source")
	}

	srvs := services.NewServices(repos, source, services.SimulatedSubmitter{}, services.CommandOptions{
		Delay:     cfg.SubmitDelay,
		RateLimit: rate.Limit(cfg.SubmitRate),
		Burst:     cfg.SubmitBurst,
	})

	var provider authenticator.Provider
	if cfg.OIDC.Enabled() {
		provider, err = authenticator.NewOpenIDProvider(context.Background(), cfg.OIDC)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize OpenID Connect provider")
		}
	}

	ctrl := controllers.NewControllers(srvs, controllers.Options{
		Version:      config.Version,
		AuthProvider: provider,
	})

	r, err := setupRouter(ctrl, repos, routerOptions{
		SecureCookies: cfg.UseHTTPS,
		AuthEnabled:   provider != nil,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup router")
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler, err := startScheduler(srvs.Command)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer scheduler.Stop()

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("audit_source", cfg.AuditSource).
			Bool("login", provider != nil).
			Str("url", fmt.Sprintf("http://localhost:%s", cfg.Port)).
			Msg("Axiom Hive dashboard starting")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

// setupLogger configures the global zerolog logger
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.LogFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}

// pruneSchedule is how often command bars of expired sessions are released
const pruneSchedule = "@every 10m"

// startScheduler runs background maintenance jobs
func startScheduler(command services.CommandService) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(pruneSchedule, func() {
		if n := command.Prune(sessionLifetime * time.Second); n > 0 {
			log.Debug().Int("released", n).Msg("Released idle command bars")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule command bar pruning: %w", err)
	}

	c.Start()
	return c, nil
}

type routerOptions struct {
	SecureCookies bool
	AuthEnabled   bool
}

// setupRouter configures all routes
func setupRouter(ctrl *controllers.Controllers, repos *repositories.Repositories, opts routerOptions) (*chi.Mux, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmiddleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", ctrl.Health.Check)

	sessionHandler, err := session.Sessioner(session.Options{
		Provider:                  "memory",
		ProviderConfig:            "",
		CookieName:                "axiom_session",
		Secure:                    opts.SecureCookies,
		Gclifetime:                sessionLifetime,
		Maxlifetime:               sessionLifetime,
		IgnoreReleaseForWebSocket: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	r.Group(func(r chi.Router) {
		r.Use(sessionHandler)
		r.Use(appmiddleware.InjectOperator)

		// The live stream is long-lived, so it skips the timeout and compression below
		r.With(appmiddleware.RequireAuth(opts.AuthEnabled)).Get("/audit/stream", ctrl.Audit.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Use(middleware.Compress(5))
			r.Use(appmiddleware.RequestLogger(repos.RequestLog))

			// PUBLIC ROUTES
			r.Get("/", ctrl.Dashboard.Index)
			r.Get("/docs", ctrl.Docs.Index)
			r.Get("/command/state", ctrl.Command.State)
			r.Get("/login", ctrl.Auth.Login)
			r.Get("/callback", ctrl.Auth.Callback)
			r.Get("/logout", ctrl.Auth.Logout)

			// PROTECTED ROUTES (only when operator login is configured)
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireAuth(opts.AuthEnabled))

				r.Post("/command", ctrl.Command.Submit)
				r.Get("/audit", ctrl.Audit.Index)
				r.Get("/audit/export", ctrl.Audit.Export)
			})
		})
	})

	return r, nil
}
