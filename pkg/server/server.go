package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	profilehandlers "github.com/letsmultiply/pulse/pkg/handlers/profile"
	reporthandlers "github.com/letsmultiply/pulse/pkg/handlers/report"
	"github.com/letsmultiply/pulse/pkg/models/api"
	pulsemiddleware "github.com/letsmultiply/pulse/pkg/server/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

type Dependencies struct {
	Runner   reporthandlers.Runner
	Profiles profilehandlers.Service
	Debug    api.DebugConfig
	Logger   zerolog.Logger
}

type Config struct {
	Addr            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

func NewWebAPI(config Config) *WebAPI {
	logger := config.Dependencies.Logger
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	router := ConfigureRouter(config)

	return &WebAPI{
		router:          router,
		logger:          &logger,
		shutdownTimeout: config.ShutdownTimeout,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
	}
}

// ConfigureRouter wires the routes. Exposed separately so tests can mount
// the router on an httptest server.
func ConfigureRouter(config Config) *chi.Mux {
	reportHandler := reporthandlers.NewHandler(config.Dependencies.Runner, config.Dependencies.Debug)
	profileHandler := profilehandlers.NewHandler(config.Dependencies.Profiles)

	router := chi.NewRouter()

	router.Use(pulsemiddleware.Logger(&config.Dependencies.Logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	router.Get("/health", reportHandler.Health)
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/test-daily-report", reportHandler.TriggerDailyReport)
		r.Get("/debug-config", reportHandler.DebugConfig)
		r.Post("/get-user-profile", profileHandler.GetUserProfile)
		r.Post("/upload-event", profileHandler.UploadEvent)
	})

	return router
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
