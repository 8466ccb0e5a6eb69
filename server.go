package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/oljwatch/job-harvester/common/config"
	"github.com/oljwatch/job-harvester/common/db"
	"github.com/oljwatch/job-harvester/common/services"
	"github.com/oljwatch/job-harvester/handler"
	"github.com/oljwatch/job-harvester/pipeline"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

type AppHttpServer struct {
	router *chi.Mux
	cfg    config.Config
	server *http.Server
	db     *db.DB
	lock   *pipeline.RunLock
}

func NewAppHttpServer(cfg config.Config) (*AppHttpServer, error) {
	r := chi.NewRouter()

	// The API is read-only and public, so CORS stays wide open.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	server := &AppHttpServer{
		router: r,
		cfg:    cfg,
	}
	return server, nil
}

// SetDB sets the database dependency
func (s *AppHttpServer) SetDB(db *db.DB) {
	s.db = db
}

// SetRunLock sets the run-state store used by the runs endpoint
func (s *AppHttpServer) SetRunLock(lock *pipeline.RunLock) {
	s.lock = lock
}

func (s *AppHttpServer) setupRoute() {
	r := s.router

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		jobsHandler := handler.NewJobsHandler(services.NewJobRepository(s.db), s.db, s.cfg)
		r.Mount("/jobs", jobsHandler.Router())

		if s.lock != nil {
			runsHandler := handler.NewRunsHandler(s.lock)
			r.Mount("/runs", runsHandler.Router())
		}
	})
}

func (s *AppHttpServer) start() error {
	log.Info().Msg("Starting up server...")

	s.server = &http.Server{
		Addr:         s.cfg.Listen.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// stop gracefully shuts down the server
func (s *AppHttpServer) stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
