package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/lightdock/lightdock/internal/config"
	"github.com/lightdock/lightdock/internal/conncache"
	"github.com/lightdock/lightdock/internal/database"
	"github.com/lightdock/lightdock/internal/handlers"
	"github.com/lightdock/lightdock/internal/logging"
	"github.com/lightdock/lightdock/internal/reachability"
	"github.com/lightdock/lightdock/internal/runtime"
	"github.com/robfig/cron/v3"
)

func main() {
	config.Load()
	logging.Init()
	defer logging.Close()

	if err := database.Init(); err != nil {
		log.Fatalf("Database init: %v", err)
	}
	defer database.Close()

	// Process-wide caches, constructed once and handed to the handlers.
	handlers.Conns = conncache.New(runtime.Connect, config.Cfg.ConnectTimeout)
	handlers.Reach = reachability.NewCache(config.Cfg.ReachabilityTTL)
	handlers.Probes = reachability.NewProber(
		handlers.Reach,
		config.Cfg.ProbeWorkers,
		config.Cfg.ProbeQueueSize,
		config.Cfg.ProbeTimeout,
	)
	log.Printf("Reachability prober started (workers=%d, ttl=%s)",
		config.Cfg.ProbeWorkers, config.Cfg.ReachabilityTTL)

	// Periodic sweep keeps reachability warm between dashboard renders.
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(config.Cfg.ProbeSweepSpec, handlers.SweepReachability); err != nil {
		log.Printf("WARNING: invalid sweep spec %q: %v", config.Cfg.ProbeSweepSpec, err)
	} else {
		sweeper.Start()
	}

	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/containers", handlers.ListContainers)
		r.Get("/containers/{id}", handlers.GetContainer)
		r.Get("/containers/{id}/logs", handlers.ContainerLogs)
		r.Post("/containers/action", handlers.BatchAction)

		r.Get("/reachable/{containerId}", handlers.GetReachable)
		r.Post("/reachable/probe", handlers.ProbeNow)

		r.Get("/terminal", handlers.TerminalWS)

		r.Get("/servers", handlers.ListServers)
		r.Post("/servers", handlers.CreateServer)
		r.Post("/servers/{id}/select", handlers.SelectServer)
		r.Post("/servers/{id}/compose", handlers.ComposeDeploy)
		r.Delete("/servers/{id}", handlers.DeleteServer)

		r.Get("/logs/server", handlers.ServerLogs)
	})

	srv := &http.Server{
		Addr:    config.Cfg.ListenAddr,
		Handler: r,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on %s", config.Cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-sigCtx.Done()
	log.Println("Shutting down...")

	sweeper.Stop()
	handlers.Probes.Stop()
	handlers.Conns.Invalidate()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Cfg.ConnectTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
