package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Guilhem-Bonnet/radiko-planner/internal/adapters/httpapi"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/adapters/metrics"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/app"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/buildinfo"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/config"
	"github.com/Guilhem-Bonnet/radiko-planner/internal/schema"
)

func main() {
	configPath := flag.String("config", "", "Fichier de configuration yaml (défaut: ./config.yaml s'il existe)")
	addr := flag.String("addr", "", "Adresse d'écoute (ex: 127.0.0.1:8080)")
	dbPath := flag.String("db", "", "Chemin SQLite (ex: radiko.db)")
	seedPath := flag.String("seed", "", "Fichier yaml de stations/créneaux à créer au démarrage")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "radiko-server").Logger()
	log.Logger = logger

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *seedPath != "" {
		cfg.Seed.Path = *seedPath
	}
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		logger = logger.Level(level)
		log.Logger = logger
	} else {
		logger.Warn().Str("level", cfg.Log.Level).Msg("unknown log level, keeping default")
	}

	logger.Info().Interface("build", buildinfo.Current()).Str("db", cfg.Database.Path).Msg("starting")

	ctx := context.Background()
	db, err := sqlite.Open(ctx, cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open db")
	}
	defer func() { _ = db.Close() }()

	bus := memorybus.New()
	defer bus.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := sqlite.NewEntityManager(db.SQL, schema.Radiko(), bus, logger.With().Str("component", "entity-manager").Logger())
	em := metrics.NewEntityManager(store, reg)

	loc := cfg.Location()
	stations := app.NewStationService(em)
	schedules := app.NewScheduleService(em)
	programs := app.NewProgramService(em)
	programs.URLTemplate = cfg.Radiko.URLTemplate
	programs.ListenWindow = cfg.Radiko.ListenWindow
	programs.Location = loc

	if cfg.Seed.Path != "" {
		res, err := app.NewSeeder(stations, schedules).SeedFile(ctx, cfg.Seed.Path)
		if err != nil {
			logger.Fatal().Err(err).Str("seed", cfg.Seed.Path).Msg("failed to seed")
		}
		logger.Info().Int("stations", res.Stations).Int("schedules", res.Schedules).Msg("seeded")
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	planner := app.NewProgramPlanner(logger.With().Str("component", "planner").Logger(), schedules, programs, bus)
	planner.TickInterval = cfg.Planner.TickInterval
	planner.Horizon = cfg.Planner.Horizon
	planner.Location = loc
	plannerDone := closedChan()
	if cfg.Planner.Enabled {
		plannerDone = goDone(shutdownCtx, planner.Run)
		logger.Info().Dur("tick", cfg.Planner.TickInterval).Dur("horizon", cfg.Planner.Horizon).Msg("planner started")
	}

	srv := httpapi.NewServer(logger, httpapi.Options{
		Stations:  stations,
		Schedules: schedules,
		Programs:  programs,
		Planner:   planner,
		Bus:       bus,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	// ferme les flux SSE, sinon Shutdown attend leur fin
	httpServer.RegisterOnShutdown(bus.Close)

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	// db.Close (defer) ne doit pas couper un tick en cours
	if !waitDone(ctx, plannerDone) {
		logger.Warn().Msg("planner still running at shutdown deadline")
	}
	logger.Info().Msg("bye")
}

// goDone lance run dans une goroutine et renvoie un canal fermé à son retour.
func goDone(ctx context.Context, run func(context.Context)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		run(ctx)
	}()
	return done
}

func closedChan() <-chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

// waitDone attend done, au plus jusqu'à l'expiration de ctx.
func waitDone(ctx context.Context, done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
