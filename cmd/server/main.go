package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"courtbooking/internal/api"
	"courtbooking/internal/config"
	"courtbooking/internal/db"
	"courtbooking/internal/repository"
	"courtbooking/internal/service"
)

const expiryJobTimeout = time.Minute

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cfg)

	conn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open DB")
	}
	defer conn.Close()

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(startupCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	if err := db.EnsureSchema(startupCtx, conn); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}
	if len(cfg.SeedCourts) > 0 {
		n, err := db.SeedCourts(startupCtx, conn, cfg.SeedCourts)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to seed courts")
		}
		log.Info().Int64("created", n).Strs("courts", cfg.SeedCourts).Msg("Courts seeded")
	}

	locker := service.SlotLocker(service.NewLocalSlotLocker())
	if cfg.Redis.Address != "" {
		client := repository.NewRedisClient(cfg.Redis)
		defer repository.Close(client)
		if err := repository.Ping(startupCtx, client); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		locker = repository.NewRedisSlotLocker(client, cfg.Redis.LockTTL)
		log.Info().Str("addr", cfg.Redis.Address).Msg("Using Redis slot locks")
	}

	metrics := service.NewMetrics(prometheus.DefaultRegisterer)
	bookingRepo := repository.NewBookingRepository(conn)
	courtRepo := repository.NewCourtRepository(conn)
	notifier := service.NewStaffNotifier(cfg.Notify)
	svc := service.NewBookingService(bookingRepo, courtRepo, locker, notifier, metrics)

	scheduler := cron.New()
	if cfg.PendingTTL > 0 {
		jobs := service.NewJobService(repository.NewJobRepository(conn), cfg.PendingTTL, metrics)
		if _, err := jobs.Schedule(scheduler, cfg.ExpiryCron, expiryJobTimeout); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule stale pending expiry")
		}
		log.Info().Dur("ttl", cfg.PendingTTL).Str("schedule", cfg.ExpiryCron).Msg("Stale pending expiry enabled")
	}

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: api.NewRouter(api.RouterConfig{
			Bookings:    api.NewBookingHandler(svc),
			Staff:       api.NewStaffHandler(svc),
			DB:          conn,
			Metrics:     promhttp.Handler(),
			CORSOrigins: cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		scheduler.Start()
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		<-scheduler.Stop().Done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
