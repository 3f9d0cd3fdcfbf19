package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/iliyamo/clinic-api/internal/config"
	"github.com/iliyamo/clinic-api/internal/database"
	"github.com/iliyamo/clinic-api/internal/handler"
	"github.com/iliyamo/clinic-api/internal/jobs"
	"github.com/iliyamo/clinic-api/internal/middleware"
	"github.com/iliyamo/clinic-api/internal/repository"
	"github.com/iliyamo/clinic-api/internal/router"
	"github.com/iliyamo/clinic-api/internal/service"
	"github.com/iliyamo/clinic-api/internal/utils"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runServer(cfg, log, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply schema changes before serving")
	return cmd
}

func runServer(cfg *config.Config, log zerolog.Logger, migrate bool) error {
	flush := initSentry(cfg, log)
	defer flush()

	db, err := openDB(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if migrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn().Str("addr", cfg.Redis.Addr).Msg("redis unavailable; rate limit and cache disabled")
	} else {
		defer rdb.Close()
	}

	pub := publisher(cfg)
	users := repository.NewUserRepo(db)
	appts := repository.NewAppointmentRepo(db)
	tokens := utils.NewTokenService(cfg.JWTSecret, cfg.AccessTTL())

	e := newEcho(cfg, log)
	deps := router.Deps{
		Tokens:    tokens,
		Redis:     rdb,
		Cache:     cfg.Cache,
		RateLimit: cfg.RateLimit,
		Log:       log,
	}
	router.RegisterRoutes(e, handler.NewHealthHandler(handler.PingFunc(func(ctx context.Context) error {
		return database.Ping(ctx, db)
	})))
	router.RegisterAuth(e, handler.NewAuthHandler(service.NewAuthService(users, tokens, cfg.BcryptCost)), deps)
	router.RegisterDoctors(e, handler.NewDoctorHandler(service.NewDoctorService(users, appts, cfg.BcryptCost)), deps)
	router.RegisterPatients(e, handler.NewPatientHandler(service.NewPatientService(users, cfg.BcryptCost)), deps)
	router.RegisterAppointments(e, handler.NewAppointmentHandler(service.NewAppointmentService(users, appts, pub, log)), deps)
	router.RegisterPrescriptions(e, handler.NewPrescriptionHandler(
		service.NewPrescriptionService(appts, repository.NewPrescriptionRepo(db), pub, log)), deps)
	router.RegisterLabResults(e, handler.NewLabResultHandler(service.NewLabResultService(
		users, repository.NewLabResultRepo(db), service.NewLocalFileStore(cfg.UploadDir), pub, log)), deps)

	stopJobs := startReminders(cfg, db, pub, log)
	defer stopJobs()

	ctx, stop := signalContext()
	defer stop()

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func newEcho(cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(log)

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(log))
	e.Use(middleware.Recovery(log))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", maxUploadMB(cfg))))
	return e
}

func maxUploadMB(cfg *config.Config) int {
	if cfg.MaxUploadMB <= 0 {
		return 10
	}
	return cfg.MaxUploadMB
}

// startReminders schedules the reminder job when enabled and returns the
// function that stops it.
func startReminders(cfg *config.Config, db *gorm.DB, pub service.Publisher, log zerolog.Logger) func() {
	if !cfg.ReminderEnabled {
		return func() {}
	}
	window, err := jobs.Interval(cfg.ReminderCron, time.Now())
	if err != nil {
		log.Error().Err(err).Str("spec", cfg.ReminderCron).Msg("invalid REMINDER_CRON; reminders disabled")
		return func() {}
	}
	r := jobs.NewReminder(repository.NewAppointmentRepo(db), pub, window, log)
	c, err := jobs.StartReminders(cfg.ReminderCron, r)
	if err != nil {
		log.Error().Err(err).Msg("start reminders")
		return func() {}
	}
	log.Info().Str("spec", cfg.ReminderCron).Dur("window", window).Msg("reminders scheduled")
	return func() { <-c.Stop().Done() }
}
