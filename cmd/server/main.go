package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/iliyamo/clinic-api/internal/config"
	"github.com/iliyamo/clinic-api/internal/database"
	"github.com/iliyamo/clinic-api/internal/logging"
	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/queue"
	"github.com/iliyamo/clinic-api/internal/repository"
	"github.com/iliyamo/clinic-api/internal/service"
	"github.com/iliyamo/clinic-api/internal/utils"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinic-api",
		Short:         "Clinic management REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd(), migrateCmd(), seedAdminCmd(), workerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads .env (when present) and the environment, then builds the
// logger.  Every command starts here.
func setup() (*config.Config, zerolog.Logger, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logging.New(cfg.Env, cfg.LogLevel), nil
}

func openDB(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("database connected")
	return db, nil
}

func initSentry(cfg *config.Config, log zerolog.Logger) func() {
	if cfg.SentryDSN == "" {
		return func() {}
	}
	if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Env}); err != nil {
		log.Warn().Err(err).Msg("sentry disabled")
		return func() {}
	}
	return func() { sentry.Flush(2 * time.Second) }
}

func publisher(cfg *config.Config) service.Publisher {
	if cfg.RabbitURL == "" {
		return service.NopPublisher{}
	}
	return service.NewAMQPPublisher(cfg.RabbitURL, cfg.EventsQueue)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			db, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info().Msg("schema up to date")
			return nil
		},
	}
}

func seedAdminCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the administrator account if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.AdminPassword) == "" {
				return errors.New("ADMIN_PASSWORD is required")
			}
			db, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			hash, err := utils.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
			if err != nil {
				return err
			}
			u, created, err := repository.NewUserRepo(db).UpsertAdmin(cmd.Context(), cfg.AdminEmail, name, hash)
			if err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			if !created && u.Role != model.RoleAdmin {
				log.Warn().Str("user_id", u.ID).Str("email", u.Email).Str("role", string(u.Role)).
					Msg("email belongs to a non-admin account; left unchanged")
				return nil
			}
			log.Info().Str("user_id", u.ID).Str("email", u.Email).Bool("created", created).Msg("admin ready")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrador", "display name of the admin account")
	return cmd
}

func workerCmd() *cobra.Command {
	var logDir string
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume clinic events and append them to the event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			c := queue.NewConsumer(cfg.RabbitURL, cfg.EventsQueue, log)
			c.LogDir = logDir
			log.Info().Str("queue", c.Queue).Str("log_dir", logDir).Msg("worker started")
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info().Msg("worker stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&logDir, "log-dir", "logs", "directory receiving clinic.log")
	return cmd
}
