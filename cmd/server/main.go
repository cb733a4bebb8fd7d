package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"

	jobboard "github.com/jobhive/jobhive"
	"github.com/jobhive/jobhive/rest"
	"github.com/jobhive/jobhive/social"
	"github.com/jobhive/jobhive/social/providers/google"
)

func main() {
	logger := jobboard.NewDefaultLogger()

	cfg, err := jobboard.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer cancel()

	db, err := openDatabase(cfg.GetDSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if err := runMigrations(ctx, db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	repo := jobboard.NewRepositoryManager(db)

	tokens := jobboard.NewTokenService(cfg, logger)

	provider := jobboard.NewUserProvider(userTrackerAdapter{users: repo.Users()}).WithLogger(logger)

	auther := jobboard.NewAuthenticator(provider, repo.Users(), tokens).
		WithLogger(logger)

	notifier := buildNotifier(logger)

	otp := jobboard.NewOTPEngine(repo).
		WithNotifier(notifier).
		WithLogger(logger)

	lifecycle := jobboard.NewLifecycleManager(repo).
		WithNotifier(notifier).
		WithLogger(logger)

	register := jobboard.NewRegisterUserHandler(repo, otp).
		WithNotifier(notifier).
		WithLogger(logger)

	var cipher *jobboard.MobileCipher
	if key := cfg.GetMobileEncryptionKey(); len(key) > 0 {
		cipher, err = jobboard.NewMobileCipher(key)
		if err != nil {
			log.Fatalf("mobile cipher: %v", err)
		}
		register.WithMobileCipher(cipher, cfg.GetDefaultRegion())
	}

	verify := jobboard.NewVerifyOTPHandler(repo, otp).WithLogger(logger)
	resetIni := jobboard.NewInitializePasswordResetHandler(repo, otp).
		WithNotifier(notifier).
		WithLogger(logger)
	resetFin := jobboard.NewFinalizePasswordResetHandler(repo, otp).
		WithLogger(logger)

	socialAuth := buildSocialAuth(cfg, repo, auther, logger)

	hub := rest.NewHub().WithLogger(logger)
	chat := jobboard.NewChatService(repo).
		WithBroadcaster(hub).
		WithLogger(logger)

	sweeper := jobboard.NewSweeper(repo, otp, lifecycle).WithLogger(logger)
	go sweeper.Run(ctx)

	authCtrl := rest.NewAuthController(auther).
		WithRegisterHandler(register).
		WithVerifyHandler(verify).
		WithPasswordResetHandlers(resetIni, resetFin).
		WithSocialAuthenticator(socialAuth).
		WithLogger(logger).
		WithDebug(cfg.GetDebug())

	userCtrl := rest.NewUserController(repo, lifecycle).WithLogger(logger)
	if cipher != nil {
		userCtrl.WithMobileCipher(cipher, cfg.GetDefaultRegion())
	}

	server := rest.NewServer(auther).
		WithLogger(logger).
		WithDebug(cfg.GetDebug()).
		WithAuthController(authCtrl).
		WithUserController(userCtrl).
		WithCompanyController(rest.NewCompanyController(repo, lifecycle).WithLogger(logger)).
		WithJobController(rest.NewJobController(repo, lifecycle).WithLogger(logger)).
		WithAdminController(rest.NewAdminController(repo, lifecycle).WithLogger(logger)).
		WithChatController(rest.NewChatController(chat).WithLogger(logger)).
		WithChatSocket(rest.NewChatSocketHandler(chat, hub))

	logger.Info("listening on %s", cfg.GetListenAddr())
	if err := server.Listen(ctx, cfg.GetListenAddr()); err != nil {
		log.Fatalf("server: %v", err)
	}
}

type userTrackerAdapter struct {
	users jobboard.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*jobboard.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *jobboard.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *jobboard.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

func openDatabase(dsn string) (*bun.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func runMigrations(ctx context.Context, db *bun.DB) error {
	sub, err := fs.Sub(jobboard.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(sub); err != nil {
		return err
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	_, err = migrator.Migrate(ctx)
	return err
}

// buildNotifier wires the email notifier when a mailer is configured;
// without one, notifications are dropped.
func buildNotifier(logger jobboard.Logger) jobboard.Notifier {
	if os.Getenv("SMTP_ADDR") == "" {
		logger.Warn("no mailer configured, notifications disabled")
		return jobboard.NoopNotifier()
	}
	mailer := jobboard.NewSMTPMailer(
		os.Getenv("SMTP_ADDR"),
		os.Getenv("SMTP_FROM"),
		os.Getenv("SMTP_USERNAME"),
		os.Getenv("SMTP_PASSWORD"),
	)
	return jobboard.NewEmailNotifier(mailer).WithLogger(logger)
}

func buildSocialAuth(cfg jobboard.Config, repo jobboard.RepositoryManager, auther *jobboard.Auther, logger jobboard.Logger) *social.Authenticator {
	opts := []social.Option{social.WithLogger(logger)}

	if clientID := os.Getenv("GOOGLE_CLIENT_ID"); clientID != "" {
		opts = append(opts, social.WithProvider(google.New(google.Config{
			ClientID:     clientID,
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			CallbackURL:  cfg.GetSiteURL() + "/api/v1/auth/google/callback",
		})))
	}

	return social.NewAuthenticator(repo.Users(), auther, social.Config{
		StateSigningKey:      []byte(cfg.GetSigningKey()),
		RequireEmailVerified: true,
	}, opts...)
}
