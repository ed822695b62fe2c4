// Package server initializes and runs the storefront authentication server.
// It selects the account store, runs migrations, bootstraps the admin
// account and serves the HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/storegate/internal/logging"
	"github.com/dmitrijs2005/storegate/internal/server/auth"
	"github.com/dmitrijs2005/storegate/internal/server/config"
	"github.com/dmitrijs2005/storegate/internal/server/httpapi"
	"github.com/dmitrijs2005/storegate/internal/server/mail"
	"github.com/dmitrijs2005/storegate/internal/server/media"
	"github.com/dmitrijs2005/storegate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/storegate/internal/server/services"
	"golang.org/x/crypto/bcrypt"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	repomanager    repomanager.RepositoryManager
	accountService *services.AccountService
	mailer         *mail.Dispatcher
	handler        http.Handler
}

// Dependencies bundles what NewApp builds for a Config. Command-line tools
// reuse it without starting the HTTP server.
type Dependencies struct {
	Logger         logging.Logger
	DB             *sql.DB
	RepoManager    repomanager.RepositoryManager
	Tokens         *auth.TokenService
	Mailer         *mail.Dispatcher
	AccountService *services.AccountService

	mailDrainTimeout time.Duration
}

// Build opens the store, runs migrations and wires the account service.
func Build(ctx context.Context, c *config.Config) (*Dependencies, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	var (
		db *sql.DB
		rm repomanager.RepositoryManager
	)
	if c.UsesMemoryStore() {
		logger.Warn(ctx, "using in-memory account store; data is lost on exit")
		rm = repomanager.NewInMemoryRepositoryManager()
	} else {
		var err error
		db, err = repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm = repomanager.NewPostgresRepositoryManager(db)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	var sender mail.Sender
	if c.SMTPHost == "" {
		logger.Warn(ctx, "SMTP host not configured; outgoing mail is logged only")
		sender = mail.NewLogSender(logger)
	} else {
		s, err := mail.NewSMTPSender(mail.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			User:     c.SMTPUser,
			Password: c.SMTPPassword,
			FromName: c.MailFromName,
		})
		if err != nil {
			closeDB(db)
			return nil, fmt.Errorf("mail init error: %w", err)
		}
		sender = s
	}
	mailer := mail.NewDispatcher(sender, logger,
		mail.WithRate(c.MailRatePerSecond, 1),
		mail.WithQueue(c.MailQueueSize, mail.DefaultWorkers),
	)

	tokens := auth.NewTokenService([]byte(c.SecretKey), auth.DefaultTokenValidity)
	as := services.NewAccountService(rm, auth.NewPasswordHasher(bcrypt.DefaultCost), auth.NewCodeManager(), mailer, logger)

	return &Dependencies{
		Logger:         logger,
		DB:             db,
		RepoManager:    rm,
		Tokens:         tokens,
		Mailer:         mailer,
		AccountService: as,

		mailDrainTimeout: c.MailDrainTimeout,
	}, nil
}

// Close drains pending mail within the configured deadline and releases the
// database.
func (d *Dependencies) Close() {
	shutdown(d.Logger, d.Mailer, d.DB, d.mailDrainTimeout)
}

func shutdown(logger logging.Logger, mailer *mail.Dispatcher, db *sql.DB, drain time.Duration) {
	ctx := context.Background()
	if drain <= 0 {
		drain = 10 * time.Second
	}
	dctx, cancel := context.WithTimeout(ctx, drain)
	defer cancel()

	logger.Info(ctx, "Waiting for pending mail...")
	if err := mailer.Shutdown(dctx); err != nil {
		logger.Warn(ctx, "pending mail abandoned", "error", err)
	}
	closeDB(db)
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	deps, err := Build(ctx, c)
	if err != nil {
		return nil, err
	}

	var images httpapi.ImageUploader
	if c.S3Bucket != "" {
		store, err := media.NewS3ImageStore(ctx, media.S3Config{
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			Bucket:        c.S3Bucket,
			Region:        c.S3Region,
			BaseEndpoint:  c.S3BaseEndpoint,
			PublicBaseURL: c.S3PublicBaseURL,
		})
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("media init error: %w", err)
		}
		images = store
	} else {
		deps.Logger.Warn(ctx, "S3 bucket not configured; image uploads are disabled")
	}

	h := httpapi.NewHandler(deps.AccountService, deps.Tokens, deps.RepoManager, images, deps.Logger)

	return &App{
		config:         c,
		logger:         deps.Logger,
		db:             deps.DB,
		repomanager:    deps.RepoManager,
		accountService: deps.AccountService,
		mailer:         deps.Mailer,
		handler:        httpapi.NewRouter(h, deps.Tokens, deps.Logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) bootstrapAdmin(ctx context.Context) error {
	created, err := app.accountService.BootstrapAdmin(ctx, app.config.AdminEmail, app.config.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		app.logger.Info(ctx, "Admin account created", "email", app.config.AdminEmail)
	} else {
		app.logger.Info(ctx, "Admin account already exists", "email", app.config.AdminEmail)
	}
	return nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.HTTPAddr, app.handler, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a shutdown signal arrives. Pending
// mail is drained, up to the configured deadline, and the database is closed
// before it returns, on every path.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer shutdown(app.logger, app.mailer, app.db, app.config.MailDrainTimeout)

	app.logger.Info(ctx, "Starting app...")

	if err := app.bootstrapAdmin(ctx); err != nil {
		return fmt.Errorf("admin bootstrap error: %w", err)
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	return nil
}
