// @title                       Blog API
// @version                     1.0
// @description                 Token authenticated blog backend with email verification and password reset.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	_ "github.com/quillpost/blog-api/docs"
	"github.com/quillpost/blog-api/internal/api"
	"github.com/quillpost/blog-api/internal/api/handler"
	"github.com/quillpost/blog-api/internal/core/ports"
	"github.com/quillpost/blog-api/internal/core/security"
	"github.com/quillpost/blog-api/internal/core/service"
	"github.com/quillpost/blog-api/internal/infrastructure/config"
	mongodb "github.com/quillpost/blog-api/internal/infrastructure/db/mongo"
	redisdb "github.com/quillpost/blog-api/internal/infrastructure/db/redis"
	"github.com/quillpost/blog-api/internal/infrastructure/mail"
	"github.com/quillpost/blog-api/internal/infrastructure/queue"
	"github.com/quillpost/blog-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "blog-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, AppName: "blog-api"})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	if err := mongodb.EnsureIndexes(ctx, db, cfg.Auth.OTPTTL()); err != nil {
		return err
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	otps := mongodb.NewOTPRepository(db)
	posts := mongodb.NewPostRepository(db)
	postCache := redisdb.NewPostCache(rdb, cfg.Redis.PostCacheTTL)

	// --- Security primitives ---
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	codec, err := security.NewTokenCodec(cfg.Auth.SecretKey, cfg.Auth.Algorithm)
	if err != nil {
		return err
	}

	// --- Notifications ---
	transport, closeTransport, err := newMailTransport(cfg, log)
	if err != nil {
		return err
	}
	defer closeTransport()
	dispatcher := queue.NewDispatcher(cfg.Mail.Workers, transport, cfg.Mail.Timeout, logger.Component(log, "notifications"))

	// --- Services ---
	router := api.NewRouter(api.Deps{
		Auth:         service.NewAuthService(users, hasher, codec, dispatcher, cfg.Auth.AccessTokenTTL(), log),
		Sessions:     service.NewSessionResolver(codec, log),
		Users:        service.NewUserService(users),
		Verification: service.NewVerificationService(users, otps, security.NewOTPGenerator(), dispatcher, cfg.Auth.OTPTTL(), log),
		Passwords:    service.NewPasswordService(users, hasher, codec, dispatcher, cfg.Auth.ResetTokenTTL(), cfg.PublicBaseURL, log),
		Blog:         service.NewBlogService(posts, users, postCache, log),
		Checks: map[string]handler.DependencyCheck{
			"mongodb": func(ctx context.Context) error { return mongodb.Ping(ctx, db) },
			"redis":   func(ctx context.Context) error { return redisdb.Ping(ctx, rdb) },
		},
		Log: logger.Component(log, "http"),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("mail_transport", cfg.Mail.Transport).Msg("listening")
		if err := router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return router.Shutdown(sctx)
	})

	return g.Wait()
}

// newMailTransport builds the delivery backend selected by MAIL_TRANSPORT.
func newMailTransport(cfg *config.Config, log zerolog.Logger) (ports.MailTransport, func(), error) {
	renderer, err := mail.NewRenderer()
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Mail.Transport {
	case "smtp":
		sender := mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.Mail.Server,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			FromName: cfg.Mail.FromName,
			Timeout:  cfg.Mail.Timeout,
		}, renderer)
		return sender, func() {}, nil
	case "amqp":
		publisher, err := mail.DialAMQP(cfg.Mail.AMQPURL, cfg.Mail.Queue, renderer)
		if err != nil {
			return nil, nil, err
		}
		return publisher, func() { _ = publisher.Close() }, nil
	default:
		return mail.NewLogSender(renderer, logger.Component(log, "mail")), func() {}, nil
	}
}
