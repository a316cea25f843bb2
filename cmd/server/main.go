package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/audit"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/handler"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/ledger"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/metrics"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/notifier"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/service"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/token"
	httpapi "github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/http"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/credentials"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/store"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/store/memory"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/store/postgres"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/mail"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/platform/config"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/platform/httpserver"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/platform/logger"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/platform/middleware"
	platformredis "github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/platform/redis"
)

// main wires high-level dependencies and supervises the server plus the
// background workers. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// User store: postgres when configured, in-memory otherwise.
	var users store.UserStore
	var svcOpts []service.Option
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		users = postgres.New(db)
		svcOpts = append(svcOpts, service.WithTxRunner(newDelegationPostgresTx(db)))
		log.Info("using postgres user store")
	} else {
		users = memory.New()
		log.Info("using in-memory user store")
	}

	// Redemption ledger: redis when configured, in-memory otherwise.
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		svcOpts = append(svcOpts, service.WithLedger(ledger.NewRedisLedger(redisClient.Client)))
		log.Info("using redis redemption ledger")
	} else {
		svcOpts = append(svcOpts, service.WithLedger(ledger.NewMemoryLedger()))
		log.Info("using in-memory redemption ledger")
	}

	// Outbound mail: sendgrid when configured, log-only otherwise.
	var mailer mail.Mailer
	if cfg.SendgridAPIKey != "" {
		mailer = mail.NewSendgridMailer(cfg.SendgridAPIKey, "Project Goodbye", cfg.EmailSender)
		log.Info("using sendgrid mailer", "sender", cfg.EmailSender)
	} else {
		mailer = mail.NewLogMailer(log)
		log.Info("no mail provider configured, logging outbound email")
	}
	dispatcher := mail.NewDispatcher(mailer, cfg.MailQueueSize, config.MailSendTimeout, log)

	// Audit trail: kafka sink when brokers are configured, memory otherwise.
	var auditStore audit.Store
	if len(cfg.KafkaBrokers) > 0 {
		kafkaStore, err := audit.NewKafkaStore(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("failed to connect kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer kafkaStore.Close()
		auditStore = kafkaStore
		log.Info("using kafka audit sink", "topic", cfg.AuditTopic)
	} else {
		auditStore = audit.NewInMemoryStore()
	}
	auditPublisher := audit.NewPublisher(auditStore, 64, log)

	codec := token.NewCodec(cfg.JWTSecretKey)
	svcOpts = append(svcOpts,
		service.WithMetrics(metrics.New()),
		service.WithAudit(auditPublisher),
		service.WithLogger(log),
	)
	svc := service.New(users, codec, credentials.BcryptVerifier{}, notifier.New(cfg.BaseURL, dispatcher), svcOpts...)

	if cfg.DevSeed {
		seedDevUsers(ctx, users, cfg.JWTSecretKey, log)
	}

	validator := middleware.NewHS256Validator(cfg.JWTSecretKey)
	router := httpapi.NewRouter(handler.New(svc, log), validator, log)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting delegation service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := dispatcher.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		err := auditPublisher.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
