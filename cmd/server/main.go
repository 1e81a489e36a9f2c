package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"membergate/internal/allocator"
	"membergate/internal/allocator/store/counter"
	"membergate/internal/audit"
	"membergate/internal/identity/challenge"
	"membergate/internal/identity/otp"
	"membergate/internal/identity/session"
	"membergate/internal/identity/sms"
	"membergate/internal/member"
	"membergate/internal/platform/config"
	"membergate/internal/platform/httpserver"
	"membergate/internal/platform/logger"
	"membergate/internal/platform/metrics"
	"membergate/internal/platform/postgres"
	"membergate/internal/platform/redis"
	"membergate/internal/registration"
	registrationhandler "membergate/internal/registration/handler"
	httptransport "membergate/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal services.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}()

	m := metrics.New()

	var auditor audit.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := audit.NewKafka(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		defer kafka.Close()
		auditor = kafka
	} else {
		log.Info("kafka brokers not configured, audit events go to the log")
		auditor = audit.NewMemory(log)
	}

	var (
		challengeStore challenge.Store
		codeStore      otp.CodeStore
		stateStore     registration.StateStore
	)
	if redisClient != nil {
		challengeStore = challenge.NewRedis(redisClient.Client)
		codeStore = otp.NewRedis(redisClient.Client)
		stateStore, err = registration.NewRedisStateStore(redisClient.Client)
		if err != nil {
			return err
		}
	} else {
		log.Warn("redis not configured, wizard state is in-process only")
		challengeStore = challenge.NewMemory()
		codeStore = otp.NewMemory()
		stateStore = registration.NewMemoryStateStore()
	}

	challenges, err := challenge.NewVerifier(challengeStore, cfg.OTP.ChallengeTTL)
	if err != nil {
		return err
	}

	sessions := session.NewIssuer(cfg.JWT.SigningKey, cfg.JWT.TTL)
	provider, err := otp.NewProvider(
		codeStore,
		challenges,
		sms.NewLogSender(log),
		sessions,
		cfg.OTP.CodeTTL,
		otp.WithLogger(log),
		otp.WithMetrics(m),
		otp.WithMaxAttempts(cfg.OTP.MaxAttempts),
	)
	if err != nil {
		return err
	}

	alloc, err := allocator.New(counter.NewPostgres(pool),
		allocator.WithLogger(log),
		allocator.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	members := member.NewPostgres(db)

	service, err := registration.NewService(stateStore, members, provider, challenges, alloc, auditor,
		registration.WithLogger(log),
		registration.WithMetrics(m),
		registration.WithWizardTTL(cfg.OTP.WizardTTL),
	)
	if err != nil {
		return err
	}

	checks := map[string]httptransport.HealthChecker{
		"postgres": httptransport.HealthCheckFunc(db.PingContext),
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger: log,
		Handlers: []httptransport.Registrar{
			registrationhandler.New(service, sessions, log),
		},
		Checks: checks,
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting membergate", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
