package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vasitum/interviewsched/internal/booking"
	"github.com/vasitum/interviewsched/internal/email"
	"github.com/vasitum/interviewsched/internal/generator"
	"github.com/vasitum/interviewsched/internal/handlers"
	"github.com/vasitum/interviewsched/internal/notify"
	"github.com/vasitum/interviewsched/internal/outbox"
	"github.com/vasitum/interviewsched/internal/store"
	"github.com/vasitum/interviewsched/internal/store/memory"
	"github.com/vasitum/interviewsched/internal/store/postgres"
	"github.com/vasitum/interviewsched/internal/sweep"
	"github.com/vasitum/interviewsched/libs/config"
	"github.com/vasitum/interviewsched/libs/db"
	"github.com/vasitum/interviewsched/libs/httpx"
	"github.com/vasitum/interviewsched/libs/kafkax"
	otelx "github.com/vasitum/interviewsched/libs/otel"
	"github.com/vasitum/interviewsched/libs/runtime"
)

func main() {
	service := config.String("SERVICE_NAME", "interviewsched")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	var (
		st          store.Store
		pool        *db.Pool
		readyChecks []runtime.ReadyCheck
	)
	driver := strings.ToLower(config.String("STORE_DRIVER", "postgres"))
	switch driver {
	case "memory":
		logger.Warn("using in-memory store, state will not survive restarts")
		st = memory.New()
	case "postgres":
		dbURL, err := config.RequiredString("DATABASE_URL")
		if err != nil {
			panic(err)
		}
		pool, err = db.Open(ctx, dbURL)
		if err != nil {
			logger.Error("db connection failed", "err", err)
			panic(err)
		}
		defer pool.Close()

		pgStore := postgres.New(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			logger.Error("migration failed", "err", err)
			panic(err)
		}
		st = pgStore
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})
	default:
		panic("unknown STORE_DRIVER: " + driver)
	}

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	if pool != nil && kafkaBrokers != "" {
		outboxRepo := outbox.NewRepository(pool)
		outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   kafkaBrokers,
			PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
			BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		})
		go outboxPublisher.Run(ctx)
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}

	var sender email.Sender
	if config.Bool("MAIL_ENABLED", false) {
		sender = email.NewSMTPSender(
			config.String("SMTP_HOST", "mailpit"),
			config.String("SMTP_PORT", "1025"),
			config.String("SMTP_FROM", "no-reply@interviewsched.local"),
		)
	} else {
		sender = email.NewNoopSender(logger)
	}

	pipeline := notify.NewPipeline(st, sender, logger)
	arbiter := booking.NewArbiter(st, logger)
	gen := generator.New(st, pipeline, logger)

	sweeper := sweep.NewRunner(pipeline, logger, sweep.Config{
		PendingEvery: config.Duration("SWEEP_PENDING_EVERY", 5*time.Minute),
		RetryEvery:   config.Duration("SWEEP_RETRY_EVERY", 30*time.Minute),
	})
	go sweeper.Run(ctx)

	interviewerHandler := handlers.NewInterviewerHandler(st, gen, logger)
	slotHandler := handlers.NewSlotHandler(arbiter, logger)
	notificationHandler := handlers.NewNotificationHandler(pipeline, logger)

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/api/v1/interviewers", interviewerHandler.Create)
	mux.HandleFunc("/api/v1/interviewers/get", interviewerHandler.Get)
	mux.HandleFunc("/api/v1/interviewers/update", interviewerHandler.Update)
	mux.HandleFunc("/api/v1/interviewers/generate-slots", interviewerHandler.GenerateSlots)
	mux.HandleFunc("/api/v1/interview-slots", slotHandler.ListAvailable)
	mux.HandleFunc("/api/v1/interview-slots/get", slotHandler.Get)
	mux.HandleFunc("/api/v1/interview-slots/by-interviewer", slotHandler.ByInterviewer)
	mux.HandleFunc("/api/v1/interview-slots/book", slotHandler.Book)
	mux.HandleFunc("/api/v1/interview-slots/update", slotHandler.Update)
	mux.HandleFunc("/api/v1/interview-slots/cancel", slotHandler.Cancel)
	mux.HandleFunc("/api/v1/notifications", notificationHandler.List)
	mux.HandleFunc("/api/v1/notifications/process", notificationHandler.ProcessPending)
	mux.HandleFunc("/api/v1/notifications/retry", notificationHandler.RetryFailed)

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
	}
	if redisAddr := config.String("REDIS_ADDR", ""); redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("RATE_LIMIT", 60),
			config.Duration("RATE_LIMIT_WINDOW", time.Minute),
			service,
		)
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	}

	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
