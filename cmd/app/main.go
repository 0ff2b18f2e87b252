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

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"go.uber.org/zap"

	"travelsvc/internal/app/config"
	httpapi "travelsvc/internal/app/http"
	"travelsvc/internal/app/http/handler"
	"travelsvc/internal/domain/booking"
	"travelsvc/internal/domain/payment"
	"travelsvc/internal/domain/payout"
	"travelsvc/internal/infrastructure/async"
	"travelsvc/internal/infrastructure/cache"
	"travelsvc/internal/infrastructure/db/pg"
	"travelsvc/internal/infrastructure/gateway"
	"travelsvc/internal/infrastructure/logging"
	"travelsvc/internal/infrastructure/notify"
	"travelsvc/internal/infrastructure/sched"
	"travelsvc/internal/workers"
)

const eventsExchange = "travelsvc.events"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("db open error", zap.Error(err))
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("db ping error", zap.Error(err))
	}

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("goose dialect error", zap.Error(err))
	}
	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatal("goose up error", zap.Error(err))
	}

	uow := pg.NewTxManager(db)
	bookingRepo := pg.NewBookingRepository(db)
	paymentRepo := pg.NewPaymentRepository(db, cfg.PaymentCurrency)
	vendorRepo := pg.NewVendorRepository(db)
	receiptRepo := pg.NewReceiptRepository(db)

	var cacheSvc cache.Service
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisAddr, "", 0)
		if err != nil {
			log.Fatal("redis connect error", zap.Error(err))
		}
		cacheSvc = redisCache
	} else {
		log.Info("REDIS_ADDR not set, using in-memory cache")
		cacheSvc = cache.NewMemoryCache()
	}

	var gw payment.Gateway
	if cfg.OmiseSecretKey != "" {
		omiseGw, err := gateway.NewOmise(cfg.OmisePublicKey, cfg.OmiseSecretKey, log)
		if err != nil {
			log.Fatal("omise client error", zap.Error(err))
		}
		gw = omiseGw
	} else {
		log.Info("OMISE_SECRET_KEY not set, using sandbox gateway")
		gw = gateway.NewSandbox()
	}
	charges := payment.NewOrchestrator(gw, log)

	bus := async.NewBus(log)
	pool := async.NewWorkerPool(ctx, cfg.WorkerPoolSize, log)
	registry := async.NewRegistry()

	var queue async.Queue
	if cfg.AMQPURL != "" {
		amqpQueue, err := async.NewAMQPQueue(cfg.AMQPURL, eventsExchange)
		if err != nil {
			log.Fatal("amqp connect error", zap.Error(err))
		}
		defer amqpQueue.Close()

		consumer, err := async.NewAMQPConsumer(cfg.AMQPURL, eventsExchange,
			"travelsvc.notifications", []string{"notify.#"}, registry, log)
		if err != nil {
			log.Fatal("amqp consumer error", zap.Error(err))
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error("amqp consumer stopped", zap.Error(err))
			}
		}()

		queue = amqpQueue
	} else {
		log.Info("AMQP_URL not set, running jobs on the in-process pool")
		queue = async.NewPoolQueue(pool, registry, log)
	}

	bookingSvc := booking.NewService(uow, bookingRepo, paymentRepo, charges, bus, nil)
	calc := payout.NewCalculator(bookingRepo, cfg.PaymentCurrency)
	payoutSvc := payout.NewService(uow, vendorRepo, calc, receiptRepo, charges, bus, nil)

	notifWorker := workers.NewNotificationWorker(notify.NewLogSink(log), log)
	notifWorker.Register(registry)

	workers.NewSubscriber(queue, log).Register(bus)
	cache.NewInvalidator(cacheSvc, log).Register(bus)

	cleanup := workers.NewCleanupWorker(bookingRepo, paymentRepo, log)
	reminders := workers.NewReminderWorker(bookingRepo, queue, log)

	scheduler := sched.New(log)
	jobs := []sched.Job{
		{Name: "weekly-payroll", Spec: "0 8 * * 1", Run: func(ctx context.Context) error {
			_, err := payoutSvc.ProcessWeeklyPayroll(ctx)
			return err
		}},
		{Name: "monthly-payroll", Spec: "0 0 1 * *", Run: func(ctx context.Context) error {
			_, err := payoutSvc.ProcessMonthlyPayroll(ctx)
			return err
		}},
		{Name: "maintenance", Spec: "0 2 * * *", Run: func(ctx context.Context) error {
			_, err := cleanup.Run(ctx)
			return err
		}},
		{Name: "payment-reminders", Spec: "0 * * * *", Run: func(ctx context.Context) error {
			_, err := reminders.Run(ctx)
			return err
		}},
	}
	for _, job := range jobs {
		if err := scheduler.Add(ctx, job); err != nil {
			log.Fatal("scheduler job error", zap.String("job", job.Name), zap.Error(err))
		}
	}
	scheduler.Start()

	h := handler.New(bookingSvc, payoutSvc, cacheSvc, log)
	router := httpapi.NewRouter(h, log)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	scheduler.Stop()
	pool.Shutdown()
}
