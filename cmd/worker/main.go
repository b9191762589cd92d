package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshu-sajeev/goscheduler/internal/config"
	"github.com/joshu-sajeev/goscheduler/internal/executor"
	"github.com/joshu-sajeev/goscheduler/internal/logger"
	"github.com/joshu-sajeev/goscheduler/internal/mailer"
	"github.com/joshu-sajeev/goscheduler/internal/notify"
	"github.com/joshu-sajeev/goscheduler/internal/objectstore"
	"github.com/joshu-sajeev/goscheduler/internal/pool"
	"github.com/joshu-sajeev/goscheduler/internal/queue"
	"github.com/joshu-sajeev/goscheduler/internal/storage/postgres"
	"github.com/joshu-sajeev/goscheduler/internal/trigger"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg, err := config.LoadAppConfigFromEnv(ctx)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logr, err := logger.New(appCfg.LogLevel, appCfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logr.Sync()

	dbCfg, err := postgres.LoadConfigFromEnv(ctx)
	if err != nil {
		logr.Fatalw("failed to load database config", "error", err)
	}
	db, err := postgres.ConnectDB(ctx, dbCfg, logr)
	if err != nil {
		logr.Fatalw("database connection failed", "error", err)
	}

	redisCfg, err := queue.LoadRedisConfigFromEnv(ctx)
	if err != nil {
		logr.Fatalw("failed to load redis config", "error", err)
	}
	rdb, err := queue.NewRedisClient(ctx, redisCfg)
	if err != nil {
		logr.Fatalw("redis connection failed", "error", err)
	}
	defer rdb.Close()

	mailCfg, err := mailer.LoadConfigFromEnv(ctx)
	if err != nil {
		logr.Fatalw("failed to load smtp config", "error", err)
	}
	smtp, err := mailer.NewSMTPMailer(mailCfg)
	if err != nil {
		logr.Fatalw("smtp client setup failed", "error", err)
	}

	s3Cfg, err := objectstore.LoadConfigFromEnv(ctx)
	if err != nil {
		logr.Fatalw("failed to load s3 config", "error", err)
	}
	store, err := objectstore.NewS3Store(ctx, s3Cfg)
	if err != nil {
		logr.Fatalw("s3 client setup failed", "error", err)
	}

	q := queue.NewRedisQueue(rdb, redisCfg)
	exec := executor.New(
		postgres.NewJobRepository(db),
		q,
		notify.NewRedisNotifier(rdb, redisCfg.KeyPrefix),
		smtp,
		store,
		executor.Config{
			RetryBaseDelay:    appCfg.RetryBaseDelay,
			SimulatedJobDelay: appCfg.SimulatedJobDelay,
			StaleJobTimeout:   appCfg.StaleJobTimeout,
		},
		logr.Named("executor"),
	)

	workerPool := pool.NewWorkerPool(appCfg.MaxWorkers, q, exec, exec, appCfg.StaleJobTimeout/2, logr.Named("pool"))
	beat := trigger.NewBeat(postgres.NewTriggerRepository(db), q, appCfg.BeatInterval, logr.Named("beat"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		workerPool.Start()
		<-gctx.Done()
		workerPool.Stop()
		return nil
	})
	g.Go(func() error {
		beat.Start(gctx)
		<-gctx.Done()
		beat.Stop()
		return nil
	})

	logr.Infow("worker active", "workers", workerPool.Size(), "beat_interval", appCfg.BeatInterval)
	if err := g.Wait(); err != nil {
		logr.Errorw("worker stopped with error", "error", err)
		os.Exit(1)
	}
	q.Close()
	logr.Infow("shutdown complete")
}
