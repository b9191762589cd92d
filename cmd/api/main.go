package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshu-sajeev/goscheduler/internal/config"
	"github.com/joshu-sajeev/goscheduler/internal/dispatch"
	"github.com/joshu-sajeev/goscheduler/internal/job"
	"github.com/joshu-sajeev/goscheduler/internal/logger"
	"github.com/joshu-sajeev/goscheduler/internal/notify"
	"github.com/joshu-sajeev/goscheduler/internal/objectstore"
	"github.com/joshu-sajeev/goscheduler/internal/queue"
	"github.com/joshu-sajeev/goscheduler/internal/schedule"
	"github.com/joshu-sajeev/goscheduler/internal/storage/postgres"
	"github.com/joshu-sajeev/goscheduler/middleware"
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
	if err := postgres.Migrate(ctx, db); err != nil {
		logr.Fatalw("migrations failed", "error", err)
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

	s3Cfg, err := objectstore.LoadConfigFromEnv(ctx)
	if err != nil {
		logr.Fatalw("failed to load s3 config", "error", err)
	}
	store, err := objectstore.NewS3Store(ctx, s3Cfg)
	if err != nil {
		logr.Fatalw("s3 client setup failed", "error", err)
	}

	dispatcher := dispatch.New(
		queue.NewRedisQueue(rdb, redisCfg),
		postgres.NewTriggerRepository(db),
		schedule.NewResolver(appCfg.Location()),
		logr.Named("dispatch"),
	)
	service := job.NewJobService(
		postgres.NewJobRepository(db),
		dispatcher,
		store,
		job.Options{UploadDir: appCfg.UploadDir, MaxUploadBytes: appCfg.MaxUploadBytes},
		logr.Named("jobs"),
	)

	hub := notify.NewHub(logr.Named("ws"))
	relay := notify.NewRelay(rdb, notify.Channel(redisCfg.KeyPrefix, config.JobStatusTopic), hub, logr.Named("relay"))

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logr.Named("http")))
	r.GET("/ws/jobs", gin.WrapH(hub))

	api := r.Group("")
	api.Use(middleware.TimeoutMiddleware(appCfg.RequestTimeout), middleware.ErrorHandler())
	job.RegisterRoutes(api, job.NewJobHandler(service))

	srv := &http.Server{
		Addr:              appCfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		logr.Infow("api listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logr.Errorw("api stopped with error", "error", err)
		os.Exit(1)
	}
	logr.Infow("shutdown complete")
}
