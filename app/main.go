package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Guyuepp/package-likes/domain"
	"github.com/Guyuepp/package-likes/internal/atproto"
	"github.com/Guyuepp/package-likes/internal/config"
	"github.com/Guyuepp/package-likes/internal/constellation"
	"github.com/Guyuepp/package-likes/internal/repository"
	mysqlRepo "github.com/Guyuepp/package-likes/internal/repository/mysql"
	"github.com/Guyuepp/package-likes/internal/rest"
	"github.com/Guyuepp/package-likes/internal/rest/middleware"
	"github.com/Guyuepp/package-likes/internal/rest/request"
	"github.com/Guyuepp/package-likes/internal/usecase/like"
	"github.com/Guyuepp/package-likes/internal/usecase/links"
	"github.com/Guyuepp/package-likes/internal/workers"
)

const (
	dbMaxRetry         = 10
	dbRetryIntervalSec = 2
	shutdownTimeout    = 5 * time.Second
)

func setupLogger(cfg config.Config) {
	if cfg.Production {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func openDatabase(dsn string) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	for i := range dbMaxRetry {
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
		if err != nil {
			logrus.Warnf("failed to open connection to database (attempt %d/%d): %v", i+1, dbMaxRetry, err)
		} else {
			sqlDB, dbErr := db.DB()
			if dbErr != nil {
				err = dbErr
				logrus.Warnf("failed to get sql.DB from gorm.DB (attempt %d/%d): %v", i+1, dbMaxRetry, err)
				continue
			}
			if err = sqlDB.Ping(); err == nil {
				return db, nil
			}
			logrus.Warnf("failed to ping database (attempt %d/%d): %v", i+1, dbMaxRetry, err)
			_ = sqlDB.Close()
		}

		time.Sleep(dbRetryIntervalSec * time.Second)
	}
	return nil, err
}

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// prepare cache
	backend := repository.SelectCacheBackend(cfg)
	var deps repository.CacheDeps
	switch backend {
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.CachePass,
			DB:       cfg.CacheDB,
		})
		defer func() {
			if err := client.Close(); err != nil {
				logrus.Errorf("got error when closing the cache connection: %v", err)
			}
		}()
		if _, err := client.Ping(ctx).Result(); err != nil {
			logrus.Fatalf("failed to open connection to cache: %v", err)
		}
		deps.Redis = client
	case config.CacheBackendMySQL:
		dsn, err := cfg.MySQLDSN()
		if err != nil {
			logrus.Fatalf("invalid DATABASE_DSN: %v", err)
		}
		db, err := openDatabase(dsn)
		if err != nil {
			logrus.Fatalf("could not connect to database after retries: %v", err)
		}
		defer func() {
			sqlDB, err := db.DB()
			if err != nil {
				logrus.Errorf("got error when getting sql.DB from gorm.DB: %v", err)
				return
			}
			if err := sqlDB.Close(); err != nil {
				logrus.Errorf("got error when closing the DB connection: %v", err)
			}
		}()
		if err := mysqlRepo.AutoMigrate(db); err != nil {
			logrus.Fatalf("failed to migrate cache table: %v", err)
		}
		deps.DB = db
	}

	cache, err := repository.NewCacheAdapter(backend, cfg, deps)
	if err != nil {
		logrus.Fatalf("failed to build cache: %v", err)
	}
	logrus.Infof("using %s cache backend", backend)

	// Start worker
	if store, ok := cache.(domain.ExpiredEntryDeleter); ok {
		sweeper := workers.NewSweepCacheWorker(store, cfg.CacheSweepInterval)
		go sweeper.Start(ctx)
	}

	// Build service Layer
	index := constellation.NewClient(cfg.IndexHost, cfg.UserAgent, cfg.IndexTimeout)
	records := atproto.NewPDSClient(cfg.UserAgent, cfg.RecordTimeout)

	likeSvc := like.NewService(index, records, cache)
	linksSvc := links.NewService(index, cache)
	likeHandler := rest.NewLikeHandler(likeSvc)
	linksHandler := rest.NewLinksHandler(linksSvc)

	if len(cfg.JWTSecret) == 0 {
		logrus.Warn("JWT_SECRET is empty, every bearer token will be rejected")
	}
	if err := request.RegisterValidations(); err != nil {
		logrus.Fatalf("failed to register validations: %v", err)
	}

	// prepare gin
	route := gin.New()
	route.Use(gin.Recovery())
	route.Use(middleware.RequestLogger())
	route.Use(middleware.CORS())
	route.Use(middleware.SetRequestContextWithTimeout(cfg.ContextTimeout))

	// Register routes
	route.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": backend})
	})
	route.GET("/metrics", gin.WrapH(promhttp.Handler()))
	rest.RegisterSocialRoutes(route, likeHandler, linksHandler, string(cfg.JWTSecret))

	// Start Server
	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: route,
	}
	go func() {
		logrus.Infof("Server is running on %s", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("listen: %s", err)
		}
	}()

	// shutdown
	<-ctx.Done()
	logrus.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exiting")
}
