package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/learnhub/catalog-service/handlers"
	"github.com/learnhub/catalog-service/internal/catalog/handler"
	"github.com/learnhub/catalog-service/internal/catalog/repository"
	"github.com/learnhub/catalog-service/internal/catalog/service"
	"github.com/learnhub/catalog-service/internal/config"
	"github.com/learnhub/catalog-service/internal/database"
	"github.com/learnhub/catalog-service/pkg/logger"
	"github.com/learnhub/catalog-service/pkg/metrics"
	"github.com/learnhub/catalog-service/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL is read before config so config loading itself is logged at the right level
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())
	logger.Infof("config loaded: backend=%s mongo=%v redis=%v minio=%v",
		cfg.Store.Backend, cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Enabled())

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	store, err := openStoreOrMemory(ctx, cfg)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	var limiterRedis *redis.Client
	if cfg.RateLimit.Enabled && cfg.RateLimit.UseRedis && cfg.Redis.Addr() != "" {
		limiterRedis, err = database.ConnectRedis(ctx, database.RedisOptions{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, 5*time.Second)
		if err != nil {
			logger.Warnf("failed to connect to Redis for rate limiting (%s): %v", cfg.Redis.Addr(), err)
		}
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	r := newRouter(cfg, store, limiterRedis)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("catalog service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Errorf("closing %s store: %v", store.Backend, err)
	}
	if limiterRedis != nil {
		_ = limiterRedis.Close()
	}
	logger.Infof("stopped")
}

// newRouter assembles middleware and every route of the service.
func newRouter(cfg *config.Config, store *repository.Store, limiterRedis *redis.Client) *gin.Engine {
	r := gin.New()
	r.Use(cors(), gin.Logger(), middleware.Recovery())

	if cfg.RateLimit.Enabled {
		if limiterRedis != nil {
			r.Use(middleware.RedisRateLimitMiddleware(limiterRedis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.RedisWindow))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	checks := map[string]handlers.Check{"store": store.Ping}
	if limiterRedis != nil {
		checks["redis"] = func(ctx context.Context) error { return limiterRedis.Ping(ctx).Err() }
	}
	handlers.RegisterHealth(r, checks, startTime, 2*time.Second)
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterCatalogRoutes(r, service.New(store))
	return r
}

// cors is a permissive CORS policy: common headers, OPTIONS answered directly.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Location")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
