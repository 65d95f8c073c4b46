package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/velvoice/companiond/cmd/bootstrap"
	handlers "github.com/velvoice/companiond/internal/handler"
	"github.com/velvoice/companiond/pkg/cache"
	"github.com/velvoice/companiond/pkg/config"
	"github.com/velvoice/companiond/pkg/logger"
	"github.com/velvoice/companiond/pkg/metrics"
	"github.com/velvoice/companiond/pkg/middleware"
)

func main() {
	mode := flag.String("mode", "", "running environment (development, test, production)")
	initSQL := flag.String("init-sql", "", "path to database init .sql script (optional)")
	flag.Parse()

	if *mode != "" {
		os.Setenv("APP_ENV", *mode)
	}

	if err := config.Load(); err != nil {
		panic("config load failed: " + err.Error())
	}

	if err := logger.Init(&config.GlobalConfig.Log, config.GlobalConfig.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	cache.Setup(
		config.GlobalConfig.CacheType,
		config.GlobalConfig.RedisAddr,
		config.GlobalConfig.RedisPassword,
		config.GlobalConfig.RedisDB,
		config.GlobalConfig.EntitlementTTL,
	)

	db, err := bootstrap.SetupDatabase(os.Stdout, &bootstrap.Options{
		InitSQLPath: *initSQL,
		AutoMigrate: true,
		SeedNonProd: os.Getenv("APP_ENV") != "production",
	})
	if err != nil {
		logger.Error("database setup failed", zap.Error(err))
		return
	}

	logger.Info("checked config -- addr: ", zap.String("addr", config.GlobalConfig.Addr))
	logger.Info("checked config -- db-driver: ",
		zap.String("db-driver", config.GlobalConfig.DBDriver),
		zap.String("dsn", config.GlobalConfig.DSN))
	logger.Info("checked config -- mode: ", zap.String("mode", config.GlobalConfig.Mode))

	if config.GlobalConfig.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.LoggerMiddleware(logger.Lg))

	handlers.NewHandlers(db).Register(engine)
	metrics.Register(engine, config.GlobalConfig.MonitorPrefix)

	srv := &http.Server{
		Addr:    config.GlobalConfig.Addr,
		Handler: engine,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", config.GlobalConfig.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}
