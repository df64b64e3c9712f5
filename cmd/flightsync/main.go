package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"flightsync/cfg"
	"flightsync/internal/flight"
	"flightsync/pkg/cache"
	"flightsync/pkg/db"
	"flightsync/pkg/flightclient"
	"flightsync/pkg/idgen"
	"flightsync/pkg/logger"

	_ "flightsync/cmd/flightsync/docs" // swagger docs

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// @title           Flightsync API
// @version         1.0
// @description     Imports flights from aviationstack into a relational store and lists recent flights.
// @BasePath        /
// @schemes         http
func main() {
	// ============
	// config
	// ============
	config, errCfg := cfg.Load()
	if errCfg != nil {
		log.Fatal(errCfg)
	}

	// ============
	// logger
	// ============
	zlogger := logger.NewZeroLog(config.AppEnv)

	// ============
	// Otel
	// ============
	if config.Observability.Enabled {
		shutdownOtel, err := initOtel(context.Background(), &config.Observability, zlogger)
		if err != nil {
			log.Fatalf("failed to initialize OpenTelemetry: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOtel(ctx); err != nil {
				log.Printf("failed to shutdown OpenTelemetry: %v", err)
			}
		}()
	}

	// ============
	// Build DSN from config
	// ============
	dsn, migrateURL := buildDSN(config)

	// =========
	// Migrate
	// =========
	if err := db.Migrate(config.DBDriver, migrateURL); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// ============
	// Init DB client
	// ============
	driver, err := db.DriverName(config.DBDriver)
	if err != nil {
		log.Fatal(err)
	}
	client, err := db.NewSQLClient(driver, dsn, db.PoolConfig{
		MaxOpenConns:    config.Pool.MaxOpenConns,
		MaxIdleConns:    config.Pool.MaxIdleConns,
		ConnMaxLifetime: config.Pool.ConnMaxLifetime,
		ConnMaxIdleTime: config.Pool.ConnMaxIdleTime,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	// ============
	// Cache
	// ============
	var flightCache cache.Cache
	if config.CacheEnabled() {
		flightCache = cache.NewRedisCache(cache.RedisConfig{
			Addr:         config.RedisConfig.Host + ":" + config.RedisConfig.Port,
			Password:     config.RedisConfig.Password,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		})
	}

	// ============
	// External Service
	// ============
	httpClient := &http.Client{
		Timeout: config.HTTPClientTimeout,
	}
	aviationStack := flightclient.NewAviationStackClient(
		httpClient,
		config.AviationStackConfig.BaseURL,
		config.AviationStackConfig.AccessKey,
		config.AviationStackConfig.Limit,
		zlogger,
	)

	// ============
	// Internal Service
	// ============
	ids, err := idgen.NewSnowflakeGenerator(config.SnowflakeNodeID)
	if err != nil {
		log.Fatal(err)
	}
	store := flight.NewStore(client, flight.NewResolver(zlogger), zlogger)
	flightSvc := flight.NewService(aviationStack, store, flightCache, config.CacheTTLMinutes, ids, zlogger)
	flightHandler := flight.NewFlightHandler(flightSvc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var background sync.WaitGroup
	if config.ImportInterval > 0 {
		scheduler := flight.NewScheduler(flightSvc, config.ImportInterval, zlogger)
		background.Add(1)
		go func() {
			defer background.Done()
			scheduler.Run(ctx)
		}()
	}

	// ============
	// HTTP
	// ============
	if config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if config.Observability.Enabled {
		r.Use(otelgin.Middleware(config.Observability.ServiceName))
	}
	r.Use(TraceLoggerMiddleware(zlogger))

	flightHandler.RegisterRoutes(r)
	initSwagger(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.AppPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlogger.Info("http server listening", logger.Field{Key: "addr", Value: srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	zlogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlogger.Error("http server shutdown failed", logger.Field{Key: "err", Value: err})
	}
	background.Wait()
}

// buildDSN returns the driver DSN and the golang-migrate URL for the
// configured database.
func buildDSN(config *cfg.Config) (string, string) {
	if config.DBDriver == db.DialectSQLite {
		return db.SQLiteDSN(config.SQLite.Path), "sqlite://" + config.SQLite.Path
	}

	pg := config.Postgres
	pgURL := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(pg.User, pg.Password),
		Host:     pg.Host + ":" + pg.Port,
		Path:     "/" + pg.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(pg.SSLMode),
	}
	pgDSN := pgURL.String()
	return pgDSN, pgDSN
}

func initSwagger(r *gin.Engine) {
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		html := `<!DOCTYPE html>
<html>
<head>
    <title>API Documentation</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
    <script id="api-reference" data-url="/swagger/doc.json"></script>
    <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
		c.String(200, html)
	})
}
