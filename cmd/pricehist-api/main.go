// Command pricehist-api is the read-only HTTP service over the
// reconciled database: three read endpoints, a Prometheus /metrics
// endpoint, and a Swagger UI for the generated docs.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"

	"github.com/kosarica/pricehist/config"
	"github.com/kosarica/pricehist/internal/api"
	"github.com/kosarica/pricehist/internal/db"
	"github.com/kosarica/pricehist/internal/telemetry"
)

func main() {
	logger := newLogger()

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.GetConfigFromEnv())
	if err != nil {
		logger.Warn().Err(err).Msg("failed to initialize telemetry")
	} else {
		defer func() { _ = shutdownTelemetry(context.Background()) }()
	}

	cfg, err := config.Load("")
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load config")
	}

	dbURL, err := cfg.RequireDatabaseURL()
	if err != nil {
		logger.Fatal().Err(err).Msg("pricehist-api requires a database URL")
	}

	if err := db.Connect(ctx, dbURL, db.Config{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	h := api.New(db.Pool())

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/chains", h.ListChains)
	router.GET("/chains/:chain/stores/:storeId/prices", h.GetStorePrices)
	router.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))

	addr := ":8081"
	if v := os.Getenv("PRICEHIST_API_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Info().Str("addr", addr).Msg("pricehist-api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
}

func newLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stdout}
	return zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg(fmt.Sprintf("%s %s", c.Request.Method, path))
	}
}
