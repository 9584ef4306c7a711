package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/supply-planner/internal/application"
	"github.com/eugenenazirov/supply-planner/internal/config"
	"github.com/eugenenazirov/supply-planner/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("supply-planner", "Supply Planner - finds the cheapest exact-quantity purchase across supplier offers")
	overrides := registerFlags(kingpinApp)

	kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	cfg, err := config.Load(overrides.resolve())
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// flagValues holds raw flag values; negative numbers and empty strings mean "not set".
type flagValues struct {
	configFile     *string
	offersFile     *string
	port           *string
	logLevel       *string
	rateLimitRPS   *float64
	rateLimitBurst *int
	maxQuantity    *int
	priceCeiling   *float64
}

func registerFlags(app *kingpin.Application) *flagValues {
	return &flagValues{
		configFile:     app.Flag("config", "Path to YAML configuration file").String(),
		offersFile:     app.Flag("offers-file", "Path to YAML file with the initial offer catalog").String(),
		port:           app.Flag("port", "HTTP port exposed by the service").String(),
		logLevel:       app.Flag("log-level", "Log level (debug, info, warn, error)").String(),
		rateLimitRPS:   app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64(),
		rateLimitBurst: app.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int(),
		maxQuantity:    app.Flag("max-quantity", "Largest quantity accepted by the plan endpoint").Default("-1").Int(),
		priceCeiling:   app.Flag("price-ceiling", "Enable lossy price ceiling pruning with this factor (0 disables)").Default("-1").Float64(),
	}
}

func (f *flagValues) resolve() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile: *f.configFile,
		OffersFile: *f.offersFile,
	}

	if *f.port != "" {
		overrides.Port = f.port
	}

	if *f.logLevel != "" {
		overrides.LogLevel = f.logLevel
	}

	if *f.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = f.rateLimitRPS
	}

	if *f.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = f.rateLimitBurst
	}

	if *f.maxQuantity >= 0 {
		overrides.MaxQuantity = f.maxQuantity
	}

	if *f.priceCeiling >= 0 {
		overrides.PriceCeiling = f.priceCeiling
	}

	return overrides
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
