package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Reswap-DEX/reswap-periphery/internal/config"
	"github.com/Reswap-DEX/reswap-periphery/internal/eth"
	"github.com/Reswap-DEX/reswap-periphery/internal/handler"
	"github.com/Reswap-DEX/reswap-periphery/internal/logging"
	"github.com/Reswap-DEX/reswap-periphery/internal/metrics"
	"github.com/Reswap-DEX/reswap-periphery/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	apiMetrics, err := metrics.NewAPI(registry)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ethereumClient, err := eth.Dial(ctx, cfg.RPCEndpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to Ethereum node: %w", err)
	}
	defer ethereumClient.Close()

	pairs := eth.NewPairReader(ethereumClient, cfg.FactoryAddress, cfg.PairInitCodeHash)
	estimateHandler := handler.NewEstimateHandler(logger, service.NewEstimateService(logger, ethereumClient, cfg.Fee))
	quoteHandler := handler.NewQuoteHandler(logger, service.NewQuoteService(logger, pairs, cfg.Fee))

	app := fiber.New()
	app.Use(handler.Metrics(apiMetrics))
	app.Get("/estimate", estimateHandler.Handle())
	app.Get("/quote", quoteHandler.HandleQuote())
	app.Get("/amounts/out", quoteHandler.HandleAmountsOut())
	app.Get("/amounts/in", quoteHandler.HandleAmountsIn())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	logger.Info("starting api", "addr", cfg.Addr, "factory", cfg.FactoryAddress.Hex(), "fee", fmt.Sprintf("%d/%d", cfg.Fee.Numerator, cfg.Fee.Denominator))

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			_ = app.Shutdown()
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
	return nil
}
