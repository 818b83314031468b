package main

import (
	"context"
	"time"

	"moneygrowth/internal/amqp"
	"moneygrowth/internal/cli"
	"moneygrowth/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	rootCtx := context.Background()
	result := cli.InitBackend(rootCtx, logger, cfg)
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	// Publishing is optional; generated transactions stay local when
	// no broker is configured.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without record sync", "error", err)
			amqpClient = nil
		}
	}

	// The ledger owns the AMQP client and closes it on shutdown.
	ledger := services.NewLedger(result.Backend, amqpClient)
	defer ledger.Close()
	processor := services.NewRecurringProcessor(result.Backend, ledger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Recurring receipt processor configured", "interval", cfg.ScanInterval)

	// Run once at startup, then on the configured interval.
	runOnce := func() {
		generated, err := processor.ProcessDueReceipts(ctx, time.Now())
		if err != nil {
			logger.Error("Processing due receipts failed", "error", err)
			return
		}
		if generated > 0 {
			logger.Info("Generated transactions from due receipts", "count", generated)
		}
	}
	runOnce()

	ticker := time.NewTicker(cfg.ScanInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
