package main

import (
	"context"
	"errors"
	"os"
	"time"

	"moneygrowth/internal/amqp"
	"moneygrowth/internal/cli"
	"moneygrowth/internal/sheets"
	gsheet "moneygrowth/internal/sheets/google"
	mem "moneygrowth/internal/sheets/memory"
	"moneygrowth/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting sync-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	rootCtx := context.Background()
	result := cli.InitBackend(rootCtx, logger, cfg)
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	// Mirror target: Google Sheets when configured, otherwise an
	// in-memory sink so the queue still drains during development.
	var (
		writer  sheets.TransactionWriter
		remover sheets.TransactionRemover
	)
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(rootCtx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer, remover = client, client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		sink := mem.New()
		writer, remover = sink, sink
		logger.Info("Google Sheets disabled - mirroring to memory sink")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(result.Backend, writer, remover)

	// The shutdown cleanup is the sole owner of the AMQP connection;
	// closing it unblocks the consumer below.
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
	})

	go func() {
		if err := amqpClient.ConsumeRecordSync(ctx, func(msg *amqp.RecordSyncMessage) error {
			return syncWorker.HandleMessage(ctx, msg)
		}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
