package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"moneygrowth/internal/ai"
	"moneygrowth/internal/amqp"
	"moneygrowth/internal/cli"
	apphttp "moneygrowth/internal/http"
	applog "moneygrowth/internal/log"
	"moneygrowth/internal/services"
)

func main() {
	cli.LoadEnvFile()
	slogger := cli.SetupLogger()
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := cli.LoadAndValidateConfig(slogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := cli.InitBackend(ctx, slogger, cfg)
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				slogger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	// AMQP is optional; without it transactions simply stay local.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			slogger.Warn("AMQP unavailable, continuing without record sync", "error", err)
			amqpClient = nil
		} else {
			slogger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		slogger.Info("AMQP disabled - records will not sync")
	}

	ledger := services.NewLedger(result.Backend, amqpClient)
	defer ledger.Close()

	// The assistant is optional as well; its endpoints answer 503
	// when no API key is configured.
	var assistant *ai.Client
	if cfg.GeminiAPIKey != "" {
		var err error
		assistant, err = ai.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slogger.Warn("Assistant unavailable", "error", err)
			assistant = nil
		} else {
			slogger.Info("Assistant initialized", "model", cfg.GeminiModel)
		}
	} else {
		slogger.Info("Assistant disabled - no GEMINI_API_KEY provided")
	}

	recurring := services.NewRecurringProcessor(result.Backend, ledger)
	alertCfg := services.DefaultAlertProcessorConfig()
	alertCfg.PollInterval = cfg.ScanInterval
	alerts := services.NewAlertProcessor(result.Backend, recurring, alertCfg)

	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, ledger, assistant, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	if err := alerts.Start(ctx); err != nil {
		slogger.Error("Failed to start alert processor", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slogger.Info("Starting moneygrowth server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := alerts.Stop(shutdownCtx); err != nil {
			slogger.Error("Alert processor shutdown error", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slogger.Error("Service error", "error", err)
		os.Exit(1)
	}
	slogger.Info("Server stopped gracefully")
}
