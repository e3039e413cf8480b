package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/TakenPilot/cloudflare-workers/config"
	"github.com/TakenPilot/cloudflare-workers/internal/queue"
	"github.com/TakenPilot/cloudflare-workers/internal/service"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Deliver queued confirmation emails",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(config.ServiceWorker)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sender := service.NewResendEmailSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.ConfirmBaseURL)
		consumer := queue.NewConsumer(cfg.AMQPURL, sender, logger)

		logger.WithField("queue", queue.ConfirmationQueueName).Info("worker started")
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("worker stopped")
		return nil
	},
}
