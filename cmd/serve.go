package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	config "task-market.com/task-market/internal/configs"
	"task-market.com/task-market/internal/gateway"
	httpapi "task-market.com/task-market/internal/http"
	"task-market.com/task-market/internal/notify"
	repository "task-market.com/task-market/internal/repositories"
	"task-market.com/task-market/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the task market API, webhook ingest and the hourly payout reconciliation sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Info().Msg(".env file not found, using environment variables")
		}

		cfg := config.Load()

		database := config.NewDatabase(cfg.DatabaseDSN)
		redisClient := config.NewRedisClient(cfg.RedisAddr)
		defer redisClient.Close()

		taskRepo := repository.NewTaskRepository(database)
		subRepo := repository.NewSubmissionRepository(database)
		userRepo := repository.NewUserRepository(database)

		gatewayClient, err := gateway.NewRazorpayClient(
			cfg.GatewayBaseURL,
			cfg.GatewayKeyID,
			cfg.GatewayKeySecret,
			cfg.GatewayAccountNumber,
			time.Duration(cfg.GatewayTimeoutSeconds)*time.Second,
		)
		if err != nil {
			return err
		}

		notifier := notify.NewLogNotifier()

		taskService := services.NewTaskService(taskRepo, cfg.MaxRevisionRequests)
		paymentService := services.NewPaymentService(taskRepo, userRepo, gatewayClient, cfg.PlatformFeePercent, cfg.Currency)
		webhookService := services.NewWebhookService(taskRepo, services.NewRedisEventCache(redisClient), cfg.GatewayWebhookSecret, notifier)
		payoutService := services.NewPayoutService(taskRepo, userRepo, gatewayClient, cfg.Currency, notifier)
		submissionService := services.NewSubmissionService(taskRepo, subRepo, payoutService, notifier)
		sweepService := services.NewSweepService(
			taskRepo,
			payoutService,
			time.Duration(cfg.PayoutGraceHours)*time.Hour,
			cfg.SweepBatchSize,
		)

		if err := sweepService.Start(cfg.SweepCronSpec, cfg.ExpiryCronSpec); err != nil {
			return err
		}

		e := echo.New()
		handler := httpapi.NewHandler(taskService, paymentService, webhookService, submissionService, sweepService, cfg.MinimumBudget)
		httpapi.Register(e, handler, cfg.RateLimit)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			log.Info().Str("addr", cfg.AppURL).Msg("HTTP server listening")
			if err := e.Start(cfg.AppURL); err != nil {
				log.Info().Err(err).Msg("server stopped")
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()

		_ = e.Shutdown(shutdownCtx)
		sweepService.Stop()

		log.Info().Msg("HTTP server and sweep scheduler shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
