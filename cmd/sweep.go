package cmd

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	config "task-market.com/task-market/internal/configs"
	"task-market.com/task-market/internal/gateway"
	"task-market.com/task-market/internal/notify"
	repository "task-market.com/task-market/internal/repositories"
	"task-market.com/task-market/internal/services"
)

// sweepCmd runs exactly one reconciliation tick and exits, for deployments
// that drive the sweep from an external scheduler instead of the in-process
// cron.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a single payout reconciliation pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Info().Msg(".env file not found, using environment variables")
		}

		cfg := config.Load()

		database := config.NewDatabase(cfg.DatabaseDSN)
		taskRepo := repository.NewTaskRepository(database)
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

		payoutService := services.NewPayoutService(taskRepo, userRepo, gatewayClient, cfg.Currency, notify.NewLogNotifier())
		sweepService := services.NewSweepService(
			taskRepo,
			payoutService,
			time.Duration(cfg.PayoutGraceHours)*time.Hour,
			cfg.SweepBatchSize,
		)

		processed, err := sweepService.RunOnce(context.Background())
		if err != nil {
			return err
		}

		log.Info().Int("processed", processed).Msg("sweep finished")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
