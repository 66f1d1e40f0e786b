package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"mentor-booking/cmd"
	"mentor-booking/internal/data/repository"
	"mentor-booking/internal/gateway"
	"mentor-booking/internal/notifier"
	"mentor-booking/internal/wire"
	"mentor-booking/pkg/database"
	"mentor-booking/pkg/mq"
	"mentor-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Name, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		logger.Info("Migrations applied")
	}

	repos := repository.NewRepository(db, logger)

	// Notification sinks: inbox always, broker when configured
	sinks := []notifier.Sink{notifier.NewDBSink(repos.Notification)}
	if config.Rabbit.URL != "" {
		pub, err := mq.NewPublisher(config.Rabbit.URL, config.Rabbit.Exchange)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer pub.Close()
		sinks = append(sinks, notifier.NewAMQPSink(pub))
		logger.Info("Publishing notifications", zap.String("exchange", config.Rabbit.Exchange))
	}

	dispatcher := notifier.NewDispatcher(sinks, config.Notify.Workers, config.Notify.QueueSize, logger)
	dispatcher.Start()
	// drains queued notifications before the pool and broker close
	defer dispatcher.Close()

	gw := gateway.NewStripeGateway(config.Stripe.SecretKey, config.Stripe.WebhookSecret, logger)

	app := wire.Wiring(repos, db, gw, dispatcher, config, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server stopped")
}
