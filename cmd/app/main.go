package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"coordinator/cmd"
	"coordinator/internal/adapters/out/kafka"
	"coordinator/internal/adapters/out/membus"
	"coordinator/internal/core/domain/events"
	"coordinator/internal/jobs"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	configs := getConfigs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db := mustConnectDB(configs)
	if err := cmd.MigrateDB(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	publisher, subscriber, closeBus := buildEventBus(configs, logger)
	defer closeBus()

	root := cmd.NewCompositionRoot(configs, db, publisher, logger)
	if err := root.RegisterEventHandlers(subscriber); err != nil {
		log.Fatalf("Failed to register event handlers: %v", err)
	}

	jobManager := jobs.NewJobManager(root.CreateReconcileStalledOrdersCommandHandler(), logger)
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	startWebServer(&root, configs.HTTPPort)
}

func getConfigs() cmd.Config {
	assignment, err := cmd.AssignmentConfigFromEnv(goDotEnvVariable)
	if err != nil {
		log.Fatalf("Invalid assignment configuration: %v", err)
	}
	supervisor, err := cmd.SupervisorConfigFromEnv(goDotEnvVariable)
	if err != nil {
		log.Fatalf("Invalid supervisor configuration: %v", err)
	}

	return cmd.Config{
		HTTPPort:   goDotEnvVariable("HTTP_PORT"),
		DBHost:     goDotEnvVariable("DB_HOST"),
		DBPort:     goDotEnvVariable("DB_PORT"),
		DBUser:     goDotEnvVariable("DB_USER"),
		DBPassword: goDotEnvVariable("DB_PASSWORD"),
		DBName:     goDotEnvVariable("DB_NAME"),
		DBSslMode:  goDotEnvVariable("DB_SSLMODE"),

		EventBusMode:       goDotEnvVariable("EVENT_BUS_MODE"),
		KafkaHost:          goDotEnvVariable("KAFKA_HOST"),
		KafkaConsumerGroup: goDotEnvVariable("KAFKA_CONSUMER_GROUP"),

		PaymentProviderURL:    goDotEnvVariable("PAYMENT_PROVIDER_URL"),
		PaymentProviderAPIKey: goDotEnvVariable("PAYMENT_PROVIDER_API_KEY"),
		GeoServiceURL:         goDotEnvVariable("GEO_SERVICE_URL"),
		DriverGatewayURL:      goDotEnvVariable("DRIVER_GATEWAY_URL"),
		EmailGatewayURL:       goDotEnvVariable("EMAIL_GATEWAY_URL"),

		Assignment: assignment,
		Supervisor: supervisor,
	}
}

func goDotEnvVariable(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Fatalf("Error loading .env file")
	}
	return os.Getenv(key)
}

func mustConnectDB(configs cmd.Config) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser, configs.DBPassword,
		configs.DBName, configs.DBSslMode)

	// TranslateError is required: the compensation repository keys
	// duplicate detection on gorm.ErrDuplicatedKey.
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func buildEventBus(configs cmd.Config, logger *slog.Logger) (events.Publisher, events.Subscriber, func()) {
	if configs.EventBusMode == "memory" {
		bus := membus.NewBus(logger)
		return bus, bus, func() {}
	}

	brokers := strings.Split(configs.KafkaHost, ",")
	publisher := kafka.NewPublisher(brokers)
	subscriber := kafka.NewSubscriber(brokers, configs.KafkaConsumerGroup, logger)
	return publisher, subscriber, func() {
		if err := subscriber.Close(); err != nil {
			logger.Error("failed to close subscriber", "error", err)
		}
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close publisher", "error", err)
		}
	}
}

func startWebServer(root *cmd.CompositionRoot, port string) {
	e := echo.New()
	e.Use(middleware.Recover())

	server := root.CreateHTTPServer()
	server.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(fmt.Sprintf("0.0.0.0:%s", port)))
}
