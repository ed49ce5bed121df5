package cmd

import (
	"fmt"
	"strconv"
	"time"

	"coordinator/internal/core/application/usecases/commands"
)

type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// EventBusMode selects "kafka" or "memory". The in-memory bus exists
	// for local single-process runs without a broker.
	EventBusMode       string
	KafkaHost          string
	KafkaConsumerGroup string

	PaymentProviderURL    string
	PaymentProviderAPIKey string
	GeoServiceURL         string
	DriverGatewayURL      string
	EmailGatewayURL       string

	Assignment commands.AssignmentConfig
	Supervisor commands.SupervisorConfig
}

// AssignmentConfigFromEnv reads the driver search bounds from the
// environment, keeping the stock values for unset keys.
func AssignmentConfigFromEnv(get func(string) string) (commands.AssignmentConfig, error) {
	config := commands.DefaultAssignmentConfig()
	var err error

	if config.SearchRadiusMeters, err = envFloat(get, "ASSIGNMENT_SEARCH_RADIUS_METERS",
		config.SearchRadiusMeters); err != nil {
		return commands.AssignmentConfig{}, err
	}
	if config.MaxRounds, err = envInt(get, "ASSIGNMENT_MAX_ROUNDS", config.MaxRounds); err != nil {
		return commands.AssignmentConfig{}, err
	}
	if config.Window, err = envDuration(get, "ASSIGNMENT_WINDOW", config.Window); err != nil {
		return commands.AssignmentConfig{}, err
	}
	if config.OfferTimeout, err = envDuration(get, "ASSIGNMENT_OFFER_TIMEOUT",
		config.OfferTimeout); err != nil {
		return commands.AssignmentConfig{}, err
	}
	return config, nil
}

// SupervisorConfigFromEnv reads the stall deadlines from the environment,
// keeping the stock values for unset keys.
func SupervisorConfigFromEnv(get func(string) string) (commands.SupervisorConfig, error) {
	config := commands.DefaultSupervisorConfig()
	var err error

	if config.PaymentTimeout, err = envDuration(get, "SUPERVISOR_PAYMENT_TIMEOUT",
		config.PaymentTimeout); err != nil {
		return commands.SupervisorConfig{}, err
	}
	if config.AssignmentTimeout, err = envDuration(get, "SUPERVISOR_ASSIGNMENT_TIMEOUT",
		config.AssignmentTimeout); err != nil {
		return commands.SupervisorConfig{}, err
	}
	if config.DeliverySLA, err = envDuration(get, "SUPERVISOR_DELIVERY_SLA",
		config.DeliverySLA); err != nil {
		return commands.SupervisorConfig{}, err
	}
	return config, nil
}

func envFloat(get func(string) string, key string, fallback float64) (float64, error) {
	raw := get(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, nil
}

func envInt(get func(string) string, key string, fallback int) (int, error) {
	raw := get(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, nil
}

func envDuration(get func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	raw := get(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, nil
}
