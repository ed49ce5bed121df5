package cmd_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coordinator/cmd"
	"coordinator/internal/core/application/usecases/commands"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func Test_AssignmentConfigFromEnv(t *testing.T) {
	t.Run("should_keep_stock_values_when_unset", func(t *testing.T) {
		config, err := cmd.AssignmentConfigFromEnv(envFrom(nil))

		require.NoError(t, err)
		assert.Equal(t, commands.DefaultAssignmentConfig(), config)
	})

	t.Run("should_read_overrides_from_environment", func(t *testing.T) {
		config, err := cmd.AssignmentConfigFromEnv(envFrom(map[string]string{
			"ASSIGNMENT_SEARCH_RADIUS_METERS": "7500",
			"ASSIGNMENT_MAX_ROUNDS":           "5",
			"ASSIGNMENT_WINDOW":               "2m",
			"ASSIGNMENT_OFFER_TIMEOUT":        "45s",
		}))

		require.NoError(t, err)
		assert.Equal(t, 7500.0, config.SearchRadiusMeters)
		assert.Equal(t, 5, config.MaxRounds)
		assert.Equal(t, 2*time.Minute, config.Window)
		assert.Equal(t, 45*time.Second, config.OfferTimeout)
	})

	t.Run("should_reject_malformed_values", func(t *testing.T) {
		_, err := cmd.AssignmentConfigFromEnv(envFrom(map[string]string{
			"ASSIGNMENT_MAX_ROUNDS": "many",
		}))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ASSIGNMENT_MAX_ROUNDS")
	})
}

func Test_SupervisorConfigFromEnv(t *testing.T) {
	t.Run("should_keep_stock_values_when_unset", func(t *testing.T) {
		config, err := cmd.SupervisorConfigFromEnv(envFrom(nil))

		require.NoError(t, err)
		assert.Equal(t, commands.DefaultSupervisorConfig(), config)
	})

	t.Run("should_read_overrides_from_environment", func(t *testing.T) {
		config, err := cmd.SupervisorConfigFromEnv(envFrom(map[string]string{
			"SUPERVISOR_PAYMENT_TIMEOUT":    "5m",
			"SUPERVISOR_ASSIGNMENT_TIMEOUT": "10m",
			"SUPERVISOR_DELIVERY_SLA":       "1h",
		}))

		require.NoError(t, err)
		assert.Equal(t, 5*time.Minute, config.PaymentTimeout)
		assert.Equal(t, 10*time.Minute, config.AssignmentTimeout)
		assert.Equal(t, time.Hour, config.DeliverySLA)
	})

	t.Run("should_reject_malformed_values", func(t *testing.T) {
		_, err := cmd.SupervisorConfigFromEnv(envFrom(map[string]string{
			"SUPERVISOR_DELIVERY_SLA": "soon",
		}))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "SUPERVISOR_DELIVERY_SLA")
	})
}
