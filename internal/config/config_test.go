package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	require.NoError(t, Load())
	assert.Equal(t, ":8080", APIAddr())
	assert.Equal(t, "postgres", AlertStore())
	assert.Equal(t, "postgres", StoreBackend())
	assert.Equal(t, 10*time.Minute, CacheTTL())
	assert.False(t, UseCloudServices())
	assert.Empty(t, KafkaBrokers())
	assert.Equal(t, "solar/readings", MQTTTopic())
}

func TestEnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("ALERT_STORE", "DynamoDB")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("STORE", "Memory")

	require.NoError(t, Load())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, KafkaBrokers())
	assert.Equal(t, "dynamodb", AlertStore())
	assert.Equal(t, 90*time.Second, CacheTTL())
	assert.Equal(t, "memory", StoreBackend())
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("LOG_LEVEL", "loud")

	assert.Error(t, Load())
}
