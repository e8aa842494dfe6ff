package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.InputDir)
	assert.Equal(t, "filtered_dataset.csv", cfg.OutputPath)
	assert.Empty(t, cfg.ManifestPath)
	assert.False(t, cfg.StrictRows)
	assert.Equal(t, domain.DefaultScreenedFields, cfg.ScreenedFields)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.ExitOnComplete)
	assert.Equal(t, 3, cfg.LoadRetries)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "clean-turbine-readings", cfg.KafkaSinkTopic)
	assert.Equal(t, 100, cfg.KafkaBatchSize)
	assert.False(t, cfg.S3.Enabled())
	assert.Equal(t, "filtered_dataset.csv", cfg.S3.OutputKey)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_DIR", "/srv/turbines")
	t.Setenv("OUTPUT_PATH", "/srv/out/clean.csv")
	t.Setenv("FARM_MANIFEST", "/etc/wind/farm.yaml")
	t.Setenv("STRICT_ROWS", "true")
	t.Setenv("SCREEN_FIELDS", "wind_speed, absolute_power")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("EXIT_ON_COMPLETE", "false")
	t.Setenv("LOAD_RETRIES", "5")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_BATCH_SIZE", "250")
	t.Setenv("S3_ENDPOINT", "minio:9000")
	t.Setenv("S3_ACCESS_KEY", "access")
	t.Setenv("S3_SECRET_KEY", "secret")
	t.Setenv("S3_BUCKET", "turbines")
	t.Setenv("S3_INPUT_PREFIX", "raw/")
	t.Setenv("S3_OUTPUT_KEY", "clean/filtered.csv")
	t.Setenv("S3_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/turbines", cfg.InputDir)
	assert.Equal(t, "/srv/out/clean.csv", cfg.OutputPath)
	assert.Equal(t, "/etc/wind/farm.yaml", cfg.ManifestPath)
	assert.True(t, cfg.StrictRows)
	assert.Equal(t, []domain.Field{domain.FieldWindSpeed, domain.FieldAbsolutePower}, cfg.ScreenedFields)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.ExitOnComplete)
	assert.Equal(t, 5, cfg.LoadRetries)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, 250, cfg.KafkaBatchSize)
	assert.Equal(t, S3Config{
		Endpoint:    "minio:9000",
		AccessKey:   "access",
		SecretKey:   "secret",
		Bucket:      "turbines",
		InputPrefix: "raw/",
		OutputKey:   "clean/filtered.csv",
		UseSSL:      true,
	}, cfg.S3)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"STRICT_ROWS", "maybe"},
		{"EXIT_ON_COMPLETE", "yes please"},
		{"KAFKA_BATCH_SIZE", "0"},
		{"KAFKA_BATCH_SIZE", "9999"},
		{"LOAD_RETRIES", "-1"},
		{"LOAD_RETRIES", "many"},
		{"S3_USE_SSL", "sometimes"},
		{"SCREEN_FIELDS", "wind_speed,humidity"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_BucketWithoutEndpoint(t *testing.T) {
	t.Setenv("S3_BUCKET", "turbines")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_ENDPOINT")
}

func TestLoad_ListsTrimBlanks(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ,")
	t.Setenv("SCREEN_FIELDS", " wind_speed, ,air_den ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []domain.Field{domain.FieldWindSpeed, domain.FieldAirDensity}, cfg.ScreenedFields)
}
