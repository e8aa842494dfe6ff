package config

import (
	"errors"
	"os"
	"slices"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	InputDir       string
	OutputPath     string
	ManifestPath   string
	StrictRows     bool
	ScreenedFields []domain.Field

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ExitOnComplete  bool
	LoadRetries     int

	// Optional Kafka sink; disabled when KafkaBrokers is empty.
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaBatchSize int

	S3 S3Config
}

// S3Config configures the optional object store. When Bucket is set, input
// tables are read from Bucket/InputPrefix and the cleaned dataset is uploaded
// to OutputKey.
type S3Config struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Bucket      string
	InputPrefix string
	OutputKey   string
	UseSSL      bool
}

// Enabled reports whether an S3 bucket is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// KafkaEnabled reports whether the Kafka sink is configured.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	strictRows, err := parseBool("STRICT_ROWS", false)
	if err != nil {
		return nil, err
	}

	exitOnComplete, err := parseBool("EXIT_ON_COMPLETE", true)
	if err != nil {
		return nil, err
	}

	batchSize, err := parseIntInRange("KAFKA_BATCH_SIZE", 100, 1, 1000)
	if err != nil {
		return nil, err
	}

	retries, err := parseIntInRange("LOAD_RETRIES", 3, 0, 10)
	if err != nil {
		return nil, err
	}

	useSSL, err := parseBool("S3_USE_SSL", false)
	if err != nil {
		return nil, err
	}

	fields, err := parseFields(os.Getenv("SCREEN_FIELDS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputDir:       sharedcfg.EnvOrDefault("INPUT_DIR", "data"),
		OutputPath:     sharedcfg.EnvOrDefault("OUTPUT_PATH", "filtered_dataset.csv"),
		ManifestPath:   os.Getenv("FARM_MANIFEST"),
		StrictRows:     strictRows,
		ScreenedFields: fields,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		ExitOnComplete:  exitOnComplete,
		LoadRetries:     retries,

		KafkaBrokers:   sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "clean-turbine-readings"),
		KafkaBatchSize: batchSize,

		S3: S3Config{
			Endpoint:    os.Getenv("S3_ENDPOINT"),
			AccessKey:   os.Getenv("S3_ACCESS_KEY"),
			SecretKey:   os.Getenv("S3_SECRET_KEY"),
			Bucket:      os.Getenv("S3_BUCKET"),
			InputPrefix: os.Getenv("S3_INPUT_PREFIX"),
			OutputKey:   sharedcfg.EnvOrDefault("S3_OUTPUT_KEY", "filtered_dataset.csv"),
			UseSSL:      useSSL,
		},
	}

	if cfg.S3.Enabled() && cfg.S3.Endpoint == "" {
		return nil, errors.New("S3_ENDPOINT is required when S3_BUCKET is set")
	}

	return cfg, nil
}

func parseFields(s string) ([]domain.Field, error) {
	names := sharedcfg.ParseBrokers(s)
	if len(names) == 0 {
		return slices.Clone(domain.DefaultScreenedFields), nil
	}
	fields := make([]domain.Field, 0, len(names))
	for _, name := range names {
		f, err := domain.ParseField(name)
		if err != nil {
			return nil, errors.New("invalid SCREEN_FIELDS: " + err.Error())
		}
		fields = append(fields, f)
	}
	return fields, nil
}
