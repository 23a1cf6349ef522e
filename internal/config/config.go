package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-versioner/internal/catalog"
	"github.com/aliskhannn/image-versioner/internal/model"
)

// Config holds the main configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Storage  Storage  `mapstructure:"storage"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Retry    Retry    `mapstructure:"retry"`
	Engine   Engine   `mapstructure:"engine"`
	Pipeline Pipeline `mapstructure:"pipeline"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort string `mapstructure:"http_port"` // address to listen on, e.g. ":8080"; empty disables HTTP
}

// Storage holds configuration for the object storage backend.
type Storage struct {
	Driver       string `mapstructure:"driver" validate:"oneof=minio s3"`
	Endpoint     string `mapstructure:"endpoint" validate:"required_if=Driver minio"`
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	Region       string `mapstructure:"region"`
	UseSSL       bool   `mapstructure:"use_ssl"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	Bucket       string `mapstructure:"bucket"` // default bucket for manual triggers
}

// Kafka holds configuration for the Kafka message queue.
type Kafka struct {
	GroupID         string   `mapstructure:"group_id"`          // Consumer group ID
	Topic           string   `mapstructure:"topic"`             // topic carrying bucket notifications
	Brokers         []string `mapstructure:"brokers"`           // List of Kafka broker addresses
	CompletionTopic string   `mapstructure:"completion_topic"`  // optional topic for completion events
	DeadLetterTopic string   `mapstructure:"dead_letter_topic"` // optional topic for notifications that keep failing
}

// Retry defines retry policy configuration.
type Retry struct {
	Attempts int           `mapstructure:"attempts" validate:"gte=1"` // Number of retry attempts
	Delay    time.Duration `mapstructure:"delay" validate:"gte=0"`    // Initial delay between retries
	Backoff  float64       `mapstructure:"backoff" validate:"gte=1"`  // Backoff multiplier for delays
}

// Engine selects and configures the image engine.
type Engine struct {
	Driver         string `mapstructure:"driver" validate:"oneof=magick native"`
	IdentifyBinary string `mapstructure:"identify_binary"`
	ConvertBinary  string `mapstructure:"convert_binary"`
}

// Pipeline holds derivative generation settings.
type Pipeline struct {
	WorkDir           string              `mapstructure:"work_dir"`
	InvocationTimeout time.Duration       `mapstructure:"invocation_timeout" validate:"gte=0"`
	CacheMaxAge       time.Duration       `mapstructure:"cache_max_age" validate:"gt=0"`
	ExpiresIn         time.Duration       `mapstructure:"expires_in" validate:"gt=0"`
	SkipDerived       bool                `mapstructure:"skip_derived"` // skip "{version}_" names before fetching
	Versions          []model.VersionSpec `mapstructure:"versions"`
}

// Enabled reports whether a Kafka consumer should run.
func (k Kafka) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// setDefaults registers the values used when neither file nor env set a key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", ":8080")

	v.SetDefault("storage.driver", "minio")
	v.SetDefault("storage.use_ssl", false)

	v.SetDefault("kafka.group_id", "image-versioner")

	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", 200*time.Millisecond)
	v.SetDefault("retry.backoff", 2.0)

	v.SetDefault("engine.driver", "magick")
	v.SetDefault("engine.identify_binary", "identify")
	v.SetDefault("engine.convert_binary", "convert")

	v.SetDefault("pipeline.cache_max_age", 365*24*time.Hour)
	v.SetDefault("pipeline.expires_in", 7*24*time.Hour)
	v.SetDefault("pipeline.skip_derived", false)

	versions := make([]map[string]any, 0)
	for _, spec := range catalog.DefaultVersions() {
		entry := map[string]any{"name": spec.Name, "width": spec.Width}
		if spec.Height != nil {
			entry["height"] = *spec.Height
		}
		versions = append(versions, entry)
	}
	v.SetDefault("pipeline.versions", versions)
}

// bindEnv binds environment variables to Viper keys.
func bindEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"storage.driver":          "STORAGE_DRIVER",
		"storage.endpoint":        "STORAGE_ENDPOINT",
		"storage.access_key":      "STORAGE_ACCESS_KEY",
		"storage.secret_key":      "STORAGE_SECRET_KEY",
		"storage.region":          "STORAGE_REGION",
		"storage.bucket":          "STORAGE_BUCKET",
		"kafka.brokers":           "KAFKA_BROKERS",
		"kafka.topic":             "KAFKA_TOPIC",
		"kafka.completion_topic":  "KAFKA_COMPLETION_TOPIC",
		"kafka.dead_letter_topic": "KAFKA_DEAD_LETTER_TOPIC",
		"engine.driver":           "ENGINE_DRIVER",
		"pipeline.work_dir":       "PIPELINE_WORK_DIR",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	return nil
}

// Load reads the configuration from path, environment and defaults, and
// validates it. A missing file is not an error when optional is true.
func Load(path string, optional bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !optional || !(errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad loads the configuration from the specified file path.
// It panics if the configuration cannot be loaded or is invalid.
func MustLoad(path string) *Config {
	cfg, err := Load(path, false)
	if err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to load config")
	}

	return cfg
}

// Validate checks field constraints and the version catalog.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := catalog.New(c.Pipeline.Versions); err != nil {
		return err
	}

	return nil
}
