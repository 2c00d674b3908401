package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over file values, which take precedence over defaults.
// Returns a populated Config or an error if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file; absence is not an error.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Map nested keys to flat environment variables so that e.g.
	// storage.use_s3 is settable as STORAGE_USE_S3.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Aliases matching the deployment's historical variable names.
	bindLegacyEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("storage.use_s3", false)
	v.SetDefault("storage.aws_region", "me-central-1")
	v.SetDefault("storage.s3_prefix", "anthem")
	v.SetDefault("storage.data_dir", "./data")

	v.SetDefault("upload.max_size_mb", 10)

	v.SetDefault("generation.base_url", "https://api.wavespeed.ai/api/v3")
	v.SetDefault("generation.image_fetch_timeout_secs", 60)
	v.SetDefault("generation.video_fetch_timeout_secs", 300)

	v.SetDefault("task.worker_count", 4)
	v.SetDefault("task.queue_size", 64)
}

// bindLegacyEnv keeps the short environment variable names that existing
// deployments already set. Errors from BindEnv only occur for empty keys,
// so they are ignored here.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("storage.use_s3", "USE_S3")
	_ = v.BindEnv("storage.aws_region", "AWS_REGION")
	_ = v.BindEnv("storage.s3_bucket", "AWS_S3_BUCKET", "S3_BUCKET")
	_ = v.BindEnv("storage.s3_prefix", "AWS_S3_PREFIX", "S3_PREFIX")
	_ = v.BindEnv("storage.s3_public_domain", "AWS_S3_PUBLIC_DOMAIN", "S3_PUBLIC_DOMAIN")
	_ = v.BindEnv("storage.public_base_url", "PUBLIC_BASE_URL")
	_ = v.BindEnv("storage.data_dir", "DATA_DIR")
	_ = v.BindEnv("upload.max_size_mb", "MAX_UPLOAD_SIZE_MB")
	_ = v.BindEnv("generation.api_key", "WAVESPEED_API_KEY", "WSAI_KEY")
	_ = v.BindEnv("generation.base_url", "WAVESPEED_BASE_URL")
	_ = v.BindEnv("task.worker_count", "TASK_WORKER_COUNT")
	_ = v.BindEnv("task.queue_size", "TASK_QUEUE_SIZE")
}
