package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Storage    StorageConfig    `mapstructure:"storage"    validate:"required"`
	Upload     UploadConfig     `mapstructure:"upload"     validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Task       TaskConfig       `mapstructure:"task"       validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StorageConfig selects and parameterizes the media storage backend.
// Exactly one backend is active for the lifetime of the process: local
// filesystem (the default) or S3. When UseS3 is set, S3Bucket is mandatory.
type StorageConfig struct {
	UseS3          bool   `mapstructure:"use_s3"`
	AWSRegion      string `mapstructure:"aws_region"       validate:"required"`
	S3Bucket       string `mapstructure:"s3_bucket"        validate:"required_if=UseS3 true"`
	S3Prefix       string `mapstructure:"s3_prefix"`
	S3PublicDomain string `mapstructure:"s3_public_domain"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
	DataDir        string `mapstructure:"data_dir"         validate:"required"`
}

// UploadConfig constrains incoming photo uploads.
type UploadConfig struct {
	MaxSizeMB int `mapstructure:"max_size_mb" validate:"required,gt=0"`
}

// MaxSizeBytes returns the upload limit in bytes.
func (u UploadConfig) MaxSizeBytes() int64 {
	return int64(u.MaxSizeMB) * 1024 * 1024
}

// GenerationConfig contains settings for the external generative-media API.
type GenerationConfig struct {
	APIKey  string `mapstructure:"api_key"  validate:"required"`
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// Timeouts in seconds for fetching generated media back from the
	// provider. Videos are much larger than images.
	ImageFetchTimeoutSecs int `mapstructure:"image_fetch_timeout_secs" validate:"required,gt=0"`
	VideoFetchTimeoutSecs int `mapstructure:"video_fetch_timeout_secs" validate:"required,gt=0"`
}

// TaskConfig contains settings for background pipeline processing.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int `mapstructure:"queue_size"   validate:"required,gt=0"`
}
