package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ytget/ytqueue/internal/model"
)

// EnvPrefix prefixes every environment variable read by LoadEnv
const EnvPrefix = "YTQ"

// DefaultEnvFile is loaded when present and no other file is given
const DefaultEnvFile = ".env"

// EnvConfig holds the headless downloader configuration.
type EnvConfig struct {
	DownloadDir      string        `envconfig:"DOWNLOAD_DIR" default:"." validate:"required"`
	MaxParallel      int           `envconfig:"MAX_PARALLEL" default:"2" validate:"min=1,max=10"`
	Container        string        `envconfig:"CONTAINER" default:"mp3" validate:"oneof=mp3 m4a mp4 webm"`
	FileNameTemplate string        `envconfig:"TEMPLATE" default:"$title" validate:"required"`
	SkipExisting     bool          `envconfig:"SKIP_EXISTING" default:"false"`
	Tag              bool          `envconfig:"TAG" default:"true"`
	Enrich           bool          `envconfig:"ENRICH" default:"false"`
	FFmpegPath       string        `envconfig:"FFMPEG"`
	ResolveTimeout   time.Duration `envconfig:"RESOLVE_TIMEOUT" default:"60s" validate:"gt=0"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
	MetricsAddr      string        `envconfig:"METRICS_ADDR" validate:"omitempty,hostname_port"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
}

var validate = validator.New()

// LoadEnv reads dotenv files into the environment, then processes YTQ_*
// variables. Without arguments an optional .env in the working directory is used.
func LoadEnv(files ...string) (*EnvConfig, error) {
	if len(files) == 0 {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", DefaultEnvFile, err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	var cfg EnvConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for invalid or missing values
func (c *EnvConfig) Validate() error {
	return validate.Struct(c)
}

// OutputContainer returns the configured container
func (c *EnvConfig) OutputContainer() model.Container {
	return model.Container(c.Container)
}
