// Package config loads the application configuration from defaults,
// an optional config file and JASP_-prefixed environment variables,
// in increasing precedence. CLI flags override all of it.
package config

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Queue   QueueConfig   `mapstructure:"queue"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Events  EventsConfig  `mapstructure:"events"`
	Run     RunConfig     `mapstructure:"run"`
}

// QueueConfig configures the batch scheduler commands.
type QueueConfig struct {
	// StatusCommand queries one job id; the id is appended as the
	// last argument and exit status zero means present.
	StatusCommand []string `mapstructure:"status_command"`

	// SubmitCommand submits a job script; the script path is appended
	// and the first stdout line is the new job id.
	SubmitCommand []string `mapstructure:"submit_command"`

	// Script is the job script name submitted from each directory.
	Script string `mapstructure:"script"`

	// StatusRatePerSec caps scheduler status queries per second
	// during batch walks. Zero disables the cap.
	StatusRatePerSec float64 `mapstructure:"status_rate_per_sec"`
}

// ServerConfig configures the read-only status server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// ArchiveConfig configures the optional S3 archive hook.
type ArchiveConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
}

// EventsConfig configures the optional NATS completion-event hook.
type EventsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

// RunConfig holds defaults for the run command.
type RunConfig struct {
	KeepCharge bool `mapstructure:"keep_chgcar"`
	KeepWave   bool `mapstructure:"keep_wavecar"`
}

var (
	configMu  sync.Mutex
	appConfig *Config
)

// Load builds the configuration: defaults, then an optional jasp.yaml
// (current directory or ~/.config/jasp), then JASP_* environment
// variables. The loaded config is cached for GetConfig.
func Load() (*Config, error) {
	configMu.Lock()
	defer configMu.Unlock()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("jasp")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/jasp")
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("JASP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	appConfig = &cfg
	return appConfig, nil
}

// GetConfig returns the last loaded configuration, or nil before Load.
func GetConfig() *Config {
	configMu.Lock()
	defer configMu.Unlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("queue.status_command", []string{"qstat"})
	v.SetDefault("queue.submit_command", []string{"qsub"})
	v.SetDefault("queue.script", "run.sh")
	v.SetDefault("queue.status_rate_per_sec", 5.0)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.prefix", "jasp")

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.url", "nats://127.0.0.1:4222")
	v.SetDefault("events.subject", "jasp.job.finished")

	v.SetDefault("run.keep_chgcar", false)
	v.SetDefault("run.keep_wavecar", false)
}
