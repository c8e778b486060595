// Package config provides YAML-based configuration loading for framelink.
package config

import (
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "github.com/spf13/viper"
)

// Config is the root application configuration, shared by the compute and
// view binaries.
type Config struct {
    // AppName optional logical name of the application
    AppName string `mapstructure:"app_name"`

    // Log holds logging configuration
    Log LogConfig `mapstructure:"log"`

    // Channel configures the transfer channel between compute and view
    Channel ChannelConfig `mapstructure:"channel"`

    // Field configures the computed sample grid
    Field FieldConfig `mapstructure:"field"`
}

// LogConfig defines logger settings.
type LogConfig struct {
    // Level: debug, info, warn, error
    Level string `mapstructure:"level"`
    // Format: console or json
    Format string `mapstructure:"format"`
    // Outputs: list of outputs: stdout, stderr, or file paths
    Outputs []string `mapstructure:"outputs"`

    // Rotation controls file rotation when writing to files
    Rotation RotationConfig `mapstructure:"rotation"`
    // Development toggles development-friendly logging options
    Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
    Enable     bool `mapstructure:"enable"`
    MaxSizeMB  int  `mapstructure:"max_size_mb"`
    MaxBackups int  `mapstructure:"max_backups"`
    MaxAgeDays int  `mapstructure:"max_age_days"`
    Compress   bool `mapstructure:"compress"`
}

// ChannelConfig configures the rendezvous and the transfer channel.
type ChannelConfig struct {
    // Transport kind: tcp, quic or mem
    Transport string `mapstructure:"transport"`
    // Listen address for the published endpoint (producer side)
    Listen string `mapstructure:"listen"`
    // RendezvousPath overrides the platform-default descriptor file
    RendezvousPath string `mapstructure:"rendezvous_path"`
    // MinSendIntervalMS caps the producer's send rate
    MinSendIntervalMS int `mapstructure:"min_send_interval_ms"`
    // PollIntervalMS is the consumer's tick interval
    PollIntervalMS int `mapstructure:"poll_interval_ms"`
}

// FieldConfig configures the computed grid and the worker group.
type FieldConfig struct {
    Width   int `mapstructure:"width"`
    Height  int `mapstructure:"height"`
    Workers int `mapstructure:"workers"`
    // DurationS is the compute run length in seconds
    DurationS float64 `mapstructure:"duration_s"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
    return &Config{
        AppName: "framelink",
        Log: LogConfig{
            Level:       "info",
            Format:      "console",
            Outputs:     []string{"stdout"},
            Development: true,
            Rotation: RotationConfig{
                Enable:     false,
                MaxSizeMB:  50,
                MaxBackups: 3,
                MaxAgeDays: 28,
                Compress:   true,
            },
        },
        Channel: ChannelConfig{
            Transport:         "tcp",
            Listen:            "127.0.0.1:0",
            MinSendIntervalMS: 33,
            PollIntervalMS:    5,
        },
        Field: FieldConfig{
            Width:     512,
            Height:    512,
            Workers:   2,
            DurationS: 15,
        },
    }
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment
// overrides. Environment variables use the prefix FRAMELINK and `.`/`-`
// are replaced with `_`. Example: FRAMELINK_LOG_LEVEL=debug
func Load(path string) (*Config, error) {
    cfg := Default()

    v := viper.New()
    v.SetConfigType("yaml")
    v.SetEnvPrefix("FRAMELINK")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
    v.AutomaticEnv()

    // seed defaults for viper so env-only configs work
    v.SetDefault("app_name", cfg.AppName)
    v.SetDefault("log.level", cfg.Log.Level)
    v.SetDefault("log.format", cfg.Log.Format)
    v.SetDefault("log.outputs", cfg.Log.Outputs)
    v.SetDefault("log.development", cfg.Log.Development)
    v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
    v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
    v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
    v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
    v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
    v.SetDefault("channel.transport", cfg.Channel.Transport)
    v.SetDefault("channel.listen", cfg.Channel.Listen)
    v.SetDefault("channel.rendezvous_path", cfg.Channel.RendezvousPath)
    v.SetDefault("channel.min_send_interval_ms", cfg.Channel.MinSendIntervalMS)
    v.SetDefault("channel.poll_interval_ms", cfg.Channel.PollIntervalMS)
    v.SetDefault("field.width", cfg.Field.Width)
    v.SetDefault("field.height", cfg.Field.Height)
    v.SetDefault("field.workers", cfg.Field.Workers)
    v.SetDefault("field.duration_s", cfg.Field.DurationS)

    if path == "" {
        if envPath := os.Getenv("FRAMELINK_CONFIG"); envPath != "" {
            path = envPath
        }
    }

    if path != "" {
        v.SetConfigFile(path)
    } else {
        v.SetConfigName("framelink")
        v.AddConfigPath(".")
        v.AddConfigPath("./configs")
        if home, err := os.UserHomeDir(); err == nil {
            v.AddConfigPath(filepath.Join(home, ".framelink"))
        }
    }

    // Read config file if present; if not found, continue with defaults/env
    if err := v.ReadInConfig(); err != nil {
        var notFound viper.ConfigFileNotFoundError
        if !errors.As(err, &notFound) {
            return nil, fmt.Errorf("read config: %w", err)
        }
    }

    if err := v.Unmarshal(&cfg); err != nil {
        return nil, fmt.Errorf("decode config: %w", err)
    }

    if err := cfg.validate(); err != nil {
        return nil, err
    }
    return cfg, nil
}

func (c *Config) validate() error {
    lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
    switch lvl {
    case "debug", "info", "warn", "warning", "error":
        // ok
    default:
        return fmt.Errorf("invalid log.level: %q", c.Log.Level)
    }
    if c.Log.Format == "" {
        c.Log.Format = "console"
    }
    if len(c.Log.Outputs) == 0 {
        c.Log.Outputs = []string{"stdout"}
    }

    c.Channel.Transport = strings.ToLower(strings.TrimSpace(c.Channel.Transport))
    switch c.Channel.Transport {
    case "tcp", "quic", "mem":
        // ok
    default:
        return fmt.Errorf("invalid channel.transport: %q", c.Channel.Transport)
    }

    if c.Field.Width < 1 || c.Field.Height < 1 {
        return fmt.Errorf("invalid field dimensions: %dx%d", c.Field.Width, c.Field.Height)
    }
    return nil
}

// MustLoad is a convenience that panics on error.
func MustLoad(path string) *Config {
    cfg, err := Load(path)
    if err != nil {
        panic(err)
    }
    return cfg
}
