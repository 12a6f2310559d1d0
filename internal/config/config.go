package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageresizer/internal/domain"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Store      StoreConfig      `mapstructure:"store"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Profiles   ProfilesConfig   `mapstructure:"profiles"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr               string `mapstructure:"addr"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec    int    `mapstructure:"write_timeout_sec"`
	MaxUploadSizeMB    int    `mapstructure:"max_upload_size_mb"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	Topic       string   `mapstructure:"topic"`
	ResultTopic string   `mapstructure:"result_topic"`
	GroupID     string   `mapstructure:"group_id"`
}

type StoreConfig struct {
	Dir       string `mapstructure:"dir"`
	Extension string `mapstructure:"extension"`
}

type ProcessingConfig struct {
	OutputQuality int    `mapstructure:"output_quality"`
	Filter        string `mapstructure:"filter"`
	Metadata      string `mapstructure:"metadata"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
}

type ProfileConfig struct {
	Width   int   `mapstructure:"width"`
	Height  int   `mapstructure:"height"`
	Enabled *bool `mapstructure:"enabled"`
}

type ProfilesConfig struct {
	Large  ProfileConfig `mapstructure:"large"`
	Medium ProfileConfig `mapstructure:"medium"`
	Small  ProfileConfig `mapstructure:"small"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

const (
	DefaultExtension     = "jpg"
	DefaultOutputQuality = 90
	DefaultFilter        = "lanczos"
	DefaultMaxConcurrent = 1
)

var supportedFilters = []string{"lanczos", "linear", "catmullrom", "box", "nearest"}

var supportedExtensions = []string{"jpg", "jpeg", "png"}

func Load(path string) (*Config, error) {
	cfg := config.New()

	configPath := path
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		} else if _, err := os.Stat("/app/config.yaml"); err == nil {
			configPath = "/app/config.yaml"
		} else {
			return nil, fmt.Errorf("config.yaml not found")
		}
	}

	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = ""
	}

	if err := cfg.Load(configPath, envPath, "APP"); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appConfig := &Config{}
	if err := cfg.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfig.applyDefaults()

	if err := validateConfig(appConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	zlog.Logger.Info().
		Str("store_dir", appConfig.Store.Dir).
		Str("extension", appConfig.Store.Extension).
		Str("filter", appConfig.Processing.Filter).
		Str("metadata", appConfig.Processing.Metadata).
		Int("output_quality", appConfig.Processing.OutputQuality).
		Msg("Config loaded successfully via wbf")

	return appConfig, nil
}

func (c *Config) applyDefaults() {
	c.Store.Extension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Store.Extension), "."))
	if c.Store.Extension == "" {
		c.Store.Extension = DefaultExtension
	}
	if c.Processing.OutputQuality == 0 {
		c.Processing.OutputQuality = DefaultOutputQuality
	}
	c.Processing.Filter = strings.ToLower(strings.TrimSpace(c.Processing.Filter))
	if c.Processing.Filter == "" {
		c.Processing.Filter = DefaultFilter
	}
	if c.Processing.Metadata == "" {
		c.Processing.Metadata = string(domain.MetadataSynthesize)
	}
	if c.Processing.MaxConcurrent == 0 {
		c.Processing.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// ResizeConfig builds the profile configuration. Zero sizes keep the
// defaults and a missing enabled flag means enabled.
func (c *Config) ResizeConfig() *domain.ResizeConfig {
	rc := domain.NewResizeConfig()
	apply := func(name domain.ProfileName, p ProfileConfig) {
		d := rc.Dimension(name)
		if p.Width != 0 {
			d.Width = p.Width
		}
		if p.Height != 0 {
			d.Height = p.Height
		}
		rc.SetDimension(name, d)
		if p.Enabled != nil {
			rc.SetEnabled(name, *p.Enabled)
		}
	}
	apply(domain.ProfileLarge, c.Profiles.Large)
	apply(domain.ProfileMedium, c.Profiles.Medium)
	apply(domain.ProfileSmall, c.Profiles.Small)
	return rc
}

func validateConfig(cfg *Config) error {
	// Store
	if cfg.Store.Dir == "" {
		return fmt.Errorf("store.dir is required")
	}
	if !slices.Contains(supportedExtensions, cfg.Store.Extension) {
		return fmt.Errorf("store.extension must be one of %v", supportedExtensions)
	}

	// Processing
	if cfg.Processing.OutputQuality < 1 || cfg.Processing.OutputQuality > 100 {
		return fmt.Errorf("processing.output_quality must be between 1 and 100")
	}
	if !slices.Contains(supportedFilters, cfg.Processing.Filter) {
		return fmt.Errorf("processing.filter must be one of %v", supportedFilters)
	}
	if _, err := domain.ParseMetadataStrategy(cfg.Processing.Metadata); err != nil {
		return fmt.Errorf("processing.metadata: %w", err)
	}
	if cfg.Processing.MaxConcurrent < 0 {
		return fmt.Errorf("processing.max_concurrent must be non-negative")
	}

	// Profiles
	for name, p := range map[string]ProfileConfig{
		"large":  cfg.Profiles.Large,
		"medium": cfg.Profiles.Medium,
		"small":  cfg.Profiles.Small,
	} {
		if p.Width < 0 || p.Height < 0 {
			return fmt.Errorf("profiles.%s dimensions must be positive", name)
		}
	}
	if err := cfg.ResizeConfig().Validate(); err != nil {
		return err
	}

	if cfg.Logging.Level == "" {
		return fmt.Errorf("logging.level is required")
	}

	return nil
}

func (c *Config) ValidateServer() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("server.shutdown_timeout_sec must be positive")
	}
	if c.Server.ReadTimeoutSec <= 0 {
		return fmt.Errorf("server.read_timeout_sec must be positive")
	}
	if c.Server.WriteTimeoutSec <= 0 {
		return fmt.Errorf("server.write_timeout_sec must be positive")
	}
	if c.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb must be positive")
	}
	return nil
}

func (c *Config) ValidateKafka() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must contain at least one broker")
	}
	if c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required")
	}
	if c.Kafka.ResultTopic == "" {
		return fmt.Errorf("kafka.result_topic is required")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("kafka.group_id is required")
	}
	return nil
}
