package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yokitheyo/imageresizer/internal/domain"
)

func validConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Addr:               ":8080",
			ShutdownTimeoutSec: 10,
			ReadTimeoutSec:     15,
			WriteTimeoutSec:    15,
			MaxUploadSizeMB:    20,
		},
		Kafka: KafkaConfig{
			Brokers:     []string{"kafka:9092"},
			Topic:       "resize-tasks",
			ResultTopic: "resize-results",
			GroupID:     "resizer",
		},
		Store: StoreConfig{Dir: "/tmp/resizer"},
	}
	cfg.applyDefaults()
	return cfg
}

func boolPtr(b bool) *bool { return &b }

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Dir: "x", Extension: " .JPG "}, Processing: ProcessingConfig{Filter: "Linear"}}
	cfg.applyDefaults()

	assert.Equal(t, "jpg", cfg.Store.Extension)
	assert.Equal(t, DefaultOutputQuality, cfg.Processing.OutputQuality)
	assert.Equal(t, "linear", cfg.Processing.Filter)
	assert.Equal(t, string(domain.MetadataSynthesize), cfg.Processing.Metadata)
	assert.Equal(t, DefaultMaxConcurrent, cfg.Processing.MaxConcurrent)
	assert.Equal(t, "info", cfg.Logging.Level)

	empty := &Config{}
	empty.applyDefaults()
	assert.Equal(t, DefaultExtension, empty.Store.Extension)
	assert.Equal(t, DefaultFilter, empty.Processing.Filter)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing store dir", mutate: func(c *Config) { c.Store.Dir = "" }, wantErr: true},
		{name: "unsupported extension", mutate: func(c *Config) { c.Store.Extension = "gif" }, wantErr: true},
		{name: "quality too high", mutate: func(c *Config) { c.Processing.OutputQuality = 101 }, wantErr: true},
		{name: "unknown filter", mutate: func(c *Config) { c.Processing.Filter = "bicubic" }, wantErr: true},
		{name: "unknown metadata", mutate: func(c *Config) { c.Processing.Metadata = "strip" }, wantErr: true},
		{name: "negative concurrency", mutate: func(c *Config) { c.Processing.MaxConcurrent = -1 }, wantErr: true},
		{name: "negative profile width", mutate: func(c *Config) { c.Profiles.Small.Width = -5 }, wantErr: true},
		{name: "png output", mutate: func(c *Config) { c.Store.Extension = "png" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateServerAndKafka(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.ValidateServer())
	require.NoError(t, cfg.ValidateKafka())

	cfg.Server.Addr = ""
	assert.Error(t, cfg.ValidateServer())

	cfg.Kafka.ResultTopic = ""
	assert.Error(t, cfg.ValidateKafka())
}

func TestResizeConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Profiles.Large = ProfileConfig{Width: 2048}
	cfg.Profiles.Medium = ProfileConfig{Enabled: boolPtr(false)}
	cfg.Profiles.Small = ProfileConfig{Width: 128, Height: 96, Enabled: boolPtr(true)}

	rc := cfg.ResizeConfig()

	assert.Equal(t, domain.NewDimension(2048, 1024), rc.Dimension(domain.ProfileLarge))
	assert.True(t, rc.IsEnabled(domain.ProfileLarge))
	assert.Equal(t, domain.NewDimension(512, 512), rc.Dimension(domain.ProfileMedium))
	assert.False(t, rc.IsEnabled(domain.ProfileMedium))
	assert.Equal(t, domain.NewDimension(128, 96), rc.Dimension(domain.ProfileSmall))
	assert.True(t, rc.IsEnabled(domain.ProfileSmall))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}
