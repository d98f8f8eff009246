package config

import (
	"fmt"
	"strings"
	"time"

	"forest_monitor/internal/models"

	"github.com/spf13/viper"
)

// Config is the server configuration read from configs/config.yml.
type Config struct {
	Port       string                 `mapstructure:"port"`
	LogLevel   string                 `mapstructure:"log_level"`
	LogFormat  string                 `mapstructure:"log_format"`
	DB         DBConfig               `mapstructure:"db"`
	Auth       AuthConfig             `mapstructure:"auth"`
	History    HistoryConfig          `mapstructure:"history"`
	Sensors    []models.SensorBinding `mapstructure:"sensors"`
	Thresholds []models.ThresholdRule `mapstructure:"thresholds"`
	Notifier   NotifierConfig         `mapstructure:"notifier"`
	Redpanda   RedpandaConfig         `mapstructure:"redpanda"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type HistoryConfig struct {
	Capacity      int           `mapstructure:"capacity"`
	AdmitInterval time.Duration `mapstructure:"admit_interval"`
}

type NotifierConfig struct {
	SlackWebhookURL string        `mapstructure:"slack_webhook_url"`
	SlackChannel    string        `mapstructure:"slack_channel"`
	Cooldown        time.Duration `mapstructure:"cooldown"`
}

type RedpandaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	Group   string `mapstructure:"group"`
}

// Defaults applied when a key is absent from both the file and the environment.
const (
	DefaultPort          = "50000"
	DefaultDBPath        = "forest.db"
	DefaultHistorySize   = 20
	DefaultAdmitInterval = 5 * time.Second
	DefaultTokenTTL      = time.Hour
	DefaultAlertCooldown = 5 * time.Minute
)

const envPrefix = "FOREST"

// Load reads the YAML file at path. Scalar keys may be overridden by
// FOREST_* environment variables (FOREST_DB_PATH, FOREST_AUTH_SIGNING_KEY, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("db.path", DefaultDBPath)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", DefaultTokenTTL)
	v.SetDefault("history.capacity", DefaultHistorySize)
	v.SetDefault("history.admit_interval", DefaultAdmitInterval)
	v.SetDefault("notifier.slack_webhook_url", "")
	v.SetDefault("notifier.slack_channel", "#fire-alerts")
	v.SetDefault("notifier.cooldown", DefaultAlertCooldown)
	v.SetDefault("redpanda.enabled", false)
	v.SetDefault("redpanda.brokers", "localhost:9092")
	v.SetDefault("redpanda.topic", "sensor-readings")
	v.SetDefault("redpanda.group", "forest-monitor")
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.DB.Path == "" {
		c.DB.Path = DefaultDBPath
	}
	if c.History.Capacity <= 0 {
		c.History.Capacity = DefaultHistorySize
	}
	if c.History.AdmitInterval <= 0 {
		c.History.AdmitInterval = DefaultAdmitInterval
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = DefaultTokenTTL
	}
	if c.Notifier.Cooldown <= 0 {
		c.Notifier.Cooldown = DefaultAlertCooldown
	}
}

func (c *Config) validate() error {
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("auth.signing_key is required")
	}
	for i, b := range c.Sensors {
		if strings.TrimSpace(b.ID) == "" {
			return fmt.Errorf("sensors[%d]: id is required", i)
		}
		if !b.Channel.Valid() {
			return fmt.Errorf("sensors[%d]: unknown channel %q", i, b.Channel)
		}
	}
	for i, r := range c.Thresholds {
		if !r.Channel.Valid() || r.Channel == models.ChannelFireProbability {
			return fmt.Errorf("thresholds[%d]: channel %q cannot carry a threshold", i, r.Channel)
		}
		if r.Kind != models.ThresholdUpper && r.Kind != models.ThresholdLower {
			return fmt.Errorf("thresholds[%d]: kind must be %q or %q", i, models.ThresholdUpper, models.ThresholdLower)
		}
	}
	if c.Redpanda.Enabled && (c.Redpanda.Brokers == "" || c.Redpanda.Topic == "") {
		return fmt.Errorf("redpanda.brokers and redpanda.topic are required when redpanda is enabled")
	}
	return nil
}

// ThresholdTable merges configured overrides into models.DefaultThresholds.
// A configured rule replaces the default rule of the same channel.
func (c *Config) ThresholdTable() []models.ThresholdRule {
	override := make(map[models.Channel]models.ThresholdRule, len(c.Thresholds))
	for _, r := range c.Thresholds {
		override[r.Channel] = r
	}

	out := make([]models.ThresholdRule, 0, len(models.DefaultThresholds)+len(override))
	seen := make(map[models.Channel]bool, len(models.DefaultThresholds))
	for _, def := range models.DefaultThresholds {
		seen[def.Channel] = true
		if r, ok := override[def.Channel]; ok {
			if r.Unit == "" {
				r.Unit = def.Unit
			}
			out = append(out, r)
			continue
		}
		out = append(out, def)
	}
	for _, r := range c.Thresholds {
		if !seen[r.Channel] {
			seen[r.Channel] = true
			out = append(out, r)
		}
	}
	return out
}
