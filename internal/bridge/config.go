package bridge

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"forest_monitor/internal/models"

	"gopkg.in/yaml.v3"
)

// Fire probability scales accepted in fire_probability_scale.
const (
	ScalePercent = "percent"
	ScaleUnit    = "unit"
)

// Config is the bridge configuration file.
type Config struct {
	Endpoint             string            `yaml:"endpoint"`
	Device               string            `yaml:"device"`
	RxTimeout            time.Duration     `yaml:"rx_timeout"`
	PollInterval         time.Duration     `yaml:"poll_interval"`
	IdleDelay            time.Duration     `yaml:"idle_delay"`
	RequestTimeout       time.Duration     `yaml:"request_timeout"`
	LogLevel             string            `yaml:"log_level"`
	LogFormat            string            `yaml:"log_format"`
	FireProbabilityScale string            `yaml:"fire_probability_scale"`
	FireField            string            `yaml:"fire_field"`
	Fields               map[string]string `yaml:"fields"`
}

// DefaultFields maps payload keys to the deployed sensor ids.
var DefaultFields = map[string]string{
	string(models.ChannelCO2):             "-OMZ52hULVlcWp1HjY_3",
	string(models.ChannelSmoke):           "-OMZ5FRWYXmtZDwXTIGk",
	string(models.ChannelCO):              "-OMZ5H08E2DKCTkymTxS",
	string(models.ChannelFlammable):       "-OMZ5JIY7Ap7CyNTOwSY",
	string(models.ChannelTemperature):     "-OMZ5LVfac6SqXCeQRW-",
	string(models.ChannelHumidity):        "-OMZ5Mnv-R5fWNH3v4Vl",
	string(models.ChannelWindSpeed):       "-OMZ5OO8U2upkMfXPwWQ",
	string(models.ChannelFireProbability): "-OMZ5SCV9iN5PHStzJMR",
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RxTimeout == 0 {
		c.RxTimeout = 3 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.IdleDelay == 0 {
		c.IdleDelay = 5 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 5 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.FireProbabilityScale == "" {
		c.FireProbabilityScale = ScalePercent
	}
	if c.FireField == "" {
		c.FireField = string(models.ChannelFireProbability)
	}
	if len(c.Fields) == 0 {
		c.Fields = make(map[string]string, len(DefaultFields))
		for k, v := range DefaultFields {
			c.Fields[k] = v
		}
	}
}

func (c *Config) validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("endpoint %q is not an absolute URL", c.Endpoint)
	}
	if c.FireProbabilityScale != ScalePercent && c.FireProbabilityScale != ScaleUnit {
		return fmt.Errorf("fire_probability_scale must be %q or %q", ScalePercent, ScaleUnit)
	}
	if c.PollInterval > c.RxTimeout {
		return fmt.Errorf("poll_interval %s exceeds rx_timeout %s", c.PollInterval, c.RxTimeout)
	}
	for key, id := range c.Fields {
		if id == "" {
			return fmt.Errorf("fields.%s: sensor id is required", key)
		}
	}
	return nil
}
