package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/liftsim/core/dispatch"
	"github.com/kilianp07/liftsim/core/metrics"
	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/core/motion"
	"github.com/kilianp07/liftsim/core/scheduler"
	"github.com/kilianp07/liftsim/infra/mqtt"
)

// EnvPrefix marks environment variables that override file settings. Nested
// keys are separated by a double underscore, e.g. LIFTSIM_SCHEDULER__TIME_SCALE.
const EnvPrefix = "LIFTSIM_"

type Config struct {
	Building  model.BuildingConfig `json:"building"`
	Motion    motion.Profile       `json:"motion"`
	Scheduler scheduler.Config     `json:"scheduler"`
	Dispatch  dispatch.Config      `json:"dispatch"`
	Metrics   metrics.Config       `json:"metrics"`
	TripLog   LoggingConfig        `json:"trip_log"`
	MQTT      mqtt.Config          `json:"mqtt"`
	HTTP      HTTPConfig           `json:"http"`
	Sentry    SentryConfig         `json:"sentry"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills every section with its defaults.
func (c *Config) SetDefaults() {
	c.Building.SetDefaults()
	c.Motion.SetDefaults()
	c.Scheduler.SetDefaults()
	c.Dispatch.SetDefaults()
	c.TripLog.SetDefaults()
	c.HTTP.SetDefaults()
	if c.MQTT.Enabled {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section and joins the errors.
func (c Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}
	add("building", c.Building.Validate())
	add("motion", c.Motion.Validate())
	add("scheduler", c.Scheduler.Validate())
	add("dispatch", c.Dispatch.Validate())
	add("trip_log", c.TripLog.Validate())
	add("mqtt", c.MQTT.Validate())
	add("http", c.HTTP.Validate())
	return errors.Join(errs...)
}

// Load reads the configuration file at path, applies environment overrides
// and defaults, then validates the result. An empty path loads defaults and
// environment overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
