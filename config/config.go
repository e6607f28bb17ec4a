package config

import (
	"errors"
	"flag"
	"fmt"

	"github.com/Temutjin2k/ride-hail-client/internal/domain/types"
	"github.com/Temutjin2k/ride-hail-client/pkg/configparser"
	"time"
)

// Flags
var (
	modeFlag = flag.String("mode", "rider", "client mode: rider or driver")
)

// Errors
var (
	ErrInvalidMode = errors.New("mode must be rider or driver")
)

// Config contains all configuration variables of the client
type (
	Config struct {
		Mode types.ClientMode

		API     APIConfig
		Stream  StreamConfig
		Session SessionConfig
		Polling PollingConfig
		Metrics MetricsConfig
		Log     LogConfig
	}

	APIConfig struct {
		BaseURL string        `env:"API_BASEURL" default:"http://localhost:3000"`
		Timeout time.Duration `env:"API_TIMEOUT" default:"10s"`
	}

	StreamConfig struct {
		Enabled bool   `env:"STREAM_ENABLED" default:"false"`
		URL     string `env:"STREAM_URL" default:"ws://localhost:3000"`
	}

	SessionConfig struct {
		Path string `env:"SESSION_PATH" default:".ride-hail/session.json"`
	}

	PollingConfig struct {
		Interval   time.Duration `env:"POLLING_INTERVAL" default:"3s"`   // интервал опроса бэкенда
		MaxBackoff time.Duration `env:"POLLING_MAXBACKOFF" default:"30s"` // потолок бэкоффа
	}

	MetricsConfig struct {
		// Empty address disables the /metrics endpoint.
		Addr string `env:"METRICS_ADDR" default:""`
	}

	LogConfig struct {
		Level string `env:"LOG_LEVEL" default:"INFO"`
	}
)

func NewConfig(filepath string) (*Config, error) {
	cfg := &Config{}

	// Loading enviromental variables and parsing to config struct.
	if err := configparser.LoadAndParseYaml(filepath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load and parse config: %w", err)
	}

	// Parsing flags
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseFlags(cfg *Config) error {
	switch types.ClientMode(*modeFlag) {
	case types.RiderMode, types.DriverMode:
		cfg.Mode = types.ClientMode(*modeFlag)
	default:
		return ErrInvalidMode
	}

	return nil
}
