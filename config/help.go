package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `
ride-hail-client

Usage:
  ride-client -mode rider|driver [-config-path config.yaml]

Environment:
  API_BASEURL         backend REST base URL (default http://localhost:3000)
  STREAM_ENABLED      use the websocket ride stream instead of pure polling
  SESSION_PATH        where the session file is persisted
  POLLING_INTERVAL    poll interval, e.g. 3s
  METRICS_ADDR        expose prometheus /metrics when set, e.g. :9100
  LOG_LEVEL           DEBUG | INFO | WARN | ERROR
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}

// PrintConfig dumps the effective configuration at startup.
func PrintConfig(cfg *Config) {
	fmt.Printf("mode:          %s\n", cfg.Mode)
	fmt.Printf("api base url:  %s\n", cfg.API.BaseURL)
	fmt.Printf("stream:        enabled=%t url=%s\n", cfg.Stream.Enabled, cfg.Stream.URL)
	fmt.Printf("session path:  %s\n", cfg.Session.Path)
	fmt.Printf("poll interval: %s (max backoff %s)\n", cfg.Polling.Interval, cfg.Polling.MaxBackoff)
	if cfg.Metrics.Addr != "" {
		fmt.Printf("metrics:       %s\n", cfg.Metrics.Addr)
	}
}
