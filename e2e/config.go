package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_ADDR targets a running relay (host:port); empty starts one in-process per test
	RelayAddr string `envconfig:"RELAY_ADDR"`
	// E2E_TIMEOUT bounds every wait for a frame
	Timeout time.Duration `envconfig:"E2E_TIMEOUT" default:"3s"`
	// E2E_DEBUG_JSON dumps every raw frame received
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
