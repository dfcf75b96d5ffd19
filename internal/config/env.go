package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by LoadEnv.
const EnvPrefix = "recflow"

// Env holds process-level settings and runtime overrides read from
// RECFLOW_* environment variables.
type Env struct {
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment bool   `envconfig:"LOG_DEVELOPMENT" default:"false"`

	BatchSize     int    `envconfig:"BATCH_SIZE"`
	ChannelBuffer int    `envconfig:"CHANNEL_BUFFER"`
	DSN           string `envconfig:"DSN"`

	MetricsBackend string `envconfig:"METRICS_BACKEND" default:"none"`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL" default:"http://localhost:9091"`
	DogStatsDAddr  string `envconfig:"DOGSTATSD_ADDR" default:"127.0.0.1:8125"`
}

// LoadEnv reads Env from the environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return Env{}, fmt.Errorf("config: env: %w", err)
	}
	return e, nil
}

// Apply overrides pipeline runtime and storage settings with the non-zero
// environment values.
func (e Env) Apply(p *Pipeline) {
	if e.BatchSize > 0 {
		p.Runtime.BatchSize = e.BatchSize
	}
	if e.ChannelBuffer > 0 {
		p.Runtime.ChannelBuffer = e.ChannelBuffer
	}
	if e.DSN != "" {
		p.Storage.DB.DSN = e.DSN
	}
}
