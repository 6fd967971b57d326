package config

import (
	"fmt"

	"github.com/agentmesh/gatekit/logger"
	"github.com/agentmesh/gatekit/mcp"
	"github.com/agentmesh/gatekit/observability"
	"github.com/agentmesh/gatekit/version"
)

// ObservabilityConfig configures tracing and metrics export.
type ObservabilityConfig struct {
	// Enabled turns OTLP export on. Spans and metrics are no-ops when off.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP collector host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows plain HTTP to the collector.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling rate from 0.0 to 1.0.
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// TracerConfig builds the tracer settings for this gateway.
func (c ObservabilityConfig) TracerConfig(g *GatewayConfig) observability.TracerConfig {
	tc := observability.DefaultTracerConfig(g.Name)
	tc.ServiceVersion = g.Version
	tc.Environment = g.Environment
	if c.Endpoint != "" {
		tc.Endpoint = c.Endpoint
	}
	tc.Insecure = c.Insecure
	if c.SampleRate > 0 {
		tc.SampleRate = c.SampleRate
	}
	return tc
}

// MeterConfig builds the meter settings for this gateway.
func (c ObservabilityConfig) MeterConfig(g *GatewayConfig) observability.MeterConfig {
	mc := observability.DefaultMeterConfig(g.Name)
	mc.ServiceVersion = g.Version
	mc.Environment = g.Environment
	if c.Endpoint != "" {
		mc.Endpoint = c.Endpoint
	}
	mc.Insecure = c.Insecure
	return mc
}

// GatewayConfig is the root configuration for a gateway process.
type GatewayConfig struct {
	Name          string                           `yaml:"name" mapstructure:"name"`
	Environment   string                           `yaml:"environment" mapstructure:"environment"`
	Version       string                           `yaml:"version" mapstructure:"version"`
	Debug         bool                             `yaml:"debug" mapstructure:"debug"`
	Logging       logger.Config                    `yaml:"logging" mapstructure:"logging"`
	Observability ObservabilityConfig              `yaml:"observability" mapstructure:"observability"`
	Services      map[string]mcp.ServiceDefinition `yaml:"services" mapstructure:"services"`
}

// ApplyDefaults fills zero-value fields. Service definition defaults are
// applied by the client at construction, not here, so the loaded config
// reflects what the file actually said.
func (c *GatewayConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "gateway"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Version == "" {
		c.Version = version.Version
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the gateway configuration.
func (c *GatewayConfig) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("environment must be one of %v (got: %s)", validEnvs, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if len(c.Services) == 0 {
		return fmt.Errorf("at least one service must be configured")
	}
	for name, def := range c.Services {
		d := def
		d.ApplyDefaults()
		if err := d.Validate(name); err != nil {
			return err
		}
	}
	return nil
}
