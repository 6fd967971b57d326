package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentmesh/gatekit/logger"
)

// FileSystem abstracts file probing and .env loading so the loader can be
// tested without touching disk.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem is the FileSystem backed by the real filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// configSearchPaths are probed in order when no explicit config file is
// given.
var configSearchPaths = []string{
	"./config.yml",
	"./config.yaml",
	"./config/gateway.yml",
	"./config/gateway.yaml",
	"../config/gateway.yml",
}

// envSearchPaths are probed in order when no explicit .env file is given.
var envSearchPaths = []string{
	"./.env",
	"./config/.env",
	"../.env",
}

// LoaderOption configures Load.
type LoaderOption func(*loaderOptions)

type loaderOptions struct {
	fs         FileSystem
	configFile string
	envFile    string
}

// WithFileSystem substitutes the filesystem, for tests.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(o *loaderOptions) { o.fs = fs }
}

// WithConfigFile sets an explicit config file path, skipping the search.
func WithConfigFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.configFile = path }
}

// WithEnvFile sets an explicit .env file path, skipping the search.
func WithEnvFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.envFile = path }
}

// Load reads the gateway configuration. Layering order is config file,
// then .env file, then process environment, later layers winning. The
// result has defaults applied and is validated before return.
func Load(opts ...LoaderOption) (*GatewayConfig, error) {
	var o loaderOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = OSFileSystem{}
	}

	configFile := o.configFile
	if configFile == "" {
		configFile = firstExisting(o.fs, configSearchPaths)
	}
	envFile := o.envFile
	if envFile == "" {
		envFile = firstExisting(o.fs, envSearchPaths)
	}

	v := viper.New()

	if configFile != "" && o.fs.Exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	if envFile != "" && o.fs.Exists(envFile) {
		if err := o.fs.LoadEnv(envFile); err != nil {
			logger.Warn("failed to load .env file", logger.Fields("path", envFile, logger.FieldError, err.Error()))
		}
	}

	v.AutomaticEnv()
	bindEnvOverrides(v)

	cfg := &GatewayConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gateway config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, path := range paths {
		if fs.Exists(path) {
			return path
		}
	}
	return ""
}

// bindEnvOverrides maps GATEKIT_ prefixed environment variables onto viper
// keys. GATEKIT_LOGGING_LEVEL overrides logging.level; deeper nesting
// follows the same underscore-to-dot rule.
func bindEnvOverrides(v *viper.Viper) {
	const prefix = "GATEKIT_"
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(pair[0], prefix))
		for _, variant := range keyVariants(key) {
			v.Set(variant, pair[1])
		}
	}
}

// keyVariants returns the nested key spellings an underscore-separated env
// key may map to. LOGGING_NO_COLOR must reach both logging.no.color and
// logging.no_color, since config keys themselves contain underscores.
func keyVariants(lowerKey string) []string {
	parts := strings.Split(lowerKey, "_")
	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{strings.ReplaceAll(lowerKey, "_", ".")}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}

	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, variant := range variants {
		if !seen[variant] {
			seen[variant] = true
			out = append(out, variant)
		}
	}
	return out
}
