package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches an escaped "$$" or a ${VAR} / ${VAR:-default}
// reference. The escape comes first so "$${X}" is never expanded.
var envVarPattern = regexp.MustCompile(`\$\$|\$\{([^}:]+)(?::-([^}]*))?\}`)

// ErrEmptyConfig is returned for a configuration with no YAML document.
var ErrEmptyConfig = errors.New("configuration is empty")

// Loader handles configuration loading from files and readers.
type Loader struct {
	lookupEnv func(string) (string, bool)
}

// LoaderOption is a functional option for configuring a loader.
type LoaderOption func(*Loader)

// WithLookupEnv replaces the environment lookup used for substitution.
func WithLookupEnv(fn func(string) (string, bool)) LoaderOption {
	return func(l *Loader) {
		l.lookupEnv = fn
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadConfig loads configuration from a file path.
func LoadConfig(path string) (*ServerConfig, error) {
	return NewLoader().Load(path)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*ServerConfig, error) {
	return NewLoader().LoadFromReader(r)
}

// Load loads configuration from a file path.
func (l *Loader) Load(path string) (*ServerConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return l.parseConfig(data)
}

// LoadFromReader loads configuration from an io.Reader.
func (l *Loader) LoadFromReader(r io.Reader) (*ServerConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return l.parseConfig(data)
}

// parseConfig substitutes environment references and decodes the first
// YAML document. Unknown keys are rejected.
func (l *Loader) parseConfig(data []byte) (*ServerConfig, error) {
	dec := yaml.NewDecoder(strings.NewReader(l.substituteEnvVars(string(data))))
	dec.KnownFields(true)

	var cfg ServerConfig
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: %w", ErrEmptyConfig)
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults fills the listener address and, when their sections are
// present, the metrics address and tracing service name.
func applyDefaults(cfg *ServerConfig) {
	if cfg.Spec.Listener.Address == "" {
		cfg.Spec.Listener.Address = DefaultListenAddress
	}

	obs := cfg.Spec.Observability
	if obs == nil {
		return
	}
	if obs.Metrics != nil && obs.Metrics.Address == "" {
		obs.Metrics.Address = DefaultMetricsAddress
	}
	if obs.Tracing != nil && obs.Tracing.ServiceName == "" {
		obs.Tracing.ServiceName = DefaultServiceName
	}
}

// substituteEnvVars expands ${VAR} and ${VAR:-default} in one pass. "$$"
// yields a literal "$" and is never expanded. A set but empty variable
// wins over the default.
func (l *Loader) substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		if match == "$$" {
			return "$"
		}

		sub := envVarPattern.FindStringSubmatch(match)
		if value, ok := l.lookupEnv(sub[1]); ok {
			return value
		}
		return sub[2]
	})
}
