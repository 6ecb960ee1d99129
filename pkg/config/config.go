package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ExperimentConfig struct {
	Name        string        `yaml:"name"`
	Episodes    int           `yaml:"episodes"`
	Workers     int           `yaml:"workers"`
	Seed        uint64        `yaml:"seed"`
	StatsDir    string        `yaml:"stats_dir"`
	Agent       AgentConfig   `yaml:"agent"`
	Environment EnvConfig     `yaml:"environment"`
	Simulator   SimConfig     `yaml:"simulator"`
	Logging     LogConfig     `yaml:"logging"`
	Metrics     MetricsConfig `yaml:"metrics"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
	Path     string `yaml:"path"`
}

type AgentConfig struct {
	// Type is one of "random", "scripted" or "llm".
	Type     string `yaml:"type"`
	Provider string `yaml:"provider"`
	// Model defaults to the provider's entry in DefaultModels.
	Model          string         `yaml:"model"`
	MemoryCapacity int            `yaml:"memory_capacity"`
	Config         map[string]any `yaml:"config"`
}

type EnvConfig struct {
	Type          string `yaml:"type"`
	MaxPathLength int    `yaml:"max_path_length"`
	FrameSkip     int    `yaml:"frame_skip"`
	RandomInit    *bool  `yaml:"random_init"`
}

// SimConfig selects the physics backend. An empty URL runs the built-in
// kinematic simulator in process.
type SimConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

var ErrInvalid = errors.New("invalid config")

// DefaultModels maps each LLM provider to the model used when none is set.
var DefaultModels = map[string]string{
	"openai": "gpt-4o-mini",
	"gemini": "gemini-1.5-flash",
}

// Default returns the configuration used when no file is given.
func Default() *ExperimentConfig {
	randomInit := true
	return &ExperimentConfig{
		Name:     "sweep",
		Episodes: 10,
		Workers:  1,
		StatsDir: ".",
		Agent: AgentConfig{
			Type:           "scripted",
			Provider:       "openai",
			MemoryCapacity: 100,
			Config:         make(map[string]any),
		},
		Environment: EnvConfig{
			Type:          "sweep-v1",
			MaxPathLength: 150,
			FrameSkip:     5,
			RandomInit:    &randomInit,
		},
		Simulator: SimConfig{Timeout: 10 * time.Second},
		Logging: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// LoadConfig reads a YAML file on top of Default. Keys missing from the
// file keep their default values.
func LoadConfig(path string) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ExperimentConfig) Validate() error {
	switch {
	case c.Episodes < 1:
		return fmt.Errorf("%w: episodes must be positive, got %d", ErrInvalid, c.Episodes)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalid, c.Workers)
	case c.Environment.MaxPathLength < 1:
		return fmt.Errorf("%w: environment.max_path_length must be positive, got %d", ErrInvalid, c.Environment.MaxPathLength)
	case c.Environment.FrameSkip < 1:
		return fmt.Errorf("%w: environment.frame_skip must be positive, got %d", ErrInvalid, c.Environment.FrameSkip)
	case c.Simulator.Timeout < 0:
		return fmt.Errorf("%w: simulator.timeout must not be negative", ErrInvalid)
	}
	switch c.Agent.Type {
	case "random", "scripted":
	case "llm":
		if _, ok := DefaultModels[c.Agent.Provider]; !ok {
			return fmt.Errorf("%w: unknown agent.provider %q", ErrInvalid, c.Agent.Provider)
		}
	default:
		return fmt.Errorf("%w: unknown agent.type %q", ErrInvalid, c.Agent.Type)
	}
	return nil
}

// ModelName is the configured model, or the provider's default.
func (a AgentConfig) ModelName() string {
	if a.Model != "" {
		return a.Model
	}
	return DefaultModels[a.Provider]
}

// RandomInitEnabled reports the effective random init setting.
func (e EnvConfig) RandomInitEnabled() bool {
	return e.RandomInit == nil || *e.RandomInit
}
