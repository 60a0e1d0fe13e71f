package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the debugger's configuration file.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Listen ListenConfig `yaml:"listen"`
	Script ScriptConfig `yaml:"script"`
}

// EngineConfig locates the compile/execute service.
type EngineConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ListenConfig is the debugger's own listen address.
type ListenConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ScriptConfig optionally preloads a script and run arguments, offered to
// clients through the init tool.
type ScriptConfig struct {
	Path             string   `yaml:"path"`
	Function         string   `yaml:"function"`
	CtorArgs         []string `yaml:"ctor_args"`
	Args             []string `yaml:"args"`
	ExpectNoSelector bool     `yaml:"expect_no_selector"`
}

// Load reads and parses the configuration file.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Default returns the built-in configuration: a local engine service and a
// local listen address.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			URL:            "http://127.0.0.1:7878",
			TimeoutSeconds: 30,
		},
		Listen: ListenConfig{
			Host: "127.0.0.1",
			Port: 3000,
		},
	}
}

// validate checks if the configuration is valid.
func validate(config *Config) error {
	if config.Engine.URL == "" {
		return fmt.Errorf("engine url is required")
	}
	if config.Engine.TimeoutSeconds <= 0 {
		return fmt.Errorf("engine timeout_seconds must be positive")
	}
	if config.Listen.Port <= 0 || config.Listen.Port > 65535 {
		return fmt.Errorf("listen port %d out of range", config.Listen.Port)
	}
	return nil
}
