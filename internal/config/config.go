package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Bundler BundlerConfig `yaml:"bundler"`
	Watch   WatchConfig   `yaml:"watch"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type BundlerConfig struct {
	// ExcludedPaths lists path fragments whose changes never trigger a
	// push. The client's own HMR bootstrap must be here or a hot update
	// to it would tear down the machinery applying it.
	ExcludedPaths []string `yaml:"excluded_paths"`

	// Extensions the resolver considers source modules.
	Extensions []string `yaml:"extensions"`
}

type WatchConfig struct {
	// Roots are the directories watched for changes.
	Roots []string `yaml:"roots"`

	// Ignore holds doublestar globs for paths the watcher skips.
	Ignore []string `yaml:"ignore"`

	Debounce time.Duration `yaml:"debounce"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8081,
			Host: "0.0.0.0",
		},
		Bundler: BundlerConfig{
			ExcludedPaths: []string{
				"Libraries/Utilities/HMRClient.js",
			},
			Extensions: []string{".js", ".jsx", ".ts", ".tsx", ".json"},
		},
		Watch: WatchConfig{
			Roots: []string{"."},
			Ignore: []string{
				"**/node_modules/**",
				"**/.git/**",
			},
			Debounce: 50 * time.Millisecond,
		},
	}
}
