package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration, loaded from a YAML file. Every field
// has a workable default so a bare `mushroom` starts a playable server.
type Config struct {
	ListenAddress string `yaml:"listen_address"`
	ListenPort    int    `yaml:"listen_port"`

	DBFile   string `yaml:"db_file"`
	MOTDFile string `yaml:"motd_file"`

	OpPassword      string `yaml:"op_password"`
	OpCommandPrefix string `yaml:"op_command_prefix"`

	AutosavePeriod int    `yaml:"autosave_period"` // seconds, 0 disables
	Debug          bool   `yaml:"debug"`
	LogFile        string `yaml:"log_file"`

	ScrollbackFile  string `yaml:"scrollback_file"`
	ScrollbackLines int    `yaml:"scrollback_lines"`

	MetricsAddress string `yaml:"metrics_address"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddress:   "",
		ListenPort:      1337,
		DBFile:          "world.sav",
		MOTDFile:        "motd.txt",
		OpCommandPrefix: "@",
		AutosavePeriod:  300,
		ScrollbackLines: 200,
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults untouched.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Addr is the listen address in host:port form.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ListenAddress, c.ListenPort)
}
