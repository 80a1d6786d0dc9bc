package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gravitational/trace"
	"github.com/pelletier/go-toml"

	"github.com/quantfold/tradedash/api"
	"github.com/quantfold/tradedash/lib/logger"
)

type Config struct {
	API APIConfig     `toml:"api"`
	Log logger.Config `toml:"log"`
}

type APIConfig struct {
	BaseURL   string `toml:"base_url"`
	TimeoutMs int    `toml:"timeout_ms"`
	// StatePath is where the session's token pair is kept between runs.
	StatePath string `toml:"state_path"`
}

const exampleConfig = `# example dashctl configuration TOML file
[api]
base_url = "https://bot.example.com/api" # Trading-bot backend API root
timeout_ms = 30000                       # Per-request timeout in milliseconds
# state_path = "/home/you/.tradedash/credentials.json" # Session token storage

[log]
output = "stderr" # Logger output. Could be "stdout", "stderr" or "/var/log/dashctl.log"
severity = "INFO" # Logger severity. Could be "INFO", "ERROR", "DEBUG" or "WARN".
`

// LoadConfig reads the TOML config file. A missing file is not an error:
// everything can come from the environment instead.
func LoadConfig(filepath string) (*Config, error) {
	conf := &Config{}

	t, err := toml.LoadFile(filepath)
	if err == nil {
		if err := t.Unmarshal(conf); err != nil {
			return nil, trace.Wrap(err)
		}
	} else if !os.IsNotExist(err) {
		return nil, trace.Wrap(err)
	}

	if err := conf.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return conf, nil
}

func (c *Config) CheckAndSetDefaults() error {
	if c.API.TimeoutMs < 0 {
		return trace.BadParameter("api.timeout_ms must not be negative")
	}
	if c.API.StatePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return trace.Wrap(err)
		}
		c.API.StatePath = filepath.Join(home, ".tradedash", "credentials.json")
	}
	if c.Log.Output == "" {
		c.Log.Output = "stderr"
	}
	if c.Log.Severity == "" {
		c.Log.Severity = "info"
	}
	return nil
}

// ClientConfig builds the api client config, letting environment variables
// override the file.
func (c *Config) ClientConfig() api.Config {
	conf := api.Config{
		BaseURL: c.API.BaseURL,
		Timeout: time.Duration(c.API.TimeoutMs) * time.Millisecond,
	}
	conf.ApplyEnv()
	return conf
}
