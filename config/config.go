// Package config loads the isocat configuration file.
package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// DefaultPrompt is the interactive shell prompt.
const DefaultPrompt = "isohelper: > "

// Config holds settings that can also be given on the command line.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	OutputDir string `yaml:"output_dir"`
	Strict    bool   `yaml:"strict"`
	NoMmap    bool   `yaml:"no_mmap"`
	Prompt    string `yaml:"prompt"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:  "warn",
		LogFormat: "text",
		OutputDir: ".",
		Prompt:    DefaultPrompt,
	}
}

// Load reads the YAML file at path over the defaults. An empty path or a
// missing file yields the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, errors.Wrap(err, "reading config")
	}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, errors.Wrapf(err, "parsing config %s", path)
	}
	return c, c.Validate()
}

// Validate checks the values that have a fixed set of choices.
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("log_format: unknown format %q, want text or json", c.LogFormat)
	}
	if c.OutputDir == "" {
		return errors.New("output_dir: must not be empty")
	}
	return nil
}

// Logger builds a logger writing to stderr with the configured level and
// format.
func (c Config) Logger() (*logrus.Logger, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetOutput(os.Stderr)
	level, _ := logrus.ParseLevel(c.LogLevel)
	l.SetLevel(level)
	if c.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return l, nil
}
