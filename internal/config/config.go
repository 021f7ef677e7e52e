package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"leaseapi/internal/lease"
)

// Config holds all application configuration
type Config struct {
	// Lease file lookup
	LeasesFile   string
	DefaultPaths []string
	ReadTimeout  time.Duration

	// Network settings
	HTTPListen string

	// Behaviour
	Strict   bool
	Watch    bool
	LogLevel string
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		LeasesFile:   "",
		DefaultPaths: append([]string(nil), lease.DefaultPaths...),
		ReadTimeout:  lease.DefaultReadTimeout,
		HTTPListen:   "127.0.0.1:5000",
		Strict:       true,
		Watch:        true,
		LogLevel:     "info",
	}
}

// LoadFromFile loads configuration from INI file
func (c *Config) LoadFromFile(filename string) error {
	cfg, err := ini.LoadSources(ini.LoadOptions{Insensitive: true}, filename)
	if err != nil {
		return fmt.Errorf("loading config file %s: %w", filename, err)
	}

	section := cfg.Section("")
	c.LeasesFile = section.Key("leasesfile").MustString(c.LeasesFile)
	if section.HasKey("defaultpaths") {
		c.DefaultPaths = splitList(section.Key("defaultpaths").String())
	}
	c.ReadTimeout = section.Key("readtimeout").MustDuration(c.ReadTimeout)
	c.HTTPListen = section.Key("httplisten").MustString(c.HTTPListen)
	c.Strict = section.Key("strict").MustBool(c.Strict)
	c.Watch = section.Key("watch").MustBool(c.Watch)
	c.LogLevel = section.Key("loglevel").MustString(c.LogLevel)

	return nil
}

// LoadFromEnv loads configuration from environment variables. Values that
// fail to parse leave the current setting untouched.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("LEASESFILE"); v != "" {
		c.LeasesFile = v
	}
	if v := os.Getenv("DEFAULTPATHS"); v != "" {
		c.DefaultPaths = splitList(v)
	}
	if v := os.Getenv("READTIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ReadTimeout = d
		}
	}
	if v := os.Getenv("HTTPLISTEN"); v != "" {
		c.HTTPListen = v
	}
	if v := os.Getenv("STRICT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Strict = b
		}
	}
	if v := os.Getenv("WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Watch = b
		}
	}
	if v := os.Getenv("LOGLEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Candidates returns the lease files to try, explicit path first
func (c *Config) Candidates() []string {
	return lease.Candidates(c.LeasesFile, c.DefaultPaths)
}

// New creates a new configuration instance. A missing or unreadable config
// file is not fatal; the returned warning says why it was skipped.
func New(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	var warn error
	if configFile != "" {
		warn = cfg.LoadFromFile(configFile)
	}

	// Override with environment variables
	cfg.LoadFromEnv()

	return cfg, warn
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
