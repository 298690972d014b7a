// Package config loads the settings for an aptbag run. A configuration file
// is either TOML (when its name ends in ".toml") or YAML.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Defaults filled in by Validate.
const (
	DefaultThreshold      int64 = 250 << 30 // 250 GB
	DefaultWorkers              = 1
	DefaultVerifyAttempts       = 5
	DefaultVerifyInterval       = 2 * time.Second
)

// Environment names.
const (
	Test       = "test"
	Production = "production"
)

var (
	// ErrInvalidConfig is matched by every error Validate returns.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownEnvironment is returned by Env for a name other than
	// "test" or "production".
	ErrUnknownEnvironment = errors.New("unknown environment")
)

// Duration is a time.Duration written as a string such as "1m30s" in a
// configuration file.
type Duration struct {
	time.Duration
}

// UnmarshalText is used by both the TOML and YAML decoders.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText is the inverse of UnmarshalText.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// An Environment is where bags go for one of the test or production runs.
type Environment struct {
	Name string `toml:"-" yaml:"-"`

	// ReceivingBucket is a store location, e.g. "aptrust.receiving.test.nd.edu"
	// or "s3://localhost:9000/bucket/prefix/" or "file:/tmp/receiving".
	ReceivingBucket string `toml:"receiving_bucket" yaml:"receiving_bucket"`

	// DAEVBasePath is the base URL of the DAEV service. Submissions are
	// skipped if it is empty.
	DAEVBasePath string `toml:"daev_base_path" yaml:"daev_base_path"`
}

// Config is the contents of a configuration file.
type Config struct {
	Institution    string   `toml:"institution" yaml:"institution"`
	BagsBaseDir    string   `toml:"bags_base_dir" yaml:"bags_base_dir"`
	MultiThreshold int64    `toml:"multi_threshold" yaml:"multi_threshold"`
	AuditFile      string   `toml:"audit_file" yaml:"audit_file"`
	LogFile        string   `toml:"log_file" yaml:"log_file"`
	MetricsFile    string   `toml:"metrics_file" yaml:"metrics_file"`
	SentryDSN      string   `toml:"sentry_dsn" yaml:"sentry_dsn"`
	Workers        int      `toml:"workers" yaml:"workers"`
	AllowOversized bool     `toml:"allow_oversized" yaml:"allow_oversized"`
	Cleanup        bool     `toml:"cleanup" yaml:"cleanup"`
	VerifyAttempts int      `toml:"verify_attempts" yaml:"verify_attempts"`
	VerifyInterval Duration `toml:"verify_interval" yaml:"verify_interval"`
	ServiceCode    string   `toml:"service_code" yaml:"service_code"`

	Test       Environment `toml:"test" yaml:"test"`
	Production Environment `toml:"production" yaml:"production"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading configuration")
	}
	c := new(Config)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err = toml.Decode(string(data), c)
	} else {
		err = yaml.Unmarshal(data, c)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate fills in defaults and checks that the required settings are
// present.
func (c *Config) Validate() error {
	switch {
	case c.Institution == "":
		return errors.Wrap(ErrInvalidConfig, "institution is required")
	case c.BagsBaseDir == "":
		return errors.Wrap(ErrInvalidConfig, "bags_base_dir is required")
	case c.MultiThreshold < 0:
		return errors.Wrap(ErrInvalidConfig, "multi_threshold must be positive")
	case c.Workers < 0:
		return errors.Wrap(ErrInvalidConfig, "workers must be positive")
	}
	if c.MultiThreshold == 0 {
		c.MultiThreshold = DefaultThreshold
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.VerifyAttempts <= 0 {
		c.VerifyAttempts = DefaultVerifyAttempts
	}
	if c.VerifyInterval.Duration <= 0 {
		c.VerifyInterval.Duration = DefaultVerifyInterval
	}
	if c.AuditFile == "" {
		c.AuditFile = filepath.Join(c.BagsBaseDir, "audit.log")
	}
	c.Test.Name = Test
	c.Production.Name = Production
	return nil
}

// Env returns the environment with the given name.
func (c *Config) Env(name string) (Environment, error) {
	switch name {
	case Test:
		return c.Test, nil
	case Production:
		return c.Production, nil
	}
	return Environment{}, errors.Wrap(ErrUnknownEnvironment, name)
}
