package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/relmq/relmq"
	"github.com/relmq/relmq/rpc"
)

// StoreType discriminates the backend config.Config.Store builds.
type StoreType string

const (
	StoreDisk  StoreType = "disk"
	StoreMySQL StoreType = "mysql"
)

// StoreConfig describes the storage backend. Path and Fsync apply only
// to StoreDisk; Host through Prefix apply only to StoreMySQL.
type StoreConfig struct {
	Type StoreType `yaml:"type"`

	Path  string `yaml:"path"`
	Fsync bool   `yaml:"fsync"`

	Host     string `yaml:"host"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Port     int    `yaml:"port"`
	Socket   string `yaml:"socket"`
	Prefix   string `yaml:"prefix"`
}

// DRBConfig describes the RPC listener ("drb", distributed relmq
// broker, matching spec.md §6's naming).
type DRBConfig struct {
	Port int    `yaml:"port"`
	ACL  string `yaml:"acl"`
}

// Config is the decoded contents of a relmq config.yaml.
type Config struct {
	Store StoreConfig `yaml:"store"`
	DRB   DRBConfig   `yaml:"drb"`
}

// Load reads and decodes the YAML file at path, validating the
// discriminated store.type.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Type {
	case StoreDisk, StoreMySQL:
	default:
		return fmt.Errorf("%w: config: unknown store type %q", relmq.ErrInvalidArgument, c.Store.Type)
	}
	return nil
}

// ListenAddr returns the configured drb.port as a ":port" listen
// address, or rpc.DefaultAddr if unset.
func (c *Config) ListenAddr() string {
	if c.DRB.Port == 0 {
		return rpc.DefaultAddr
	}
	return fmt.Sprintf(":%d", c.DRB.Port)
}
