// Package config contains go-sessionmesh node configuration definitions.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/spacemeshos/go-sessionmesh/filesystem"
	"github.com/spacemeshos/go-sessionmesh/p2p"
	"github.com/spacemeshos/go-sessionmesh/session"
)

const (
	defaultConfigFileName = "./config.toml"
	defaultDataDirName    = "sessionmesh"
)

var (
	defaultHomeDir = filesystem.GetUserHomeDirectory()
	defaultDataDir = filepath.Join(defaultHomeDir, defaultDataDirName)
)

// Config defines the top level configuration for a sessionmesh node.
type Config struct {
	BaseConfig `mapstructure:"main"`
	Preset     string         `mapstructure:"preset"`
	P2P        p2p.Config     `mapstructure:"p2p"`
	Session    session.Config `mapstructure:"session"`
	Database   DatabaseConfig `mapstructure:"database"`
	Metrics    MetricsConfig  `mapstructure:"metrics"`
	LOGGING    LoggerConfig   `mapstructure:"logging"`
}

// DataDir returns the absolute path to use for the node's data. This is the
// tilde-expanded path given in the config with a subfolder named after the
// partition.
func (cfg *Config) DataDir() string {
	return filepath.Join(filesystem.GetCanonicalPath(cfg.DataDirParent), fmt.Sprint(cfg.Session.Partition))
}

// BaseConfig defines the default configuration options for a node.
type BaseConfig struct {
	DataDirParent string `mapstructure:"data-folder"`
	FileLock      string `mapstructure:"filelock"`
	ConfigFile    string `mapstructure:"config"`

	// Character is the name of the character played on this node. It is
	// loaded from the local store or created on first start.
	Character string `mapstructure:"character"`
	Class     string `mapstructure:"class"`

	// Content is a directory with monster and world tables. Built in tables
	// are used if empty.
	Content string `mapstructure:"content"`

	// Session to join on start. A new one is created with CreateSession as
	// its name when empty and CreateSession is set.
	JoinSession   string `mapstructure:"join-session"`
	CreateSession string `mapstructure:"create-session"`
}

// DatabaseConfig tunes the local store.
type DatabaseConfig struct {
	Cache   int `mapstructure:"cache"`
	Handles int `mapstructure:"handles"`
}

// MetricsConfig configures the prometheus exporter and pusher.
type MetricsConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Port       int           `mapstructure:"port"`
	PushURL    string        `mapstructure:"push-url"`
	PushPeriod time.Duration `mapstructure:"push-period"`
}

// DefaultConfig returns the default configuration for a node.
func DefaultConfig() Config {
	return Config{
		BaseConfig: defaultBaseConfig(),
		P2P:        p2p.DefaultConfig(),
		Session:    session.DefaultConfig(),
		Database: DatabaseConfig{
			Cache:   16,
			Handles: 16,
		},
		Metrics: MetricsConfig{
			Port:       1010,
			PushPeriod: time.Minute,
		},
		LOGGING: DefaultLoggingConfig(),
	}
}

func defaultBaseConfig() BaseConfig {
	return BaseConfig{
		DataDirParent: defaultDataDir,
		FileLock:      filepath.Join(defaultDataDir, "LOCK"),
		ConfigFile:    defaultConfigFileName,
		Character:     "adventurer",
		Class:         "warrior",
	}
}

// LoadConfig reads the config file into vip. If fileLocation can't be read
// the default config file is tried.
func LoadConfig(fileLocation string, vip *viper.Viper) error {
	if fileLocation == "" {
		fileLocation = defaultConfigFileName
	}
	vip.SetConfigFile(fileLocation)
	err := vip.ReadInConfig()
	if err != nil && fileLocation != defaultConfigFileName {
		vip.SetConfigFile(defaultConfigFileName)
		err = vip.ReadInConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %w", err)
	}
	return nil
}
