// Package app provides the application initialization and wiring.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/stackkeeper/stackkeeper/internal/adapters/out/filesystem"
	"github.com/stackkeeper/stackkeeper/internal/domain"
	"github.com/stackkeeper/stackkeeper/pkg/bytesize"
)

// Config holds the application configuration.
type Config struct {
	DataDir string `mapstructure:"data_dir"`

	Apps struct {
		Root       string `mapstructure:"root"`
		ManagedDir string `mapstructure:"managed_dir"`
	} `mapstructure:"apps"`

	Update struct {
		IgnoreImages []string `mapstructure:"ignore_images"`
	} `mapstructure:"update"`

	Backup struct {
		TargetRoot  string `mapstructure:"target_root"`
		Compressor  string `mapstructure:"compressor"`
		HelperImage string `mapstructure:"helper_image"`
	} `mapstructure:"backup"`

	Archive struct {
		CompressionLevel int    `mapstructure:"compression_level"`
		SplitSize        string `mapstructure:"split_size"`
		Password         string `mapstructure:"password"`
	} `mapstructure:"archive"`

	Tools struct {
		Compose  string `mapstructure:"compose"`
		SevenZip string `mapstructure:"sevenzip"`
	} `mapstructure:"tools"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		File   struct {
			Enabled    bool   `mapstructure:"enabled"`
			Path       string `mapstructure:"path"`
			MaxSize    int    `mapstructure:"max_size"`
			MaxBackups int    `mapstructure:"max_backups"`
			MaxAge     int    `mapstructure:"max_age"`
		} `mapstructure:"file"`
	} `mapstructure:"logging"`
}

// DefaultDataDir returns the default data directory path.
func DefaultDataDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".stackkeeper")
	}
	return "/var/lib/stackkeeper"
}

// ConfigureViper sets up viper with standard config file search paths.
// Config file: stackkeeper.toml
// Search paths (in order): /etc/stackkeeper, ~/.config/stackkeeper, current directory
func ConfigureViper(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("stackkeeper")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/stackkeeper")
		v.AddConfigPath("$HOME/.config/stackkeeper")
		v.AddConfigPath(".")
	}
}

func loadConfig(v *viper.Viper, configPath string) error {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("apps.root", "~/docker")
	v.SetDefault("apps.managed_dir", "apps")
	v.SetDefault("update.ignore_images", []string{})
	v.SetDefault("backup.target_root", "~/backups")
	v.SetDefault("backup.compressor", string(domain.CompressorZstd))
	v.SetDefault("backup.helper_image", "alpine:3.20")
	v.SetDefault("archive.compression_level", 5)
	v.SetDefault("archive.split_size", "")
	v.SetDefault("archive.password", "")
	v.SetDefault("tools.compose", "docker")
	v.SetDefault("tools.sevenzip", "7z")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.max_size", 100)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age", 28)

	ConfigureViper(v, configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("STACKKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return nil
}

// initConfig loads, expands and validates the configuration.
func initConfig(configPath string) (*viper.Viper, Config, error) {
	v := viper.New()
	if err := loadConfig(v, configPath); err != nil {
		return nil, Config{}, fmt.Errorf("%w: %w", domain.ErrConfigInvalid, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, Config{}, fmt.Errorf("%w: failed to unmarshal config: %w", domain.ErrConfigInvalid, err)
	}

	cfg.DataDir = filesystem.ExpandTilde(cfg.DataDir)
	cfg.Apps.Root = filesystem.ExpandTilde(cfg.Apps.Root)
	cfg.Backup.TargetRoot = filesystem.ExpandTilde(cfg.Backup.TargetRoot)
	cfg.Logging.File.Path = filesystem.ExpandTilde(cfg.Logging.File.Path)

	if err := cfg.validate(); err != nil {
		return nil, Config{}, err
	}
	return v, cfg, nil
}

func (c Config) validate() error {
	var problems []string
	if c.DataDir == "" {
		problems = append(problems, "data_dir must not be empty")
	}
	if c.Apps.Root == "" {
		problems = append(problems, "apps.root must not be empty")
	}
	if !domain.Compressor(c.Backup.Compressor).Valid() {
		problems = append(problems, fmt.Sprintf("backup.compressor %q is not one of zstd, gzip", c.Backup.Compressor))
	}
	if c.Backup.HelperImage == "" {
		problems = append(problems, "backup.helper_image must not be empty")
	}
	if c.Archive.CompressionLevel < 0 || c.Archive.CompressionLevel > 9 {
		problems = append(problems, fmt.Sprintf("archive.compression_level %d is outside 0-9", c.Archive.CompressionLevel))
	}
	if _, err := bytesize.SplitFlag(c.Archive.SplitSize); err != nil {
		problems = append(problems, "archive.split_size: "+err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrConfigInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// LocksDir is where per-application lock files live.
func (c Config) LocksDir() string {
	return filepath.Join(c.DataDir, "locks")
}

// LogsDir is where run logs and the rotated application log live.
func (c Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}
