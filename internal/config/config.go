package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. COVDOC_README_PATH.
const EnvPrefix = "COVDOC"

// Config is the top-level configuration, stored under the 'config' key.
type Config struct {
	Project ProjectConfig `mapstructure:"project"`
	Readme  ReadmeConfig  `mapstructure:"readme"`
	Harness HarnessConfig `mapstructure:"harness"`
	Log     LogConfig     `mapstructure:"log"`
}

// ProjectConfig identifies the project whose tests are measured.
type ProjectConfig struct {
	Name string `mapstructure:"name"`
	// Path is the unit test directory handed to the coverage harness.
	Path string `mapstructure:"path"`
	// PackageMarker is the file that makes a directory an importable package.
	PackageMarker string `mapstructure:"package_marker"`
}

// ReadmeConfig points at the document holding the managed block.
type ReadmeConfig struct {
	Path        string `mapstructure:"path"`
	StartMarker string `mapstructure:"start_marker"`
	EndMarker   string `mapstructure:"end_marker"`
}

// HarnessConfig configures the external coverage.py command line.
type HarnessConfig struct {
	Command     string `mapstructure:"command"`
	TestPattern string `mapstructure:"test_pattern"`
	ReportDir   string `mapstructure:"report_dir"`
	// Erase drops data from earlier runs before measuring.
	Erase bool `mapstructure:"erase"`
	// DataFile overrides where coverage.py keeps raw data; empty uses .coverage.
	DataFile string `mapstructure:"data_file"`
}

// LogConfig holds logger settings. An empty Dir disables file logging.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

type fileConfig struct {
	Config Config `mapstructure:"config"`
}

// ReportFileName returns the name of the JSON report written for the project.
func (c *Config) ReportFileName() string {
	return fmt.Sprintf("%s_coverage.json", c.Project.Name)
}

// ReportPath returns the full path of the JSON report.
func (c *Config) ReportPath() string {
	return filepath.Join(c.Harness.ReportDir, c.ReportFileName())
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Readme.StartMarker) == "" {
		return errors.New("readme.start_marker must not be empty")
	}
	if strings.TrimSpace(c.Readme.EndMarker) == "" {
		return errors.New("readme.end_marker must not be empty")
	}
	if c.Readme.StartMarker == c.Readme.EndMarker {
		return fmt.Errorf("readme start and end markers must differ (both %q)", c.Readme.StartMarker)
	}
	if c.Project.PackageMarker == "" {
		return errors.New("project.package_marker must not be empty")
	}
	if c.Harness.Command == "" {
		return errors.New("harness.command must not be empty")
	}
	return nil
}

// ExpandPaths replaces a leading ~ in every path setting with the home directory.
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.Project.Path, &c.Readme.Path, &c.Harness.ReportDir, &c.Harness.DataFile, &c.Log.Dir} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// LoadConfig loads configs/config.yaml if present, applies defaults and
// COVDOC_* environment overrides. A missing file is not an error.
func LoadConfig() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	addSearchPaths(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return decode(v)
}

// LoadConfigFile loads configuration from an explicit file path.
func LoadConfigFile(path string) (*Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path %q: %w", path, err)
	}
	v := newViper()
	v.SetConfigFile(expanded)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(v)
}

func addSearchPaths(v *viper.Viper) {
	v.AddConfigPath("configs")       // configs under the working directory
	v.AddConfigPath("../configs")    // go test runs inside the package dir
	v.AddConfigPath("../../configs") // deeper packages
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("config.project.package_marker", "__init__.py")
	v.SetDefault("config.readme.start_marker", "### Code coverage")
	v.SetDefault("config.readme.end_marker", "### Docs")
	v.SetDefault("config.harness.command", "coverage")
	v.SetDefault("config.harness.test_pattern", "*_test.py")
	v.SetDefault("config.harness.report_dir", ".")
	v.SetDefault("config.harness.erase", true)
	v.SetDefault("config.harness.data_file", "")
	v.SetDefault("config.log.level", "info")
	v.SetDefault("config.log.dir", "")
	v.SetDefault("config.log.max_size", 10)
	v.SetDefault("config.log.max_backups", 3)
	v.SetDefault("config.log.max_age", 28)
	v.SetDefault("config.log.compress", false)
	v.SetDefault("config.project.name", "")
	v.SetDefault("config.project.path", "")
	v.SetDefault("config.readme.path", "")

	// COVDOC_README_PATH overrides config.readme.path
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("CONFIG.", "", ".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	cfg := fc.Config
	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
