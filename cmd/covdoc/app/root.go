package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjy-dev/covdoc/internal/config"
	"github.com/zjy-dev/covdoc/internal/exec"
	"github.com/zjy-dev/covdoc/internal/logger"
)

// Version is set at build time with -ldflags "-X .../app.Version=...".
var Version = "dev"

type rootOptions struct {
	configFile string
	verbose    bool
	// executor runs the harness commands; nil uses the host.
	executor exec.Executor
}

func (o *rootOptions) commandExecutor() exec.Executor {
	if o.executor == nil {
		return exec.NewCommandExecutor()
	}
	return o.executor
}

// NewCovdocCommand creates the root command for the covdoc tool.
func NewCovdocCommand() *cobra.Command {
	return newCovdocCommand(&rootOptions{})
}

func newCovdocCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "covdoc",
		Short: "Write a code coverage table into a README.",
		Long: `covdoc runs a project's unit tests under coverage.py and replaces the
coverage section of a README with a freshly rendered markdown table.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is configs/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// loadConfig reads configuration and initializes logging from it.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadConfigFile(o.configFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if o.verbose {
		level = "debug"
	}
	if cfg.Log.Dir != "" {
		err := logger.InitWithFileOptions(level, cfg.Log.Dir, logger.FileOptions{
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   cfg.Log.Compress,
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("writing log file %s", logger.GetLogFilePath())
	} else {
		logger.Init(level)
		logger.SetLevel(level)
	}
	return cfg, nil
}
