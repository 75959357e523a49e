package app

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/zjy-dev/covdoc/internal/config"
	"github.com/zjy-dev/covdoc/internal/coordinator"
	"github.com/zjy-dev/covdoc/internal/coverage"
	"github.com/zjy-dev/covdoc/internal/exec"
	"github.com/zjy-dev/covdoc/internal/logger"
	"github.com/zjy-dev/covdoc/internal/modpath"
	"github.com/zjy-dev/covdoc/internal/report"
)

// ErrUpdateFailed is returned when the update finished without success.
var ErrUpdateFailed = errors.New("coverage update failed")

// NewUpdateCommand creates the "update" subcommand.
func NewUpdateCommand(root *rootOptions) *cobra.Command {
	var (
		name        string
		projectPath string
		readmePath  string
		reportDir   string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Measure coverage and refresh the README coverage table.",
		Long: `Run the project's unit tests under coverage.py, write <name>_coverage.json
and replace the content between the coverage markers of the README.

Only the lines between the start marker (default "### Code coverage") and
the end marker (default "### Docs") are rewritten. A README without a start
marker is left unchanged.

Configuration:
  Default values are loaded from configs/config.yaml under the 'config' key.
  Command line flags override the config file values.

Examples:
  # Update README.md with coverage of the tests/ directory
  covdoc update --name ats_coverage --project tests --path README.md

  # Preview the result without touching README.md
  covdoc update -n ats_coverage -d tests -p README.md --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			// Use config values as defaults, command line flags override
			if cmd.Flags().Changed("name") {
				cfg.Project.Name = name
			}
			if cmd.Flags().Changed("project") {
				cfg.Project.Path = projectPath
			}
			if cmd.Flags().Changed("path") {
				cfg.Readme.Path = readmePath
			}
			if cmd.Flags().Changed("report-dir") {
				cfg.Harness.ReportDir = reportDir
			}

			if cfg.Project.Name == "" {
				return errors.New("missing name argument")
			}
			if cfg.Readme.Path == "" {
				return errors.New("missing path argument")
			}
			if cfg.Project.Path == "" {
				// tests live next to the README by default
				cfg.Project.Path = filepath.Dir(cfg.Readme.Path)
			}

			c := newCoordinator(cfg, root.commandExecutor())
			ok, err := c.Run(coordinator.Options{
				ProjectName: cfg.Project.Name,
				ProjectPath: cfg.Project.Path,
				ReadmePath:  cfg.Readme.Path,
				ReportPath:  cfg.ReportPath(),
				DryRun:      dryRun,
				Output:      cmd.OutOrStdout(),
			})
			if err != nil {
				return fmt.Errorf("%w: %w", ErrUpdateFailed, err)
			}
			if !ok {
				return ErrUpdateFailed
			}
			logger.Info("generate coverage for %s done", cfg.Project.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name, used for <name>_coverage.json")
	cmd.Flags().StringVarP(&projectPath, "project", "d", "", "Unit test directory to measure (default: README directory)")
	cmd.Flags().StringVarP(&readmePath, "path", "p", "", "Path to the README.md file")
	cmd.Flags().StringVar(&reportDir, "report-dir", "", "Directory for the JSON coverage report")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the updated README instead of writing it")

	return cmd
}

func newCoordinator(cfg *config.Config, executor exec.Executor) *coordinator.Coordinator {
	fs := afero.NewOsFs()
	harness := coverage.NewPythonHarness(executor, cfg.Harness.Command, cfg.Harness.TestPattern, cfg.Harness.Erase,
		coverage.WithDataFile(cfg.Harness.DataFile))
	resolver := modpath.NewResolver(fs, cfg.Project.PackageMarker)
	merger := report.NewMerger(report.Markers{
		Start: cfg.Readme.StartMarker,
		End:   cfg.Readme.EndMarker,
	}, resolver)
	return coordinator.New(fs, harness, merger)
}
