// Package coordinator runs the end-to-end coverage update: measure, load the
// report, and merge it into the README.
package coordinator

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/zjy-dev/covdoc/internal/coverage"
	"github.com/zjy-dev/covdoc/internal/logger"
	"github.com/zjy-dev/covdoc/internal/report"
)

// ErrMissingInput is returned when the project or document path does not exist.
var ErrMissingInput = errors.New("missing input")

// Options describes one update run.
type Options struct {
	// ProjectName names the report file: <ProjectName>_coverage.json.
	ProjectName string
	// ProjectPath is the unit test directory measured by the harness.
	ProjectPath string
	// ReadmePath is the document holding the managed block.
	ReadmePath string
	// ReportPath is where the harness writes its JSON report.
	ReportPath string
	// DryRun writes the merged document to Output instead of ReadmePath.
	DryRun bool
	Output io.Writer
}

// Coordinator owns the report and the document buffer for one invocation.
type Coordinator struct {
	fs      afero.Fs
	harness coverage.Harness
	merger  *report.Merger
}

// New creates a Coordinator.
func New(fs afero.Fs, harness coverage.Harness, merger *report.Merger) *Coordinator {
	return &Coordinator{
		fs:      fs,
		harness: harness,
		merger:  merger,
	}
}

// Run performs the update. It returns true on a clean end-to-end run. Input,
// report and document problems are logged and reported as false with a nil
// error; harness failures are returned to the caller.
func (c *Coordinator) Run(opts Options) (bool, error) {
	if err := c.checkInputs(opts); err != nil {
		logger.Error("%v", err)
		return false, nil
	}

	logger.Debug("prepare code coverage for %s, update %s", opts.ProjectName, opts.ReadmePath)
	if err := c.measure(opts); err != nil {
		return false, err
	}

	cov, err := coverage.Load(c.fs, opts.ReportPath)
	if err != nil {
		logger.Error("failed to load coverage report: %v", err)
		return false, nil
	}
	logger.Debug("coverage data %+v", cov)
	if len(cov.Files) == 0 {
		logger.Warn("coverage report %s lists no files, table will only hold the total", opts.ReportPath)
	}

	if err := c.merge(opts, cov); err != nil {
		logger.Error("%v", err)
		return false, nil
	}

	stats := cov.Stats()
	logger.Info("coverage for %s: %d files, %d statements, %d missing, %s%%",
		opts.ProjectName, stats.Files, stats.Statements, stats.Missing, stats.CoveredPercent)
	return true, nil
}

func (c *Coordinator) checkInputs(opts Options) error {
	for _, p := range []struct{ what, path string }{
		{"project path", opts.ProjectPath},
		{"readme path", opts.ReadmePath},
	} {
		if p.path == "" {
			return fmt.Errorf("%w: %s not set", ErrMissingInput, p.what)
		}
		ok, err := afero.Exists(c.fs, p.path)
		if err != nil || !ok {
			return fmt.Errorf("%w: %s %s does not exist", ErrMissingInput, p.what, p.path)
		}
	}
	return nil
}

func (c *Coordinator) measure(opts Options) error {
	if err := c.harness.Clean(); err != nil {
		return err
	}
	if err := c.harness.Run(opts.ProjectPath); err != nil {
		return err
	}
	if err := c.fs.MkdirAll(filepath.Dir(opts.ReportPath), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	return c.harness.Report(opts.ReportPath)
}

func (c *Coordinator) merge(opts Options, cov *coverage.CoverageReport) error {
	lines, err := report.ReadLines(c.fs, opts.ReadmePath)
	if err != nil {
		return err
	}
	merged, n, err := c.merger.Merge(lines, cov)
	if err != nil {
		return fmt.Errorf("failed to merge %s: %w", opts.ReadmePath, err)
	}
	if n == 0 {
		logger.Warn("no %q marker in %s, document left unchanged", c.merger.Markers().Start, opts.ReadmePath)
	} else if err := c.merger.Verify(merged, len(cov.Files)+1); err != nil {
		// A file identifier containing '|' splits cells; the write still goes ahead.
		logger.Warn("rendered table check: %v", err)
	}

	content := report.JoinLines(merged)
	if opts.DryRun {
		if opts.Output == nil {
			return errors.New("dry run requires an output writer")
		}
		_, err := io.WriteString(opts.Output, content)
		return err
	}
	if n == 0 {
		return nil
	}

	if err := report.WriteFileAtomic(c.fs, opts.ReadmePath, []byte(content), report.FileMode(c.fs, opts.ReadmePath)); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.ReadmePath, err)
	}
	logger.Info("updated %d coverage block(s) in %s", n, opts.ReadmePath)
	return nil
}
