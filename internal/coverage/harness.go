package coverage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zjy-dev/covdoc/internal/exec"
	"github.com/zjy-dev/covdoc/internal/logger"
)

// ErrHarness is returned when the coverage tool itself fails.
var ErrHarness = errors.New("coverage harness failed")

// Harness runs a project's tests under coverage measurement and writes the
// JSON report consumed by Load.
type Harness interface {
	// Clean removes data collected by earlier runs.
	Clean() error
	// Run executes the tests found under projectDir.
	Run(projectDir string) error
	// Report writes the JSON report to outPath.
	Report(outPath string) error
}

// PythonHarness drives the coverage.py command line with unittest discovery.
type PythonHarness struct {
	executor exec.Executor
	command  string
	pattern  string
	erase    bool
	dataFile string
}

// HarnessOption configures a PythonHarness.
type HarnessOption func(*PythonHarness)

// WithDataFile makes coverage.py keep its measurement data in path
// (COVERAGE_FILE) instead of .coverage in the working directory.
// An empty path keeps the default.
func WithDataFile(path string) HarnessOption {
	return func(h *PythonHarness) {
		h.dataFile = path
	}
}

// NewPythonHarness creates a harness. command is the coverage executable
// ("coverage" or e.g. "python3 -m coverage"); pattern is the unittest
// discovery pattern.
func NewPythonHarness(executor exec.Executor, command, pattern string, erase bool, opts ...HarnessOption) *PythonHarness {
	if strings.TrimSpace(command) == "" {
		command = "coverage"
	}
	if pattern == "" {
		pattern = "*_test.py"
	}
	h := &PythonHarness{
		executor: executor,
		command:  command,
		pattern:  pattern,
		erase:    erase,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Clean runs "coverage erase" unless erasing is disabled.
func (h *PythonHarness) Clean() error {
	if !h.erase {
		return nil
	}
	res, err := h.run("erase")
	if err != nil {
		return err
	}
	if !res.Succeeded() {
		return fmt.Errorf("%w: erase exited with %d: %s", ErrHarness, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// Run measures the unit tests under projectDir. Failing tests only produce a
// warning: the report still reflects what ran.
func (h *PythonHarness) Run(projectDir string) error {
	res, err := h.run(
		"run", "--source="+projectDir,
		"-m", "unittest", "discover",
		"-s", projectDir,
		"-p", h.pattern,
	)
	if err != nil {
		return err
	}
	// unittest writes its verbose results to stderr
	logger.Debug("test output:\n%s%s", res.Stdout, res.Stderr)
	if !res.Succeeded() {
		logger.Warn("tests under %s exited with code %d, continuing with collected coverage", projectDir, res.ExitCode)
	}
	return nil
}

// Report writes the JSON report with "coverage json -o outPath".
func (h *PythonHarness) Report(outPath string) error {
	res, err := h.run("json", "-o", outPath)
	if err != nil {
		return err
	}
	if !res.Succeeded() {
		return fmt.Errorf("%w: json report exited with %d: %s", ErrHarness, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	logger.Info("generated coverage report %s", outPath)
	return nil
}

func (h *PythonHarness) run(args ...string) (*exec.ExecutionResult, error) {
	fields := strings.Fields(h.command)
	cmd := exec.Command{
		Name: fields[0],
		Args: append(fields[1:], args...),
	}
	if h.dataFile != "" {
		cmd.Env = []string{"COVERAGE_FILE=" + h.dataFile}
	}
	logger.Debug("running %s", cmd)
	res, err := h.executor.Run(cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHarness, err)
	}
	return res, nil
}
