package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/covdoc/internal/coverage"
	"github.com/zjy-dev/covdoc/internal/exec"
)

// reportWriter answers "coverage json -o <path>" by writing a canned report.
type reportWriter struct {
	report string
	calls  []exec.Command
}

func (r *reportWriter) Run(cmd exec.Command) (*exec.ExecutionResult, error) {
	r.calls = append(r.calls, cmd)
	for i, a := range cmd.Args {
		if a == "-o" && i+1 < len(cmd.Args) {
			if err := os.WriteFile(cmd.Args[i+1], []byte(r.report), 0644); err != nil {
				return nil, err
			}
		}
	}
	return &exec.ExecutionResult{}, nil
}

type project struct {
	dir       string
	unitDir   string
	readme    string
	reportDir string
}

const readmeContent = "# demo\n### Code coverage\nold\n### Docs\nrest\n"

const updatedReadme = "# demo\n### Code coverage\n" +
	"| Name | Stmts | Miss | Cover |\n" +
	"|------|-------|------|-------|\n" +
	"| `/mod.py` | 4 | 1 | 75%|\n" +
	"| **Total** | 4 | 1 | 75% |\n" +
	"\n### Docs\nrest\n"

func setupProject(t *testing.T) project {
	t.Helper()
	dir := t.TempDir()
	p := project{
		dir:       dir,
		unitDir:   filepath.Join(dir, "tests"),
		readme:    filepath.Join(dir, "README.md"),
		reportDir: filepath.Join(dir, "out"),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(p.unitDir, "pkg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(p.unitDir, "pkg", "__init__.py"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(p.unitDir, "pkg", "mod.py"), nil, 0644))
	require.NoError(t, os.WriteFile(p.readme, []byte(readmeContent), 0644))

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
	return p
}

func (p project) report() string {
	file := filepath.Join(p.unitDir, "pkg", "mod.py")
	return `{"files": {"` + file + `": {"summary": {"num_statements": 4, "missing_lines": 1, "percent_covered_display": "75"}}},
 "totals": {"num_statements": 4, "missing_lines": 1, "percent_covered_display": "75"}}`
}

func runCommand(t *testing.T, executor exec.Executor, args ...string) (string, error) {
	t.Helper()
	cmd := newCovdocCommand(&rootOptions{executor: executor})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUpdateCommand_WritesTable(t *testing.T) {
	p := setupProject(t)
	fake := &reportWriter{report: p.report()}

	_, err := runCommand(t, fake, "update",
		"--name", "demo",
		"--project", p.unitDir,
		"--path", p.readme,
		"--report-dir", p.reportDir,
	)
	require.NoError(t, err)

	data, err := os.ReadFile(p.readme)
	require.NoError(t, err)
	assert.Equal(t, updatedReadme, string(data))

	_, err = os.Stat(filepath.Join(p.reportDir, "demo_coverage.json"))
	assert.NoError(t, err)

	require.Len(t, fake.calls, 3)
	assert.Equal(t, []string{"erase"}, fake.calls[0].Args)
	assert.Equal(t, "run", fake.calls[1].Args[0])
	assert.Equal(t, "json", fake.calls[2].Args[0])
}

func TestUpdateCommand_DryRun(t *testing.T) {
	p := setupProject(t)

	out, err := runCommand(t, &reportWriter{report: p.report()}, "update",
		"-n", "demo", "-d", p.unitDir, "-p", p.readme,
		"--report-dir", p.reportDir, "--dry-run",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "| `/mod.py` | 4 | 1 | 75%|")

	data, err := os.ReadFile(p.readme)
	require.NoError(t, err)
	assert.Equal(t, readmeContent, string(data))
}

func TestUpdateCommand_DryRunStdoutHoldsOnlyDocument(t *testing.T) {
	p := setupProject(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	// no SetOut: the command and the logger use the process streams
	cmd := newCovdocCommand(&rootOptions{executor: &reportWriter{report: p.report()}})
	cmd.SetArgs([]string{"update",
		"-n", "demo", "-d", p.unitDir, "-p", p.readme,
		"--report-dir", p.reportDir, "--dry-run",
	})
	runErr := cmd.Execute()

	os.Stdout = stdout
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)

	require.NoError(t, runErr)
	assert.Equal(t, updatedReadme, string(out))
}

// failingExecutor fails every command as if coverage were not installed.
type failingExecutor struct{}

func (failingExecutor) Run(cmd exec.Command) (*exec.ExecutionResult, error) {
	return nil, fmt.Errorf("%w: %s", exec.ErrCommandNotFound, cmd.Name)
}

func TestUpdateCommand_HarnessErrorKeepsChain(t *testing.T) {
	p := setupProject(t)

	_, err := runCommand(t, failingExecutor{}, "update",
		"-n", "demo", "-d", p.unitDir, "-p", p.readme,
		"--report-dir", p.reportDir,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpdateFailed)
	assert.ErrorIs(t, err, coverage.ErrHarness)
	assert.ErrorIs(t, err, exec.ErrCommandNotFound)

	data, err := os.ReadFile(p.readme)
	require.NoError(t, err)
	assert.Equal(t, readmeContent, string(data))
}

func TestUpdateCommand_MissingArguments(t *testing.T) {
	p := setupProject(t)

	_, err := runCommand(t, &reportWriter{}, "update", "--path", p.readme)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing name argument")

	_, err = runCommand(t, &reportWriter{}, "update", "--name", "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing path argument")
}

func TestUpdateCommand_MissingReadmeFails(t *testing.T) {
	p := setupProject(t)
	fake := &reportWriter{report: p.report()}

	_, err := runCommand(t, fake, "update",
		"-n", "demo", "-d", p.unitDir,
		"-p", filepath.Join(p.dir, "NOPE.md"),
		"--report-dir", p.reportDir,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpdateFailed))
	assert.Empty(t, fake.calls)
}

func TestUpdateCommand_ConfigFile(t *testing.T) {
	p := setupProject(t)
	cfgPath := filepath.Join(p.dir, "covdoc.yaml")
	cfg := "config:\n" +
		"  project:\n" +
		"    name: demo\n" +
		"    path: " + p.unitDir + "\n" +
		"  readme:\n" +
		"    path: " + p.readme + "\n" +
		"  harness:\n" +
		"    report_dir: " + p.reportDir + "\n" +
		"    erase: false\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	fake := &reportWriter{report: p.report()}
	_, err := runCommand(t, fake, "--config", cfgPath, "update")
	require.NoError(t, err)

	// erase disabled: run + json only
	assert.Len(t, fake.calls, 2)
	data, err := os.ReadFile(p.readme)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "| **Total** | 4 | 1 | 75% |"))
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}
