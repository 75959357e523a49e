package exec

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrCommandNotFound is returned when the program cannot be located or started.
var ErrCommandNotFound = errors.New("command not found")

// Command describes one external program invocation.
type Command struct {
	Name string
	Args []string
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// ExecutionResult holds the outcome of a command execution.
type ExecutionResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Succeeded reports whether the command exited with status zero.
func (r *ExecutionResult) Succeeded() bool {
	return r != nil && r.ExitCode == 0
}

// Executor defines an interface for running external commands.
// This allows for mocking in tests.
type Executor interface {
	Run(cmd Command) (*ExecutionResult, error)
}

// CommandExecutor runs actual commands on the host system.
type CommandExecutor struct{}

// NewCommandExecutor creates a new CommandExecutor.
func NewCommandExecutor() *CommandExecutor {
	return &CommandExecutor{}
}

// Run executes the given command and returns its result.
// A non-zero exit status is reported through ExitCode, not as an error.
func (e *CommandExecutor) Run(c Command) (*ExecutionResult, error) {
	cmd := exec.Command(c.Name, c.Args...)
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			if errors.Is(err, exec.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s: %v", ErrCommandNotFound, c.Name, err)
			}
			return nil, fmt.Errorf("failed to start %s: %w", c.Name, err)
		}
	}

	return &ExecutionResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
		Duration: elapsed,
	}, nil
}
