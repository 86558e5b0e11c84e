package exec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandExecutor runs external commands. Tests substitute MockExecutor.
type CommandExecutor interface {
	// Execute runs name with args and returns stdout, stderr, and any error.
	Execute(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// RealExecutor executes actual system commands.
type RealExecutor struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// NewRealExecutor creates an executor that runs real commands.
func NewRealExecutor() *RealExecutor {
	return &RealExecutor{}
}

// Execute runs the command using os/exec.
func (e *RealExecutor) Execute(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = e.Dir

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Git runs a git subcommand and returns its trimmed stdout. Failures
// include git's stderr in the error message.
func Git(ctx context.Context, e CommandExecutor, args ...string) (string, error) {
	stdout, stderr, err := e.Execute(ctx, "git", args...)
	if err != nil {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
		}
		return "", fmt.Errorf("git %s failed: %s: %w", strings.Join(args, " "), msg, err)
	}
	return strings.TrimSpace(stdout), nil
}

// HeadSHA returns the commit checked out in the working tree.
func HeadSHA(ctx context.Context, e CommandExecutor) (string, error) {
	return Git(ctx, e, "rev-parse", "HEAD")
}
