package executor

import (
	"bytes"
	"context"
	"io"
	"os/exec"
)

// ProcessRunner runs an external process to completion.
type ProcessRunner interface {
	// Run executes path with args, feeding stdin, and returns stdout and stderr.
	Run(ctx context.Context, path string, args []string, stdin io.Reader) (stdout, stderr []byte, err error)
}

// ExecRunner implements ProcessRunner using os/exec.
type ExecRunner struct{}

// Run executes a real external process.
func (ExecRunner) Run(ctx context.Context, path string, args []string, stdin io.Reader) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
