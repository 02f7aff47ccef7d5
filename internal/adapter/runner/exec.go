package runner

import (
	"context"
	"fmt"
	"os/exec"
)

// ExecRunner runs install commands as child processes.
type ExecRunner struct {
	env []string
}

// NewExecRunner creates a runner. Extra env entries are appended to the
// inherited environment.
func NewExecRunner(env ...string) *ExecRunner {
	return &ExecRunner{env: env}
}

// Run executes binary with args and returns its combined output. The process
// is killed when ctx is done.
func (r *ExecRunner) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return out, fmt.Errorf("%s: %w", binary, ctx.Err())
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return out, fmt.Errorf("%s exited with code %d", binary, exitErr.ExitCode())
		}
		return out, fmt.Errorf("%s: %w", binary, err)
	}
	return out, nil
}
