package agent

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Finalizer applies (or rolls back) the overlay after a run. It is called
// exactly once per run that got past the template check.
type Finalizer interface {
	Finalize(ctx context.Context) error
}

// ScriptFinalizer runs an external script with bash and no arguments.
type ScriptFinalizer struct {
	Path string
}

func (f ScriptFinalizer) Finalize(ctx context.Context) error {
	if _, err := os.Stat(f.Path); err != nil {
		return fmt.Errorf("finalize script: %w", err)
	}
	return run(ctx, "bash", f.Path)
}

func run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v failed: %v output=%s", name, args, err, string(out))
	}
	return nil
}
