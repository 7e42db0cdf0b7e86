package reconciler

import (
	"context"
	"os/exec"
	"strings"

	"github.com/crmarques/confsync/faults"
)

// runPostApply hands the hook to the shell so operators can chain
// commands without a wrapper script. The hook's failure is reported but
// the apply that preceded it stands.
func (r *Reconciler) runPostApply(ctx context.Context, command string) error {
	r.log.Info("running post-apply hook", "command", command)

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	output, err := cmd.CombinedOutput()
	if trimmed := strings.TrimSpace(string(output)); trimmed != "" {
		r.log.Info("post-apply hook output", "output", trimmed)
	}
	if err != nil {
		return faults.NewTypedError(faults.InternalError, "post-apply hook failed", err)
	}
	return nil
}
