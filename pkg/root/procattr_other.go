//go:build !unix

package root

import "os/exec"

// setProcessGroup falls back to killing the direct child.
func setProcessGroup(cmd *exec.Cmd) {}
