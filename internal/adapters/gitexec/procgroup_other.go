//go:build !unix

package gitexec

import "os/exec"

// killProcessGroup is a no-op where process groups are unavailable; the context kills the direct child.
func killProcessGroup(cmd *exec.Cmd) {}
