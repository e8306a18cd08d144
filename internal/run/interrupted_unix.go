//go:build !windows

package run

import (
	"errors"
	"syscall"
)

// isInterrupted reports whether err represents a transient EINTR that the
// buffered-refill retry loop should swallow and retry. The Windows build
// (interrupted_windows.go) never reports one.
func isInterrupted(err error) bool {
	return errors.Is(err, syscall.EINTR)
}
