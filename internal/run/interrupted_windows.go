//go:build windows

package run

// isInterrupted reports whether err represents a transient EINTR. The
// Windows I/O stack has no EINTR equivalent, so this is always false.
func isInterrupted(err error) bool {
	return false
}
