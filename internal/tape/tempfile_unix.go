//go:build !windows

package tape

import "os"

// createSpillFile opens name exclusively, then immediately unlinks it
// while keeping the handle open: the file becomes inaccessible to
// anything but this process (just /proc), and it is cleaned up for free
// when the handle is closed or the process exits abnormally.
// tempfile_windows.go holds the Windows counterpart.
func createSpillFile(name string) (*os.File, error) {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(name); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
