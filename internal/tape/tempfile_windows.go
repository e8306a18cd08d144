//go:build windows

package tape

import (
	"os"

	"golang.org/x/sys/windows"
)

// createSpillFile opens name with FILE_FLAG_DELETE_ON_CLOSE so the OS
// removes it the moment the handle closes, the Windows equivalent of the
// Unix open-then-unlink self-cleaning trick.
func createSpillFile(name string) (*os.File, error) {
	namep, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateFile(
		namep,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.CREATE_NEW,
		windows.FILE_ATTRIBUTE_NORMAL|windows.FILE_FLAG_DELETE_ON_CLOSE,
		0,
	)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(h), name), nil
}
