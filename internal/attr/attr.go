// Package attr reads and sets the backup-excluded attribute on filesystem
// paths: the com.apple.metadata:com_apple_backup_excludeItem extended
// attribute. SetExcluded also calls a resource-property hook, which is a
// no-op on every platform, Darwin included.
package attr

import (
	"golang.org/x/sys/unix"
)

const xattrName = "com.apple.metadata:com_apple_backup_excludeItem"

// Attributes is the handle through which callers read and mutate the
// backup-excluded state of paths. It carries no state of its own; it
// exists so tests can substitute a fake filesystem layer.
type Attributes struct{}

// New returns a ready-to-use Attributes handle.
func New() *Attributes {
	return &Attributes{}
}

// IsExcluded reports whether path currently carries the backup-excluded
// attribute. A missing attribute is reported as false, not an error.
func (a *Attributes) IsExcluded(path string) (bool, error) {
	buf := make([]byte, 8)
	_, err := unix.Getxattr(path, xattrName, buf)
	if err != nil {
		if err == unix.ENODATA {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetExcluded sets (excluded=true) or clears (excluded=false) the
// backup-excluded attribute on path. The resource-property hook it then
// calls does nothing (see setResourceProperty).
func (a *Attributes) SetExcluded(path string, excluded bool) error {
	if excluded {
		if err := unix.Setxattr(path, xattrName, []byte{1}, 0); err != nil {
			return err
		}
	} else {
		if err := unix.Removexattr(path, xattrName); err != nil {
			if err == unix.ENODATA {
				return nil
			}
			return err
		}
	}
	setResourceProperty(path, excluded)
	return nil
}
