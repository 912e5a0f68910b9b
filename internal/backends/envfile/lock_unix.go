//go:build unix

package envfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes an flock on path, creating it if needed, and returns the release function.
func lockFile(path string, exclusive bool) (func() error, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, defaultFileMode)
	if err != nil {
		return nil, err
	}
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	fd := int(f.Fd())
	for {
		err = unix.Flock(fd, how)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return func() error {
		_ = unix.Flock(fd, unix.LOCK_UN)
		return f.Close()
	}, nil
}
