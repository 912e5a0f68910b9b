//go:build !unix

package envfile

// lockFile is a no-op where flock is unavailable; Store still serializes writers within the process.
func lockFile(string, bool) (func() error, error) {
	return func() error { return nil }, nil
}
