//go:build !unix

package archive

// chown is a no-op on platforms without POSIX ownership.
func chown(path string, uid, gid int) error {
	return nil
}
