//go:build unix

package scan

import (
	"fmt"
	"io/fs"
	"syscall"

	"fsarc-go/internal/archive"
)

// extractStat pulls uid/gid/atime/ctime out of the platform-specific
// syscall.Stat_t, the same role internal/fs/stat_unix.go plays for the
// teacher's FilesystemManager.
func extractStat(info fs.FileInfo) (archive.StatInfo, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return archive.StatInfo{}, fmt.Errorf("cannot extract stat data: expected *syscall.Stat_t, got %T", info.Sys())
	}

	return archive.StatInfo{
		// stat.Mode already carries the raw POSIX mode bits (permissions
		// plus S_IFDIR/S_IFREG type bits); Go's fs.FileMode encodes type
		// differently and cannot be reused directly here.
		Mode:  uint32(stat.Mode),
		UID:   stat.Uid,
		GID:   stat.Gid,
		Atime: stat.Atim.Sec,
		Mtime: info.ModTime().Unix(),
		Ctime: stat.Ctim.Sec,
		Size:  info.Size(),
	}, nil
}
