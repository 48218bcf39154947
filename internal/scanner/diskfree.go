package scanner

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DiskUsage reports free and total space, in binary MB, for the filesystem
// holding path.
func DiskUsage(path string) (freeMB, totalMB float64, err error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", path, err)
	}

	bsize := float64(st.Bsize)
	freeMB = float64(st.Bavail) * bsize / bytesPerMB
	totalMB = float64(st.Blocks) * bsize / bytesPerMB
	return freeMB, totalMB, nil
}
