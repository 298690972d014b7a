package fileutil

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// CreationTime returns the inode change time of the named file, which is
// the closest thing to a creation time Linux reports. If the stat fails the
// modification time from info is used instead.
func CreationTime(name string, info os.FileInfo) time.Time {
	var st unix.Stat_t
	if err := unix.Stat(name, &st); err != nil {
		return info.ModTime()
	}
	sec, nsec := st.Ctim.Unix()
	return time.Unix(sec, nsec)
}
