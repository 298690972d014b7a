//go:build !linux

package fileutil

import (
	"os"
	"time"
)

// CreationTime returns the modification time of the file. Platforms other
// than Linux do not get the inode change time.
func CreationTime(name string, info os.FileInfo) time.Time {
	return info.ModTime()
}
