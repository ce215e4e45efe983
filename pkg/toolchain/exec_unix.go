//go:build unix

package toolchain

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

func executable(path string, _ fs.FileInfo) error {
	return unix.Access(path, unix.X_OK)
}
