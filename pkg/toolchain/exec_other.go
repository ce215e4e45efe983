//go:build !unix

package toolchain

import (
	"errors"
	"io/fs"
)

func executable(_ string, info fs.FileInfo) error {
	if info.Mode().Perm()&0111 == 0 {
		return errors.New("no execute permission")
	}
	return nil
}
