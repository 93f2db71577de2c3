//go:build linux

package sink

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints the kernel that the spool file is written and read
// front to back. Failure only costs read-ahead, so it is ignored.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
