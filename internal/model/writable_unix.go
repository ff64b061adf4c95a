//go:build !windows

package model

import "golang.org/x/sys/unix"

// checkWritable uses access(2), which honours ACLs and read-only mounts
// that a mode-bit check misses.
func checkWritable(dir string) error {
	return unix.Access(dir, unix.W_OK)
}
