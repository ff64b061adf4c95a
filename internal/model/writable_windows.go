//go:build windows

package model

import "os"

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".opencv-build-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
