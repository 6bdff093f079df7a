//go:build !unix

package local

import "os"

// Only the in-process lock table applies on platforms without flock.
func lockFD(*os.File) error {
	return nil
}

func unlockFD(*os.File) error {
	return nil
}
