//go:build !windows

package app

import (
	"fmt"
	"os"
	"syscall"
)

// Relaunch replaces the current process with a fresh copy of the installed
// binary.
func Relaunch() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	if err := syscall.Exec(exe, os.Args, os.Environ()); err != nil {
		return fmt.Errorf("relaunch %s: %w", exe, err)
	}
	return nil
}
