package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStoreLock probes the store lock file. It passes when no other process
// holds the lock; the probe releases the lock immediately.
func CheckStoreLock(path string) Result {
	const name = "Store lock"

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (skipped: data directory unavailable)", path)}
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !locked {
		return Result{Name: name, Detail: fmt.Sprintf("%s (held by another runnerdb process)", path)}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (available)", path)}
}
