package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"voicescribe/internal/config"
	"voicescribe/internal/deps"
	"voicescribe/internal/enginelock"
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

// CheckCreatableDirectory passes when path is an accessible directory or can
// be created under its nearest existing ancestor.
func CheckCreatableDirectory(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}
	check := CheckDirectoryAccess(name, ancestor)
	if !check.Passed {
		return Result{Name: name, Detail: fmt.Sprintf("%s (cannot be created: %s)", path, check.Detail)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckEngineLock reports whether another process currently holds the
// engine lock. A held lock is not a failure; runs will queue behind it.
func CheckEngineLock(path string) Result {
	const name = "Engine lock"
	if dir := CheckCreatableDirectory(name, filepath.Dir(path)); !dir.Passed {
		return dir
	}
	held, err := enginelock.Held(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if held {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (held by another run)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (free)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config. The
// engine is required; ffprobe only enriches results with a duration.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "whisper",
			Command:     cfg.Engine.Binary,
			Description: "Required for transcription",
		},
		{
			Name:        "ffprobe",
			Command:     cfg.Probe.Binary,
			Description: "Reports audio duration; segment timing is used when absent",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}
