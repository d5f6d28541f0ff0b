package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/libsync/internal/logger"
)

// MarkerFilename marks that a run is in progress in the destination to avoid parallel execution.
const MarkerFilename = "libsync-run-marker.bin"

// errAlreadyRunning is returned when another run holds the marker.
var errAlreadyRunning = errors.New("another libsync run is in progress")

// acquireMarker creates the run marker in dir and returns a function removing it.
// A marker left by a process that no longer exists is replaced.
func acquireMarker(ctx context.Context, dir string) (func(), error) {
	path := filepath.Join(dir, MarkerFilename)

	if IsRunningNow(ctx, path) {
		return nil, fmt.Errorf("%s: %w", path, errAlreadyRunning)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	if err := createMarker(path); err != nil {
		return nil, err
	}

	release := func() {
		if _, err := os.Stat(path); err == nil {
			_ = os.Remove(path)
		}
	}

	return release, nil
}

// createMarker writes the current PID to a marker that must not exist yet,
// so only one of several concurrent runs succeeds.
func createMarker(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s: %w", path, errAlreadyRunning)
	}

	if err != nil {
		return fmt.Errorf("create run marker: %w", err)
	}

	_, err = file.WriteString(strconv.Itoa(os.Getpid()))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)

		return fmt.Errorf("write run marker: %w", err)
	}

	return nil
}

// IsRunningNow checks the marker at path and reports whether its owner is alive.
// Stale markers are removed.
func IsRunningNow(ctx context.Context, path string) bool {
	logger.Debug(ctx, "Checking for the presence of a run marker")

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug(ctx, "Run marker not found, continuing")
		return false
	}

	if err != nil {
		logger.Infof(ctx, "Unable to read run marker: %v", err)
		return false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err == nil && isOwnerAlive(pid) {
		return true
	}

	logger.InfoKV(ctx, "The run marker is stale, removing it", "path", path)

	if err = os.Remove(path); err != nil {
		return true
	}

	return false
}

// isOwnerAlive reports whether pid is this process or another libsync process.
func isOwnerAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	if pid == os.Getpid() {
		return true
	}

	process, err := ps.FindProcess(pid)
	if err != nil || process == nil {
		return false
	}

	return process.Executable() == executableName()
}

// executableName returns the process name of the running binary.
func executableName() string {
	path, err := os.Executable()
	if err != nil {
		path = os.Args[0]
	}

	return filepath.Base(path)
}
