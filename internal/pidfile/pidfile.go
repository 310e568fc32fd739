// Package pidfile keeps a single weeklit server per data directory.
package pidfile

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/weeklit/internal/constants"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// ErrAlreadyRunning is returned when a live weeklit process holds the lock.
var ErrAlreadyRunning = stderrors.New("weeklit server is already running")

// Info is the content of a lock file.
type Info struct {
	PID  int
	Addr string
}

type Lock struct {
	path string
	pid  int
}

// Path returns the lock file location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, constants.PidfileName)
}

// Read parses the lock file at path.
func Read(path string) (Info, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}
	parts := strings.SplitN(strings.TrimSpace(string(content)), "|", 2)
	if len(parts) != 2 {
		return Info{}, stderrors.New("lockfile is malformed")
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return Info{}, stderrors.New("invalid process ID in lockfile")
	}
	return Info{PID: pid, Addr: parts[1]}, nil
}

// Running reports whether the lock at path belongs to a live weeklit process.
func Running(path string) (Info, bool) {
	info, err := Read(path)
	if err != nil {
		return Info{}, false
	}
	process, err := findProcessFunc(info.PID)
	if err != nil || process == nil {
		return info, false
	}
	return info, strings.HasPrefix(process.Executable(), constants.AppName)
}

// Acquire takes the lock at path, replacing a stale one left by a process
// that is gone or is not weeklit.
func Acquire(path, addr string) (*Lock, error) {
	if info, ok := Running(path); ok {
		return nil, fmt.Errorf("%w (pid %d, %s)", ErrAlreadyRunning, info.PID, info.Addr)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lockfile directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("failed to create lockfile: %w", err)
	}
	defer f.Close()

	pid := getpidFunc()
	if _, err := fmt.Fprintf(f, "%d|%s\n", pid, addr); err != nil {
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}
	return &Lock{path: path, pid: pid}, nil
}

// Release removes the lock file if it is still ours.
func (l *Lock) Release() error {
	info, err := Read(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err == nil && info.PID != l.pid {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}
