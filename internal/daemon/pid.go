// Package daemon runs the long-lived alert process: it keeps the alert
// schedule in step with the store, delivers alerts when they fire, and
// serves health, metrics and schedule endpoints over HTTP.
package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/adrg/xdg"
)

// AppName is the application name used for state directories.
const AppName = "birthdays"

// Errors
var (
	ErrNotRunning     = errors.New("daemon is not running")
	ErrAlreadyRunning = errors.New("daemon is already running")
)

// DefaultStateDir returns $XDG_STATE_HOME/birthdays.
func DefaultStateDir() string {
	return filepath.Join(xdg.StateHome, AppName)
}

// PIDFile manages the daemon PID file and the state file next to it.
type PIDFile struct {
	dir string
}

// NewPIDFile creates a PID file manager rooted at dir. An empty dir means
// DefaultStateDir.
func NewPIDFile(dir string) *PIDFile {
	if dir == "" {
		dir = DefaultStateDir()
	}
	return &PIDFile{dir: dir}
}

// Path returns the PID file path.
func (p *PIDFile) Path() string {
	return filepath.Join(p.dir, AppName+".pid")
}

// StatePath returns the state file path.
func (p *PIDFile) StatePath() string {
	return filepath.Join(p.dir, "daemon.json")
}

// Acquire writes the current PID and state. It fails with
// ErrAlreadyRunning while another live process holds the file; a stale
// file left by a crashed daemon is replaced.
func (p *PIDFile) Acquire(state State) error {
	if pid := p.RunningPID(); pid > 0 && pid != os.Getpid() {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(p.Path(), []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	state.PID = os.Getpid()
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.StatePath(), data, 0o644); err != nil {
		p.Release()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Release removes the PID and state files.
func (p *PIDFile) Release() error {
	var errs []error
	for _, path := range []string{p.Path(), p.StatePath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Read reads the PID from the file.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotRunning
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}

// RunningPID returns the PID if the daemon is running, or 0 if not.
func (p *PIDFile) RunningPID() int {
	pid, err := p.Read()
	if err != nil || !IsProcessRunning(pid) {
		return 0
	}
	return pid
}

// ReadState reads the state written by Acquire.
func (p *PIDFile) ReadState() (State, error) {
	var state State
	data, err := os.ReadFile(p.StatePath())
	if err != nil {
		if os.IsNotExist(err) {
			return state, ErrNotRunning
		}
		return state, err
	}
	err = json.Unmarshal(data, &state)
	return state, err
}

// State is what a running daemon records about itself.
type State struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Version   string    `json:"version,omitempty"`
}

// IsProcessRunning checks if a process with the given PID is running.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix FindProcess always succeeds; signal 0 probes for existence.
	return process.Signal(syscall.Signal(0)) == nil
}
