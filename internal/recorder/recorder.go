// Package recorder defines the audio capture boundary.
//
// The core only consumes the result of a finished take: a local file path and
// a duration, which the library persists via AddRecordedVersion. Microphone
// permission problems surface as a status value, not an error, so callers can
// guide the user to system settings instead of failing.
package recorder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/charmbracelet/log"
)

// PermissionStatus describes microphone access.
type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// Take is the product of a finished recording.
type Take struct {
	Path     string
	Duration time.Duration
}

// Recorder captures audio takes.
type Recorder interface {
	// RequestPermission reports whether recording is possible.
	RequestPermission() PermissionStatus
	// Start begins capturing. Only one capture runs at a time.
	Start(ctx context.Context) error
	// Stop ends the capture and returns the finished take.
	Stop() (*Take, error)
}

// CommandRecorder shells out to a configured capture command (arecord, sox,
// ffmpeg, ...) writing into a temp file. The command template receives the
// output path via %s.
type CommandRecorder struct {
	template string
	logger   *log.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	outPath string
	started time.Time
}

// NewCommandRecorder creates a recorder around the given command template.
func NewCommandRecorder(template string, logger *log.Logger) *CommandRecorder {
	return &CommandRecorder{template: template, logger: logger}
}

// RequestPermission checks that a capture command is configured and resolvable.
func (r *CommandRecorder) RequestPermission() PermissionStatus {
	if strings.TrimSpace(r.template) == "" {
		return PermissionUndetermined
	}
	name := strings.Fields(r.template)[0]
	if _, err := exec.LookPath(name); err != nil {
		return PermissionDenied
	}
	return PermissionGranted
}

// Start launches the capture command.
func (r *CommandRecorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		return fmt.Errorf("%w: capture already running", shared.ErrInvalidArgument)
	}
	if status := r.RequestPermission(); status != PermissionGranted {
		return fmt.Errorf("%w: capture command unavailable (%s)", shared.ErrRecorderUnavailable, status)
	}

	out, err := os.CreateTemp("", "norae-take-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create capture file: %w", err)
	}
	out.Close()

	line := fmt.Sprintf(r.template, out.Name())
	fields := strings.Fields(line)
	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	if err := cmd.Start(); err != nil {
		os.Remove(out.Name())
		return fmt.Errorf("failed to start capture: %w", err)
	}

	r.cmd = cmd
	r.outPath = out.Name()
	r.started = time.Now()
	r.logger.Debug("capture started", "path", r.outPath)
	return nil
}

// Stop interrupts the capture command and returns the finished take.
func (r *CommandRecorder) Stop() (*Take, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd == nil {
		return nil, shared.ErrNotRecording
	}

	// Capture tools finalize their output on SIGINT, not SIGKILL.
	if err := r.cmd.Process.Signal(os.Interrupt); err != nil {
		r.cmd.Process.Kill()
	}
	r.cmd.Wait()

	take := &Take{Path: r.outPath, Duration: time.Since(r.started)}
	r.cmd = nil
	r.outPath = ""

	if info, err := os.Stat(take.Path); err != nil || info.Size() == 0 {
		os.Remove(take.Path)
		return nil, fmt.Errorf("%w: capture produced no audio", shared.ErrRecorderUnavailable)
	}

	r.logger.Debug("capture finished", "path", take.Path, "duration", take.Duration)
	return take, nil
}

// ImportTake wraps an existing audio file as a finished take, for users who
// record with another tool and add the file afterwards.
func ImportTake(path string, duration time.Duration) (*Take, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrInvalidArgument, path)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("audio file not found: %w", err)
	}
	return &Take{Path: abs, Duration: duration}, nil
}
