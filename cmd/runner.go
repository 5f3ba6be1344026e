package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/alsdbtjd0103/norae/internal/library"
	"github.com/alsdbtjd0103/norae/internal/player"
	"github.com/alsdbtjd0103/norae/internal/recorder"
	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/alsdbtjd0103/norae/internal/storage"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	logger       *log.Logger
	output       io.Writer
	input        io.Reader
	rec          recorder.Recorder
	newTransport func() player.Transport

	db      *sql.DB
	lib     *library.Library
	session *player.Session
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config       *shared.Config
	Logger       *log.Logger
	Output       io.Writer
	Input        io.Reader
	Recorder     recorder.Recorder
	NewTransport func() player.Transport
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewCommandRecorder(opts.Config.Recorder.Command, opts.Logger)
	}
	if opts.NewTransport == nil {
		opts.NewTransport = func() player.Transport { return player.NewBeepTransport() }
	}

	return &Runner{
		config:       opts.Config,
		logger:       opts.Logger,
		output:       opts.Output,
		input:        opts.Input,
		rec:          opts.Recorder,
		newTransport: opts.NewTransport,
	}
}

// SetLogger replaces the runner's logger (the TUI swaps in a file logger).
func (r *Runner) SetLogger(l *log.Logger) { r.logger = l }

// openLibrary opens the database, runs migrations and builds the library
// engine. Idempotent per process.
func (r *Runner) openLibrary() (*library.Library, error) {
	if r.lib != nil {
		return r.lib, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStorageUnavailable, err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := storage.NewStore(db, r.logger)
	assets := storage.NewAssetStore(r.config.Storage.RecordingsDir, r.logger)

	r.db = db
	r.lib = library.New(store, assets, r.logger)
	return r.lib, nil
}

// openSession builds the playback session lazily, on first transport use.
func (r *Runner) openSession() (*player.Session, error) {
	if r.session != nil {
		return r.session, nil
	}

	opts := player.DefaultOptions()
	if r.config.Player.PollIntervalMS > 0 {
		opts.PollInterval = millis(r.config.Player.PollIntervalMS)
	}
	if r.config.Player.EndToleranceSec > 0 {
		opts.EndTolerance = seconds(r.config.Player.EndToleranceSec)
	}

	session := player.NewSession(r.newTransport(), r.logger, opts)
	if err := session.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize playback session: %w", err)
	}
	r.session = session
	return session, nil
}

// Close tears down the session and database.
func (r *Runner) Close() {
	if r.session != nil {
		r.session.Shutdown()
		r.session = nil
	}
	if r.db != nil {
		r.db.Close()
		r.db = nil
		r.lib = nil
	}
}

// writeJSON marshals data to the runner's output stream.
func (r *Runner) writeJSON(data any, pretty bool) error {
	enc := json.NewEncoder(r.output)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.output, format, args...)
}

func millis(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func seconds(f float64) time.Duration { return time.Duration(f * float64(time.Second)) }
