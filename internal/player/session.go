package player

import (
	"fmt"
	"sync"
	"time"

	"github.com/alsdbtjd0103/norae/internal/models"
	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// Track is the song/take pair currently loaded in the session.
type Track struct {
	Song    models.Song
	Version models.Version
}

// Queue is the playlist state, present only in queue mode.
type Queue struct {
	Items  []Track
	Index  int
	Repeat RepeatMode
}

// State is an immutable snapshot of the session, handed to subscribers and UIs.
type State struct {
	Track    *Track
	Queue    *Queue
	Playing  bool
	Expanded bool
	Position time.Duration
	Duration time.Duration
}

// Options tune the session's polling model.
type Options struct {
	// PollInterval is how often the position is sampled while playing.
	PollInterval time.Duration
	// EndTolerance is how close to the end the sampled position must get
	// before the track counts as naturally finished. The polling model makes
	// an exact-equality check unreliable.
	EndTolerance time.Duration
}

// DefaultOptions returns the session defaults: 150 ms sampling, 500 ms
// completion tolerance.
func DefaultOptions() Options {
	return Options{PollInterval: 150 * time.Millisecond, EndTolerance: 500 * time.Millisecond}
}

// Session is the global playback session. Construct one per process with
// NewSession, call Initialize before use and Shutdown on teardown.
type Session struct {
	transport Transport
	logger    *log.Logger
	opts      Options

	mu       sync.Mutex
	track    *Track
	queue    *Queue
	playing  bool
	expanded bool
	position time.Duration
	duration time.Duration

	// endHandled debounces completion detection: the polling tick can fire
	// several times inside the tolerance window. It resets whenever the
	// reported duration changes, i.e. whenever a new track loads.
	endHandled   bool
	lastDuration time.Duration

	scrubbing        bool
	resumeOnScrubEnd bool

	// Rapid seeks (a user dragging a scrub control) are coalesced: the
	// limiter admits one transport seek per window and the newest rejected
	// position is applied on the next tick. Last write wins.
	seekLimiter *rate.Limiter
	pendingSeek *time.Duration

	initialized bool
	polling     bool
	stopPoll    chan struct{}

	onChange func(State)
}

// NewSession creates a Session over the given transport.
func NewSession(transport Transport, logger *log.Logger, opts Options) *Session {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}
	if opts.EndTolerance <= 0 {
		opts.EndTolerance = DefaultOptions().EndTolerance
	}
	return &Session{
		transport:   transport,
		logger:      logger,
		opts:        opts,
		seekLimiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 1),
	}
}

// Initialize marks the session ready. Idempotent.
func (s *Session) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
	return nil
}

// Shutdown stops polling, halts the transport and clears all session state.
func (s *Session) Shutdown() {
	s.mu.Lock()
	s.stopPollingLocked()
	s.clearLocked()
	s.initialized = false
	s.mu.Unlock()

	if err := s.transport.Close(); err != nil {
		s.logger.Warn("transport close failed", "error", err)
	}
	s.notify()
}

// OnChange registers the single subscriber notified after every state change.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() State {
	st := State{
		Playing:  s.playing,
		Expanded: s.expanded,
		Position: s.position,
		Duration: s.duration,
	}
	if s.track != nil {
		track := *s.track
		st.Track = &track
	}
	if s.queue != nil {
		queue := Queue{Items: s.queue.Items, Index: s.queue.Index, Repeat: s.queue.Repeat}
		st.Queue = &queue
	}
	return st
}

func (s *Session) notify() {
	s.mu.Lock()
	fn := s.onChange
	st := s.snapshotLocked()
	s.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

// SetCurrentTrack loads a single track outside playlist mode, clearing any
// queue, and begins playback from position zero. A nil track clears the
// session instead.
func (s *Session) SetCurrentTrack(track *Track) error {
	s.mu.Lock()
	s.queue = nil
	var err error
	if track == nil {
		s.stopPollingLocked()
		s.clearLocked()
	} else {
		err = s.loadAndPlayLocked(*track)
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// SetPlaylist establishes queue mode with repeat-all, loads the track at
// startIndex and begins playback. An empty queue is rejected.
func (s *Session) SetPlaylist(items []Track, startIndex int) error {
	if len(items) == 0 {
		return shared.ErrEmptyQueue
	}
	if startIndex < 0 || startIndex >= len(items) {
		return fmt.Errorf("%w: start index %d", shared.ErrInvalidArgument, startIndex)
	}

	s.mu.Lock()
	s.queue = &Queue{Items: items, Index: startIndex, Repeat: RepeatAll}
	err := s.loadAndPlayLocked(items[startIndex])
	s.mu.Unlock()
	s.notify()
	return err
}

// TogglePlayPause flips the transport state. No-op without a loaded track.
func (s *Session) TogglePlayPause() {
	s.mu.Lock()
	if s.track == nil {
		s.mu.Unlock()
		return
	}
	if s.playing {
		s.transport.Pause()
		s.playing = false
		s.stopPollingLocked()
	} else {
		s.transport.Play()
		s.playing = true
		s.startPollingLocked()
	}
	s.mu.Unlock()
	s.notify()
}

// SeekTo moves the playback position. Values are passed through to the
// transport without clamping; callers are expected to stay within
// [0, duration]. Rapid calls are coalesced, newest position winning.
func (s *Session) SeekTo(pos time.Duration) {
	s.mu.Lock()
	if s.track == nil {
		s.mu.Unlock()
		return
	}
	if s.seekLimiter.Allow() {
		s.pendingSeek = nil
		s.applySeekLocked(pos)
	} else {
		p := pos
		s.pendingSeek = &p
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Session) applySeekLocked(pos time.Duration) {
	if err := s.transport.Seek(pos); err != nil {
		s.logger.Warn("seek failed", "pos", pos, "error", err)
		return
	}
	s.position = pos
}

// BeginScrub suspends playback and completion detection while the user drags
// a scrub control, remembering whether to resume afterwards.
func (s *Session) BeginScrub() {
	s.mu.Lock()
	if s.track == nil || s.scrubbing {
		s.mu.Unlock()
		return
	}
	s.scrubbing = true
	s.resumeOnScrubEnd = s.playing
	if s.playing {
		s.transport.Pause()
		s.playing = false
		s.stopPollingLocked()
	}
	s.mu.Unlock()
	s.notify()
}

// EndScrub applies the released position and resumes playback if the session
// was playing when the drag began.
func (s *Session) EndScrub(pos time.Duration) {
	s.mu.Lock()
	if !s.scrubbing {
		s.mu.Unlock()
		return
	}
	s.scrubbing = false
	s.pendingSeek = nil
	s.applySeekLocked(pos)
	if s.resumeOnScrubEnd {
		s.transport.Play()
		s.playing = true
		s.startPollingLocked()
	}
	s.mu.Unlock()
	s.notify()
}

// SetRepeatMode updates the queue's looping policy. The current track is left
// alone.
func (s *Session) SetRepeatMode(mode RepeatMode) {
	s.mu.Lock()
	if s.queue != nil {
		s.queue.Repeat = mode
	}
	s.mu.Unlock()
	s.notify()
}

// PlayNext advances the queue. Past the last index it wraps only under
// repeat-all; otherwise it is a no-op and the current track keeps playing.
func (s *Session) PlayNext() error {
	s.mu.Lock()
	err := s.stepLocked(1)
	s.mu.Unlock()
	s.notify()
	return err
}

// PlayPrevious retreats the queue. Before index zero it wraps only under
// repeat-all; otherwise it is a no-op.
func (s *Session) PlayPrevious() error {
	s.mu.Lock()
	err := s.stepLocked(-1)
	s.mu.Unlock()
	s.notify()
	return err
}

// stepLocked moves the queue index by delta with repeat-all wraparound.
// Hitting a boundary in any other mode is an expected no-op, not an error.
func (s *Session) stepLocked(delta int) error {
	if s.queue == nil {
		return nil
	}

	next := s.queue.Index + delta
	if next < 0 || next >= len(s.queue.Items) {
		if s.queue.Repeat != RepeatAll {
			return nil
		}
		next = (next + len(s.queue.Items)) % len(s.queue.Items)
	}

	s.queue.Index = next
	return s.loadAndPlayLocked(s.queue.Items[next])
}

// HandleTrackEnd runs the track-completion state machine. It is invoked by
// the polling loop when the sampled position reaches the end tolerance while
// playing, and may be called directly by transports that push an end event.
func (s *Session) HandleTrackEnd() {
	s.mu.Lock()
	s.handleTrackEndLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *Session) handleTrackEndLocked() {
	if s.track == nil {
		return
	}

	if s.queue == nil {
		// Single-track mode behaves like a one-item queue without repeat.
		s.transport.Pause()
		s.playing = false
		s.position = 0
		s.applySeekLocked(0)
		s.endHandled = false
		s.stopPollingLocked()
		return
	}

	switch s.queue.Repeat {
	case RepeatOne:
		s.applySeekLocked(0)
		s.endHandled = false
		s.transport.Play()
		s.playing = true
		s.startPollingLocked()

	case RepeatAll:
		if err := s.stepLocked(1); err != nil {
			s.logger.Warn("failed to advance after track end", "error", err)
		}

	case RepeatNone:
		if s.queue.Index < len(s.queue.Items)-1 {
			if err := s.stepLocked(1); err != nil {
				s.logger.Warn("failed to advance after track end", "error", err)
			}
			return
		}
		// Last track: stop here, keep the track loaded.
		s.transport.Pause()
		s.playing = false
		s.stopPollingLocked()
	}
}

// ClosePlayer stops playback and clears the loaded track, the queue and the
// expanded presentation flag.
func (s *Session) ClosePlayer() {
	s.mu.Lock()
	s.stopPollingLocked()
	s.clearLocked()
	s.mu.Unlock()
	s.notify()
}

// ExpandPlayer raises the full-screen presentation flag.
func (s *Session) ExpandPlayer() {
	s.mu.Lock()
	s.expanded = true
	s.mu.Unlock()
	s.notify()
}

// MinimizePlayer lowers the full-screen presentation flag. Back navigation
// while expanded minimizes instead of leaving the screen.
func (s *Session) MinimizePlayer() {
	s.mu.Lock()
	s.expanded = false
	s.mu.Unlock()
	s.notify()
}

// loadAndPlayLocked loads a track into the transport, resets position state
// and begins playback.
func (s *Session) loadAndPlayLocked(track Track) error {
	s.transport.Pause()
	if err := s.transport.Load(track.Version.StorageURL); err != nil {
		return fmt.Errorf("failed to load track: %w", err)
	}

	s.track = &track
	s.position = 0
	s.duration = s.transport.Duration()
	s.lastDuration = s.duration
	s.endHandled = false
	s.pendingSeek = nil

	s.transport.Play()
	s.playing = true
	s.startPollingLocked()

	s.logger.Debug("track loaded", "title", track.Song.Title, "version", track.Version.ID)
	return nil
}

func (s *Session) clearLocked() {
	s.transport.Pause()
	s.track = nil
	s.queue = nil
	s.playing = false
	s.expanded = false
	s.position = 0
	s.duration = 0
	s.endHandled = false
	s.pendingSeek = nil
	s.scrubbing = false
}

// startPollingLocked ensures exactly one position sampling loop is running.
func (s *Session) startPollingLocked() {
	if s.polling {
		return
	}
	s.polling = true
	s.stopPoll = make(chan struct{})
	go s.pollLoop(s.stopPoll)
}

// stopPollingLocked cancels the sampling loop. An orphaned ticker would keep
// firing completion detection against a stale duration.
func (s *Session) stopPollingLocked() {
	if !s.polling {
		return
	}
	close(s.stopPoll)
	s.polling = false
}

func (s *Session) pollLoop(stop chan struct{}) {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if ended := s.tick(); ended {
				s.notify()
			}
		}
	}
}

// tick samples the transport once, applies any coalesced seek and runs
// completion detection. It reports whether the end-of-track machine ran.
func (s *Session) tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.track == nil || s.scrubbing {
		return false
	}

	if s.pendingSeek != nil && s.seekLimiter.Allow() {
		pos := *s.pendingSeek
		s.pendingSeek = nil
		s.applySeekLocked(pos)
	}

	s.position = s.transport.Position()
	if d := s.transport.Duration(); d != s.lastDuration {
		s.lastDuration = d
		s.duration = d
		s.endHandled = false
	}
	// Re-arm completion detection once playback leaves the end window, so a
	// replayed or rewound track can complete again.
	if s.duration > 0 && s.position < s.duration-s.opts.EndTolerance {
		s.endHandled = false
	}

	if !s.playing || s.endHandled || s.duration <= 0 {
		return false
	}
	if s.position >= s.duration-s.opts.EndTolerance {
		s.endHandled = true
		s.handleTrackEndLocked()
		return true
	}
	return false
}
