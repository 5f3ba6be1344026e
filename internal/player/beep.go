package player

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alsdbtjd0103/norae/internal/shared"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// BeepTransport plays local audio files through the gopxl/beep speaker.
type BeepTransport struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
}

// NewBeepTransport creates a transport at the standard 44.1 kHz output rate.
// The speaker device is initialized lazily on the first Load.
func NewBeepTransport() *BeepTransport {
	return &BeepTransport{sampleRate: beep.SampleRate(44100)}
}

// Load decodes the file at url (mp3 or wav, by extension) and queues it on
// the speaker, paused.
func (t *BeepTransport) Load(url string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.unloadLocked()

	f, err := os.Open(url)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(url)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return fmt.Errorf("%w: %s", shared.ErrUnsupported, filepath.Ext(url))
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to decode audio: %w", err)
	}

	if !t.initialized {
		if err := speaker.Init(t.sampleRate, t.sampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return fmt.Errorf("failed to init speaker: %w", err)
		}
		t.initialized = true
	}

	t.streamer = streamer
	t.format = format

	resampled := beep.Resample(4, format.SampleRate, t.sampleRate, streamer)
	t.ctrl = &beep.Ctrl{Streamer: resampled, Paused: true}
	speaker.Play(t.ctrl)
	return nil
}

// Play resumes the loaded stream.
func (t *BeepTransport) Play() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ctrl == nil {
		return
	}
	speaker.Lock()
	t.ctrl.Paused = false
	speaker.Unlock()
}

// Pause halts the loaded stream.
func (t *BeepTransport) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ctrl == nil {
		return
	}
	speaker.Lock()
	t.ctrl.Paused = true
	speaker.Unlock()
}

// Seek moves the stream to pos, sample-accurately.
func (t *BeepTransport) Seek(pos time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.streamer == nil {
		return shared.ErrNoTrackLoaded
	}

	speaker.Lock()
	defer speaker.Unlock()
	return t.streamer.Seek(t.format.SampleRate.N(pos))
}

// Position returns the current playback position.
func (t *BeepTransport) Position() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.streamer == nil {
		return 0
	}

	speaker.Lock()
	pos := t.streamer.Position()
	speaker.Unlock()
	return t.format.SampleRate.D(pos)
}

// Duration returns the total length of the loaded stream.
func (t *BeepTransport) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.streamer == nil {
		return 0
	}
	return t.format.SampleRate.D(t.streamer.Len())
}

// Playing reports whether the stream is loaded and not paused.
func (t *BeepTransport) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ctrl == nil {
		return false
	}

	speaker.Lock()
	paused := t.ctrl.Paused
	speaker.Unlock()
	return !paused
}

// Close unloads the current stream.
func (t *BeepTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.unloadLocked()
	return nil
}

func (t *BeepTransport) unloadLocked() {
	if t.initialized {
		// Drop any previously queued ctrl from the speaker mixer; the
		// transport plays one stream at a time.
		speaker.Clear()
	}
	if t.streamer != nil {
		t.streamer.Close()
		t.streamer = nil
	}
	t.ctrl = nil
}
