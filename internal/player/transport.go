package player

import "time"

// Transport is the audio backend boundary. The session stores opaque locators
// and hands them to Load; everything else is transport state it samples.
type Transport interface {
	// Load prepares the audio at url for playback, replacing any current stream.
	Load(url string) error
	// Play starts or resumes playback of the loaded stream.
	Play()
	// Pause halts playback without unloading the stream.
	Pause()
	// Seek moves the playback position. Out-of-range values pass through;
	// callers are expected to clamp.
	Seek(pos time.Duration) error
	// Position returns the current playback position.
	Position() time.Duration
	// Duration returns the total length of the loaded stream, 0 if unknown.
	Duration() time.Duration
	// Playing reports whether the transport is currently producing audio.
	Playing() bool
	// Close releases the loaded stream and any device handles.
	Close() error
}
