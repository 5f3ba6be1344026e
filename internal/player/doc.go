// Package player implements the global playback session.
//
// [Session] is a single mutable service describing what is loaded, whether it
// is playing, where in time, and what queue/repeat mode is active. It drives
// an audio [Transport] and samples the transport's position on a fixed short
// interval; the underlying audio primitive does not push continuous position
// events, so polling is the deliberate model and natural track completion is
// detected near the end of the stream with a small tolerance.
//
// [BeepTransport] is the real backend over gopxl/beep; tests substitute a
// scriptable fake. Both bare single-track playback and playlist-queue playback
// flow through the same session interface.
package player
