package player

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alsdbtjd0103/norae/internal/models"
	"github.com/alsdbtjd0103/norae/internal/shared"
	tu "github.com/alsdbtjd0103/norae/internal/testing"
)

func newTestSession(t *testing.T) (*Session, *tu.FakeTransport) {
	t.Helper()

	fake := &tu.FakeTransport{}
	session := NewSession(fake, tu.QuietLogger(), Options{
		PollInterval: 10 * time.Millisecond,
		EndTolerance: 500 * time.Millisecond,
	})
	if err := session.Initialize(); err != nil {
		t.Fatalf("failed to initialize session: %v", err)
	}
	t.Cleanup(session.Shutdown)
	return session, fake
}

func testTrack(n int) Track {
	return Track{
		Song:    models.Song{ID: fmt.Sprintf("song%d", n), Title: fmt.Sprintf("Song %d", n)},
		Version: models.Version{ID: fmt.Sprintf("v%d", n), SongID: fmt.Sprintf("song%d", n), StorageURL: fmt.Sprintf("/takes/%d.m4a", n)},
	}
}

func testQueue(n int) []Track {
	tracks := make([]Track, n)
	for i := range tracks {
		tracks[i] = testTrack(i)
	}
	return tracks
}

// haltPolling stops the sampling loop so tests can drive ticks by hand.
func haltPolling(s *Session) {
	s.mu.Lock()
	s.stopPollingLocked()
	s.mu.Unlock()
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSetCurrentTrack(t *testing.T) {
	t.Run("LoadsAndPlays", func(t *testing.T) {
		session, fake := newTestSession(t)
		track := testTrack(1)

		if err := session.SetCurrentTrack(&track); err != nil {
			t.Fatalf("failed to set track: %v", err)
		}

		state := session.Snapshot()
		if state.Track == nil || state.Track.Version.ID != "v1" {
			t.Fatalf("unexpected track: %+v", state.Track)
		}
		if !state.Playing {
			t.Error("session should be playing")
		}
		if state.Queue != nil {
			t.Error("single-track mode should have no queue")
		}
		if fake.LoadedURL != track.Version.StorageURL {
			t.Errorf("transport loaded %q", fake.LoadedURL)
		}
	})

	t.Run("NilClears", func(t *testing.T) {
		session, _ := newTestSession(t)
		track := testTrack(1)
		session.SetCurrentTrack(&track)

		if err := session.SetCurrentTrack(nil); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		state := session.Snapshot()
		if state.Track != nil || state.Playing {
			t.Errorf("session should be cleared, got %+v", state)
		}
	})

	t.Run("LoadFailure", func(t *testing.T) {
		session, fake := newTestSession(t)
		fake.LoadErr = errors.New("decode failed")
		track := testTrack(1)

		if err := session.SetCurrentTrack(&track); err == nil {
			t.Fatal("expected load error")
		}
	})
}

func TestSetPlaylist(t *testing.T) {
	t.Run("EmptyQueueRejected", func(t *testing.T) {
		session, _ := newTestSession(t)

		if err := session.SetPlaylist(nil, 0); !errors.Is(err, shared.ErrEmptyQueue) {
			t.Errorf("expected ErrEmptyQueue, got %v", err)
		}
	})

	t.Run("BadStartIndex", func(t *testing.T) {
		session, _ := newTestSession(t)

		for _, idx := range []int{-1, 3} {
			if err := session.SetPlaylist(testQueue(3), idx); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("index %d: expected ErrInvalidArgument, got %v", idx, err)
			}
		}
	})

	t.Run("StartsAtIndexWithRepeatAll", func(t *testing.T) {
		session, fake := newTestSession(t)

		if err := session.SetPlaylist(testQueue(3), 1); err != nil {
			t.Fatalf("failed to set playlist: %v", err)
		}

		state := session.Snapshot()
		if state.Queue == nil {
			t.Fatal("expected queue mode")
		}
		if state.Queue.Index != 1 || state.Queue.Repeat != RepeatAll {
			t.Errorf("unexpected queue state: %+v", state.Queue)
		}
		if fake.LoadedURL != testTrack(1).Version.StorageURL {
			t.Errorf("transport loaded %q", fake.LoadedURL)
		}
	})
}

func TestTogglePlayPause(t *testing.T) {
	t.Run("Toggles", func(t *testing.T) {
		session, fake := newTestSession(t)
		track := testTrack(1)
		session.SetCurrentTrack(&track)

		session.TogglePlayPause()
		if session.Snapshot().Playing || fake.Playing() {
			t.Error("session should be paused")
		}

		session.TogglePlayPause()
		if !session.Snapshot().Playing || !fake.Playing() {
			t.Error("session should be playing again")
		}
	})

	t.Run("NoTrackIsNoop", func(t *testing.T) {
		session, _ := newTestSession(t)

		session.TogglePlayPause()
		if session.Snapshot().Playing {
			t.Error("toggling without a track should do nothing")
		}
	})
}

func TestSeekTo(t *testing.T) {
	t.Run("Immediate", func(t *testing.T) {
		session, fake := newTestSession(t)
		track := testTrack(1)
		session.SetCurrentTrack(&track)

		session.SeekTo(10 * time.Second)
		if fake.Position() != 10*time.Second {
			t.Errorf("expected position 10s, got %v", fake.Position())
		}
	})

	t.Run("RapidSeeksCoalesce", func(t *testing.T) {
		session, fake := newTestSession(t)
		track := testTrack(1)
		session.SetCurrentTrack(&track)

		// A burst faster than the limiter window: the last position must win
		// even though intermediate ones may be dropped.
		for i := 1; i <= 20; i++ {
			session.SeekTo(time.Duration(i) * time.Second)
		}

		eventually(t, func() bool { return fake.Position() == 20*time.Second })
	})
}

func TestScrub(t *testing.T) {
	session, fake := newTestSession(t)
	track := testTrack(1)
	session.SetCurrentTrack(&track)

	session.BeginScrub()
	if session.Snapshot().Playing || fake.Playing() {
		t.Error("scrubbing should pause playback")
	}

	// Reaching the end mid-scrub must not trigger completion.
	haltPolling(session)
	fake.SetProgress(30*time.Second, 30*time.Second)
	if session.tick() {
		t.Error("completion should be suppressed while scrubbing")
	}

	session.EndScrub(5 * time.Second)
	state := session.Snapshot()
	if !state.Playing {
		t.Error("releasing the scrub should resume playback")
	}
	if fake.Position() != 5*time.Second {
		t.Errorf("expected released position 5s, got %v", fake.Position())
	}
}

func TestScrubWhilePaused(t *testing.T) {
	session, _ := newTestSession(t)
	track := testTrack(1)
	session.SetCurrentTrack(&track)
	session.TogglePlayPause()

	session.BeginScrub()
	session.EndScrub(3 * time.Second)

	if session.Snapshot().Playing {
		t.Error("scrub on a paused session should stay paused")
	}
}

func TestPlayNextPrevious(t *testing.T) {
	t.Run("Advances", func(t *testing.T) {
		session, fake := newTestSession(t)
		session.SetPlaylist(testQueue(3), 0)

		if err := session.PlayNext(); err != nil {
			t.Fatalf("failed to advance: %v", err)
		}
		state := session.Snapshot()
		if state.Queue.Index != 1 || fake.LoadedURL != testTrack(1).Version.StorageURL {
			t.Errorf("expected index 1, got %+v", state.Queue)
		}
	})

	t.Run("RepeatAllWraps", func(t *testing.T) {
		session, _ := newTestSession(t)
		session.SetPlaylist(testQueue(3), 2)

		if err := session.PlayNext(); err != nil {
			t.Fatalf("failed to wrap forward: %v", err)
		}
		if idx := session.Snapshot().Queue.Index; idx != 0 {
			t.Errorf("expected wrap to 0, got %d", idx)
		}

		if err := session.PlayPrevious(); err != nil {
			t.Fatalf("failed to wrap backward: %v", err)
		}
		if idx := session.Snapshot().Queue.Index; idx != 2 {
			t.Errorf("expected wrap to 2, got %d", idx)
		}
	})

	t.Run("BoundaryNoopWithoutRepeatAll", func(t *testing.T) {
		session, fake := newTestSession(t)
		session.SetPlaylist(testQueue(3), 2)
		session.SetRepeatMode(RepeatNone)
		loadsBefore := fake.Loads

		if err := session.PlayNext(); err != nil {
			t.Fatalf("boundary advance should not error: %v", err)
		}

		state := session.Snapshot()
		if state.Queue.Index != 2 {
			t.Errorf("index should stay at 2, got %d", state.Queue.Index)
		}
		if fake.Loads != loadsBefore {
			t.Error("boundary no-op should not reload")
		}
	})

	t.Run("NoQueueIsNoop", func(t *testing.T) {
		session, _ := newTestSession(t)
		track := testTrack(1)
		session.SetCurrentTrack(&track)

		if err := session.PlayNext(); err != nil {
			t.Errorf("next without a queue should be a no-op: %v", err)
		}
	})
}

func TestHandleTrackEnd(t *testing.T) {
	t.Run("SingleTrackStops", func(t *testing.T) {
		session, fake := newTestSession(t)
		track := testTrack(1)
		session.SetCurrentTrack(&track)

		session.HandleTrackEnd()

		state := session.Snapshot()
		if state.Playing {
			t.Error("single track should stop at the end")
		}
		if state.Track == nil {
			t.Error("track should stay loaded for replay")
		}
		if state.Position != 0 || fake.Position() != 0 {
			t.Error("position should rewind to zero")
		}
	})

	t.Run("RepeatOneRestarts", func(t *testing.T) {
		session, fake := newTestSession(t)
		session.SetPlaylist(testQueue(3), 1)
		session.SetRepeatMode(RepeatOne)
		loadsBefore := fake.Loads

		session.HandleTrackEnd()

		state := session.Snapshot()
		if state.Queue.Index != 1 {
			t.Errorf("repeat-one should keep the index, got %d", state.Queue.Index)
		}
		if !state.Playing {
			t.Error("repeat-one should keep playing")
		}
		if fake.Loads != loadsBefore {
			t.Error("repeat-one should rewind, not reload")
		}
		if fake.Position() != 0 {
			t.Errorf("expected rewind, got %v", fake.Position())
		}
	})

	t.Run("RepeatAllWrapsFromLast", func(t *testing.T) {
		session, _ := newTestSession(t)
		session.SetPlaylist(testQueue(3), 2)

		session.HandleTrackEnd()

		state := session.Snapshot()
		if state.Queue.Index != 0 {
			t.Errorf("expected wrap to 0, got %d", state.Queue.Index)
		}
		if !state.Playing {
			t.Error("repeat-all should keep playing")
		}
	})

	t.Run("RepeatNoneAdvancesMidQueue", func(t *testing.T) {
		session, _ := newTestSession(t)
		session.SetPlaylist(testQueue(3), 0)
		session.SetRepeatMode(RepeatNone)

		session.HandleTrackEnd()

		state := session.Snapshot()
		if state.Queue.Index != 1 || !state.Playing {
			t.Errorf("repeat-none should advance mid-queue, got %+v", state.Queue)
		}
	})

	t.Run("RepeatNoneStopsAtLast", func(t *testing.T) {
		session, _ := newTestSession(t)
		session.SetPlaylist(testQueue(3), 2)
		session.SetRepeatMode(RepeatNone)

		session.HandleTrackEnd()

		state := session.Snapshot()
		if state.Playing {
			t.Error("repeat-none should stop after the last track")
		}
		if state.Queue.Index != 2 || state.Track == nil {
			t.Errorf("last track should stay loaded, got %+v", state.Queue)
		}
	})
}

func TestEndDetection(t *testing.T) {
	t.Run("FiresWithinTolerance", func(t *testing.T) {
		session, fake := newTestSession(t)
		session.SetPlaylist(testQueue(3), 2)
		session.SetRepeatMode(RepeatNone)
		haltPolling(session)

		// 100 ms from the end, inside the 500 ms tolerance.
		fake.SetProgress(29900*time.Millisecond, 30*time.Second)
		if !session.tick() {
			t.Fatal("expected completion to fire inside the tolerance window")
		}
		if session.Snapshot().Playing {
			t.Error("last track under repeat-none should stop")
		}
	})

	t.Run("Debounced", func(t *testing.T) {
		session, fake := newTestSession(t)
		session.SetPlaylist(testQueue(3), 2)
		session.SetRepeatMode(RepeatNone)
		haltPolling(session)

		fake.SetProgress(29900*time.Millisecond, 30*time.Second)
		if !session.tick() {
			t.Fatal("first tick should fire completion")
		}
		if session.tick() {
			t.Error("completion should fire once per track")
		}
	})

	t.Run("NotEarly", func(t *testing.T) {
		session, fake := newTestSession(t)
		track := testTrack(1)
		session.SetCurrentTrack(&track)
		haltPolling(session)

		// One second out is beyond the tolerance.
		fake.SetProgress(29*time.Second, 30*time.Second)
		if session.tick() {
			t.Error("completion should not fire outside the tolerance window")
		}
	})

	t.Run("ReplayedTrackCompletesAgain", func(t *testing.T) {
		session, fake := newTestSession(t)
		track := testTrack(1)
		session.SetCurrentTrack(&track)
		haltPolling(session)

		fake.SetProgress(29900*time.Millisecond, 30*time.Second)
		if !session.tick() {
			t.Fatal("first pass should fire completion")
		}

		// The single-track end rewinds and pauses; resume and play the
		// same track through to the end a second time.
		session.TogglePlayPause()
		haltPolling(session)
		fake.SetProgress(29900*time.Millisecond, 30*time.Second)
		if !session.tick() {
			t.Fatal("second pass should fire completion for the replayed track")
		}
		if session.Snapshot().Playing {
			t.Error("replayed track should stop at the end again")
		}
	})

	t.Run("RearmsWhenPositionLeavesEndWindow", func(t *testing.T) {
		session, fake := newTestSession(t)
		session.SetPlaylist(testQueue(3), 2)
		session.SetRepeatMode(RepeatNone)
		haltPolling(session)

		fake.SetProgress(29900*time.Millisecond, 30*time.Second)
		session.tick()

		// Seeking back to the middle of the track must re-arm detection.
		fake.SetProgress(10*time.Second, 30*time.Second)
		session.tick()

		session.mu.Lock()
		rearmed := !session.endHandled
		session.mu.Unlock()
		if !rearmed {
			t.Error("end detection should re-arm once playback leaves the end window")
		}
	})

	t.Run("ResetsOnNewDuration", func(t *testing.T) {
		session, fake := newTestSession(t)
		session.SetPlaylist(testQueue(3), 2)
		session.SetRepeatMode(RepeatNone)
		haltPolling(session)

		fake.SetProgress(29900*time.Millisecond, 30*time.Second)
		session.tick()

		// A different reported duration means a new stream is loaded; the
		// debounce flag must re-arm.
		fake.SetProgress(0, 45*time.Second)
		session.tick()

		session.mu.Lock()
		rearmed := !session.endHandled
		session.mu.Unlock()
		if !rearmed {
			t.Error("end detection should re-arm when the duration changes")
		}
	})
}

func TestSetRepeatMode(t *testing.T) {
	session, _ := newTestSession(t)
	session.SetPlaylist(testQueue(2), 0)

	session.SetRepeatMode(RepeatOne)
	if mode := session.Snapshot().Queue.Repeat; mode != RepeatOne {
		t.Errorf("expected repeat-one, got %v", mode)
	}
}

func TestExpandMinimize(t *testing.T) {
	session, _ := newTestSession(t)
	track := testTrack(1)
	session.SetCurrentTrack(&track)

	session.ExpandPlayer()
	if !session.Snapshot().Expanded {
		t.Error("player should be expanded")
	}

	session.MinimizePlayer()
	state := session.Snapshot()
	if state.Expanded {
		t.Error("player should be minimized")
	}
	if state.Track == nil {
		t.Error("minimizing must not unload the track")
	}
}

func TestClosePlayer(t *testing.T) {
	session, _ := newTestSession(t)
	session.SetPlaylist(testQueue(2), 0)
	session.ExpandPlayer()

	session.ClosePlayer()

	state := session.Snapshot()
	if state.Track != nil || state.Queue != nil || state.Playing || state.Expanded {
		t.Errorf("close should clear everything, got %+v", state)
	}
}

func TestOnChange(t *testing.T) {
	session, _ := newTestSession(t)

	var last State
	calls := 0
	session.OnChange(func(st State) {
		last = st
		calls++
	})

	track := testTrack(1)
	session.SetCurrentTrack(&track)

	if calls == 0 {
		t.Fatal("subscriber should be notified")
	}
	if last.Track == nil || last.Track.Version.ID != "v1" {
		t.Errorf("subscriber saw stale state: %+v", last)
	}
}

func TestParseRepeatMode(t *testing.T) {
	cases := map[string]RepeatMode{"none": RepeatNone, "one": RepeatOne, "all": RepeatAll}
	for in, want := range cases {
		got, err := ParseRepeatMode(in)
		if err != nil || got != want {
			t.Errorf("ParseRepeatMode(%q) = %v, %v", in, got, err)
		}
	}

	if _, err := ParseRepeatMode("shuffle"); err == nil {
		t.Error("unknown mode should be rejected")
	}
}
