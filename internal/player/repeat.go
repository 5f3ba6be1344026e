package player

import (
	"fmt"

	"github.com/alsdbtjd0103/norae/internal/shared"
)

// RepeatMode is the queue looping policy.
type RepeatMode int

const (
	// RepeatNone stops playback after the last track.
	RepeatNone RepeatMode = iota
	// RepeatOne loops the current track.
	RepeatOne
	// RepeatAll wraps from the last track back to the first.
	RepeatAll
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatOne:
		return "one"
	case RepeatAll:
		return "all"
	default:
		return "none"
	}
}

// ParseRepeatMode converts a flag value into a RepeatMode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch s {
	case "none":
		return RepeatNone, nil
	case "one":
		return RepeatOne, nil
	case "all":
		return RepeatAll, nil
	default:
		return RepeatNone, fmt.Errorf("%w: repeat mode %q", shared.ErrInvalidFlag, s)
	}
}
