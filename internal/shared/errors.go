package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Storage errors
	ErrStorageUnavailable = fmt.Errorf("storage unavailable")
	ErrCorruptedRecord    = fmt.Errorf("corrupted record")

	// Library errors
	ErrSongNotFound             = fmt.Errorf("song not found")
	ErrVersionNotFound          = fmt.Errorf("version not found")
	ErrPlaylistNotFound         = fmt.Errorf("playlist not found")
	ErrDefaultPlaylistProtected = fmt.Errorf("default playlist cannot be deleted")

	// Player errors
	ErrEmptyQueue    = fmt.Errorf("playlist queue is empty")
	ErrNoTrackLoaded = fmt.Errorf("no track loaded")
	ErrUnsupported   = fmt.Errorf("unsupported audio format")

	// Recorder errors
	ErrPermissionDenied    = fmt.Errorf("microphone permission denied")
	ErrRecorderUnavailable = fmt.Errorf("recorder unavailable")
	ErrNotRecording        = fmt.Errorf("no recording in progress")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
