package carillon

import "errors"

// Sentinel errors for the control surface. Parameter values outside their
// documented ranges are never errors; they are clamped silently so that a
// malformed file or override cannot take down real-time audio.
var (
	// ErrResourceNotFound is returned when a control call names a melody,
	// sample or track that does not exist. Ongoing playback is unaffected.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrUnsupportedFormat is returned by the file loaders for structurally
	// invalid input. It never reaches the render path.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDeviceUnavailable is returned when the audio output device cannot be
	// opened. Fatal at engine construction, before any render begins.
	ErrDeviceUnavailable = errors.New("audio device unavailable")
)

// PlaybackState is the state of the playback controller.
type PlaybackState int32

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}
