package player

import "github.com/carillon-audio/carillon/synth"

// Messages the Engine sends to the Player through Broker.ToPlayer. Sessions
// are fully bound on the control side before they are handed over, so the
// Player never touches the caches.
type (
	msgPlay struct {
		session *synth.Session
	}
	msgCrossfade struct {
		session *synth.Session
		seconds float32
	}
	msgPause  struct{}
	msgResume struct{}
	msgStop   struct{}

	msgMasterVolume struct{ volume float32 }
	msgMasterPitch  struct{ pitch float32 }

	msgTrackEnabled struct {
		track   string
		enabled bool
	}
	msgTrackVolume struct {
		track  string
		volume float32
	}
	msgTrackRamp struct {
		track   string
		target  float32
		seconds float32
	}
	msgLoopEnabled struct{ enabled bool }
)
