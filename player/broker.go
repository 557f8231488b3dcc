// Package player runs playback: a Broker carries messages between the
// control-side Engine and the render-side Player, the Player renders sessions
// into the audio stream, and the Engine owns the resource caches and the
// public control API.
package player

import "github.com/carillon-audio/carillon"

// MsgToEngine is the status feedback the Player sends back to the Engine:
// position and state after every processed block, plus alerts for conditions
// the control side should surface.
type MsgToEngine struct {
	Position float64
	State    carillon.PlaybackState
	Peak     float32
	Alert    string
}

// Broker connects the Engine and the Player. Both channels are buffered and
// only ever written with TrySend, so neither side can block the other; a full
// channel drops the message instead of stalling the render goroutine.
type Broker struct {
	ToPlayer chan any
	ToEngine chan MsgToEngine
}

func NewBroker() *Broker {
	return &Broker{
		ToPlayer: make(chan any, 1024),
		ToEngine: make(chan MsgToEngine, 1024),
	}
}

// TrySend tries to send a value to a channel and returns false if the channel
// is full.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
		return true
	default:
		return false
	}
}
