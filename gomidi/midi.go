// Package gomidi maps incoming MIDI control changes onto playback controls:
// CC 7 on channel 1 drives the master volume, CC 7 on higher channels drives
// the matching track, CC 118 toggles pause and pitch bend scales the master
// pitch.
package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Controls is the slice of the playback engine a MIDI surface needs.
type Controls interface {
	SetMasterVolume(volume float32) error
	SetMasterPitch(pitch float32) error
	SetTrackVolume(name string, volume float32) error
	Pause() error
	Resume() error
	Tracks() []string
}

type Context struct {
	driver    *rtmididrv.Driver
	currentIn drivers.In
	controls  Controls
	paused    bool
}

// NewContext opens the MIDI driver. A nil driver just means no MIDI support;
// every method degrades to a no-op so the caller does not have to care.
func NewContext(controls Controls) *Context {
	c := &Context{controls: controls}
	c.driver, _ = rtmididrv.New()
	return c
}

// InputDevices returns the names of the available MIDI inputs.
func (c *Context) InputDevices() []string {
	if c.driver == nil {
		return nil
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return nil
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names
}

// TryToOpenBy opens the first input whose name starts with namePrefix, or
// just the first input when takeFirst is set.
func (c *Context) TryToOpenBy(namePrefix string, takeFirst bool) error {
	if c.driver == nil {
		return errors.New("no MIDI driver available")
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return fmt.Errorf("listing MIDI inputs failed: %w", err)
	}
	for _, in := range ins {
		if takeFirst || strings.HasPrefix(in.String(), namePrefix) {
			return c.open(in)
		}
	}
	return fmt.Errorf("no MIDI input matching %q", namePrefix)
}

func (c *Context) open(in drivers.In) error {
	if c.currentIn == in {
		return nil
	}
	if c.HasDeviceOpen() {
		c.currentIn.Close()
	}
	c.currentIn = in
	if err := in.Open(); err != nil {
		c.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	if _, err := midi.ListenTo(in, c.handleMessage); err != nil {
		in.Close()
		c.currentIn = nil
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	return nil
}

func (c *Context) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

func (c *Context) Close() {
	if c.driver == nil {
		return
	}
	if c.HasDeviceOpen() {
		c.currentIn.Close()
	}
	c.driver.Close()
}

const (
	ccVolume    = 7
	ccPauseGate = 118
)

// handleMessage runs on the driver's listener goroutine; the engine's control
// methods are safe to call from here.
func (c *Context) handleMessage(msg midi.Message, timestampms int32) {
	var channel, cc, val uint8
	if msg.GetControlChange(&channel, &cc, &val) {
		c.handleControlChange(channel, cc, val)
		return
	}
	var rel int16
	var abs uint16
	if msg.GetPitchBend(&channel, &rel, &abs) {
		// full bend range maps to half..double pitch
		c.controls.SetMasterPitch(math32.Exp2(float32(rel) / 8192))
	}
}

func (c *Context) handleControlChange(channel, cc, val uint8) {
	switch cc {
	case ccVolume:
		level := float32(val) / 127
		if channel == 0 {
			c.controls.SetMasterVolume(level * 2)
			return
		}
		tracks := c.controls.Tracks()
		if idx := int(channel) - 1; idx < len(tracks) {
			c.controls.SetTrackVolume(tracks[idx], level)
		}
	case ccPauseGate:
		if val >= 64 && !c.paused {
			c.paused = true
			c.controls.Pause()
		} else if val < 64 && c.paused {
			c.paused = false
			c.controls.Resume()
		}
	}
}
