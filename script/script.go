// Package script runs Lua control scripts against the playback engine. A
// script gets a global function per engine operation plus sleep and position
// helpers, so a piece of interactive music logic can be kept next to the
// melody files it drives.
package script

import (
	"fmt"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/carillon-audio/carillon"
)

// Controller is the engine surface exposed to scripts.
type Controller interface {
	LoadSample(name, path string) error
	LoadMelody(path string) (*carillon.Melody, error)
	LoadArrangement(path string) (*carillon.Arrangement, error)
	Play(name string) error
	CrossfadeTo(name string, seconds float32) error
	Pause() error
	Resume() error
	Stop() error
	SetMasterVolume(volume float32) error
	SetMasterPitch(pitch float32) error
	SetTrackEnabled(name string, enabled bool) error
	SetTrackVolume(name string, volume float32) error
	InterpolateTrackVolume(name string, target, seconds float32) error
	SetLoopEnabled(enabled bool) error
	Position() float64
	State() carillon.PlaybackState
}

// Run executes the Lua script at path against the controller.
func Run(c Controller, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return RunSource(c, path, string(src))
}

// RunSource executes Lua source; name is only used in error messages.
func RunSource(c Controller, name, source string) error {
	L := lua.NewState()
	defer L.Close()
	register(L, c)
	if err := L.DoString(source); err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}
	return nil
}

// register installs the control API as globals. Controller errors are raised
// as Lua errors so a script failure stops the script instead of playing on
// with missing resources.
func register(L *lua.LState, c Controller) {
	check := func(L *lua.LState, err error) {
		if err != nil {
			L.RaiseError("%s", err.Error())
		}
	}
	funcs := map[string]lua.LGFunction{
		"load_sample": func(L *lua.LState) int {
			check(L, c.LoadSample(L.CheckString(1), L.CheckString(2)))
			return 0
		},
		"load_melody": func(L *lua.LState) int {
			m, err := c.LoadMelody(L.CheckString(1))
			check(L, err)
			L.Push(lua.LString(m.Name))
			return 1
		},
		"load_arrangement": func(L *lua.LState) int {
			a, err := c.LoadArrangement(L.CheckString(1))
			check(L, err)
			L.Push(lua.LString(a.Name))
			return 1
		},
		"play": func(L *lua.LState) int {
			check(L, c.Play(L.CheckString(1)))
			return 0
		},
		"crossfade_to": func(L *lua.LState) int {
			check(L, c.CrossfadeTo(L.CheckString(1), float32(L.CheckNumber(2))))
			return 0
		},
		"pause": func(L *lua.LState) int {
			check(L, c.Pause())
			return 0
		},
		"resume": func(L *lua.LState) int {
			check(L, c.Resume())
			return 0
		},
		"stop": func(L *lua.LState) int {
			check(L, c.Stop())
			return 0
		},
		"set_master_volume": func(L *lua.LState) int {
			check(L, c.SetMasterVolume(float32(L.CheckNumber(1))))
			return 0
		},
		"set_master_pitch": func(L *lua.LState) int {
			check(L, c.SetMasterPitch(float32(L.CheckNumber(1))))
			return 0
		},
		"set_track_enabled": func(L *lua.LState) int {
			check(L, c.SetTrackEnabled(L.CheckString(1), L.CheckBool(2)))
			return 0
		},
		"set_track_volume": func(L *lua.LState) int {
			check(L, c.SetTrackVolume(L.CheckString(1), float32(L.CheckNumber(2))))
			return 0
		},
		"interpolate_track_volume": func(L *lua.LState) int {
			check(L, c.InterpolateTrackVolume(L.CheckString(1), float32(L.CheckNumber(2)), float32(L.CheckNumber(3))))
			return 0
		},
		"set_loop": func(L *lua.LState) int {
			check(L, c.SetLoopEnabled(L.CheckBool(1)))
			return 0
		},
		"position": func(L *lua.LState) int {
			L.Push(lua.LNumber(c.Position()))
			return 1
		},
		"state": func(L *lua.LState) int {
			L.Push(lua.LString(c.State().String()))
			return 1
		},
		"sleep": func(L *lua.LState) int {
			time.Sleep(time.Duration(float64(L.CheckNumber(1)) * float64(time.Second)))
			return 0
		},
	}
	for name, fn := range funcs {
		L.SetGlobal(name, L.NewFunction(fn))
	}
}
