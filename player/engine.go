package player

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/carillon-audio/carillon"
	"github.com/carillon-audio/carillon/melfile"
	"github.com/carillon-audio/carillon/synth"
)

// Engine is the public control surface. It owns the sample, melody and
// arrangement caches, binds arrangements into sessions and sends them to the
// Player through the broker. Every method is safe to call from any goroutine;
// none of them ever blocks on the render side.
type Engine struct {
	broker     *Broker
	player     *Player
	sampleRate float32

	mu            sync.Mutex
	samples       map[string]*carillon.SampleData
	melodies      map[string]*carillon.Melody
	arrangements  map[string]*carillon.Arrangement
	currentTracks []string

	position atomic.Uint64 // float64 bits
	state    atomic.Int32
	peak     atomic.Uint32 // float32 bits
	done     chan struct{}
}

func NewEngine(sampleRate float32) *Engine {
	broker := NewBroker()
	e := &Engine{
		broker:       broker,
		player:       NewPlayer(broker, sampleRate),
		sampleRate:   sampleRate,
		samples:      map[string]*carillon.SampleData{},
		melodies:     map[string]*carillon.Melody{},
		arrangements: map[string]*carillon.Arrangement{},
		done:         make(chan struct{}),
	}
	go e.run()
	return e
}

// run mirrors the player's status feed into atomics so Position and State are
// lock-free reads, and surfaces alerts on stderr.
func (e *Engine) run() {
	for {
		select {
		case msg := <-e.broker.ToEngine:
			e.position.Store(math.Float64bits(msg.Position))
			e.state.Store(int32(msg.State))
			e.peak.Store(math.Float32bits(msg.Peak))
			if msg.Alert != "" {
				log.Printf("carillon: %s", msg.Alert)
			}
		case <-e.done:
			return
		}
	}
}

// Player returns the render-side audio source to hand to an audio backend.
func (e *Engine) Player() *Player { return e.player }

func (e *Engine) Close() error {
	close(e.done)
	return e.player.Close()
}

// LoadSample decodes a .wav file and registers it under name. Melodies whose
// instrument names the same sample resolve to it when they are bound.
func (e *Engine) LoadSample(name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("LoadSample: %w", err)
	}
	defer f.Close()
	data, err := carillon.ReadWav(f)
	if err != nil {
		return fmt.Errorf("LoadSample %q: %w", path, err)
	}
	e.mu.Lock()
	e.samples[name] = data
	e.mu.Unlock()
	return nil
}

// LoadMelody parses a melody file (.mel line format or .yml/.yaml) and
// registers it under its own name.
func (e *Engine) LoadMelody(path string) (*carillon.Melody, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadMelody: %w", err)
	}
	var m *carillon.Melody
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		m, err = melfile.UnmarshalMelody(data)
	default:
		m, err = melfile.ParseMelody(data)
	}
	if err != nil {
		return nil, fmt.Errorf("LoadMelody %q: %w", path, err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	e.mu.Lock()
	e.melodies[m.Name] = m
	e.mu.Unlock()
	return m, nil
}

// LoadArrangement parses an arrangement file (.bmi line format or .yml/.yaml)
// and registers it under its own name.
func (e *Engine) LoadArrangement(path string) (*carillon.Arrangement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadArrangement: %w", err)
	}
	var a *carillon.Arrangement
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		a, err = melfile.UnmarshalArrangement(data)
	default:
		a, err = melfile.ParseArrangement(data)
	}
	if err != nil {
		return nil, fmt.Errorf("LoadArrangement %q: %w", path, err)
	}
	if a.Name == "" {
		a.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	e.mu.Lock()
	e.arrangements[a.Name] = a
	e.mu.Unlock()
	return a, nil
}

// AddMelody registers an already built melody, for callers that construct
// melodies in code or scripts instead of files.
func (e *Engine) AddMelody(m *carillon.Melody) {
	e.mu.Lock()
	e.melodies[m.Name] = m
	e.mu.Unlock()
}

// AddArrangement registers an already built arrangement.
func (e *Engine) AddArrangement(a *carillon.Arrangement) {
	e.mu.Lock()
	e.arrangements[a.Name] = a
	e.mu.Unlock()
}

func (e *Engine) library() synth.MapLibrary {
	return synth.MapLibrary{Melodies: e.melodies, Samples: e.samples}
}

// bind looks up and binds an arrangement while holding the cache lock.
func (e *Engine) bind(name string) (*synth.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	arr, ok := e.arrangements[name]
	if !ok {
		return nil, fmt.Errorf("%w: arrangement %q", carillon.ErrResourceNotFound, name)
	}
	session, err := synth.NewSession(arr, e.library(), e.sampleRate)
	if err != nil {
		return nil, err
	}
	e.currentTracks = session.Tracks()
	return session, nil
}

func (e *Engine) send(msg any) error {
	if !TrySend(e.broker.ToPlayer, msg) {
		return fmt.Errorf("%w: control channel full", carillon.ErrDeviceUnavailable)
	}
	return nil
}

// Play binds the named arrangement and starts it from the beginning,
// replacing whatever is playing.
func (e *Engine) Play(name string) error {
	session, err := e.bind(name)
	if err != nil {
		return err
	}
	return e.send(msgPlay{session: session})
}

// CrossfadeTo binds the named arrangement and fades from the current one to
// it over the given number of seconds. With nothing playing it behaves like
// Play.
func (e *Engine) CrossfadeTo(name string, seconds float32) error {
	session, err := e.bind(name)
	if err != nil {
		return err
	}
	return e.send(msgCrossfade{session: session, seconds: seconds})
}

func (e *Engine) Pause() error  { return e.send(msgPause{}) }
func (e *Engine) Resume() error { return e.send(msgResume{}) }
func (e *Engine) Stop() error   { return e.send(msgStop{}) }

// SetMasterVolume sets the output gain, clamped to [0, 2].
func (e *Engine) SetMasterVolume(volume float32) error {
	return e.send(msgMasterVolume{volume: volume})
}

// SetMasterPitch scales all playback pitch, clamped to [0.5, 2].
func (e *Engine) SetMasterPitch(pitch float32) error {
	return e.send(msgMasterPitch{pitch: pitch})
}

// SetLoopEnabled toggles looping on the playing arrangement and its melodies.
func (e *Engine) SetLoopEnabled(enabled bool) error {
	return e.send(msgLoopEnabled{enabled: enabled})
}

func (e *Engine) checkTrack(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range e.currentTracks {
		if t == name {
			return nil
		}
	}
	return fmt.Errorf("%w: track %q", carillon.ErrResourceNotFound, name)
}

// SetTrackEnabled mutes or unmutes one track of the playing arrangement.
func (e *Engine) SetTrackEnabled(name string, enabled bool) error {
	if err := e.checkTrack(name); err != nil {
		return err
	}
	return e.send(msgTrackEnabled{track: name, enabled: enabled})
}

// SetTrackVolume sets one track's volume immediately.
func (e *Engine) SetTrackVolume(name string, volume float32) error {
	if err := e.checkTrack(name); err != nil {
		return err
	}
	return e.send(msgTrackVolume{track: name, volume: volume})
}

// InterpolateTrackVolume ramps one track's volume to target over the given
// seconds of render time.
func (e *Engine) InterpolateTrackVolume(name string, target, seconds float32) error {
	if err := e.checkTrack(name); err != nil {
		return err
	}
	return e.send(msgTrackRamp{track: name, target: target, seconds: seconds})
}

// Tracks returns the track names of the most recently bound arrangement, in
// order.
func (e *Engine) Tracks() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.currentTracks...)
}

// Position is the current playback position in seconds, as last reported by
// the render side.
func (e *Engine) Position() float64 {
	return math.Float64frombits(e.position.Load())
}

// State is the playback state as last reported by the render side.
func (e *Engine) State() carillon.PlaybackState {
	return carillon.PlaybackState(e.state.Load())
}

// Peak is the most recent block peak before limiting, for level meters.
func (e *Engine) Peak() float32 {
	return math.Float32frombits(e.peak.Load())
}

// offlineRenderCap stops RenderArrangement after this much audio, so an
// arrangement stuck in a loop cannot render forever.
const offlineRenderCap = 10 * 60

// RenderArrangement renders the named arrangement offline to an interleaved
// stereo buffer, without involving the live player or any audio device.
// Looping is disabled so the render terminates.
func (e *Engine) RenderArrangement(name string) (carillon.AudioBuffer, error) {
	session, err := e.bind(name)
	if err != nil {
		return nil, err
	}
	session.SetLoopEnabled(false)
	offline := NewPlayer(NewBroker(), e.sampleRate)
	offline.handleMessage(msgPlay{session: session})
	var out carillon.AudioBuffer
	block := make([]float32, 1024)
	maxSamples := int(e.sampleRate) * 2 * offlineRenderCap
	for offline.state == carillon.StatePlaying && len(out) < maxSamples {
		n, err := offline.ReadAudio(block)
		if err != nil {
			return nil, err
		}
		out = append(out, block[:n]...)
	}
	return out, nil
}
