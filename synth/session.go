package synth

import (
	"fmt"

	"github.com/carillon-audio/carillon"
)

// Library resolves the names an arrangement refers to. The playback engine's
// caches implement it; tests can use plain maps through MapLibrary.
type Library interface {
	Melody(name string) (*carillon.Melody, bool)
	Sample(name string) (*carillon.SampleData, bool)
}

// MapLibrary is a Library backed by maps.
type MapLibrary struct {
	Melodies map[string]*carillon.Melody
	Samples  map[string]*carillon.SampleData
}

func (m MapLibrary) Melody(name string) (*carillon.Melody, bool) {
	mel, ok := m.Melodies[name]
	return mel, ok
}

func (m MapLibrary) Sample(name string) (*carillon.SampleData, bool) {
	s, ok := m.Samples[name]
	return s, ok
}

// Session is a fully bound arrangement ready to render: every melody and
// sample reference resolved, overrides folded in, one TrackRenderer per
// track. Sessions are built on the control side and handed to the render
// goroutine whole; after the handover only the renderer touches them.
type Session struct {
	Arrangement string

	tracks     []*TrackRenderer
	sampleRate float32
	tick       int64
	length     int64 // musical end in ticks, ignoring release tails
	fadeIn     int64
	fadeOut    int64
	loop       *carillon.LoopPoint
	loopOn     bool
}

// NewSession binds an arrangement against the library. Unknown melody names
// fail with ErrResourceNotFound; an unresolved sample name binds the track
// with no sample data and its notes render silent.
func NewSession(arr *carillon.Arrangement, lib Library, sampleRate float32) (*Session, error) {
	if err := arr.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		Arrangement: arr.Name,
		sampleRate:  sampleRate,
		fadeIn:      int64(arr.FadeIn * sampleRate),
		fadeOut:     int64(arr.FadeOut * sampleRate),
		loop:        arr.Loop,
		loopOn:      arr.Loop != nil,
	}
	for i, t := range arr.Tracks {
		mel, ok := lib.Melody(t.Melody)
		if !ok {
			return nil, fmt.Errorf("%w: melody %q (arrangement %q track %d)", carillon.ErrResourceNotFound, t.Melody, arr.Name, i)
		}
		b := bindTrack(t, mel, arr.MasterTempo)
		if b.ins.Sampled() {
			// unresolved sample references render silence, they are not
			// binding errors
			b.sample, _ = lib.Sample(b.ins.Sample)
		}
		tr := newTrackRenderer(b, sampleRate)
		end := tr.startTick + int64(tr.lengthBeats/tr.beatsPerTick)
		if end > s.length {
			s.length = end
		}
		s.tracks = append(s.tracks, tr)
	}
	return s, nil
}

// bindTrack folds the track overrides and master tempo into a binding. The
// melody itself is not modified; the instrument is copied before overrides
// touch it.
func bindTrack(t carillon.Track, mel *carillon.Melody, masterTempo *float32) trackBinding {
	ins := mel.Instrument.Copy()
	tempo := mel.Tempo
	if masterTempo != nil {
		tempo = *masterTempo
	}
	if t.Overrides.Tempo != nil {
		tempo = *t.Overrides.Tempo
	}
	volume := float32(1)
	if t.Overrides.Volume != nil {
		volume = *t.Overrides.Volume
	}
	if t.Overrides.Pitch != nil {
		ins.Pitch *= *t.Overrides.Pitch
	}
	if t.Overrides.Pan != nil {
		ins.Pan = *t.Overrides.Pan
	}
	rack := ins.Effects.Copy()
	if t.Overrides.Filter != nil {
		v := *t.Overrides.Filter
		rack.Filter = &v
	}
	if t.Overrides.Distortion != nil {
		v := *t.Overrides.Distortion
		rack.Distortion = &v
	}
	if t.Overrides.Delay != nil {
		v := *t.Overrides.Delay
		rack.Delay = &v
	}
	if t.Overrides.Reverb != nil {
		v := *t.Overrides.Reverb
		rack.Reverb = &v
	}
	return trackBinding{
		name:      t.Melody,
		melody:    mel,
		ins:       ins,
		tempo:     tempo,
		startSecs: t.Start,
		volume:    volume,
		rack:      rack,
	}
}

// Tracks returns the track names in arrangement order. Duplicate melody
// references show up once per track.
func (s *Session) Tracks() []string {
	names := make([]string, len(s.tracks))
	for i, tr := range s.tracks {
		names[i] = tr.Name
	}
	return names
}

func (s *Session) findTrack(name string) *TrackRenderer {
	for _, tr := range s.tracks {
		if tr.Name == name {
			return tr
		}
	}
	return nil
}

// SetTrackEnabled mutes or unmutes a track. The track keeps rendering while
// muted so re-enabling picks up mid-phrase. Returns false for unknown tracks.
func (s *Session) SetTrackEnabled(name string, enabled bool) bool {
	tr := s.findTrack(name)
	if tr == nil {
		return false
	}
	tr.setEnabled(enabled)
	return true
}

func (s *Session) SetTrackVolume(name string, volume float32) bool {
	tr := s.findTrack(name)
	if tr == nil {
		return false
	}
	tr.setVolume(volume)
	return true
}

func (s *Session) InterpolateTrackVolume(name string, target, seconds float32) bool {
	tr := s.findTrack(name)
	if tr == nil {
		return false
	}
	tr.interpolateVolume(target, seconds)
	return true
}

// SetMasterPitch scales every sounding and future pitch. Values are clamped
// to [0.5, 2], half to double speed of the original tuning.
func (s *Session) SetMasterPitch(pitch float32) {
	if pitch < 0.5 {
		pitch = 0.5
	}
	if pitch > 2 {
		pitch = 2
	}
	for _, tr := range s.tracks {
		tr.pitchScale = pitch
	}
}

// SetLoopEnabled toggles both the arrangement loop and every melody loop.
func (s *Session) SetLoopEnabled(enabled bool) {
	s.loopOn = enabled && s.loop != nil
	for _, tr := range s.tracks {
		tr.setLoopEnabled(enabled)
	}
}

// ReleaseAll pushes every sounding voice into release, so a stop or
// crossfade-out tails off instead of clicking.
func (s *Session) ReleaseAll() {
	for _, tr := range s.tracks {
		tr.releaseAll()
	}
}

// Position is the playback position in seconds of render time.
func (s *Session) Position() float64 {
	return float64(s.tick) / float64(s.sampleRate)
}

// Done reports that every track has played out, including release tails. A
// session with an active loop never finishes on its own.
func (s *Session) Done() bool {
	if s.loopOn {
		return false
	}
	for _, tr := range s.tracks {
		if !tr.done() {
			return false
		}
	}
	return true
}

// fadeGain applies the arrangement's fade-in and fade-out envelopes. Fade-out
// counts back from the musical end, not the release tail.
func (s *Session) fadeGain() float32 {
	g := float32(1)
	if s.fadeIn > 0 && s.tick < s.fadeIn {
		g *= float32(s.tick) / float32(s.fadeIn)
	}
	if s.fadeOut > 0 {
		left := s.length - s.tick
		if left < 0 {
			return 0
		}
		if left < s.fadeOut {
			g *= float32(left) / float32(s.fadeOut)
		}
	}
	return g
}

// RenderTick renders one stereo frame of the whole session.
func (s *Session) RenderTick() (l, r float32) {
	if s.loopOn && s.loop != nil {
		end := int64(s.loop.End * s.sampleRate)
		if end <= 0 || end > s.length {
			end = s.length
		}
		if s.tick >= end {
			s.rewindTo(int64(s.loop.Start * s.sampleRate))
		}
	}
	for _, tr := range s.tracks {
		tl, trr := tr.renderTick()
		l += tl
		r += trr
	}
	g := s.fadeGain()
	s.tick++
	return l * g, r * g
}

// rewindTo jumps the whole session back to the given tick. Track clocks are
// restarted and re-run to the loop point so start offsets stay honored.
func (s *Session) rewindTo(tick int64) {
	if tick < 0 {
		tick = 0
	}
	s.tick = tick
	for _, tr := range s.tracks {
		tr.releaseAll()
		// track clocks follow the session clock so a start offset still
		// ahead of the wrap target waits only its remainder
		tr.tick = tick
		tr.beatPos = 0
		tr.cursor = 0
		if tick > tr.startTick {
			elapsed := tick - tr.startTick
			tr.beatPos = float64(elapsed) * tr.beatsPerTick
			for tr.cursor < len(tr.onsets) && tr.onsets[tr.cursor] < tr.beatPos {
				tr.cursor++
			}
		}
	}
}
