package synth

import (
	"math"

	"github.com/carillon-audio/carillon"
	"github.com/carillon-audio/carillon/effects"
)

// TrackRenderer plays one track of an arrangement: it walks the melody's
// events against a beat clock, triggers voices, mixes them and runs the
// result through the track's effect chain. All mutation happens on the render
// goroutine; the player forwards control changes as messages.
type TrackRenderer struct {
	Name string

	events []carillon.Event
	onsets []float64 // cumulative onset beat of each event
	ins    carillon.Instrument
	sample *carillon.SampleData
	chain  *effects.Chain

	sampleRate     float32
	beatsPerTick   float64
	swing          float32
	loop           *carillon.LoopPoint
	loopEnabled    bool
	lengthBeats    float64
	startTick      int64 // arrangement offset before the first beat
	tick           int64
	beatPos        float64
	cursor         int
	voices         []*voice
	noiseSeed      uint32
	enabled        bool
	volume         float32
	pitchScale     float32
	rampStep      float32
	rampTicksLeft int
	rampTarget    float32
}

// trackBinding carries everything a track needs resolved before render time:
// the melody, its instrument with overrides already folded in, sample data
// and effective tempo.
type trackBinding struct {
	name      string
	melody    *carillon.Melody
	ins       carillon.Instrument
	sample    *carillon.SampleData
	tempo     float32
	startSecs float32
	volume    float32
	rack      carillon.EffectsRack
}

func newTrackRenderer(b trackBinding, sampleRate float32) *TrackRenderer {
	tr := &TrackRenderer{
		Name:         b.name,
		events:       b.melody.Events,
		ins:          b.ins,
		sample:       b.sample,
		chain:        effects.NewChain(b.rack, sampleRate),
		sampleRate:   sampleRate,
		beatsPerTick: float64(b.tempo) / (60 * float64(sampleRate)),
		swing:        b.melody.Swing,
		loop:         b.melody.Loop,
		loopEnabled:  b.melody.Loop != nil,
		startTick:    int64(b.startSecs * sampleRate),
		noiseSeed:    19, // any odd seed works, voices derive theirs from it
		enabled:      true,
		volume:       b.volume,
		pitchScale:   1,
	}
	tr.onsets = make([]float64, len(tr.events))
	var pos float64
	for i, ev := range tr.events {
		tr.onsets[i] = pos
		pos += float64(ev.Beats())
	}
	tr.lengthBeats = pos
	return tr
}

// swungOnset delays off-beat eighths by swing/3 of a beat. On-beat onsets are
// untouched, so the first note of every beat lands on the grid.
func (tr *TrackRenderer) swungOnset(onset float64) float64 {
	if tr.swing <= 0 {
		return onset
	}
	frac := onset - math.Floor(onset) // fractional beat
	if frac > 0.49 && frac < 0.51 {
		return onset + float64(tr.swing)/3
	}
	return onset
}

func (tr *TrackRenderer) trigger(ev carillon.Event) {
	durBeats := ev.Beats()
	durTicks := int(float64(durBeats) / tr.beatsPerTick)
	switch {
	case ev.Note != nil:
		n := ev.Note
		p := noteParams{
			freq:      n.Pitch,
			velocity:  n.Velocity,
			pan:       tr.ins.Pan,
			durTicks:  durTicks,
			chordSize: 1,
			seed:      tr.nextSeed(),
		}
		if n.Pan != nil {
			p.pan = *n.Pan
		}
		if n.SlideTo != nil {
			p.slideTo = *n.SlideTo
		}
		tr.startVoice(p)
	case ev.Chord != nil:
		c := ev.Chord
		for _, pitch := range c.Pitches {
			tr.startVoice(noteParams{
				freq:      pitch,
				velocity:  c.Velocity,
				pan:       tr.ins.Pan,
				durTicks:  durTicks,
				chordSize: len(c.Pitches),
				seed:      tr.nextSeed(),
			})
		}
	}
	// rests only advance the cursor
}

func (tr *TrackRenderer) nextSeed() uint32 {
	tr.noiseSeed = tr.noiseSeed*196314165 + 907633515
	return tr.noiseSeed
}

func (tr *TrackRenderer) startVoice(p noteParams) {
	v := voicePool.Get().(*voice)
	v.start(&tr.ins, tr.sample, p, tr.sampleRate)
	tr.voices = append(tr.voices, v)
}

// releaseAll pushes every active voice into release; used at loop boundaries
// and when playback stops.
func (tr *TrackRenderer) releaseAll() {
	for _, v := range tr.voices {
		v.release()
	}
}

func (tr *TrackRenderer) setEnabled(enabled bool) { tr.enabled = enabled }

func (tr *TrackRenderer) setVolume(vol float32) {
	tr.volume = vol
	tr.rampTicksLeft = 0
}

func (tr *TrackRenderer) setLoopEnabled(enabled bool) {
	tr.loopEnabled = enabled && tr.loop != nil
}

// interpolateVolume ramps the track volume linearly to target over the given
// number of seconds of render time.
func (tr *TrackRenderer) interpolateVolume(target, seconds float32) {
	ticks := int(seconds * tr.sampleRate)
	if ticks < 1 {
		tr.setVolume(target)
		return
	}
	tr.rampTarget = target
	tr.rampStep = (target - tr.volume) / float32(ticks)
	tr.rampTicksLeft = ticks
}

// done reports that the track has no more events to play and every voice has
// finished. Looping tracks are never done.
func (tr *TrackRenderer) done() bool {
	if tr.loopEnabled {
		return false
	}
	return tr.cursor >= len(tr.events) && len(tr.voices) == 0
}

// renderTick produces one stereo sample and advances the track's clock.
func (tr *TrackRenderer) renderTick() (l, r float32) {
	if tr.tick < tr.startTick {
		tr.tick++
		return 0, 0
	}
	if tr.rampTicksLeft > 0 {
		tr.volume += tr.rampStep
		tr.rampTicksLeft--
		if tr.rampTicksLeft == 0 {
			tr.volume = tr.rampTarget
		}
	}
	for tr.cursor < len(tr.events) && tr.beatPos >= tr.swungOnset(tr.onsets[tr.cursor]) {
		tr.trigger(tr.events[tr.cursor])
		tr.cursor++
	}
	if tr.loopEnabled && tr.loop != nil {
		endBeats := tr.beatsFromSeconds(tr.loop.End)
		if endBeats <= 0 || endBeats > tr.lengthBeats {
			endBeats = tr.lengthBeats
		}
		if tr.beatPos >= endBeats {
			tr.rewindTo(tr.beatsFromSeconds(tr.loop.Start))
		}
	}
	tr.tick++
	tr.beatPos += tr.beatsPerTick

	for i := 0; i < len(tr.voices); {
		if tr.voices[i].done() {
			last := len(tr.voices) - 1
			voicePool.Put(tr.voices[i])
			tr.voices[i] = tr.voices[last]
			tr.voices = tr.voices[:last]
			continue
		}
		vl, vr := tr.voices[i].tick(tr.sampleRate, tr.pitchScale)
		l += vl
		r += vr
		i++
	}
	l, r = tr.chain.Process(l, r)
	if !tr.enabled {
		return 0, 0
	}
	return l * tr.volume, r * tr.volume
}

func (tr *TrackRenderer) beatsFromSeconds(secs float32) float64 {
	return float64(secs) * tr.beatsPerTick * float64(tr.sampleRate)
}

// rewindTo jumps the beat clock back to the given position. Sounding voices
// are released rather than cut, so the loop seam does not click.
func (tr *TrackRenderer) rewindTo(beats float64) {
	if beats < 0 {
		beats = 0
	}
	tr.releaseAll()
	tr.beatPos = beats
	tr.cursor = 0
	for tr.cursor < len(tr.onsets) && tr.onsets[tr.cursor] < beats {
		tr.cursor++
	}
}
