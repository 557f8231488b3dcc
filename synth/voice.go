package synth

import (
	"sync"

	"github.com/chewxy/math32"

	"github.com/carillon-audio/carillon"
)

// voice is one sounding note: an oscillator or sample player, an envelope and
// the per-note gain, pan and slide state. Voices are recycled through a pool
// so note onsets do not allocate on the render path.
type voice struct {
	osc     oscillator
	sampler samplePlayer
	sampled bool
	env     envelope

	freq      float32
	slideStep float32 // Hz per tick, 0 when the note does not slide
	slideLeft int

	gain      float32 // velocity * instrument volume * chord scale
	panL      float32
	panR      float32
	remaining int // ticks until release
}

var voicePool = sync.Pool{New: func() any { return &voice{} }}

type noteParams struct {
	freq      float32
	velocity  float32
	pan       float32
	slideTo   float32 // 0 = no slide
	durTicks  int
	chordSize int
	seed      uint32
}

// start configures the voice for a note using the bound instrument. pitch and
// detune from the instrument are folded into the playback frequency here so
// the tick loop only deals with the final Hz value.
func (v *voice) start(ins *carillon.Instrument, data *carillon.SampleData, p noteParams, sampleRate float32) {
	detune := math32.Exp2(ins.Detune / 1200)
	freq := p.freq * ins.Pitch * detune
	v.freq = freq
	v.slideStep = 0
	v.slideLeft = 0
	if p.slideTo > 0 && p.durTicks > 0 {
		target := p.slideTo * ins.Pitch * detune
		v.slideStep = (target - freq) / float32(p.durTicks)
		v.slideLeft = p.durTicks
	}
	v.gain = clampUnit(p.velocity) * ins.Volume
	if p.chordSize > 1 {
		v.gain /= math32.Sqrt(float32(p.chordSize))
	}
	angle := (clampSym(p.pan) + 1) * math32.Pi / 4
	v.panL = math32.Cos(angle)
	v.panR = math32.Sin(angle)
	v.remaining = p.durTicks
	v.sampled = ins.Sampled()
	if v.sampled {
		// a missing sample leaves the player finished and the voice silent
		v.sampler = samplePlayer{}
		if data != nil {
			v.sampler.init(data, ins.Pitch*detune*(p.freq/carillon.ReferenceFrequency), sampleRate)
		}
	} else {
		v.osc.init(ins.Waveform, p.seed)
	}
	v.env.trigger(ins.Attack, ins.Decay, ins.Sustain, ins.Release, sampleRate)
}

// release moves the voice into its envelope release stage early, used at loop
// boundaries and stop.
func (v *voice) release() {
	v.remaining = 0
	v.env.off()
}

func (v *voice) done() bool {
	if v.env.done() {
		return true
	}
	return v.sampled && v.sampler.finished()
}

// tick renders one stereo sample. The note duration countdown and pitch slide
// both advance here, in render time. pitchScale is the live master pitch.
func (v *voice) tick(sampleRate, pitchScale float32) (l, r float32) {
	g := v.env.tick() * v.gain
	if v.remaining > 0 {
		v.remaining--
		if v.remaining == 0 {
			// release after this tick so a note of n ticks sounds for
			// exactly n samples
			v.env.off()
		}
	}
	if v.sampled {
		sl, sr := v.sampler.tick(pitchScale)
		return sl * g * v.panL, sr * g * v.panR
	}
	if v.slideLeft > 0 {
		v.slideLeft--
		v.freq += v.slideStep
	}
	s := v.osc.tick(v.freq*pitchScale, sampleRate) * g
	return s * v.panL, s * v.panR
}

func clampSym(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
