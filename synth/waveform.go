// Package synth implements the rendering core: oscillators, sample playback,
// envelopes, voices, per-track note scheduling and the arrangement session.
// Everything in this package runs on the realtime render path and avoids
// allocation per tick.
package synth

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/carillon-audio/carillon"
)

// oscillator generates one of the basic waveform shapes. Phase is kept in
// [0,1) and advanced by frequency/sampleRate per tick. Noise uses a
// multiplicative congruential generator seeded per voice, so renders are
// deterministic.
type oscillator struct {
	kind     carillon.WaveformKind
	phase    float32
	randSeed uint32
}

func (o *oscillator) init(kind carillon.WaveformKind, seed uint32) {
	o.kind = kind
	o.phase = 0
	if seed == 0 {
		seed = 1
	}
	o.randSeed = seed
}

func (o *oscillator) rand() float32 {
	o.randSeed *= 16007
	return float32(int32(o.randSeed)) / -math.MinInt32
}

// tick advances the phase by freq/sampleRate and returns the next sample in
// [-1,1].
func (o *oscillator) tick(freq, sampleRate float32) float32 {
	phase := o.phase
	o.phase += freq / sampleRate
	o.phase -= math32.Floor(o.phase)
	switch o.kind {
	case carillon.Sine:
		return math32.Sin(phase * 2 * math32.Pi)
	case carillon.Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case carillon.Triangle:
		return 1 - 4*math32.Abs(phase-0.5)
	case carillon.Sawtooth:
		return 2*phase - 1
	case carillon.Noise:
		return o.rand()
	}
	return 0
}
