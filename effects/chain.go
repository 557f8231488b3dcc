// Package effects implements the per-track stereo effect processors: filter,
// distortion, delay and reverb. Each processor consumes and produces one
// stereo sample at a time and carries its own state, so every track gets an
// independent instance.
package effects

import (
	"github.com/chewxy/math32"

	"github.com/carillon-audio/carillon"
)

// Processor transforms one stereo sample. Implementations keep internal state
// between calls; Reset clears it without touching the parameters.
type Processor interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain runs a fixed-order effect chain: filter, distortion, delay, reverb.
// Missing stages are skipped. The order matters: filtering before distortion
// shapes what gets clipped, and reverb last keeps the tail clean.
type Chain struct {
	stages []Processor
}

// NewChain builds a chain from an instrument's effect rack merged with any
// per-track overrides. Nil sections produce no stage.
func NewChain(rack carillon.EffectsRack, sampleRate float32) *Chain {
	c := &Chain{}
	if rack.Filter != nil {
		c.stages = append(c.stages, NewFilter(*rack.Filter, sampleRate))
	}
	if rack.Distortion != nil {
		c.stages = append(c.stages, NewDistortion(*rack.Distortion, sampleRate))
	}
	if rack.Delay != nil {
		c.stages = append(c.stages, NewDelay(*rack.Delay, sampleRate))
	}
	if rack.Reverb != nil {
		c.stages = append(c.stages, NewReverb(*rack.Reverb, sampleRate))
	}
	return c
}

func (c *Chain) Empty() bool { return len(c.stages) == 0 }

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, s := range c.stages {
		l, r = s.Process(l, r)
	}
	return l, r
}

func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.Reset()
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// expDecay is the feedback coefficient of a one-pole lowpass with the given
// cutoff.
func expDecay(cutoff, sampleRate float32) float32 {
	return math32.Exp(-2 * math32.Pi * cutoff / sampleRate)
}
