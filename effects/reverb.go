package effects

import "github.com/carillon-audio/carillon"

// Reverb is a Freeverb: eight parallel lowpass-feedback combs per channel
// into four serial allpasses, with the right channel's delay lines offset by
// a small spread for stereo width. Tunings are the Freeverb values for
// 44.1 kHz, scaled to the actual sample rate.
type Reverb struct {
	combsL, combsR [8]comb
	allL, allR     [4]allpass
	wet1, wet2     float32
	dry            float32
}

const (
	fixedGain    = 0.015
	scaleDamp    = 0.4
	scaleRoom    = 0.28
	offsetRoom   = 0.7
	stereoSpread = 23
)

var combTuning = [8]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
var allpassTuning = [4]int{556, 441, 341, 225}

type comb struct {
	buf      []float32
	pos      int
	feedback float32
	damp     float32
	filtered float32
}

func (c *comb) process(x float32) float32 {
	out := c.buf[c.pos]
	c.filtered += c.damp * (out - c.filtered)
	c.buf[c.pos] = x + c.filtered*c.feedback
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

type allpass struct {
	buf []float32
	pos int
}

func (a *allpass) process(x float32) float32 {
	buffered := a.buf[a.pos]
	a.buf[a.pos] = x + buffered*0.5
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return buffered - x
}

func NewReverb(p carillon.ReverbParams, sampleRate float32) *Reverb {
	feedback := clamp01(p.RoomSize)*scaleRoom + offsetRoom
	damp := 1 - clamp01(p.Damping)*scaleDamp
	width := clamp01(p.Width)
	wet := clamp01(p.Wet)
	r := &Reverb{
		wet1: wet * (width/2 + 0.5),
		wet2: wet * ((1 - width) / 2),
		dry:  1 - wet,
	}
	scale := sampleRate / 44100
	for i, tuning := range combTuning {
		r.combsL[i] = comb{buf: make([]float32, scaleLen(tuning, scale)), feedback: feedback, damp: damp}
		r.combsR[i] = comb{buf: make([]float32, scaleLen(tuning+stereoSpread, scale)), feedback: feedback, damp: damp}
	}
	for i, tuning := range allpassTuning {
		r.allL[i] = allpass{buf: make([]float32, scaleLen(tuning, scale))}
		r.allR[i] = allpass{buf: make([]float32, scaleLen(tuning+stereoSpread, scale))}
	}
	return r
}

func scaleLen(tuning int, scale float32) int {
	n := int(float32(tuning) * scale)
	if n < 1 {
		n = 1
	}
	return n
}

func (r *Reverb) Process(l, rIn float32) (float32, float32) {
	input := (l + rIn) * fixedGain
	var outL, outR float32
	for i := range r.combsL {
		outL += r.combsL[i].process(input)
		outR += r.combsR[i].process(input)
	}
	for i := range r.allL {
		outL = r.allL[i].process(outL)
		outR = r.allR[i].process(outR)
	}
	return l*r.dry + outL*r.wet1 + outR*r.wet2,
		rIn*r.dry + outR*r.wet1 + outL*r.wet2
}

func (r *Reverb) Reset() {
	for i := range r.combsL {
		zero(r.combsL[i].buf)
		zero(r.combsR[i].buf)
		r.combsL[i].pos, r.combsR[i].pos = 0, 0
		r.combsL[i].filtered, r.combsR[i].filtered = 0, 0
	}
	for i := range r.allL {
		zero(r.allL[i].buf)
		zero(r.allR[i].buf)
		r.allL[i].pos, r.allR[i].pos = 0, 0
	}
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
