package effects

import (
	"github.com/chewxy/math32"

	"github.com/carillon-audio/carillon"
)

// Filter is a biquad filter in direct form I, with lowpass, highpass and
// bandpass responses derived from the RBJ cookbook formulas. Left and right
// channels run through independent state.
type Filter struct {
	b0, b1, b2, a1, a2 float32
	left, right        biquadState
}

type biquadState struct {
	x1, x2, y1, y2 float32
}

func (s *biquadState) process(x, b0, b1, b2, a1, a2 float32) float32 {
	y := b0*x + b1*s.x1 + b2*s.x2 - a1*s.y1 - a2*s.y2
	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y
	return y
}

// NewFilter computes the biquad coefficients for the given parameters. Cutoff
// is clamped to just below Nyquist and resonance to a small positive minimum
// so the filter stays stable.
func NewFilter(p carillon.FilterParams, sampleRate float32) *Filter {
	cutoff := p.Cutoff
	if cutoff < 20 {
		cutoff = 20
	}
	if max := sampleRate * 0.49; cutoff > max {
		cutoff = max
	}
	q := p.Resonance
	if q < 0.1 {
		q = 0.1
	}
	w0 := 2 * math32.Pi * cutoff / sampleRate
	cosW0 := math32.Cos(w0)
	alpha := math32.Sin(w0) / (2 * q)

	var b0, b1, b2 float32
	a0 := 1 + alpha
	a1 := -2 * cosW0
	a2 := 1 - alpha
	switch p.Kind {
	case carillon.Highpass:
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
	case carillon.Bandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
	default: // lowpass
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
	}
	return &Filter{
		b0: b0 / a0, b1: b1 / a0, b2: b2 / a0,
		a1: a1 / a0, a2: a2 / a0,
	}
}

func (f *Filter) Process(l, r float32) (float32, float32) {
	return f.left.process(l, f.b0, f.b1, f.b2, f.a1, f.a2),
		f.right.process(r, f.b0, f.b1, f.b2, f.a1, f.a2)
}

func (f *Filter) Reset() {
	f.left = biquadState{}
	f.right = biquadState{}
}
