package effects

import "github.com/carillon-audio/carillon"

const maxDelaySeconds = 2

// Delay is a stereo feedback delay on a ring buffer. The delay time is fixed
// at construction; feedback is clamped below unity so the tail always decays.
type Delay struct {
	bufL, bufR []float32
	pos        int
	feedback   float32
	wet        float32
}

func NewDelay(p carillon.DelayParams, sampleRate float32) *Delay {
	t := p.Time
	if t < 0.001 {
		t = 0.001
	}
	if t > maxDelaySeconds {
		t = maxDelaySeconds
	}
	length := int(t * sampleRate)
	if length < 1 {
		length = 1
	}
	fb := p.Feedback
	if fb < 0 {
		fb = 0
	}
	if fb > 0.95 {
		fb = 0.95
	}
	return &Delay{
		bufL:     make([]float32, length),
		bufR:     make([]float32, length),
		feedback: fb,
		wet:      clamp01(p.Wet),
	}
}

func (d *Delay) Process(l, r float32) (float32, float32) {
	dl := d.bufL[d.pos]
	dr := d.bufR[d.pos]
	d.bufL[d.pos] = l + dl*d.feedback
	d.bufR[d.pos] = r + dr*d.feedback
	d.pos++
	if d.pos >= len(d.bufL) {
		d.pos = 0
	}
	return l + d.wet*dl, r + d.wet*dr
}

func (d *Delay) Reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.pos = 0
}
