package effects

import "github.com/carillon-audio/carillon"

// Distortion is a cubic soft clipper with a one-pole lowpass tone control on
// the wet signal. The cubic curve y = x - x³/3 saturates smoothly towards
// ±2/3, so drive pushes signal into the knee instead of hard clipping.
type Distortion struct {
	drive, wet   float32
	toneCoeff    float32
	toneL, toneR float32
}

func NewDistortion(p carillon.DistortionParams, sampleRate float32) *Distortion {
	drive := p.Drive
	if drive < 1 {
		drive = 1
	}
	if drive > 100 {
		drive = 100
	}
	tone := p.Tone
	if tone < 0 {
		tone = 0
	}
	if tone > 1 {
		tone = 1
	}
	// Map tone [0,1] to a lowpass between roughly 500 Hz and 10 kHz.
	cutoff := 500 + tone*9500
	coeff := 1 - expDecay(cutoff, sampleRate)
	return &Distortion{
		drive:     drive,
		wet:       clamp01(p.Wet),
		toneCoeff: coeff,
	}
}

func softclip(x float32) float32 {
	if x > 1 {
		return 2.0 / 3.0
	}
	if x < -1 {
		return -2.0 / 3.0
	}
	return x - x*x*x/3
}

func (d *Distortion) Process(l, r float32) (float32, float32) {
	wl := softclip(l * d.drive)
	wr := softclip(r * d.drive)
	d.toneL += d.toneCoeff * (wl - d.toneL)
	d.toneR += d.toneCoeff * (wr - d.toneR)
	return l + d.wet*(d.toneL-l), r + d.wet*(d.toneR-r)
}

func (d *Distortion) Reset() {
	d.toneL = 0
	d.toneR = 0
}
