package synth

import (
	"github.com/chewxy/math32"

	"github.com/carillon-audio/carillon"
)

// samplePlayer plays back decoded sample data with linear interpolation. The
// playback rate is pitch scaled and resampled from the source rate to the
// output rate, so a 22.05k sample plays at its recorded speed through a 44.1k
// render. Playback is one-shot; finished reports when the cursor has run off
// the end.
type samplePlayer struct {
	data *carillon.SampleData
	pos  float32
	rate float32
}

func (p *samplePlayer) init(data *carillon.SampleData, pitch, outRate float32) {
	p.data = data
	p.pos = 0
	p.rate = pitch * float32(data.SampleRate) / outRate
}

func (p *samplePlayer) finished() bool {
	return p.data == nil || int(p.pos) >= p.data.Frames()
}

// tick returns the next interpolated stereo frame and advances the cursor.
// pitchScale stretches the playback rate on top of the note's own pitch.
func (p *samplePlayer) tick(pitchScale float32) (l, r float32) {
	if p.finished() {
		return 0, 0
	}
	i := int(p.pos)
	frac := p.pos - math32.Floor(p.pos)
	l0, r0 := p.data.Frame(i)
	l1, r1 := p.data.Frame(i + 1)
	p.pos += p.rate * pitchScale
	return l0 + (l1-l0)*frac, r0 + (r1-r0)*frac
}
