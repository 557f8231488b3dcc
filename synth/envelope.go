package synth

type envelopeState int

const (
	envStateAttack envelopeState = iota
	envStateDecay
	envStateSustain
	envStateRelease
	envStateDone
)

// envelope is a linear ADSR generator. Stage times are converted to whole
// tick counts at trigger, so every stage completes exactly on schedule
// instead of drifting with accumulated float error. Zero-length stages are
// skipped so an instrument with attack 0 starts at full level on its first
// tick. Release always ramps from the level the envelope had when released,
// so releasing mid-attack does not jump.
type envelope struct {
	sustain     float32
	state       envelopeState
	level       float32
	releaseFrom float32

	attackTicks  int
	decayTicks   int
	releaseTicks int
	pos          int // ticks into the current stage
}

func (e *envelope) trigger(attack, decay, sustain, release, sampleRate float32) {
	e.sustain = clampUnit(sustain)
	e.attackTicks = int(attack * sampleRate)
	e.decayTicks = int(decay * sampleRate)
	e.releaseTicks = int(release * sampleRate)
	e.pos = 0
	e.level = 0
	e.state = envStateAttack
	if e.attackTicks <= 0 {
		e.level = 1
		e.state = envStateDecay
		if e.decayTicks <= 0 {
			e.level = e.sustain
			e.state = envStateSustain
		}
	}
}

// off moves the envelope to its release stage. Calling it again is a no-op.
func (e *envelope) off() {
	if e.state == envStateRelease || e.state == envStateDone {
		return
	}
	e.releaseFrom = e.level
	e.pos = 0
	e.state = envStateRelease
	if e.releaseTicks <= 0 {
		e.level = 0
		e.state = envStateDone
	}
}

func (e *envelope) done() bool {
	return e.state == envStateDone
}

// tick advances the envelope by one sample and returns the gain for it.
func (e *envelope) tick() float32 {
	switch e.state {
	case envStateAttack:
		e.pos++
		e.level = float32(e.pos) / float32(e.attackTicks)
		if e.pos >= e.attackTicks {
			e.level = 1
			e.pos = 0
			e.state = envStateDecay
			if e.decayTicks <= 0 {
				e.level = e.sustain
				e.state = envStateSustain
			}
		}
	case envStateDecay:
		e.pos++
		e.level = 1 - (1-e.sustain)*float32(e.pos)/float32(e.decayTicks)
		if e.pos >= e.decayTicks {
			e.level = e.sustain
			e.pos = 0
			e.state = envStateSustain
		}
	case envStateSustain:
		e.level = e.sustain
	case envStateRelease:
		e.pos++
		e.level = e.releaseFrom * (1 - float32(e.pos)/float32(e.releaseTicks))
		if e.pos >= e.releaseTicks {
			e.level = 0
			e.state = envStateDone
		}
	case envStateDone:
		e.level = 0
	}
	return e.level
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
