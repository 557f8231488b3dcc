package player

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/viterin/vek/vek32"

	"github.com/carillon-audio/carillon"
	"github.com/carillon-audio/carillon/synth"
)

// limiterRecovery is how fast the output limiter releases, in gain doublings
// per second (6 dB/s).
const limiterRecovery = 1.0

// Player renders the current session into the audio stream. It owns all
// render-side state: the active session, a pending crossfade target, master
// volume and pitch and the output limiter. It implements carillon.AudioSource
// so the audio backend can pull from it, and it reads control messages from
// the broker at the start of every block.
type Player struct {
	broker     *Broker
	sampleRate float32

	session *synth.Session
	next    *synth.Session
	fade    int64
	fadeLen int64

	state        carillon.PlaybackState
	masterVolume float32
	masterPitch  float32
	limitGain    float32
	scratch      []float32
}

func NewPlayer(broker *Broker, sampleRate float32) *Player {
	return &Player{
		broker:       broker,
		sampleRate:   sampleRate,
		state:        carillon.StateStopped,
		masterVolume: 1,
		masterPitch:  1,
		limitGain:    1,
	}
}

// ReadAudio fills buf with interleaved stereo samples. It always fills the
// whole buffer; when stopped or paused it emits silence so the device stream
// stays alive.
func (p *Player) ReadAudio(buf []float32) (int, error) {
	n := len(buf) &^ 1
	block := buf[:n]
	p.processMessages()
	for i := range block {
		block[i] = 0
	}
	if p.state == carillon.StatePlaying && p.session != nil {
		p.renderBlock(block)
	}
	if p.masterVolume != 1 {
		vek32.MulNumber_Inplace(block, p.masterVolume)
	}
	peak := p.limit(block)
	TrySend(p.broker.ToEngine, MsgToEngine{
		Position: p.position(),
		State:    p.state,
		Peak:     peak,
	})
	return n, nil
}

func (p *Player) Close() error {
	p.session = nil
	p.next = nil
	p.state = carillon.StateStopped
	return nil
}

func (p *Player) position() float64 {
	if p.session == nil {
		return 0
	}
	return p.session.Position()
}

func (p *Player) renderBlock(block []float32) {
	for i := 0; i+1 < len(block); i += 2 {
		l, r := p.session.RenderTick()
		if p.next != nil {
			nl, nr := p.next.RenderTick()
			t := float32(p.fade) / float32(p.fadeLen)
			l = l*(1-t) + nl*t
			r = r*(1-t) + nr*t
			p.fade++
			if p.fade >= p.fadeLen {
				p.session = p.next
				p.next = nil
			}
		}
		block[i] = l
		block[i+1] = r
	}
	if p.session.Done() && p.next == nil {
		p.session = nil
		p.state = carillon.StateStopped
	}
}

// limit scales the block down when it would clip and lets the gain recover
// slowly afterwards. A hard clamp backstops whatever the limiter lets
// through. Returns the pre-limiter block peak.
func (p *Player) limit(block []float32) float32 {
	if cap(p.scratch) < len(block) {
		p.scratch = make([]float32, len(block))
	}
	scratch := p.scratch[:len(block)]
	vek32.Abs_Into(scratch, block)
	peak := vek32.Max(scratch)
	if peak*p.limitGain > 1 {
		p.limitGain = 1 / peak
	} else if p.limitGain < 1 {
		seconds := float32(len(block)/2) / p.sampleRate
		p.limitGain = math32.Min(1, p.limitGain*math32.Exp2(seconds*limiterRecovery))
	}
	if p.limitGain != 1 {
		vek32.MulNumber_Inplace(block, p.limitGain)
	}
	for i, v := range block {
		if v > 1 {
			block[i] = 1
		} else if v < -1 {
			block[i] = -1
		}
	}
	return peak
}

// processMessages drains every pending control message. Messages never block;
// unknown track names only produce an alert because the control side already
// validated them against the arrangement it sent.
func (p *Player) processMessages() {
	for {
		select {
		case msg := <-p.broker.ToPlayer:
			p.handleMessage(msg)
		default:
			return
		}
	}
}

func (p *Player) handleMessage(msg any) {
	switch m := msg.(type) {
	case msgPlay:
		m.session.SetMasterPitch(p.masterPitch)
		p.session = m.session
		p.next = nil
		p.state = carillon.StatePlaying
	case msgCrossfade:
		m.session.SetMasterPitch(p.masterPitch)
		if p.session == nil || p.state == carillon.StateStopped {
			p.session = m.session
			p.next = nil
			p.state = carillon.StatePlaying
			return
		}
		p.next = m.session
		p.fade = 0
		p.fadeLen = int64(m.seconds * p.sampleRate)
		if p.fadeLen < 1 {
			p.fadeLen = 1
		}
	case msgPause:
		if p.state == carillon.StatePlaying {
			p.state = carillon.StatePaused
		}
	case msgResume:
		if p.state == carillon.StatePaused {
			p.state = carillon.StatePlaying
		}
	case msgStop:
		p.session = nil
		p.next = nil
		p.state = carillon.StateStopped
	case msgMasterVolume:
		p.masterVolume = clampRange(m.volume, 0, 2)
	case msgMasterPitch:
		p.masterPitch = clampRange(m.pitch, 0.5, 2)
		if p.session != nil {
			p.session.SetMasterPitch(p.masterPitch)
		}
		if p.next != nil {
			p.next.SetMasterPitch(p.masterPitch)
		}
	case msgTrackEnabled:
		p.eachSession(func(s *synth.Session) bool { return s.SetTrackEnabled(m.track, m.enabled) }, m.track)
	case msgTrackVolume:
		p.eachSession(func(s *synth.Session) bool { return s.SetTrackVolume(m.track, m.volume) }, m.track)
	case msgTrackRamp:
		p.eachSession(func(s *synth.Session) bool { return s.InterpolateTrackVolume(m.track, m.target, m.seconds) }, m.track)
	case msgLoopEnabled:
		if p.session != nil {
			p.session.SetLoopEnabled(m.enabled)
		}
		if p.next != nil {
			p.next.SetLoopEnabled(m.enabled)
		}
	}
}

func (p *Player) eachSession(apply func(*synth.Session) bool, track string) {
	found := false
	if p.session != nil && apply(p.session) {
		found = true
	}
	if p.next != nil && apply(p.next) {
		found = true
	}
	if !found {
		TrySend(p.broker.ToEngine, MsgToEngine{
			Position: p.position(),
			State:    p.state,
			Alert:    fmt.Sprintf("no track %q in the playing arrangement", track),
		})
	}
}

func clampRange(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
