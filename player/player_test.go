package player

import (
	"errors"
	"testing"

	"github.com/chewxy/math32"

	"github.com/carillon-audio/carillon"
	"github.com/carillon-audio/carillon/synth"
)

const testRate = 44100

func testMelody() *carillon.Melody {
	m := carillon.NewMelody("lead")
	m.Instrument.Attack = 0.001
	m.Instrument.Release = 0.01
	m.Events = []carillon.Event{
		{Note: &carillon.Note{Pitch: 261.63, Duration: 2, Velocity: 1}},
		{Note: &carillon.Note{Pitch: 329.63, Duration: 2, Velocity: 1}},
	}
	return m
}

func testLibrary() synth.MapLibrary {
	return synth.MapLibrary{Melodies: map[string]*carillon.Melody{"lead": testMelody()}}
}

func testSession(t *testing.T) *synth.Session {
	t.Helper()
	arr := &carillon.Arrangement{Name: "test", Tracks: []carillon.Track{{Melody: "lead"}}}
	s, err := synth.NewSession(arr, testLibrary(), testRate)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newTestPlayer() *Player {
	return NewPlayer(NewBroker(), testRate)
}

func render(p *Player, frames int) []float32 {
	out := make([]float32, 0, frames*2)
	block := make([]float32, 512)
	for len(out) < frames*2 {
		n, _ := p.ReadAudio(block)
		out = append(out, block[:n]...)
	}
	return out[:frames*2]
}

func peakOf(samples []float32) float32 {
	var peak float32
	for _, v := range samples {
		peak = math32.Max(peak, math32.Abs(v))
	}
	return peak
}

// Rendering the same arrangement twice must give the same samples bit for
// bit; nothing on the render path may depend on wall time or map order.
func TestRenderDeterministic(t *testing.T) {
	m := testMelody()
	m.Instrument.Waveform = carillon.Noise
	m.Instrument.Effects.Reverb = &carillon.ReverbParams{RoomSize: 0.5, Damping: 0.5, Wet: 0.3, Width: 1}
	lib := synth.MapLibrary{Melodies: map[string]*carillon.Melody{"lead": m}}
	arr := &carillon.Arrangement{Name: "test", Tracks: []carillon.Track{{Melody: "lead"}}}
	renderOnce := func() []float32 {
		s, err := synth.NewSession(arr, lib, testRate)
		if err != nil {
			t.Fatal(err)
		}
		p := newTestPlayer()
		p.handleMessage(msgPlay{session: s})
		return render(p, testRate)
	}
	a := renderOnce()
	b := renderOnce()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("renders diverge at sample %d: %v vs %v", i, a[i], b[i])
		}
	}
	if peakOf(a) == 0 {
		t.Fatal("deterministic render was silent")
	}
}

func TestPauseHoldsPosition(t *testing.T) {
	p := newTestPlayer()
	p.handleMessage(msgPlay{session: testSession(t)})
	render(p, testRate/4)
	pos := p.position()
	p.handleMessage(msgPause{})
	out := render(p, testRate/4)
	if peak := peakOf(out); peak != 0 {
		t.Errorf("paused output peak %v, expected silence", peak)
	}
	if p.position() != pos {
		t.Errorf("position moved from %v to %v while paused", pos, p.position())
	}
	if p.state != carillon.StatePaused {
		t.Errorf("state %v, expected paused", p.state)
	}
	p.handleMessage(msgResume{})
	out = render(p, testRate/4)
	if peakOf(out) == 0 {
		t.Error("no output after resume")
	}
	if p.position() <= pos {
		t.Error("position did not advance after resume")
	}
}

func TestStopGoesSilent(t *testing.T) {
	p := newTestPlayer()
	p.handleMessage(msgPlay{session: testSession(t)})
	render(p, testRate/4)
	p.handleMessage(msgStop{})
	if p.state != carillon.StateStopped {
		t.Errorf("state %v after stop", p.state)
	}
	if peak := peakOf(render(p, testRate/4)); peak != 0 {
		t.Errorf("output peak %v after stop", peak)
	}
}

func TestPlayerFinishesOnItsOwn(t *testing.T) {
	p := newTestPlayer()
	p.handleMessage(msgPlay{session: testSession(t)})
	render(p, testRate*3) // 2 s of music plus tail
	if p.state != carillon.StateStopped {
		t.Errorf("state %v after the session played out", p.state)
	}
}

// A crossfade must start fully on the old session and end fully on the new
// one, with the new session playing alone afterwards.
func TestCrossfadeHandsOver(t *testing.T) {
	quiet := carillon.NewMelody("quiet")
	quiet.Instrument.Attack = 0
	quiet.Instrument.Volume = 0.1
	quiet.Events = []carillon.Event{{Note: &carillon.Note{Pitch: 261.63, Duration: 16, Velocity: 1}}}
	loud := carillon.NewMelody("loud")
	loud.Instrument.Attack = 0
	loud.Instrument.Volume = 1.0
	loud.Events = []carillon.Event{{Note: &carillon.Note{Pitch: 261.63, Duration: 16, Velocity: 1}}}
	lib := synth.MapLibrary{Melodies: map[string]*carillon.Melody{"quiet": quiet, "loud": loud}}
	bind := func(name string) *synth.Session {
		arr := &carillon.Arrangement{Name: name, Tracks: []carillon.Track{{Melody: name}}}
		s, err := synth.NewSession(arr, lib, testRate)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	p := newTestPlayer()
	p.handleMessage(msgPlay{session: bind("quiet")})
	render(p, testRate/4)
	before := peakOf(render(p, testRate/10))
	p.handleMessage(msgCrossfade{session: bind("loud"), seconds: 0.5})
	render(p, testRate/2) // the whole fade
	after := peakOf(render(p, testRate/10))
	if p.next != nil {
		t.Error("crossfade target still pending after the fade length")
	}
	ratio := after / before
	if ratio < 5 || ratio > 15 {
		t.Errorf("peak ratio %v across crossfade, expected ~10", ratio)
	}
}

func TestMasterVolumeScalesOutput(t *testing.T) {
	p := newTestPlayer()
	p.handleMessage(msgPlay{session: testSession(t)})
	render(p, testRate/4)
	base := peakOf(render(p, testRate/10))
	p.handleMessage(msgMasterVolume{volume: 0.5})
	half := peakOf(render(p, testRate/10))
	ratio := half / base
	if ratio < 0.45 || ratio > 0.55 {
		t.Errorf("volume 0.5 scaled peak by %v", ratio)
	}
	p.handleMessage(msgMasterVolume{volume: 99})
	if p.masterVolume != 2 {
		t.Errorf("master volume %v, expected clamp to 2", p.masterVolume)
	}
}

func TestMasterPitchClamped(t *testing.T) {
	p := newTestPlayer()
	p.handleMessage(msgMasterPitch{pitch: 10})
	if p.masterPitch != 2 {
		t.Errorf("master pitch %v, expected clamp to 2", p.masterPitch)
	}
	p.handleMessage(msgMasterPitch{pitch: 0.1})
	if p.masterPitch != 0.5 {
		t.Errorf("master pitch %v, expected clamp to 0.5", p.masterPitch)
	}
}

// The limiter must keep an overdriven signal inside [-1, 1] without simply
// squaring off every sample at the rails.
func TestLimiterKeepsOutputInRange(t *testing.T) {
	m := testMelody()
	m.Instrument.Volume = 1
	lib := synth.MapLibrary{Melodies: map[string]*carillon.Melody{"lead": m}}
	arr := &carillon.Arrangement{Name: "test", Tracks: []carillon.Track{
		{Melody: "lead"}, {Melody: "lead"}, {Melody: "lead"}, {Melody: "lead"},
	}}
	s, err := synth.NewSession(arr, lib, testRate)
	if err != nil {
		t.Fatal(err)
	}
	p := newTestPlayer()
	p.handleMessage(msgPlay{session: s})
	p.handleMessage(msgMasterVolume{volume: 2})
	out := render(p, testRate)
	railed := 0
	for _, v := range out {
		if v > 1 || v < -1 {
			t.Fatalf("sample %v outside [-1, 1]", v)
		}
		if v == 1 || v == -1 {
			railed++
		}
	}
	if railed > len(out)/10 {
		t.Errorf("%d of %d samples pinned to the rails, limiter not engaging", railed, len(out))
	}
}

func TestUnknownTrackAlerts(t *testing.T) {
	p := newTestPlayer()
	p.handleMessage(msgPlay{session: testSession(t)})
	p.handleMessage(msgTrackVolume{track: "nope", volume: 1})
	select {
	case msg := <-p.broker.ToEngine:
		if msg.Alert == "" {
			t.Error("expected an alert message for an unknown track")
		}
	default:
		t.Error("no message sent for an unknown track")
	}
}

func TestEngineResourceErrors(t *testing.T) {
	e := NewEngine(testRate)
	defer e.Close()
	if err := e.Play("missing"); !errors.Is(err, carillon.ErrResourceNotFound) {
		t.Errorf("Play of unknown arrangement: %v", err)
	}
	e.AddMelody(testMelody())
	e.AddArrangement(&carillon.Arrangement{Name: "test", Tracks: []carillon.Track{{Melody: "lead"}}})
	if err := e.Play("test"); err != nil {
		t.Fatal(err)
	}
	if err := e.SetTrackVolume("nope", 1); !errors.Is(err, carillon.ErrResourceNotFound) {
		t.Errorf("SetTrackVolume on unknown track: %v", err)
	}
	if err := e.SetTrackVolume("lead", 0.5); err != nil {
		t.Errorf("SetTrackVolume on known track: %v", err)
	}
}

func TestEngineRenderArrangement(t *testing.T) {
	e := NewEngine(testRate)
	defer e.Close()
	e.AddMelody(testMelody())
	e.AddArrangement(&carillon.Arrangement{Name: "test", Tracks: []carillon.Track{{Melody: "lead"}}})
	buf, err := e.RenderArrangement("test")
	if err != nil {
		t.Fatal(err)
	}
	// 4 beats at 120 bpm = 2 s of music
	if secs := float32(len(buf)) / (2 * testRate); secs < 2 || secs > 3 {
		t.Errorf("rendered %v s, expected just over 2", secs)
	}
	if peakOf(buf) == 0 {
		t.Error("offline render was silent")
	}
}

func TestEngineRenderLoopTerminates(t *testing.T) {
	e := NewEngine(testRate)
	defer e.Close()
	m := testMelody()
	m.Loop = &carillon.LoopPoint{Start: 0, End: 1}
	e.AddMelody(m)
	e.AddArrangement(&carillon.Arrangement{
		Name:   "looped",
		Tracks: []carillon.Track{{Melody: "lead"}},
		Loop:   &carillon.LoopPoint{Start: 0, End: 2},
	})
	buf, err := e.RenderArrangement("looped")
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) == 0 {
		t.Error("looped render empty")
	}
}
