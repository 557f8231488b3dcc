package melfile

import (
	"errors"
	"strings"
	"testing"

	"github.com/carillon-audio/carillon"
)

const exampleMelody = `
// a small test melody
name: bells
tempo: 90
time_sig: 3/4
swing: 0.5
waveform: triangle
volume: 0.6
attack: 0.02
release: 0.3
filter: lp, 2000, 0.8
reverb: 0.7, 0.4, 0.25

note: C4, 1, 0.9
note: E4, 0.5, 0.8, pan=-0.5
note: G4, 0.5, 0.8, slide=C5
chord: C4+E4+G4, 2
rest: 1
loop: 0, 2.5
`

func TestParseMelody(t *testing.T) {
	m, err := ParseMelody([]byte(exampleMelody))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "bells" || m.Tempo != 90 || m.Swing != 0.5 {
		t.Errorf("header parsed as %q/%v/%v", m.Name, m.Tempo, m.Swing)
	}
	if m.TimeSignature.Beats != 3 || m.TimeSignature.Value != 4 {
		t.Errorf("time signature %+v, expected 3/4", m.TimeSignature)
	}
	if m.Instrument.Waveform != carillon.Triangle {
		t.Errorf("waveform %v, expected triangle", m.Instrument.Waveform)
	}
	if m.Instrument.Volume != 0.6 || m.Instrument.Attack != 0.02 || m.Instrument.Release != 0.3 {
		t.Errorf("instrument %+v", m.Instrument)
	}
	if f := m.Instrument.Effects.Filter; f == nil || f.Kind != carillon.Lowpass || f.Cutoff != 2000 || f.Resonance != 0.8 {
		t.Errorf("filter %+v", f)
	}
	if r := m.Instrument.Effects.Reverb; r == nil || r.RoomSize != 0.7 || r.Wet != 0.25 || r.Width != 1.0 {
		t.Errorf("reverb %+v (width should default)", r)
	}
	if len(m.Events) != 5 {
		t.Fatalf("%d events, expected 5", len(m.Events))
	}
	n := m.Events[0].Note
	if n == nil || n.Duration != 1 || n.Velocity != 0.9 {
		t.Errorf("first note %+v", n)
	}
	if n2 := m.Events[1].Note; n2.Pan == nil || *n2.Pan != -0.5 {
		t.Errorf("second note pan %+v", n2.Pan)
	}
	if n3 := m.Events[2].Note; n3.SlideTo == nil || *n3.SlideTo < 523 || *n3.SlideTo > 524 {
		t.Errorf("third note slide %+v", n3.SlideTo)
	}
	if c := m.Events[3].Chord; c == nil || len(c.Pitches) != 3 || c.Velocity != 1 {
		t.Errorf("chord %+v", c)
	}
	if m.Events[4].Rest != 1 {
		t.Errorf("rest %+v", m.Events[4])
	}
	if m.Loop == nil || m.Loop.Start != 0 || m.Loop.End != 2.5 {
		t.Errorf("loop %+v", m.Loop)
	}
}

func TestParseMelodyErrorsCarryLineNumbers(t *testing.T) {
	bad := []struct{ src, wantInMsg string }{
		{"note: H4, 1", "line 1"},
		{"tempo: fast", "line 1"},
		{"\n\nbogus: 1", "line 3"},
		{"loop: 2, 1", "line 1"},
		{"note: C4", "line 1"},
	}
	for _, test := range bad {
		_, err := ParseMelody([]byte(test.src))
		if err == nil {
			t.Errorf("ParseMelody(%q) expected error", test.src)
			continue
		}
		if !errors.Is(err, carillon.ErrUnsupportedFormat) {
			t.Errorf("ParseMelody(%q) error %v does not wrap ErrUnsupportedFormat", test.src, err)
		}
		if !strings.Contains(err.Error(), test.wantInMsg) {
			t.Errorf("ParseMelody(%q) error %q missing %q", test.src, err, test.wantInMsg)
		}
	}
}

const exampleArrangement = `
name: demo
master_tempo: 100
fade_in: 1.5
fade_out: 3
loop: 0, 30

track: bells, 0
track: bass, 4, vol=0.8, pitch=0.5, filter=lp:800:0.9
track: lead, 8.5, tempo=120, reverb=0.9:0.5:0.4:1, pan=0.3
`

func TestParseArrangement(t *testing.T) {
	a, err := ParseArrangement([]byte(exampleArrangement))
	if err != nil {
		t.Fatal(err)
	}
	if a.Name != "demo" || a.FadeIn != 1.5 || a.FadeOut != 3 {
		t.Errorf("header %q/%v/%v", a.Name, a.FadeIn, a.FadeOut)
	}
	if a.MasterTempo == nil || *a.MasterTempo != 100 {
		t.Errorf("master tempo %+v", a.MasterTempo)
	}
	if a.Loop == nil || a.Loop.End != 30 {
		t.Errorf("loop %+v", a.Loop)
	}
	if len(a.Tracks) != 3 {
		t.Fatalf("%d tracks, expected 3", len(a.Tracks))
	}
	if a.Tracks[0].Melody != "bells" || a.Tracks[0].Start != 0 {
		t.Errorf("track 0: %+v", a.Tracks[0])
	}
	t1 := a.Tracks[1]
	if t1.Start != 4 || t1.Overrides.Volume == nil || *t1.Overrides.Volume != 0.8 {
		t.Errorf("track 1: %+v", t1)
	}
	if t1.Overrides.Filter == nil || t1.Overrides.Filter.Cutoff != 800 || t1.Overrides.Filter.Resonance != 0.9 {
		t.Errorf("track 1 filter: %+v", t1.Overrides.Filter)
	}
	t2 := a.Tracks[2]
	if t2.Overrides.Tempo == nil || *t2.Overrides.Tempo != 120 {
		t.Errorf("track 2 tempo: %+v", t2.Overrides.Tempo)
	}
	if t2.Overrides.Reverb == nil || t2.Overrides.Reverb.Wet != 0.4 {
		t.Errorf("track 2 reverb: %+v", t2.Overrides.Reverb)
	}
	if t2.Overrides.Pan == nil || *t2.Overrides.Pan != 0.3 {
		t.Errorf("track 2 pan: %+v", t2.Overrides.Pan)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("parsed arrangement failed validation: %v", err)
	}
}

func TestUnmarshalMelodyYAML(t *testing.T) {
	src := `
name: yamltest
tempo: 140
instrument:
  waveform: square
  volume: 0.4
`
	m, err := UnmarshalMelody([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "yamltest" || m.Tempo != 140 {
		t.Errorf("header %q/%v", m.Name, m.Tempo)
	}
	if m.Instrument.Waveform != carillon.Square || m.Instrument.Volume != 0.4 {
		t.Errorf("instrument %+v", m.Instrument)
	}
	// fields the YAML does not mention keep their defaults
	if m.Instrument.Pitch != 1 {
		t.Errorf("pitch %v, expected default 1", m.Instrument.Pitch)
	}
}

func TestUnmarshalArrangementYAML(t *testing.T) {
	src := `
name: yamlarr
tracks:
  - melody: bells
    start: 0
  - melody: bass
    start: 2
    overrides:
      volume: 0.5
`
	a, err := UnmarshalArrangement([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if a.Name != "yamlarr" || len(a.Tracks) != 2 {
		t.Fatalf("parsed %q with %d tracks", a.Name, len(a.Tracks))
	}
	if a.Tracks[1].Overrides.Volume == nil || *a.Tracks[1].Overrides.Volume != 0.5 {
		t.Errorf("track 1 overrides: %+v", a.Tracks[1].Overrides)
	}
}
