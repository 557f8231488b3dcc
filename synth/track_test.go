package synth

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/carillon-audio/carillon"
)

func testMelody(events ...carillon.Event) *carillon.Melody {
	m := carillon.NewMelody("test")
	m.Events = events
	m.Instrument.Attack = 0.001
	m.Instrument.Release = 0.01
	return m
}

func noteEvent(freq, beats, vel float32) carillon.Event {
	return carillon.Event{Note: &carillon.Note{Pitch: freq, Duration: beats, Velocity: vel}}
}

func renderTrack(tr *TrackRenderer, n int) []float32 {
	out := make([]float32, 2*n)
	for i := 0; i < n; i++ {
		out[2*i], out[2*i+1] = tr.renderTick()
	}
	return out
}

func bindTestTrack(m *carillon.Melody) *TrackRenderer {
	b := bindTrack(carillon.Track{Melody: m.Name}, m, nil)
	return newTrackRenderer(b, testRate)
}

// A single half-second C4 must produce sound while the note is held and near
// silence once the release has run out.
func TestTrackRendersNote(t *testing.T) {
	m := testMelody(noteEvent(261.63, 1, 1)) // one beat at 120 bpm = 0.5 s
	tr := bindTestTrack(m)
	out := renderTrack(tr, testRate) // one second
	var during, after float32
	for i := 0; i < testRate/2; i++ {
		during = math32.Max(during, math32.Abs(out[2*i]))
	}
	for i := testRate * 3 / 4; i < testRate; i++ {
		after = math32.Max(after, math32.Abs(out[2*i]))
	}
	if during < 0.01 {
		t.Errorf("peak during note %v, expected audible signal", during)
	}
	if after > 0.001 {
		t.Errorf("peak after release %v, expected silence", after)
	}
	if !tr.done() {
		t.Error("track not done after note and release played out")
	}
}

// With zero-length envelope stages a one-beat note at 120 bpm occupies
// exactly half a second of output: the last half of a 48k render at that
// tempo must be bit-exact zero.
func TestTrackNoteLengthExact(t *testing.T) {
	const rate = 48000
	m := carillon.NewMelody("exact")
	m.Events = []carillon.Event{noteEvent(261.63, 1, 1)}
	m.Instrument.Attack = 0
	m.Instrument.Decay = 0
	m.Instrument.Sustain = 1
	m.Instrument.Release = 0
	b := bindTrack(carillon.Track{Melody: m.Name}, m, nil)
	tr := newTrackRenderer(b, rate)
	out := renderTrack(tr, rate)
	var tail float32
	for i := rate / 2; i < rate; i++ {
		tail = math32.Max(tail, math32.Abs(out[2*i]))
	}
	if tail != 0 {
		t.Errorf("peak %v after the note ends, expected exact silence", tail)
	}
	var edge float32
	for i := rate/2 - 100; i < rate/2; i++ {
		edge = math32.Max(edge, math32.Abs(out[2*i]))
	}
	if edge < 0.01 {
		t.Errorf("peak %v just before the note ends, expected signal up to the boundary", edge)
	}
	if !tr.done() {
		t.Error("track not done after the note played out")
	}
}

func TestTrackVelocityClamped(t *testing.T) {
	peakOf := func(vel float32) float32 {
		tr := bindTestTrack(testMelody(noteEvent(440, 2, vel)))
		var peak float32
		for _, v := range renderTrack(tr, testRate/2) {
			peak = math32.Max(peak, math32.Abs(v))
		}
		return peak
	}
	full, hot := peakOf(1), peakOf(9)
	if hot > full*1.001 {
		t.Errorf("velocity 9 peaked at %v, expected clamp to the velocity 1 peak %v", hot, full)
	}
	if neg := peakOf(-1); neg != 0 {
		t.Errorf("negative velocity produced output, peak %v", neg)
	}
}

func TestTrackChordScalesGain(t *testing.T) {
	single := testMelody(noteEvent(261.63, 2, 1))
	chord := testMelody(carillon.Event{Chord: &carillon.Chord{
		Pitches:  []float32{261.63, 261.63, 261.63, 261.63},
		Duration: 2,
		Velocity: 1,
	}})
	peakOf := func(m *carillon.Melody) float32 {
		tr := bindTestTrack(m)
		var peak float32
		for _, v := range renderTrack(tr, testRate/2) {
			peak = math32.Max(peak, math32.Abs(v))
		}
		return peak
	}
	ps, pc := peakOf(single), peakOf(chord)
	// four identical pitches at 1/sqrt(4) each sum to twice the single note
	ratio := pc / ps
	if ratio < 1.8 || ratio > 2.2 {
		t.Errorf("chord/single peak ratio %v, expected ~2", ratio)
	}
}

func TestTrackSwingDelaysOffbeat(t *testing.T) {
	straight := testMelody(
		noteEvent(440, 0.5, 1),
		noteEvent(440, 0.5, 1),
	)
	swung := testMelody(
		noteEvent(440, 0.5, 1),
		noteEvent(440, 0.5, 1),
	)
	swung.Swing = 0.6
	onsetOfSecond := func(m *carillon.Melody) int {
		tr := bindTestTrack(m)
		for i := 0; i < testRate; i++ {
			tr.renderTick()
			if tr.cursor == 2 {
				return i
			}
		}
		return -1
	}
	s := onsetOfSecond(straight)
	w := onsetOfSecond(swung)
	// 0.6 swing delays the off-beat eighth by 0.2 beats = 0.1 s at 120 bpm
	want := s + testRate/10
	if w < want-100 || w > want+100 {
		t.Errorf("swung offbeat at tick %d, expected ~%d (straight %d)", w, want, s)
	}
}

func TestTrackSlideReachesTarget(t *testing.T) {
	target := float32(523.25)
	m := testMelody(carillon.Event{Note: &carillon.Note{
		Pitch: 261.63, Duration: 2, Velocity: 1, SlideTo: &target,
	}})
	tr := bindTestTrack(m)
	renderTrack(tr, 100)
	early := tr.voices[0].freq
	renderTrack(tr, testRate-100) // rest of the note
	late := tr.voices[0].freq
	if early > 300 {
		t.Errorf("slide started at %v, expected near 261.63", early)
	}
	if late < target-5 || late > target+5 {
		t.Errorf("slide ended at %v, expected ~%v", late, target)
	}
}

func TestTrackMelodyLoopRewinds(t *testing.T) {
	m := testMelody(noteEvent(440, 1, 1)) // 0.5 s long
	m.Loop = &carillon.LoopPoint{Start: 0, End: 0.5}
	tr := bindTestTrack(m)
	if tr.done() {
		t.Fatal("looping track reported done before rendering")
	}
	renderTrack(tr, testRate*2)
	if tr.done() {
		t.Error("looping track reported done")
	}
	// the cursor must have wrapped back instead of running off the end
	if tr.cursor > len(m.Events) {
		t.Errorf("cursor %d ran past the event list", tr.cursor)
	}
	var peak float32
	for _, v := range renderTrack(tr, testRate/4) {
		peak = math32.Max(peak, math32.Abs(v))
	}
	if peak < 0.01 {
		t.Errorf("looped track silent after two seconds, peak %v", peak)
	}
}

func TestTrackDisabledIsSilentButAdvances(t *testing.T) {
	m := testMelody(noteEvent(440, 1, 1), noteEvent(440, 1, 1))
	tr := bindTestTrack(m)
	tr.setEnabled(false)
	out := renderTrack(tr, testRate/2)
	for i, v := range out {
		if v != 0 {
			t.Fatalf("disabled track output %v at sample %d", v, i/2)
		}
	}
	if tr.cursor == 0 {
		t.Error("disabled track did not advance its schedule")
	}
	tr.setEnabled(true)
	var peak float32
	for _, v := range renderTrack(tr, testRate/4) {
		peak = math32.Max(peak, math32.Abs(v))
	}
	if peak < 0.01 {
		t.Error("re-enabled track stayed silent")
	}
}

func TestTrackVolumeRamp(t *testing.T) {
	m := testMelody(noteEvent(440, 8, 1))
	tr := bindTestTrack(m)
	renderTrack(tr, testRate/10)
	tr.interpolateVolume(0, 0.5)
	renderTrack(tr, testRate/4)
	if tr.volume < 0.4 || tr.volume > 0.6 {
		t.Errorf("volume %v halfway through a 0.5 s ramp to 0, expected ~0.5", tr.volume)
	}
	renderTrack(tr, testRate/4)
	if tr.volume != 0 {
		t.Errorf("volume %v after ramp, expected exactly 0", tr.volume)
	}
	l, r := tr.renderTick()
	if l != 0 || r != 0 {
		t.Errorf("output %v %v at zero volume", l, r)
	}
}
