package carillon

// LoopPoint marks a loop region in seconds.
type LoopPoint struct {
	Start float32 `yaml:"start"`
	End   float32 `yaml:"end"`
}

// TimeSignature is the meter of a melody, e.g. 4/4 or 6/8.
type TimeSignature struct {
	Beats int `yaml:"beats"`
	Value int `yaml:"value"`
}

// Note is one scheduled pitch. Pitch is a frequency in Hz (semitone
// resolution comes from NoteFrequency), Duration is in beats, Velocity in
// [0,1]. Pan, when set, overrides the instrument pan for this note only;
// SlideTo, when set, glides the pitch to the target frequency over the note's
// duration. Notes are immutable once scheduled.
type Note struct {
	Pitch    float32  `yaml:"pitch"`
	Duration float32  `yaml:"duration"`
	Velocity float32  `yaml:"velocity"`
	Pan      *float32 `yaml:"pan,omitempty"`
	SlideTo  *float32 `yaml:"slide_to,omitempty"`
}

// Chord is an ordered set of pitches sharing one duration and velocity. It
// expands to simultaneous notes at schedule time.
type Chord struct {
	Pitches  []float32 `yaml:"pitches"`
	Duration float32   `yaml:"duration"`
	Velocity float32   `yaml:"velocity"`
}

// Event is one element of a melody's sequence: exactly one of Note, Chord or
// Rest is set. Rest > 0 advances the schedule cursor without sounding. The
// variant set is closed; dispatch is a single switch wherever events are
// consumed.
type Event struct {
	Note  *Note   `yaml:"note,omitempty"`
	Chord *Chord  `yaml:"chord,omitempty"`
	Rest  float32 `yaml:"rest,omitempty"`
}

// Beats returns the duration of the event in beats.
func (e *Event) Beats() float32 {
	switch {
	case e.Note != nil:
		return e.Note.Duration
	case e.Chord != nil:
		return e.Chord.Duration
	}
	return e.Rest
}

// Melody is a named sequence of notes, chords and rests played by one
// instrument through one effects chain. Melodies are owned by the cache that
// loaded them and are read-only once loaded; re-loading replaces the cache
// entry, it never mutates a melody an active render might hold.
type Melody struct {
	Name          string        `yaml:"name"`
	Tempo         float32       `yaml:"tempo"`
	TimeSignature TimeSignature `yaml:"time_signature"`
	Swing         float32       `yaml:"swing,omitempty"`
	Instrument    Instrument    `yaml:"instrument"`
	Events        []Event       `yaml:"events"`
	Loop          *LoopPoint    `yaml:"loop,omitempty"`
}

// NewMelody returns a melody with the documented defaults: tempo 120, 4/4,
// no swing, the default instrument, no loop.
func NewMelody(name string) *Melody {
	return &Melody{
		Name:          name,
		Tempo:         120,
		TimeSignature: TimeSignature{Beats: 4, Value: 4},
		Instrument:    DefaultInstrument(),
	}
}

// LengthBeats returns the total length of the event sequence in beats.
func (m *Melody) LengthBeats() float32 {
	var total float32
	for i := range m.Events {
		total += m.Events[i].Beats()
	}
	return total
}

// Length returns the melody length in seconds at the given tempo (beats per
// minute). Non-positive tempos fall back to the melody's own tempo, and
// failing that to 120.
func (m *Melody) Length(tempo float32) float32 {
	if tempo <= 0 {
		tempo = m.Tempo
	}
	if tempo <= 0 {
		tempo = 120
	}
	return m.LengthBeats() * 60 / tempo
}

// Copy makes a deep copy of the Melody.
func (m *Melody) Copy() Melody {
	ret := *m
	ret.Instrument = m.Instrument.Copy()
	ret.Events = make([]Event, len(m.Events))
	for i, e := range m.Events {
		ne := Event{Rest: e.Rest}
		if e.Note != nil {
			n := *e.Note
			if e.Note.Pan != nil {
				p := *e.Note.Pan
				n.Pan = &p
			}
			if e.Note.SlideTo != nil {
				s := *e.Note.SlideTo
				n.SlideTo = &s
			}
			ne.Note = &n
		}
		if e.Chord != nil {
			c := *e.Chord
			c.Pitches = append([]float32(nil), e.Chord.Pitches...)
			ne.Chord = &c
		}
		ret.Events[i] = ne
	}
	if m.Loop != nil {
		l := *m.Loop
		ret.Loop = &l
	}
	return ret
}
