// Package melfile parses melody (.mel) and arrangement (.bmi) files. Both
// are line formats: one "key: value" directive per line, // comments, blank
// lines ignored. YAML versions of both are supported for tooling that wants
// to generate files programmatically.
package melfile

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/carillon-audio/carillon"
)

// ParseMelody parses the .mel line format. Instrument directives may appear
// anywhere but apply to the whole melody; event directives append in order.
func ParseMelody(data []byte) (*carillon.Melody, error) {
	m := carillon.NewMelody("")
	for no, line := range lines(data) {
		key, val, ok := directive(line)
		if !ok {
			continue
		}
		if err := melodyDirective(m, key, val); err != nil {
			return nil, fmt.Errorf("line %d: %w", no+1, err)
		}
	}
	return m, nil
}

// UnmarshalMelody parses the YAML melody format.
func UnmarshalMelody(data []byte) (*carillon.Melody, error) {
	m := carillon.NewMelody("")
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %v", carillon.ErrUnsupportedFormat, err)
	}
	return m, nil
}

// lines splits the input, strips // comments and trims whitespace. The
// original line numbers are preserved through the slice index.
func lines(data []byte) []string {
	raw := strings.Split(string(data), "\n")
	for i, l := range raw {
		if idx := strings.Index(l, "//"); idx >= 0 {
			l = l[:idx]
		}
		raw[i] = strings.TrimSpace(l)
	}
	return raw
}

func directive(line string) (key, val string, ok bool) {
	if line == "" {
		return "", "", false
	}
	key, val, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(val), true
}

func melodyDirective(m *carillon.Melody, key, val string) error {
	switch key {
	case "name":
		m.Name = val
		return nil
	case "tempo":
		return parseFloat(val, &m.Tempo)
	case "time_sig":
		return parseTimeSignature(val, &m.TimeSignature)
	case "swing":
		return parseFloat(val, &m.Swing)
	case "loop":
		return parseLoop(val, &m.Loop)
	case "waveform":
		kind, err := carillon.ParseWaveformKind(val)
		if err != nil {
			return err
		}
		m.Instrument.Waveform = kind
		return nil
	case "sample":
		m.Instrument.Sample = val
		return nil
	case "volume":
		return parseFloat(val, &m.Instrument.Volume)
	case "attack":
		return parseFloat(val, &m.Instrument.Attack)
	case "decay":
		return parseFloat(val, &m.Instrument.Decay)
	case "sustain":
		return parseFloat(val, &m.Instrument.Sustain)
	case "release":
		return parseFloat(val, &m.Instrument.Release)
	case "pitch":
		return parseFloat(val, &m.Instrument.Pitch)
	case "pan":
		return parseFloat(val, &m.Instrument.Pan)
	case "detune":
		return parseFloat(val, &m.Instrument.Detune)
	case "filter":
		p, err := parseFilter(strings.Split(val, ","))
		if err != nil {
			return err
		}
		m.Instrument.Effects.Filter = p
		return nil
	case "distortion":
		p, err := parseDistortion(strings.Split(val, ","))
		if err != nil {
			return err
		}
		m.Instrument.Effects.Distortion = p
		return nil
	case "delay":
		p, err := parseDelay(strings.Split(val, ","))
		if err != nil {
			return err
		}
		m.Instrument.Effects.Delay = p
		return nil
	case "reverb":
		p, err := parseReverb(strings.Split(val, ","))
		if err != nil {
			return err
		}
		m.Instrument.Effects.Reverb = p
		return nil
	case "note":
		ev, err := parseNoteEvent(val)
		if err != nil {
			return err
		}
		m.Events = append(m.Events, ev)
		return nil
	case "chord":
		ev, err := parseChordEvent(val)
		if err != nil {
			return err
		}
		m.Events = append(m.Events, ev)
		return nil
	case "rest":
		var dur float32
		if err := parseFloat(val, &dur); err != nil {
			return err
		}
		m.Events = append(m.Events, carillon.Event{Rest: dur})
		return nil
	}
	return fmt.Errorf("%w: unknown directive %q", carillon.ErrUnsupportedFormat, key)
}

// parseNoteEvent parses "C4,1,0.8" plus optional "pan=-0.5" and "slide=G4"
// fields in any order.
func parseNoteEvent(val string) (carillon.Event, error) {
	fields := splitFields(val)
	if len(fields) < 2 {
		return carillon.Event{}, fmt.Errorf("%w: note needs pitch and duration: %q", carillon.ErrUnsupportedFormat, val)
	}
	pitch, err := carillon.NoteFrequency(fields[0])
	if err != nil {
		return carillon.Event{}, err
	}
	n := &carillon.Note{Pitch: pitch, Velocity: 1}
	if err := parseFloat(fields[1], &n.Duration); err != nil {
		return carillon.Event{}, err
	}
	for _, f := range fields[2:] {
		if opt, arg, ok := strings.Cut(f, "="); ok {
			switch strings.ToLower(strings.TrimSpace(opt)) {
			case "pan":
				var pan float32
				if err := parseFloat(arg, &pan); err != nil {
					return carillon.Event{}, err
				}
				n.Pan = &pan
			case "slide":
				target, err := carillon.NoteFrequency(arg)
				if err != nil {
					return carillon.Event{}, err
				}
				n.SlideTo = &target
			default:
				return carillon.Event{}, fmt.Errorf("%w: unknown note option %q", carillon.ErrUnsupportedFormat, opt)
			}
			continue
		}
		if err := parseFloat(f, &n.Velocity); err != nil {
			return carillon.Event{}, err
		}
	}
	return carillon.Event{Note: n}, nil
}

// parseChordEvent parses "C4+E4+G4,1,0.8".
func parseChordEvent(val string) (carillon.Event, error) {
	fields := splitFields(val)
	if len(fields) < 2 {
		return carillon.Event{}, fmt.Errorf("%w: chord needs pitches and duration: %q", carillon.ErrUnsupportedFormat, val)
	}
	c := &carillon.Chord{Velocity: 1}
	for _, name := range strings.Split(fields[0], "+") {
		pitch, err := carillon.NoteFrequency(name)
		if err != nil {
			return carillon.Event{}, err
		}
		c.Pitches = append(c.Pitches, pitch)
	}
	if len(c.Pitches) == 0 {
		return carillon.Event{}, fmt.Errorf("%w: empty chord", carillon.ErrUnsupportedFormat)
	}
	if err := parseFloat(fields[1], &c.Duration); err != nil {
		return carillon.Event{}, err
	}
	if len(fields) > 2 {
		if err := parseFloat(fields[2], &c.Velocity); err != nil {
			return carillon.Event{}, err
		}
	}
	return carillon.Event{Chord: c}, nil
}

func splitFields(val string) []string {
	fields := strings.Split(val, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func parseFloat(s string, out *float32) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return fmt.Errorf("%w: bad number %q", carillon.ErrUnsupportedFormat, s)
	}
	*out = float32(v)
	return nil
}

func parseTimeSignature(val string, out *carillon.TimeSignature) error {
	numStr, denStr, ok := strings.Cut(val, "/")
	if !ok {
		return fmt.Errorf("%w: time signature %q (expected e.g. 4/4)", carillon.ErrUnsupportedFormat, val)
	}
	num, err1 := strconv.Atoi(strings.TrimSpace(numStr))
	den, err2 := strconv.Atoi(strings.TrimSpace(denStr))
	if err1 != nil || err2 != nil || num < 1 || den < 1 {
		return fmt.Errorf("%w: time signature %q", carillon.ErrUnsupportedFormat, val)
	}
	out.Beats = num
	out.Value = den
	return nil
}

func parseLoop(val string, out **carillon.LoopPoint) error {
	fields := splitFields(val)
	if len(fields) != 2 {
		return fmt.Errorf("%w: loop %q (expected start,end seconds)", carillon.ErrUnsupportedFormat, val)
	}
	var lp carillon.LoopPoint
	if err := parseFloat(fields[0], &lp.Start); err != nil {
		return err
	}
	if err := parseFloat(fields[1], &lp.End); err != nil {
		return err
	}
	if lp.End <= lp.Start {
		return fmt.Errorf("%w: loop end %v not after start %v", carillon.ErrUnsupportedFormat, lp.End, lp.Start)
	}
	*out = &lp
	return nil
}
