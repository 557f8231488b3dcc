package carillon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chewxy/math32"
)

// Octave-0 base frequencies of the seven natural notes, in Hz. Every other
// pitch is derived from these: one semitone is a factor of 2^(1/12), one
// octave a factor of 2.
var noteBase = map[byte]float32{
	'C': 16.35,
	'D': 18.35,
	'E': 20.60,
	'F': 21.83,
	'G': 24.50,
	'A': 27.50,
	'B': 30.87,
}

const (
	semitoneUp   = 1.059463 // 2^(1/12)
	semitoneDown = 0.943874 // 2^(-1/12)
)

// NoteFrequency converts a note name like "C4", "F#2" or "Bb3" to a frequency
// in Hz. Accidentals accept '#'/'S' for sharp and 'b'/'F' for flat. The octave
// digit is required and must be non-negative.
func NoteFrequency(name string) (float32, error) {
	s := strings.ToUpper(strings.TrimSpace(name))
	if s == "" {
		return 0, fmt.Errorf("%w: empty note name", ErrUnsupportedFormat)
	}
	freq, ok := noteBase[s[0]]
	if !ok {
		return 0, fmt.Errorf("%w: invalid note name %q", ErrUnsupportedFormat, name)
	}
	rest := s[1:]
	if rest != "" {
		switch rest[0] {
		case '#', 'S':
			freq *= semitoneUp
			rest = rest[1:]
		case 'B', 'F':
			freq *= semitoneDown
			rest = rest[1:]
		}
	}
	octave, err := strconv.Atoi(rest)
	if err != nil || octave < 0 {
		return 0, fmt.Errorf("%w: invalid octave in note %q", ErrUnsupportedFormat, name)
	}
	return freq * math32.Exp2(float32(octave)), nil
}

// ReferenceFrequency is the pitch at which sampled instruments play at their
// recorded speed (middle C). Other notes scale the playback rate relative to
// it.
const ReferenceFrequency float32 = 261.63
