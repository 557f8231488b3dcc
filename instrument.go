package carillon

import "fmt"

// WaveformKind enumerates the synthesized waveform shapes. The set is closed:
// it is fixed by the melody file format and never grows at runtime.
type WaveformKind int

const (
	Sine WaveformKind = iota
	Square
	Triangle
	Sawtooth
	Noise
)

var waveformNames = [...]string{"sine", "square", "triangle", "sawtooth", "noise"}

func (k WaveformKind) String() string {
	if k < 0 || int(k) >= len(waveformNames) {
		return "unknown"
	}
	return waveformNames[k]
}

// ParseWaveformKind parses a waveform name as it appears in melody files.
func ParseWaveformKind(s string) (WaveformKind, error) {
	for i, name := range waveformNames {
		if s == name {
			return WaveformKind(i), nil
		}
	}
	return Sine, fmt.Errorf("%w: unknown waveform %q", ErrUnsupportedFormat, s)
}

func (k WaveformKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

func (k *WaveformKind) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	kind, err := ParseWaveformKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Instrument describes how the notes of a melody should sound. The signal
// source is either a synthesized waveform or a named sample: a non-empty
// Sample takes precedence over Waveform. ADSR times are in seconds, Sustain
// is a level in [0,1]. Pan is -1 (left) to 1 (right). Detune is in cents.
type Instrument struct {
	Name     string       `yaml:"name,omitempty"`
	Waveform WaveformKind `yaml:"waveform"`
	Sample   string       `yaml:"sample,omitempty"`

	Attack  float32 `yaml:"attack"`
	Decay   float32 `yaml:"decay"`
	Sustain float32 `yaml:"sustain"`
	Release float32 `yaml:"release"`

	Volume float32 `yaml:"volume"`
	Pitch  float32 `yaml:"pitch"`
	Pan    float32 `yaml:"pan"`
	Detune float32 `yaml:"detune"`

	Effects EffectsRack `yaml:"effects,omitempty"`
}

// Sampled reports whether the instrument plays a sample rather than a
// synthesized waveform.
func (i *Instrument) Sampled() bool { return i.Sample != "" }

// DefaultInstrument returns the instrument used when a melody file does not
// override anything: a plain sine with a gentle envelope.
func DefaultInstrument() Instrument {
	return Instrument{
		Waveform: Sine,
		Attack:   0.01,
		Decay:    0.1,
		Sustain:  0.8,
		Release:  0.2,
		Volume:   0.5,
		Pitch:    1.0,
	}
}

// Copy makes a deep copy of the Instrument.
func (i *Instrument) Copy() Instrument {
	ret := *i
	ret.Effects = i.Effects.Copy()
	return ret
}
