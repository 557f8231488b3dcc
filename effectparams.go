package carillon

// Parameter sets for the four effect units. These are plain data: the DSP
// state lives in the effects package, instantiated once per chain at bind
// time. Values outside the documented ranges are clamped at instantiation,
// never rejected.

// ReverbParams configures a Freeverb-style reverb. All fields are in [0,1].
type ReverbParams struct {
	RoomSize float32 `yaml:"room_size"`
	Damping  float32 `yaml:"damping"`
	Wet      float32 `yaml:"wet"`
	Width    float32 `yaml:"width"`
}

func DefaultReverbParams() ReverbParams {
	return ReverbParams{RoomSize: 0.5, Damping: 0.5, Wet: 0.3, Width: 1.0}
}

// DelayParams configures a feedback delay. Time is in seconds; Feedback is
// clamped below 1 so the tail always decays.
type DelayParams struct {
	Time     float32 `yaml:"time"`
	Feedback float32 `yaml:"feedback"`
	Wet      float32 `yaml:"wet"`
}

func DefaultDelayParams() DelayParams {
	return DelayParams{Time: 0.25, Feedback: 0.4, Wet: 0.3}
}

// DistortionParams configures a waveshaping distortion. Drive >= 1 is the
// input gain into the shaper; Tone in [0,1] controls the post lowpass
// (0 darkest); Wet in [0,1] is the mix.
type DistortionParams struct {
	Drive float32 `yaml:"drive"`
	Tone  float32 `yaml:"tone"`
	Wet   float32 `yaml:"wet"`
}

func DefaultDistortionParams() DistortionParams {
	return DistortionParams{Drive: 2.0, Tone: 0.7, Wet: 0.5}
}

// FilterKind selects the biquad response type.
type FilterKind int

const (
	Lowpass FilterKind = iota
	Highpass
	Bandpass
)

func (k FilterKind) String() string {
	switch k {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	}
	return "unknown"
}

// ParseFilterKind parses a filter type name; both the long names and the
// lp/hp/bp abbreviations are accepted. Unknown names fall back to lowpass.
func ParseFilterKind(s string) FilterKind {
	switch s {
	case "highpass", "hp":
		return Highpass
	case "bandpass", "bp":
		return Bandpass
	}
	return Lowpass
}

func (k FilterKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

func (k *FilterKind) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*k = ParseFilterKind(s)
	return nil
}

// FilterParams configures a biquad IIR filter. Cutoff is in Hz (clamped below
// Nyquist at bind time); Resonance is the Q factor.
type FilterParams struct {
	Kind      FilterKind `yaml:"kind"`
	Cutoff    float32    `yaml:"cutoff"`
	Resonance float32    `yaml:"resonance"`
}

func DefaultFilterParams() FilterParams {
	return FilterParams{Kind: Lowpass, Cutoff: 1000, Resonance: 0.7}
}

// EffectsRack is the optional set of effect parameters attached to a melody's
// instrument or substituted by a track override. A nil entry means the unit is
// absent from the chain.
type EffectsRack struct {
	Filter     *FilterParams     `yaml:"filter,omitempty"`
	Distortion *DistortionParams `yaml:"distortion,omitempty"`
	Delay      *DelayParams      `yaml:"delay,omitempty"`
	Reverb     *ReverbParams     `yaml:"reverb,omitempty"`
}

// HasAny reports whether any effect unit is configured.
func (r *EffectsRack) HasAny() bool {
	return r.Filter != nil || r.Distortion != nil || r.Delay != nil || r.Reverb != nil
}

// Copy makes a deep copy of the EffectsRack.
func (r *EffectsRack) Copy() EffectsRack {
	var ret EffectsRack
	if r.Filter != nil {
		f := *r.Filter
		ret.Filter = &f
	}
	if r.Distortion != nil {
		d := *r.Distortion
		ret.Distortion = &d
	}
	if r.Delay != nil {
		d := *r.Delay
		ret.Delay = &d
	}
	if r.Reverb != nil {
		rv := *r.Reverb
		ret.Reverb = &rv
	}
	return ret
}
