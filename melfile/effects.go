package melfile

import (
	"fmt"

	"github.com/carillon-audio/carillon"
)

// The effect directives share a positional field layout between the melody
// and arrangement formats; only the separator differs (commas in .mel,
// colons inside .bmi track options). Omitted trailing fields keep their
// defaults.

func parseFilter(fields []string) (*carillon.FilterParams, error) {
	p := carillon.DefaultFilterParams()
	if len(fields) < 1 || fields[0] == "" {
		return nil, fmt.Errorf("%w: filter needs a kind", carillon.ErrUnsupportedFormat)
	}
	p.Kind = carillon.ParseFilterKind(fields[0])
	if err := optFloats(fields[1:], &p.Cutoff, &p.Resonance); err != nil {
		return nil, err
	}
	return &p, nil
}

func parseDistortion(fields []string) (*carillon.DistortionParams, error) {
	p := carillon.DefaultDistortionParams()
	if err := optFloats(fields, &p.Drive, &p.Tone, &p.Wet); err != nil {
		return nil, err
	}
	return &p, nil
}

func parseDelay(fields []string) (*carillon.DelayParams, error) {
	p := carillon.DefaultDelayParams()
	if err := optFloats(fields, &p.Time, &p.Feedback, &p.Wet); err != nil {
		return nil, err
	}
	return &p, nil
}

func parseReverb(fields []string) (*carillon.ReverbParams, error) {
	p := carillon.DefaultReverbParams()
	if err := optFloats(fields, &p.RoomSize, &p.Damping, &p.Wet, &p.Width); err != nil {
		return nil, err
	}
	return &p, nil
}

// optFloats assigns positional fields to the given targets; missing or empty
// fields leave the target untouched.
func optFloats(fields []string, targets ...*float32) error {
	for i, f := range fields {
		if i >= len(targets) {
			return fmt.Errorf("%w: too many effect fields", carillon.ErrUnsupportedFormat)
		}
		if f == "" {
			continue
		}
		if err := parseFloat(f, targets[i]); err != nil {
			return err
		}
	}
	return nil
}
