package melfile

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/carillon-audio/carillon"
)

// ParseArrangement parses the .bmi line format.
func ParseArrangement(data []byte) (*carillon.Arrangement, error) {
	a := &carillon.Arrangement{}
	for no, line := range lines(data) {
		key, val, ok := directive(line)
		if !ok {
			continue
		}
		if err := arrangementDirective(a, key, val); err != nil {
			return nil, fmt.Errorf("line %d: %w", no+1, err)
		}
	}
	return a, nil
}

// UnmarshalArrangement parses the YAML arrangement format.
func UnmarshalArrangement(data []byte) (*carillon.Arrangement, error) {
	a := &carillon.Arrangement{}
	if err := yaml.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("%w: %v", carillon.ErrUnsupportedFormat, err)
	}
	return a, nil
}

func arrangementDirective(a *carillon.Arrangement, key, val string) error {
	switch key {
	case "name":
		a.Name = val
		return nil
	case "master_tempo":
		var tempo float32
		if err := parseFloat(val, &tempo); err != nil {
			return err
		}
		a.MasterTempo = &tempo
		return nil
	case "fade_in":
		return parseFloat(val, &a.FadeIn)
	case "fade_out":
		return parseFloat(val, &a.FadeOut)
	case "loop":
		return parseLoop(val, &a.Loop)
	case "track":
		t, err := parseTrack(val)
		if err != nil {
			return err
		}
		a.Tracks = append(a.Tracks, t)
		return nil
	}
	return fmt.Errorf("%w: unknown directive %q", carillon.ErrUnsupportedFormat, key)
}

// parseTrack parses "melody,start" plus optional "vol=", "pitch=", "tempo=",
// "pan=" and effect override fields. Effect override values use colons, e.g.
// "filter=lp:1000:0.7".
func parseTrack(val string) (carillon.Track, error) {
	fields := splitFields(val)
	if len(fields) < 1 || fields[0] == "" {
		return carillon.Track{}, fmt.Errorf("%w: track needs a melody name: %q", carillon.ErrUnsupportedFormat, val)
	}
	t := carillon.Track{Melody: fields[0]}
	if len(fields) > 1 && fields[1] != "" && !strings.Contains(fields[1], "=") {
		if err := parseFloat(fields[1], &t.Start); err != nil {
			return carillon.Track{}, err
		}
		fields = fields[2:]
	} else {
		fields = fields[1:]
	}
	for _, f := range fields {
		opt, arg, ok := strings.Cut(f, "=")
		if !ok {
			return carillon.Track{}, fmt.Errorf("%w: bad track option %q", carillon.ErrUnsupportedFormat, f)
		}
		if err := trackOption(&t.Overrides, strings.ToLower(strings.TrimSpace(opt)), strings.TrimSpace(arg)); err != nil {
			return carillon.Track{}, err
		}
	}
	return t, nil
}

func trackOption(o *carillon.TrackOverrides, opt, arg string) error {
	switch opt {
	case "vol", "volume":
		return optFloat(arg, &o.Volume)
	case "pitch":
		return optFloat(arg, &o.Pitch)
	case "tempo":
		return optFloat(arg, &o.Tempo)
	case "pan":
		return optFloat(arg, &o.Pan)
	case "filter":
		p, err := parseFilter(strings.Split(arg, ":"))
		if err != nil {
			return err
		}
		o.Filter = p
		return nil
	case "dist", "distortion":
		p, err := parseDistortion(strings.Split(arg, ":"))
		if err != nil {
			return err
		}
		o.Distortion = p
		return nil
	case "delay":
		p, err := parseDelay(strings.Split(arg, ":"))
		if err != nil {
			return err
		}
		o.Delay = p
		return nil
	case "reverb":
		p, err := parseReverb(strings.Split(arg, ":"))
		if err != nil {
			return err
		}
		o.Reverb = p
		return nil
	}
	return fmt.Errorf("%w: unknown track option %q", carillon.ErrUnsupportedFormat, opt)
}

func optFloat(arg string, out **float32) error {
	var v float32
	if err := parseFloat(arg, &v); err != nil {
		return err
	}
	*out = &v
	return nil
}
