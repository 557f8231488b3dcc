package carillon

import "fmt"

// TrackOverrides replace or add to the referenced melody's own settings when
// the track is bound into a session. A nil field leaves the melody's value in
// place; a set effect override substitutes the melody's unit of that kind,
// adding it if the melody has none.
type TrackOverrides struct {
	Volume     *float32          `yaml:"volume,omitempty"`
	Pitch      *float32          `yaml:"pitch,omitempty"`
	Tempo      *float32          `yaml:"tempo,omitempty"`
	Pan        *float32          `yaml:"pan,omitempty"`
	Filter     *FilterParams     `yaml:"filter,omitempty"`
	Distortion *DistortionParams `yaml:"distortion,omitempty"`
	Delay      *DelayParams      `yaml:"delay,omitempty"`
	Reverb     *ReverbParams     `yaml:"reverb,omitempty"`
}

// Track places a named melody at a start offset within an arrangement,
// optionally overriding its parameters. The melody name is resolved against
// the melody cache when the arrangement is bound to a playback session.
type Track struct {
	Melody    string         `yaml:"melody"`
	Start     float32        `yaml:"start"`
	Overrides TrackOverrides `yaml:"overrides,omitempty"`
}

// Arrangement is a named collection of tracks with shared fade / loop / tempo
// metadata. Arrangements are immutable once loaded; playing one binds it to a
// fresh playback session.
type Arrangement struct {
	Name        string     `yaml:"name"`
	Tracks      []Track    `yaml:"tracks"`
	MasterTempo *float32   `yaml:"master_tempo,omitempty"`
	FadeIn      float32    `yaml:"fade_in,omitempty"`
	FadeOut     float32    `yaml:"fade_out,omitempty"`
	Loop        *LoopPoint `yaml:"loop,omitempty"`
}

// Validate checks that the arrangement can be bound at all: it must reference
// at least one track and track start offsets must not be negative.
func (a *Arrangement) Validate() error {
	if len(a.Tracks) == 0 {
		return fmt.Errorf("%w: arrangement %q has no tracks", ErrUnsupportedFormat, a.Name)
	}
	for i, t := range a.Tracks {
		if t.Melody == "" {
			return fmt.Errorf("%w: arrangement %q track %d has no melody name", ErrUnsupportedFormat, a.Name, i)
		}
		if t.Start < 0 {
			return fmt.Errorf("%w: arrangement %q track %d starts before zero", ErrUnsupportedFormat, a.Name, i)
		}
	}
	return nil
}

// Copy makes a deep copy of the Arrangement.
func (a *Arrangement) Copy() Arrangement {
	ret := *a
	ret.Tracks = make([]Track, len(a.Tracks))
	for i, t := range a.Tracks {
		nt := Track{Melody: t.Melody, Start: t.Start}
		o := &t.Overrides
		no := &nt.Overrides
		if o.Volume != nil {
			v := *o.Volume
			no.Volume = &v
		}
		if o.Pitch != nil {
			v := *o.Pitch
			no.Pitch = &v
		}
		if o.Tempo != nil {
			v := *o.Tempo
			no.Tempo = &v
		}
		if o.Pan != nil {
			v := *o.Pan
			no.Pan = &v
		}
		if o.Filter != nil {
			v := *o.Filter
			no.Filter = &v
		}
		if o.Distortion != nil {
			v := *o.Distortion
			no.Distortion = &v
		}
		if o.Delay != nil {
			v := *o.Delay
			no.Delay = &v
		}
		if o.Reverb != nil {
			v := *o.Reverb
			no.Reverb = &v
		}
		ret.Tracks[i] = nt
	}
	if a.MasterTempo != nil {
		v := *a.MasterTempo
		ret.MasterTempo = &v
	}
	if a.Loop != nil {
		l := *a.Loop
		ret.Loop = &l
	}
	return ret
}
