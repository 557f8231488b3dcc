package carillon_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/carillon-audio/carillon"
)

func TestNoteFrequency(t *testing.T) {
	tests := []struct {
		name string
		want float32
	}{
		{"A4", 440.0},
		{"A0", 27.50},
		{"C0", 16.35},
		{"C4", 261.6},
		{"E4", 329.6},
		{"G4", 392.0},
		{"C8", 4185.6},
		{"C#4", 277.2},
		{"CS4", 277.2},
		{"Bb3", 233.1},
		{"F#2", 92.5},
	}
	for _, test := range tests {
		got, err := carillon.NoteFrequency(test.name)
		if err != nil {
			t.Fatalf("NoteFrequency(%q) error: %v", test.name, err)
		}
		relErr := (got - test.want) / test.want
		if relErr < 0 {
			relErr = -relErr
		}
		if relErr > 0.002 {
			t.Errorf("NoteFrequency(%q) = %v, expected %v", test.name, got, test.want)
		}
	}
}

func TestNoteFrequencyOctaveDoubling(t *testing.T) {
	for octave := 0; octave < 8; octave++ {
		low, err := carillon.NoteFrequency(string([]byte{'A', byte('0' + octave)}))
		if err != nil {
			t.Fatal(err)
		}
		high, err := carillon.NoteFrequency(string([]byte{'A', byte('1' + octave)}))
		if err != nil {
			t.Fatal(err)
		}
		ratio := high / low
		if ratio < 1.999 || ratio > 2.001 {
			t.Errorf("octave %d to %d ratio = %v, expected 2", octave, octave+1, ratio)
		}
	}
}

func TestNoteFrequencyInvalid(t *testing.T) {
	for _, name := range []string{"", "H4", "C", "C-1", "Cx4", "4C"} {
		if _, err := carillon.NoteFrequency(name); err == nil {
			t.Errorf("NoteFrequency(%q) expected error, got nil", name)
		}
	}
}

func TestWavRoundTrip(t *testing.T) {
	buffer := carillon.AudioBuffer{0.0, 0.5, -0.5, 1.0, -1.0, 0.25}
	wav, err := buffer.Wav(44100, false)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := carillon.ReadWav(bytes.NewReader(wav))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.SampleRate != 44100 || decoded.Channels != 2 {
		t.Fatalf("decoded header %d Hz / %d ch, expected 44100 / 2", decoded.SampleRate, decoded.Channels)
	}
	if len(decoded.Samples) != len(buffer) {
		t.Fatalf("decoded %d samples, expected %d", len(decoded.Samples), len(buffer))
	}
	for i := range buffer {
		if decoded.Samples[i] != buffer[i] {
			t.Errorf("sample %d = %v, expected %v", i, decoded.Samples[i], buffer[i])
		}
	}
}

func TestAudioBufferSource(t *testing.T) {
	buffer := carillon.AudioBuffer{1, 2, 3, 4, 5, 6}
	src := buffer.Source()
	chunk := make([]float32, 4)
	n, err := src.ReadAudio(chunk)
	if n != 4 || err != nil {
		t.Fatalf("first read: %d, %v", n, err)
	}
	n, err = src.ReadAudio(chunk)
	if n != 2 || err != io.EOF {
		t.Fatalf("final read: %d, %v (expected 2, io.EOF)", n, err)
	}
	if chunk[0] != 5 || chunk[1] != 6 {
		t.Errorf("final read returned %v", chunk[:2])
	}
}

func TestWavPCM16Clamps(t *testing.T) {
	buffer := carillon.AudioBuffer{2.0, -2.0}
	wav, err := buffer.Wav(48000, true)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := carillon.ReadWav(bytes.NewReader(wav))
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Samples[0] < 0.999 || decoded.Samples[1] > -0.999 {
		t.Errorf("overdriven samples decoded as %v, expected clamping to full scale", decoded.Samples)
	}
}
