package carillon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// SampleData is a decoded audio sample: interleaved float32 frames at a fixed
// source rate. Mono and stereo data are supported. SampleData is read-only
// once loaded; the sample cache replaces entries instead of mutating them.
type SampleData struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// Frames returns the number of frames (samples per channel) in the data.
func (s *SampleData) Frames() int {
	if s.Channels <= 0 {
		return 0
	}
	return len(s.Samples) / s.Channels
}

// Frame returns the left/right values of frame i; mono data is duplicated to
// both channels. Out-of-range frames are silent.
func (s *SampleData) Frame(i int) (l, r float32) {
	if i < 0 || i >= s.Frames() {
		return 0, 0
	}
	if s.Channels == 1 {
		v := s.Samples[i]
		return v, v
	}
	return s.Samples[i*s.Channels], s.Samples[i*s.Channels+1]
}

// ReadWav decodes a .wav file into SampleData. 16-bit PCM and 32-bit IEEE
// float data are supported; anything else is ErrUnsupportedFormat. The chunk
// walk mirrors the header layout written by AudioBuffer.Wav.
func ReadWav(r io.Reader) (*SampleData, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ReadWav: %w", err)
	}
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, fmt.Errorf("%w: not a RIFF/WAVE file", ErrUnsupportedFormat)
	}
	var (
		format, channels, bits int
		rate                   int
		sampleBytes            []byte
	)
	for pos := 12; pos+8 <= len(data); {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := data[pos+8:]
		if size > len(body) {
			size = len(body)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: truncated fmt chunk", ErrUnsupportedFormat)
			}
			format = int(binary.LittleEndian.Uint16(body[0:2]))
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			rate = int(binary.LittleEndian.Uint32(body[4:8]))
			bits = int(binary.LittleEndian.Uint16(body[14:16]))
		case "data":
			sampleBytes = body[:size]
		}
		pos += 8 + size
		if size%2 == 1 {
			pos++ // chunks are word aligned
		}
	}
	if sampleBytes == nil || channels == 0 {
		return nil, fmt.Errorf("%w: missing fmt or data chunk", ErrUnsupportedFormat)
	}
	if channels > 2 {
		return nil, fmt.Errorf("%w: %d channels (mono or stereo expected)", ErrUnsupportedFormat, channels)
	}
	var samples []float32
	switch {
	case format == 1 && bits == 16:
		n := len(sampleBytes) / 2
		samples = make([]float32, n)
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(sampleBytes[i*2:]))
			samples[i] = float32(v) / 32768.0
		}
	case format == 3 && bits == 32:
		n := len(sampleBytes) / 4
		samples = make([]float32, n)
		for i := 0; i < n; i++ {
			samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(sampleBytes[i*4:]))
		}
	default:
		return nil, fmt.Errorf("%w: wave format %d with %d bits", ErrUnsupportedFormat, format, bits)
	}
	return &SampleData{Samples: samples, Channels: channels, SampleRate: rate}, nil
}
