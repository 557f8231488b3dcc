package carillon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Wav converts an interleaved stereo buffer into a valid WAV file, either
// 16-bit signed PCM or 32-bit float depending on pcm16.
func (buffer AudioBuffer) Wav(sampleRate int, pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	wavHeader(len(buffer), sampleRate, pcm16, buf)
	err := rawToBuffer(buffer, pcm16, buf)
	if err != nil {
		return nil, fmt.Errorf("Wav failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Raw converts an interleaved stereo buffer into a headerless sample dump,
// either 16-bit signed PCM or 32-bit float depending on pcm16.
func (buffer AudioBuffer) Raw(pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	err := rawToBuffer(buffer, pcm16, buf)
	if err != nil {
		return nil, fmt.Errorf("Raw failed: %w", err)
	}
	return buf.Bytes(), nil
}

func rawToBuffer(data AudioBuffer, pcm16 bool, buf *bytes.Buffer) error {
	var err error
	if pcm16 {
		int16data := make([]int16, len(data))
		for i, v := range data {
			int16data[i] = int16(clamp(int(v*math.MaxInt16), math.MinInt16, math.MaxInt16))
		}
		err = binary.Write(buf, binary.LittleEndian, int16data)
	} else {
		err = binary.Write(buf, binary.LittleEndian, data)
	}
	if err != nil {
		return fmt.Errorf("could not binary write data to buffer: %w", err)
	}
	return nil
}

func wavHeader(bufferLength, sampleRate int, pcm16 bool, buf *bytes.Buffer) {
	// Refer to: http://www.topherlee.com/software/pcm-tut-wavformat.html
	// Size of the bytes per sample, in bytes
	sampleSize := 4
	if pcm16 {
		sampleSize = 2
	}
	// Size of the data portion of the file, in bytes
	dataSize := bufferLength * sampleSize
	fmtChunkSize := 16
	waveFormatPCM := 1
	waveFormatIEEEFloat := 3
	factChunkSize := 4
	factChunkHeaderSize := 8
	numChannels := 2
	buf.Write([]byte("RIFF"))
	if pcm16 {
		binary.Write(buf, binary.LittleEndian, uint32(36+dataSize)) // RIFF chunk size
	} else {
		binary.Write(buf, binary.LittleEndian, uint32(36+factChunkHeaderSize+factChunkSize+dataSize)) // RIFF chunk size
	}
	buf.Write([]byte("WAVE"))
	buf.Write([]byte("fmt "))
	binary.Write(buf, binary.LittleEndian, uint32(fmtChunkSize))
	if pcm16 {
		binary.Write(buf, binary.LittleEndian, uint16(waveFormatPCM))
	} else {
		binary.Write(buf, binary.LittleEndian, uint16(waveFormatIEEEFloat))
	}
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*numChannels*sampleSize)) // avgBytesPerSec
	binary.Write(buf, binary.LittleEndian, uint16(numChannels*sampleSize))            // blockAlign
	binary.Write(buf, binary.LittleEndian, uint16(8*sampleSize))                      // bits per sample
	if !pcm16 { // IEEE float formats need a fact chunk
		buf.Write([]byte("fact"))
		binary.Write(buf, binary.LittleEndian, uint32(factChunkSize))
		binary.Write(buf, binary.LittleEndian, uint32(bufferLength/numChannels))
	}
	buf.Write([]byte("data"))
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
