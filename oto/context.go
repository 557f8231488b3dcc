// Package oto implements the audio device backend on top of ebitengine/oto.
// The device pulls interleaved stereo float32 samples from a
// carillon.AudioSource through an io.Reader adapter.
package oto

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/carillon-audio/carillon"
)

type Context struct {
	context    *oto.Context
	sampleRate int
}

// NewContext opens the default audio device for stereo float32 output at the
// given sample rate. It blocks until the device is ready.
func NewContext(sampleRate int) (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   50 * time.Millisecond,
	}
	context, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", carillon.ErrDeviceUnavailable, err)
	}
	<-ready
	return &Context{context: context, sampleRate: sampleRate}, nil
}

// Play starts pulling audio from the source and playing it on the device.
// The source keeps being pulled until the returned player is closed.
func (c *Context) Play(source carillon.AudioSource) carillon.CloserWaiter {
	player := c.context.NewPlayer(&sourceReader{source: source})
	player.Play()
	return &otoPlayer{player: player}
}

func (c *Context) Close() error {
	return c.context.Suspend()
}

// sourceReader adapts an AudioSource to the byte stream oto expects:
// little-endian float32, interleaved stereo.
type sourceReader struct {
	source  carillon.AudioSource
	scratch []float32
}

func (r *sourceReader) Read(p []byte) (int, error) {
	floats := len(p) / 4
	if floats == 0 {
		return 0, nil
	}
	if cap(r.scratch) < floats {
		r.scratch = make([]float32, floats)
	}
	n, err := r.source.ReadAudio(r.scratch[:floats])
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.scratch[i]))
	}
	return n * 4, err
}

type otoPlayer struct {
	player *oto.Player
}

func (p *otoPlayer) Close() error {
	return p.player.Close()
}

// Wait blocks until the device player has drained, polling because oto has no
// completion callback.
func (p *otoPlayer) Wait() {
	for p.player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
}
