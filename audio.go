package carillon

import "io"

type (
	// AudioSource is something that can produce interleaved stereo float32
	// audio. ReadAudio fills buffer with up to len(buffer) samples (i.e.
	// len(buffer)/2 frames) and returns the number of samples written. It
	// returns io.EOF once the source has no more audio to give.
	AudioSource interface {
		ReadAudio(buffer []float32) (n int, err error)
		Close() error
	}

	// AudioContext is the license to play audio through an output device. The
	// device pulls from the given AudioSource on its own schedule; the
	// goroutine calling ReadAudio is the render context.
	AudioContext interface {
		Play(source AudioSource) CloserWaiter
		Close() error
	}

	// CloserWaiter can be used to close / wait for the playback of an
	// AudioSource to finish.
	CloserWaiter interface {
		Close() error
		Wait()
	}

	// AudioBuffer is a rendered run of interleaved stereo float32 samples.
	AudioBuffer []float32
)

// Source returns an AudioSource that reads through the buffer once and then
// reports io.EOF.
func (b AudioBuffer) Source() AudioSource {
	return &bufferSource{buf: b}
}

type bufferSource struct {
	buf AudioBuffer
}

func (s *bufferSource) ReadAudio(buffer []float32) (int, error) {
	n := copy(buffer, s.buf)
	s.buf = s.buf[n:]
	if len(s.buf) == 0 {
		return n, io.EOF
	}
	return n, nil
}

func (s *bufferSource) Close() error { return nil }
