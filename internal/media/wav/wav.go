package wav

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gopxl/beep"
	beepwav "github.com/gopxl/beep/wav"
)

// SpeechFormat is the layout the extractor produces: mono 16 kHz 16-bit.
var SpeechFormat = beep.Format{SampleRate: 16000, NumChannels: 1, Precision: 2}

// ErrInvalid reports a payload that is not a supported PCM WAV file.
var ErrInvalid = errors.New("invalid wav")

func validate(f beep.Format) error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalid, f.SampleRate)
	}
	if f.NumChannels < 1 || f.NumChannels > 2 {
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalid, f.NumChannels)
	}
	if f.Precision < 1 || f.Precision > 3 {
		return fmt.Errorf("%w: unsupported bit depth %d", ErrInvalid, f.Precision*8)
	}
	return nil
}

// Stream is decoded audio, or a frame range of it.
type Stream struct {
	buf      *beep.Buffer
	from, to int
}

func newStream(buf *beep.Buffer) *Stream {
	return &Stream{buf: buf, to: buf.Len()}
}

// Format returns the sample layout.
func (s *Stream) Format() beep.Format {
	return s.buf.Format()
}

// SampleRate returns the frames per second.
func (s *Stream) SampleRate() int {
	return int(s.buf.Format().SampleRate)
}

// Frames returns the number of sample frames.
func (s *Stream) Frames() int {
	if s == nil {
		return 0
	}
	return s.to - s.from
}

// Duration returns the stream length.
func (s *Stream) Duration() time.Duration {
	if s == nil {
		return 0
	}
	return s.buf.Format().SampleRate.D(s.Frames())
}

// DurationMs returns the stream length in whole milliseconds.
func (s *Stream) DurationMs() int64 {
	return s.Duration().Milliseconds()
}

// Streamer returns a fresh reader positioned at the start of the stream.
func (s *Stream) Streamer() beep.StreamSeeker {
	return s.buf.Streamer(s.from, s.to)
}

// Slice returns the frames covering [startMs, endMs), clamped to the stream
// bounds. The result shares samples with s.
func (s *Stream) Slice(startMs, endMs int64) *Stream {
	first := min(max(s.frameAt(startMs), 0), s.Frames())
	last := min(max(s.frameAt(endMs), first), s.Frames())
	return &Stream{buf: s.buf, from: s.from + first, to: s.from + last}
}

func (s *Stream) frameAt(ms int64) int {
	return s.buf.Format().SampleRate.N(time.Duration(ms) * time.Millisecond)
}

// Decode reads a RIFF/WAVE payload fully into memory.
func Decode(r io.Reader) (*Stream, error) {
	streamer, format, err := beepwav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := validate(format); err != nil {
		return nil, err
	}
	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("%w: read samples: %w", ErrInvalid, err)
	}
	return newStream(buf), nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*Stream, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	stream, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stream, nil
}

// Encode writes s as a WAV file in its own format.
func Encode(w io.WriteSeeker, s *Stream) error {
	if err := validate(s.Format()); err != nil {
		return err
	}
	return beepwav.Encode(w, s.Streamer(), s.Format())
}

// WriteFile encodes s to path, replacing any existing file.
func WriteFile(path string, s *Stream) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(file, s); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Silence returns durationMs of silent audio in format.
func Silence(format beep.Format, durationMs int64) *Stream {
	buf := beep.NewBuffer(format)
	if n := format.SampleRate.N(time.Duration(durationMs) * time.Millisecond); n > 0 {
		buf.Append(beep.Silence(n))
	}
	return newStream(buf)
}
