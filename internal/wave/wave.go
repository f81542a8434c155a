// Package wave provides the in-memory waveform operations the resynthesis
// engine is built on: loading and storing WAV files, millisecond-addressed
// slicing, additive overlay mixing, and concatenation.
//
// All operations work on 16-bit interleaved PCM. Sample positions are always
// derived from millisecond offsets via the buffer's own sample rate, so the
// same utterance bounds address the same audio regardless of track format.
package wave

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// bitDepth is the PCM bit depth used for every artifact the pipeline writes.
const bitDepth = 16

// Saturation bounds for 16-bit samples.
const (
	sampleMax = 1<<(bitDepth-1) - 1
	sampleMin = -(1 << (bitDepth - 1))
)

// Buffer is a decoded waveform: interleaved 16-bit PCM samples plus format.
type Buffer struct {
	// Data holds interleaved samples, Channels values per frame.
	Data []int
	// Rate is the sample rate in Hz.
	Rate int
	// Channels is the number of interleaved channels.
	Channels int
}

// Silence returns an all-zero buffer of the given duration and format.
func Silence(ms, rate, channels int) *Buffer {
	b := &Buffer{Rate: rate, Channels: channels}
	b.Data = make([]int, b.frameAt(ms)*channels)
	return b
}

// Load decodes a WAV file into memory.
func Load(path string) (*Buffer, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from the pipeline working directory
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrNotWAV, path)
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", path, err)
	}
	return &Buffer{
		Data:     pcm.Data,
		Rate:     pcm.Format.SampleRate,
		Channels: pcm.Format.NumChannels,
	}, nil
}

// Store writes the buffer as a 16-bit PCM WAV file at path. The buffer is
// complete in memory before Store is called, so the file at the final path
// is always a whole artifact.
func (b *Buffer) Store(path string) error {
	f, err := os.Create(path) // #nosec G304 -- path comes from the pipeline working directory
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}

	enc := wav.NewEncoder(f, b.Rate, bitDepth, b.Channels, 1)
	err = enc.Write(&audio.IntBuffer{
		Data:           b.Data,
		Format:         &audio.Format{SampleRate: b.Rate, NumChannels: b.Channels},
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("encode wav %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize wav %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close wav %s: %w", path, err)
	}
	return nil
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// DurationMS returns the buffer length in whole milliseconds.
func (b *Buffer) DurationMS() int {
	if b.Rate == 0 {
		return 0
	}
	return b.Frames() * 1000 / b.Rate
}

// frameAt converts a millisecond offset to a frame index.
func (b *Buffer) frameAt(ms int) int {
	return ms * b.Rate / 1000
}

// SliceMS returns a copy of the samples in [startMS, endMS), clipped to the
// track bounds. Requests entirely outside the track yield an empty buffer of
// the same format.
func (b *Buffer) SliceMS(startMS, endMS int) *Buffer {
	lo := b.frameAt(startMS) * b.Channels
	hi := b.frameAt(endMS) * b.Channels
	lo = max(0, min(lo, len(b.Data)))
	hi = max(lo, min(hi, len(b.Data)))

	out := &Buffer{Rate: b.Rate, Channels: b.Channels, Data: make([]int, hi-lo)}
	copy(out.Data, b.Data[lo:hi])
	return out
}

// TrimMS returns a copy truncated to at most ms milliseconds. Buffers
// already shorter than ms are returned unchanged in length; no padding is
// ever added.
func (b *Buffer) TrimMS(ms int) *Buffer {
	return b.SliceMS(0, min(ms, b.DurationMS()))
}

// Overlay mixes clip additively into the buffer starting at atMS, saturating
// at the 16-bit range. Samples of the clip that would fall past the end of
// the buffer are dropped; the buffer never grows.
func (b *Buffer) Overlay(clip *Buffer, atMS int) error {
	if clip.Rate != b.Rate || clip.Channels != b.Channels {
		return fmt.Errorf("%w: background %dHz/%dch, clip %dHz/%dch",
			ErrFormatMismatch, b.Rate, b.Channels, clip.Rate, clip.Channels)
	}

	at := b.frameAt(atMS) * b.Channels
	for i, s := range clip.Data {
		j := at + i
		if j < 0 {
			continue
		}
		if j >= len(b.Data) {
			break
		}
		mixed := b.Data[j] + s
		if mixed > sampleMax {
			mixed = sampleMax
		} else if mixed < sampleMin {
			mixed = sampleMin
		}
		b.Data[j] = mixed
	}
	return nil
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{Rate: b.Rate, Channels: b.Channels, Data: make([]int, len(b.Data))}
	copy(out.Data, b.Data)
	return out
}

// Concat joins parts into one buffer in order. All parts must share the
// format of the first.
func Concat(parts ...*Buffer) (*Buffer, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrEmptyInput)
	}

	first := parts[0]
	total := 0
	for _, p := range parts {
		if p.Rate != first.Rate || p.Channels != first.Channels {
			return nil, fmt.Errorf("%w: %dHz/%dch vs %dHz/%dch",
				ErrFormatMismatch, first.Rate, first.Channels, p.Rate, p.Channels)
		}
		total += len(p.Data)
	}

	out := &Buffer{Rate: first.Rate, Channels: first.Channels, Data: make([]int, 0, total)}
	for _, p := range parts {
		out.Data = append(out.Data, p.Data...)
	}
	return out, nil
}
