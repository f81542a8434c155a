package ffmpeg

import (
	"context"
	"fmt"
	"strings"
)

// Audio extraction parameters: 16-bit little-endian PCM, 44.1kHz stereo.
// Every derived artifact inherits this format.
const (
	extractCodec    = "pcm_s16le"
	extractRate     = "44100"
	extractChannels = "2"
)

// ExtractAudio pulls the audio track out of a video file into a WAV file.
func (e *Executor) ExtractAudio(ctx context.Context, videoPath, wavPath string) error {
	return e.Run(ctx,
		"-y",
		"-loglevel", "error",
		"-i", videoPath,
		"-vn",
		"-acodec", extractCodec,
		"-ar", extractRate,
		"-ac", extractChannels,
		wavPath,
	)
}

// MuxAudio replaces the audio track of a video with the given WAV file,
// copying the video stream and encoding the audio as AAC.
func (e *Executor) MuxAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	return e.Run(ctx,
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		outPath,
	)
}

// atempo's supported range per filter instance. Factors outside it are
// reached by chaining instances.
const (
	atempoMin = 0.5
	atempoMax = 2.0
)

// Stretch time-stretches src by the duration ratio (output duration =
// input duration * ratio) without changing pitch, writing the result to dst.
func (e *Executor) Stretch(ctx context.Context, src, dst string, ratio float64) error {
	if ratio <= 0 {
		return fmt.Errorf("%w: non-positive stretch ratio %f", ErrExec, ratio)
	}
	return e.Run(ctx,
		"-y",
		"-loglevel", "error",
		"-i", src,
		"-filter:a", atempoChain(1/ratio),
		dst,
	)
}

// atempoChain builds an atempo filter expression for the given tempo factor,
// chaining instances when the factor falls outside a single instance's
// supported range.
func atempoChain(tempo float64) string {
	var parts []string
	for tempo < atempoMin {
		parts = append(parts, fmt.Sprintf("atempo=%.6f", atempoMin))
		tempo /= atempoMin
	}
	for tempo > atempoMax {
		parts = append(parts, fmt.Sprintf("atempo=%.6f", atempoMax))
		tempo /= atempoMax
	}
	parts = append(parts, fmt.Sprintf("atempo=%.6f", tempo))
	return strings.Join(parts, ",")
}
