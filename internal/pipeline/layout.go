package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/alnah/go-dub/internal/asr"
	"github.com/alnah/go-dub/internal/diarize"
	"github.com/alnah/go-dub/internal/mix"
	"github.com/alnah/go-dub/internal/separate"
	"github.com/alnah/go-dub/internal/timeline"
)

// Layout maps the fixed artifact locations inside one video's work
// directory. Every stage reads and writes through it so the stage commands
// and the full run agree on where things live.
type Layout struct {
	// Base is the per-video work directory, <work_dir>/<video stem>.
	Base string
}

// NewLayout derives the work directory for a video file.
func NewLayout(workDir, videoPath string) Layout {
	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	return Layout{Base: filepath.Join(workDir, stem)}
}

// ExtractedAudio is the full soundtrack pulled out of the video.
func (l Layout) ExtractedAudio() string {
	return filepath.Join(l.Base, "extracted_audio.wav")
}

// SeparatedDir holds the demucs stems.
func (l Layout) SeparatedDir() string {
	return filepath.Join(l.Base, "separated_audio")
}

// Vocals is the isolated vocal stem.
func (l Layout) Vocals() string {
	return filepath.Join(l.SeparatedDir(), separate.VocalsFile)
}

// Background is the instrumental stem.
func (l Layout) Background() string {
	return filepath.Join(l.SeparatedDir(), separate.BackgroundFile)
}

// SegmentsPath is the recognition artifact.
func (l Layout) SegmentsPath() string {
	return filepath.Join(l.Base, asr.SegmentsFile)
}

// TurnsPath is the diarization artifact.
func (l Layout) TurnsPath() string {
	return filepath.Join(l.Base, diarize.TurnsFile)
}

// Transcript is the aligned (unmerged) timeline artifact.
func (l Layout) Transcript() string {
	return filepath.Join(l.Base, timeline.TranscriptFile)
}

// Merged is the merged timeline artifact the synthesis stages consume.
func (l Layout) Merged() string {
	return filepath.Join(l.Base, timeline.MergedFile)
}

// SpeakerAudio is the root of the per-speaker clip tree.
func (l Layout) SpeakerAudio() string {
	return filepath.Join(l.Base, "speaker_audio")
}

// FinalMix is the fully composed dubbed soundtrack.
func (l Layout) FinalMix() string {
	return filepath.Join(l.Base, mix.FinalMixFile)
}

// DubbedVideo is the muxed output video.
func (l Layout) DubbedVideo(videoPath string) string {
	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	return filepath.Join(l.Base, stem+"_dubbed.mp4")
}
