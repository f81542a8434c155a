// Package clip manages the derived per-utterance audio artifacts: the naming
// scheme that keys every clip by (speaker, index, stage), the slicer that
// cuts the vocals track into per-utterance and per-speaker clips, and the
// reference builder that assembles voice-conversion reference material.
//
// Clips are derived data. Each stage creates its artifacts exactly once and
// never mutates them in place; everything under speaker_audio/ can be
// regenerated from the timeline plus the vocals track.
package clip

import (
	"fmt"
	"path/filepath"

	"github.com/alnah/go-dub/internal/timeline"
)

// speakerAudioDir is the root of all per-speaker artifacts inside a video's
// working directory.
const speakerAudioDir = "speaker_audio"

// Stage identifies one lifecycle step of a per-utterance clip. The stage
// determines both the subdirectory a clip lives in and its filename suffix.
type Stage int

// Clip lifecycle stages, in pipeline order.
const (
	// StageUtterance is the raw cut from the vocals track.
	StageUtterance Stage = iota
	// StageReference is the concatenated voice-conversion reference clip.
	StageReference
	// StageSynthesized is the raw text-to-speech output.
	StageSynthesized
	// StageConverted is the voice-converted synthesis.
	StageConverted
	// StageStretched is the duration-fitted final clip the compositor reads.
	StageStretched
)

// dir returns the stage's subdirectory under a speaker folder.
func (s Stage) dir() string {
	switch s {
	case StageReference:
		return "references"
	case StageSynthesized:
		return "tts"
	case StageConverted:
		return "tts_vc"
	case StageStretched:
		return "tts_vc_stretched"
	default:
		return "utterances"
	}
}

// suffix returns the stage's filename suffix.
func (s Stage) suffix() string {
	switch s {
	case StageReference:
		return "_ref"
	case StageSynthesized:
		return "_tts"
	case StageConverted:
		return "_vc"
	case StageStretched:
		return "_vc_stretched"
	default:
		return ""
	}
}

// String returns the stage's directory name, which doubles as its log label.
func (s Stage) String() string { return s.dir() }

// SpeakerDir returns the folder holding all artifacts of one speaker.
func SpeakerDir(root string, sp timeline.SpeakerID) string {
	return filepath.Join(root, speakerAudioDir, fmt.Sprintf("speaker_%s", sp))
}

// StageDir returns the folder holding one speaker's clips for a stage.
func StageDir(root string, sp timeline.SpeakerID, stage Stage) string {
	return filepath.Join(SpeakerDir(root, sp), stage.dir())
}

// Path returns the on-disk location of one utterance clip. Index is the
// 1-based position within the speaker's own utterance stream.
func Path(root string, sp timeline.SpeakerID, stage Stage, index int) string {
	name := fmt.Sprintf("%s_utt_%02d%s.wav", sp, index, stage.suffix())
	return filepath.Join(StageDir(root, sp, stage), name)
}

// SpeakerTrackPath returns the location of a speaker's concatenated voice
// track, used as the target voice by the voice-conversion model.
func SpeakerTrackPath(root string, sp timeline.SpeakerID) string {
	return filepath.Join(SpeakerDir(root, sp), fmt.Sprintf("speaker_%s.wav", sp))
}
