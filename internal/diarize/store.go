package diarize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-dub/internal/timeline"
)

// TurnsFile is the diarization artifact written into the work directory.
const TurnsFile = "diarization.json"

// SaveTurns writes speaker turns as indented JSON under dir.
func SaveTurns(dir string, turns []timeline.SpeakerSegment) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(turns); err != nil {
		return fmt.Errorf("encode turns: %w", err)
	}
	path := filepath.Join(dir, TurnsFile)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadTurns reads a previously saved diarization artifact.
func LoadTurns(dir string) ([]timeline.SpeakerSegment, error) {
	path := filepath.Join(dir, TurnsFile)
	data, err := os.ReadFile(path) // #nosec G304 -- path built from configured work dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, timeline.ErrMissingArtifact)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var turns []timeline.SpeakerSegment
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return turns, nil
}
