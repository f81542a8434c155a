package asr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-dub/internal/timeline"
)

// SegmentsFile is the recognition artifact written into the work directory.
const SegmentsFile = "whisper_ts.json"

// SaveSegments writes recognition segments as indented JSON under dir.
func SaveSegments(dir string, segments []timeline.TextSegment) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(segments); err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	path := filepath.Join(dir, SegmentsFile)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadSegments reads a previously saved recognition artifact.
func LoadSegments(dir string) ([]timeline.TextSegment, error) {
	path := filepath.Join(dir, SegmentsFile)
	data, err := os.ReadFile(path) // #nosec G304 -- path built from configured work dir
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, timeline.ErrMissingArtifact)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var segments []timeline.TextSegment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return segments, nil
}
