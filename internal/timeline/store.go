package timeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Artifact filenames used by the pipeline. transcript.json is the aligned
// timeline; transcript_con.json is the merged (concatenated) timeline that
// all later stages consume.
const (
	TranscriptFile = "transcript.json"
	MergedFile     = "transcript_con.json"
)

// Load reads a timeline artifact from path. A missing file is reported as
// ErrMissingArtifact so callers can distinguish the fatal
// required-input-absent class from transient I/O failures.
func Load(path string) (Timeline, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the pipeline working directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, path)
		}
		return nil, fmt.Errorf("read timeline: %w", err)
	}

	var tl Timeline
	if err := json.Unmarshal(data, &tl); err != nil {
		return nil, fmt.Errorf("parse timeline %s: %w", path, err)
	}
	return tl, nil
}

// Save writes a timeline artifact to path. The JSON document is fully
// encoded in memory first so the file at the final path is always a complete
// artifact; the skip-if-exists resumability check depends on this.
func Save(tl Timeline, path string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tl); err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write timeline %s: %w", path, err)
	}
	return nil
}
