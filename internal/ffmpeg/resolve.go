package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
)

// EnvFFmpegPath overrides binary resolution when set.
const EnvFFmpegPath = "FFMPEG_PATH"

// Resolve locates the ffmpeg binary: the FFMPEG_PATH environment variable
// wins, then the system PATH. The pipeline needs a full ffmpeg build with
// the atempo filter, so no bundled binary is shipped.
func Resolve() (string, error) {
	if p := os.Getenv(EnvFFmpegPath); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%w: %s set to %q: %v", ErrNotFound, EnvFFmpegPath, p, err)
		}
		return p, nil
	}

	p, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("%w: install ffmpeg or set %s", ErrNotFound, EnvFFmpegPath)
	}
	return p, nil
}
