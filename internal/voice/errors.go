package voice

import "errors"

// ErrExec indicates the conversion tool exited with a failure.
var ErrExec = errors.New("voice conversion failed")

// ErrNoOutput indicates the tool finished without producing a WAV file.
var ErrNoOutput = errors.New("voice conversion produced no output")
