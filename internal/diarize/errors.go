package diarize

import "errors"

// ErrAPIKeyMissing indicates ASSEMBLYAI_API_KEY environment variable is not set.
var ErrAPIKeyMissing = errors.New("ASSEMBLYAI_API_KEY environment variable not set")

// ErrJobFailed indicates the diarization job finished in an error state.
var ErrJobFailed = errors.New("diarization job failed")

// ErrNoUtterances indicates the completed job returned no speaker turns.
var ErrNoUtterances = errors.New("diarization returned no utterances")
