package cli

import "errors"

// Sentinel errors for CLI validation, mapped to exit codes in main.

// ErrOpenAIKeyMissing indicates OPENAI_API_KEY is not set.
var ErrOpenAIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

// ErrDeepLKeyMissing indicates DEEPL_API_KEY is not set.
var ErrDeepLKeyMissing = errors.New("DEEPL_API_KEY environment variable not set")

// ErrAssemblyKeyMissing indicates ASSEMBLY_API_KEY is not set.
var ErrAssemblyKeyMissing = errors.New("ASSEMBLY_API_KEY environment variable not set")

// ErrFileNotFound indicates the input video file does not exist.
var ErrFileNotFound = errors.New("file not found")

// ErrUnsupportedFormat indicates the input file extension is not a
// supported video container.
var ErrUnsupportedFormat = errors.New("unsupported video format")
