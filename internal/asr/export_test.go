package asr

// Exports for testing. These allow black-box tests to inject a fake
// transcription client without widening the public API.

// NewTestRecognizer creates an OpenAIRecognizer with a mock client.
func NewTestRecognizer(client audioTranscriber, opts ...RecognizerOption) *OpenAIRecognizer {
	return newRecognizer(client, opts...)
}
