package tts

// Exports for testing. These allow black-box tests to inject a fake speech
// client without widening the public API.

// NewTestSynthesizer creates an OpenAISynthesizer with a mock client.
func NewTestSynthesizer(client speechCreator, opts ...SynthesizerOption) *OpenAISynthesizer {
	return newSynthesizer(client, opts...)
}
