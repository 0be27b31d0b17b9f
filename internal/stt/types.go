package stt

// TranscriptionResult is one transcript event from the speech-to-text
// provider. The relay core consumes only final results; interim results are
// surfaced for logging and display latency experiments.
type TranscriptionResult struct {
	// Text is the top alternative's transcript
	Text string

	// Language is the source language code the provider was configured with
	Language string

	// IsFinal indicates a final transcription (true) or interim (false)
	IsFinal bool

	// Confidence is the confidence score (0.0 to 1.0) if available
	Confidence float64

	// StartTime is the start time of the utterance in seconds
	StartTime float64

	// Duration is the duration of the utterance in seconds
	Duration float64
}

// Client is the interface for streaming speech-to-text providers.
type Client interface {
	// Start begins a new transcription session
	Start() error

	// SendAudio pushes an audio chunk to the STT service. It is a
	// fire-and-forget enqueue; transcripts come back on Transcripts().
	SendAudio(audioData []byte) error

	// Transcripts returns the channel transcription results arrive on.
	Transcripts() <-chan *TranscriptionResult

	// Stop stops the transcription session
	Stop() error

	// Close closes the client and cleans up resources
	Close() error
}
