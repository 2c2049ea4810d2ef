package transcribe

import (
	"context"
	"fmt"
	"io"
)

// Simulator produces a canned transcript without calling any service.
// It stands in for speech-to-text in development and test environments.
type Simulator struct{}

// NewSimulator creates a simulator transcriber
func NewSimulator() *Simulator {
	return &Simulator{}
}

func (s *Simulator) Transcribe(_ context.Context, req Request) (*Result, error) {
	// Drain the audio so callers can treat both implementations alike
	if req.Audio != nil {
		if _, err := io.Copy(io.Discard, req.Audio); err != nil {
			return nil, fmt.Errorf("read audio: %w", err)
		}
	}

	language := req.Language
	if language == "" {
		language = DefaultLanguage
	}

	transcript := fmt.Sprintf(`Transcription of the audio recording for interrogation %s...
[00:00:01] Officer: Please state your name for the record.
[00:00:05] Suspect: My name is %s.
[00:00:10] Officer: You are here today because...
[00:00:15] Suspect: I understand my rights...`, req.InterrogationID, req.Suspect)

	return &Result{
		Transcription: transcript,
		Filename:      req.Filename,
		Language:      language,
	}, nil
}
