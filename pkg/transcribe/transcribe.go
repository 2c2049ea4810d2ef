package transcribe

import (
	"context"
	"io"
)

// DefaultLanguage is used when a request does not name one
const DefaultLanguage = "ru-RU"

// Request carries the audio and the record context it belongs to
type Request struct {
	Audio    io.Reader
	Filename string
	// Language is a BCP 47 code such as "ru-RU"; empty means the default
	Language string

	// Record context, used by the simulator to shape its transcript
	InterrogationID string
	Suspect         string
}

// Result is the transcription outcome
type Result struct {
	Transcription string `json:"transcription"`
	Filename      string `json:"filename"`
	Language      string `json:"language"`
}

// Transcriber converts audio to text
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (*Result, error)
}
