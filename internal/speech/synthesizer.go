package speech

import "context"

// Request describes one synthesis job: the text to speak, an optional voice
// hint, and the path the audio file must be written to.
type Request struct {
	Text       string
	Voice      string
	OutputPath string
}

// Synthesizer renders speech audio to a file. Implementations must either
// produce a readable audio file at Request.OutputPath or return an error;
// a nil error with no file is a contract violation.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) error
}
