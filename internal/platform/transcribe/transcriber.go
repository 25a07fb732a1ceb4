package transcribe

import "context"

// Transcriber turns recorded audio into text. Implementations may fail.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Func adapts a plain function to Transcriber.
type Func func(ctx context.Context, audio []byte) (string, error)

func (f Func) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return f(ctx, audio)
}

// Static always returns the same transcript. It stands in for a real engine
// in development.
type Static struct {
	Text string
}

func (s Static) Transcribe(ctx context.Context, _ []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Text, nil
}
