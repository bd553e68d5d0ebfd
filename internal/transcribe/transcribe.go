// Package transcribe adapts finalized audio snapshots to an external
// speech-to-text engine. The engine itself lives outside this process;
// the two backends here only carry samples across its boundary:
//
//   - server: multipart HTTP upload to a local inference server
//   - command: WAV handed to an external CLI, stdout is the transcript
//
// Both backends treat silence or unintelligible audio as an empty
// string result, not an error, and never mutate the input samples.
package transcribe

import (
	"context"
	"fmt"

	"github.com/davemaier/chirp-stt/internal/config"
)

// Transcriber converts audio samples to text.
type Transcriber interface {
	// Transcribe converts mono float32 audio samples to text. An empty
	// result means no recognizable speech and is not an error.
	Transcribe(ctx context.Context, samples []float32) (string, error)
	// Close releases backend resources.
	Close() error
}

// Hints carries the engine tuning options from the configuration.
// They are passed through to the engine unchanged.
type Hints struct {
	Language     string
	Quantization string
	Providers    string
	Threads      int
}

// hintsFromConfig extracts the pass-through engine options.
func hintsFromConfig(cfg *config.Config) Hints {
	return Hints{
		Language:     cfg.Language,
		Quantization: cfg.ParakeetQuantization,
		Providers:    cfg.ONNXProviders,
		Threads:      cfg.Threads,
	}
}

// New creates a Transcriber based on the config backend setting.
func New(cfg *config.Config) (Transcriber, error) {
	switch cfg.STTBackend {
	case "server":
		return NewServerTranscriber(cfg.EngineURL, cfg.EngineToken, cfg.SampleRate, hintsFromConfig(cfg)), nil
	case "command":
		return NewCommandTranscriber(cfg.EngineCommand, cfg.SampleRate, hintsFromConfig(cfg))
	default:
		return nil, fmt.Errorf("transcribe: unknown backend %q (supported: server, command)", cfg.STTBackend)
	}
}
