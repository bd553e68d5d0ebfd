package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// CommandTranscriber drives an external CLI engine: samples are
// written to a temporary WAV file whose path is appended to the
// configured command line, and stdout is the transcript. This is how
// whisper.cpp style binaries are typically invoked.
type CommandTranscriber struct {
	argv       []string
	sampleRate uint32
	hints      Hints
}

// NewCommandTranscriber parses the configured command line.
func NewCommandTranscriber(command string, sampleRate uint32, hints Hints) (*CommandTranscriber, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("transcribe: empty engine command")
	}
	return &CommandTranscriber{
		argv:       argv,
		sampleRate: sampleRate,
		hints:      hints,
	}, nil
}

// Close is a no-op; each Transcribe call runs a fresh process.
func (t *CommandTranscriber) Close() error {
	return nil
}

// Transcribe writes the samples to a temp WAV, runs the engine command
// with the file path as its final argument, and returns its stdout.
func (t *CommandTranscriber) Transcribe(ctx context.Context, samples []float32) (string, error) {
	wavData, err := encodeWAV(samples, t.sampleRate)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "chirp-*.wav")
	if err != nil {
		return "", fmt.Errorf("transcribe: temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(wavData); err != nil {
		f.Close()
		return "", fmt.Errorf("transcribe: write temp wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("transcribe: close temp wav: %w", err)
	}

	args := append([]string{}, t.argv[1:]...)
	args = append(args, path)

	cmd := exec.CommandContext(ctx, t.argv[0], args...)
	cmd.Env = append(os.Environ(), t.hintEnv()...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return "", fmt.Errorf("transcribe: engine command failed: %w: %s", err, detail)
		}
		return "", fmt.Errorf("transcribe: engine command failed: %w", err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// hintEnv exposes the pass-through tuning options to the child process.
func (t *CommandTranscriber) hintEnv() []string {
	var env []string
	if t.hints.Language != "" {
		env = append(env, "CHIRP_LANGUAGE="+t.hints.Language)
	}
	if t.hints.Quantization != "" {
		env = append(env, "CHIRP_QUANTIZATION="+t.hints.Quantization)
	}
	if t.hints.Providers != "" {
		env = append(env, "CHIRP_PROVIDERS="+t.hints.Providers)
	}
	if t.hints.Threads > 0 {
		env = append(env, "CHIRP_THREADS="+strconv.Itoa(t.hints.Threads))
	}
	return env
}
