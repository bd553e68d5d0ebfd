package transcribe

import (
	"testing"

	"github.com/davemaier/chirp-stt/internal/config"
)

func TestNewServerBackend(t *testing.T) {
	cfg := config.Default()
	cfg.STTBackend = "server"
	cfg.EngineURL = "http://127.0.0.1:9999/transcribe"
	cfg.Language = "en"

	tr, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tr.Close()

	st, ok := tr.(*ServerTranscriber)
	if !ok {
		t.Fatalf("New() returned %T, want *ServerTranscriber", tr)
	}
	if st.hints.Language != "en" {
		t.Errorf("hints.Language = %q, want %q", st.hints.Language, "en")
	}
	if st.hints.Providers != "cpu" {
		t.Errorf("hints.Providers = %q, want %q", st.hints.Providers, "cpu")
	}
}

func TestNewCommandBackend(t *testing.T) {
	cfg := config.Default()
	cfg.STTBackend = "command"
	cfg.EngineCommand = "/usr/local/bin/parakeet-cli --greedy"

	tr, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tr.Close()

	ct, ok := tr.(*CommandTranscriber)
	if !ok {
		t.Fatalf("New() returned %T, want *CommandTranscriber", tr)
	}
	if len(ct.argv) != 2 || ct.argv[0] != "/usr/local/bin/parakeet-cli" {
		t.Errorf("argv = %v", ct.argv)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.STTBackend = "telepathy"

	if _, err := New(cfg); err == nil {
		t.Error("New() should reject unknown backends")
	}
}

func TestNewCommandBackendEmptyCommand(t *testing.T) {
	cfg := config.Default()
	cfg.STTBackend = "command"
	cfg.EngineCommand = "   "

	if _, err := New(cfg); err == nil {
		t.Error("New() should reject an empty engine command")
	}
}
