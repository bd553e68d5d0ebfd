// Package config loads and validates the chirp configuration file.
// The configuration is an immutable snapshot: it is loaded once at
// startup, validated, and then shared read-only by every component.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Maximum accepted auto-stop duration, in seconds. Guards against a
// typo'd limit keeping the microphone open for hours.
const maxRecordingCap = 7200

// Config holds all application configuration.
type Config struct {
	PrimaryShortcut string `toml:"primary_shortcut"`

	// Speech-to-text engine boundary.
	STTBackend           string `toml:"stt_backend"` // "server" or "command"
	EngineURL            string `toml:"engine_url"`
	EngineToken          string `toml:"engine_token"`
	EngineCommand        string `toml:"engine_command"`
	ParakeetQuantization string `toml:"parakeet_quantization"`
	ONNXProviders        string `toml:"onnx_providers"`
	Threads              int    `toml:"threads"`
	Language             string `toml:"language"`

	// Text post-processing.
	PostProcessing string            `toml:"post_processing"`
	WordOverrides  map[string]string `toml:"word_overrides"`
	TrimWhitespace bool              `toml:"trim_whitespace"`

	// Injection.
	InjectMethod        string  `toml:"inject_method"` // "type" or "paste"
	PasteMode           string  `toml:"paste_mode"`    // "ctrl" or "ctrl+shift"
	ClipboardBehavior   bool    `toml:"clipboard_behavior"`
	ClipboardClearDelay float64 `toml:"clipboard_clear_delay"` // seconds

	// Audio capture.
	SampleRate           uint32  `toml:"sample_rate"`
	Channels             uint32  `toml:"channels"`
	MaxRecordingDuration float64 `toml:"max_recording_duration"` // seconds, 0 disables

	// Audio feedback.
	AudioFeedback       bool    `toml:"audio_feedback"`
	AudioFeedbackVolume float64 `toml:"audio_feedback_volume"`
	StartSoundPath      string  `toml:"start_sound_path"`
	StopSoundPath       string  `toml:"stop_sound_path"`
	ErrorSoundPath      string  `toml:"error_sound_path"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "chirp")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		PrimaryShortcut:      "win+alt+d",
		STTBackend:           "server",
		EngineURL:            "http://127.0.0.1:8765/transcribe",
		ONNXProviders:        "cpu",
		WordOverrides:        map[string]string{},
		TrimWhitespace:       true,
		InjectMethod:         "paste",
		PasteMode:            "ctrl",
		ClipboardBehavior:    true,
		ClipboardClearDelay:  0.75,
		SampleRate:           16000,
		Channels:             1,
		MaxRecordingDuration: 45,
		AudioFeedback:        true,
		AudioFeedbackVolume:  1.0,
	}
}

// Load reads and parses a TOML config file. Missing fields are filled
// with defaults. Override keys are lowercased so lookups are
// case-insensitive, and tilde (~) in sound paths is expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.normalize()

	return cfg, nil
}

// normalize lowercases enum-like fields and override keys, and expands
// tilde in sound paths.
func (c *Config) normalize() {
	c.PrimaryShortcut = strings.ToLower(strings.TrimSpace(c.PrimaryShortcut))
	c.STTBackend = strings.ToLower(c.STTBackend)
	c.InjectMethod = strings.ToLower(c.InjectMethod)
	c.PasteMode = strings.ToLower(c.PasteMode)
	c.ONNXProviders = strings.ToLower(c.ONNXProviders)
	c.ParakeetQuantization = strings.ToLower(c.ParakeetQuantization)

	if len(c.WordOverrides) > 0 {
		lowered := make(map[string]string, len(c.WordOverrides))
		for k, v := range c.WordOverrides {
			lowered[strings.ToLower(strings.TrimSpace(k))] = v
		}
		c.WordOverrides = lowered
	}

	c.StartSoundPath = expandTilde(c.StartSoundPath)
	c.StopSoundPath = expandTilde(c.StopSoundPath)
	c.ErrorSoundPath = expandTilde(c.ErrorSoundPath)
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.PrimaryShortcut == "" {
		return fmt.Errorf("primary_shortcut must not be empty")
	}

	switch c.STTBackend {
	case "server":
		if c.EngineURL == "" {
			return fmt.Errorf("engine_url must not be empty for the server backend")
		}
	case "command":
		if c.EngineCommand == "" {
			return fmt.Errorf("engine_command must not be empty for the command backend")
		}
	default:
		return fmt.Errorf("stt_backend must be \"server\" or \"command\", got %q", c.STTBackend)
	}

	if c.Threads < 0 {
		return fmt.Errorf("threads must be non-negative, got %d", c.Threads)
	}

	switch c.InjectMethod {
	case "type", "paste":
	default:
		return fmt.Errorf("inject_method must be \"type\" or \"paste\", got %q", c.InjectMethod)
	}

	switch c.PasteMode {
	case "ctrl", "ctrl+shift":
	default:
		return fmt.Errorf("paste_mode must be 'ctrl' or 'ctrl+shift', got %q", c.PasteMode)
	}

	if c.ClipboardClearDelay <= 0 {
		return fmt.Errorf("clipboard_clear_delay must be positive, got %g", c.ClipboardClearDelay)
	}

	if c.SampleRate == 0 {
		return fmt.Errorf("sample_rate must be > 0")
	}

	if c.Channels == 0 {
		return fmt.Errorf("channels must be > 0")
	}

	if c.MaxRecordingDuration < 0 {
		return fmt.Errorf("max_recording_duration must be non-negative, got %g", c.MaxRecordingDuration)
	}
	if c.MaxRecordingDuration > maxRecordingCap {
		return fmt.Errorf("max_recording_duration must be <= %d seconds, got %g", maxRecordingCap, c.MaxRecordingDuration)
	}

	if c.AudioFeedbackVolume < 0 || c.AudioFeedbackVolume > 1 {
		return fmt.Errorf("audio_feedback_volume must be between 0 and 1, got %g", c.AudioFeedbackVolume)
	}

	for _, p := range []struct{ key, path string }{
		{"start_sound_path", c.StartSoundPath},
		{"stop_sound_path", c.StopSoundPath},
		{"error_sound_path", c.ErrorSoundPath},
	} {
		if p.path == "" {
			continue
		}
		if _, err := os.Stat(p.path); err != nil {
			return fmt.Errorf("%s does not exist: %s", p.key, p.path)
		}
	}

	for k := range c.WordOverrides {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("word_overrides keys must not be empty")
		}
	}

	return nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
