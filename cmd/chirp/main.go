// Command chirp is a hotkey-driven dictation tool: press the
// configured shortcut to record, press it again to transcribe the
// audio and inject the text into whatever has input focus.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/davemaier/chirp-stt/internal/audio"
	"github.com/davemaier/chirp-stt/internal/config"
	"github.com/davemaier/chirp-stt/internal/dictate"
	"github.com/davemaier/chirp-stt/internal/feedback"
	"github.com/davemaier/chirp-stt/internal/hotkey"
	"github.com/davemaier/chirp-stt/internal/inject"
	"github.com/davemaier/chirp-stt/internal/logging"
	"github.com/davemaier/chirp-stt/internal/textproc"
	"github.com/davemaier/chirp-stt/internal/transcribe"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/chirp/config.toml)")
	verbose := flag.Bool("v", false, "enable verbose debug logging")
	check := flag.Bool("check", false, "smoke-test config and post-processing, then exit")
	flag.Parse()

	log := logging.Setup(*verbose)

	cfg, err := loadConfig(*configPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	if *check {
		runSmokeCheck(cfg, log)
		return
	}

	printBanner(cfg)

	transcriber, err := transcribe.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("transcriber setup")
	}
	defer transcriber.Close()
	log.Info().Str("backend", cfg.STTBackend).Msg("transcriber ready")

	recorder, err := audio.NewRecorder(cfg.SampleRate, cfg.Channels)
	if err != nil {
		log.Fatal().Err(err).Msg("audio recorder setup; check microphone permissions")
	}
	defer recorder.Close()
	log.Info().Msg("audio recorder ready")

	processor := textproc.New(cfg.WordOverrides, cfg.TrimWhitespace, cfg.PostProcessing)

	injector := inject.New(
		inject.Method(cfg.InjectMethod),
		cfg.PasteMode,
		cfg.ClipboardBehavior,
		secondsToDuration(cfg.ClipboardClearDelay),
		log,
	)
	log.Info().Str("method", cfg.InjectMethod).Msg("text injector ready")

	player := feedback.NewPlayer(
		cfg.AudioFeedback,
		cfg.AudioFeedbackVolume,
		cfg.StartSoundPath,
		cfg.StopSoundPath,
		cfg.ErrorSoundPath,
		log,
	)
	defer player.Close()

	listener, err := hotkey.NewListener(cfg.PrimaryShortcut)
	if err != nil {
		log.Fatal().Err(err).Msg("hotkey setup")
	}
	log.Info().Str("shortcut", strings.Join(listener.Keys(), "+")).Msg("hotkey listener ready")

	orch := dictate.New(
		recorder,
		transcriber,
		processor,
		injector,
		player,
		secondsToDuration(cfg.MaxRecordingDuration),
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go listener.Start()
	go func() {
		sig := <-sigCh
		log.Info().Stringer("signal", sig).Msg("shutting down")
		if recorder.IsRecording() {
			recorder.Stop()
		}
		recorder.Close()
		transcriber.Close()
		player.Close()
		// Exit directly to avoid gohook's C cleanup crash.
		// The OS reclaims the event hook on process exit.
		os.Exit(0)
	}()

	log.Info().Msgf("chirp ready, toggle recording with %s", cfg.PrimaryShortcut)
	if err := orch.Run(ctx, listener.Events()); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("event loop")
	}
}

// loadConfig loads the config from the specified path, or falls back
// to the default config path, or uses built-in defaults.
func loadConfig(path string, log zerolog.Logger) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Info().Str("path", defaultPath).Msg("config loaded")
		return cfg, nil
	}

	log.Info().Msg("no config file found, using defaults")
	return config.Default(), nil
}

// runSmokeCheck exercises config and the post-processing pipeline
// without touching hotkeys, audio devices, or the engine.
func runSmokeCheck(cfg *config.Config, log zerolog.Logger) {
	processor := textproc.New(cfg.WordOverrides, cfg.TrimWhitespace, cfg.PostProcessing)
	sample := processor.Process("this is a chirp smoke check\n")
	log.Info().Str("processed", sample).Msg("smoke check passed")
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	fmt.Println("====== chirp ======")
	fmt.Printf("  Shortcut: %s\n", cfg.PrimaryShortcut)
	fmt.Printf("  Backend:  %s\n", cfg.STTBackend)
	fmt.Printf("  Audio:    %dHz, %dch\n", cfg.SampleRate, cfg.Channels)
	fmt.Printf("  Inject:   %s (%s)\n", cfg.InjectMethod, cfg.PasteMode)
	fmt.Printf("  Feedback: %v\n", cfg.AudioFeedback)
	fmt.Println("===================")
}

// secondsToDuration converts a fractional seconds config value.
func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
