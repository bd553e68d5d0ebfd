// Package logging configures the process-wide zerolog logger.
//
// Dictated text is sensitive: raw transcripts and final injected text
// are only ever logged through Transcript, which emits at debug level
// and records just a character count at higher levels.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns a console logger. verbose selects debug level,
// otherwise info.
func Setup(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Transcript logs dictated text without leaking it above debug
// severity: the full text is attached to a debug event only, while an
// info event carries just the character count.
func Transcript(log zerolog.Logger, msg, text string) {
	if log.GetLevel() <= zerolog.DebugLevel {
		log.Debug().Str("text", text).Msg(msg)
		return
	}
	log.Info().Int("chars", len([]rune(text))).Msg(msg)
}
