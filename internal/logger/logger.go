package logger

import (
	"io"
	"os"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/rs/zerolog"
)

// New debug / development 使用 console 輸出, 其餘環境輸出 JSON
func New(env, service string) *zerolog.Logger {
	return NewWithWriter(os.Stdout, env, service)
}

func NewWithWriter(w io.Writer, env, service string) *zerolog.Logger {
	level := zerolog.InfoLevel
	switch constants.ENV(env) {
	case constants.Debug:
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case constants.Dev:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()
	return &l
}
