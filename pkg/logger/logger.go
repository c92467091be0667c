package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const TimeFormat = "2006-01-02 | 15:04:05"

type Options struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	Console    bool
	Level      string
	// Stdout overrides the console sink; nil means os.Stdout.
	Stdout io.Writer
}

// New builds the process logger: human readable lines to a rotating file,
// optionally mirrored to the console. The returned closer releases the log file.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o777); err != nil {
			return zerolog.Nop(), nil, err
		}
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: rotating, TimeFormat: TimeFormat, NoColor: true})
		closer = rotating
	}
	if opts.Console {
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, TimeFormat: TimeFormat, NoColor: true})
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
