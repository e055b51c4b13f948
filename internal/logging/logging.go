// Package logging builds the zerolog logger used by the metastore and its
// command-line tools.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const permission = 0o664

// Builder assembles a logger from a destination and a level.
type Builder struct {
	writer io.Writer
	path   string
	level  string
}

// New returns a builder writing to stderr at info level.
func New() *Builder {
	return &Builder{writer: os.Stderr, level: "info"}
}

// ToWriter sends log lines to w.
func (b *Builder) ToWriter(w io.Writer) *Builder {
	b.writer = w
	return b
}

// ToFile appends log lines to the file at path.
func (b *Builder) ToFile(path string) *Builder {
	b.path = path
	return b
}

// Level sets the minimum level by name: trace, debug, info, warn, error or
// disabled. An empty name keeps the default.
func (b *Builder) Level(name string) *Builder {
	if name != "" {
		b.level = name
	}
	return b
}

// Logger is a built logger and the file it owns, if any.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// Build creates the logger.
func (b *Builder) Build() (*Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(b.level))
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", b.level, err)
	}
	out := &Logger{}
	w := b.writer
	if b.path != "" {
		out.file, err = os.OpenFile(b.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		w = zerolog.SyncWriter(out.file)
	}
	if w == nil {
		w = io.Discard
	}
	out.Logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	return out, nil
}

// Close closes the log file, if the logger writes to one.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
