// Package diaglog owns the diagnostic stream of a run: a line oriented
// KEY=value log written to stdout and to a file truncated at the start of the run.
package diaglog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RunIDField tags every line of a run with the run's id.
const RunIDField = "RUN_ID"

// Log is the handle passed to every stage. Close must be called once the run ends.
type Log struct {
	zerolog.Logger
	file  *os.File
	RunID string
}

// Open truncates (or creates) the log file at path and returns a logger that
// writes each line to both the file and console. A nil console writes to the file only.
func Open(path string, console io.Writer, level zerolog.Level) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	writers := []io.Writer{NewLineWriter(f)}
	if console != nil {
		writers = append(writers, NewLineWriter(console))
	}
	runID := uuid.NewString()
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str(RunIDField, runID).
		Logger()

	return &Log{Logger: logger, file: f, RunID: runID}, nil
}

// Nop returns a Log that discards everything. Useful in tests.
func Nop() *Log {
	return &Log{Logger: zerolog.Nop()}
}

// Close flushes and closes the log file.
func (l *Log) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("failed to flush log file: %w", err)
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// NewLineWriter renders events as "<time> <message> KEY=value ..." lines without colour.
func NewLineWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		TimeFormat: time.RFC3339,
		PartsOrder: []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.MessageFieldName,
		},
	}
}
