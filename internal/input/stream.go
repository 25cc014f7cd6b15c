// Package input reads host messages from a byte stream.
package input

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// maxLineSize bounds a single message line.
const maxLineSize = 1024 * 1024

// Dispatcher routes one raw message.
type Dispatcher interface {
	Dispatch(ctx context.Context, data []byte) (any, error)
}

// StreamReader reads newline-delimited JSON messages and dispatches each one.
type StreamReader struct {
	reader     io.Reader
	dispatcher Dispatcher
	logger     *slog.Logger

	// Optional reply sink: handler results are written as JSON lines
	replyMu sync.Mutex
	replies io.Writer
}

// NewStreamReader creates a StreamReader.
func NewStreamReader(r io.Reader, dispatcher Dispatcher, logger *slog.Logger) *StreamReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamReader{
		reader:     r,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SetReplyWriter makes the reader write every non-nil handler result to w.
func (s *StreamReader) SetReplyWriter(w io.Writer) {
	s.replyMu.Lock()
	defer s.replyMu.Unlock()
	s.replies = w
}

// Run reads until EOF or until ctx is cancelled. Malformed lines and handler
// errors are logged and skipped; only read errors are returned.
func (s *StreamReader) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		lineNo++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		result, err := s.dispatcher.Dispatch(ctx, line)
		if err != nil {
			s.logger.Warn("skipping message", "line", lineNo, "error", err)
			continue
		}
		s.reply(result)
	}

	if err := scanner.Err(); err != nil {
		return &ReadError{
			Source:  "stream",
			Message: "failed to read messages",
			Err:     err,
		}
	}

	s.logger.Debug("message stream closed", "lines", lineNo)
	return nil
}

func (s *StreamReader) reply(result any) {
	if result == nil {
		return
	}

	s.replyMu.Lock()
	defer s.replyMu.Unlock()

	if s.replies == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("failed to encode reply", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := s.replies.Write(data); err != nil {
		s.logger.Warn("failed to write reply", "error", err)
	}
}

// ReadError represents a stream read failure.
type ReadError struct {
	Source  string
	Message string
	Err     error
}

func (e *ReadError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
