// Package stream carries messages as newline-delimited JSON over a byte
// stream, such as the stdio of a child process
package stream

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/glimte/mmate-embed/messaging"
)

// MaxLineSize bounds a single inbound message
const MaxLineSize = 4 << 20

// ErrLineTooLong is returned by Serve when a message exceeds MaxLineSize
var ErrLineTooLong = errors.New("stream: message exceeds maximum line size")

// Transport writes one message per line. It is attached until Close or the
// first write error
type Transport struct {
	mu        sync.Mutex
	w         io.Writer
	listeners []func(bool)
	logger    *slog.Logger
}

// Option configures the transport
type Option func(*Transport)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// NewTransport creates an attached transport writing to w
func NewTransport(w io.Writer, opts ...Option) *Transport {
	t := &Transport{w: w, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Deliver implements messaging.Transport
func (t *Transport) Deliver(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if bytes.IndexByte(data, '\n') >= 0 {
		data = bytes.ReplaceAll(data, []byte{'\n'}, nil)
	}

	t.mu.Lock()
	w := t.w
	if w == nil {
		t.mu.Unlock()
		return messaging.ErrNotAttached
	}
	buf := make([]byte, 0, len(data)+1)
	buf = append(append(buf, data...), '\n')
	_, err := w.Write(buf)
	if err != nil {
		t.w = nil
	}
	t.mu.Unlock()

	if err != nil {
		t.logger.Warn("stream write failed, detaching", "error", err)
		t.notify(false)
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Attached implements messaging.Transport
func (t *Transport) Attached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w != nil
}

// NotifyAttach implements messaging.AttachNotifier
func (t *Transport) NotifyAttach(fn func(bool)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// Close detaches the transport. The writer is closed when it is an io.Closer
func (t *Transport) Close() error {
	t.mu.Lock()
	w := t.w
	t.w = nil
	t.mu.Unlock()

	if w == nil {
		return nil
	}
	t.notify(false)
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *Transport) notify(attached bool) {
	t.mu.Lock()
	listeners := append([]func(bool){}, t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(attached)
	}
}

// Serve reads newline-delimited messages from r and hands each non-empty line
// to sink in order. It returns nil at EOF, ctx.Err() when ctx is done, and the
// read error otherwise. When ctx is done and r is an io.Closer, Serve closes r
// and waits for the pending read to return; other readers must be closed by
// the caller to release the read goroutine
func Serve(ctx context.Context, r io.Reader, sink messaging.RawMessageHandler) error {
	lines := make(chan []byte)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			msg := append([]byte(nil), line...)
			select {
			case lines <- msg:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				err = ErrLineTooLong
			}
			errc <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if c, ok := r.(io.Closer); ok {
				c.Close()
				for range lines {
				}
			}
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			sink.HandleRawMessage(ctx, line)
		}
	}
}
