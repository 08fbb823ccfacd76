// Package session scopes asynchronous export/import work to the
// lifetime of one settings screen.
package session

import (
	"context"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lunalink/lunalink/internal/prefs"
)

// ExportResult is delivered when an export finishes or is cancelled.
type ExportResult struct {
	Path string
	Err  error
}

// ImportResult is delivered when an import finishes or is cancelled.
type ImportResult struct {
	Summary prefs.ImportSummary
	Err     error
}

// Serializer abstracts the settings serializer for the session layer.
type Serializer interface {
	ExportToFile(ctx context.Context, path string) error
	Import(ctx context.Context, r io.Reader) (prefs.ImportSummary, error)
}

// Session owns every export/import task started from one settings
// screen. At most one export runs at a time: starting a new one cancels
// the previous. Closing the session cancels all outstanding work and
// waits for it to unwind.
type Session struct {
	serializer Serializer

	cancel context.CancelFunc
	group  *errgroup.Group
	ctx    context.Context

	mu           sync.Mutex
	exportCancel context.CancelFunc
	closed       bool
}

func New(serializer Serializer) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)
	return &Session{
		serializer: serializer,
		cancel:     cancel,
		group:      group,
		ctx:        gctx,
	}
}

// StartExport writes the settings document to path off the caller's
// path of execution and reports on the returned channel. Any export
// still running from this session is cancelled first; its output never
// becomes visible (write-then-publish in the serializer).
func (s *Session) StartExport(path string) <-chan ExportResult {
	ch := make(chan ExportResult, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ch <- ExportResult{Path: path, Err: context.Canceled}
		return ch
	}
	if s.exportCancel != nil {
		s.exportCancel()
	}
	ectx, ecancel := context.WithCancel(s.ctx)
	s.exportCancel = ecancel
	// Register under the lock: Close must not start waiting before this
	// task is tracked by the group.
	s.group.Go(func() error {
		defer ecancel()
		ch <- ExportResult{Path: path, Err: s.serializer.ExportToFile(ectx, path)}
		return nil
	})
	s.mu.Unlock()
	return ch
}

// StartImport applies a settings document off the caller's path of
// execution. Cancellation stops between field applies; fields already
// committed stay committed (they were each durable on apply).
func (s *Session) StartImport(r io.Reader) <-chan ImportResult {
	ch := make(chan ImportResult, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ch <- ImportResult{Err: context.Canceled}
		return ch
	}
	s.group.Go(func() error {
		summary, err := s.serializer.Import(s.ctx, r)
		ch <- ImportResult{Summary: summary, Err: err}
		return nil
	})
	s.mu.Unlock()
	return ch
}

// Close cancels all outstanding tasks and waits for them to finish.
// Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	return s.group.Wait()
}
