// Package logging writes JSON-lines audit events. Metadata and reasons are
// redacted before they are encoded.
package logging

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/RowanDark/cipherkit/internal/redact"
)

// EventType names what happened.
type EventType string

const (
	EventOperationExecuted EventType = "operation_executed"
	EventOperationFailed   EventType = "operation_failed"
	EventPipelineExecuted  EventType = "pipeline_executed"
	EventRecipeSaved       EventType = "recipe_saved"
	EventRecipeDeleted     EventType = "recipe_deleted"
	EventRequestDenied     EventType = "api_request_denied"
	EventServerLifecycle   EventType = "server_lifecycle"
)

type Decision string

const (
	DecisionInfo  Decision = "info"
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
)

// AuditEvent is one JSON line.
type AuditEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Component string         `json:"component"`
	RequestID string         `json:"request_id,omitempty"`
	Operation string         `json:"operation,omitempty"`
	EventType EventType      `json:"event_type"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Decision  Decision       `json:"decision,omitempty"`
	Reason    string         `json:"reason,omitempty"`
}

// ErrClosed is returned by Emit after the logger has been closed.
var ErrClosed = errors.New("audit logger closed")

// Option configures an AuditLogger.
type Option func(*options) error

type options struct {
	stdout  bool
	writers []io.Writer
	files   []*os.File
	now     func() time.Time
}

// WithWriter adds w as an output.
func WithWriter(w io.Writer) Option {
	return func(o *options) error {
		if w == nil {
			return errors.New("writer cannot be nil")
		}
		o.writers = append(o.writers, w)
		return nil
	}
}

// WithFile appends events to the file at path, creating it with mode 0600.
func WithFile(path string) Option {
	return func(o *options) error {
		if strings.TrimSpace(path) == "" {
			return errors.New("file path cannot be empty")
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		o.files = append(o.files, f)
		return nil
	}
}

// WithoutStdout drops the default stdout output.
func WithoutStdout() Option {
	return func(o *options) error {
		o.stdout = false
		return nil
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}

// sink is the shared, serialised output of a logger and its children.
type sink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	files  []*os.File
	closed bool
}

func (s *sink) write(event AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.enc.Encode(event)
}

func (s *sink) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for _, f := range s.files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

// AuditLogger emits audit events for one component.
type AuditLogger struct {
	component string
	sink      *sink
	now       func() time.Time
	// child loggers share the sink but never close it
	child bool
}

// NewAuditLogger builds a logger tagging events with component. Events go to
// stdout unless WithoutStdout is given.
func NewAuditLogger(component string, opts ...Option) (*AuditLogger, error) {
	o := &options{stdout: true, now: time.Now}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			for _, f := range o.files {
				_ = f.Close()
			}
			return nil, err
		}
	}

	writers := append([]io.Writer{}, o.writers...)
	for _, f := range o.files {
		writers = append(writers, f)
	}
	if o.stdout {
		writers = append(writers, os.Stdout)
	}
	if len(writers) == 0 {
		return nil, errors.New("no writers configured for audit logger")
	}

	enc := json.NewEncoder(io.MultiWriter(writers...))
	enc.SetEscapeHTML(false)
	return &AuditLogger{
		component: component,
		sink:      &sink{enc: enc, files: o.files},
		now:       o.now,
	}, nil
}

// Close closes the files opened by WithFile. Closing a child logger is a
// no-op.
func (l *AuditLogger) Close() error {
	if l == nil || l.child || l.sink == nil {
		return nil
	}
	return l.sink.close()
}

// Emit stamps, redacts and writes event.
func (l *AuditLogger) Emit(event AuditEvent) error {
	if l == nil || l.sink == nil {
		return errors.New("nil audit logger")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = l.now()
	}
	event.Timestamp = event.Timestamp.UTC()
	if event.Component == "" {
		event.Component = l.component
	}
	event.Reason = redact.String(event.Reason)
	if len(event.Metadata) > 0 {
		event.Metadata = redact.Map(event.Metadata)
	}
	return l.sink.write(event)
}

// WithComponent returns a logger sharing the same outputs under another
// component name.
func (l *AuditLogger) WithComponent(component string) *AuditLogger {
	if l == nil || l.sink == nil {
		return nil
	}
	return &AuditLogger{component: component, sink: l.sink, now: l.now, child: true}
}
