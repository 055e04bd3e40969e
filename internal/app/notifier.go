package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/teemow/taskcal/internal/logging"
)

// Notifier shows non-blocking success and failure messages to the user.
type Notifier interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string, err error)
}

// LogNotifier writes notifications to a slog.Logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Success(ctx context.Context, message string) {
	logging.OrDiscard(n.Logger).InfoContext(ctx, message, logging.Status(logging.StatusSuccess))
}

func (n LogNotifier) Failure(ctx context.Context, message string, err error) {
	logging.OrDiscard(n.Logger).WarnContext(ctx, message, logging.Status(logging.StatusError), logging.Err(err))
}

// WriterNotifier prints notifications as single lines, failures to Err.
type WriterNotifier struct {
	mu  sync.Mutex
	Out io.Writer
	Err io.Writer
}

// NewWriterNotifier creates a WriterNotifier. A nil errOut sends failures to out.
func NewWriterNotifier(out, errOut io.Writer) *WriterNotifier {
	if errOut == nil {
		errOut = out
	}
	return &WriterNotifier{Out: out, Err: errOut}
}

func (n *WriterNotifier) Success(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.Out, "✓ %s\n", message)
}

func (n *WriterNotifier) Failure(_ context.Context, message string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err != nil {
		fmt.Fprintf(n.Err, "✗ %s: %v\n", message, err)
		return
	}
	fmt.Fprintf(n.Err, "✗ %s\n", message)
}

// Notification is a message recorded by RecordingNotifier.
type Notification struct {
	Success bool
	Message string
	Err     error
}

// RecordingNotifier keeps every notification in memory. Hosts that answer a single
// request (MCP, HTTP) use it to return messages with the response.
type RecordingNotifier struct {
	mu    sync.Mutex
	items []Notification
	next  Notifier
}

// NewRecordingNotifier records notifications and forwards them to next (may be nil).
func NewRecordingNotifier(next Notifier) *RecordingNotifier {
	return &RecordingNotifier{next: next}
}

func (n *RecordingNotifier) Success(ctx context.Context, message string) {
	n.record(Notification{Success: true, Message: message})
	if n.next != nil {
		n.next.Success(ctx, message)
	}
}

func (n *RecordingNotifier) Failure(ctx context.Context, message string, err error) {
	n.record(Notification{Message: message, Err: err})
	if n.next != nil {
		n.next.Failure(ctx, message, err)
	}
}

func (n *RecordingNotifier) record(item Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, item)
}

// Notifications returns a copy of everything recorded so far.
func (n *RecordingNotifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.items...)
}

// Failures returns only the failure notifications.
func (n *RecordingNotifier) Failures() []Notification {
	var out []Notification
	for _, item := range n.Notifications() {
		if !item.Success {
			out = append(out, item)
		}
	}
	return out
}
