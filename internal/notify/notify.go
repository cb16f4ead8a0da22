// Package notify delivers fire-and-forget toast messages to the operator.
package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Severity of a message
type Severity string

// Severities
const (
	SeverityInfo        Severity = "info"
	SeveritySuccess     Severity = "success"
	SeverityDestructive Severity = "destructive"
)

// Message is a single notification
type Message struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Severity    Severity `json:"severity"`
}

// Notifier accepts messages. Implementations must not block or fail.
type Notifier interface {
	Notify(msg Message)
}

// Info builds an informational message
func Info(title, description string) Message {
	return Message{Title: title, Description: description, Severity: SeverityInfo}
}

// Success builds a success message
func Success(title, description string) Message {
	return Message{Title: title, Description: description, Severity: SeveritySuccess}
}

// Failure builds a destructive message
func Failure(title, description string) Message {
	return Message{Title: title, Description: description, Severity: SeverityDestructive}
}

// LogNotifier writes messages to a zap logger
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier backed by logger
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(msg Message) {
	fields := []zap.Field{
		zap.String("title", msg.Title),
		zap.String("description", msg.Description),
	}
	if msg.Severity == SeverityDestructive {
		n.logger.Warn("Notification", fields...)
		return
	}
	n.logger.Info("Notification", fields...)
}

// Recorder keeps messages in memory until drained
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(msg Message) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
}

// Messages returns a copy of the recorded messages
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Drain returns and forgets the recorded messages
func (r *Recorder) Drain() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.messages
	r.messages = nil
	return out
}

// Fanout delivers every message to each notifier in order
type Fanout []Notifier

func (f Fanout) Notify(msg Message) {
	for _, n := range f {
		if n != nil {
			n.Notify(msg)
		}
	}
}

// Discard drops every message
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Message) {}
