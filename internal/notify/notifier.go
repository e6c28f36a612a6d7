package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/feildrixliemdra/library-admin/internal/constants"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// Level is the severity of a notification.
type Level string

// Notification levels.
const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notification is a single message to show the user.
type Notification struct {
	Level       Level
	Title       string
	Description string
	Duration    time.Duration
}

// Sink displays notifications.
type Sink interface {
	Notify(n Notification)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(n Notification)

// Notify calls f(n).
func (f SinkFunc) Notify(n Notification) {
	f(n)
}

// Notifier fans notifications out to its sinks.
type Notifier struct {
	sinks []Sink
}

// New creates a notifier. With no sinks every notification is dropped.
func New(sinks ...Sink) *Notifier {
	return &Notifier{sinks: sinks}
}

// ShowError classifies err, notifies the sinks and returns the classification.
// When action is set the title becomes "Failed to <action>".
func (n *Notifier) ShowError(err error, action string) ErrorInfo {
	info := ParseError(err)

	title := info.Title
	if action != "" {
		title = "Failed to " + action
	}

	notification := Notification{
		Level:       LevelError,
		Title:       title,
		Description: info.Description,
		Duration:    constants.ErrorToastDuration,
	}

	if info.Kind == KindValidation && len(info.ValidationErrors) > 0 {
		notification.Description = FormatValidationErrors(info.ValidationErrors)
		notification.Duration = constants.ValidationToastDuration
	}

	n.notify(notification)

	return info
}

// ShowWarning shows a warning.
func (n *Notifier) ShowWarning(message, description string) {
	n.notify(Notification{
		Level:       LevelWarning,
		Title:       message,
		Description: description,
		Duration:    constants.WarningToastDuration,
	})
}

func (n *Notifier) notify(notification Notification) {
	if n == nil {
		return
	}

	for _, sink := range n.sinks {
		sink.Notify(notification)
	}
}

var fieldTitle = cases.Title(language.English, cases.NoLower)

// FormatField turns "year_of_publication" into "Year Of Publication".
func FormatField(field string) string {
	return fieldTitle.String(strings.ReplaceAll(field, "_", " "))
}

// FormatValidationErrors renders one "Field: message" line per error, separated by blank lines.
func FormatValidationErrors(validationErrors []library.FieldError) string {
	lines := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		lines = append(lines, FormatField(fieldErr.Field)+": "+fieldErr.Message)
	}

	return strings.Join(lines, "\n\n")
}

// WriterSink prints notifications to a terminal.
type WriterSink struct {
	mu      sync.Mutex
	w       io.Writer
	noColor bool
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer, noColor bool) *WriterSink {
	return &WriterSink{w: w, noColor: noColor}
}

// Notify implements Sink.
func (s *WriterSink) Notify(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title := color.New(color.FgRed, color.Bold)
	if n.Level == LevelWarning {
		title = color.New(color.FgYellow, color.Bold)
	}

	if s.noColor {
		title.DisableColor()
	}

	_, _ = title.Fprintln(s.w, n.Title)

	if n.Description != "" {
		_, _ = fmt.Fprintln(s.w, n.Description)
	}
}

// LoggerSink forwards notifications to a library.Logger.
type LoggerSink struct {
	Logger library.Logger
}

// Notify implements Sink.
func (s LoggerSink) Notify(n Notification) {
	if s.Logger == nil {
		return
	}

	fields := map[string]interface{}{
		"description": n.Description,
		"duration":    n.Duration.String(),
	}

	if n.Level == LevelWarning {
		s.Logger.Warn(n.Title, fields)

		return
	}

	s.Logger.Error(n.Title, fields)
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

// Notify implements Sink.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications = append(r.notifications, n)
}

// Notifications returns a copy of what was recorded.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Notification(nil), r.notifications...)
}
