package provisioning

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// Observer receives structured pipeline events.
type Observer interface {
	// Event emits a structured event.
	Event(event Event)

	// WithFields returns a new Observer with additional context fields.
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "load", "link")
	Message   string            // Human-readable message
	Resource  string            // Unit or resource ID if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates a phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a phase failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventUnitLoaded indicates a unit was constructed.
	EventUnitLoaded EventType = "unit.loaded"
	// EventUnitLinked indicates a unit's link hook committed.
	EventUnitLinked EventType = "unit.linked"

	// EventValidationWarning indicates a validation warning.
	EventValidationWarning EventType = "validation.warning"
	// EventValidationError indicates a validation error.
	EventValidationError EventType = "validation.error"
)

// LogObserver writes events to a logr sink. Failures and validation errors
// are logged at error level.
type LogObserver struct {
	log    logr.Logger
	fields map[string]string
}

// NewLogObserver returns an observer writing to log.
func NewLogObserver(log logr.Logger) *LogObserver {
	return &LogObserver{log: log, fields: map[string]string{}}
}

// Event implements Observer.
func (o *LogObserver) Event(event Event) {
	kv := []any{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	fields := mergeFields(o.fields, event.Fields)
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		kv = append(kv, k, fields[k])
	}

	switch event.Type {
	case EventPhaseFailed, EventValidationError:
		o.log.Error(nil, event.Message, kv...)
	case EventUnitLoaded, EventUnitLinked:
		o.log.V(1).Info(event.Message, kv...)
	default:
		o.log.Info(event.Message, kv...)
	}
}

// WithFields implements Observer.
func (o *LogObserver) WithFields(fields map[string]string) Observer {
	return &LogObserver{log: o.log, fields: mergeFields(o.fields, fields)}
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

// RecordingObserver keeps every event in memory. It is safe for concurrent use.
type RecordingObserver struct {
	log    *eventLog
	fields map[string]string
}

// NewRecordingObserver returns an empty recorder.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{log: &eventLog{}, fields: map[string]string{}}
}

// Event implements Observer.
func (o *RecordingObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Fields = mergeFields(o.fields, event.Fields)

	o.log.mu.Lock()
	defer o.log.mu.Unlock()
	o.log.events = append(o.log.events, event)
}

// WithFields implements Observer. The returned observer shares the event log.
func (o *RecordingObserver) WithFields(fields map[string]string) Observer {
	return &RecordingObserver{log: o.log, fields: mergeFields(o.fields, fields)}
}

// Events returns a copy of the recorded events.
func (o *RecordingObserver) Events() []Event {
	o.log.mu.Lock()
	defer o.log.mu.Unlock()
	return slices.Clone(o.log.events)
}

// Types returns the recorded event types in order.
func (o *RecordingObserver) Types() []EventType {
	events := o.Events()
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func mergeFields(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	maps.Copy(out, base)
	maps.Copy(out, extra)
	return out
}

func logPhaseStart(observer Observer, phase string) {
	observer.Event(Event{Type: EventPhaseStarted, Phase: phase, Message: "starting"})
}

func logPhaseComplete(observer Observer, phase string, d time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", d.Round(time.Millisecond)),
	})
}

func logPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{Type: EventPhaseFailed, Phase: phase, Message: fmt.Sprintf("failed: %v", err)})
}
