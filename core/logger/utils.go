package logger

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// LogEntry is a single timestamped event.
type LogEntry struct {
	TimestampMicros int64
	SessionID       string
	Event           Event
}

func (le *LogEntry) toStruct() *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"timestamp_micros": structpb.NewNumberValue(float64(le.TimestampMicros)),
			"session_id":       structpb.NewStringValue(le.SessionID),
			le.Event.Type:      structpb.NewStructValue(le.Event.Data),
		},
	}
}

// MarshalJSON implements json.Marshaler.
func (le *LogEntry) MarshalJSON() ([]byte, error) {
	return protojson.Marshal(le.toStruct())
}

// UnmarshalJSON implements json.Unmarshaler.
func (le *LogEntry) UnmarshalJSON(data []byte) error {
	var raw structpb.Struct
	if err := protojson.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := raw.GetFields()
	le.TimestampMicros = int64(fields["timestamp_micros"].GetNumberValue())
	le.SessionID = fields["session_id"].GetStringValue()
	le.Event = Event{}

	for _, eventType := range knownTypes {
		if v, ok := fields[eventType]; ok {
			le.Event = Event{Type: eventType, Data: v.GetStructValue()}
			return nil
		}
	}

	// Preserve unknown event types so reports can count them.
	for k, v := range fields {
		if k == "timestamp_micros" || k == "session_id" {
			continue
		}
		le.Event = Event{Type: k, Data: v.GetStructValue()}
	}
	return nil
}

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *LogEntry) error

// Logger captures interaction event logs for the shell.
type Logger struct {
	Record LogRecorder
}

// NewJsonLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format. It is safe for concurrent use.
func NewJsonLinesLogRecorder(w io.Writer) *Logger {
	var mu sync.Mutex

	return &Logger{
		Record: func(le *LogEntry) error {
			entry, err := le.MarshalJSON()
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

// Discard returns a Logger that drops every event.
func Discard() *Logger {
	return &Logger{
		Record: func(*LogEntry) error { return nil },
	}
}

func (l *Logger) recordEvent(sessionID string, event Event) error {
	le := &LogEntry{}
	le.TimestampMicros = time.Now().UnixNano() / int64(time.Microsecond)
	le.SessionID = sessionID
	le.Event = event

	return l.Record(le)
}

// NewSession creates a logger with attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// Sessionless creates a logger without a session ID.
func (l *Logger) Sessionless() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: ""}
}

// SessionLogger logs messages with a shared session ID.
type SessionLogger struct {
	*Logger
	sessionID string
}

// SessionID returns the ID attached to every event.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

// Record stores the event.
func (l *SessionLogger) Record(event Event) error {
	return l.recordEvent(l.sessionID, event)
}
