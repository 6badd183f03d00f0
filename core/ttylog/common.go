// Package ttylog records and replays the terminal traffic of a session.
package ttylog

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/josephlewis42/shellfyre/core/proc"
)

// FD identifies the stream an entry was recorded on.
type FD int

const (
	FDStdin FD = iota
	FDStdout
	FDStderr
)

// Entry is a single chunk of recorded traffic.
type Entry struct {
	TimestampMicros int64
	FD              FD
	Data            []byte
}

// LogSink receives log events.
type LogSink func(e *Entry) error

// LogSource adapts log readers.
type LogSource interface {
	// Next fetches the next available log entry. It returns io.EOF if the
	// source has no more log entries.
	Next() (*Entry, error)
}

// NewRealTimePlayback plays back the results in real-time.
// If maxSleep > 0, it's used as the maximum duration to pause.
func NewRealTimePlayback(maxSleep time.Duration, next LogSink) LogSink {
	var once sync.Once
	var prevTimeMicros int64

	return func(e *Entry) error {
		once.Do(func() {
			prevTimeMicros = e.TimestampMicros
		})

		delta := e.TimestampMicros - prevTimeMicros
		prevTimeMicros = e.TimestampMicros

		if maxSleep > 0 {
			sleepDuration := time.Duration(delta) * time.Microsecond
			if sleepDuration > maxSleep {
				sleepDuration = maxSleep
			}
			time.Sleep(sleepDuration)
		}

		return next(e)
	}
}

// NewClientOutput writes stdout and stderr to the given writer
func NewClientOutput(w io.Writer) LogSink {
	return func(e *Entry) error {
		if e.FD == FDStdin {
			return nil
		}
		_, err := w.Write(e.Data)
		return err
	}
}

// Replay reads a stream of events to a callback.
func Replay(recording LogSource, callback LogSink) error {
	for {
		e, err := recording.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return err
		}

		if err := callback(e); err != nil {
			return err
		}
	}
}

// Recorder copies the traffic of a set of streams to a sink.
type Recorder struct {
	mutex  sync.Mutex
	output LogSink
	now    func() time.Time
}

func (r *Recorder) record(fd FD, data []byte) {
	if len(data) == 0 {
		return
	}

	// The caller may reuse data once the read or write returns.
	chunk := make([]byte, len(data))
	copy(chunk, data)

	r.mutex.Lock()
	defer r.mutex.Unlock()
	err := r.output(&Entry{
		TimestampMicros: r.now().UnixMicro(),
		FD:              fd,
		Data:            chunk,
	})
	if err != nil {
		log.Print(err)
	}
}

type recordingReader struct {
	r       *Recorder
	fd      FD
	wrapped io.Reader
}

func (rr *recordingReader) Read(p []byte) (int, error) {
	n, err := rr.wrapped.Read(p)
	rr.r.record(rr.fd, p[:n])
	return n, err
}

type recordingWriter struct {
	r       *Recorder
	fd      FD
	wrapped io.Writer
}

func (rw *recordingWriter) Write(p []byte) (int, error) {
	n, err := rw.wrapped.Write(p)
	rw.r.record(rw.fd, p[:n])
	return n, err
}

// Record wraps the streams in stdio so everything that passes through them
// is forwarded to output. Nil streams stay nil.
func Record(stdio proc.Stdio, output LogSink) proc.Stdio {
	recorder := &Recorder{output: output, now: time.Now}

	var out proc.Stdio
	if stdio.In != nil {
		out.In = &recordingReader{r: recorder, fd: FDStdin, wrapped: stdio.In}
	}
	if stdio.Out != nil {
		out.Out = &recordingWriter{r: recorder, fd: FDStdout, wrapped: stdio.Out}
	}
	if stdio.Err != nil {
		out.Err = &recordingWriter{r: recorder, fd: FDStderr, wrapped: stdio.Err}
	}
	return out
}
