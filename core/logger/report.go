package logger

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	LoginAttempt      LoginAttemptReport      `json:"login_attempt_report"`
	RunCommand        RunCommandReport        `json:"run_command_report"`
	UnknownCommand    UnknownCommandReport    `json:"unknown_command_report"`
	InvalidInvocation InvalidInvocationReport `json:"invalid_invocation_report"`
	DirectoryChange   DirectoryChangeReport   `json:"directory_change_report"`
	ProcTraversal     ProcTraversalReport     `json:"proc_traversal_report"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		InvalidInvocation: InvalidInvocationReport{
			Errors: NewPathCounter("command", "error"),
		},
	}
}

// Update adds a single entry to the report.
func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	event := le.Event
	switch event.Type {
	case TypeLoginAttempt:
		r.LoginAttempt.update(event)
	case TypeRunCommand:
		r.RunCommand.update(event)
	case TypeUnknownCommand:
		r.UnknownCommand.update(event)
	case TypeInvalidInvocation:
		r.InvalidInvocation.update(event)
	case TypeDirectoryChange:
		r.DirectoryChange.update(event)
	case TypeProcTraversal:
		r.ProcTraversal.update(event)
	default:
		r.InvalidEntries.Increment(event.Type)
	}
}

type LoginAttemptReport struct {
	// List of usernames and their counts.
	Usernames StrCounter `json:"usernames"`
	// List of login attempt results and their counts.
	Results StrCounter `json:"results"`
}

func (r *LoginAttemptReport) update(e Event) {
	r.Usernames.Increment(e.String("username"))
	r.Results.Increment(e.String("result"))
}

type RunCommandReport struct {
	// Name of the resolved command
	ResolvedCommandPaths StrCounter `json:"resolved_command_names"`
	// Name of the command
	CommandNames StrCounter `json:"command_names"`
	// Number of commands started in the background.
	Background int `json:"background"`
}

func (r *RunCommandReport) update(e Event) {
	if path := e.String("resolved_command_path"); path != "" {
		r.ResolvedCommandPaths.Increment(path)
	}
	if cmd := e.Command(); len(cmd) > 0 {
		r.CommandNames.Increment(cmd[0])
	}
	if e.Bool("background") {
		r.Background++
	}
}

type UnknownCommandReport struct {
	CommandNames StrCounter `json:"command_names"`
}

func (r *UnknownCommandReport) update(e Event) {
	if cmd := e.Command(); len(cmd) > 0 {
		r.CommandNames.Increment(cmd[0])
	}
}

type InvalidInvocationReport struct {
	Errors *PathCounter `json:"errors"`
}

func (r *InvalidInvocationReport) update(e Event) {
	if r.Errors == nil {
		r.Errors = NewPathCounter("command", "error")
	}

	name := ""
	if cmd := e.Command(); len(cmd) > 0 {
		name = cmd[0]
	}
	r.Errors.Increment(name, e.String("error"))
}

type DirectoryChangeReport struct {
	Paths StrCounter `json:"paths"`
}

func (r *DirectoryChangeReport) update(e Event) {
	r.Paths.Increment(e.String("path"))
}

type ProcTraversalReport struct {
	Modes    StrCounter `json:"modes"`
	Backends StrCounter `json:"backends"`
	PIDs     StrCounter `json:"pids"`
	Failures int        `json:"failures"`
}

func (r *ProcTraversalReport) update(e Event) {
	r.Modes.Increment(e.String("mode"))
	r.Backends.Increment(e.String("backend"))
	r.PIDs.Increment(strconv.Itoa(e.Int("pid")))
	if e.String("error") != "" {
		r.Failures++
	}
}

// SessionReport groups the activity of each session.
type SessionReport struct {
	// Map of sessionID -> activity
	sessions map[string]*SessionActivity
}

// SessionActivity is the activity of a single session.
type SessionActivity struct {
	Login struct {
		Username   string `json:"username"`
		RemoteAddr string `json:"remote_addr,omitempty"`
		Result     string `json:"result"`
	} `json:"login"`
	LogEntries int `json:"log_entries"`

	Commands    []string `json:"commands"`
	Directories []string `json:"directories"`
}

func (i *SessionActivity) Update(le *LogEntry) {
	i.LogEntries++

	event := le.Event
	switch event.Type {
	case TypeLoginAttempt:
		i.Login.Username = event.String("username")
		i.Login.RemoteAddr = event.String("remote_addr")
		i.Login.Result = event.String("result")
	case TypeRunCommand, TypeUnknownCommand:
		i.Commands = append(i.Commands, strings.Join(event.Command(), " "))
	case TypeDirectoryChange:
		i.Directories = append(i.Directories, event.String("path"))
	}
}

func (i *SessionReport) init() {
	if i.sessions == nil {
		i.sessions = make(map[string]*SessionActivity)
	}
}

// MarshalJSON implemnts custom JSON marshaler.
func (i *SessionReport) MarshalJSON() ([]byte, error) {
	i.init()

	return json.Marshal(i.sessions)
}

func (i *SessionReport) Update(le *LogEntry) {
	i.init()

	sessionID := le.SessionID
	if sessionID == "" {
		return
	}
	report, ok := i.sessions[sessionID]
	if !ok {
		report = &SessionActivity{}
		i.sessions[sessionID] = report
	}

	report.Update(le)
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns the number of times key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of distinct tuples seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Count returns the number of times the tuple was seen.
func (ctr *PathCounter) Count(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
