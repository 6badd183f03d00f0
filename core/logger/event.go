package logger

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// Event types.
const (
	TypeRunCommand        = "run_command"
	TypeUnknownCommand    = "unknown_command"
	TypeInvalidInvocation = "invalid_invocation"
	TypeDirectoryChange   = "directory_change"
	TypeProcTraversal     = "proc_traversal"
	TypeLoginAttempt      = "login_attempt"
)

var knownTypes = []string{
	TypeRunCommand,
	TypeUnknownCommand,
	TypeInvalidInvocation,
	TypeDirectoryChange,
	TypeProcTraversal,
	TypeLoginAttempt,
}

// Login attempt results.
const (
	LoginAccepted = "accepted"
	LoginRejected = "rejected"
)

// Event is the payload of a single log entry.
type Event struct {
	Type string
	Data *structpb.Struct
}

func newEvent(eventType string, fields map[string]interface{}) Event {
	data, err := structpb.NewStruct(fields)
	if err != nil {
		// Constructors only pass types structpb understands.
		panic(err)
	}
	return Event{Type: eventType, Data: data}
}

func stringList(vals []string) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// RunCommand records a pipeline stage handed to the operating system.
func RunCommand(command []string, resolvedPath string, background bool) Event {
	return newEvent(TypeRunCommand, map[string]interface{}{
		"command":               stringList(command),
		"resolved_command_path": resolvedPath,
		"background":            background,
	})
}

// UnknownCommand records a command that could not be located.
func UnknownCommand(command []string, err error) Event {
	return newEvent(TypeUnknownCommand, map[string]interface{}{
		"command":       stringList(command),
		"error_message": errorString(err),
	})
}

// InvalidInvocation records a built-in called with bad arguments.
func InvalidInvocation(command []string, err error) Event {
	return newEvent(TypeInvalidInvocation, map[string]interface{}{
		"command": stringList(command),
		"error":   errorString(err),
	})
}

// DirectoryChange records a successful change of working directory.
func DirectoryChange(path string) Event {
	return newEvent(TypeDirectoryChange, map[string]interface{}{
		"path": path,
	})
}

// ProcTraversal records a process tree traversal request.
func ProcTraversal(pid int, mode, backend string, err error) Event {
	return newEvent(TypeProcTraversal, map[string]interface{}{
		"pid":     pid,
		"mode":    mode,
		"backend": backend,
		"error":   errorString(err),
	})
}

// LoginAttempt records an authentication attempt against the SSH server.
func LoginAttempt(username, remoteAddr, result string) Event {
	return newEvent(TypeLoginAttempt, map[string]interface{}{
		"username":    username,
		"remote_addr": remoteAddr,
		"result":      result,
	})
}

// String returns the string field with the given key or "".
func (e Event) String(key string) string {
	return e.Data.GetFields()[key].GetStringValue()
}

// Strings returns the list field with the given key.
func (e Event) Strings(key string) []string {
	var out []string
	for _, v := range e.Data.GetFields()[key].GetListValue().GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}

// Int returns the numeric field with the given key truncated to an int.
func (e Event) Int(key string) int {
	return int(e.Data.GetFields()[key].GetNumberValue())
}

// Bool returns the boolean field with the given key.
func (e Event) Bool(key string) bool {
	return e.Data.GetFields()[key].GetBoolValue()
}

// Command returns the command associated with the event, if any.
func (e Event) Command() []string {
	return e.Strings("command")
}
