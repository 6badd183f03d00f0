// Package logger is a standardized event logging framework for the shell.
//
// Entries are written as newline delimited JSON. Each line holds a timestamp,
// an optional session ID and exactly one event keyed by its type:
//
//	{"timestamp_micros":1634428800000000,"session_id":"42","run_command":{"command":["ls","-l"],"status":0}}
package logger
