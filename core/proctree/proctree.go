// Package proctree enumerates the process tree below a given PID.
//
// Enumeration runs out of process: a Service is installed with a request,
// does its work while installed, is uninstalled, and its log is read back.
package proctree

import (
	"context"
	"errors"
	"fmt"
)

// Mode selects the traversal order.
type Mode string

const (
	Breadth Mode = "-b"
	Depth   Mode = "-d"
)

// ErrInvalidMode is returned for unrecognized traversal modes.
var ErrInvalidMode = errors.New("invalid traversal mode")

// ParseMode accepts the short flag or the long name of a mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "-b", "breadth":
		return Breadth, nil
	case "-d", "depth":
		return Depth, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidMode)
	}
}

// Request describes a traversal.
type Request struct {
	PID  int
	Mode Mode
}

// Service is an external enumerator of the process tree.
type Service interface {
	// Install starts the service with the request. Traversal happens
	// synchronously while it is installed.
	Install(ctx context.Context, req Request) error
	// Uninstall removes the service.
	Uninstall(ctx context.Context) error
	// Log returns the output produced by the traversal.
	Log(ctx context.Context) (string, error)
}

// Traverse installs svc, uninstalls it and returns its log. Uninstall is
// attempted even if Install failed.
func Traverse(ctx context.Context, svc Service, req Request) (string, error) {
	installErr := svc.Install(ctx, req)
	uninstallErr := svc.Uninstall(ctx)

	switch {
	case installErr != nil:
		return "", fmt.Errorf("install: %w", installErr)
	case uninstallErr != nil:
		return "", fmt.Errorf("uninstall: %w", uninstallErr)
	}

	out, err := svc.Log(ctx)
	if err != nil {
		return "", fmt.Errorf("reading log: %w", err)
	}
	return out, nil
}
