//go:build unix

package proc

import (
	"os"
	"syscall"
)

// processGroup places a background stage in the group led by pgid, or in a
// new group when pgid is 0.
func processGroup(pgid int) *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}
}

// signalStatus maps a process killed by a signal to the conventional 128+n
// status.
func signalStatus(state *os.ProcessState) (int, bool) {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0, false
	}
	return 128 + int(ws.Signal()), true
}
