//go:build !unix

package proc

import (
	"os"
	"syscall"
)

func processGroup(pgid int) *syscall.SysProcAttr {
	return nil
}

func signalStatus(state *os.ProcessState) (int, bool) {
	return 0, false
}
