package proctree

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Procfs walks /proc in process rather than loading a kernel module. Its
// output matches the module's so the two are interchangeable.
type Procfs struct {
	Fs   afero.Fs
	Root string

	log strings.Builder
}

var _ Service = (*Procfs)(nil)

// NewProcfs walks the host's /proc.
func NewProcfs() *Procfs {
	return &Procfs{Fs: afero.NewOsFs(), Root: "/proc"}
}

func (p *Procfs) Install(ctx context.Context, req Request) error {
	p.log.Reset()

	if _, err := p.comm(req.PID); err != nil {
		p.logf("Invalid PID!")
		return nil
	}

	switch req.Mode {
	case Breadth:
		p.logf("BFS is not implemented!")
	case Depth:
		return p.depthFirst(ctx, req.PID)
	}
	return nil
}

func (p *Procfs) Uninstall(context.Context) error {
	return nil
}

func (p *Procfs) Log(context.Context) (string, error) {
	out := p.log.String()
	p.log.Reset()
	return out, nil
}

func (p *Procfs) depthFirst(ctx context.Context, pid int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := p.comm(pid)
	if err != nil {
		// The process exited during the walk.
		return nil
	}
	p.logf("PID: %d, Name: %s", pid, name)

	for _, child := range p.children(pid) {
		if err := p.depthFirst(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

func (p *Procfs) comm(pid int) (string, error) {
	if pid <= 0 {
		return "", fmt.Errorf("invalid pid %d", pid)
	}
	data, err := afero.ReadFile(p.Fs, filepath.Join(p.Root, strconv.Itoa(pid), "comm"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// children lists the children of every thread of pid.
func (p *Procfs) children(pid int) []int {
	taskDir := filepath.Join(p.Root, strconv.Itoa(pid), "task")
	tasks, err := afero.ReadDir(p.Fs, taskDir)
	if err != nil {
		return nil
	}

	var out []int
	for _, task := range tasks {
		data, err := afero.ReadFile(p.Fs, filepath.Join(taskDir, task.Name(), "children"))
		if err != nil {
			continue
		}
		for _, field := range strings.Fields(string(data)) {
			if child, err := strconv.Atoi(field); err == nil {
				out = append(out, child)
			}
		}
	}
	return out
}

func (p *Procfs) logf(format string, args ...interface{}) {
	fmt.Fprintf(&p.log, format+"\n", args...)
}
