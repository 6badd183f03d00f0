package proctree

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/shellfyre/core/proc"
)

// Template placeholders expanded in KernelModule commands.
const (
	PIDPlaceholder  = "{pid}"
	ModePlaceholder = "{mode}"
)

// Runner runs argv and returns its standard output.
type Runner func(ctx context.Context, argv []string) (string, error)

// KernelModule drives a loadable kernel module that writes the tree to the
// kernel log. Each field is a command line template split like a shell
// would split it.
type KernelModule struct {
	ClearLog  string
	Install   string
	Uninstall string
	ReadLog   string

	Run Runner
}

var _ Service = (*kernelModuleService)(nil)

type kernelModuleService struct {
	*KernelModule
}

// Service adapts the module to the Service interface.
func (k *KernelModule) Service() Service {
	return &kernelModuleService{k}
}

func (k *kernelModuleService) Install(ctx context.Context, req Request) error {
	if k.ClearLog != "" {
		if _, err := k.run(ctx, k.ClearLog, req); err != nil {
			return err
		}
	}
	_, err := k.run(ctx, k.KernelModule.Install, req)
	return err
}

func (k *kernelModuleService) Uninstall(ctx context.Context) error {
	_, err := k.run(ctx, k.KernelModule.Uninstall, Request{})
	return err
}

func (k *kernelModuleService) Log(ctx context.Context) (string, error) {
	return k.run(ctx, k.ReadLog, Request{})
}

func (k *kernelModuleService) run(ctx context.Context, template string, req Request) (string, error) {
	argv, err := Expand(template, req)
	if err != nil {
		return "", err
	}
	if len(argv) == 0 {
		return "", nil
	}
	return k.Run(ctx, argv)
}

// Expand splits template into arguments and fills in the placeholders.
func Expand(template string, req Request) ([]string, error) {
	argv, err := shlex.Split(template, true)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", template, err)
	}

	replacer := strings.NewReplacer(
		PIDPlaceholder, strconv.Itoa(req.PID),
		ModePlaceholder, string(req.Mode),
	)
	for i, arg := range argv {
		argv[i] = replacer.Replace(arg)
	}
	return argv, nil
}

// ExecRunner runs commands with the executor, collecting their output.
// Diagnostics from the commands go to the executor's error stream.
func ExecRunner(e *proc.Executor) Runner {
	return func(ctx context.Context, argv []string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		var stdout bytes.Buffer
		status, err := e.WithStdio(proc.Stdio{
			In:  e.In,
			Out: &stdout,
			Err: e.Err,
		}).Run(argv...)
		switch {
		case err != nil:
			return "", err
		case status != 0:
			return stdout.String(), fmt.Errorf("%s exited with status %d", argv[0], status)
		}
		return stdout.String(), nil
	}
}
