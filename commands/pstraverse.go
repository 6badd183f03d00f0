package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/shellfyre/core/logger"
	"github.com/josephlewis42/shellfyre/core/proctree"
)

const invalidInputMessage = "Invalid input."

var errInvalidInput = errors.New("invalid input")

// PsTraverse prints the processes below a PID using the configured process
// tree service.
func PsTraverse(s *Shell, args []string) int {
	req, err := parseTraversal(args)
	if err != nil {
		s.LogInvalidInvocation(args, err)
		fmt.Fprintln(s.Stderr, invalidInputMessage)
		return 1
	}

	out, err := proctree.Traverse(context.Background(), s.ProcTree, req)
	s.Events.Record(logger.ProcTraversal(req.PID, string(req.Mode), s.Config.ProcTree.Backend, err))
	if err != nil {
		s.Errorf(args[0], err)
		return 1
	}

	if out != "" {
		fmt.Fprint(s.Stdout, out)
		if !strings.HasSuffix(out, "\n") {
			fmt.Fprintln(s.Stdout)
		}
	}
	return 0
}

func parseTraversal(args []string) (proctree.Request, error) {
	if len(args) != 3 {
		return proctree.Request{}, errInvalidInput
	}

	pid, err := strconv.Atoi(args[1])
	if err != nil || pid < 0 {
		return proctree.Request{}, fmt.Errorf("bad PID %q: %w", args[1], errInvalidInput)
	}

	mode, err := proctree.ParseMode(args[2])
	if err != nil {
		return proctree.Request{}, err
	}

	return proctree.Request{PID: pid, Mode: mode}, nil
}
