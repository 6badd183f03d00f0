package proctree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"-b":      Breadth,
		"breadth": Breadth,
		"-d":      Depth,
		"depth":   Depth,
	}
	for in, expected := range cases {
		actual, err := ParseMode(in)
		assert.Nil(t, err)
		assert.Equal(t, expected, actual)
	}

	for _, in := range []string{"", "-x", "BFS", "Depth"} {
		_, err := ParseMode(in)
		assert.ErrorIs(t, err, ErrInvalidMode, in)
	}
}

type fakeService struct {
	calls      []string
	installErr error
	log        string
}

func (f *fakeService) Install(ctx context.Context, req Request) error {
	f.calls = append(f.calls, "install")
	return f.installErr
}

func (f *fakeService) Uninstall(ctx context.Context) error {
	f.calls = append(f.calls, "uninstall")
	return nil
}

func (f *fakeService) Log(ctx context.Context) (string, error) {
	f.calls = append(f.calls, "log")
	return f.log, nil
}

func TestTraverse(t *testing.T) {
	svc := &fakeService{log: "PID: 1, Name: init\n"}

	out, err := Traverse(context.Background(), svc, Request{PID: 1, Mode: Depth})

	assert.Nil(t, err)
	assert.Equal(t, "PID: 1, Name: init\n", out)
	assert.Equal(t, []string{"install", "uninstall", "log"}, svc.calls)
}

func TestTraverse_installFailureStillUninstalls(t *testing.T) {
	failure := errors.New("insmod: permission denied")
	svc := &fakeService{installErr: failure}

	_, err := Traverse(context.Background(), svc, Request{PID: 1, Mode: Depth})

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, []string{"install", "uninstall"}, svc.calls)
}
