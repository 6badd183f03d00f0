package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/juju/ratelimit"
	"github.com/spf13/afero"
)

// Joke prints a joke fetched from the configured service.
func Joke(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "joke",
		Short: "Print a random joke.",
	}

	return cmd.Run(s, args, func() int {
		if err := s.fetchJoke(context.Background(), s.Stdout); err != nil {
			s.Errorf(args[0], err)
			return 1
		}
		return 0
	})
}

func (s *Shell) fetchJoke(ctx context.Context, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Config.Joke.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("User-Agent", SystemName)

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", s.Config.Joke.URL, resp.Status)
	}

	rate := s.Config.Joke.BytesPerSecond
	bucket := ratelimit.NewBucketWithRate(float64(rate), rate)

	var body strings.Builder
	if _, err := io.Copy(&body, ratelimit.Reader(resp.Body, bucket)); err != nil {
		return err
	}

	joke := strings.TrimRight(body.String(), "\r\n")
	_, err = fmt.Fprintln(w, joke)
	return err
}

// cronLine is the crontab entry that shows a joke as a desktop notification.
func (s *Shell) cronLine() string {
	return fmt.Sprintf(
		"%s XDG_RUNTIME_DIR=/run/user/$(id -u) notify-send \"$(curl -s -H 'Accept: text/plain' %s)\"\n",
		s.Config.Joke.Schedule,
		s.Config.Joke.URL)
}

// Joker installs a crontab that shows a joke notification on a schedule.
// The user's existing crontab is replaced.
func Joker(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "joker",
		Short: "Schedule desktop notifications with a joke.",
	}

	return cmd.Run(s, args, func() int {
		fsys := afero.NewOsFs()
		f, err := afero.TempFile(fsys, "", "shellfyre-cron-")
		if err != nil {
			s.Errorf(args[0], err)
			return 1
		}
		defer fsys.Remove(f.Name())

		_, err = io.WriteString(f, s.cronLine())
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			s.Errorf(args[0], err)
			return 1
		}

		status, err := s.Executor.Run("crontab", f.Name())
		if err != nil || status != 0 {
			return status
		}

		fmt.Fprintf(s.Stdout, "A joke will be delivered on the schedule %q.\n", s.Config.Joke.Schedule)
		return 0
	})
}
