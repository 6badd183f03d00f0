// Package core serves the interpreter to remote users over SSH.
package core

import (
	"bytes"
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"log"
	"net"
	"sync/atomic"
	"time"

	"github.com/gliderlabs/ssh"
	"github.com/josephlewis42/shellfyre/commands"
	"github.com/josephlewis42/shellfyre/core/config"
	"github.com/josephlewis42/shellfyre/core/logger"
	"github.com/josephlewis42/shellfyre/core/proc"
	"github.com/josephlewis42/shellfyre/core/ttylog"
)

type sshContextKey struct {
	name string
}

// ContextSessionLogger holds the event logger of the connection, created when
// the client authenticates so the login and the session share an ID.
var ContextSessionLogger = sshContextKey{"session-logger"}

type Server struct {
	configuration *config.Configuration
	logger        *logger.Logger
	sshServer     *ssh.Server
}

// NewServer creates an SSH server that runs a shell for every session.
// Events are written to events.
func NewServer(configuration *config.Configuration, events *logger.Logger) (*Server, error) {
	server := &Server{
		configuration: configuration,
		logger:        events,
	}

	server.sshServer = &ssh.Server{
		Addr:            fmt.Sprintf(":%d", configuration.SSH.Port),
		Handler:         server.HandleSession,
		PasswordHandler: server.checkPassword,
	}

	keyPem, err := configuration.PrivateKeyPem()
	if err != nil {
		return nil, fmt.Errorf("reading host key: %w", err)
	}
	if err := server.sshServer.SetOption(ssh.HostKeyPEM(keyPem)); err != nil {
		return nil, fmt.Errorf("loading host key: %w", err)
	}

	return server, nil
}

func (s *Server) checkPassword(ctx ssh.Context, password string) bool {
	ok := false
	for _, allowed := range s.configuration.GetPasswords(ctx.User()) {
		if subtle.ConstantTimeCompare([]byte(password), []byte(allowed)) == 1 {
			ok = true
		}
	}

	result := logger.LoginRejected
	if ok {
		result = logger.LoginAccepted
	}

	sessionLogger := s.logger.NewSession()
	sessionLogger.Record(logger.LoginAttempt(ctx.User(), ctx.RemoteAddr().String(), result))
	if ok {
		ctx.SetValue(ContextSessionLogger, sessionLogger)
	}
	return ok
}

func (s *Server) sessionLogger(ctx ssh.Context) *logger.SessionLogger {
	if sl, ok := ctx.Value(ContextSessionLogger).(*logger.SessionLogger); ok {
		return sl
	}
	return s.logger.NewSession()
}

// HandleSession runs a shell on the session until the client leaves. A
// session with a command runs that one line and exits with its status.
func (s *Server) HandleSession(session ssh.Session) {
	sessionLogger := s.sessionLogger(session.Context())
	ptyInfo, winch, isPTY := session.Pty()

	stdio := proc.Stdio{In: session, Out: session, Err: session.Stderr()}

	recording, err := s.configuration.CreateSessionRecording(recordingName(sessionLogger))
	switch {
	case err != nil:
		log.Printf("Error creating session recording: %v", err)
	case recording != nil:
		defer recording.Close()
		stdio = ttylog.Record(stdio, ttylog.NewAsciicastLogSink(recording, ttylog.AsciicastHeader{
			Width:  ptyInfo.Window.Width,
			Height: ptyInfo.Window.Height,
			Term:   ptyInfo.Term,
			Title:  fmt.Sprintf("%s@%s", session.User(), session.RemoteAddr()),
		}))
	}

	// Programs started from a remote session don't share its input.
	shellStdio := proc.Stdio{Out: stdio.Out, Err: stdio.Err}
	if isPTY {
		shellStdio = proc.Stdio{Out: crlfWriter{stdio.Out}, Err: crlfWriter{stdio.Err}}
	}

	width := int64(ptyInfo.Window.Width)
	if isPTY {
		go func() {
			for window := range winch {
				atomic.StoreInt64(&width, int64(window.Width))
			}
		}()
	}

	var input commands.LineReader
	if isPTY {
		rl, err := commands.NewReadlineReader(
			stdio,
			func() bool { return true },
			func() int { return int(atomic.LoadInt64(&width)) })
		if err != nil {
			fmt.Fprintf(session.Stderr(), "%v\n", err)
			session.Exit(1)
			return
		}
		if closer, ok := rl.(io.Closer); ok {
			defer closer.Close()
		}
		input = rl
	} else {
		input = commands.NewPlainReader(stdio.In, nil)
	}

	sh := commands.NewShell(s.configuration, shellStdio, input, sessionLogger)
	sh.User = session.User()
	sh.Interactive = isPTY
	sh.Color = isPTY
	if err := sh.Chdir(sh.Home); err != nil {
		log.Printf("Error entering home directory: %v", err)
	}

	if line := session.RawCommand(); line != "" {
		sh.RunLine(line)
		session.Exit(sh.LastStatus())
		return
	}

	if banner := s.configuration.SSH.Banner; banner != "" {
		fmt.Fprintln(shellStdio.Out, banner)
	}

	sh.RunInteractive()
	session.Exit(sh.LastStatus())
}

func recordingName(sessionLogger *logger.SessionLogger) string {
	return fmt.Sprintf("%s-%s.%s",
		time.Now().UTC().Format("20060102T150405Z"),
		sessionLogger.SessionID(),
		ttylog.AsciicastFileExt)
}

// crlfWriter translates line endings for a client terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.sshServer.Addr
}

func (s *Server) ListenAndServe() error {
	log.Printf("- Starting SSH server on %s\n", s.sshServer.Addr)
	return s.sshServer.ListenAndServe()
}

// Serve accepts connections on l.
func (s *Server) Serve(l net.Listener) error {
	return s.sshServer.Serve(l)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.sshServer.Shutdown(ctx)
}
