// Package terminal implements the per-connection command shell proxied into
// a container. Each session owns a working directory, intercepts built-in
// commands locally and forwards everything else to the container runtime as
// an exec call, one reply frame per command.
package terminal

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lightdock/lightdock/internal/runtime"
)

// ClearSentinel tells the presentation layer to erase visible scrollback.
const ClearSentinel = "__CLEAR__"

const helpText = `Available commands:
  help, ?       show this help
  pwd           print the working directory
  cd <dir>      change the working directory
  ls [dir]      list a directory
  cat <file>    print a file
  echo <text>   echo text locally
  clear         clear the screen
  exit          close the session
Anything else is executed inside the container.`

// Transport is one message-oriented bidirectional connection: text frames in,
// text frames out. ReceiveLine blocks until the next frame and returns an
// error when the transport closes.
type Transport interface {
	ReceiveLine() (string, error)
	SendLine(s string) error
	Close() error
}

// Container is the slice of a runtime container handle a session dispatches
// to. *runtime.ContainerHandle satisfies it.
type Container interface {
	Reload(ctx context.Context) error
	Exec(ctx context.Context, cmd, workdir string) ([]byte, error)
}

// Session is the stateful shell for one connection. It is owned exclusively
// by that connection and processes commands strictly in arrival order; all
// state is discarded when Run returns.
type Session struct {
	ID          string
	transport   Transport
	container   Container
	workdir     string
	execTimeout time.Duration
}

func NewSession(t Transport, c Container, execTimeout time.Duration) *Session {
	return &Session{
		ID:          uuid.NewString(),
		transport:   t,
		container:   c,
		workdir:     "/",
		execTimeout: execTimeout,
	}
}

// Workdir returns the session's current working directory.
func (s *Session) Workdir() string { return s.workdir }

// Run's loop blocks on the next input line until the transport closes or the
// client asks to exit. A single failed command never terminates the session.
func (s *Session) Run(ctx context.Context) {
	for {
		line, err := s.transport.ReceiveLine()
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if s.handleLine(ctx, line) {
			return
		}
	}
}

// handleLine processes one trimmed, non-empty command line. It returns true
// when the session should end.
func (s *Session) handleLine(ctx context.Context, line string) (done bool) {
	switch {
	case line == "help" || line == "?":
		s.send(helpText)
	case line == "exit":
		s.send("Goodbye.")
		s.transport.Close()
		return true
	case line == "clear":
		s.send(ClearSentinel)
	case line == "pwd":
		s.send(s.workdir)
	case strings.HasPrefix(line, "cd "):
		s.changeDir(strings.TrimSpace(line[3:]))
	case strings.HasPrefix(line, "echo "):
		s.send(line[5:])
	case line == "ls":
		s.dispatch(ctx, "ls -al "+s.workdir)
	case strings.HasPrefix(line, "ls "):
		s.dispatch(ctx, "ls -al "+strings.TrimSpace(line[3:]))
	default:
		s.dispatch(ctx, line)
	}
	return false
}

// changeDir updates the working directory by lexical normalization only; the
// remote filesystem is never consulted.
func (s *Session) changeDir(target string) {
	if target == "" {
		target = "/"
	}
	var next string
	if path.IsAbs(target) {
		next = path.Clean(target)
	} else {
		next = path.Clean(path.Join(s.workdir, target))
	}
	s.workdir = next
	s.send("Changed directory to " + next)
}

// dispatch refreshes the container state and runs cmd inside it with the
// session's working directory, stdout and stderr combined. Errors are
// reported inline and the loop continues.
func (s *Session) dispatch(ctx context.Context, cmd string) {
	execCtx, cancel := context.WithTimeout(ctx, s.execTimeout)
	defer cancel()

	if err := s.container.Reload(execCtx); err != nil {
		s.sendError(err)
		return
	}

	out, err := s.container.Exec(execCtx, cmd, s.workdir)
	if err != nil {
		s.sendError(err)
		return
	}
	s.send(runtime.DecodeOutput(out, "(no output)"))
}

func (s *Session) sendError(err error) {
	if runtime.IsAPIError(err) || runtime.IsNotFound(err) {
		s.send("Docker API Error: " + err.Error())
		return
	}
	s.send("Error: " + err.Error())
}

func (s *Session) send(msg string) {
	// A send failure means the transport is gone; the next receive ends the loop.
	_ = s.transport.SendLine(msg)
}
