// Package execread provides a shared struct that wraps around cmd.
package execread

import (
	"context"
	"os"
	"os/exec"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/siradar/zenith/input"
	"github.com/siradar/zenith/input/stdin"
)

// Session is a session that reads notification payloads from the standard
// output of a relay command.
type Session struct {
	// OnStart is called when the session starts. Nil by default.
	OnStart func(ctx context.Context, cmd *exec.Cmd) error

	// prevents cmd.Stderr from pointing to os.Stderr. false by default.
	DisconnectedStderr bool

	argv []string
	cfg  input.SessionConfig
	hex  bool
}

// NewSession creates a new execread session. With hex set the command is
// expected to print one hex encoded payload per line; otherwise it writes
// raw payloads back to back.
func NewSession(argv []string, hex bool, cfg input.SessionConfig) (*Session, error) {
	if len(argv) < 1 {
		return nil, errors.New("argv has no arg0")
	}

	return &Session{
		argv: argv,
		cfg:  cfg,
		hex:  hex,
	}, nil
}

func (s *Session) Start(ctx context.Context, dst chan<- []byte) error {
	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)

	if !s.DisconnectedStderr {
		cmd.Stderr = os.Stderr
	}

	o, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get stdout pipe")
	}

	readCfg := s.cfg
	readCfg.Device = stdin.Raw
	if s.hex {
		readCfg.Device = stdin.Hex
	}

	reader, err := stdin.NewSession(readCfg, o)
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start "+s.argv[0])
	}

	glog.Infof("relay %s started, pid %d", s.argv[0], cmd.Process.Pid)

	if s.OnStart != nil {
		if err := s.OnStart(ctx, cmd); err != nil {
			cmd.Process.Kill()
			cmd.Wait()
			return err
		}
	}

	readErr := reader.Start(ctx, dst)

	// The relay may still be running if the reader stopped first.
	if readErr != nil {
		cmd.Process.Kill()
	}

	waitErr := cmd.Wait()

	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case readErr != nil:
		return readErr
	case waitErr != nil:
		return errors.Wrap(waitErr, s.argv[0]+" failed")
	}

	return nil
}
