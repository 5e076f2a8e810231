//go:build !windows
// +build !windows

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os/exec"
	"time"

	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	gossh "golang.org/x/crypto/ssh"
)

const SSHIdleTimeout = 5 * time.Minute

// SSHServer lets players without the client installed play over ssh. Every
// session runs the terminal client in a pty, pointed at the relay.
type SSHServer struct {
	ListenAddress string
	ClientBinary  string
	RelayAddress  string
	// HostKeyFile is optional; a key is generated on start when empty.
	HostKeyFile string

	Logger func(format string, a ...interface{})

	server *ssh.Server
}

func (s *SSHServer) logf(format string, a ...interface{}) {
	if s.Logger != nil {
		s.Logger(format, a...)
	}
}

func (s *SSHServer) init() error {
	if s.server != nil {
		return nil
	}
	if s.ClientBinary == "" {
		return errors.New("ssh: client binary must be specified")
	}

	server := &ssh.Server{
		Addr:        s.ListenAddress,
		IdleTimeout: SSHIdleTimeout,
		Handler:     s.handle,
		PtyCallback: func(ctx ssh.Context, pty ssh.Pty) bool {
			return true
		},
		PublicKeyHandler: func(ctx ssh.Context, key ssh.PublicKey) bool {
			return true
		},
		PasswordHandler: func(ctx ssh.Context, password string) bool {
			return true
		},
		KeyboardInteractiveHandler: func(ctx ssh.Context, challenger gossh.KeyboardInteractiveChallenge) bool {
			return true
		},
	}

	if s.HostKeyFile != "" {
		if err := server.SetOption(ssh.HostKeyFile(s.HostKeyFile)); err != nil {
			return fmt.Errorf("ssh: load host key: %w", err)
		}
	}

	s.server = server
	return nil
}

func (s *SSHServer) ListenAndServe() error {
	if err := s.init(); err != nil {
		return err
	}

	s.logf("Listening for ssh on %s", s.ListenAddress)
	return s.ignoreClosed(s.server.ListenAndServe())
}

func (s *SSHServer) Serve(l net.Listener) error {
	if err := s.init(); err != nil {
		return err
	}

	return s.ignoreClosed(s.server.Serve(l))
}

func (s *SSHServer) Close() error {
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}

func (s *SSHServer) ignoreClosed(err error) error {
	if errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *SSHServer) handle(sess ssh.Session) {
	ptyReq, winCh, isPty := sess.Pty()
	if !isPty {
		io.WriteString(sess, "failed to start guards: non-interactive terminals are not supported\n")

		sess.Exit(1)
		return
	}

	cmdCtx, cancelCmd := context.WithCancel(sess.Context())
	defer cancelCmd()

	cmd := exec.CommandContext(cmdCtx, s.ClientBinary, "--server", s.RelayAddress, "--log", "/dev/null")
	cmd.Env = append(sess.Environ(), fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(ptyReq.Window.Height), Cols: uint16(ptyReq.Window.Width)})
	if err != nil {
		io.WriteString(sess, fmt.Sprintf("failed to initialize pseudo-terminal: %s\n", err))
		sess.Exit(1)
		return
	}
	defer f.Close()

	s.logf("ssh session for %s from %s", sess.User(), sess.RemoteAddr())

	go func() {
		for win := range winCh {
			pty.Setsize(f, &pty.Winsize{Rows: uint16(win.Height), Cols: uint16(win.Width)})
		}
	}()

	go func() {
		io.Copy(f, sess)
	}()
	io.Copy(sess, f)

	cancelCmd()
	cmd.Wait()
}
