// +build windows

package server

import (
	"errors"
	"net"
)

var errSSHUnsupported = errors.New("ssh: hosting the client over ssh is not supported on windows")

type SSHServer struct {
	ListenAddress string
	ClientBinary  string
	RelayAddress  string
	HostKeyFile   string

	Logger func(format string, a ...interface{})
}

func (s *SSHServer) ListenAndServe() error {
	return errSSHUnsupported
}

func (s *SSHServer) Serve(l net.Listener) error {
	return errSSHUnsupported
}

func (s *SSHServer) Close() error {
	return nil
}
