package client

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

const DefaultServerBinary = "guardsd"

// ServerBinary returns the relay binary installed next to the running
// executable.
func ServerBinary() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultServerBinary
	}
	return filepath.Join(filepath.Dir(exe), DefaultServerBinary)
}

// Hosted is a client connected to a relay it started as a child process.
type Hosted struct {
	*Client

	cancel context.CancelFunc
	exited chan struct{}
}

// Host starts binary listening on address and connects to it. The child is
// stopped when the returned client is closed.
func Host(ctx context.Context, binary, address string) (*Hosted, error) {
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, binary, "--listen-tcp", address)
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start %s: %w", binary, err)
	}
	log.Printf("started %s (pid %d) on %s", binary, cmd.Process.Pid, address)

	exited := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(exited)
	}()

	dialCtx, stopDial := context.WithCancel(ctx)
	go func() {
		select {
		case <-exited:
			stopDial()
		case <-dialCtx.Done():
		}
	}()

	conn, err := dial(dialCtx, address, ConnectTries, ConnectRetryDelay)
	stopDial()
	if err != nil {
		cancel()
		<-exited
		if waitErr != nil {
			return nil, fmt.Errorf("%s exited: %s: %w", binary, waitErr, err)
		}
		return nil, err
	}

	return &Hosted{Client: New(conn), cancel: cancel, exited: exited}, nil
}

func (h *Hosted) Close() error {
	err := h.Client.Close()
	h.cancel()
	<-h.exited
	return err
}
