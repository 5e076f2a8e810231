package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/qnkhuat/guards/pkg/config"
	"github.com/qnkhuat/guards/pkg/logging"
	"github.com/qnkhuat/guards/pkg/server"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix(logging.Prefix("SERVER", color.FgCyan) + " ")

	cfg, err := config.ParseServer(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := server.NewServer(server.Options{
		WriteTimeout: cfg.WriteTimeout,
		QueueSize:    cfg.QueueSize,
		Verbose:      cfg.Verbose,
	})

	logger := make(chan string, server.LogQueueSize)
	go logging.Drain(logger, log.Default())
	s.Logger = logger

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	fail := func(err error) {
		if err != nil {
			log.Printf("%s", err)
			stop()
		}
	}

	if cfg.Listen != "" {
		go func() { fail(s.Listen(cfg.Listen)) }()
	}
	if cfg.ListenWS != "" {
		go func() { fail(s.ListenWebSocket(cfg.ListenWS)) }()
	}

	var sshServer *server.SSHServer
	if cfg.ListenSSH != "" {
		relay := cfg.Listen
		if relay == "" {
			log.Fatal("listen-ssh needs listen-tcp for the hosted clients to connect to")
		}

		sshServer = &server.SSHServer{
			ListenAddress: cfg.ListenSSH,
			ClientBinary:  cfg.Client,
			RelayAddress:  relay,
			HostKeyFile:   cfg.HostKey,
			Logger:        s.Logf,
		}
		go func() { fail(sshServer.ListenAndServe()) }()
	}

	<-ctx.Done()

	s.StopListening()
	if sshServer != nil {
		sshServer.Close()
	}
	<-done
}
