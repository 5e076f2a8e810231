package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/qnkhuat/guards/pkg/game"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Server configures the relay.
type Server struct {
	Listen       string        `env:"GUARDS_LISTEN"        envDefault:":34865"`
	ListenWS     string        `env:"GUARDS_LISTEN_WS"`
	ListenSSH    string        `env:"GUARDS_LISTEN_SSH"`
	Client       string        `env:"GUARDS_CLIENT"        envDefault:"guards"`
	HostKey      string        `env:"GUARDS_HOST_KEY"`
	WriteTimeout time.Duration `env:"GUARDS_WRITE_TIMEOUT" envDefault:"10s"`
	QueueSize    int           `env:"GUARDS_QUEUE_SIZE"    envDefault:"16"`
	Verbose      bool          `env:"GUARDS_VERBOSE"`
}

// ParseServer reads the environment, then lets flags override it.
func ParseServer(fs *flag.FlagSet, args []string) (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}

	fs.StringVar(&cfg.Listen, "listen-tcp", cfg.Listen, "host:port or unix socket path to listen on")
	fs.StringVar(&cfg.ListenWS, "listen-ws", cfg.ListenWS, "host:port to accept websocket clients on")
	fs.StringVar(&cfg.ListenSSH, "listen-ssh", cfg.ListenSSH, "host:port to accept ssh players on")
	fs.StringVar(&cfg.Client, "client", cfg.Client, "client binary run for each ssh session")
	fs.StringVar(&cfg.HostKey, "host-key", cfg.HostKey, "ssh host key file")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "time allowed for each write to a client")
	fs.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "lines buffered per client before it is disconnected")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log every command")
	if err := fs.Parse(args); err != nil {
		return Server{}, err
	}

	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (c Server) validate() error {
	if c.Listen == "" && c.ListenWS == "" {
		return errors.New("at least one of listen-tcp or listen-ws is required")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write-timeout must be positive, got %s", c.WriteTimeout)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue-size must be positive, got %d", c.QueueSize)
	}
	if c.ListenSSH != "" && c.Client == "" {
		return errors.New("listen-ssh needs a client binary")
	}
	return nil
}

// Client configures the terminal client.
type Client struct {
	Server       string `env:"GUARDS_SERVER"`
	TeamName     string `env:"GUARDS_TEAM"`
	Map          string `env:"GUARDS_MAP"`
	Log          string `env:"GUARDS_LOG"           envDefault:"guards.log"`
	ServerBinary string `env:"GUARDS_SERVER_BINARY"`

	// Team is TeamName parsed; Neutral when no team was asked for.
	Team game.Team
}

func ParseClient(fs *flag.FlagSet, args []string) (Client, error) {
	var cfg Client
	if err := ParseEnv(&cfg); err != nil {
		return Client{}, err
	}

	fs.StringVar(&cfg.Server, "server", cfg.Server, "relay to join on start")
	fs.StringVar(&cfg.TeamName, "team", cfg.TeamName, "team to join on start (purple or white)")
	fs.StringVar(&cfg.Map, "map", cfg.Map, "map file (default: built-in board)")
	fs.StringVar(&cfg.Log, "log", cfg.Log, "log file")
	fs.StringVar(&cfg.ServerBinary, "server-binary", cfg.ServerBinary, "relay binary started by Host game")
	if err := fs.Parse(args); err != nil {
		return Client{}, err
	}

	if cfg.TeamName != "" {
		team, ok := game.ParseTeam(cfg.TeamName)
		if !ok {
			return Client{}, fmt.Errorf("unknown team %q", cfg.TeamName)
		}
		if cfg.Server == "" {
			return Client{}, errors.New("team requires a server to join")
		}
		cfg.Team = team
	}
	return cfg, nil
}
