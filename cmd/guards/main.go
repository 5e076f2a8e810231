package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/qnkhuat/guards/pkg/config"
	"github.com/qnkhuat/guards/pkg/game"
	"github.com/qnkhuat/guards/pkg/gui"
	"github.com/qnkhuat/guards/pkg/logging"
)

func main() {
	cfg, err := config.ParseClient(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if !logging.IsTerminal(os.Stdin) || !logging.IsTerminal(os.Stdout) {
		fmt.Fprintln(os.Stderr, "guards needs an interactive terminal")
		os.Exit(1)
	}

	board, err := loadBoard(cfg.Map)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := logging.InitLog(cfg.Log, "CLIENT: "); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := gui.NewApp(ctx, game.NewGame(board), gui.Options{ServerBinary: cfg.ServerBinary})
	if cfg.Server != "" {
		app.JoinServer(cfg.Server, cfg.Team)
	}

	log.Println("New client")
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
	app.QuitToMenu()
}

func loadBoard(path string) (*game.Board, error) {
	if path == "" {
		return game.DefaultBoard()
	}
	return game.LoadBoard(path)
}
