package logging

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const LogTimeFormat = "2006-01-02 15:04:05"

// InitLog sends the standard logger to dest. The client needs this because
// the terminal belongs to the board.
func InitLog(dest, prefix string) error {
	f, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	log.SetOutput(f)
	log.SetPrefix(prefix)
	return nil
}

func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Prefix colors name when stderr is a terminal.
func Prefix(name string, attr color.Attribute) string {
	return colorize(name, attr, IsTerminal(os.Stderr))
}

func colorize(s string, attr color.Attribute, enabled bool) string {
	if !enabled {
		return s
	}

	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

// Drain writes every message from logger to l until logger is closed.
func Drain(logger <-chan string, l *log.Logger) {
	for msg := range logger {
		l.Println(time.Now().Format(LogTimeFormat) + " " + msg)
	}
}
