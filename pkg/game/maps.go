package game

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
)

//go:embed maps/board.txt
var defaultMap []byte

// DefaultBoard returns the built-in map with the starting layout.
func DefaultBoard() (*Board, error) {
	return loadBoard(defaultMap)
}

// LoadBoard reads a map file and applies the starting layout.
func LoadBoard(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("board file missing: %w", err)
	}
	return loadBoard(data)
}

func loadBoard(data []byte) (*Board, error) {
	b, err := ParseMap(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := b.Place(StartingLayout); err != nil {
		return nil, err
	}
	return b, nil
}
