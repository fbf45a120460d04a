package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultDelimiter separates cells when none is configured.
const DefaultDelimiter = ","

// WriteGrid writes one line per row with cells joined by delimiter.
// The delimiter may be any non-empty string.
func WriteGrid(w io.Writer, tiles [][]int, delimiter string) error {
	if delimiter == "" {
		return errors.New("delimiter must not be empty")
	}

	bw := bufio.NewWriter(w)
	for _, row := range tiles {
		for x, v := range row {
			if x > 0 {
				bw.WriteString(delimiter)
			}
			bw.WriteString(strconv.Itoa(v))
		}
		bw.WriteByte('\n')
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write grid: %w", err)
	}
	return nil
}

// WriteGridFile writes the grid to path, creating parent directories.
func WriteGridFile(path string, tiles [][]int, delimiter string) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteGrid(w, tiles, delimiter)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
