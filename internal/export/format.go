package export

import (
	"fmt"
	"io"
	"strings"
)

// Format names an output format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatYAML  Format = "yaml"
	FormatASCII Format = "ascii"
)

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatYAML, FormatASCII:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, yaml or ascii)", s)
	}
}

// Options selects the format and its settings.
type Options struct {
	Format Format

	// Delimiter is used by csv. Empty means DefaultDelimiter.
	Delimiter string

	// IncludeTiles adds the grid to yaml output.
	IncludeTiles bool

	// Legend adds the glyph legend to ascii output.
	Legend bool
}

// Write writes doc in the selected format.
func Write(w io.Writer, doc MapDocument, opts Options) error {
	switch opts.Format {
	case FormatCSV, "":
		delimiter := opts.Delimiter
		if delimiter == "" {
			delimiter = DefaultDelimiter
		}
		return WriteGrid(w, doc.Tiles, delimiter)
	case FormatYAML:
		return WriteYAML(w, doc, YAMLOptions{IncludeTiles: opts.IncludeTiles})
	case FormatASCII:
		return WriteASCII(w, doc, opts.Legend)
	default:
		return fmt.Errorf("unknown export format %q", opts.Format)
	}
}

// WriteFile writes doc to path in the selected format, creating parent
// directories.
func WriteFile(path string, doc MapDocument, opts Options) error {
	return writeFile(path, func(w io.Writer) error {
		return Write(w, doc, opts)
	})
}
