package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
)

// Glyphs used by RenderASCII, indexed by tile value.
var glyphs = map[int]byte{
	int(dungeon.TileVoid):     ' ',
	int(dungeon.TileWall):     '#',
	int(dungeon.TileWalkable): '.',
}

// RenderASCII draws the grid one character per cell. Unknown values are
// drawn as '?'.
func RenderASCII(tiles [][]int) string {
	var sb strings.Builder
	for _, row := range tiles {
		sb.WriteString(renderRow(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func renderRow(row []int) string {
	line := make([]byte, len(row))
	for x, v := range row {
		g, ok := glyphs[v]
		if !ok {
			g = '?'
		}
		line[x] = g
	}
	return string(line)
}

// WriteASCII writes a framed preview with a title line, the grid, the
// room list and an optional legend.
func WriteASCII(w io.Writer, doc MapDocument, legend bool) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Dungeon %dx%d (Seed: %d, Rooms: %d)\n", doc.Width, doc.Height, doc.Seed, len(doc.Rooms)))
	sb.WriteString(strings.Repeat("=", max(doc.Width+2, 40)) + "\n")

	border := "+" + strings.Repeat("-", doc.Width) + "+\n"
	sb.WriteString(border)
	for _, row := range doc.Tiles {
		sb.WriteString("|" + renderRow(row) + "|\n")
	}
	sb.WriteString(border)

	sb.WriteString("\nRooms:\n")
	for _, r := range doc.Rooms {
		sb.WriteString(fmt.Sprintf("  %2d. %-6s %2dx%-2d at (%d,%d)\n", r.Index+1, r.Category, r.Width, r.Height, r.X, r.Y))
	}

	if legend {
		sb.WriteString(`
Legend:
  #   Wall
  .   Walkable floor
      Void
`)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
