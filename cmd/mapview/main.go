package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
	"github.com/lawnchairsociety/dungeongen/internal/export"
)

func main() {
	inputFile := flag.String("input", "data/dungeon.yaml", "Path to a yaml export written with -tiles")
	outputFile := flag.String("output", "", "Output file (empty for stdout)")
	showLegend := flag.Bool("legend", true, "Show legend")
	flag.Parse()

	f, err := os.Open(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	doc, err := export.ReadYAML(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing YAML: %v\n", err)
		os.Exit(1)
	}
	if len(doc.Tiles) == 0 {
		fmt.Fprintf(os.Stderr, "%s has no tiles; export it with -format yaml -tiles\n", *inputFile)
		os.Exit(1)
	}

	var output strings.Builder
	if err := export.WriteASCII(&output, doc, *showLegend); err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering map: %v\n", err)
		os.Exit(1)
	}

	problems := checkRooms(doc)
	if len(problems) > 0 {
		output.WriteString("\nWARNING: Rooms do not match the tiles!\n")
		for _, p := range problems {
			output.WriteString("  - " + p + "\n")
		}
	} else {
		output.WriteString(fmt.Sprintf("\nAll %d rooms match the tiles.\n", len(doc.Rooms)))
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, []byte(output.String()), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Map written to %s\n", *outputFile)
	} else {
		fmt.Print(output.String())
	}
}

// checkRooms verifies that every listed room is carved into the tiles with
// a wall ring around walkable floor, and that no tile outside the rooms is
// carved.
func checkRooms(doc export.MapDocument) []string {
	var problems []string
	covered := make(map[dungeon.Point]bool)

	at := func(p dungeon.Point) int {
		if p.Y < 0 || p.Y >= len(doc.Tiles) || p.X < 0 || p.X >= len(doc.Tiles[p.Y]) {
			return -1
		}
		return doc.Tiles[p.Y][p.X]
	}

	for _, rd := range doc.Rooms {
		room := dungeon.Room{
			Origin: dungeon.Point{X: rd.X, Y: rd.Y},
			Size:   dungeon.Size{Width: rd.Width, Height: rd.Height},
		}
		bad := 0
		for y := rd.Y; y < rd.Y+rd.Height; y++ {
			for x := rd.X; x < rd.X+rd.Width; x++ {
				p := dungeon.Point{X: x, Y: y}
				want := int(dungeon.TileWalkable)
				if room.OnRing(p) {
					want = int(dungeon.TileWall)
				}
				if at(p) != want {
					bad++
				}
				covered[p] = true
			}
		}
		if bad > 0 {
			problems = append(problems, fmt.Sprintf("room %d (%s at %s): %d tiles differ", rd.Index, rd.Category, room.Origin, bad))
		}
	}

	stray := 0
	for y, row := range doc.Tiles {
		for x, v := range row {
			if v != int(dungeon.TileVoid) && !covered[dungeon.Point{X: x, Y: y}] {
				stray++
			}
		}
	}
	if stray > 0 {
		problems = append(problems, fmt.Sprintf("%d carved tiles belong to no room", stray))
	}

	return problems
}
