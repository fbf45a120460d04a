package main

import (
	"testing"

	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
	"github.com/lawnchairsociety/dungeongen/internal/export"
)

func TestCheckRooms(t *testing.T) {
	m, err := dungeon.New(50, 50, dungeon.WithSeed(42))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	doc := export.NewDocument(m)

	if problems := checkRooms(doc); len(problems) != 0 {
		t.Fatalf("generated map reported problems: %v", problems)
	}

	r := doc.Rooms[0]
	doc.Tiles[r.Y][r.X] = int(dungeon.TileWalkable)
	doc.Tiles[0][0] = int(dungeon.TileWall)

	problems := checkRooms(doc)
	if len(problems) != 2 {
		t.Errorf("got %d problems, want 2: %v", len(problems), problems)
	}
}
