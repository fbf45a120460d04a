// Package export writes generated maps to text formats: delimited grids,
// YAML room lists and ASCII previews.
package export

import (
	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
)

// MapDocument is the serialisable form of a generated map.
type MapDocument struct {
	Seed        int64          `yaml:"seed" json:"seed"`
	Width       int            `yaml:"width" json:"width"`
	Height      int            `yaml:"height" json:"height"`
	Fingerprint string         `yaml:"fingerprint" json:"fingerprint"`
	Rooms       []RoomDocument `yaml:"rooms" json:"rooms"`
	Tiles       [][]int        `yaml:"-" json:"tiles,omitempty"`
}

// RoomDocument is one placed room.
type RoomDocument struct {
	Index    int    `yaml:"index" json:"index"`
	Category string `yaml:"category" json:"category"`
	X        int    `yaml:"x" json:"x"`
	Y        int    `yaml:"y" json:"y"`
	Width    int    `yaml:"width" json:"width"`
	Height   int    `yaml:"height" json:"height"`
}

// NewDocument captures the rooms and tiles of m.
func NewDocument(m *dungeon.Map) MapDocument {
	rooms := m.Rooms()
	doc := MapDocument{
		Seed:        m.Seed(),
		Width:       m.Width(),
		Height:      m.Height(),
		Fingerprint: m.Fingerprint(),
		Rooms:       make([]RoomDocument, len(rooms)),
		Tiles:       m.Tiles(),
	}

	for i, r := range rooms {
		doc.Rooms[i] = RoomDocument{
			Index:    i,
			Category: r.Category.String(),
			X:        r.Origin.X,
			Y:        r.Origin.Y,
			Width:    r.Size.Width,
			Height:   r.Size.Height,
		}
	}

	return doc
}
