package dungeon

import (
	"github.com/lawnchairsociety/dungeongen/internal/logger"
	"github.com/lawnchairsociety/dungeongen/internal/rng"
)

// sampleRoom draws one candidate room. The draw order is part of the
// reproducibility contract: category, width, height, x, y.
// dims must be larger than every catalog maximum.
func sampleRoom(src *rng.Source, catalog Catalog, dims Size) Room {
	cat := RoomCategory(src.IntRange(0, catalog.Len()))
	b := catalog.SizeFor(cat)

	size := Size{
		Width:  src.IntRange(b.Min.Width, b.Max.Width+1),
		Height: src.IntRange(b.Min.Height, b.Max.Height+1),
	}
	origin := Point{
		X: src.IntRange(0, dims.Width-size.Width),
		Y: src.IntRange(0, dims.Height-size.Height),
	}

	return Room{Origin: origin, Size: size, Category: cat}
}

// withinBounds reports whether room keeps a one tile void margin to every
// edge of a grid of the given dimensions.
func withinBounds(room Room, dims Size) bool {
	return room.Origin.X > 0 &&
		room.Origin.Y > 0 &&
		room.Origin.X < dims.Width-room.Size.Width &&
		room.Origin.Y < dims.Height-room.Size.Height
}

// placer runs the rejection sampling loop for one Map.
type placer struct {
	src         *rng.Source
	catalog     Catalog
	grid        *Grid
	maxAttempts int
}

// next samples candidates until one fits or the attempt budget runs out.
// It returns the accepted room and the number of rejections before it.
func (p *placer) next() (Room, int, bool) {
	dims := p.grid.Size()
	for rejected := 0; rejected < p.maxAttempts; rejected++ {
		candidate := sampleRoom(p.src, p.catalog, dims)
		if p.grid.IsFree(candidate) {
			return candidate, rejected, true
		}
	}
	return Room{}, p.maxAttempts, false
}

// run places rooms until target is reached. Each accepted room is handed
// to accept and carved before the next candidate is drawn. On failure it
// returns the number of consecutive rejections that ended the run.
func (p *placer) run(placed, target int, accept func(Room)) (int, bool) {
	for placed < target {
		room, rejected, ok := p.next()
		if !ok {
			return rejected, false
		}
		accept(room)
		p.grid.carve(room)
		placed++

		logger.Debug("Room placed",
			"index", placed,
			"category", room.Category.String(),
			"x", room.Origin.X,
			"y", room.Origin.Y,
			"width", room.Size.Width,
			"height", room.Size.Height,
			"rejected", rejected)
	}
	return 0, true
}
