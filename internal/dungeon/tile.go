package dungeon

// TileType is the state of one grid cell. The numeric values are the
// export format: 0 void, 1 wall, 2 walkable.
type TileType int

const (
	TileVoid     TileType = iota // Untouched cell outside every room
	TileWall                     // Outer ring of a room footprint
	TileWalkable                 // Room interior
)

// String returns the string representation of a TileType
func (t TileType) String() string {
	switch t {
	case TileVoid:
		return "void"
	case TileWall:
		return "wall"
	case TileWalkable:
		return "walkable"
	default:
		return "unknown"
	}
}

// Grid is the tile array owned by a Map. Only the generation loop carves
// into it; everyone else gets read access.
type Grid struct {
	width, height int
	cells         []TileType
}

// NewGrid allocates a width x height grid with every cell void.
func NewGrid(width, height int) *Grid {
	return &Grid{
		width:  width,
		height: height,
		cells:  make([]TileType, width*height),
	}
}

// Width returns the number of columns.
func (g *Grid) Width() int {
	return g.width
}

// Height returns the number of rows.
func (g *Grid) Height() int {
	return g.height
}

// Size returns the grid dimensions.
func (g *Grid) Size() Size {
	return Size{Width: g.width, Height: g.height}
}

// InBounds reports whether p lies on the grid.
func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.width && p.Y < g.height
}

// At returns the tile at p, or TileVoid when p is off the grid.
func (g *Grid) At(p Point) TileType {
	if !g.InBounds(p) {
		return TileVoid
	}
	return g.cells[p.Y*g.width+p.X]
}

// IsFree reports whether room may be placed: it must respect the grid
// margin and its whole footprint must still be void.
func (g *Grid) IsFree(room Room) bool {
	if !withinBounds(room, g.Size()) {
		return false
	}
	for y := room.Origin.Y; y < room.Origin.Y+room.Size.Height; y++ {
		row := y * g.width
		for x := room.Origin.X; x < room.Origin.X+room.Size.Width; x++ {
			if g.cells[row+x] != TileVoid {
				return false
			}
		}
	}
	return true
}

// carve writes room into the grid: interior walkable, outer ring wall.
// Callers must have checked IsFree.
func (g *Grid) carve(room Room) {
	for dy := 0; dy < room.Size.Height; dy++ {
		row := (room.Origin.Y + dy) * g.width
		for dx := 0; dx < room.Size.Width; dx++ {
			tile := TileWalkable
			if dx == 0 || dy == 0 || dx == room.Size.Width-1 || dy == room.Size.Height-1 {
				tile = TileWall
			}
			g.cells[row+room.Origin.X+dx] = tile
		}
	}
}

// Count returns how many cells hold the given tile.
func (g *Grid) Count(t TileType) int {
	n := 0
	for _, c := range g.cells {
		if c == t {
			n++
		}
	}
	return n
}

// Snapshot returns a row-major copy of the grid ([y][x]).
func (g *Grid) Snapshot() [][]TileType {
	out := make([][]TileType, g.height)
	for y := range out {
		out[y] = make([]TileType, g.width)
		copy(out[y], g.cells[y*g.width:(y+1)*g.width])
	}
	return out
}

// Ints returns the grid as small integers for exporters ([y][x]).
func (g *Grid) Ints() [][]int {
	out := make([][]int, g.height)
	for y := range out {
		out[y] = make([]int, g.width)
		for x := range out[y] {
			out[y][x] = int(g.cells[y*g.width+x])
		}
	}
	return out
}
