package dungeon

import "fmt"

// Room is a placed (or candidate) rectangular room. Rooms are values and
// are never modified after sampling.
type Room struct {
	Origin   Point // top-left corner
	Size     Size
	Category RoomCategory
}

func (r Room) String() string {
	return fmt.Sprintf("%s room %s at %s", r.Category, r.Size, r.Origin)
}

// Max returns the exclusive bottom-right corner.
func (r Room) Max() Point {
	return Point{X: r.Origin.X + r.Size.Width, Y: r.Origin.Y + r.Size.Height}
}

// Center returns the cell nearest the middle of the footprint.
func (r Room) Center() Point {
	return Point{X: r.Origin.X + r.Size.Width/2, Y: r.Origin.Y + r.Size.Height/2}
}

// Contains reports whether p lies inside the footprint.
func (r Room) Contains(p Point) bool {
	m := r.Max()
	return p.X >= r.Origin.X && p.Y >= r.Origin.Y && p.X < m.X && p.Y < m.Y
}

// OnRing reports whether p lies on the footprint's outer ring.
func (r Room) OnRing(p Point) bool {
	if !r.Contains(p) {
		return false
	}
	m := r.Max()
	return p.X == r.Origin.X || p.Y == r.Origin.Y || p.X == m.X-1 || p.Y == m.Y-1
}

// Intersects reports whether two footprints share at least one cell.
func (r Room) Intersects(o Room) bool {
	rm, om := r.Max(), o.Max()
	return r.Origin.X < om.X && o.Origin.X < rm.X &&
		r.Origin.Y < om.Y && o.Origin.Y < rm.Y
}
