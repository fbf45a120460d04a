package dungeon

import "fmt"

// Point is a grid coordinate. X grows east, Y grows south.
type Point struct {
	X, Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Size is a width/height pair.
type Size struct {
	Width, Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Area returns the number of cells covered.
func (s Size) Area() int {
	return s.Width * s.Height
}
