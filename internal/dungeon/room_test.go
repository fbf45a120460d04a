package dungeon

import "testing"

func TestRoomContainsAndRing(t *testing.T) {
	r := Room{Origin: Point{2, 3}, Size: Size{4, 3}}

	tests := []struct {
		p        Point
		contains bool
		ring     bool
	}{
		{Point{2, 3}, true, true},
		{Point{5, 5}, true, true},
		{Point{3, 4}, true, false},
		{Point{4, 4}, true, false},
		{Point{6, 4}, false, false},
		{Point{1, 3}, false, false},
		{Point{3, 6}, false, false},
	}

	for _, tc := range tests {
		if got := r.Contains(tc.p); got != tc.contains {
			t.Errorf("Contains(%s) = %v, want %v", tc.p, got, tc.contains)
		}
		if got := r.OnRing(tc.p); got != tc.ring {
			t.Errorf("OnRing(%s) = %v, want %v", tc.p, got, tc.ring)
		}
	}
}

func TestRoomIntersects(t *testing.T) {
	a := Room{Origin: Point{0, 0}, Size: Size{4, 4}}

	tests := []struct {
		name string
		b    Room
		want bool
	}{
		{"same", a, true},
		{"overlap corner", Room{Origin: Point{3, 3}, Size: Size{3, 3}}, true},
		{"touching east", Room{Origin: Point{4, 0}, Size: Size{3, 3}}, false},
		{"touching south", Room{Origin: Point{0, 4}, Size: Size{3, 3}}, false},
		{"inside", Room{Origin: Point{1, 1}, Size: Size{1, 1}}, true},
		{"far", Room{Origin: Point{10, 10}, Size: Size{3, 3}}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.Intersects(tc.b); got != tc.want {
				t.Errorf("Intersects = %v, want %v", got, tc.want)
			}
			if got := tc.b.Intersects(a); got != tc.want {
				t.Errorf("reverse Intersects = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRoomCenter(t *testing.T) {
	r := Room{Origin: Point{10, 20}, Size: Size{5, 4}}
	if got := r.Center(); got != (Point{12, 22}) {
		t.Errorf("Center() = %s, want (12,22)", got)
	}
	if got := r.Max(); got != (Point{15, 24}) {
		t.Errorf("Max() = %s, want (15,24)", got)
	}
}

func TestTileTypeString(t *testing.T) {
	tests := []struct {
		tile TileType
		want string
	}{
		{TileVoid, "void"},
		{TileWall, "wall"},
		{TileWalkable, "walkable"},
		{TileType(9), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.tile.String(); got != tc.want {
			t.Errorf("TileType(%d).String() = %q, want %q", tc.tile, got, tc.want)
		}
	}

	if TileVoid != 0 || TileWall != 1 || TileWalkable != 2 {
		t.Error("tile values must stay 0/1/2 for export")
	}
}
