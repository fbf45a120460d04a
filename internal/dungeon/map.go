// Package dungeon generates rectangular dungeon layouts by seeded rejection
// sampling of non-overlapping rooms.
package dungeon

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/lawnchairsociety/dungeongen/internal/logger"
	"github.com/lawnchairsociety/dungeongen/internal/rng"
)

const (
	DefaultRoomCount   = 10
	DefaultMaxAttempts = 10000
)

// Option configures a Map at construction.
type Option func(*options)

type options struct {
	seed        *int64
	roomCount   int
	maxAttempts int
	catalog     Catalog
	shrink      bool
}

// WithSeed makes generation reproducible. Without it a seed is derived
// from the clock.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = &seed }
}

// WithRoomCount sets how many rooms Generate places.
func WithRoomCount(n int) Option {
	return func(o *options) { o.roomCount = n }
}

// WithMaxAttempts caps consecutive rejected candidates per room.
func WithMaxAttempts(n int) Option {
	return func(o *options) { o.maxAttempts = n }
}

// WithCatalog replaces the default room size catalog.
func WithCatalog(c Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithShrinkOnExhaustion makes Generate accept fewer rooms than requested
// when the attempt budget runs out instead of returning an IncompleteError.
func WithShrinkOnExhaustion() Option {
	return func(o *options) { o.shrink = true }
}

// Map owns the grid, the random source and the placed rooms.
type Map struct {
	src         *rng.Source
	catalog     Catalog
	grid        *Grid
	rooms       []Room
	target      int
	maxAttempts int
	shrink      bool
	generated   bool
}

// New validates the dimensions against the catalog and allocates an empty
// map. Grids that could never hold a room, or that would make a sampling
// draw range empty, are rejected here rather than during Generate.
func New(width, height int, opts ...Option) (*Map, error) {
	o := options{
		roomCount:   DefaultRoomCount,
		maxAttempts: DefaultMaxAttempts,
		catalog:     DefaultCatalog(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}

	if err := o.catalog.validate(); err != nil {
		return nil, err
	}

	if !o.catalog.fitsWithMargin(Size{Width: width, Height: height}) {
		return nil, fmt.Errorf("%w: %dx%d cannot hold any room category with a 1 tile margin",
			ErrGridTooSmall, width, height)
	}

	largest := o.catalog.MaxSize()
	if width <= largest.Width || height <= largest.Height {
		return nil, fmt.Errorf("%w: grid %dx%d must be larger than %s",
			ErrCatalogExceedsGrid, width, height, largest)
	}

	if o.roomCount < 1 {
		return nil, fmt.Errorf("%w: room count %d must be at least 1", ErrInvalidOption, o.roomCount)
	}
	if o.maxAttempts < 1 {
		return nil, fmt.Errorf("%w: max attempts %d must be at least 1", ErrInvalidOption, o.maxAttempts)
	}

	src := rng.NewRandom()
	if o.seed != nil {
		src = rng.New(*o.seed)
	}

	return &Map{
		src:         src,
		catalog:     o.catalog,
		grid:        NewGrid(width, height),
		rooms:       make([]Room, 0, o.roomCount),
		target:      o.roomCount,
		maxAttempts: o.maxAttempts,
		shrink:      o.shrink,
	}, nil
}

// Generate places rooms until the target count is reached. It may only be
// called once per Map.
func (m *Map) Generate() error {
	if m.generated {
		return ErrAlreadyGenerated
	}
	m.generated = true

	p := &placer{
		src:         m.src,
		catalog:     m.catalog,
		grid:        m.grid,
		maxAttempts: m.maxAttempts,
	}

	rejected, ok := p.run(len(m.rooms), m.target, func(r Room) {
		m.rooms = append(m.rooms, r)
	})
	if !ok {
		if m.shrink {
			logger.Warning("Attempt budget exhausted, shrinking room count",
				"seed", m.src.Seed(),
				"placed", len(m.rooms),
				"target", m.target)
			m.target = len(m.rooms)
		} else {
			return &IncompleteError{Placed: len(m.rooms), Target: m.target, Attempts: rejected}
		}
	}

	logger.Info("Dungeon generated",
		"seed", m.src.Seed(),
		"width", m.grid.Width(),
		"height", m.grid.Height(),
		"rooms", len(m.rooms),
		"draws", m.src.Draws())
	return nil
}

// Generated reports whether Generate has been called.
func (m *Map) Generated() bool {
	return m.generated
}

// Seed returns the seed the map was generated from.
func (m *Map) Seed() int64 {
	return m.src.Seed()
}

// Width returns the grid width.
func (m *Map) Width() int {
	return m.grid.Width()
}

// Height returns the grid height.
func (m *Map) Height() int {
	return m.grid.Height()
}

// Target returns the room count Generate aims for.
func (m *Map) Target() int {
	return m.target
}

// Catalog returns the size catalog in use.
func (m *Map) Catalog() Catalog {
	return m.catalog
}

// Grid returns a read-only view of the tile grid.
func (m *Map) Grid() GridView {
	return m.grid
}

// Rooms returns the placed rooms in acceptance order.
func (m *Map) Rooms() []Room {
	out := make([]Room, len(m.rooms))
	copy(out, m.rooms)
	return out
}

// Tiles returns the grid as 0/1/2 integers, row-major.
func (m *Map) Tiles() [][]int {
	return m.grid.Ints()
}

// Fingerprint returns a hex BLAKE2b-256 digest of the dimensions and every
// cell. Maps with equal fingerprints have identical grids.
func (m *Map) Fingerprint() string {
	buf := make([]byte, 16, 16+len(m.grid.cells))
	binary.LittleEndian.PutUint64(buf[:8], uint64(m.grid.Width()))
	binary.LittleEndian.PutUint64(buf[8:], uint64(m.grid.Height()))
	for _, c := range m.grid.cells {
		buf = append(buf, byte(c))
	}

	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// GridView is the read-only surface of a Grid.
type GridView interface {
	Width() int
	Height() int
	Size() Size
	InBounds(p Point) bool
	At(p Point) TileType
	IsFree(room Room) bool
	Count(t TileType) int
	Snapshot() [][]TileType
	Ints() [][]int
}
