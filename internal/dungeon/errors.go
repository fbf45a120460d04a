package dungeon

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDimensions    = errors.New("dungeon: grid dimensions must be positive")
	ErrGridTooSmall         = errors.New("dungeon: grid too small for the smallest room plus margin")
	ErrCatalogExceedsGrid   = errors.New("dungeon: catalog maximum room size does not fit the grid")
	ErrInvalidCatalog       = errors.New("dungeon: invalid room size catalog")
	ErrInvalidOption        = errors.New("dungeon: invalid option")
	ErrAlreadyGenerated     = errors.New("dungeon: map already generated")
	ErrGenerationIncomplete = errors.New("dungeon: attempt budget exhausted before reaching room count")
)

// IncompleteError reports a generation run that ran out of attempts.
// The rooms placed before exhaustion stay on the map.
type IncompleteError struct {
	Placed   int
	Target   int
	Attempts int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%v: placed %d of %d rooms after %d consecutive rejections",
		ErrGenerationIncomplete, e.Placed, e.Target, e.Attempts)
}

func (e *IncompleteError) Unwrap() error {
	return ErrGenerationIncomplete
}
