package database

import (
	"errors"
	"fmt"
)

// CopyStats counts the outcome of CopyMaps.
type CopyStats struct {
	Copied  int
	Skipped int
}

// CopyMaps copies every map in src to dst, oldest first. Maps whose
// fingerprint already exists in dst are skipped. With dryRun set nothing is
// written and every map not yet in dst counts as copied.
func CopyMaps(src, dst *Database, dryRun bool) (CopyStats, error) {
	var stats CopyStats

	maps, err := src.ListMaps(0)
	if err != nil {
		return stats, err
	}

	for i := len(maps) - 1; i >= 0; i-- {
		rec, err := src.GetMap(maps[i].ID)
		if err != nil {
			return stats, fmt.Errorf("failed to read map %d: %w", maps[i].ID, err)
		}

		if dryRun {
			_, err := dst.GetMapByFingerprint(rec.Fingerprint)
			switch {
			case err == nil:
				stats.Skipped++
			case errors.Is(err, ErrMapNotFound):
				stats.Copied++
			default:
				return stats, err
			}
			continue
		}

		if _, err := dst.SaveMap(*rec); err != nil {
			if errors.Is(err, ErrDuplicateMap) {
				stats.Skipped++
				continue
			}
			return stats, fmt.Errorf("failed to copy map %d: %w", rec.ID, err)
		}
		stats.Copied++
	}

	return stats, nil
}
