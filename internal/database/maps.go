package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
)

// ErrMapNotFound is returned when a map lookup fails.
var ErrMapNotFound = errors.New("map not found")

// ErrDuplicateMap is returned when a map with the same fingerprint is already stored.
var ErrDuplicateMap = errors.New("map already stored")

// MapRecord is a stored dungeon map.
type MapRecord struct {
	ID          int64
	Width       int
	Height      int
	Seed        int64
	RoomTarget  int
	Fingerprint string
	Tiles       [][]int
	Rooms       []RoomRecord
	CreatedAt   time.Time
}

// RoomRecord is one placed room of a stored map, in placement order.
type RoomRecord struct {
	Seq      int
	X        int
	Y        int
	Width    int
	Height   int
	Category string
}

// RecordFromMap converts a generated map into a record ready for SaveMap.
func RecordFromMap(m *dungeon.Map) MapRecord {
	rooms := m.Rooms()
	rec := MapRecord{
		Width:       m.Width(),
		Height:      m.Height(),
		Seed:        m.Seed(),
		RoomTarget:  m.Target(),
		Fingerprint: m.Fingerprint(),
		Tiles:       m.Tiles(),
		Rooms:       make([]RoomRecord, len(rooms)),
	}
	for i, r := range rooms {
		rec.Rooms[i] = RoomRecord{
			Seq:      i,
			X:        r.Origin.X,
			Y:        r.Origin.Y,
			Width:    r.Size.Width,
			Height:   r.Size.Height,
			Category: r.Category.String(),
		}
	}
	return rec
}

// SaveMap stores a map and its rooms in one transaction and returns the new map ID.
func (d *Database) SaveMap(rec MapRecord) (int64, error) {
	if rec.Fingerprint == "" {
		return 0, errors.New("map fingerprint cannot be empty")
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := d.qb.BuildInsert(
		"INSERT INTO maps (width, height, seed, room_target, fingerprint, tiles) VALUES (?, ?, ?, ?, ?, ?)",
		"id",
	)
	args := []any{rec.Width, rec.Height, rec.Seed, rec.RoomTarget, rec.Fingerprint, encodeTiles(rec.Tiles)}

	var id int64
	if d.dialect.SupportsLastInsertID() {
		result, err := tx.Exec(insert, args...)
		if err != nil {
			return 0, d.insertError(err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get map ID: %w", err)
		}
	} else {
		if err := tx.QueryRow(insert, args...).Scan(&id); err != nil {
			return 0, d.insertError(err)
		}
	}

	roomInsert := d.qb.Build(
		"INSERT INTO map_rooms (map_id, seq, x, y, width, height, category) VALUES (?, ?, ?, ?, ?, ?, ?)",
	)
	for _, r := range rec.Rooms {
		if _, err := tx.Exec(roomInsert, id, r.Seq, r.X, r.Y, r.Width, r.Height, r.Category); err != nil {
			return 0, fmt.Errorf("failed to save room %d: %w", r.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit map: %w", err)
	}

	return id, nil
}

func (d *Database) insertError(err error) error {
	if d.dialect.IsDuplicateKeyError(err) {
		return ErrDuplicateMap
	}
	return fmt.Errorf("failed to save map: %w", err)
}

// GetMap retrieves a map and its rooms by ID.
func (d *Database) GetMap(id int64) (*MapRecord, error) {
	return d.getMap("id", id)
}

// GetMapByFingerprint retrieves a map and its rooms by tile fingerprint.
func (d *Database) GetMapByFingerprint(fingerprint string) (*MapRecord, error) {
	return d.getMap("fingerprint", fingerprint)
}

func (d *Database) getMap(column string, value any) (*MapRecord, error) {
	var rec MapRecord
	var tiles string

	err := d.db.QueryRow(
		d.qb.Build("SELECT id, width, height, seed, room_target, fingerprint, tiles, created_at FROM maps WHERE "+column+" = ?"),
		value,
	).Scan(&rec.ID, &rec.Width, &rec.Height, &rec.Seed, &rec.RoomTarget, &rec.Fingerprint, &tiles, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMapNotFound
		}
		return nil, fmt.Errorf("failed to get map: %w", err)
	}

	rec.Tiles, err = decodeTiles(tiles)
	if err != nil {
		return nil, fmt.Errorf("map %d: %w", rec.ID, err)
	}

	rec.Rooms, err = d.getRooms(rec.ID)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func (d *Database) getRooms(mapID int64) ([]RoomRecord, error) {
	rows, err := d.db.Query(
		d.qb.Build("SELECT seq, x, y, width, height, category FROM map_rooms WHERE map_id = ? ORDER BY seq"),
		mapID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms: %w", err)
	}
	defer rows.Close()

	var rooms []RoomRecord
	for rows.Next() {
		var r RoomRecord
		if err := rows.Scan(&r.Seq, &r.X, &r.Y, &r.Width, &r.Height, &r.Category); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, r)
	}

	return rooms, rows.Err()
}

// ListMaps returns the most recently stored maps, newest first, without
// tiles or rooms. A non-positive limit returns every map.
func (d *Database) ListMaps(limit int) ([]MapRecord, error) {
	query := "SELECT id, width, height, seed, room_target, fingerprint, created_at FROM maps ORDER BY id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(d.qb.Build(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list maps: %w", err)
	}
	defer rows.Close()

	var maps []MapRecord
	for rows.Next() {
		var rec MapRecord
		if err := rows.Scan(&rec.ID, &rec.Width, &rec.Height, &rec.Seed, &rec.RoomTarget, &rec.Fingerprint, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan map: %w", err)
		}
		maps = append(maps, rec)
	}

	return maps, rows.Err()
}

// DeleteMap removes a map and its rooms.
func (d *Database) DeleteMap(id int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Rooms go first: SQLite only cascades on connections with foreign_keys enabled.
	if _, err := tx.Exec(d.qb.Build("DELETE FROM map_rooms WHERE map_id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete rooms: %w", err)
	}

	result, err := tx.Exec(d.qb.Build("DELETE FROM maps WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete map: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrMapNotFound
	}

	return tx.Commit()
}

// encodeTiles stores one line of single-digit tile codes per row.
func encodeTiles(tiles [][]int) string {
	var sb strings.Builder
	for y, row := range tiles {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for _, t := range row {
			sb.WriteByte(byte('0' + t))
		}
	}
	return sb.String()
}

func decodeTiles(s string) ([][]int, error) {
	if s == "" {
		return nil, nil
	}
	lines := strings.Split(s, "\n")
	tiles := make([][]int, len(lines))
	for y, line := range lines {
		row := make([]int, len(line))
		for x := 0; x < len(line); x++ {
			c := line[x]
			if c < '0' || c > '9' {
				return nil, fmt.Errorf("invalid tile %q at (%d,%d)", c, x, y)
			}
			row[x] = int(c - '0')
		}
		tiles[y] = row
	}
	return tiles, nil
}
