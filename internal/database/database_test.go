package database

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func generateMap(t *testing.T, seed int64) *dungeon.Map {
	t.Helper()
	m, err := dungeon.New(50, 50, dungeon.WithSeed(seed))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Generate(); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return m
}

func TestOpen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	var count int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM maps").Scan(&count); err != nil {
		t.Errorf("Failed to query maps table: %v", err)
	}
	if err := db.db.QueryRow("SELECT COUNT(*) FROM map_rooms").Scan(&count); err != nil {
		t.Errorf("Failed to query map_rooms table: %v", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	nestedPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	db, err := Open(nestedPath)
	if err != nil {
		t.Fatalf("Failed to open database with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(nestedPath); os.IsNotExist(err) {
		t.Error("Database file was not created in nested directory")
	}
}

func TestOpenTwiceKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := db.SaveMap(RecordFromMap(generateMap(t, 1)))
	if err != nil {
		t.Fatalf("SaveMap: %v", err)
	}
	db.Close()

	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer db.Close()

	if _, err := db.GetMap(id); err != nil {
		t.Errorf("GetMap after reopen: %v", err)
	}
}

func TestOpenWithConfig_UnknownDriver(t *testing.T) {
	_, err := OpenWithConfig(Config{Driver: "oracle"})
	if err == nil {
		t.Fatal("Expected error for unknown driver")
	}
}

func TestRecordFromMap(t *testing.T) {
	m := generateMap(t, 42)
	rec := RecordFromMap(m)

	if rec.Width != 50 || rec.Height != 50 {
		t.Errorf("dimensions = %dx%d, want 50x50", rec.Width, rec.Height)
	}
	if rec.Seed != 42 {
		t.Errorf("Seed = %d, want 42", rec.Seed)
	}
	if rec.RoomTarget != m.Target() {
		t.Errorf("RoomTarget = %d, want %d", rec.RoomTarget, m.Target())
	}
	if rec.Fingerprint != m.Fingerprint() {
		t.Error("Fingerprint mismatch")
	}

	rooms := m.Rooms()
	if len(rec.Rooms) != len(rooms) {
		t.Fatalf("len(Rooms) = %d, want %d", len(rec.Rooms), len(rooms))
	}
	for i, r := range rooms {
		got := rec.Rooms[i]
		if got.Seq != i || got.X != r.Origin.X || got.Y != r.Origin.Y ||
			got.Width != r.Size.Width || got.Height != r.Size.Height ||
			got.Category != r.Category.String() {
			t.Errorf("room %d = %+v, want %v", i, got, r)
		}
	}
}

func TestSaveAndGetMap(t *testing.T) {
	db := openTestDB(t)
	m := generateMap(t, 42)
	rec := RecordFromMap(m)

	id, err := db.SaveMap(rec)
	if err != nil {
		t.Fatalf("SaveMap: %v", err)
	}
	if id <= 0 {
		t.Errorf("SaveMap returned id %d", id)
	}

	got, err := db.GetMap(id)
	if err != nil {
		t.Fatalf("GetMap: %v", err)
	}

	if got.ID != id {
		t.Errorf("ID = %d, want %d", got.ID, id)
	}
	if got.Seed != rec.Seed || got.Width != rec.Width || got.Height != rec.Height || got.RoomTarget != rec.RoomTarget {
		t.Errorf("header = %+v, want %+v", got, rec)
	}
	if !reflect.DeepEqual(got.Tiles, m.Tiles()) {
		t.Error("Tiles did not round trip")
	}
	if !reflect.DeepEqual(got.Rooms, rec.Rooms) {
		t.Errorf("Rooms = %+v, want %+v", got.Rooms, rec.Rooms)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestGetMapByFingerprint(t *testing.T) {
	db := openTestDB(t)
	m := generateMap(t, 7)

	id, err := db.SaveMap(RecordFromMap(m))
	if err != nil {
		t.Fatalf("SaveMap: %v", err)
	}

	got, err := db.GetMapByFingerprint(m.Fingerprint())
	if err != nil {
		t.Fatalf("GetMapByFingerprint: %v", err)
	}
	if got.ID != id {
		t.Errorf("ID = %d, want %d", got.ID, id)
	}

	if _, err := db.GetMapByFingerprint("nope"); !errors.Is(err, ErrMapNotFound) {
		t.Errorf("unknown fingerprint err = %v, want ErrMapNotFound", err)
	}
}

func TestGetMap_NotFound(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetMap(999); !errors.Is(err, ErrMapNotFound) {
		t.Errorf("err = %v, want ErrMapNotFound", err)
	}
}

func TestSaveMap_Duplicate(t *testing.T) {
	db := openTestDB(t)
	rec := RecordFromMap(generateMap(t, 42))

	if _, err := db.SaveMap(rec); err != nil {
		t.Fatalf("first SaveMap: %v", err)
	}
	if _, err := db.SaveMap(rec); !errors.Is(err, ErrDuplicateMap) {
		t.Errorf("second SaveMap err = %v, want ErrDuplicateMap", err)
	}

	maps, err := db.ListMaps(0)
	if err != nil {
		t.Fatalf("ListMaps: %v", err)
	}
	if len(maps) != 1 {
		t.Errorf("stored %d maps, want 1", len(maps))
	}
}

func TestSaveMap_EmptyFingerprint(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.SaveMap(MapRecord{Width: 1, Height: 1}); err == nil {
		t.Error("Expected error for empty fingerprint")
	}
}

func TestListMaps(t *testing.T) {
	db := openTestDB(t)

	var ids []int64
	for _, seed := range []int64{1, 2, 3} {
		id, err := db.SaveMap(RecordFromMap(generateMap(t, seed)))
		if err != nil {
			t.Fatalf("SaveMap(seed %d): %v", seed, err)
		}
		ids = append(ids, id)
	}

	all, err := db.ListMaps(0)
	if err != nil {
		t.Fatalf("ListMaps: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListMaps(0) returned %d maps, want 3", len(all))
	}
	if all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("ListMaps not newest first: %d, %d, %d", all[0].ID, all[1].ID, all[2].ID)
	}
	if all[0].Tiles != nil || all[0].Rooms != nil {
		t.Error("ListMaps should not load tiles or rooms")
	}

	limited, err := db.ListMaps(2)
	if err != nil {
		t.Fatalf("ListMaps(2): %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListMaps(2) returned %d maps", len(limited))
	}
}

func TestDeleteMap(t *testing.T) {
	db := openTestDB(t)

	id, err := db.SaveMap(RecordFromMap(generateMap(t, 42)))
	if err != nil {
		t.Fatalf("SaveMap: %v", err)
	}

	if err := db.DeleteMap(id); err != nil {
		t.Fatalf("DeleteMap: %v", err)
	}
	if _, err := db.GetMap(id); !errors.Is(err, ErrMapNotFound) {
		t.Errorf("GetMap after delete err = %v, want ErrMapNotFound", err)
	}

	var rooms int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM map_rooms WHERE map_id = ?", id).Scan(&rooms); err != nil {
		t.Fatalf("count rooms: %v", err)
	}
	if rooms != 0 {
		t.Errorf("%d rooms left after delete", rooms)
	}

	if err := db.DeleteMap(id); !errors.Is(err, ErrMapNotFound) {
		t.Errorf("second DeleteMap err = %v, want ErrMapNotFound", err)
	}
}

func TestEncodeDecodeTiles(t *testing.T) {
	tiles := [][]int{
		{0, 0, 0},
		{0, 1, 2},
	}
	encoded := encodeTiles(tiles)
	if encoded != "000\n012" {
		t.Errorf("encodeTiles = %q", encoded)
	}

	decoded, err := decodeTiles(encoded)
	if err != nil {
		t.Fatalf("decodeTiles: %v", err)
	}
	if !reflect.DeepEqual(decoded, tiles) {
		t.Errorf("decodeTiles = %v, want %v", decoded, tiles)
	}

	if _, err := decodeTiles("01x"); err == nil {
		t.Error("Expected error for non-digit tile")
	}
}

func TestCopyMaps(t *testing.T) {
	src := openTestDB(t)
	dst := openTestDB(t)

	for _, seed := range []int64{1, 2, 3} {
		if _, err := src.SaveMap(RecordFromMap(generateMap(t, seed))); err != nil {
			t.Fatalf("SaveMap: %v", err)
		}
	}
	// dst already holds the seed 2 map.
	if _, err := dst.SaveMap(RecordFromMap(generateMap(t, 2))); err != nil {
		t.Fatalf("SaveMap: %v", err)
	}

	dry, err := CopyMaps(src, dst, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.Copied != 2 || dry.Skipped != 1 {
		t.Errorf("dry run stats = %+v, want 2 copied, 1 skipped", dry)
	}
	if maps, _ := dst.ListMaps(0); len(maps) != 1 {
		t.Fatal("dry run wrote to the destination")
	}

	stats, err := CopyMaps(src, dst, false)
	if err != nil {
		t.Fatalf("CopyMaps: %v", err)
	}
	if stats.Copied != 2 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 2 copied, 1 skipped", stats)
	}

	srcMaps, _ := src.ListMaps(0)
	for _, m := range srcMaps {
		want, err := src.GetMap(m.ID)
		if err != nil {
			t.Fatalf("GetMap: %v", err)
		}
		got, err := dst.GetMapByFingerprint(m.Fingerprint)
		if err != nil {
			t.Fatalf("copied map %s missing: %v", m.Fingerprint, err)
		}
		if !reflect.DeepEqual(got.Tiles, want.Tiles) || !reflect.DeepEqual(got.Rooms, want.Rooms) {
			t.Errorf("map %d not copied intact", m.ID)
		}
	}

	again, err := CopyMaps(src, dst, false)
	if err != nil {
		t.Fatalf("second CopyMaps: %v", err)
	}
	if again.Copied != 0 || again.Skipped != 3 {
		t.Errorf("second copy stats = %+v, want all skipped", again)
	}
}
