package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lawnchairsociety/dungeongen/internal/config"
	"github.com/lawnchairsociety/dungeongen/internal/database"
	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
	"github.com/lawnchairsociety/dungeongen/internal/export"
	"github.com/lawnchairsociety/dungeongen/internal/logger"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the parsed command line settings that are not part of the
// config file.
type options struct {
	configFile  string
	loggingFile string
	print       bool
	legend      bool
	tiles       bool
	save        bool
	loadID      int64
	deleteID    int64
	list        int
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dungeongen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.configFile, "config", "data/dungeongen.yaml", "Path to config YAML file")
	fs.StringVar(&opts.loggingFile, "logging", "data/logging.yaml", "Path to logging config YAML file")
	width := fs.Int("width", 0, "Grid width in tiles (default from config)")
	height := fs.Int("height", 0, "Grid height in tiles (default from config)")
	seed := fs.Int64("seed", 0, "Generation seed (default: random based on current time)")
	rooms := fs.Int("rooms", 0, "Number of rooms to place (default from config)")
	attempts := fs.Int("attempts", 0, "Placement attempts per room (default from config)")
	shrink := fs.Bool("shrink", false, "Keep the rooms placed so far when attempts run out")
	format := fs.String("format", "", "Output format: csv, yaml or ascii (default from config)")
	delimiter := fs.String("delimiter", "", "Cell delimiter for csv output (default from config)")
	out := fs.String("out", "", "Output file (empty for stdout)")
	fs.BoolVar(&opts.tiles, "tiles", false, "Include the tile grid in yaml output")
	fs.BoolVar(&opts.print, "print", false, "Print an ASCII preview to stderr")
	fs.BoolVar(&opts.legend, "legend", true, "Show legend in ASCII output")
	dbPath := fs.String("db", "", "SQLite database path (enables the database)")
	fs.BoolVar(&opts.save, "save", false, "Save the generated map to the database")
	fs.Int64Var(&opts.loadID, "load", 0, "Export a stored map by ID instead of generating")
	fs.Int64Var(&opts.deleteID, "delete", 0, "Delete a stored map by ID and exit")
	fs.IntVar(&opts.list, "list", -1, "List the N newest stored maps and exit (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", opts.configFile, err)
	}

	// Flags given on the command line override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "width":
			cfg.Generation.Width = *width
		case "height":
			cfg.Generation.Height = *height
		case "seed":
			cfg.Generation.Seed = *seed
		case "rooms":
			cfg.Generation.RoomCount = *rooms
		case "attempts":
			cfg.Generation.MaxAttempts = *attempts
		case "shrink":
			cfg.Generation.ShrinkOnExhaustion = *shrink
		case "format":
			cfg.Export.Format = *format
		case "delimiter":
			cfg.Export.Delimiter = *delimiter
		case "out":
			cfg.Export.Path = *out
		case "db":
			cfg.Database.Enabled = true
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLitePath = *dbPath
		}
	})
	seedGiven := isFlagSet(fs, "seed")

	if err := cfg.Validate(); err != nil {
		return err
	}

	logConfig, err := logger.LoadConfig(opts.loggingFile)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: failed to load logging config %s: %v\n", opts.loggingFile, err)
	}
	if err := logger.Initialize(logConfig); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	needDB := opts.save || opts.loadID != 0 || opts.deleteID != 0 || opts.list >= 0
	var db *database.Database
	if needDB {
		if !cfg.Database.Enabled {
			return errors.New("database is disabled: pass -db or enable it in the config")
		}
		db, err = database.OpenWithConfig(cfg.Database.Connection())
		if err != nil {
			return err
		}
		defer db.Close()
	}

	switch {
	case opts.list >= 0:
		return listMaps(db, opts.list, stdout)
	case opts.deleteID != 0:
		if err := db.DeleteMap(opts.deleteID); err != nil {
			return fmt.Errorf("failed to delete map %d: %w", opts.deleteID, err)
		}
		logger.Info("Map deleted", "map_id", opts.deleteID)
		return nil
	}

	var doc export.MapDocument
	if opts.loadID != 0 {
		rec, err := db.GetMap(opts.loadID)
		if err != nil {
			return fmt.Errorf("failed to load map %d: %w", opts.loadID, err)
		}
		doc = documentFromRecord(rec)
	} else {
		m, err := generate(cfg.Generation, seedGiven)
		if err != nil {
			return err
		}
		doc = export.NewDocument(m)

		if opts.save {
			id, err := db.SaveMap(database.RecordFromMap(m))
			switch {
			case errors.Is(err, database.ErrDuplicateMap):
				logger.Info("Map already stored", "fingerprint", m.Fingerprint())
			case err != nil:
				return err
			default:
				logger.Info("Map saved", "map_id", id, "seed", m.Seed())
			}
		}
	}

	outFormat, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return err
	}
	exportOpts := export.Options{
		Format:       outFormat,
		Delimiter:    cfg.Export.Delimiter,
		IncludeTiles: opts.tiles,
		Legend:       opts.legend,
	}

	if cfg.Export.Path != "" {
		if err := export.WriteFile(cfg.Export.Path, doc, exportOpts); err != nil {
			return err
		}
		logger.Info("Map exported", "path", cfg.Export.Path, "format", outFormat)
	} else if err := export.Write(stdout, doc, exportOpts); err != nil {
		return err
	}

	if opts.print {
		if err := export.WriteASCII(stderr, doc, opts.legend); err != nil {
			return err
		}
	}

	return nil
}

// generate builds and fills a map. A seed of 0 in the config means random
// unless -seed was passed explicitly.
func generate(g config.GenerationConfig, seedGiven bool) (*dungeon.Map, error) {
	genOpts, err := g.Options()
	if err != nil {
		return nil, err
	}
	if seedGiven && g.Seed == 0 {
		genOpts = append(genOpts, dungeon.WithSeed(0))
	}

	m, err := dungeon.New(g.Width, g.Height, genOpts...)
	if err != nil {
		return nil, err
	}
	if err := m.Generate(); err != nil {
		var incomplete *dungeon.IncompleteError
		if errors.As(err, &incomplete) {
			return nil, fmt.Errorf("%w (seed %d; try a larger grid, fewer rooms or -shrink)", err, m.Seed())
		}
		return nil, err
	}
	return m, nil
}

func listMaps(db *database.Database, limit int, w io.Writer) error {
	maps, err := db.ListMaps(limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%-6s %-9s %-20s %-5s %-19s %s\n", "ID", "SIZE", "SEED", "ROOMS", "CREATED", "FINGERPRINT")
	for _, m := range maps {
		fmt.Fprintf(w, "%-6d %-9s %-20d %-5d %-19s %.16s\n",
			m.ID,
			fmt.Sprintf("%dx%d", m.Width, m.Height),
			m.Seed,
			m.RoomTarget,
			m.CreatedAt.Format("2006-01-02 15:04:05"),
			m.Fingerprint)
	}
	return nil
}

func documentFromRecord(rec *database.MapRecord) export.MapDocument {
	doc := export.MapDocument{
		Seed:        rec.Seed,
		Width:       rec.Width,
		Height:      rec.Height,
		Fingerprint: rec.Fingerprint,
		Rooms:       make([]export.RoomDocument, len(rec.Rooms)),
		Tiles:       rec.Tiles,
	}
	for i, r := range rec.Rooms {
		doc.Rooms[i] = export.RoomDocument{
			Index:    r.Seq,
			Category: r.Category,
			X:        r.X,
			Y:        r.Y,
			Width:    r.Width,
			Height:   r.Height,
		}
	}
	return doc
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
