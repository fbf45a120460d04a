// Package config loads the generator's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/dungeongen/internal/database"
	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
)

// Config holds every configurable setting of the generator and its
// front-ends.
type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	Export     ExportConfig     `yaml:"export"`
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
}

// GenerationConfig controls the placement engine.
type GenerationConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Seed makes runs reproducible. 0 means "no seed given": a seed is
	// derived from the clock and reported in the logs.
	Seed int64 `yaml:"seed"`

	RoomCount int `yaml:"room_count"`

	// MaxAttempts caps consecutive rejected candidates per room.
	MaxAttempts int `yaml:"max_attempts"`

	// ShrinkOnExhaustion accepts fewer rooms instead of failing when
	// MaxAttempts is reached.
	ShrinkOnExhaustion bool `yaml:"shrink_on_exhaustion"`

	// Catalog overrides room size bounds per category name. Categories
	// left out keep their default bounds.
	Catalog map[string]RoomSizeConfig `yaml:"catalog"`
}

// RoomSizeConfig is the inclusive size range of one room category.
type RoomSizeConfig struct {
	MinWidth  int `yaml:"min_width"`
	MinHeight int `yaml:"min_height"`
	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`
}

// ExportConfig controls how a finished map is written.
type ExportConfig struct {
	// Format is one of csv, yaml or ascii.
	Format string `yaml:"format"`

	// Delimiter separates cells in csv output. Any string is allowed.
	Delimiter string `yaml:"delimiter"`

	// Path is the output file. Empty writes to stdout.
	Path string `yaml:"path"`
}

// DatabaseConfig holds map persistence settings.
type DatabaseConfig struct {
	Enabled    bool           `yaml:"enabled"`
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlite_path"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// Connection converts the settings to a database connection config.
func (d DatabaseConfig) Connection() database.Config {
	pg := database.DefaultPostgresConfig()
	pg.Host = d.Postgres.Host
	pg.Port = d.Postgres.Port
	pg.User = d.Postgres.User
	pg.Password = d.Postgres.Password
	pg.Database = d.Postgres.Database
	pg.SSLMode = d.Postgres.SSLMode

	return database.Config{
		Driver:     d.Driver,
		SQLitePath: d.SQLitePath,
		Postgres:   pg,
	}
}

// ServerConfig holds preview server settings.
type ServerConfig struct {
	Address     string            `yaml:"address"`
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`

	// MaxGridSize bounds width and height requested by clients.
	MaxGridSize int `yaml:"max_grid_size"`

	// SaveMaps stores every served map when the database is enabled.
	SaveMaps bool `yaml:"save_maps"`
}

// RateLimitConfig holds lockout settings for clients sending bad requests.
type RateLimitConfig struct {
	// MaxFailures is the number of rejected requests before lockout.
	MaxFailures int `yaml:"max_failures"`

	// LockoutSeconds is the initial lockout duration in seconds.
	LockoutSeconds int `yaml:"lockout_seconds"`

	// MaxLockoutSeconds caps the doubling lockout duration.
	MaxLockoutSeconds int `yaml:"max_lockout_seconds"`
}

// ConnectionsConfig holds connection limit settings.
type ConnectionsConfig struct {
	// MaxPerIP is the maximum concurrent connections allowed from a single IP address.
	// 0 means unlimited (not recommended).
	MaxPerIP int `yaml:"max_per_ip"`

	// MaxTotal is the maximum total concurrent connections to the server.
	// 0 means unlimited.
	MaxTotal int `yaml:"max_total"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins is a list of origins allowed to connect via WebSocket.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins (not recommended for production).
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns the reference 50x50, ten room setup with csv
// output to stdout.
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			Width:       50,
			Height:      50,
			RoomCount:   dungeon.DefaultRoomCount,
			MaxAttempts: dungeon.DefaultMaxAttempts,
		},
		Export: ExportConfig{
			Format:    "csv",
			Delimiter: ",",
		},
		Database: DatabaseConfig{
			Driver:     "sqlite",
			SQLitePath: "data/dungeongen.db",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Server: ServerConfig{
			Address: ":8080",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{}, // Same-origin only by default
				MaxMessageSize: 4096,
			},
			Connections: ConnectionsConfig{
				MaxPerIP: 3,
				MaxTotal: 100,
			},
			RateLimit: RateLimitConfig{
				MaxFailures:       5,
				LockoutSeconds:    30,
				MaxLockoutSeconds: 300,
			},
			MaxGridSize: 500,
		},
	}
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, returns default config.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// Validate reports settings that can never work. Grid fit against the
// catalog is checked by dungeon.New.
func (c *Config) Validate() error {
	var errs []error

	g := c.Generation
	if g.Width <= 0 || g.Height <= 0 {
		errs = append(errs, fmt.Errorf("generation: width and height must be positive, got %dx%d", g.Width, g.Height))
	}
	if g.RoomCount < 1 {
		errs = append(errs, fmt.Errorf("generation: room_count must be at least 1, got %d", g.RoomCount))
	}
	if g.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("generation: max_attempts must be at least 1, got %d", g.MaxAttempts))
	}
	if _, err := g.RoomCatalog(); err != nil {
		errs = append(errs, fmt.Errorf("generation: %w", err))
	}

	switch strings.ToLower(c.Export.Format) {
	case "csv", "yaml", "ascii":
	default:
		errs = append(errs, fmt.Errorf("export: unknown format %q (want csv, yaml or ascii)", c.Export.Format))
	}
	if c.Export.Delimiter == "" {
		errs = append(errs, errors.New("export: delimiter must not be empty"))
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database: unknown driver %q (want sqlite or postgres)", c.Database.Driver))
	}

	if c.Server.MaxGridSize < 1 {
		errs = append(errs, fmt.Errorf("server: max_grid_size must be at least 1, got %d", c.Server.MaxGridSize))
	}

	return errors.Join(errs...)
}

// RoomCatalog builds the room size catalog, applying any overrides on top of
// the default bounds.
func (g GenerationConfig) RoomCatalog() (dungeon.Catalog, error) {
	defaults := dungeon.DefaultCatalog()
	if len(g.Catalog) == 0 {
		return defaults, nil
	}

	bounds := make(map[dungeon.RoomCategory]dungeon.SizeBounds)
	for _, cat := range dungeon.AllCategories() {
		bounds[cat] = defaults.SizeFor(cat)
	}

	for name, rs := range g.Catalog {
		cat, err := dungeon.ParseRoomCategory(name)
		if err != nil {
			return dungeon.Catalog{}, err
		}
		bounds[cat] = dungeon.SizeBounds{
			Min: dungeon.Size{Width: rs.MinWidth, Height: rs.MinHeight},
			Max: dungeon.Size{Width: rs.MaxWidth, Height: rs.MaxHeight},
		}
	}

	return dungeon.NewCatalog(bounds)
}

// Options converts the generation settings to dungeon options.
func (g GenerationConfig) Options() ([]dungeon.Option, error) {
	catalog, err := g.RoomCatalog()
	if err != nil {
		return nil, err
	}

	opts := []dungeon.Option{
		dungeon.WithRoomCount(g.RoomCount),
		dungeon.WithMaxAttempts(g.MaxAttempts),
		dungeon.WithCatalog(catalog),
	}
	if g.Seed != 0 {
		opts = append(opts, dungeon.WithSeed(g.Seed))
	}
	if g.ShrinkOnExhaustion {
		opts = append(opts, dungeon.WithShrinkOnExhaustion())
	}
	return opts, nil
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	// Extract host from origin URL (e.g., "http://localhost:3000" -> "localhost:3000")
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
