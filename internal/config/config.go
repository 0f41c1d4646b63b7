// Package config loads the TOML configuration document described in
// spec §6, validates it, and applies defaults for the values spec §6
// leaves optional.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Fixed scan settings. The TOML document has no key for either, and
// Load does not apply them; cmd/serverseeker uses DefaultPermitLimit as
// the worker pool's permit count.
const (
	DefaultScanTimeout = 3 * time.Second
	DefaultPermitLimit = 1000
)

// Database configures the connection to the relational store.
type Database struct {
	Host     string `toml:"host"`
	Port     uint16 `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Table    string `toml:"table"`
}

// Scanner configures the scheduler and the candidate port range.
type Scanner struct {
	Repeat          bool   `toml:"repeat"`
	ScanDelay       uint64 `toml:"scan_delay"`
	PortRangeStart  uint16 `toml:"port_range_start"`
	PortRangeEnd    uint16 `toml:"port_range_end"`
}

// Masscan configures the discovery-mode subprocess.
type Masscan struct {
	ConfigFile string `toml:"config_file"`
	OutputFile string `toml:"output_file"`
}

// PlayerTracking holds the player_tracking section (an enabled flag and
// a list of player names). It is decoded into Config only: no other
// package reads it, and player samples are persisted whatever Enabled
// says.
type PlayerTracking struct {
	Enabled bool     `toml:"enabled"`
	Players []string `toml:"players"`
}

// CountryTracking configures the (out-of-scope) geolocation enrichment
// collaborator. internal/store.UpdateEnrichment is the only seam this
// repo implements for it (SPEC_FULL.md §B.6).
type CountryTracking struct {
	Enabled               bool   `toml:"enabled"`
	IPInfoToken           string `toml:"ipinfo_token"`
	UpdateFrequencyHours  uint64 `toml:"update_frequency_hours"`
}

// Config is the fully loaded, validated, immutable configuration
// (spec §6). Nothing in the core mutates it after Load returns.
type Config struct {
	Database        Database        `toml:"database"`
	Scanner         Scanner         `toml:"scanner"`
	Masscan         Masscan         `toml:"masscan"`
	PlayerTracking  PlayerTracking  `toml:"player_tracking"`
	CountryTracking CountryTracking `toml:"country_tracking"`
}

// Load decodes path as TOML, applies defaults, and validates the
// result. A validation failure here is process-fatal per spec §7.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Scanner.PortRangeStart == 0 && c.Scanner.PortRangeEnd == 0 {
		c.Scanner.PortRangeStart = 25565
		c.Scanner.PortRangeEnd = 25565
	}
}

// Validate enforces the invariants spec §6/§7 name explicitly: the
// port range must be non-inverted, and a database host/table must be
// present since nothing downstream can proceed without them.
func (c Config) Validate() error {
	if c.Scanner.PortRangeStart > c.Scanner.PortRangeEnd {
		return fmt.Errorf("config: scanner.port_range_start (%d) > scanner.port_range_end (%d)",
			c.Scanner.PortRangeStart, c.Scanner.PortRangeEnd)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Table == "" {
		return fmt.Errorf("config: database.table is required")
	}
	return nil
}

// PortSpan returns port_range_end minus port_range_start, so a
// single-port range has a span of 0. scan.WarnOnWidePortRange warns at
// startup when this same difference is over 10 (spec §4.7).
func (c Config) PortSpan() int {
	return int(c.Scanner.PortRangeEnd) - int(c.Scanner.PortRangeStart)
}

// ScanDelay returns the configured inter-scan sleep as a Duration.
func (c Config) ScanDelay() time.Duration {
	return time.Duration(c.Scanner.ScanDelay) * time.Second
}

// ConnString builds a libpq-style connection string for pgxpool.New.
func (c Database) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Table)
}
