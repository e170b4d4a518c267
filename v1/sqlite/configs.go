package sqlite

import (
	"fmt"
	"strings"
	"time"
)

// Distance metrics backed by sqlite-vec scalar functions.
const (
	DistanceCosine = "cosine"
	DistanceL2     = "l2"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Config configures the SQLite backend.
type Config struct {
	// Path of the database file. MemoryPath keeps everything in memory.
	Path string `yaml:"path" env:"SQLITE_PATH"`

	// Distance is "cosine" (default) or "l2".
	Distance string `yaml:"distance" env:"SQLITE_DISTANCE"`

	// BusyTimeout is how long a connection waits for a lock before failing.
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"SQLITE_BUSY_TIMEOUT"`
}

// DefaultConfig returns a config for ./microcore.db with cosine distance.
func DefaultConfig() Config {
	return Config{
		Path:        "microcore.db",
		Distance:    DistanceCosine,
		BusyTimeout: 5 * time.Second,
	}
}

// Validate reports configuration errors before opening the database.
func (c Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("[SQLite] path is required")
	}
	if _, err := distanceFunction(c.Distance); err != nil {
		return err
	}
	return nil
}

func (c Config) inMemory() bool {
	return c.Path == MemoryPath || strings.Contains(c.Path, "mode=memory")
}

// dsn appends the driver options understood by mattn/go-sqlite3.
func (c Config) dsn() string {
	busy := c.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	opts := fmt.Sprintf("_busy_timeout=%d&_foreign_keys=on", busy.Milliseconds())
	if !c.inMemory() {
		opts = "_journal_mode=WAL&" + opts
	}
	sep := "?"
	if strings.Contains(c.Path, "?") {
		sep = "&"
	}
	return c.Path + sep + opts
}

func distanceFunction(distance string) (string, error) {
	switch distance {
	case "", DistanceCosine:
		return "vec_distance_cosine", nil
	case DistanceL2:
		return "vec_distance_l2", nil
	default:
		return "", fmt.Errorf("[SQLite] unknown distance %q", distance)
	}
}
