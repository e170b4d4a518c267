package backend

import (
	"fmt"

	"github.com/Aleph-Alpha/microcore/v1/memory"
	"github.com/Aleph-Alpha/microcore/v1/postgres"
	"github.com/Aleph-Alpha/microcore/v1/qdrant"
	"github.com/Aleph-Alpha/microcore/v1/sqlite"
)

// Backend types.
const (
	TypeMemory   = "memory"
	TypeQdrant   = "qdrant"
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Config selects and configures the embedding database. Only the section
// named by Type is used.
type Config struct {
	Type     string          `yaml:"type" env:"EMBEDDINGDB_TYPE"`
	Memory   memory.Config   `yaml:"memory"`
	Qdrant   *qdrant.Config  `yaml:"qdrant"`
	Postgres postgres.Config `yaml:"postgres"`
	SQLite   sqlite.Config   `yaml:"sqlite"`
}

// DefaultConfig selects the in-memory backend and fills every section with
// its package defaults.
func DefaultConfig() Config {
	return Config{
		Type:     TypeMemory,
		Memory:   memory.DefaultConfig(),
		Qdrant:   qdrant.DefaultConfig(),
		Postgres: postgres.DefaultConfig(),
		SQLite:   sqlite.DefaultConfig(),
	}
}

// Validate checks Type and the section it selects.
func (c Config) Validate() error {
	switch c.Type {
	case TypeMemory:
		return c.Memory.Validate()
	case TypeQdrant:
		if c.Qdrant == nil {
			return fmt.Errorf("[Backend] qdrant section is required")
		}
		return c.Qdrant.Validate()
	case TypePostgres:
		return c.Postgres.Validate()
	case TypeSQLite:
		return c.SQLite.Validate()
	case "":
		return fmt.Errorf("[Backend] type is required")
	default:
		return fmt.Errorf("[Backend] unknown type %q", c.Type)
	}
}
