package postgres

import (
	"fmt"
	"net/url"
	"regexp"
	"time"
)

// Distance metrics supported by pgvector.
const (
	DistanceCosine       = "cosine"
	DistanceL2           = "l2"
	DistanceInnerProduct = "inner_product"
)

// IndexHNSW selects an HNSW index on the embedding column.
const IndexHNSW = "hnsw"

// DefaultTable is the table documents are stored in.
const DefaultTable = "microcore_documents"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Config holds everything needed to connect to PostgreSQL and lay out the
// document table.
type Config struct {
	Connection        Connection        `yaml:"connection"`
	ConnectionDetails ConnectionDetails `yaml:"connection_details"`
	Store             StoreConfig       `yaml:"store"`
}

// Connection holds the DSN parts.
type Connection struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST"`
	Port     string `yaml:"port" env:"POSTGRES_PORT"`
	User     string `yaml:"user" env:"POSTGRES_USER"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	DbName   string `yaml:"db_name" env:"POSTGRES_DB"`
	SSLMode  string `yaml:"ssl_mode" env:"POSTGRES_SSLMODE"`
}

// ConnectionDetails tunes the connection pool. Zero values mean package defaults.
type ConnectionDetails struct {
	MaxOpenConns    int           `yaml:"max_open_conns" env:"POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"POSTGRES_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"POSTGRES_CONN_MAX_LIFETIME"`

	// HealthCheckInterval is how often MonitorConnection pings the database.
	HealthCheckInterval time.Duration `yaml:"health_check_interval" env:"POSTGRES_HEALTH_CHECK_INTERVAL"`
}

// StoreConfig controls the embeddingdb table.
type StoreConfig struct {
	// Table name. Defaults to DefaultTable.
	Table string `yaml:"table" env:"POSTGRES_TABLE"`

	// Distance is "cosine" (default), "l2" or "inner_product".
	Distance string `yaml:"distance" env:"POSTGRES_DISTANCE"`

	// SkipExtension skips CREATE EXTENSION, for roles that may not create
	// extensions on databases where pgvector is already installed.
	SkipExtension bool `yaml:"skip_extension" env:"POSTGRES_SKIP_EXTENSION"`

	// Index is "" for exact scans or "hnsw" for an approximate HNSW index on
	// the embedding column.
	Index string `yaml:"index" env:"POSTGRES_INDEX"`
}

// DefaultConfig returns a config for a local database.
func DefaultConfig() Config {
	return Config{
		Connection: Connection{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			DbName:  "postgres",
			SSLMode: "disable",
		},
		ConnectionDetails: ConnectionDetails{
			MaxOpenConns:        50,
			MaxIdleConns:        25,
			ConnMaxLifetime:     time.Minute,
			HealthCheckInterval: 10 * time.Second,
		},
		Store: StoreConfig{
			Table:    DefaultTable,
			Distance: DistanceCosine,
		},
	}
}

// Validate reports configuration errors before connecting.
func (c Config) Validate() error {
	if c.Connection.Host == "" {
		return fmt.Errorf("[Postgres] host is required")
	}
	if c.Connection.DbName == "" {
		return fmt.Errorf("[Postgres] database name is required")
	}
	return c.Store.Validate()
}

// Validate checks the table name and distance.
func (s StoreConfig) Validate() error {
	if s.Table != "" && !identifierPattern.MatchString(s.Table) {
		return fmt.Errorf("[Postgres] invalid table name %q", s.Table)
	}
	if _, err := distanceOperator(s.Distance); err != nil {
		return err
	}
	switch s.Index {
	case "", IndexHNSW:
	default:
		return fmt.Errorf("[Postgres] unknown index type %q", s.Index)
	}
	return nil
}

// DSN builds a libpq style connection string.
func (c Connection) DSN() string {
	port := c.Port
	if port == "" {
		port = "5432"
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, port, c.User, c.Password, c.DbName, sslMode)
}

// URL builds a postgres:// connection URL, as lib/pq and most tools accept.
func (c Connection) URL() string {
	port := c.Port
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + port,
		Path:   "/" + c.DbName,
	}
	q := u.Query()
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	} else {
		q.Set("sslmode", "disable")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func distanceOperator(distance string) (string, error) {
	switch distance {
	case "", DistanceCosine:
		return "<=>", nil
	case DistanceL2:
		return "<->", nil
	case DistanceInnerProduct:
		return "<#>", nil
	default:
		return "", fmt.Errorf("[Postgres] unknown distance %q", distance)
	}
}

func operatorClass(distance string) string {
	switch distance {
	case DistanceL2:
		return "vector_l2_ops"
	case DistanceInnerProduct:
		return "vector_ip_ops"
	default:
		return "vector_cosine_ops"
	}
}
