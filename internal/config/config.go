package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"github.com/hurou927/schema-sync/internal/schema"
)

// Backend kinds.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMySQL    = "mysql"
	BackendMSSQL    = "mssql"
)

// DefaultParallel bounds concurrent schema synchronizations.
const DefaultParallel = 4

// DefaultMySQLStorage applies to MySQL tables when no storage is configured.
var DefaultMySQLStorage = schema.TableStorageOptions{
	Engine:    "InnoDB",
	Charset:   "utf8",
	Collation: "utf8_unicode_ci",
}

// Config represents the top-level YAML configuration.
type Config struct {
	Backend    string                     `yaml:"backend"`
	Connection Connection                 `yaml:"connection"`
	DSN        string                     `yaml:"dsn"` // overrides Connection when set
	DBSchema   string                     `yaml:"db_schema"`
	Storage    schema.TableStorageOptions `yaml:"storage"`
	Schemas    []string                   `yaml:"schemas"`
	Parallel   int                        `yaml:"parallel"`
}

// Connection holds database connection parameters. For SQLite, Database is
// the database file path.
type Connection struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// ConnString returns the driver connection string for the configured
// backend.
func (c *Config) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	conn := &c.Connection
	switch c.Backend {
	case BackendSQLite:
		return conn.Database
	case BackendMySQL:
		mc := mysql.NewConfig()
		mc.User = conn.User
		mc.Passwd = conn.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(conn.Host, strconv.Itoa(conn.Port))
		mc.DBName = conn.Database
		mc.ParseTime = true
		return mc.FormatDSN()
	case BackendMSSQL:
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(conn.User, conn.Password),
			Host:     net.JoinHostPort(conn.Host, strconv.Itoa(conn.Port)),
			RawQuery: url.Values{"database": {conn.Database}}.Encode(),
		}
		return u.String()
	default:
		return conn.DSN()
	}
}

// DSN builds a PostgreSQL connection string.
func (c *Connection) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode,
	)
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv fills in empty fields from environment variables.
// YAML values take precedence; env vars are used only as fallback.
func (c *Config) applyEnv() {
	if c.DSN == "" {
		c.DSN = envOr("SCHEMA_SYNC_DSN")
	}
	if c.Backend == "" {
		c.Backend = envOr("SCHEMA_SYNC_BACKEND")
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend != "" && c.Backend != BackendPostgres && c.Backend != "postgresql" {
		return
	}

	conn := &c.Connection
	if conn.Host == "" {
		conn.Host = envOr("PGHOST", "POSTGRES_HOST")
	}
	if conn.Port == 0 {
		if s := envOr("PGPORT", "POSTGRES_PORT"); s != "" {
			if p, err := strconv.Atoi(s); err == nil {
				conn.Port = p
			}
		}
	}
	if conn.Database == "" {
		conn.Database = envOr("PGDATABASE", "POSTGRES_DB")
	}
	if conn.User == "" {
		conn.User = envOr("PGUSER", "POSTGRES_USER")
	}
	if conn.Password == "" {
		conn.Password = envOr("PGPASSWORD", "POSTGRES_PASSWORD")
	}
	if conn.SSLMode == "" {
		conn.SSLMode = envOr("PGSSLMODE")
	}
}

// envOr returns the first non-empty value from the given env var names.
func envOr(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// validate normalizes the backend kind and fills connection defaults.
func (c *Config) validate() error {
	switch c.Backend {
	case "", BackendPostgres, "postgresql":
		c.Backend = BackendPostgres
	case BackendSQLite, "sqlite3":
		c.Backend = BackendSQLite
	case BackendMySQL, "mariadb":
		c.Backend = BackendMySQL
	case BackendMSSQL, "sqlserver":
		c.Backend = BackendMSSQL
	default:
		return fmt.Errorf("unsupported backend %q", c.Backend)
	}

	if c.Parallel < 0 {
		return fmt.Errorf("parallel must not be negative")
	}
	if c.Parallel == 0 {
		c.Parallel = DefaultParallel
	}
	if c.Backend == BackendMySQL && c.Storage == (schema.TableStorageOptions{}) {
		c.Storage = DefaultMySQLStorage
	}

	if c.DSN != "" {
		return nil
	}

	conn := &c.Connection
	if c.Backend == BackendSQLite {
		if conn.Database == "" {
			return fmt.Errorf("connection.database (the database file) is required")
		}
		return nil
	}

	if conn.Host == "" {
		return fmt.Errorf("connection.host is required")
	}
	if conn.Port == 0 {
		conn.Port = defaultPort(c.Backend)
	}
	if conn.Database == "" {
		return fmt.Errorf("connection.database is required")
	}
	if conn.User == "" {
		return fmt.Errorf("connection.user is required")
	}
	if c.Backend == BackendPostgres && conn.SSLMode == "" {
		conn.SSLMode = "disable"
	}
	return nil
}

func defaultPort(backend string) int {
	switch backend {
	case BackendMySQL:
		return 3306
	case BackendMSSQL:
		return 1433
	default:
		return 5432
	}
}
