package configuration

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

const (
	DefaultDBPath = "./history/persistence.db"
	DefaultPort   = "8000"

	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Config is resolved once at start up and read-only afterwards. Empty
// BaseURL and Model leave the client defaults in place.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	ProxyURI    string
	ClashConfig string
	ExtCtrl     string
	StoreDriver string
	DBPath      string
	RecordKey   string
	Port        string
	LogLevel    string
}

// Load reads envFile (if it exists) and the process environment; the
// process environment wins. An absent credential is not an error here.
func Load(envFile string) (*Config, error) {
	envMap := map[string]string{}
	if envFile != "" {
		fileMap, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		for k, v := range fileMap {
			envMap[k] = v
		}
	}
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		if v := strings.TrimSpace(envMap[key]); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		APIKey:      get("GOOGLE_API_KEY", get("GEMINI_API_KEY", "")),
		BaseURL:     get("BASE_GOOGLE_AI", ""),
		Model:       get("GEMINI_MODEL", ""),
		ProxyURI:    get("PROXY_URI", ""),
		ClashConfig: get("CLASH_CONFIG", ""),
		ExtCtrl:     get("EXT_CTRL", "127.0.0.1:9090"),
		StoreDriver: strings.ToLower(get("STORE_DRIVER", DriverSQLite)),
		DBPath:      get("DB_PATH", DefaultDBPath),
		RecordKey:   get("RECORD_KEY", ""),
		Port:        get("PORT", DefaultPort),
		LogLevel:    get("LOG_LEVEL", "info"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case DriverSQLite, DriverBolt:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch len(c.RecordKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("RECORD_KEY must be 16, 24 or 32 bytes, got %d", len(c.RecordKey))
	}
	if c.ProxyURI != "" {
		if _, err := url.Parse(c.ProxyURI); err != nil {
			return fmt.Errorf("invalid PROXY_URI: %w", err)
		}
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	return nil
}

// HTTPClient returns the client used for model calls. It sets no timeout;
// callers bound requests through their context.
func (c *Config) HTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.ProxyURI != "" {
		proxyURL, err := url.Parse(c.ProxyURI)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &http.Client{Transport: transport}
}

// NewLogger builds the process logger from LOG_LEVEL.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithField("level", c.LogLevel).Warn("unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

const (
	busyTimeout     = 5000
	maxOpenConns    = 100
	maxIdleConns    = 20
	connMaxIdleTime = 5 * time.Minute
	connMaxLifetime = 1 * time.Hour
	historyDirPerm  = 0755
)

// EnsureDir creates the directory holding dbPath.
func EnsureDir(dbPath string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), historyDirPerm); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	return nil
}

// OpenSQLite opens the sqlite pool in WAL mode.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := EnsureDir(dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=%d", dbPath, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}

	if _, err = db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	return db, nil
}

func isPortAvailable(port string) bool {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

// FreePort returns port or the next free one above it.
func FreePort(port string) string {
	for !isPortAvailable(port) {
		n, _ := strconv.Atoi(port)
		port = strconv.Itoa(n + 1)
	}
	return port
}
