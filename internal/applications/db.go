package applications

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // "sqlite3" driver
	_ "modernc.org/sqlite"          // "sqlite" driver, pure Go
)

// Supported database/sql driver names.
const (
	DriverCGo  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

// OpenDB opens the SQLite database at path with WAL journaling and a
// busy timeout, using the named driver. An empty driver selects
// [DriverCGo].
func OpenDB(driver, path string) (*sql.DB, error) {
	var dsn string
	switch driver {
	case "", DriverCGo:
		driver = DriverCGo
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	case DriverPure:
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	default:
		return nil, fmt.Errorf("unsupported sqlite driver %q (valid: %s, %s)", driver, DriverCGo, DriverPure)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
