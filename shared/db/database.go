// Package db provides the database abstraction shared by the persistence
// layer: a connection lifecycle interface and a context-threaded
// transaction helper.
package db

import (
	"database/sql"
)

// Database is the connection lifecycle contract implemented per driver.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}
