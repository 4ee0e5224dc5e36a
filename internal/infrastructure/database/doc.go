// Package database manages the SQLite connection and schema migrations
// for Vyahan Core.
//
// SQLite is deliberate: a single logistics deployment serves one region
// from one node, and the single-writer model pairs well with WAL mode
// for read-heavy tracking traffic. All repositories share one *sql.DB.
//
// Migrations are embedded into the binary by the top-level migrations
// package and applied on startup, each in its own transaction.
package database
