// Package storage persists subscriber records in a single-file SQLite
// database. Every read and write goes straight to the database; there is
// no caching layer in front of it.
package storage
