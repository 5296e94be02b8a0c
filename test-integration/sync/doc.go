// Package integration runs end-to-end synchronizations between a Postgres
// document store started with testcontainers and a SQLite search index.
package integration
