// Package store persists users and interrogation records.
//
// The canonical implementation is PostgreSQL (lib/pq); the schema is also
// valid SQLite, which the tests use in-memory. Ownership filtering is pushed
// into the queries themselves so that investigators can never observe the
// existence of records they do not own, including through counts.
package store
