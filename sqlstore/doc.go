// Package sqlstore provides a bun-based relational implementation of
// store.MessageStore.
//
// This package implements the MessageStore contract (Setup, Activate,
// Deactivate, Transaction, GetHeaders, GetMessage, GetLast) using a
// relational database via github.com/uptrace/bun, directly descended
// from an earlier bun-based job queue store: same InitDB/MustInitDB
// idempotent-transaction idiom, same isAffected result helper, same
// willingness to let bun target sqlite, MySQL, or
// PostgreSQL.
//
// # Schema
//
// Two tables back the store: relmq_queues (one row per live queue or
// dead-letter entry) and relmq_topics (one row per topic, replaced on
// every publish). InitDB creates both, plus a (queue, priority, seq)
// index for priority-ordered reads.
//
// # Concurrency model
//
// Transaction wraps a single bun transaction around the caller-supplied
// batch of inserts/deletes/dead-letter moves; the whole batch commits or
// rolls back together. Unlike the disk backend, this store keeps no
// separate in-memory cache to reload on failure — the database itself is
// always the source of truth, so a rollback alone restores consistency.
//
// # Database lifecycle
//
// This package does not manage connection pooling or migrations beyond
// InitDB. The caller is responsible for constructing and configuring
// *bun.DB (SQLite, MySQL via go-sql-driver/mysql, or otherwise) before
// calling Setup/Activate.
package sqlstore
