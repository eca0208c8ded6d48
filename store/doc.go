// Package store defines the persistence contract every broker backend
// must satisfy.
//
// MessageStore separates concerns cleanly from the queue manager: a
// store knows how to durably hold queue/topic header lists and message
// bodies, and how to apply a batch of inserts/deletes/dead-letter moves
// atomically. It does not lock messages, route expired entries to the
// dead-letter queue on its own initiative, or interpret delivery modes —
// those are entirely the manager's responsibility.
//
// Two backends are provided elsewhere in this module: diskstore (a
// crash-safe file-based implementation) and sqlstore (a relational
// implementation built on bun). Both implement this package's
// MessageStore interface identically as far as the manager is concerned.
package store
