// Package message defines the transport-level record exchanged between
// clients and the queue manager.
//
// A Message carries a globally unique Id, a set of Headers restricted to
// a small scalar value set, and an opaque Body. Message does not track
// delivery state, locking, or scheduling — those concerns belong to the
// manager and its store backends.
//
// Header values are represented by Value, a tagged union over string,
// integer, float, boolean, symbol and null. Structured values (maps,
// slices) are rejected at the API boundary by callers, not by Value
// itself.
//
// Message is designed to be:
//   - storage-agnostic
//   - lightweight
//   - safe to pass across the client/manager/store boundaries
//
// Callers should treat Message headers as immutable once a message has
// been accepted by the manager; only the reserved "redelivery" header is
// ever mutated post-acceptance, and only by the manager itself.
package message
