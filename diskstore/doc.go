// Package diskstore provides a crash-safe, file-based implementation of
// store.MessageStore.
//
// # Layout
//
// A directory holds one master index file (master.idx) and one small
// body file per live (or recently live) message.
//
// master.idx begins with an 8-byte ASCII-hex offset pointing at the
// current index image. At that offset sits an 8-byte ASCII-hex length
// followed by a msgpack-encoded snapshot of every queue's header list,
// every topic's current entry, the message-id-to-filename map, and the
// free-file list. New images are written next-fit: if the new image fits
// in the gap before the old one (offset 8 + image + 8 <= current image
// offset), it is written there; otherwise it is appended after the old
// image. The 8-byte header pointer is updated last, so a crash mid-write
// leaves the previous, still-valid image in place.
//
// # Message files
//
// Each body occupies its own file, named by a freshly generated id and
// unrelated to the message's own id (a message's file may be reused by a
// later, different message). Deleted messages return their file to a
// free list; up to MaxOpenFiles (20) freed files are kept open for
// reuse, beyond which the surplus file is closed and unlinked.
//
// # Locking
//
// An exclusive github.com/gofrs/flock lock on master.idx.lock, acquired
// in Activate and released in Deactivate, enforces single-writer
// ownership of the directory across processes.
//
// # Recovery
//
// Activate reads the 8-byte header; if master.idx does not exist, the
// store starts from an empty snapshot. Otherwise it seeks to the
// recorded offset, reads the length-prefixed image, and decodes it.
//
// diskstore never locks messages, routes expired entries to the
// dead-letter queue, or interprets delivery modes — that remains the
// manager's responsibility.
package diskstore
