package diskstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/selector"
	"github.com/relmq/relmq/store"
)

const (
	indexFileName = "master.idx"
	lockFileName  = "master.idx.lock"

	lockRetryInterval = 50 * time.Millisecond
)

// Store implements store.MessageStore over a plain directory of files.
// It is intended for single-node deployments where the broker process
// itself owns the directory; concurrent processes are kept out by an
// exclusive file lock, not by any distributed protocol.
type Store struct {
	dir   string
	fsync bool

	mu       sync.Mutex
	file     *os.File
	lock     *flock.Flock
	pool     *filePool
	snap     snapshot
	hasImage bool
	offset   uint64
	length   uint64
}

// New creates a disk-backed Store rooted at dir. When fsync is true,
// every index write is followed by an fsync; this trades throughput for
// a tighter durability window. Body file writes are not synced.
func New(dir string, fsync bool) *Store {
	return &Store{dir: dir, fsync: fsync, pool: newFilePool(dir)}
}

// Setup idempotently creates dir if it does not already exist.
func (s *Store) Setup(ctx context.Context) error {
	return os.MkdirAll(s.dir, 0o755)
}

// Activate acquires the directory's exclusive lock and loads (or
// initializes) the master index.
func (s *Store) Activate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	lock := flock.New(filepath.Join(s.dir, lockFileName))
	ok, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return fmt.Errorf("diskstore: acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("diskstore: directory %s is locked by another process", s.dir)
	}

	f, err := os.OpenFile(filepath.Join(s.dir, indexFileName), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		lock.Unlock()
		return err
	}

	snap, offset, length, hasImage, err := readIndex(f)
	if err != nil {
		f.Close()
		lock.Unlock()
		return err
	}

	s.file = f
	s.lock = lock
	s.snap = snap
	s.hasImage = hasImage
	s.offset = offset
	s.length = length
	s.pool.restore(snap.Free)
	return nil
}

// Deactivate closes all open handles and releases the directory lock.
func (s *Store) Deactivate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pool.close()
	var err error
	if s.file != nil {
		err = s.file.Close()
		s.file = nil
	}
	if s.lock != nil {
		if uerr := s.lock.Unlock(); err == nil {
			err = uerr
		}
		s.lock = nil
	}
	return err
}

// Transaction stages fn's edits in memory against a working copy of the
// current snapshot, applies them (writing and freeing body files as it
// goes), and persists the result with a single index write. If applying
// the batch or writing the index fails, the in-memory state and the
// file pool's free list are reloaded from the last durable image so a
// partial mutation never becomes visible.
func (s *Store) Transaction(ctx context.Context, fn func(batch *store.Batch) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := &store.Batch{}
	if err := fn(batch); err != nil {
		return err
	}

	working := s.snap.clone()
	if err := s.applyBatch(&working, batch); err != nil {
		s.reloadLocked()
		return err
	}

	working.Free = s.pool.snapshot()
	offset, length, err := writeIndex(s.file, working, s.offset, s.length, s.fsync, s.hasImage)
	if err != nil {
		s.reloadLocked()
		return err
	}

	s.snap = working
	s.offset, s.length, s.hasImage = offset, length, true
	return nil
}

func (s *Store) reloadLocked() {
	snap, offset, length, hasImage, err := readIndex(s.file)
	if err != nil {
		return
	}
	s.snap = snap
	s.offset, s.length = offset, length
	s.hasImage = hasImage
	s.pool.restore(snap.Free)
}

func (s *Store) applyBatch(working *snapshot, batch *store.Batch) error {
	for _, ins := range batch.Inserts {
		name, err := s.pool.acquire()
		if err != nil {
			return err
		}
		if err := writeBody(s.dir, name, ins.Message.Body); err != nil {
			return err
		}
		e := entry{ID: ins.Message.Id, Headers: cloneHeaders(ins.Message.Headers), File: name}
		if ins.Queue != "" {
			working.Queues[ins.Queue] = insertByPriority(working.Queues[ins.Queue], e)
			continue
		}
		if old, ok := working.Topics[ins.Topic]; ok {
			if err := s.pool.release(old.File); err != nil {
				return err
			}
		}
		working.Topics[ins.Topic] = e
	}

	for _, del := range batch.Deletes {
		entries := working.Queues[del.Queue]
		idx := indexOf(entries, del.ID)
		if idx < 0 {
			continue
		}
		if err := s.pool.release(entries[idx].File); err != nil {
			return err
		}
		working.Queues[del.Queue] = removeAt(entries, idx)
	}

	for _, mv := range batch.DLQs {
		entries := working.Queues[mv.FromQueue]
		idx := indexOf(entries, mv.ID)
		if idx < 0 {
			continue
		}
		e := entries[idx]
		working.Queues[mv.FromQueue] = removeAt(entries, idx)
		working.Queues[store.DLQ] = insertByPriority(working.Queues[store.DLQ], e)
	}

	for _, td := range batch.TopicDeletes {
		cur, ok := working.Topics[td.Topic]
		if !ok || cur.ID != td.ID {
			continue
		}
		if err := s.pool.release(cur.File); err != nil {
			return err
		}
		delete(working.Topics, td.Topic)
	}

	return nil
}

// GetHeaders returns queue's current header list, priority-descending
// with insertion-order tiebreak. Bodies are not materialized.
func (s *Store) GetHeaders(ctx context.Context, queue string) ([]message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.snap.Queues[queue]
	out := make([]message.Message, 0, len(entries))
	for _, e := range entries {
		out = append(out, message.Message{Id: e.ID, Headers: cloneHeaders(e.Headers)})
	}
	return out, nil
}

// GetMessage returns the first header in queue satisfying sel, with its
// body materialized, or nil if none matches.
func (s *Store) GetMessage(ctx context.Context, queue string, sel selector.Selector) (*message.Message, error) {
	s.mu.Lock()
	entries := s.snap.Queues[queue]
	var match *entry
	for i := range entries {
		if sel.Match(entries[i].ID, entries[i].Headers) {
			match = &entries[i]
			break
		}
	}
	dir := s.dir
	s.mu.Unlock()

	if match == nil {
		return nil, nil
	}
	body, err := readBody(dir, match.File)
	if err != nil {
		return nil, err
	}
	return &message.Message{Id: match.ID, Headers: cloneHeaders(match.Headers), Body: body}, nil
}

// GetLast returns topic's current message, with its body materialized,
// iff its id differs from seen and it satisfies sel.
func (s *Store) GetLast(ctx context.Context, topic string, seen string, sel selector.Selector) (*message.Message, error) {
	s.mu.Lock()
	e, ok := s.snap.Topics[topic]
	dir := s.dir
	s.mu.Unlock()

	if !ok || e.ID == seen || !sel.Match(e.ID, e.Headers) {
		return nil, nil
	}
	body, err := readBody(dir, e.File)
	if err != nil {
		return nil, err
	}
	return &message.Message{Id: e.ID, Headers: cloneHeaders(e.Headers), Body: body}, nil
}

func cloneHeaders(h map[string]message.Value) map[string]message.Value {
	out := make(map[string]message.Value, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

func indexOf(entries []entry, id string) int {
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}

func removeAt(entries []entry, idx int) []entry {
	out := make([]entry, 0, len(entries)-1)
	out = append(out, entries[:idx]...)
	return append(out, entries[idx+1:]...)
}

// insertByPriority inserts e before the first entry with a strictly
// lower priority, preserving FIFO order among equal priorities.
func insertByPriority(entries []entry, e entry) []entry {
	p := priorityOf(e)
	idx := len(entries)
	for i, cur := range entries {
		if priorityOf(cur) < p {
			idx = i
			break
		}
	}
	out := make([]entry, 0, len(entries)+1)
	out = append(out, entries[:idx]...)
	out = append(out, e)
	out = append(out, entries[idx:]...)
	return out
}

func priorityOf(e entry) int64 {
	if v, ok := e.Headers[message.HeaderPriority]; ok {
		if n, ok := message.As[int64](v); ok {
			return n
		}
	}
	return 0
}
