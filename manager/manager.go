package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relmq/relmq"
	"github.com/relmq/relmq/internal"
	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/selector"
	"github.com/relmq/relmq/store"
)

// reapInterval is the cadence at which the background reaper scans the
// transaction table for expired deadlines, per spec.md §4.5.7.
const reapInterval = 30 * time.Second

// Manager implements the broker's queue and topic semantics over a
// store.MessageStore backend. A Manager must be started with Start
// before use and stopped with Stop when no longer needed.
type Manager struct {
	store store.MessageStore
	log   *slog.Logger

	reaper internal.TimerTask

	mu     sync.Mutex
	locked map[string]struct{}
	txs    map[string]*transaction
}

// New creates a Manager over the given backend. The backend's Setup
// must already have been called; Start calls Activate.
func New(backend store.MessageStore, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store:  backend,
		log:    log,
		locked: make(map[string]struct{}),
		txs:    make(map[string]*transaction),
	}
}

var (
	procLifecycle internal.LifecycleBase
	activeMu      sync.Mutex
	active        *Manager
)

// Start activates the backend and launches the reaper. Only one Manager
// may be active per process; a second Start fails with
// relmq.ErrManagerAlreadyStarted.
func (m *Manager) Start(ctx context.Context) error {
	if err := procLifecycle.TryStart(); err != nil {
		return fmt.Errorf("%w", relmq.ErrManagerAlreadyStarted)
	}
	if err := m.store.Activate(ctx); err != nil {
		procLifecycle.TryStop(0, doneNow)
		if errors.Is(err, relmq.ErrStoreCorrupt) {
			return fmt.Errorf("%w: %v", relmq.ErrStoreCorrupt, err)
		}
		return fmt.Errorf("%w: %v", relmq.ErrStoreUnavailable, err)
	}

	activeMu.Lock()
	active = m
	activeMu.Unlock()

	m.reaper.Start(ctx, m.reap, reapInterval)
	return nil
}

// Stop terminates the reaper and deactivates the backend. Stop on a
// Manager that is not the active one fails with
// relmq.ErrManagerNotStarted.
func (m *Manager) Stop(ctx context.Context, timeout time.Duration) error {
	activeMu.Lock()
	if active != m {
		activeMu.Unlock()
		return fmt.Errorf("%w", relmq.ErrManagerNotStarted)
	}
	active = nil
	activeMu.Unlock()

	if err := procLifecycle.TryStop(timeout, m.reaper.Stop); err != nil {
		return err
	}
	return m.store.Deactivate(ctx)
}

func doneNow() internal.DoneChan {
	ch := make(internal.DoneChan)
	close(ch)
	return ch
}

// Put enqueues body with headers into queue, returning the message's
// generated id. If tid is non-empty, the insert is staged into that
// transaction instead of being applied immediately.
func (m *Manager) Put(ctx context.Context, queue string, body []byte, headers map[string]message.Value, opts PutOptions, tid string) (string, error) {
	if queue == "" {
		return "", fmt.Errorf("%w: queue must not be empty", relmq.ErrInvalidArgument)
	}
	if opts.Priority < 0 {
		return "", fmt.Errorf("%w: priority must be >= 0", relmq.ErrInvalidArgument)
	}
	maxDeliveries := opts.MaxDeliveries
	if maxDeliveries == 0 {
		maxDeliveries = DefaultMaxDeliveries
	}
	if maxDeliveries < 1 {
		return "", fmt.Errorf("%w: max_deliveries must be >= 1", relmq.ErrInvalidArgument)
	}
	if err := validateUserHeaders(headers); err != nil {
		return "", err
	}

	msg := message.NewMessage()
	msg.Body = body
	for k, v := range headers {
		msg.Set(k, v)
	}
	now := time.Now()
	msg.Set(message.HeaderCreated, message.IntValue(now.Unix()))
	msg.Set(message.HeaderDelivery, message.StringValue(opts.Delivery.String()))
	msg.Set(message.HeaderMaxDeliveries, message.IntValue(int64(maxDeliveries)))
	msg.Set(message.HeaderPriority, message.IntValue(opts.Priority))
	if opts.ExpiresIn > 0 {
		msg.Set(message.HeaderExpiresAt, message.IntValue(now.Add(opts.ExpiresIn).Unix()))
	}

	ins := store.Insert{Queue: queue, Message: *msg}

	if tid != "" {
		m.mu.Lock()
		defer m.mu.Unlock()
		tx, ok := m.txs[tid]
		if !ok || tx.state != txOpen {
			return "", fmt.Errorf("%w: %s", relmq.ErrNoSuchTransaction, tid)
		}
		tx.inserts = append(tx.inserts, ins)
		return msg.Id, nil
	}

	err := m.store.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, ins)
		return nil
	})
	if err != nil {
		return "", err
	}
	return msg.Id, nil
}

// Publish replaces topic's current entry with body and headers.
// Delivery, priority and max-deliveries headers do not apply to topics
// and are never filled in.
func (m *Manager) Publish(ctx context.Context, topic string, body []byte, headers map[string]message.Value, opts PublishOptions) error {
	if topic == "" {
		return fmt.Errorf("%w: topic must not be empty", relmq.ErrInvalidArgument)
	}
	if err := validateUserHeaders(headers); err != nil {
		return err
	}

	msg := message.NewMessage()
	msg.Body = body
	for k, v := range headers {
		msg.Set(k, v)
	}
	now := time.Now()
	msg.Set(message.HeaderCreated, message.IntValue(now.Unix()))
	if opts.ExpiresIn > 0 {
		msg.Set(message.HeaderExpiresAt, message.IntValue(now.Add(opts.ExpiresIn).Unix()))
	}

	return m.store.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, store.Insert{Topic: topic, Message: *msg})
		return nil
	})
}

// List returns queue's currently visible headers, cloned. As a side
// effect, any encountered expired message is routed to the dead-letter
// queue (repeated/once) or deleted outright (best_effort), matching the
// expiration handling in Dequeue.
func (m *Manager) List(ctx context.Context, queue string) ([]message.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	headers, err := m.store.GetHeaders(ctx, queue)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	live := make([]message.Message, 0, len(headers))
	var toDelete, toDLQ []string
	for i := range headers {
		h := &headers[i]
		if _, locked := m.locked[h.Id]; locked {
			live = append(live, *h.Clone())
			continue
		}
		if queue != store.DLQ && isExpired(h, now) {
			if routeOnExpiry(h) {
				toDLQ = append(toDLQ, h.Id)
			} else {
				toDelete = append(toDelete, h.Id)
			}
			continue
		}
		live = append(live, *h.Clone())
	}

	if len(toDelete) > 0 || len(toDLQ) > 0 {
		err := m.store.Transaction(ctx, func(b *store.Batch) error {
			for _, id := range toDelete {
				b.Deletes = append(b.Deletes, store.Delete{Queue: queue, ID: id})
			}
			for _, id := range toDLQ {
				b.DLQs = append(b.DLQs, store.Move{FromQueue: queue, ID: id})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return live, nil
}

// Dequeue selects the first header in queue matching sel and not
// currently locked by another in-flight caller, applies expiration and
// exhaustion routing, and returns the matching message with its body
// materialized, or nil if none is available. If tid is non-empty, the
// eventual delete is staged into that transaction instead of being
// applied immediately; the message stays locked until Commit or Abort.
func (m *Manager) Dequeue(ctx context.Context, queue string, sel selector.Selector, tid string) (*message.Message, error) {
	for {
		m.mu.Lock()
		headers, err := m.store.GetHeaders(ctx, queue)
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}

		var chosen *message.Message
		for i := range headers {
			h := &headers[i]
			if _, locked := m.locked[h.Id]; locked {
				continue
			}
			if !sel.Match(h.Id, h.Headers) {
				continue
			}
			chosen = h
			break
		}
		if chosen == nil {
			m.mu.Unlock()
			return nil, nil
		}

		if queue != store.DLQ {
			now := time.Now().Unix()
			if expiredOrExhausted := isExpired(chosen, now) || isExhausted(chosen); expiredOrExhausted {
				toDLQ := routeOnExpiry(chosen)
				id := chosen.Id
				m.mu.Unlock()
				var txErr error
				if toDLQ {
					txErr = m.store.Transaction(ctx, func(b *store.Batch) error {
						b.DLQs = append(b.DLQs, store.Move{FromQueue: queue, ID: id})
						return nil
					})
				} else {
					txErr = m.store.Transaction(ctx, func(b *store.Batch) error {
						b.Deletes = append(b.Deletes, store.Delete{Queue: queue, ID: id})
						return nil
					})
				}
				if txErr != nil {
					return nil, txErr
				}
				continue
			}
		}

		m.locked[chosen.Id] = struct{}{}
		m.mu.Unlock()

		full, err := m.store.GetMessage(ctx, queue, selector.ID{Value: chosen.Id})
		if err != nil {
			m.releaseLock(chosen.Id)
			return nil, err
		}
		if full == nil {
			// Vanished between the header scan and the body read
			// (concurrently dequeued/expired/deleted); retry.
			m.releaseLock(chosen.Id)
			continue
		}

		if tid == "" {
			err := m.store.Transaction(ctx, func(b *store.Batch) error {
				b.Deletes = append(b.Deletes, store.Delete{Queue: queue, ID: full.Id})
				return nil
			})
			m.releaseLock(full.Id)
			if err != nil {
				return nil, err
			}
			return full.Clone(), nil
		}

		m.mu.Lock()
		tx, ok := m.txs[tid]
		if !ok || tx.state != txOpen {
			delete(m.locked, full.Id)
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", relmq.ErrNoSuchTransaction, tid)
		}
		m.mu.Unlock()

		if delivery, _ := message.As[string](full.Get(message.HeaderDelivery)); delivery == message.Once.String() && queue != store.DLQ {
			if err := m.store.Transaction(ctx, func(b *store.Batch) error {
				b.DLQs = append(b.DLQs, store.Move{FromQueue: queue, ID: full.Id})
				return nil
			}); err != nil {
				m.releaseLock(full.Id)
				return nil, err
			}
			m.mu.Lock()
			tx.deletes = append(tx.deletes, stagedDelete{
				Delete:     store.Delete{Queue: store.DLQ, ID: full.Id},
				onceRouted: true,
			})
			m.mu.Unlock()
		} else {
			m.mu.Lock()
			tx.deletes = append(tx.deletes, stagedDelete{Delete: store.Delete{Queue: queue, ID: full.Id}})
			m.mu.Unlock()
		}

		return full.Clone(), nil
	}
}

func (m *Manager) releaseLock(id string) {
	m.mu.Lock()
	delete(m.locked, id)
	m.mu.Unlock()
}

// Retrieve returns topic's current message iff its id differs from seen
// and it satisfies sel, deleting it first if it has expired.
func (m *Manager) Retrieve(ctx context.Context, topic string, seen string, sel selector.Selector) (*message.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, err := m.store.GetLast(ctx, topic, seen, selector.Any{})
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	if isExpired(msg, time.Now().Unix()) {
		if err := m.store.Transaction(ctx, func(b *store.Batch) error {
			b.TopicDeletes = append(b.TopicDeletes, store.TopicDelete{Topic: topic, ID: msg.Id})
			return nil
		}); err != nil {
			return nil, fmt.Errorf("relmq: retrieve: expire %s/%s: %w", topic, msg.Id, err)
		}
		return nil, nil
	}
	if !sel.Match(msg.Id, msg.Headers) {
		return nil, nil
	}
	return msg.Clone(), nil
}

// Begin opens a new transaction with a deadline of now+timeout.
func (m *Manager) Begin(ctx context.Context, timeout time.Duration) (string, error) {
	tid := uuid.New().String()
	m.mu.Lock()
	m.txs[tid] = &transaction{
		id:       tid,
		deadline: time.Now().Add(timeout),
		state:    txOpen,
	}
	m.mu.Unlock()
	return tid, nil
}

// Commit applies tid's staged inserts and deletes through one store
// transaction and releases the locks held by its deletes. A store
// failure aborts tid automatically and the error is returned.
func (m *Manager) Commit(ctx context.Context, tid string) error {
	m.mu.Lock()
	tx, ok := m.txs[tid]
	if !ok || tx.state != txOpen {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", relmq.ErrNoSuchTransaction, tid)
	}
	tx.state = txCommitting
	inserts, deletes := tx.inserts, tx.deletes
	m.mu.Unlock()

	err := m.store.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, inserts...)
		for _, d := range deletes {
			b.Deletes = append(b.Deletes, d.Delete)
		}
		return nil
	})
	if err != nil {
		for _, d := range deletes {
			if !d.onceRouted {
				if bumpErr := m.bumpRedelivery(ctx, d.Queue, d.ID); bumpErr != nil {
					m.log.Error("failed to bump redelivery count", "queue", d.Queue, "id", d.ID, "error", bumpErr)
					err = errors.Join(err, bumpErr)
				}
			}
		}
	}

	m.mu.Lock()
	for _, d := range deletes {
		delete(m.locked, d.ID)
	}
	delete(m.txs, tid)
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %v", relmq.ErrTransactionAborted, err)
	}
	return nil
}

// Abort releases tid's locks, bumping redelivery on each deleted
// message's header so later consumers observe the retry count, and
// discards its staged inserts entirely. A failed redelivery bump does
// not stop the remaining deletes from being processed or their locks
// from being released, but its error is logged and joined into the
// returned error so the caller knows the in-memory and store views may
// have diverged for that message.
func (m *Manager) Abort(ctx context.Context, tid string) error {
	m.mu.Lock()
	tx, ok := m.txs[tid]
	if !ok || tx.state != txOpen {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", relmq.ErrNoSuchTransaction, tid)
	}
	tx.state = txAborting
	deletes := tx.deletes
	m.mu.Unlock()

	var errs []error
	for _, d := range deletes {
		if !d.onceRouted {
			if err := m.bumpRedelivery(ctx, d.Queue, d.ID); err != nil {
				m.log.Error("failed to bump redelivery count", "queue", d.Queue, "id", d.ID, "error", err)
				errs = append(errs, fmt.Errorf("bump redelivery %s/%s: %w", d.Queue, d.ID, err))
			}
		}
		m.releaseLock(d.ID)
	}

	m.mu.Lock()
	delete(m.txs, tid)
	m.mu.Unlock()
	return errors.Join(errs...)
}

// bumpRedelivery increments the message identified by (queue, id)'s
// redelivery header by one. It returns nil if the message is no longer
// present, since a concurrent delete or expiry is not an abort failure.
func (m *Manager) bumpRedelivery(ctx context.Context, queue, id string) error {
	msg, err := m.store.GetMessage(ctx, queue, selector.ID{Value: id})
	if err != nil {
		return err
	}
	if msg == nil {
		return nil
	}
	redelivery, _ := message.As[int64](msg.Get(message.HeaderRedelivery))
	msg.Set(message.HeaderRedelivery, message.IntValue(redelivery+1))
	return m.store.Transaction(ctx, func(b *store.Batch) error {
		b.Deletes = append(b.Deletes, store.Delete{Queue: queue, ID: id})
		b.Inserts = append(b.Inserts, store.Insert{Queue: queue, Message: *msg})
		return nil
	})
}

// Empty removes every message from queue, including ones currently
// locked by an in-flight transaction.
func (m *Manager) Empty(ctx context.Context, queue string) (int64, error) {
	m.mu.Lock()
	headers, err := m.store.GetHeaders(ctx, queue)
	if err != nil {
		m.mu.Unlock()
		return 0, err
	}
	m.mu.Unlock()
	if len(headers) == 0 {
		return 0, nil
	}

	err = m.store.Transaction(ctx, func(b *store.Batch) error {
		for _, h := range headers {
			b.Deletes = append(b.Deletes, store.Delete{Queue: queue, ID: h.Id})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	for _, h := range headers {
		delete(m.locked, h.Id)
	}
	m.mu.Unlock()
	return int64(len(headers)), nil
}

// Stats is a read-only administrative snapshot returned by
// Manager.Stats and exposed over RPC as Broker.Stats.
type Stats struct {
	QueueDepth  map[string]int
	OpenTxCount int
	DLQDepth    int
}

// Stats reports the current depth of queue and the broker's open
// transaction count. Per-topic occupancy is reported via Retrieve's nil
// vs. non-nil result and is not duplicated here.
func (m *Manager) Stats(ctx context.Context, queues []string) (Stats, error) {
	out := Stats{QueueDepth: make(map[string]int, len(queues))}
	for _, q := range queues {
		headers, err := m.store.GetHeaders(ctx, q)
		if err != nil {
			return Stats{}, err
		}
		out.QueueDepth[q] = len(headers)
	}
	dlq, err := m.store.GetHeaders(ctx, store.DLQ)
	if err != nil {
		return Stats{}, err
	}
	out.DLQDepth = len(dlq)

	m.mu.Lock()
	out.OpenTxCount = len(m.txs)
	m.mu.Unlock()
	return out, nil
}

func (m *Manager) reap(ctx context.Context) {
	now := time.Now()
	m.mu.Lock()
	var expired []string
	for tid, tx := range m.txs {
		if tx.state == txOpen && now.After(tx.deadline) {
			expired = append(expired, tid)
		}
	}
	m.mu.Unlock()

	for _, tid := range expired {
		if err := m.Abort(ctx, tid); err != nil {
			m.log.Error("reaper encountered an error aborting expired transaction", "tid", tid, "error", err)
		}
	}
}

func validateUserHeaders(headers map[string]message.Value) error {
	for name := range headers {
		if reservedHeaders[name] {
			return fmt.Errorf("%w: header %q is reserved", relmq.ErrInvalidArgument, name)
		}
	}
	return nil
}

var reservedHeaders = map[string]bool{
	message.HeaderID:            true,
	message.HeaderCreated:       true,
	message.HeaderDelivery:      true,
	message.HeaderMaxDeliveries: true,
	message.HeaderPriority:      true,
	message.HeaderExpiresAt:     true,
	message.HeaderRedelivery:    true,
}

func isExpired(msg *message.Message, now int64) bool {
	expiresAt, ok := message.As[int64](msg.Get(message.HeaderExpiresAt))
	return ok && expiresAt < now
}

func isExhausted(msg *message.Message) bool {
	redelivery, _ := message.As[int64](msg.Get(message.HeaderRedelivery))
	maxDeliveries, ok := message.As[int64](msg.Get(message.HeaderMaxDeliveries))
	return ok && redelivery >= maxDeliveries
}

// routeOnExpiry reports whether an expired/exhausted message should be
// routed to the dead-letter queue (true) or deleted outright (false).
func routeOnExpiry(msg *message.Message) bool {
	delivery, _ := message.As[string](msg.Get(message.HeaderDelivery))
	return delivery == message.Repeated.String() || delivery == message.Once.String()
}
