package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/selector"
	"github.com/relmq/relmq/store"
)

// Store implements store.MessageStore using a relational database via
// bun. It is compatible with SQLite, MySQL and PostgreSQL, subject to
// their transactional guarantees.
type Store struct {
	db *bun.DB
}

// New creates a new SQL-backed Store. The provided *bun.DB must be
// properly configured; the caller owns its lifecycle (connection limits,
// closing, etc.) — this package only reads and writes through it.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// Setup idempotently creates the relmq_queues/relmq_topics schema.
func (s *Store) Setup(ctx context.Context) error {
	return InitDB(ctx, s.db)
}

// Activate verifies connectivity. Unlike the disk backend, the SQL
// backend holds no exclusive directory lock — the database itself
// arbitrates concurrent writers.
func (s *Store) Activate(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Deactivate is a no-op: this package does not own the *bun.DB's
// lifecycle (connection pooling, closing). The caller is responsible for
// that, matching the teacher store's original division of
// responsibility.
func (s *Store) Deactivate(context.Context) error {
	return nil
}

// Transaction applies a caller-staged Batch atomically inside a single
// database transaction. The database itself is always the source of
// truth, so unlike the disk backend there is no separate cache to
// reload on failure: a rollback alone restores consistency.
func (s *Store) Transaction(ctx context.Context, fn func(batch *store.Batch) error) error {
	batch := &store.Batch{}
	if err := fn(batch); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := applyBatch(ctx, tx, batch); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

func applyBatch(ctx context.Context, tx bun.Tx, batch *store.Batch) error {
	// Deletes run before inserts so that a batch deleting and re-inserting
	// the same id (the manager's redelivery bump) does not collide on the
	// primary key.
	for _, del := range batch.Deletes {
		if _, err := tx.NewDelete().
			Model((*queueModel)(nil)).
			Where("id = ?", del.ID).
			Where("queue = ?", del.Queue).
			Exec(ctx); err != nil {
			return err
		}
	}
	for _, ins := range batch.Inserts {
		if ins.Queue != "" {
			if err := insertQueueMessage(ctx, tx, ins.Queue, ins.Message); err != nil {
				return err
			}
			continue
		}
		if err := upsertTopic(ctx, tx, ins.Topic, ins.Message); err != nil {
			return err
		}
	}
	for _, mv := range batch.DLQs {
		if err := moveToDLQ(ctx, tx, mv.FromQueue, mv.ID); err != nil {
			return err
		}
	}
	for _, td := range batch.TopicDeletes {
		if _, err := tx.NewDelete().
			Model((*topicModel)(nil)).
			Where("topic = ?", td.Topic).
			Where("id = ?", td.ID).
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func nextSeq(ctx context.Context, tx bun.Tx, queue string) (int64, error) {
	var maxSeq sql.NullInt64
	if err := tx.NewSelect().
		Model((*queueModel)(nil)).
		ColumnExpr("MAX(seq)").
		Where("queue = ?", queue).
		Scan(ctx, &maxSeq); err != nil {
		return 0, err
	}
	return maxSeq.Int64 + 1, nil
}

func insertQueueMessage(ctx context.Context, tx bun.Tx, queue string, msg message.Message) error {
	seq, err := nextSeq(ctx, tx, queue)
	if err != nil {
		return err
	}
	model, err := fromInsert(queue, msg, seq)
	if err != nil {
		return err
	}
	_, err = tx.NewInsert().Model(model).Exec(ctx)
	return err
}

func upsertTopic(ctx context.Context, tx bun.Tx, topic string, msg message.Message) error {
	model, err := fromTopicInsert(topic, msg)
	if err != nil {
		return err
	}
	if _, err := tx.NewDelete().Model((*topicModel)(nil)).Where("topic = ?", topic).Exec(ctx); err != nil {
		return err
	}
	_, err = tx.NewInsert().Model(model).Exec(ctx)
	return err
}

func moveToDLQ(ctx context.Context, tx bun.Tx, fromQueue string, id string) error {
	var row queueModel
	err := tx.NewSelect().
		Model(&row).
		Where("id = ?", id).
		Where("queue = ?", fromQueue).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := tx.NewDelete().
		Model((*queueModel)(nil)).
		Where("id = ?", id).
		Where("queue = ?", fromQueue).
		Exec(ctx); err != nil {
		return err
	}
	seq, err := nextSeq(ctx, tx, store.DLQ)
	if err != nil {
		return err
	}
	row.Queue = store.DLQ
	row.Seq = seq
	_, err = tx.NewInsert().Model(&row).Exec(ctx)
	return err
}

// GetHeaders returns queue's current header list, priority-descending
// with insertion-order tiebreak. Bodies are not materialized.
func (s *Store) GetHeaders(ctx context.Context, queue string) ([]message.Message, error) {
	var rows []queueModel
	if err := s.db.NewSelect().
		Model(&rows).
		Where("queue = ?", queue).
		Order("priority DESC", "seq ASC").
		Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]message.Message, 0, len(rows))
	for i := range rows {
		headers, err := decodeHeaders(rows[i].Headers)
		if err != nil {
			return nil, err
		}
		out = append(out, message.Message{Id: rows[i].ID, Headers: headers})
	}
	return out, nil
}

// GetMessage returns the first header in queue satisfying sel, with its
// body materialized, or nil if none matches.
func (s *Store) GetMessage(ctx context.Context, queue string, sel selector.Selector) (*message.Message, error) {
	var rows []queueModel
	if err := s.db.NewSelect().
		Model(&rows).
		Where("queue = ?", queue).
		Order("priority DESC", "seq ASC").
		Scan(ctx); err != nil {
		return nil, err
	}
	for i := range rows {
		headers, err := decodeHeaders(rows[i].Headers)
		if err != nil {
			return nil, err
		}
		if !sel.Match(rows[i].ID, headers) {
			continue
		}
		return &message.Message{Id: rows[i].ID, Headers: headers, Body: rows[i].Body}, nil
	}
	return nil, nil
}

// GetLast returns topic's current message, with its body materialized,
// iff its id differs from seen and it satisfies sel.
func (s *Store) GetLast(ctx context.Context, topic string, seen string, sel selector.Selector) (*message.Message, error) {
	var row topicModel
	err := s.db.NewSelect().Model(&row).Where("topic = ?", topic).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if row.ID == seen {
		return nil, nil
	}
	msg, err := row.toMessage()
	if err != nil {
		return nil, err
	}
	if !sel.Match(row.ID, msg.Headers) {
		return nil, nil
	}
	return msg, nil
}
