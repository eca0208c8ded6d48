package sqlstore

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
)

func createQueueTable(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*queueModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func createTopicTable(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateTable().
		Model((*topicModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func createQueueOrderIndex(ctx context.Context, db bun.IDB) error {
	_, err := db.NewCreateIndex().
		Model((*queueModel)(nil)).
		Index("idx_relmq_queues_order").
		Column("queue", "priority", "seq").
		IfNotExists().
		Exec(ctx)
	return err
}

func initDB(ctx context.Context, db *bun.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := createQueueTable(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createTopicTable(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := createQueueOrderIndex(ctx, tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

// InitDB initializes the database schema required by the SQL backend.
//
// It creates the relmq_queues and relmq_topics tables and the ordering
// index inside a single transaction. If any step fails, the transaction
// is rolled back.
//
// InitDB is idempotent and may be safely called multiple times. It does
// not drop or modify existing tables beyond creating missing objects.
func InitDB(ctx context.Context, db *bun.DB) error {
	return initDB(ctx, db)
}

// MustInitDB behaves like InitDB but panics if initialization fails.
//
// This helper is intended for application bootstrap code where failure
// to initialize schema is considered unrecoverable.
func MustInitDB(ctx context.Context, db *bun.DB) {
	if err := initDB(ctx, db); err != nil {
		panic(err)
	}
}
