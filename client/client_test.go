package client_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/relmq/relmq/client"
	"github.com/relmq/relmq/manager"
	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/sqlstore"

	_ "modernc.org/sqlite"
)

func newTestConn(t *testing.T) *client.Conn {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", "file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	backend := sqlstore.New(db)
	ctx := context.Background()
	if err := backend.Setup(ctx); err != nil {
		t.Fatal(err)
	}

	m := manager.New(backend, nil)
	if err := m.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { m.Stop(context.Background(), time.Second) })
	return client.Dial(m)
}

func TestQueuePutAndDequeue(t *testing.T) {
	conn := newTestConn(t)
	ctx := context.Background()
	q := conn.Queue("orders")

	id, err := q.Put(ctx, []byte("payload"), nil, manager.PutOptions{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	msg, err := q.Dequeue(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg == nil || msg.Id != id {
		t.Fatalf("expected to dequeue %s, got %+v", id, msg)
	}
	if string(msg.Body) != "payload" {
		t.Fatalf("unexpected body: %s", msg.Body)
	}
}

func TestQueueDequeueNilSelectorMatchesAnything(t *testing.T) {
	conn := newTestConn(t)
	ctx := context.Background()
	q := conn.Queue("q")

	if _, err := q.Put(ctx, []byte("A"), nil, manager.PutOptions{}, nil); err != nil {
		t.Fatal(err)
	}
	msg, err := q.Dequeue(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg == nil {
		t.Fatal("expected a message")
	}
}

func TestQueueFindEvaluatesPredicateLocally(t *testing.T) {
	conn := newTestConn(t)
	ctx := context.Background()
	q := conn.Queue("q")

	putWithColor := func(body, color string) string {
		id, err := q.Put(ctx, []byte(body), map[string]message.Value{
			"color": message.StringValue(color),
		}, manager.PutOptions{}, nil)
		if err != nil {
			t.Fatal(err)
		}
		return id
	}
	putWithColor("A", "red")
	wantID := putWithColor("B", "blue")
	putWithColor("C", "red")

	msg, err := q.Find(ctx, func(h client.Headers) bool {
		return h.Get("color").StringVal() == "blue"
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg == nil || msg.Id != wantID {
		t.Fatalf("expected to find %s, got %+v", wantID, msg)
	}
}

func TestQueueFindNoMatchReturnsNil(t *testing.T) {
	conn := newTestConn(t)
	ctx := context.Background()
	q := conn.Queue("q")

	if _, err := q.Put(ctx, []byte("A"), nil, manager.PutOptions{}, nil); err != nil {
		t.Fatal(err)
	}
	msg, err := q.Find(ctx, func(client.Headers) bool { return false }, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg != nil {
		t.Fatalf("expected no match, got %+v", msg)
	}
}

func TestTxCommitAppliesPutAndDequeueAtomically(t *testing.T) {
	conn := newTestConn(t)
	ctx := context.Background()
	q := conn.Queue("q")

	tx, err := conn.Begin(ctx, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.Put(ctx, []byte("A"), nil, manager.PutOptions{}, tx); err != nil {
		t.Fatal(err)
	}

	// Not yet visible to an untransacted dequeue.
	msg, err := q.Dequeue(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg != nil {
		t.Fatalf("expected no message before commit, got %+v", msg)
	}

	if err := tx.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	msg, err = q.Dequeue(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg == nil {
		t.Fatal("expected message visible after commit")
	}
}

func TestTxAbortDiscardsStagedPut(t *testing.T) {
	conn := newTestConn(t)
	ctx := context.Background()
	q := conn.Queue("q")

	tx, err := conn.Begin(ctx, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.Put(ctx, []byte("A"), nil, manager.PutOptions{}, tx); err != nil {
		t.Fatal(err)
	}
	if err := tx.Abort(ctx); err != nil {
		t.Fatal(err)
	}

	msg, err := q.Dequeue(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg != nil {
		t.Fatalf("expected no message after abort, got %+v", msg)
	}
}

func TestTopicPublishAndRetrieve(t *testing.T) {
	conn := newTestConn(t)
	ctx := context.Background()
	topic := conn.Topic("prices")

	if err := topic.Publish(ctx, []byte("100"), nil, manager.PublishOptions{}); err != nil {
		t.Fatal(err)
	}
	msg, err := topic.Retrieve(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if msg == nil || string(msg.Body) != "100" {
		t.Fatalf("unexpected retrieve result: %+v", msg)
	}

	// The topic is unchanged, so passing its current id as seen yields nil.
	again, err := topic.Retrieve(ctx, msg.Id)
	if err != nil {
		t.Fatal(err)
	}
	if again != nil {
		t.Fatalf("expected nil for already-seen id, got %+v", again)
	}
}

func TestConsumerCommitsOnSuccess(t *testing.T) {
	conn := newTestConn(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := conn.Queue("q")

	id, err := q.Put(ctx, []byte("A"), nil, manager.PutOptions{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got string
	done := make(chan struct{})

	handler := func(_ context.Context, msg *message.Message) error {
		mu.Lock()
		got = msg.Id
		mu.Unlock()
		close(done)
		return nil
	}

	c := client.NewConsumer(conn, "q", handler, client.ConsumerConfig{
		Concurrency: 1,
		Queue:       1,
		TxTimeout:   time.Minute,
		Backoff: client.BackoffConfig{
			InitialInterval: time.Millisecond,
			MaxInterval:     10 * time.Millisecond,
			Multiplier:      2,
		},
	}, nil)
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer c.Stop(time.Second)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	if got != id {
		t.Fatalf("expected handler to see %s, got %s", id, got)
	}

	// Committed: a direct dequeue afterward finds nothing left.
	msg, err := q.Dequeue(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg != nil {
		t.Fatalf("expected queue empty after commit, got %+v", msg)
	}
}

func TestConsumerAbortsOnHandlerError(t *testing.T) {
	conn := newTestConn(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := conn.Queue("q")

	if _, err := q.Put(ctx, []byte("A"), nil, manager.PutOptions{}, nil); err != nil {
		t.Fatal(err)
	}

	var attempts int32
	seen := make(chan struct{}, 1)
	handler := func(_ context.Context, msg *message.Message) error {
		select {
		case seen <- struct{}{}:
		default:
		}
		attempts++
		return errors.New("boom")
	}

	c := client.NewConsumer(conn, "q", handler, client.ConsumerConfig{
		Concurrency: 1,
		Queue:       1,
		TxTimeout:   time.Minute,
		Backoff: client.BackoffConfig{
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			Multiplier:      2,
		},
	}, nil)
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}

	select {
	case <-seen:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was never invoked")
	}
	c.Stop(time.Second)

	// Aborted: the message must still be present (locked, then released).
	msg, err := q.Dequeue(ctx, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg == nil {
		t.Fatal("expected message to survive an aborted handler")
	}
}

func TestConsumerDoubleStartFails(t *testing.T) {
	conn := newTestConn(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := client.NewConsumer(conn, "q", func(context.Context, *message.Message) error { return nil }, client.ConsumerConfig{
		Concurrency: 1,
		Queue:       1,
		TxTimeout:   time.Minute,
		Backoff:     client.BackoffConfig{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	}, nil)
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer c.Stop(time.Second)

	if err := c.Start(ctx); err == nil {
		t.Fatal("expected double start to fail")
	}
}
