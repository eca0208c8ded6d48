package diskstore_test

import (
	"context"
	"testing"

	"github.com/relmq/relmq/diskstore"
	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/selector"
	"github.com/relmq/relmq/store"
)

func newTestStore(t *testing.T) *diskstore.Store {
	t.Helper()
	dir := t.TempDir()
	s := diskstore.New(dir, false)
	ctx := context.Background()
	if err := s.Setup(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Deactivate(ctx) })
	return s
}

func TestInsertAndGetHeaders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := message.NewMessage()
	message.Set(msg, message.HeaderPriority, int64(3))

	err := s.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, store.Insert{Queue: "orders", Message: *msg})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	headers, err := s.GetHeaders(ctx, "orders")
	if err != nil {
		t.Fatal(err)
	}
	if len(headers) != 1 || headers[0].Id != msg.Id {
		t.Fatalf("expected 1 header for %s, got %+v", msg.Id, headers)
	}
}

func TestPriorityOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	put := func(priority int64) *message.Message {
		m := message.NewMessage()
		message.Set(m, message.HeaderPriority, priority)
		err := s.Transaction(ctx, func(b *store.Batch) error {
			b.Inserts = append(b.Inserts, store.Insert{Queue: "q", Message: *m})
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		return m
	}

	a := put(1)
	bm := put(3)
	c := put(2)

	headers, err := s.GetHeaders(ctx, "q")
	if err != nil {
		t.Fatal(err)
	}
	got := []string{headers[0].Id, headers[1].Id, headers[2].Id}
	want := []string{bm.Id, c.Id, a.Id}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected priority order %v, got %v", want, got)
		}
	}
}

func TestGetMessageAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := message.NewMessage()
	msg.Body = []byte("payload")
	err := s.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, store.Insert{Queue: "q", Message: *msg})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetMessage(ctx, "q", selector.Any{})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || string(got.Body) != "payload" {
		t.Fatalf("expected payload body, got %+v", got)
	}

	err = s.Transaction(ctx, func(b *store.Batch) error {
		b.Deletes = append(b.Deletes, store.Delete{Queue: "q", ID: msg.Id})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err = s.GetMessage(ctx, "q", selector.Any{})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("expected nil after delete, got %+v", got)
	}
}

func TestMoveToDLQ(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := message.NewMessage()
	err := s.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, store.Insert{Queue: "q", Message: *msg})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = s.Transaction(ctx, func(b *store.Batch) error {
		b.DLQs = append(b.DLQs, store.Move{FromQueue: "q", ID: msg.Id})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetMessage(ctx, "q", selector.Any{})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expected message gone from origin queue")
	}

	got, err = s.GetMessage(ctx, store.DLQ, selector.Any{})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Id != msg.Id {
		t.Fatalf("expected message in DLQ, got %+v", got)
	}
}

func TestTopicPublishRetrieve(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m1 := message.NewMessage()
	m1.Body = []byte("one")
	err := s.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, store.Insert{Topic: "t", Message: *m1})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetLast(ctx, "t", "", selector.Any{})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Id != m1.Id {
		t.Fatalf("expected m1, got %+v", got)
	}

	got, err = s.GetLast(ctx, "t", m1.Id, selector.Any{})
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("expected nil when seen matches current id")
	}

	m2 := message.NewMessage()
	m2.Body = []byte("two")
	err = s.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, store.Insert{Topic: "t", Message: *m2})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err = s.GetLast(ctx, "t", m1.Id, selector.Any{})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Id != m2.Id {
		t.Fatalf("expected m2 after replace, got %+v", got)
	}
}

// TestRecoverAfterReactivate exercises the durable-image reload path:
// a fresh Store over the same directory must observe everything a prior
// instance committed.
func TestRecoverAfterReactivate(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1 := diskstore.New(dir, true)
	if err := s1.Setup(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s1.Activate(ctx); err != nil {
		t.Fatal(err)
	}

	msg := message.NewMessage()
	msg.Body = []byte("durable")
	if err := s1.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, store.Insert{Queue: "q", Message: *msg})
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := s1.Deactivate(ctx); err != nil {
		t.Fatal(err)
	}

	s2 := diskstore.New(dir, true)
	if err := s2.Setup(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s2.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	defer s2.Deactivate(ctx)

	got, err := s2.GetMessage(ctx, "q", selector.Any{})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Id != msg.Id || string(got.Body) != "durable" {
		t.Fatalf("expected recovered message, got %+v", got)
	}
}

// TestFailedTransactionDiscardsStagedWrites checks that a batch
// function's own error leaves the store exactly as it was.
func TestFailedTransactionDiscardsStagedWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	msg := message.NewMessage()
	if err := s.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, store.Insert{Queue: "q", Message: *msg})
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	sentinel := context.Canceled
	err := s.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, store.Insert{Queue: "q", Message: *message.NewMessage()})
		return sentinel
	})
	if err != sentinel {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	headers, err := s.GetHeaders(ctx, "q")
	if err != nil {
		t.Fatal(err)
	}
	if len(headers) != 1 {
		t.Fatalf("expected unchanged queue with 1 message, got %d", len(headers))
	}
}

// TestFileReuseAcrossDeleteAndInsert exercises the free-file pool: a
// deleted message's file should be handed back to a subsequent insert.
func TestFileReuseAcrossDeleteAndInsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m1 := message.NewMessage()
	m1.Body = []byte("first")
	if err := s.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, store.Insert{Queue: "q", Message: *m1})
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Transaction(ctx, func(b *store.Batch) error {
		b.Deletes = append(b.Deletes, store.Delete{Queue: "q", ID: m1.Id})
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	m2 := message.NewMessage()
	m2.Body = []byte("second")
	if err := s.Transaction(ctx, func(b *store.Batch) error {
		b.Inserts = append(b.Inserts, store.Insert{Queue: "q", Message: *m2})
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetMessage(ctx, "q", selector.Any{})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || string(got.Body) != "second" {
		t.Fatalf("expected second message's body, got %+v", got)
	}
}
