package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/relmq/relmq/internal"
	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/selector"
)

// Handler processes a message dequeued by a Consumer. Returning nil
// commits the implicit transaction the message was dequeued under;
// returning a non-nil error aborts it, leaving the message eligible for
// the queue's ordinary redelivery/expiration handling. Handlers must be
// safe to call concurrently up to ConsumerConfig.Concurrency times.
type Handler func(ctx context.Context, msg *message.Message) error

// ConsumerConfig configures a Consumer's polling and dispatch behavior.
type ConsumerConfig struct {
	// Concurrency is the number of Handler invocations that may run at
	// once.
	Concurrency int

	// Queue is the internal buffering capacity between dequeuing and
	// dispatching to a Handler.
	Queue int

	// Selector restricts which messages are dequeued. Defaults to
	// selector.Any{}.
	Selector selector.Selector

	// TxTimeout bounds the transaction opened around each dequeue.
	TxTimeout time.Duration

	// Backoff paces polling after an empty or failed dequeue.
	Backoff BackoffConfig
}

type dispatched struct {
	msg *message.Message
	tx  *Tx
}

// Consumer is an optional convenience loop: it periodically dequeues
// from a queue, dispatches matches to a Handler through a bounded worker
// pool, and commits or aborts the implicit transaction depending on the
// handler's outcome. It is additive; nothing in the manager's persisted
// contract depends on it.
type Consumer struct {
	lc internal.LifecycleBase

	conn    *Conn
	queue   string
	handler Handler
	sel     selector.Selector
	timeout time.Duration
	backoff backoffCounter
	log     *slog.Logger

	pool   *internal.WorkerPool[*dispatched]
	cancel context.CancelFunc
	done   internal.DoneChan
}

// NewConsumer creates a Consumer bound to conn and queue. It is not
// started automatically; call Start.
func NewConsumer(conn *Conn, queue string, handler Handler, cfg ConsumerConfig, log *slog.Logger) *Consumer {
	sel := cfg.Selector
	if sel == nil {
		sel = selector.Any{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Consumer{
		conn:    conn,
		queue:   queue,
		handler: handler,
		sel:     sel,
		timeout: cfg.TxTimeout,
		backoff: backoffCounter{cfg.Backoff},
		log:     log,
		pool:    internal.NewWorkerPool[*dispatched](cfg.Concurrency, cfg.Queue, log),
	}
}

// Start begins background polling and dispatch. Start returns
// internal.ErrDoubleStarted if the consumer has already been started.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.lc.TryStart(); err != nil {
		return err
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(internal.DoneChan)
	c.pool.Start(ctx, c.dispatch)
	go c.loop(ctx)
	return nil
}

// Stop gracefully shuts down polling and waits for in-flight handlers to
// finish or the timeout to expire. Stop returns internal.ErrDoubleStopped
// if the consumer is not running.
func (c *Consumer) Stop(timeout time.Duration) error {
	return c.lc.TryStop(timeout, c.doStop)
}

func (c *Consumer) doStop() internal.DoneChan {
	c.cancel()
	return internal.Combine(c.done, c.pool.Stop())
}

func (c *Consumer) loop(ctx context.Context) {
	defer close(c.done)

	var streak uint32
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		msg, tx, ok := c.poll(ctx)
		if !ok {
			timer.Reset(c.backoff.next(streak))
			streak++
			continue
		}
		streak = 0
		timer.Reset(0)

		if !c.pool.Push(&dispatched{msg: msg, tx: tx}) {
			_ = tx.Abort(ctx)
			return
		}
	}
}

// poll opens a transaction and attempts one dequeue. ok is false if
// either step failed or no message was available, in which case any
// opened transaction has already been aborted.
func (c *Consumer) poll(ctx context.Context) (*message.Message, *Tx, bool) {
	tx, err := c.conn.Begin(ctx, c.timeout)
	if err != nil {
		c.log.Error("consumer begin failed", "queue", c.queue, "err", err)
		return nil, nil, false
	}
	msg, err := c.conn.Queue(c.queue).Dequeue(ctx, c.sel, tx)
	if err != nil {
		c.log.Error("consumer dequeue failed", "queue", c.queue, "err", err)
		_ = tx.Abort(ctx)
		return nil, nil, false
	}
	if msg == nil {
		_ = tx.Abort(ctx)
		return nil, nil, false
	}
	return msg, tx, true
}

func (c *Consumer) dispatch(ctx context.Context, d *dispatched) {
	if err := c.handler(ctx, d.msg); err != nil {
		c.log.Warn("handler failed, aborting", "id", d.msg.Id, "err", err)
		if err := d.tx.Abort(ctx); err != nil {
			c.log.Error("consumer abort failed", "id", d.msg.Id, "err", err)
		}
		return
	}
	if err := d.tx.Commit(ctx); err != nil {
		c.log.Error("consumer commit failed", "id", d.msg.Id, "err", err)
	}
}
