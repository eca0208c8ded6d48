package rpc

import (
	"time"

	"github.com/relmq/relmq/manager"
	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/selector"
)

// SelectorKind discriminates the wire-safe subset of selector.Selector.
// The general client-side predicate form never reaches this type; the
// client evaluates it locally and resubmits SelectorID.
type SelectorKind uint8

const (
	SelectorAny SelectorKind = iota
	SelectorEquals
	SelectorID
)

// SelectorSpec is the wire encoding of a selector.Selector.
type SelectorSpec struct {
	Kind    SelectorKind
	Headers map[string]message.Value
	ID      string
}

// EncodeSelector captures the wire-safe subset of sel. Any selector not
// recognized (including a client-side Predicate, which never implements
// selector.Selector in the first place) encodes as SelectorAny.
func EncodeSelector(sel selector.Selector) SelectorSpec {
	switch s := sel.(type) {
	case selector.Equals:
		return SelectorSpec{Kind: SelectorEquals, Headers: s.Headers}
	case selector.ID:
		return SelectorSpec{Kind: SelectorID, ID: s.Value}
	default:
		return SelectorSpec{Kind: SelectorAny}
	}
}

// Decode reconstructs the selector.Selector s encodes.
func (s SelectorSpec) Decode() selector.Selector {
	switch s.Kind {
	case SelectorEquals:
		return selector.Equals{Headers: s.Headers}
	case SelectorID:
		return selector.ID{Value: s.ID}
	default:
		return selector.Any{}
	}
}

type PutArgs struct {
	Queue   string
	Body    []byte
	Headers map[string]message.Value
	Opts    manager.PutOptions
	Tid     string
}

type PutReply struct {
	ID string
}

type PublishArgs struct {
	Topic   string
	Body    []byte
	Headers map[string]message.Value
	Opts    manager.PublishOptions
}

type PublishReply struct{}

type ListArgs struct {
	Queue string
}

type ListReply struct {
	Messages []message.Message
}

type DequeueArgs struct {
	Queue string
	Sel   SelectorSpec
	Tid   string
}

type DequeueReply struct {
	Message *message.Message
}

type RetrieveArgs struct {
	Topic string
	Seen  string
	Sel   SelectorSpec
}

type RetrieveReply struct {
	Message *message.Message
}

type BeginArgs struct {
	Timeout time.Duration
}

type BeginReply struct {
	Tid string
}

type TxArgs struct {
	Tid string
}

type TxReply struct{}

type EmptyArgs struct {
	Queue string
}

type EmptyReply struct {
	Count int64
}

type StatsArgs struct {
	Queues []string
}

type StatsReply struct {
	Stats manager.Stats
}
