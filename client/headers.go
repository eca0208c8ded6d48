package client

import (
	"time"

	"github.com/relmq/relmq/message"
)

// Headers is read-only access to a message's header set, passed to a
// Predicate. It wraps the same map a selector.Equals would be built
// from, plus a Now primitive, per spec.md §4.1's client-side predicate
// contract.
type Headers struct {
	id     string
	values map[string]message.Value
	now    int64
}

func newHeaders(id string, values map[string]message.Value) Headers {
	return Headers{id: id, values: values, now: time.Now().Unix()}
}

// ID returns the message's id.
func (h Headers) ID() string { return h.id }

// Get returns the named header's value, or the zero (Null) Value if
// absent.
func (h Headers) Get(name string) message.Value { return h.values[name] }

// Has reports whether name is present.
func (h Headers) Has(name string) bool {
	_, ok := h.values[name]
	return ok
}

// Now returns the current epoch-seconds time, fixed at the moment the
// Headers value was constructed so a Predicate stays stateless and
// side-effect-free across repeated evaluation.
func (h Headers) Now() int64 { return h.now }

// Predicate is a client-side selector evaluated over a queue's header
// snapshot. It must be stateless and side-effect-free; the manager makes
// no correctness guarantee otherwise, since Predicate never reaches it —
// only the resulting selector.ID does.
type Predicate func(Headers) bool
