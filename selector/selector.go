package selector

import "github.com/relmq/relmq/message"

// Selector decides whether a given message matches, by id and by its
// user-set headers. The id is passed separately from headers because a
// message's id (message.Message.Id) is never itself an entry of its own
// Headers map.
//
// Implementations must be stateless and side-effect-free; Match may be
// called concurrently and repeatedly while the manager walks a queue.
type Selector interface {
	Match(id string, headers map[string]message.Value) bool
}

// Any matches every message. It is the default selector for operations
// that accept the first available message.
type Any struct{}

// Match always returns true.
func (Any) Match(string, map[string]message.Value) bool { return true }

// Equals matches when every header listed in Headers is present and
// equal to the given value. Headers not listed are ignored.
type Equals struct {
	Headers map[string]message.Value
}

// Match reports whether every required header equals its recorded value.
func (e Equals) Match(_ string, headers map[string]message.Value) bool {
	for name, want := range e.Headers {
		got, ok := headers[name]
		if !ok || !got.Equal(want) {
			return false
		}
	}
	return true
}

// ID matches only the message carrying the given id. It is the form a
// client resubmits after evaluating a predicate locally over a listed
// header snapshot (see the client package).
type ID struct {
	Value string
}

// Match reports whether id equals the selector's Value.
func (i ID) Match(id string, _ map[string]message.Value) bool {
	return id == i.Value
}
