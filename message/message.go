package message

import (
	"github.com/google/uuid"
)

// Reserved header names. These are filled in or maintained by the queue
// manager itself; callers may read them but must not set them directly
// (an attempt to do so in Put/Publish headers is rejected as invalid).
const (
	HeaderID            = "id"
	HeaderCreated       = "created"
	HeaderDelivery      = "delivery"
	HeaderMaxDeliveries = "max_deliveries"
	HeaderPriority      = "priority"
	HeaderExpiresAt     = "expires_at"
	HeaderRedelivery    = "redelivery"
)

// Message represents a transport-level record managed by the broker.
//
// It contains the user-facing fields (Headers, Body) plus the globally
// unique Id assigned on acceptance. Message does not track locking or
// scheduling state; those are the manager's concern.
//
// Id is generated automatically by NewMessage, but may also be assigned
// explicitly before a message is staged for Put/Publish.
//
// Headers is optional and lazily initialized. It may be nil if no header
// has been set.
//
// Body contains arbitrary binary data and may be nil.
type Message struct {
	Id      string
	Headers map[string]Value
	Body    []byte
}

// NewMessage creates a new Message with a randomly generated id.
//
// The returned Message has no headers and no body.
// Headers will be allocated lazily when Set is called.
func NewMessage() *Message {
	return &Message{
		Id: uuid.New().String(),
	}
}

// Get returns the header value associated with the given name.
//
// If the header does not exist or Headers is nil, Get returns the zero
// Value (Kind Null).
func (m *Message) Get(name string) Value {
	return m.Headers[name]
}

// Set stores the given header name/value pair.
//
// If Headers is nil, it is initialized automatically.
func (m *Message) Set(name string, value Value) {
	if m.Headers == nil {
		m.Headers = make(map[string]Value)
	}
	m.Headers[name] = value
}

// Clone returns a shallow copy of m with an independently-mutable Headers
// map. Values themselves are immutable scalars, so a shallow copy of the
// map is sufficient to isolate callers from subsequent manager-side
// mutation (for example, the redelivery counter bumped on abort).
func (m *Message) Clone() *Message {
	headers := make(map[string]Value, len(m.Headers))
	for k, v := range m.Headers {
		headers[k] = v
	}
	return &Message{
		Id:      m.Id,
		Headers: headers,
		Body:    m.Body,
	}
}

// Get retrieves a header value associated with the given name and
// attempts to unwrap it as type T.
//
// If the header does not exist or the stored Value is not of type T,
// Get returns the zero value of T and false.
func Get[T any](m *Message, name string) (T, bool) {
	v, ok := m.Headers[name]
	if !ok {
		var t T
		return t, false
	}
	return As[T](v)
}

// Set stores the given header name/value pair using a type-safe generic
// helper. If Headers is nil, it is initialized automatically.
func Set[T any](m *Message, name string, value T) {
	m.Set(name, Of(value))
}
