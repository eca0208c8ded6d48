package manager

import (
	"time"

	"github.com/relmq/relmq/message"
)

// DefaultMaxDeliveries is applied when PutOptions.MaxDeliveries is left
// at its zero value.
const DefaultMaxDeliveries = 5

// PutOptions carries the reserved-header fields a caller may influence
// when enqueuing a message. Any caller-supplied header sharing a name
// with one of message's reserved headers is rejected with
// relmq.ErrInvalidArgument; these fields are the only supported way to
// set them.
type PutOptions struct {
	// Delivery selects the redelivery/DLQ-routing mode. The zero value
	// is message.BestEffort.
	Delivery message.Delivery

	// MaxDeliveries bounds redelivery attempts before a repeated or
	// once message routes to the dead-letter queue. Zero selects
	// DefaultMaxDeliveries; a negative value is invalid.
	MaxDeliveries int

	// Priority orders delivery; higher values are dequeued first.
	// Negative values are invalid.
	Priority int64

	// ExpiresIn, if positive, is translated to an absolute expires_at
	// header at acceptance time.
	ExpiresIn time.Duration
}

// PublishOptions carries the reserved-header fields meaningful to a
// topic publish. Delivery, MaxDeliveries and Priority do not apply to
// topics and are not part of this type.
type PublishOptions struct {
	// ExpiresIn, if positive, is translated to an absolute expires_at
	// header at acceptance time.
	ExpiresIn time.Duration
}
