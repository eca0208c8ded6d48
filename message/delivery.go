package message

import "fmt"

// Delivery selects the redelivery policy applied to a queue message when
// it is found expired or exhausted, or when its consuming transaction
// aborts.
//
// The zero value is BestEffort, which is also Put's default when
// manager.PutOptions.Delivery is left unset.
type Delivery uint8

const (
	// BestEffort silently drops an expired or exhausted message instead
	// of routing it to the dead-letter queue.
	BestEffort Delivery = iota

	// Repeated routes an expired or exhausted message to the dead-letter
	// queue and allows ordinary abort-driven redelivery in the interim.
	Repeated

	// Once additionally guarantees that a successful dequeue is never
	// redelivered to the origin queue: on consume it is moved to the
	// dead-letter queue ahead of commit, and deleted from the
	// dead-letter queue only once the transaction actually commits.
	Once
)

func deliveryToString(d Delivery) string {
	switch d {
	case Repeated:
		return "repeated"
	case Once:
		return "once"
	default:
		return "best_effort"
	}
}

func deliveryFromString(s string) (Delivery, error) {
	switch s {
	case "best_effort":
		return BestEffort, nil
	case "repeated":
		return Repeated, nil
	case "once":
		return Once, nil
	default:
		return 0, fmt.Errorf("message: unknown delivery mode: %s", s)
	}
}

// ParseDelivery converts a string representation of a delivery mode into
// a Delivery value.
//
// Recognized values are "best_effort", "repeated", and "once". An error
// is returned for any other string.
func ParseDelivery(s string) (Delivery, error) {
	return deliveryFromString(s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Delivery) MarshalText() ([]byte, error) {
	return []byte(deliveryToString(d)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Delivery) UnmarshalText(text []byte) error {
	parsed, err := deliveryFromString(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// String returns the canonical string representation of d.
func (d Delivery) String() string {
	return deliveryToString(d)
}
