package message_test

import (
	"testing"

	"github.com/relmq/relmq/message"
)

func TestValueRoundTrip(t *testing.T) {
	m := message.NewMessage()
	message.Set(m, "priority", 3)
	message.Set(m, "name", "orders")
	message.Set(m, "urgent", true)

	if v, ok := message.Get[int](m, "priority"); !ok || v != 3 {
		t.Fatalf("expected priority=3, got %v ok=%v", v, ok)
	}
	if v, ok := message.Get[string](m, "name"); !ok || v != "orders" {
		t.Fatalf("expected name=orders, got %v ok=%v", v, ok)
	}
	if v, ok := message.Get[bool](m, "urgent"); !ok || !v {
		t.Fatalf("expected urgent=true, got %v ok=%v", v, ok)
	}
	if _, ok := message.Get[string](m, "missing"); ok {
		t.Fatal("expected ok=false for missing header")
	}
}

func TestValueEqual(t *testing.T) {
	a := message.IntValue(5)
	b := message.IntValue(5)
	c := message.StringValue("5")
	if !a.Equal(b) {
		t.Fatal("expected equal ints")
	}
	if a.Equal(c) {
		t.Fatal("expected different kinds to differ")
	}
}

func TestDeliveryTextRoundTrip(t *testing.T) {
	for _, d := range []message.Delivery{message.BestEffort, message.Repeated, message.Once} {
		text, err := d.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var parsed message.Delivery
		if err := parsed.UnmarshalText(text); err != nil {
			t.Fatal(err)
		}
		if parsed != d {
			t.Fatalf("round trip mismatch: %v != %v", parsed, d)
		}
	}
}

func TestMessageClone(t *testing.T) {
	m := message.NewMessage()
	message.Set(m, "a", 1)
	clone := m.Clone()
	clone.Set("a", message.IntValue(2))
	if v, _ := message.Get[int](m, "a"); v != 1 {
		t.Fatal("original message mutated by clone")
	}
}
