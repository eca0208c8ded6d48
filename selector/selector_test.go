package selector_test

import (
	"testing"

	"github.com/relmq/relmq/message"
	"github.com/relmq/relmq/selector"
)

func headers(priority int64) map[string]message.Value {
	return map[string]message.Value{
		message.HeaderPriority: message.IntValue(priority),
	}
}

func TestEqualsMatch(t *testing.T) {
	sel := selector.Equals{Headers: map[string]message.Value{
		message.HeaderPriority: message.IntValue(3),
	}}
	if !sel.Match("a", headers(3)) {
		t.Fatal("expected match")
	}
	if sel.Match("a", headers(1)) {
		t.Fatal("expected no match")
	}
}

func TestIDMatch(t *testing.T) {
	sel := selector.ID{Value: "a"}
	if !sel.Match("a", headers(0)) {
		t.Fatal("expected match on id")
	}
	if sel.Match("b", headers(0)) {
		t.Fatal("expected no match on different id")
	}
}

func TestAnyMatch(t *testing.T) {
	if !(selector.Any{}).Match("a", nil) {
		t.Fatal("expected Any to match everything")
	}
}
