package rpc_test

import (
	"net"
	"testing"

	"github.com/relmq/relmq/rpc"
)

type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

func TestACLNilAllowsEverything(t *testing.T) {
	var acl *rpc.ACL
	if !acl.Allowed(fakeAddr("203.0.113.9:5000")) {
		t.Fatal("expected nil ACL to allow")
	}
}

func TestACLEmptySpecAllowsEverything(t *testing.T) {
	acl, err := rpc.ParseACL("")
	if err != nil {
		t.Fatal(err)
	}
	if !acl.Allowed(fakeAddr("203.0.113.9:5000")) {
		t.Fatal("expected empty ACL to allow")
	}
}

func TestACLFirstMatchingRuleWins(t *testing.T) {
	acl, err := rpc.ParseACL("allow 127.0.0.1 deny 0.0.0.0/0")
	if err != nil {
		t.Fatal(err)
	}
	if !acl.Allowed(fakeAddr("127.0.0.1:9000")) {
		t.Fatal("expected loopback to be allowed")
	}
	if acl.Allowed(fakeAddr("203.0.113.9:9000")) {
		t.Fatal("expected non-loopback to be denied")
	}
}

func TestACLUnmatchedAddressDefaultsAllow(t *testing.T) {
	acl, err := rpc.ParseACL("deny 192.0.2.0/24")
	if err != nil {
		t.Fatal(err)
	}
	if !acl.Allowed(fakeAddr("198.51.100.5:1")) {
		t.Fatal("expected address outside every rule to default-allow")
	}
}

func TestParseACLRejectsMalformed(t *testing.T) {
	if _, err := rpc.ParseACL("allow"); err == nil {
		t.Fatal("expected error for dangling token")
	}
	if _, err := rpc.ParseACL("maybe 127.0.0.1"); err == nil {
		t.Fatal("expected error for unknown action")
	}
	if _, err := rpc.ParseACL("allow not-an-ip"); err == nil {
		t.Fatal("expected error for invalid address")
	}
}

var _ net.Addr = fakeAddr("")
