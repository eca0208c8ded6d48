package rpc

import (
	"fmt"
	"net"
	"strings"
)

type aclRule struct {
	allow bool
	ipnet *net.IPNet
}

// ACL gates inbound connections by remote host, parsed from the
// "allow/deny <host-or-cidr>" grammar in config.yaml's drb.acl field.
// Rules are evaluated in order; the first matching rule decides. An
// address matching no rule is allowed, matching the permissive default
// of an empty ACL.
type ACL struct {
	rules []aclRule
}

// ParseACL parses a space-separated sequence of "allow <addr>" /
// "deny <addr>" pairs, where <addr> is a bare IP (treated as a /32 or
// /128 host route) or a CIDR block.
func ParseACL(spec string) (*ACL, error) {
	fields := strings.Fields(spec)
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("rpc: malformed acl %q: dangling token", spec)
	}
	acl := &ACL{}
	for i := 0; i < len(fields); i += 2 {
		action, target := strings.ToLower(fields[i]), fields[i+1]
		var allow bool
		switch action {
		case "allow":
			allow = true
		case "deny":
			allow = false
		default:
			return nil, fmt.Errorf("rpc: malformed acl %q: unknown action %q", spec, fields[i])
		}
		ipnet, err := parseHostOrCIDR(target)
		if err != nil {
			return nil, fmt.Errorf("rpc: malformed acl %q: %w", spec, err)
		}
		acl.rules = append(acl.rules, aclRule{allow: allow, ipnet: ipnet})
	}
	return acl, nil
}

func parseHostOrCIDR(s string) (*net.IPNet, error) {
	if strings.Contains(s, "/") {
		_, ipnet, err := net.ParseCIDR(s)
		return ipnet, err
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("invalid address %q", s)
	}
	bits := 32
	if ip.To4() == nil {
		bits = 128
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
}

// Allowed reports whether addr may proceed. A nil ACL (or one with no
// rules) allows everything.
func (a *ACL) Allowed(addr net.Addr) bool {
	if a == nil || len(a.rules) == 0 {
		return true
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		host = addr.String()
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, r := range a.rules {
		if r.ipnet.Contains(ip) {
			return r.allow
		}
	}
	return true
}
