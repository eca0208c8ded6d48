package config

import "github.com/relmq/relmq/rpc"

// BuildACL parses the drb.acl grammar. An empty spec yields an ACL that
// allows every connection.
func (c *Config) BuildACL() (*rpc.ACL, error) {
	return rpc.ParseACL(c.DRB.ACL)
}
