// Package selector defines the predicate forms a consumer uses to pick a
// message out of a queue or to recognize a topic's current value.
//
// Two forms are evaluated by the manager itself:
//
//   - Equals — an equality map; a message matches when every listed
//     header equals the given value.
//   - ID — matches only the message carrying the given id.
//
// A third, richer form — an arbitrary boolean expression over header
// names — is deliberately not part of this package. The manager does not
// evaluate arbitrary expressions; instead a client lists a destination's
// headers, evaluates its own predicate locally (see the client package's
// Headers/Now helpers), and resubmits an ID selector. This keeps the
// broker's persisted contract small and language-neutral.
package selector
