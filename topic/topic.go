// Package topic hashes command and event names into the u64 topic
// identifiers carried on the wire. The hash is unseeded so a given name
// produces the same identifier on every node and across restarts, which is
// what lets independently-started processes agree on a topic without ever
// exchanging its string form.
package topic

import "github.com/cespare/xxhash/v2"

// Hash returns the topic identifier for name.
func Hash(name string) uint64 {
	return xxhash.Sum64String(name)
}
