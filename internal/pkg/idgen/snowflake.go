// Package idgen mints identifiers for user and role records. The ids
// are snowflakes rendered as decimal strings, so they sort by creation
// time and stay opaque in URLs and templates.
package idgen

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	once sync.Once
	node *snowflake.Node
)

// NewID returns the next record identifier.
func NewID() string {
	once.Do(func() {
		// Single-writer deployment; node 0 holds until more than one
		// instance writes to the same database.
		node, _ = snowflake.NewNode(0)
	})
	return node.Generate().String()
}
