// Package id issues the int64 snowflake ids used for incidents and families.
// Ids are time-ordered, so sorting by id approximates submission order.
package id

import (
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
)

var node atomic.Pointer[snowflake.Node]

// Init sets the node id (0-1023) of this process. Replicas sharing a database
// need distinct node ids. Calling Init again replaces the node.
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("creating snowflake node %d: %w", nodeID, err)
	}
	node.Store(n)
	return nil
}

// New panics if Init has not been called.
func New() int64 {
	n := node.Load()
	if n == nil {
		panic("id: New called before Init")
	}
	return n.Generate().Int64()
}
