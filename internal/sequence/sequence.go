// Package sequence generates globally unique, time-ordered identifiers for
// payment and trade records. No two concurrent calls return the same value.
package sequence

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// KeyGenerator produces one unique identifier per call.
type KeyGenerator interface {
	NextID() string
	NextInt() int64
}

// Snowflake wraps a snowflake node. IDs sort by generation time, which keeps
// payment records naturally ordered in the store.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for the given worker node (0-1023).
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node: %w", err)
	}
	return &Snowflake{node: node}, nil
}

func (s *Snowflake) NextID() string {
	return s.node.Generate().String()
}

func (s *Snowflake) NextInt() int64 {
	return s.node.Generate().Int64()
}
