package idgen

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out unique import batch ids.
type Generator interface {
	GenerateID() int64
}

// SnowflakeGenerator implements Generator with Twitter Snowflake ids, which
// sort by creation time and embed the issuing node.
type SnowflakeGenerator struct {
	node *snowflake.Node
	mu   sync.Mutex
}

// NewSnowflakeGenerator initializes a generator for nodeID, which must be
// unique per running instance and within 0-1023.
func NewSnowflakeGenerator(nodeID int64) (*SnowflakeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", nodeID, err)
	}

	return &SnowflakeGenerator{
		node: node,
	}, nil
}

func (g *SnowflakeGenerator) GenerateID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.node.Generate().Int64()
}

// Timestamp returns the creation time encoded in a snowflake id.
func Timestamp(id int64) time.Time {
	return time.UnixMilli(snowflake.ParseInt64(id).Time()).UTC()
}

// Node returns the node number encoded in a snowflake id.
func Node(id int64) int64 {
	return snowflake.ParseInt64(id).Node()
}
