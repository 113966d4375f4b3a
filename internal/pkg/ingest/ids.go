package ingest

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator hands out millisecond-timestamp record IDs. Consecutive
// calls within the same millisecond are staggered so IDs stay unique and
// keep their creation order.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= g.last {
		now = g.last + 1
	}
	g.last = now
	return strconv.FormatInt(now, 10)
}
