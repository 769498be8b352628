package macro

import (
	"fmt"

	"github.com/kobzarvs/qvim/internal/keys"
)

type item struct {
	key   keys.Key
	depth int
}

// Queue holds synthetic keys waiting to be dispatched. New keys go to the
// front so a nested @x finishes before the rest of the outer macro.
type Queue struct {
	items    []item
	pushed   int
	MaxDepth int
	MaxKeys  int
}

func NewQueue(maxDepth, maxKeys int) *Queue {
	return &Queue{MaxDepth: maxDepth, MaxKeys: maxKeys}
}

// Push queues count copies of ks at the given nesting depth. Copies that
// would exceed MaxKeys are cut and ErrTooMany is returned with the rest queued.
func (q *Queue) Push(ks []keys.Key, count, depth int) error {
	if len(ks) == 0 {
		return nil
	}
	if q.MaxDepth > 0 && depth > q.MaxDepth {
		return fmt.Errorf("%w: depth %d", ErrTooDeep, depth)
	}
	if count < 1 {
		count = 1
	}
	var err error
	if q.MaxKeys > 0 {
		room := (q.MaxKeys - q.pushed) / len(ks)
		if room < count {
			count = room
			err = fmt.Errorf("%w: limit %d keys", ErrTooMany, q.MaxKeys)
		}
	}
	if count <= 0 {
		return err
	}

	front := make([]item, 0, len(ks)*count+len(q.items))
	for i := 0; i < count; i++ {
		for _, k := range ks {
			front = append(front, item{key: k, depth: depth})
		}
	}
	q.pushed += len(ks) * count
	q.items = append(front, q.items...)
	return err
}

// Pop returns the next key and the depth it was queued at.
func (q *Queue) Pop() (keys.Key, int, bool) {
	if len(q.items) == 0 {
		return keys.Key{}, 0, false
	}
	it := q.items[0]
	q.items = q.items[1:]
	return it.key, it.depth, true
}

func (q *Queue) Len() int {
	return len(q.items)
}

// Clear drops every queued key, used when a replayed command fails.
func (q *Queue) Clear() {
	q.items = nil
}

// Reset starts a new budget for the next live key.
func (q *Queue) Reset() {
	q.items = nil
	q.pushed = 0
}
