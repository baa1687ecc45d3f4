package propagate

import "sort"

// unprop is the propagation-factor sentinel assigned to a clause with no
// remaining terms (spec.md §4.4: "if no terms can be propagated"). It must
// compare greater than any factor a real clause could reach.
const unprop = int64(1) << 40

// entry is a (propagationFactor, clauseID) pair. The ordering is
// (factor ascending, clauseID ascending) — spec.md §4.4's determinism rule.
type entry struct {
	factor int64
	id     int
}

func less(a, b entry) bool {
	if a.factor != b.factor {
		return a.factor < b.factor
	}

	return a.id < b.id
}

// priorityQueue is a sorted slice of entries supporting O(log n) lookup and
// O(n) insert/remove, adapted from go-corset's
// pkg/util/collection/set.SortedSet[T] binary-search insert/remove shape —
// here specialized to the fixed (factor, id) pair ordering the propagator
// needs, rather than a generic cmp.Ordered element.
type priorityQueue struct {
	items []entry
}

func newPriorityQueue(n int) *priorityQueue {
	return &priorityQueue{items: make([]entry, 0, n)}
}

func (q *priorityQueue) search(e entry) int {
	return sort.Search(len(q.items), func(i int) bool {
		return !less(q.items[i], e)
	})
}

// Insert adds e to the queue, preserving sorted order.
func (q *priorityQueue) Insert(e entry) {
	i := q.search(e)
	q.items = append(q.items, entry{})
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = e
}

// Remove deletes the entry matching e exactly (factor and id). Panics if it
// is not present, since that indicates the caller's bookkeeping is wrong.
func (q *priorityQueue) Remove(e entry) {
	i := q.search(e)
	if i >= len(q.items) || q.items[i] != e {
		panic("propagate: priority queue entry not found")
	}

	q.items = append(q.items[:i], q.items[i+1:]...)
}

// Min returns the smallest entry (the next propagation candidate).
func (q *priorityQueue) Min() entry {
	return q.items[0]
}
