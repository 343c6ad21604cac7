package treemap

import "sync/atomic"

type color uint8

const (
	red color = iota
	black
)

func (c color) String() string {
	if c == red {
		return "red"
	}
	return "black"
}

// node holds one entry. key never changes after creation. color and parent
// belong to the writer; readers only follow left and right.
type node[K, V any] struct {
	key    K
	value  atomic.Pointer[V]
	color  color
	left   atomic.Pointer[node[K, V]]
	right  atomic.Pointer[node[K, V]]
	parent *node[K, V]
}

func newNode[K, V any](key K, value V, c color, parent *node[K, V]) *node[K, V] {
	n := &node[K, V]{key: key, color: c, parent: parent}
	n.value.Store(&value)
	return n
}

func (n *node[K, V]) load() V {
	return *n.value.Load()
}

// swap replaces the value and returns the previous one.
func (n *node[K, V]) swap(value V) V {
	return *n.value.Swap(&value)
}

// nil-safe accessors used by the balancing code

func isRed[K, V any](n *node[K, V]) bool {
	return n != nil && n.color == red
}

func parentOf[K, V any](n *node[K, V]) *node[K, V] {
	if n == nil {
		return nil
	}
	return n.parent
}

func leftOf[K, V any](n *node[K, V]) *node[K, V] {
	if n == nil {
		return nil
	}
	return n.left.Load()
}

func rightOf[K, V any](n *node[K, V]) *node[K, V] {
	if n == nil {
		return nil
	}
	return n.right.Load()
}
