package treemap

import (
	"cmp"
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"

	"optimap/internal/logger"
)

// Config holds the tuning knobs of a Tree.
type Config struct {
	Name       string // logger scope
	MaxRetries int    // optimistic attempts before reading under the writer lock, 0 = unbounded
}

// DefaultConfig returns the configuration used by New and NewFunc.
func DefaultConfig() Config {
	return Config{
		Name:       "treemap",
		MaxRetries: 1024,
	}
}

// Tree is an ordered map safe for concurrent use by multiple goroutines.
type Tree[K, V any] struct {
	compare func(a, b K) int
	equal   func(a, b V) bool
	config  Config

	root atomic.Pointer[node[K, V]]
	mods atomic.Uint64 // odd while a writer is mutating
	wmu  sync.Mutex

	stats counters
}

// New creates an empty tree for naturally ordered keys.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return NewWithConfig[K, V](cmp.Compare[K], DefaultConfig())
}

// NewFunc creates an empty tree ordered by compare, which must be a total
// order returning a negative, zero or positive result.
func NewFunc[K, V any](compare func(a, b K) int) *Tree[K, V] {
	return NewWithConfig[K, V](compare, DefaultConfig())
}

// NewWithConfig creates an empty tree ordered by compare. It panics with
// ErrNoComparator if compare is nil.
func NewWithConfig[K, V any](compare func(a, b K) int, config Config) *Tree[K, V] {
	if compare == nil {
		panic(ErrNoComparator)
	}
	if config.Name == "" {
		config.Name = "treemap"
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	return &Tree[K, V]{
		compare: compare,
		config:  config,
	}
}

// SetValueEqual installs the equality used by ContainsValue.
// It must be called before the tree is shared between goroutines.
func (t *Tree[K, V]) SetValueEqual(equal func(a, b V) bool) {
	t.equal = equal
}

func (t *Tree[K, V]) beginWrite() {
	t.wmu.Lock()
	t.mods.Add(1)
}

func (t *Tree[K, V]) endWrite() {
	t.mods.Add(1)
	t.wmu.Unlock()
}

// Put associates value with key. It returns the previous value and true if
// key was already present, in which case the shape of the tree is unchanged.
func (t *Tree[K, V]) Put(key K, value V) (V, bool) {
	t.beginWrite()
	defer t.endWrite()

	var zero V

	root := t.root.Load()
	if root == nil {
		// only Clear can race with us here and it only ever stores nil
		t.root.CompareAndSwap(nil, newNode(key, value, black, nil))
		return zero, false
	}

	var parent *node[K, V]
	c := 0
	for cur := root; cur != nil; {
		parent = cur
		c = t.compare(key, cur.key)
		switch {
		case c < 0:
			cur = cur.left.Load()
		case c > 0:
			cur = cur.right.Load()
		default:
			return cur.swap(value), true
		}
	}

	n := newNode(key, value, red, parent)
	if c < 0 {
		parent.left.Store(n)
	} else {
		parent.right.Store(n)
	}
	t.insertFixup(n)
	return zero, false
}

// Get returns the value stored for key.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	var (
		value V
		found bool
	)
	t.read(func(root *node[K, V]) {
		var zero V
		value, found = zero, false
		if n := t.lookup(root, key); n != nil {
			value, found = n.load(), true
		}
	})
	return value, found
}

// ContainsKey reports whether key is present. It gives the same guarantee as Get.
func (t *Tree[K, V]) ContainsKey(key K) bool {
	_, ok := t.Get(key)
	return ok
}

// ContainsValue reports whether any entry holds value. It visits every node.
// Values are compared with the function given to SetValueEqual, or with ==
// when none was installed.
func (t *Tree[K, V]) ContainsValue(value V) (bool, error) {
	if isNil(value) {
		return false, ErrNilValue
	}

	equal := t.equal
	if equal == nil {
		if typ := reflect.TypeOf(any(value)); typ != nil && !typ.Comparable() {
			return false, fmt.Errorf("%w: %s", ErrIncomparable, typ)
		}
		equal = func(a, b V) bool { return any(a) == any(b) }
	}

	var (
		found bool
		err   error
	)
	t.read(func(root *node[K, V]) {
		found, err = containsValue(root, value, equal)
	})
	return found, err
}

// Size returns the number of entries.
func (t *Tree[K, V]) Size() int {
	var size int
	t.read(func(root *node[K, V]) {
		size = count(root)
	})
	return size
}

// IsEmpty reports whether the tree has no root.
func (t *Tree[K, V]) IsEmpty() bool {
	return t.root.Load() == nil
}

// Clear drops every entry. It never blocks: it retries a compare-and-set
// of the root until one succeeds.
func (t *Tree[K, V]) Clear() {
	for {
		cur := t.root.Load()
		if t.root.CompareAndSwap(cur, nil) {
			// +2 keeps the writer parity intact
			t.mods.Add(2)
			t.stats.clears.Add(1)
			return
		}
		t.stats.clearConflicts.Add(1)
	}
}

// Version returns the modification counter.
func (t *Tree[K, V]) Version() uint64 {
	return t.mods.Load()
}

// read runs fn against a root until fn has seen a tree no writer touched
// meanwhile. fn must overwrite all of its results on every call.
func (t *Tree[K, V]) read(fn func(root *node[K, V])) {
	for attempt := 0; ; attempt++ {
		if t.config.MaxRetries > 0 && attempt >= t.config.MaxRetries {
			t.stats.fallbacks.Add(1)
			logger.Debug(t.config.Name, "optimistic read gave up after %d attempts", attempt)
			t.lockedRead(fn)
			return
		}

		seq := t.mods.Load()
		if seq&1 == 0 {
			fn(t.root.Load())
			if t.mods.Load() == seq {
				return
			}
		}
		t.stats.retries.Add(1)
		runtime.Gosched()
	}
}

func (t *Tree[K, V]) lockedRead(fn func(root *node[K, V])) {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	fn(t.root.Load())
}

func (t *Tree[K, V]) lookup(n *node[K, V], key K) *node[K, V] {
	for n != nil {
		c := t.compare(key, n.key)
		switch {
		case c < 0:
			n = n.left.Load()
		case c > 0:
			n = n.right.Load()
		default:
			return n
		}
	}
	return nil
}

func count[K, V any](n *node[K, V]) int {
	if n == nil {
		return 0
	}
	return 1 + count(n.left.Load()) + count(n.right.Load())
}

func containsValue[K, V any](n *node[K, V], value V, equal func(a, b V) bool) (found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			found, err = false, fmt.Errorf("%w: %v", ErrIncomparable, r)
		}
	}()
	return preorder(n, value, equal), nil
}

func preorder[K, V any](n *node[K, V], value V, equal func(a, b V) bool) bool {
	if n == nil {
		return false
	}
	if equal(value, n.load()) {
		return true
	}
	return preorder(n.left.Load(), value, equal) || preorder(n.right.Load(), value, equal)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func,
		reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
