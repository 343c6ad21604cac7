package treemap

import "fmt"

// Verify checks the red-black invariants, key order and parent links. It
// holds the writer lock, so the shape it inspects is quiescent.
func (t *Tree[K, V]) Verify() error {
	t.wmu.Lock()
	defer t.wmu.Unlock()

	root := t.root.Load()
	if root == nil {
		return nil
	}
	if root.color != black {
		return ErrRootNotBlack
	}
	if root.parent != nil {
		return fmt.Errorf("%w: root %v has a parent", ErrParentLink, root.key)
	}
	_, err := t.check(root, nil, nil)
	return err
}

// check returns the black height of the subtree at n. lo and hi are the
// nearest ancestors bounding n's keys.
func (t *Tree[K, V]) check(n, lo, hi *node[K, V]) (int, error) {
	if n == nil {
		return 1, nil
	}
	if lo != nil && t.compare(lo.key, n.key) >= 0 {
		return 0, fmt.Errorf("%w: %v after %v", ErrOrder, n.key, lo.key)
	}
	if hi != nil && t.compare(n.key, hi.key) >= 0 {
		return 0, fmt.Errorf("%w: %v before %v", ErrOrder, n.key, hi.key)
	}

	left, right := n.left.Load(), n.right.Load()
	for _, child := range []*node[K, V]{left, right} {
		if child == nil {
			continue
		}
		if child.parent != n {
			return 0, fmt.Errorf("%w: child %v of %v", ErrParentLink, child.key, n.key)
		}
		if n.color == red && child.color == red {
			return 0, fmt.Errorf("%w: %v under %v", ErrRedViolation, child.key, n.key)
		}
	}

	lh, err := t.check(left, lo, n)
	if err != nil {
		return 0, err
	}
	rh, err := t.check(right, n, hi)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, fmt.Errorf("%w: %d left vs %d right at %v", ErrBlackHeight, lh, rh, n.key)
	}
	if n.color == black {
		lh++
	}
	return lh, nil
}
