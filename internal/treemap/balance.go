package treemap

// Rotations and fixups. All of them run inside the writer section.
//
// Child links are published with atomic stores in an order that never forms
// a cycle, so a concurrent reader always reaches nil eventually. Replacing
// the root goes through compare-and-set: if Clear dropped the tree meanwhile
// the rotation only reshapes the detached nodes.

func (t *Tree[K, V]) recolor(n *node[K, V], c color) {
	if n != nil && n.color != c {
		n.color = c
		t.stats.recolors.Add(1)
	}
}

// replaceChild points old's parent (or the root) at n.
func (t *Tree[K, V]) replaceChild(parent, old, n *node[K, V]) {
	switch {
	case parent == nil:
		t.root.CompareAndSwap(old, n)
	case old == parent.left.Load():
		parent.left.Store(n)
	default:
		parent.right.Store(n)
	}
}

//	  x              y
//	 / \            / \
//	a   y    =>    x   c
//	   / \        / \
//	  b   c      a   b
func (t *Tree[K, V]) rotateLeft(x *node[K, V]) {
	y := x.right.Load()
	b := y.left.Load()

	x.right.Store(b)
	if b != nil {
		b.parent = x
	}
	y.parent = x.parent
	t.replaceChild(x.parent, x, y)
	y.left.Store(x)
	x.parent = y

	t.stats.rotations.Add(1)
}

func (t *Tree[K, V]) rotateRight(y *node[K, V]) {
	x := y.left.Load()
	b := x.right.Load()

	y.left.Store(b)
	if b != nil {
		b.parent = y
	}
	x.parent = y.parent
	t.replaceChild(y.parent, y, x)
	x.right.Store(y)
	y.parent = x

	t.stats.rotations.Add(1)
}

func (t *Tree[K, V]) insertFixup(n *node[K, V]) {
	for isRed(parentOf(n)) {
		p := parentOf(n)
		g := parentOf(p)

		if p == leftOf(g) {
			uncle := rightOf(g)
			if isRed(uncle) {
				t.recolor(p, black)
				t.recolor(uncle, black)
				t.recolor(g, red)
				n = g
				continue
			}
			if n == rightOf(p) {
				n = p
				t.rotateLeft(n)
			}
			t.recolor(parentOf(n), black)
			t.recolor(parentOf(parentOf(n)), red)
			t.rotateRight(parentOf(parentOf(n)))
		} else {
			uncle := leftOf(g)
			if isRed(uncle) {
				t.recolor(p, black)
				t.recolor(uncle, black)
				t.recolor(g, red)
				n = g
				continue
			}
			if n == leftOf(p) {
				n = p
				t.rotateRight(n)
			}
			t.recolor(parentOf(n), black)
			t.recolor(parentOf(parentOf(n)), red)
			t.rotateLeft(parentOf(parentOf(n)))
		}
	}
	t.recolor(t.root.Load(), black)
}

// deleteFixup restores the invariants after a black node was unlinked.
// x may be nil, so its parent is tracked separately.
func (t *Tree[K, V]) deleteFixup(x, parent *node[K, V]) {
	for x != t.root.Load() && !isRed(x) && parent != nil {
		if x == leftOf(parent) {
			w := rightOf(parent)
			if isRed(w) {
				t.recolor(w, black)
				t.recolor(parent, red)
				t.rotateLeft(parent)
				w = rightOf(parent)
			}
			if !isRed(leftOf(w)) && !isRed(rightOf(w)) {
				t.recolor(w, red)
				x = parent
				parent = parentOf(x)
				continue
			}
			if !isRed(rightOf(w)) {
				t.recolor(leftOf(w), black)
				t.recolor(w, red)
				t.rotateRight(w)
				w = rightOf(parent)
			}
			t.recolor(w, parent.color)
			t.recolor(parent, black)
			t.recolor(rightOf(w), black)
			t.rotateLeft(parent)
			x, parent = t.root.Load(), nil
		} else {
			w := leftOf(parent)
			if isRed(w) {
				t.recolor(w, black)
				t.recolor(parent, red)
				t.rotateRight(parent)
				w = leftOf(parent)
			}
			if !isRed(rightOf(w)) && !isRed(leftOf(w)) {
				t.recolor(w, red)
				x = parent
				parent = parentOf(x)
				continue
			}
			if !isRed(leftOf(w)) {
				t.recolor(rightOf(w), black)
				t.recolor(w, red)
				t.rotateLeft(w)
				w = leftOf(parent)
			}
			t.recolor(w, parent.color)
			t.recolor(parent, black)
			t.recolor(leftOf(w), black)
			t.rotateRight(parent)
			x, parent = t.root.Load(), nil
		}
	}
	t.recolor(x, black)
}
