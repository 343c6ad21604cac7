package treemap

// Remove deletes key and returns the value it held.
func (t *Tree[K, V]) Remove(key K) (V, bool) {
	t.beginWrite()
	defer t.endWrite()

	z := t.lookup(t.root.Load(), key)
	if z == nil {
		var zero V
		return zero, false
	}
	value := z.load()
	t.unlink(z)
	return value, true
}

// transplant puts v where u was. u keeps its own links so readers
// standing on it can still walk down.
func (t *Tree[K, V]) transplant(u, v *node[K, V]) {
	t.replaceChild(u.parent, u, v)
	if v != nil {
		v.parent = u.parent
	}
}

func (t *Tree[K, V]) unlink(z *node[K, V]) {
	var x, xParent *node[K, V]
	removed := z.color

	switch {
	case z.left.Load() == nil:
		x, xParent = z.right.Load(), z.parent
		t.transplant(z, x)
	case z.right.Load() == nil:
		x, xParent = z.left.Load(), z.parent
		t.transplant(z, x)
	default:
		// successor y takes z's place and color
		y := z.right.Load()
		for l := y.left.Load(); l != nil; l = y.left.Load() {
			y = l
		}
		removed = y.color
		x = y.right.Load()

		if y.parent == z {
			xParent = y
		} else {
			xParent = y.parent
			t.transplant(y, x)
			zr := z.right.Load()
			y.right.Store(zr)
			zr.parent = y
		}
		zl := z.left.Load()
		y.left.Store(zl)
		zl.parent = y
		t.transplant(z, y)
		y.color = z.color
	}

	if removed == black {
		t.deleteFixup(x, xParent)
	}
}
