package treemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// three returns a tree shaped as a black 2 with red children 1 and 3.
func three(t *testing.T) *Tree[int, int] {
	tree := New[int, int]()
	for i := 1; i <= 3; i++ {
		tree.Put(i, i)
	}
	require.NoError(t, tree.Verify())

	root := tree.root.Load()
	require.Equal(t, 2, root.key)
	require.Equal(t, red, root.left.Load().color)
	require.Equal(t, red, root.right.Load().color)
	return tree
}

func TestVerifyDetectsCorruption(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(root *node[int, int])
		want    error
	}{
		{
			name:    "red root",
			corrupt: func(root *node[int, int]) { root.color = red },
			want:    ErrRootNotBlack,
		},
		{
			name: "red child of red",
			corrupt: func(root *node[int, int]) {
				one := root.left.Load()
				one.left.Store(newNode(0, 0, red, one))
			},
			want: ErrRedViolation,
		},
		{
			name:    "uneven black height",
			corrupt: func(root *node[int, int]) { root.left.Load().color = black },
			want:    ErrBlackHeight,
		},
		{
			name:    "key out of order",
			corrupt: func(root *node[int, int]) { root.left.Load().key = 5 },
			want:    ErrOrder,
		},
		{
			name: "deep key out of order",
			corrupt: func(root *node[int, int]) {
				right := root.right.Load()
				right.left.Store(newNode(1, 1, black, right))
				right.right.Store(newNode(4, 4, black, right))
				one := root.left.Load()
				one.left.Store(newNode(0, 0, black, one))
				one.right.Store(newNode(1, 1, black, one))
			},
			want: ErrOrder,
		},
		{
			name:    "stale parent link",
			corrupt: func(root *node[int, int]) { root.right.Load().parent = nil },
			want:    ErrParentLink,
		},
		{
			name:    "root with parent",
			corrupt: func(root *node[int, int]) { root.parent = root.left.Load() },
			want:    ErrParentLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := three(t)
			tt.corrupt(tree.root.Load())
			assert.ErrorIs(t, tree.Verify(), tt.want)
		})
	}
}

func TestVerifyEmpty(t *testing.T) {
	assert.NoError(t, New[int, int]().Verify())
}
