package driver

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optimap/internal/client"
	"optimap/internal/treemap"
)

func TestRunDefault(t *testing.T) {
	tree := treemap.New[int, string]()

	report, err := Run(context.Background(), tree, DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 5, report.Writers)
	assert.Equal(t, 5, report.Readers)
	assert.Equal(t, uint64(10), report.Inserted)
	assert.Equal(t, uint64(40), report.Replaced)
	assert.Equal(t, uint64(50), report.Hits+report.Misses)
	assert.Zero(t, report.Errors)

	require.Equal(t, 10, tree.Size())
	for i := 0; i < 10; i++ {
		v, ok := tree.Get(i)
		assert.True(t, ok)
		assert.Equal(t, client.Value(i), v)
	}
	require.NoError(t, tree.Verify())
}

func TestRunFillsDefaults(t *testing.T) {
	tree := treemap.New[int, string]()

	report, err := Run(context.Background(), tree, Config{})
	require.NoError(t, err)
	assert.Equal(t, 10, report.Writers+report.Readers)
	assert.Equal(t, 10, tree.Size())
}

func TestRunWithLimit(t *testing.T) {
	tree := treemap.New[int, string]()

	report, err := Run(context.Background(), tree, Config{Goroutines: 16, Keys: 500, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, uint64(500), report.Inserted)
	assert.Equal(t, 500, tree.Size())
	require.NoError(t, tree.Verify())
}

// corruptMap は特定のキーにだけ誤った値を返す
type corruptMap struct {
	mu   sync.Mutex
	data map[int]string
	bad  int
}

func (m *corruptMap) Put(key int, value string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.data[key]
	m.data[key] = value
	return old, ok
}

func (m *corruptMap) Get(key int) (string, bool) {
	if key == m.bad {
		return "garbage", true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func TestRunErrorDoesNotAbortSiblings(t *testing.T) {
	m := &corruptMap{data: make(map[int]string), bad: 3}

	report, err := Run(context.Background(), m, Config{Goroutines: 6, Keys: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "garbage")

	// 3 readers each see the bad key once and still read every key
	assert.Equal(t, uint64(3), report.Errors)
	assert.Equal(t, uint64(30), report.Hits+report.Misses)
	assert.Equal(t, uint64(10), report.Inserted)
	assert.Len(t, m.data, 10)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, treemap.New[int, string](), DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}
