// Package treemap provides an ordered key/value map backed by a red-black
// tree that readers can query without taking any lock.
//
// # Basic Usage
//
//	m := treemap.New[int, string]()
//	m.Put(1, "Value 1")
//
//	if v, ok := m.Get(1); ok {
//	    fmt.Println(v)
//	}
//
//	m.Clear()
//
// # Concurrency
//
// Readers (Get, ContainsKey, ContainsValue, Size) are optimistic. They
// record the modification counter, walk the tree without synchronization and
// trust the result only if the counter is unchanged afterwards. Otherwise the
// whole read starts over. The counter is odd while a writer is in the middle
// of a mutation, so a reader that starts during a write retries immediately.
//
// Writers (Put, Remove) are serialized by a single mutex. Every child link is
// an atomic pointer, so readers running next to a writer never see a torn
// pointer, only a possibly inconsistent shape, which the counter check
// rejects. Running Put calls concurrently without that mutex corrupts the
// tree; the mutex is what makes concurrent writers safe.
//
// Clear is lock-free: it swaps the root to nil with compare-and-set and never
// waits for a writer.
//
// # Bounded Retries
//
// Config.MaxRetries limits optimistic attempts. When it is exceeded the read
// is served under the writer mutex. Zero keeps retrying forever.
package treemap
