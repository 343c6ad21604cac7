// Package metrics collects per-operation statistics for a map under load.
//
// Metrics counts every operation issued against the map (put, get,
// contains_key, contains_value, size, clear, remove), tracks failures, lookup
// hit rate, latency and throughput (OPS). It is thread-safe and optimized for
// high-concurrency scenarios.
//
// # Basic Usage
//
//	m := metrics.New()
//
//	start := time.Now()
//	_, ok := tree.Get(key)
//	m.Record(metrics.OpGet, time.Since(start), nil)
//	m.RecordLookup(ok)
//
//	fmt.Printf("Total: %d, OPS: %.2f, P99: %v\n",
//	    m.TotalOps(), m.OPS(), m.P99Latency())
//
// # Configuration
//
// Use NewWithConfig for custom settings:
//
//	m := metrics.NewWithConfig(metrics.Config{MaxLatencySamples: 5000})
//
// # Thread Safety
//
// Counters are atomic; the latency sample buffer is guarded by a RWMutex.
package metrics
