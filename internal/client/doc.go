// Package client provides a load generator for stress testing the map.
//
// The Client issues a configurable mix of puts, removes, clears, full scans
// and point lookups against any Map (a *treemap.Tree[int, string] in
// practice) from a worker pool, and collects metrics about the load. Values
// are always Value(key), so a lookup that returns anything else is counted as
// a failure.
//
// # Basic Usage
//
//	tree := treemap.New[int, string]()
//
//	config := client.DefaultConfig()
//	config.WriteRatio = 0.3 // 30% writes, the rest mostly lookups
//	cl := client.New(tree, config)
//
//	// Run for a duration
//	snap := cl.RunFor(ctx, 10*time.Second)
//	fmt.Printf("Total: %d, OPS: %.2f\n", snap.TotalOps, snap.OPS)
//
//	// Or run a fixed number of requests
//	snap = cl.RunRequests(ctx, 10000)
//
// # Configuration
//
// The Config struct allows tuning:
//   - NumWorkers: parallel workers (0 = CPU count)
//   - WriteRatio, RemoveRatio, ClearRatio, ScanRatio: operation mix
//   - KeyRange: key space size
//   - RequestsLimit: max requests (0 = unlimited)
//   - RequestsPerSecond: rate limit (0 = unlimited), enforced with
//     golang.org/x/time/rate
package client
