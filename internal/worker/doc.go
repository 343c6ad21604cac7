// Package worker provides a goroutine pool for concurrent job execution.
//
// The Pool manages a fixed number of worker goroutines that process jobs
// from a shared queue. A job returns an error; failures (and panics, which are
// turned into errors) are logged and counted, and never stop sibling jobs.
//
// # Basic Usage
//
//	pool := worker.NewPool(4) // 4 workers
//	pool.Start(ctx)
//	defer pool.Stop()
//
//	pool.Submit(func() error {
//	    tree.Put(key, value)
//	    return nil
//	})
//
// # Configuration
//
// Use NewPoolWithConfig for custom settings:
//
//	config := worker.PoolConfig{
//	    Name:        "client",
//	    NumWorkers:  8,
//	    QueueFactor: 200, // Queue size = 8 * 200 = 1600
//	}
//	pool := worker.NewPoolWithConfig(config)
//
// # Graceful Shutdown
//
// Stop cancels the pool context and waits for running jobs to return.
// A stopped pool rejects further submissions.
package worker
