package client

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"optimap/internal/logger"
	"optimap/internal/metrics"
	"optimap/internal/worker"
)

// Map はClientが負荷をかける対象の操作セット
type Map interface {
	Put(key int, value string) (string, bool)
	Get(key int) (string, bool)
	ContainsKey(key int) bool
	ContainsValue(value string) (bool, error)
	Size() int
	Clear()
	Remove(key int) (string, bool)
}

// Config はClientの設定
type Config struct {
	NumWorkers        int     // ワーカー数（0でCPU数）
	WriteRatio        float64 // Put比率（0.0〜1.0）
	RemoveRatio       float64 // Remove比率
	ClearRatio        float64 // Clear比率
	ScanRatio         float64 // Size/ContainsValue の全走査比率
	KeyRange          int     // キーの範囲（0〜KeyRange-1）
	RequestsLimit     uint64  // リクエスト上限（0で無制限）
	RequestsPerSecond float64 // 秒間リクエスト上限（0で無制限）
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		NumWorkers:  0,
		WriteRatio:  0.5,
		RemoveRatio: 0,
		ClearRatio:  0,
		ScanRatio:   0.01,
		KeyRange:    10000,
	}
}

// Client は負荷生成器
type Client struct {
	config  Config
	tree    Map
	pool    *worker.Pool
	metrics *metrics.Metrics
	limiter *rate.Limiter

	issued  atomic.Uint64
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New は新しいClientを作成する
func New(m Map, config Config) *Client {
	if config.KeyRange <= 0 {
		config.KeyRange = DefaultConfig().KeyRange
	}

	c := &Client{
		config: config,
		tree:   m,
		pool: worker.NewPoolWithConfig(worker.PoolConfig{
			Name:       "client",
			NumWorkers: config.NumWorkers,
		}),
		metrics: metrics.New(),
	}
	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}
	return c
}

// Start は負荷生成を開始する
func (c *Client) Start(ctx context.Context) {
	if c.running.Swap(true) {
		return
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.pool.Start(c.ctx)

	logger.Info("client", "Client started (workers: %d, write: %.1f%%, remove: %.1f%%, clear: %.2f%%)",
		c.pool.NumWorkers(), c.config.WriteRatio*100, c.config.RemoveRatio*100, c.config.ClearRatio*100)

	c.wg.Add(1)
	go c.generateRequests()
}

// generateRequests はリクエストを生成し続ける
func (c *Client) generateRequests() {
	defer c.wg.Done()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		if c.config.RequestsLimit > 0 && c.issued.Load() >= c.config.RequestsLimit {
			return
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(c.ctx); err != nil {
				return
			}
		}

		job := c.createJob(c.pickOp(rng.Float64(), rng.Intn(2) == 0), rng.Intn(c.config.KeyRange))
		if !c.pool.Submit(job) {
			return
		}
		c.issued.Add(1)
	}
}

// pickOp は乱数 r から操作を決める。点検索は preferGet でGetかContainsKeyを選ぶ
func (c *Client) pickOp(r float64, preferGet bool) metrics.Op {
	cfg := c.config
	switch {
	case r < cfg.WriteRatio:
		return metrics.OpPut
	case r < cfg.WriteRatio+cfg.RemoveRatio:
		return metrics.OpRemove
	case r < cfg.WriteRatio+cfg.RemoveRatio+cfg.ClearRatio:
		return metrics.OpClear
	case r < cfg.WriteRatio+cfg.RemoveRatio+cfg.ClearRatio+cfg.ScanRatio/2:
		return metrics.OpSize
	case r < cfg.WriteRatio+cfg.RemoveRatio+cfg.ClearRatio+cfg.ScanRatio:
		return metrics.OpContainsValue
	}
	if preferGet {
		return metrics.OpGet
	}
	return metrics.OpContainsKey
}

// Value はキーに対応する値の表現を返す
func Value(key int) string {
	return fmt.Sprintf("Value %d", key)
}

// createJob はリクエストジョブを作成する
func (c *Client) createJob(op metrics.Op, key int) worker.Job {
	return func() error {
		start := time.Now()
		err := c.execute(op, key)
		c.metrics.Record(op, time.Since(start), err)
		return err
	}
}

// execute は1つの操作を実行する
func (c *Client) execute(op metrics.Op, key int) error {
	switch op {
	case metrics.OpPut:
		c.tree.Put(key, Value(key))
	case metrics.OpRemove:
		c.tree.Remove(key)
	case metrics.OpClear:
		c.tree.Clear()
	case metrics.OpSize:
		if n := c.tree.Size(); n < 0 || n > c.config.KeyRange {
			return fmt.Errorf("impossible size %d for key range %d", n, c.config.KeyRange)
		}
	case metrics.OpContainsValue:
		if _, err := c.tree.ContainsValue(Value(key)); err != nil {
			return err
		}
	case metrics.OpGet:
		v, ok := c.tree.Get(key)
		if ok && v != Value(key) {
			return fmt.Errorf("key %d holds %q", key, v)
		}
		c.metrics.RecordLookup(ok)
	case metrics.OpContainsKey:
		c.metrics.RecordLookup(c.tree.ContainsKey(key))
	default:
		return fmt.Errorf("unsupported op %s", op)
	}
	return nil
}

// Stop は負荷生成を停止する
func (c *Client) Stop() {
	if !c.running.Swap(false) {
		return
	}

	// 生成ループを先に止めてからプールを閉じる
	c.cancel()
	c.wg.Wait()
	c.pool.Stop()

	logger.Info("client", "Client stopped (issued: %d)", c.issued.Load())
}

// Metrics はメトリクスを返す
func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}

// Issued は送信済みリクエスト数を返す
func (c *Client) Issued() uint64 {
	return c.issued.Load()
}

// IsRunning は実行中かどうかを返す
func (c *Client) IsRunning() bool {
	return c.running.Load()
}

// RunFor は指定時間だけ負荷生成を実行する
func (c *Client) RunFor(ctx context.Context, duration time.Duration) *metrics.Snapshot {
	c.Start(ctx)

	select {
	case <-ctx.Done():
	case <-time.After(duration):
	}

	c.Stop()

	snapshot := c.metrics.Snapshot()
	return &snapshot
}

// RunRequests は指定数のリクエストを実行し、全て完了するまで待つ
func (c *Client) RunRequests(ctx context.Context, count uint64) *metrics.Snapshot {
	c.config.RequestsLimit = count
	c.Start(ctx)
	c.wg.Wait()

	for c.metrics.TotalOps() < c.issued.Load() && ctx.Err() == nil {
		time.Sleep(time.Millisecond)
	}
	c.Stop()

	snapshot := c.metrics.Snapshot()
	return &snapshot
}
