package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"optimap/internal/logger"
)

// Job はワーカーが実行するジョブを表す
// エラーを返しても他のジョブやワーカーは止まらない
type Job func() error

// PoolConfig はワーカープールの設定
type PoolConfig struct {
	Name        string // ログのスコープ
	NumWorkers  int    // ワーカー数（0でCPU数）
	QueueFactor int    // キューサイズ = NumWorkers * QueueFactor
}

// DefaultPoolConfig はデフォルト設定を返す
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		Name:        "worker",
		NumWorkers:  0,
		QueueFactor: 100,
	}
}

// Pool はゴルーチンのプールを管理する
type Pool struct {
	name       string
	numWorkers int
	jobs       chan Job
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
	stopping   atomic.Bool
	mu         sync.Mutex

	completed atomic.Uint64
	failed    atomic.Uint64
}

// NewPool は新しいワーカープールを作成する
// numWorkers が 0 以下の場合は CPU 数を使用
func NewPool(numWorkers int) *Pool {
	config := DefaultPoolConfig()
	config.NumWorkers = numWorkers
	return NewPoolWithConfig(config)
}

// NewPoolWithConfig は設定を指定してワーカープールを作成する
func NewPoolWithConfig(config PoolConfig) *Pool {
	numWorkers := config.NumWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	queueFactor := config.QueueFactor
	if queueFactor <= 0 {
		queueFactor = 100
	}
	name := config.Name
	if name == "" {
		name = "worker"
	}
	return &Pool{
		name:       name,
		numWorkers: numWorkers,
		jobs:       make(chan Job, numWorkers*queueFactor),
	}
}

// Start はワーカープールを起動する
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.started = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	logger.Info(p.name, "Pool started with %d workers", p.numWorkers)
}

// worker は個々のワーカーゴルーチン
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := p.run(job); err != nil {
				p.failed.Add(1)
				logger.Debug(p.name, "worker %d: job failed: %v", id, err)
				continue
			}
			p.completed.Add(1)
		}
	}
}

// run はジョブを実行し、panicをエラーに変換する
func (p *Pool) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job()
}

// Submit はジョブをプールに送信する
func (p *Pool) Submit(job Job) (submitted bool) {
	if p.stopping.Load() {
		return false
	}

	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn(p.name, "Submit failed due to panic (channel may be closed): %v", r)
			submitted = false
		}
	}()

	select {
	case <-p.ctx.Done():
		return false
	default:
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Stop はワーカープールを停止する
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.stopping.Store(true)
	p.cancel()
	p.wg.Wait()

	close(p.jobs)

	p.mu.Lock()
	p.started = false
	p.stopping.Store(false)
	p.mu.Unlock()

	logger.Info(p.name, "Pool stopped (completed: %d, failed: %d)",
		p.completed.Load(), p.failed.Load())
}

// NumWorkers はワーカー数を返す
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// QueueSize は現在のキューサイズを返す
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

// Completed は成功したジョブ数を返す
func (p *Pool) Completed() uint64 {
	return p.completed.Load()
}

// Failed は失敗したジョブ数を返す
func (p *Pool) Failed() uint64 {
	return p.failed.Load()
}
