package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"optimap/internal/events"
	"optimap/internal/logger"
)

// ErrInconsistent は空判定とサイズが食い違ったことを表す
var ErrInconsistent = errors.New("isEmpty and size disagree")

// Target は監査対象のツリー
type Target interface {
	Verify() error
	Size() int
	IsEmpty() bool
	Version() uint64
}

// Config はAuditorの設定
type Config struct {
	Interval         time.Duration // 監査間隔
	CheckConsistency bool          // IsEmptyとSizeの整合性も確認する
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Interval:         1 * time.Second,
		CheckConsistency: true,
	}
}

// Stats は監査統計
type Stats struct {
	TotalAudits uint64 `json:"total_audits"`
	Passed      uint64 `json:"passed"`
	Failed      uint64 `json:"failed"`
	Skipped     uint64 `json:"consistency_skipped"`
	LastError   string `json:"last_error,omitempty"`
}

// Auditor は定期的にツリーの不変条件を検査する
type Auditor struct {
	config   Config
	target   Target
	eventBus *events.Bus

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu    sync.RWMutex
	stats Stats
}

// New は新しいAuditorを作成する
func New(target Target, config Config) *Auditor {
	return &Auditor{
		config: config,
		target: target,
	}
}

// SetEventBus はイベントバスを設定する
func (a *Auditor) SetEventBus(bus *events.Bus) {
	a.eventBus = bus
}

func (a *Auditor) publishEvent(event events.Event) {
	if a.eventBus != nil {
		a.eventBus.Publish(event)
	}
}

// Start は監査を開始する
func (a *Auditor) Start(ctx context.Context) {
	if a.running.Swap(true) {
		return
	}

	a.ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(1)
	go a.auditLoop()

	logger.Info("audit", "Auditor started (interval: %v)", a.config.Interval)
}

// Stop は監査を停止する
func (a *Auditor) Stop() {
	if !a.running.Swap(false) {
		return
	}

	a.cancel()
	a.wg.Wait()

	stats := a.Stats()
	logger.Info("audit", "Auditor stopped (audits: %d passed, %d failed)",
		stats.Passed, stats.Failed)
}

func (a *Auditor) auditLoop() {
	defer a.wg.Done()

	a.mu.RLock()
	interval := a.config.Interval
	a.mu.RUnlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			_ = a.Audit()
		}
	}
}

// Audit は1回分の監査を実行する
func (a *Auditor) Audit() error {
	a.mu.RLock()
	check := a.config.CheckConsistency
	a.mu.RUnlock()

	version := a.target.Version()
	err := a.target.Verify()
	if err == nil && check {
		err = a.checkConsistency()
	}

	a.mu.Lock()
	a.stats.TotalAudits++
	if err != nil {
		a.stats.Failed++
		a.stats.LastError = err.Error()
	} else {
		a.stats.Passed++
	}
	a.mu.Unlock()

	if err != nil {
		logger.Error("audit", "audit failed at version %d: %v", version, err)
		a.publishEvent(events.NewAuditFailedEvent("audit", version, err))
		return err
	}

	size := a.target.Size()
	logger.Debug("audit", "audit passed (entries: %d, version: %d)", size, version)
	a.publishEvent(events.NewAuditPassedEvent("audit", size, version))
	return nil
}

// checkConsistency はIsEmptyとSizeを同じバージョンで読めた場合のみ比較する
func (a *Auditor) checkConsistency() error {
	before := a.target.Version()
	empty := a.target.IsEmpty()
	size := a.target.Size()
	after := a.target.Version()

	if before != after || before&1 == 1 {
		a.mu.Lock()
		a.stats.Skipped++
		a.mu.Unlock()
		return nil
	}
	if empty != (size == 0) {
		return fmt.Errorf("%w: empty=%v size=%d", ErrInconsistent, empty, size)
	}
	return nil
}

// IsRunning は実行中かどうかを返す
func (a *Auditor) IsRunning() bool {
	return a.running.Load()
}

// Stats は監査統計を返す
func (a *Auditor) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// SetConfig は設定を更新する
func (a *Auditor) SetConfig(config Config) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config = config
}

// ResetStats は統計をリセットする
func (a *Auditor) ResetStats() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats = Stats{}
}
