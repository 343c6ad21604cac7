package scenario

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"optimap/internal/audit"
	"optimap/internal/chaos"
	"optimap/internal/client"
	"optimap/internal/events"
	"optimap/internal/logger"
	"optimap/internal/metrics"
	"optimap/internal/treemap"
)

// Config はシナリオの設定
type Config struct {
	Name        string        // シナリオ名
	Description string        // 説明
	Duration    time.Duration // 実行時間

	// ツリー設定
	MaxRetries int // 楽観読み取りの試行上限（0で無制限）

	// クライアント設定
	ClientWorkers     int     // ワーカー数
	WriteRatio        float64 // 書き込み比率
	RemoveRatio       float64 // 削除比率
	ClearRatio        float64 // Clear比率
	ScanRatio         float64 // 全走査比率
	KeyRange          int     // キーの範囲
	RequestsPerSecond float64 // 秒間リクエスト上限（0で無制限）

	// カオス設定
	EnableChaos      bool               // カオス注入を有効化
	ChaosInterval    time.Duration      // 攻撃間隔
	AttackTypes      []chaos.AttackType // 有効な攻撃タイプ
	ClearConcurrency int                // Clear攻撃の同時実行数
	BurstSize        int                // Burst攻撃の件数

	// 監査設定
	EnableAudit   bool          // 監査を有効化
	AuditInterval time.Duration // 監査間隔
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Name:             "default",
		Description:      "Default scenario",
		Duration:         10 * time.Second,
		MaxRetries:       treemap.DefaultConfig().MaxRetries,
		ClientWorkers:    10,
		WriteRatio:       0.5,
		ScanRatio:        0.01,
		KeyRange:         10000,
		EnableChaos:      true,
		ChaosInterval:    2 * time.Second,
		AttackTypes:      []chaos.AttackType{chaos.AttackClear, chaos.AttackBurst, chaos.AttackScan},
		ClearConcurrency: 4,
		BurstSize:        1000,
		EnableAudit:      true,
		AuditInterval:    500 * time.Millisecond,
	}
}

// Result はシナリオ実行結果
type Result struct {
	ScenarioName string        `json:"scenario_name"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`

	// メトリクス
	TotalOps   uint64            `json:"total_ops"`
	FailedOps  uint64            `json:"failed_ops"`
	ByOp       map[string]uint64 `json:"by_op"`
	ErrorRate  float64           `json:"error_rate"`
	HitRate    float64           `json:"hit_rate"`
	OPS        float64           `json:"ops"`
	AvgLatency time.Duration     `json:"avg_latency"`
	P99Latency time.Duration     `json:"p99_latency"`

	// カオス統計
	TotalAttacks  uint64            `json:"total_attacks"`
	AttacksByType map[string]uint64 `json:"attacks_by_type,omitempty"`

	// 監査統計
	Audit audit.Stats `json:"audit"`

	// ツリーの最終状態
	Tree        treemap.Stats `json:"tree"`
	FinalSize   int           `json:"final_size"`
	VerifyError string        `json:"verify_error,omitempty"`
}

// Passed は最終検査と監査がすべて成功したかを返す
func (r *Result) Passed() bool {
	return r.VerifyError == "" && r.Audit.Failed == 0 && r.FailedOps == 0
}

// Engine はシナリオ実行エンジン
type Engine struct {
	config   Config
	eventBus *events.Bus

	tree    *treemap.Tree[int, string]
	client  *client.Client
	monkey  *chaos.Monkey
	auditor *audit.Auditor

	mu      sync.RWMutex
	running bool
}

// New は新しいEngineを作成する
func New(config Config) *Engine {
	return &Engine{
		config: config,
	}
}

// SetEventBus はイベントバスを設定する
func (e *Engine) SetEventBus(bus *events.Bus) {
	e.eventBus = bus
}

// Run はシナリオを実行する
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("scenario is already running")
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	if e.config.Duration <= 0 {
		return nil, fmt.Errorf("invalid duration %v", e.config.Duration)
	}

	logger.Info("scenario", "=== Scenario '%s' started ===", e.config.Name)
	logger.Info("scenario", "Description: %s", e.config.Description)

	result := &Result{
		ScenarioName: e.config.Name,
		StartTime:    time.Now(),
	}

	e.setup()

	scenarioCtx, cancel := context.WithTimeout(ctx, e.config.Duration)
	defer cancel()

	e.runScenario(scenarioCtx)
	e.teardown()

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	e.collectResults(result)

	if e.eventBus != nil {
		e.eventBus.Publish(events.NewScenarioCompleteEvent(e.config.Name, result.FinalSize))
	}
	logger.Info("scenario", "=== Scenario '%s' completed ===", e.config.Name)

	return result, nil
}

// setup はシナリオ実行前のセットアップ
func (e *Engine) setup() {
	treeConfig := treemap.DefaultConfig()
	treeConfig.MaxRetries = e.config.MaxRetries
	tree := treemap.NewWithConfig[int, string](cmp.Compare[int], treeConfig)

	clientConfig := client.DefaultConfig()
	clientConfig.NumWorkers = e.config.ClientWorkers
	clientConfig.WriteRatio = e.config.WriteRatio
	clientConfig.RemoveRatio = e.config.RemoveRatio
	clientConfig.ClearRatio = e.config.ClearRatio
	clientConfig.ScanRatio = e.config.ScanRatio
	clientConfig.KeyRange = e.config.KeyRange
	clientConfig.RequestsPerSecond = e.config.RequestsPerSecond

	var monkey *chaos.Monkey
	if e.config.EnableChaos {
		chaosConfig := chaos.DefaultConfig()
		chaosConfig.Interval = e.config.ChaosInterval
		chaosConfig.AttackTypes = e.config.AttackTypes
		chaosConfig.KeyRange = e.config.KeyRange
		if e.config.ClearConcurrency > 0 {
			chaosConfig.ClearConcurrency = e.config.ClearConcurrency
		}
		if e.config.BurstSize > 0 {
			chaosConfig.BurstSize = e.config.BurstSize
		}
		monkey = chaos.New(tree, chaosConfig)
		if e.eventBus != nil {
			monkey.SetEventBus(e.eventBus)
		}
	}

	var auditor *audit.Auditor
	if e.config.EnableAudit {
		auditConfig := audit.DefaultConfig()
		auditConfig.Interval = e.config.AuditInterval
		auditor = audit.New(tree, auditConfig)
		if e.eventBus != nil {
			auditor.SetEventBus(e.eventBus)
		}
	}

	e.mu.Lock()
	e.tree = tree
	e.client = client.New(tree, clientConfig)
	e.monkey = monkey
	e.auditor = auditor
	e.mu.Unlock()
}

// teardown はシナリオ実行後のクリーンアップ
func (e *Engine) teardown() {
	e.client.Stop()
	if e.monkey != nil {
		e.monkey.Stop()
	}
	if e.auditor != nil {
		e.auditor.Stop()
	}
}

// runScenario はシナリオのメイン処理
func (e *Engine) runScenario(ctx context.Context) {
	e.client.Start(ctx)

	if e.monkey != nil {
		e.monkey.Start(ctx)
	}
	if e.auditor != nil {
		e.auditor.Start(ctx)
	}

	<-ctx.Done()

	logger.Info("scenario", "Scenario duration completed, stopping components...")
}

// collectResults は結果を収集する
func (e *Engine) collectResults(result *Result) {
	snapshot := e.client.Metrics().Snapshot()
	result.TotalOps = snapshot.TotalOps
	result.FailedOps = snapshot.FailedOps
	result.ByOp = snapshot.ByOp
	result.ErrorRate = snapshot.ErrorRate
	result.HitRate = snapshot.HitRate
	result.OPS = snapshot.OverallOPS
	result.AvgLatency = snapshot.AverageLatency
	result.P99Latency = snapshot.P99Latency

	if e.monkey != nil {
		stats := e.monkey.Stats()
		result.TotalAttacks = stats.TotalAttacks
		result.AttacksByType = stats.ByType
	}

	if e.auditor != nil {
		// 停止後に最終監査を1回行う
		_ = e.auditor.Audit()
		result.Audit = e.auditor.Stats()
	}

	result.Tree = e.tree.Stats()
	result.FinalSize = e.tree.Size()
	if err := e.tree.Verify(); err != nil {
		result.VerifyError = err.Error()
	}
}

// Report は結果をフォーマットして返す
func (r *Result) Report() string {
	status := "PASSED"
	if !r.Passed() {
		status = "FAILED"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `
================================================================================
                         SCENARIO REPORT: %s
================================================================================

EXECUTION SUMMARY
-----------------
  Start Time:     %s
  End Time:       %s
  Duration:       %v
  Status:         %s

TRAFFIC METRICS
---------------
  Total Ops:        %d
  Failed:           %d
  Error Rate:       %.2f%%
  Hit Rate:         %.2f%%
  Throughput:       %.0f ops/s
  Avg Latency:      %v
  P99 Latency:      %v
`,
		r.ScenarioName,
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.EndTime.Format("2006-01-02 15:04:05"),
		r.Duration.Round(time.Millisecond),
		status,
		r.TotalOps,
		r.FailedOps,
		r.ErrorRate*100,
		r.HitRate*100,
		r.OPS,
		r.AvgLatency.Round(time.Microsecond),
		r.P99Latency.Round(time.Microsecond),
	)
	writeCounts(&b, r.ByOp)

	fmt.Fprintf(&b, `
CHAOS STATISTICS
----------------
  Total Attacks:    %d
`, r.TotalAttacks)
	writeCounts(&b, r.AttacksByType)

	fmt.Fprintf(&b, `
AUDIT STATISTICS
----------------
  Total Audits:     %d
  Passed:           %d
  Failed:           %d
  Skipped Checks:   %d
`, r.Audit.TotalAudits, r.Audit.Passed, r.Audit.Failed, r.Audit.Skipped)
	if r.Audit.LastError != "" {
		fmt.Fprintf(&b, "  Last Error:       %s\n", r.Audit.LastError)
	}

	fmt.Fprintf(&b, `
TREE STATE
----------
  Final Size:       %d
  Mutations:        %d
  Rotations:        %d
  Recolors:         %d
  Clears:           %d (CAS conflicts: %d)
  Read Retries:     %d
  Lock Fallbacks:   %d
`,
		r.FinalSize,
		r.Tree.Mutations,
		r.Tree.Rotations,
		r.Tree.Recolors,
		r.Tree.Clears,
		r.Tree.ClearConflicts,
		r.Tree.Retries,
		r.Tree.Fallbacks,
	)
	if r.VerifyError != "" {
		fmt.Fprintf(&b, "  Verify Error:     %s\n", r.VerifyError)
	}

	b.WriteString("\n================================================================================")
	return b.String()
}

// writeCounts は名前順にカウントを書き出す
func writeCounts(b *strings.Builder, counts map[string]uint64) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(b, "    %-16s %d\n", name+":", counts[name])
	}
}

// IsRunning は実行中かどうかを返す
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Config はシナリオ設定を返す
func (e *Engine) Config() Config {
	return e.config
}

// ChaosStats はカオス統計を返す
func (e *Engine) ChaosStats() *chaos.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.monkey == nil {
		return nil
	}
	stats := e.monkey.Stats()
	return &stats
}

// AuditStats は監査統計を返す
func (e *Engine) AuditStats() *audit.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.auditor == nil {
		return nil
	}
	stats := e.auditor.Stats()
	return &stats
}

// Metrics はクライアントメトリクスを返す
func (e *Engine) Metrics() *metrics.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.client == nil {
		return nil
	}
	snapshot := e.client.Metrics().Snapshot()
	return &snapshot
}

// TreeStats はツリーの統計を返す
func (e *Engine) TreeStats() *treemap.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.tree == nil {
		return nil
	}
	stats := e.tree.Stats()
	return &stats
}
