package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Op はマップ操作の種類を表す
type Op int

const (
	OpPut Op = iota
	OpGet
	OpContainsKey
	OpContainsValue
	OpSize
	OpClear
	OpRemove
	numOps
)

func (o Op) String() string {
	switch o {
	case OpPut:
		return "put"
	case OpGet:
		return "get"
	case OpContainsKey:
		return "contains_key"
	case OpContainsValue:
		return "contains_value"
	case OpSize:
		return "size"
	case OpClear:
		return "clear"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Config はメトリクスの設定
type Config struct {
	MaxLatencySamples int // P99計算用に保持するサンプル数
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{MaxLatencySamples: 1000}
}

// Metrics は操作ごとのメトリクスを収集する
type Metrics struct {
	totalOps       atomic.Uint64
	failedOps      atomic.Uint64
	totalLatencyNs atomic.Uint64
	byOp           [numOps]atomic.Uint64
	hits           atomic.Uint64 // Get/ContainsKey で見つかった数
	misses         atomic.Uint64

	mu                sync.RWMutex
	startTime         time.Time
	lastResetTime     time.Time
	windowOps         uint64
	latencies         []time.Duration
	maxLatencySamples int
}

// New は新しいメトリクスを作成する
func New() *Metrics {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig は設定を指定してメトリクスを作成する
func NewWithConfig(config Config) *Metrics {
	samples := config.MaxLatencySamples
	if samples <= 0 {
		samples = 1000
	}
	now := time.Now()
	return &Metrics{
		startTime:         now,
		lastResetTime:     now,
		latencies:         make([]time.Duration, 0, samples),
		maxLatencySamples: samples,
	}
}

// Record は操作の結果を記録する
func (m *Metrics) Record(op Op, latency time.Duration, err error) {
	m.totalOps.Add(1)
	if op >= 0 && op < numOps {
		m.byOp[op].Add(1)
	}
	m.totalLatencyNs.Add(uint64(latency.Nanoseconds()))
	if err != nil {
		m.failedOps.Add(1)
	}

	m.mu.Lock()
	m.windowOps++
	if err == nil && len(m.latencies) < m.maxLatencySamples {
		m.latencies = append(m.latencies, latency)
	}
	m.mu.Unlock()
}

// RecordLookup は検索結果（ヒット/ミス）を記録する
func (m *Metrics) RecordLookup(found bool) {
	if found {
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
}

// TotalOps は総操作数を返す
func (m *Metrics) TotalOps() uint64 {
	return m.totalOps.Load()
}

// FailedOps は失敗した操作数を返す
func (m *Metrics) FailedOps() uint64 {
	return m.failedOps.Load()
}

// OpCount は指定操作の回数を返す
func (m *Metrics) OpCount(op Op) uint64 {
	if op < 0 || op >= numOps {
		return 0
	}
	return m.byOp[op].Load()
}

// HitRate は検索のヒット率を返す（0.0〜1.0）
func (m *Metrics) HitRate() float64 {
	hits, misses := m.hits.Load(), m.misses.Load()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// OPS は現在のウィンドウのOperations Per Secondを返す
func (m *Metrics) OPS() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	elapsed := time.Since(m.lastResetTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.windowOps) / elapsed
}

// OverallOPS は開始からの平均OPSを返す
func (m *Metrics) OverallOPS() float64 {
	elapsed := time.Since(m.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(m.totalOps.Load()) / elapsed
}

// AverageLatency は平均レイテンシを返す
func (m *Metrics) AverageLatency() time.Duration {
	total := m.totalOps.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.totalLatencyNs.Load() / total)
}

// P99Latency はP99レイテンシを返す（サンプルベース）
func (m *Metrics) P99Latency() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencies) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	idx := int(float64(len(sorted)) * 0.99)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// ErrorRate はエラー率を返す（0.0〜1.0）
func (m *Metrics) ErrorRate() float64 {
	total := m.totalOps.Load()
	if total == 0 {
		return 0
	}
	return float64(m.failedOps.Load()) / float64(total)
}

// Reset はウィンドウメトリクスをリセットする
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.windowOps = 0
	m.lastResetTime = time.Now()
	m.latencies = m.latencies[:0]
}

// Snapshot はメトリクスのスナップショット
type Snapshot struct {
	TotalOps       uint64            `json:"total_ops"`
	FailedOps      uint64            `json:"failed_ops"`
	ByOp           map[string]uint64 `json:"by_op"`
	HitRate        float64           `json:"hit_rate"`
	OPS            float64           `json:"ops"`
	OverallOPS     float64           `json:"overall_ops"`
	AverageLatency time.Duration     `json:"average_latency"`
	P99Latency     time.Duration     `json:"p99_latency"`
	ErrorRate      float64           `json:"error_rate"`
	Elapsed        time.Duration     `json:"elapsed"`
}

// Snapshot は現在のメトリクスのスナップショットを返す
func (m *Metrics) Snapshot() Snapshot {
	byOp := make(map[string]uint64, numOps)
	for op := Op(0); op < numOps; op++ {
		if n := m.byOp[op].Load(); n > 0 {
			byOp[op.String()] = n
		}
	}

	return Snapshot{
		TotalOps:       m.TotalOps(),
		FailedOps:      m.FailedOps(),
		ByOp:           byOp,
		HitRate:        m.HitRate(),
		OPS:            m.OPS(),
		OverallOPS:     m.OverallOPS(),
		AverageLatency: m.AverageLatency(),
		P99Latency:     m.P99Latency(),
		ErrorRate:      m.ErrorRate(),
		Elapsed:        time.Since(m.startTime),
	}
}
