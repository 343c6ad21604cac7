package chaos

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"optimap/internal/client"
	"optimap/internal/events"
	"optimap/internal/logger"
)

// AttackType は障害の種類を表す
type AttackType int

const (
	AttackClear AttackType = iota
	AttackBurst
	AttackScan
)

func (a AttackType) String() string {
	switch a {
	case AttackClear:
		return "clear"
	case AttackBurst:
		return "burst"
	case AttackScan:
		return "scan"
	default:
		return "unknown"
	}
}

// ParseAttackType は名前からAttackTypeを返す
func ParseAttackType(name string) (AttackType, bool) {
	for _, a := range []AttackType{AttackClear, AttackBurst, AttackScan} {
		if a.String() == name {
			return a, true
		}
	}
	return 0, false
}

func (a AttackType) eventType() events.AttackType {
	switch a {
	case AttackBurst:
		return events.AttackTypeBurst
	case AttackScan:
		return events.AttackTypeScan
	default:
		return events.AttackTypeClear
	}
}

// Target はMonkeyが攻撃する操作セット
type Target interface {
	Put(key int, value string) (string, bool)
	Size() int
	ContainsValue(value string) (bool, error)
	Clear()
}

// Config はChaosMonkeyの設定
type Config struct {
	Interval         time.Duration // 攻撃間隔
	AttackTypes      []AttackType  // 有効な攻撃タイプ
	ClearConcurrency int           // Clear攻撃で同時にClearを呼ぶgoroutine数
	BurstSize        int           // Burst攻撃で連続Putする件数
	KeyRange         int           // Burst攻撃のキー範囲
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Interval:         5 * time.Second,
		AttackTypes:      []AttackType{AttackClear, AttackBurst, AttackScan},
		ClearConcurrency: 4,
		BurstSize:        1000,
		KeyRange:         10000,
	}
}

// Stats はカオス攻撃の統計情報
type Stats struct {
	TotalAttacks uint64            `json:"total_attacks"`
	ByType       map[string]uint64 `json:"attacks_by_type"`
}

// Monkey はツリーに対して障害を注入する
type Monkey struct {
	config   Config
	target   Target
	eventBus *events.Bus

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu           sync.RWMutex
	attackCount  uint64
	attackByType map[AttackType]uint64
	lastAttack   time.Time
}

// New は新しいChaosMonkeyを作成する
func New(target Target, config Config) *Monkey {
	return &Monkey{
		config:       config,
		target:       target,
		attackByType: make(map[AttackType]uint64),
	}
}

// SetEventBus はイベントバスを設定する
func (m *Monkey) SetEventBus(bus *events.Bus) {
	m.eventBus = bus
}

func (m *Monkey) publishEvent(event events.Event) {
	if m.eventBus != nil {
		m.eventBus.Publish(event)
	}
}

// Start はカオス注入を開始する
func (m *Monkey) Start(ctx context.Context) {
	if m.running.Swap(true) {
		return
	}

	m.ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go m.attackLoop()

	logger.Info("chaos", "ChaosMonkey started (interval: %v, attacks: %v)",
		m.config.Interval, m.config.AttackTypes)
}

// Stop はカオス注入を停止する
func (m *Monkey) Stop() {
	if !m.running.Swap(false) {
		return
	}

	m.cancel()
	m.wg.Wait()

	logger.Info("chaos", "ChaosMonkey stopped (total attacks: %d)", m.AttackCount())
}

func (m *Monkey) attackLoop() {
	defer m.wg.Done()

	m.mu.RLock()
	interval := m.config.Interval
	m.mu.RUnlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.Attack(m.selectAttackType())
		}
	}
}

// selectAttackType は攻撃タイプをランダムに選択する
func (m *Monkey) selectAttackType() AttackType {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.config.AttackTypes) == 0 {
		return AttackClear
	}
	return m.config.AttackTypes[rand.Intn(len(m.config.AttackTypes))]
}

// Attack は指定された攻撃を1回実行する
func (m *Monkey) Attack(attackType AttackType) {
	m.mu.RLock()
	config := m.config
	m.mu.RUnlock()

	var entries int
	switch attackType {
	case AttackClear:
		entries = m.attackClear(config)
	case AttackBurst:
		entries = m.attackBurst(config)
	case AttackScan:
		entries = m.attackScan()
	default:
		logger.Warn("chaos", "ChaosMonkey: unknown attack %d", attackType)
		return
	}

	m.publishEvent(events.NewChaosAttackEvent("chaos", attackType.eventType(), entries))

	m.mu.Lock()
	m.attackCount++
	m.attackByType[attackType]++
	m.lastAttack = time.Now()
	m.mu.Unlock()
}

// attackClear は複数goroutineから同時にClearを呼ぶ
func (m *Monkey) attackClear(config Config) int {
	n := config.ClearConcurrency
	if n < 1 {
		n = 1
	}
	before := m.target.Size()

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			m.target.Clear()
		}()
	}
	close(start)
	wg.Wait()

	logger.Warn("chaos", "ChaosMonkey: cleared %d entries with %d concurrent clears", before, n)
	return before
}

// attackBurst はランダムな位置から連続したキーを一気にPutする
func (m *Monkey) attackBurst(config Config) int {
	keyRange := config.KeyRange
	if keyRange <= 0 {
		keyRange = DefaultConfig().KeyRange
	}
	offset := rand.Intn(keyRange)

	for i := 0; i < config.BurstSize; i++ {
		key := (offset + i) % keyRange
		m.target.Put(key, client.Value(key))
	}

	logger.Warn("chaos", "ChaosMonkey: burst of %d puts from key %d", config.BurstSize, offset)
	return config.BurstSize
}

// attackScan は全走査を伴う読み取りを発行する
func (m *Monkey) attackScan() int {
	size := m.target.Size()
	probe := client.Value(rand.Intn(size + 1))
	found, err := m.target.ContainsValue(probe)
	if err != nil {
		logger.Error("chaos", "ChaosMonkey: scan failed: %v", err)
		return size
	}

	logger.Warn("chaos", "ChaosMonkey: scanned %d entries (%q found: %v)", size, probe, found)
	return size
}

// IsRunning は実行中かどうかを返す
func (m *Monkey) IsRunning() bool {
	return m.running.Load()
}

// AttackCount は攻撃回数を返す
func (m *Monkey) AttackCount() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.attackCount
}

// LastAttack は最後の攻撃時刻を返す
func (m *Monkey) LastAttack() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAttack
}

// SetConfig は設定を更新する
func (m *Monkey) SetConfig(config Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = config
}

// Stats は攻撃統計を返す
func (m *Monkey) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byType := make(map[string]uint64)
	for t, count := range m.attackByType {
		byType[t.String()] = count
	}

	return Stats{
		TotalAttacks: m.attackCount,
		ByType:       byType,
	}
}
