package scenario

import (
	"time"

	"optimap/internal/chaos"
)

// BasicScenario は基本的なシナリオ設定を返す
// カオス注入なし、Put/Getの純粋な負荷テスト
func BasicScenario() Config {
	return Config{
		Name:          "basic",
		Description:   "Mixed put/get load without disruptions",
		Duration:      10 * time.Second,
		MaxRetries:    1024,
		ClientWorkers: 10,
		WriteRatio:    0.5,
		ScanRatio:     0.01,
		KeyRange:      10000,
		EnableChaos:   false,
		EnableAudit:   true,
		AuditInterval: 1 * time.Second,
	}
}

// ContentionScenario は書き込み競合シナリオを返す
// 書き込み多め、削除あり、狭いキー範囲
func ContentionScenario() Config {
	return Config{
		Name:          "contention",
		Description:   "Write-heavy load with removes on a small key range",
		Duration:      15 * time.Second,
		MaxRetries:    1024,
		ClientWorkers: 32,
		WriteRatio:    0.6,
		RemoveRatio:   0.2,
		ScanRatio:     0.01,
		KeyRange:      256,
		EnableChaos:   true,
		ChaosInterval: 1 * time.Second,
		AttackTypes:   []chaos.AttackType{chaos.AttackBurst, chaos.AttackScan},
		BurstSize:     256,
		EnableAudit:   true,
		AuditInterval: 250 * time.Millisecond,
	}
}

// ClearStormScenario はClear競合シナリオを返す
// クライアントとカオスの両方から頻繁にClearする
func ClearStormScenario() Config {
	return Config{
		Name:             "clearstorm",
		Description:      "Frequent concurrent clears racing with writers",
		Duration:         10 * time.Second,
		MaxRetries:       1024,
		ClientWorkers:    16,
		WriteRatio:       0.5,
		ClearRatio:       0.01,
		KeyRange:         5000,
		EnableChaos:      true,
		ChaosInterval:    200 * time.Millisecond,
		AttackTypes:      []chaos.AttackType{chaos.AttackClear},
		ClearConcurrency: 16,
		EnableAudit:      true,
		AuditInterval:    200 * time.Millisecond,
	}
}

// ReadHeavyScenario は読み取り中心シナリオを返す
// 読み取りの再試行とロックフォールバックを観察する
func ReadHeavyScenario() Config {
	return Config{
		Name:          "readheavy",
		Description:   "Read-mostly load with full scans",
		Duration:      10 * time.Second,
		MaxRetries:    64,
		ClientWorkers: 32,
		WriteRatio:    0.05,
		ScanRatio:     0.05,
		KeyRange:      20000,
		EnableChaos:   true,
		ChaosInterval: 1 * time.Second,
		AttackTypes:   []chaos.AttackType{chaos.AttackBurst},
		BurstSize:     5000,
		EnableAudit:   true,
		AuditInterval: 1 * time.Second,
	}
}

// QuickScenario はクイックテスト用シナリオを返す
// 短時間での動作確認用
func QuickScenario() Config {
	return Config{
		Name:          "quick",
		Description:   "Quick test for verification",
		Duration:      3 * time.Second,
		MaxRetries:    1024,
		ClientWorkers: 4,
		WriteRatio:    0.5,
		RemoveRatio:   0.1,
		ScanRatio:     0.01,
		KeyRange:      1000,
		EnableChaos:   true,
		ChaosInterval: 500 * time.Millisecond,
		AttackTypes:   []chaos.AttackType{chaos.AttackClear, chaos.AttackBurst, chaos.AttackScan},
		BurstSize:     200,
		EnableAudit:   true,
		AuditInterval: 250 * time.Millisecond,
	}
}

// GetPreset は名前からプリセットシナリオを取得する
func GetPreset(name string) (Config, bool) {
	presets := map[string]func() Config{
		"basic":      BasicScenario,
		"contention": ContentionScenario,
		"clearstorm": ClearStormScenario,
		"readheavy":  ReadHeavyScenario,
		"quick":      QuickScenario,
	}

	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	return []string{"basic", "contention", "clearstorm", "readheavy", "quick"}
}
