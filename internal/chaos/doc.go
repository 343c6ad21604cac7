// Package chaos はツリーに対する障害注入機能を提供する。
//
// Monkeyは一定間隔でツリーに負荷の高い操作を差し込み、
// 並行読み取りや監査が壊れないことを確かめるために使用される。
//
// # 障害タイプ
//
// - Clear: 複数goroutineから同時にClearを呼ぶ
// - Burst: 連続したキーを一気にPutする
// - Scan: SizeとContainsValueで全ノードを走査する
//
// # 使用例
//
//	config := chaos.DefaultConfig()
//	config.Interval = 500 * time.Millisecond
//	config.AttackTypes = []chaos.AttackType{chaos.AttackClear}
//
//	monkey := chaos.New(tree, config)
//	monkey.Start(ctx)
//	defer monkey.Stop()
package chaos
