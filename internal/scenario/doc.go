// Package scenario は統合シナリオ実行機能を提供する。
//
// シナリオエンジンはツリー、Client、ChaosMonkey、Auditorを
// 連携させて一定時間の負荷試験を実行する。
//
// # 機能
//
// - シナリオ定義と実行
// - 定義済みプリセットシナリオ
// - 実行結果のレポート生成
//
// # プリセットシナリオ
//
// - basic: カオスなしの基本負荷テスト
// - contention: 狭いキー範囲での書き込み競合
// - clearstorm: 並行Clearと書き込みの競合
// - readheavy: 読み取り中心、全走査あり
// - quick: 短時間の動作確認
//
// # 使用例
//
//	config := scenario.ClearStormScenario()
//	engine := scenario.New(config)
//	result, err := engine.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Report())
package scenario
