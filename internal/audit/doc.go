// Package audit はツリーの不変条件を定期的に検査する。
//
// Auditorは一定間隔でVerifyを呼び、赤黒木の条件と親リンクを確認する。
// 同じバージョンで読めた場合はIsEmptyとSizeの整合性も比較する。
// 結果はイベントバスへ通知される。
package audit
