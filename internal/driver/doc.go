// Package driver は最小構成の並行デモを提供する。
//
// 偶数番のgoroutineはキー0〜K-1に "Value i" を書き込み、
// 奇数番のgoroutineは同じキーを読み取って値を確認する。
// 読み取りの失敗はログに残し、他のgoroutineは止めない。
package driver
