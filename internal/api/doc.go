// Package api は共有マップとシナリオ実行をHTTPで公開する。
//
// /api/map 以下で文字列キーのマップを直接操作でき、
// /api/scenario でプリセットシナリオを開始・停止する。
// /ws はステータスとイベントをJSONで配信するWebSocket。
package api
