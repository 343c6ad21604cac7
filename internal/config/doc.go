// Package config はYAML/JSON形式のシナリオ設定ファイルを読み込む。
package config
