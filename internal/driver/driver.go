package driver

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"optimap/internal/client"
	"optimap/internal/logger"
)

// Map はDriverが使う操作セット
type Map interface {
	Put(key int, value string) (string, bool)
	Get(key int) (string, bool)
}

// Config はDriverの設定
type Config struct {
	Goroutines int // 起動するgoroutine数。偶数番が書き込み、奇数番が読み取り
	Keys       int // 各goroutineが扱うキー数（0〜Keys-1）
	Limit      int // 同時実行数の上限（0で無制限）
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Goroutines: 10,
		Keys:       10,
	}
}

// Report は実行結果
type Report struct {
	Writers  int    `json:"writers"`
	Readers  int    `json:"readers"`
	Inserted uint64 `json:"inserted"`
	Replaced uint64 `json:"replaced"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Errors   uint64 `json:"errors"`
}

// Run は書き込みと読み取りのgoroutineを並行に走らせ、全員の終了を待つ。
// 1つのgoroutineが失敗しても他は最後まで走り、最初のエラーが返る。
func Run(ctx context.Context, m Map, config Config) (Report, error) {
	if config.Goroutines <= 0 {
		config.Goroutines = DefaultConfig().Goroutines
	}
	if config.Keys <= 0 {
		config.Keys = DefaultConfig().Keys
	}

	var (
		g                                          errgroup.Group
		inserted, replaced, hits, misses, failures atomic.Uint64
		report                                     Report
	)
	if config.Limit > 0 {
		g.SetLimit(config.Limit)
	}

	for id := 0; id < config.Goroutines; id++ {
		scope := fmt.Sprintf("driver-%d", id)
		if id%2 == 0 {
			report.Writers++
			g.Go(func() error {
				for key := 0; key < config.Keys; key++ {
					if err := ctx.Err(); err != nil {
						return err
					}
					if _, ok := m.Put(key, client.Value(key)); ok {
						replaced.Add(1)
					} else {
						inserted.Add(1)
					}
				}
				logger.Debug(scope, "inserted %d keys", config.Keys)
				return nil
			})
			continue
		}

		report.Readers++
		g.Go(func() error {
			var firstErr error
			for key := 0; key < config.Keys; key++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				value, ok := m.Get(key)
				if !ok {
					misses.Add(1)
					logger.Debug(scope, "key=%d not present yet", key)
					continue
				}
				hits.Add(1)
				logger.Debug(scope, "key=%d value=%s", key, value)
				if value != client.Value(key) {
					failures.Add(1)
					err := fmt.Errorf("%s: key %d holds %q", scope, key, value)
					logger.Error(scope, "%v", err)
					if firstErr == nil {
						firstErr = err
					}
				}
			}
			return firstErr
		})
	}

	err := g.Wait()

	report.Inserted = inserted.Load()
	report.Replaced = replaced.Load()
	report.Hits = hits.Load()
	report.Misses = misses.Load()
	report.Errors = failures.Load()

	logger.Info("driver", "done: %d writers, %d readers, %d inserted, %d replaced, %d hits, %d misses",
		report.Writers, report.Readers, report.Inserted, report.Replaced, report.Hits, report.Misses)
	return report, err
}
