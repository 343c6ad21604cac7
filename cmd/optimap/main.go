// Package main is the entry point for optimap.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"optimap/internal/api"
	"optimap/internal/config"
	"optimap/internal/driver"
	"optimap/internal/logger"
	"optimap/internal/scenario"
	"optimap/internal/treemap"
)

var (
	version = "dev"
)

// overrides はコマンドラインで明示的に指定された値
type overrides struct {
	duration   time.Duration
	workers    int
	keyRange   int
	maxRetries int
	chaos      bool
	audit      bool
	setChaos   bool
	setAudit   bool
	setRetries bool
}

func main() {
	// フラグ定義
	var (
		configFile  = flag.String("config", "", "設定ファイルパス (YAML/JSON)")
		presetName  = flag.String("preset", "", "プリセットシナリオ名 (basic, contention, clearstorm, readheavy, quick)")
		duration    = flag.Duration("duration", 0, "シナリオ実行時間 (例: 10s, 1m)")
		workers     = flag.Int("workers", 0, "クライアントワーカー数")
		keyRange    = flag.Int("keys", 0, "キーの範囲")
		maxRetries  = flag.Int("max-retries", 0, "楽観読み取りの試行上限 (0で無制限)")
		enableChaos = flag.Bool("chaos", true, "カオス注入を有効化")
		enableAudit = flag.Bool("audit", true, "定期監査を有効化")
		logLevel    = flag.String("log-level", "", "ログレベル (debug, info, warn, error)")
		listPresets = flag.Bool("list-presets", false, "利用可能なプリセットを表示")
		showVersion = flag.Bool("version", false, "バージョンを表示")
		demo        = flag.Bool("demo", false, "書き込みと読み取りのgoroutineを並行に走らせるデモを実行")
		demoThreads = flag.Int("demo-goroutines", 10, "デモのgoroutine数")
		demoKeys    = flag.Int("demo-keys", 10, "デモのキー数")
		serverMode  = flag.Bool("server", false, "APIサーバーモードで起動")
		serverAddr  = flag.String("addr", ":8080", "サーバーアドレス (例: :8080, 0.0.0.0:3000)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `optimap - Optimistic Concurrent Tree Map Stress Harness

Usage:
  optimap [options]

Options:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # 10 goroutineのデモを実行
  optimap --demo

  # プリセットシナリオを実行
  optimap --preset clearstorm

  # 設定ファイルから実行
  optimap --config scenario.yaml

  # フラグでカスタマイズ
  optimap --preset basic --duration 30s --workers 32 --max-retries 0

  # APIサーバーモードで起動
  optimap --server --addr :3000
`)
	}

	flag.Parse()

	if *logLevel != "" {
		level, err := logger.ParseLevel(*logLevel)
		if err != nil {
			logger.Error("", "設定エラー: %v", err)
			os.Exit(2)
		}
		logger.SetLevel(level)
	}

	if *showVersion {
		fmt.Printf("optimap version %s\n", version)
		return
	}

	if *listPresets {
		printPresets()
		return
	}

	ctx, cancel := signalContext()
	defer cancel()

	if *demo {
		if err := runDemo(ctx, *demoThreads, *demoKeys); err != nil {
			logger.Error("", "デモ実行エラー: %v", err)
			os.Exit(1)
		}
		return
	}

	if *serverMode {
		if err := runServer(ctx, *serverAddr); err != nil {
			logger.Error("", "サーバーエラー: %v", err)
			os.Exit(1)
		}
		return
	}

	o := overrides{
		duration:   *duration,
		workers:    *workers,
		keyRange:   *keyRange,
		maxRetries: *maxRetries,
		chaos:      *enableChaos,
		audit:      *enableAudit,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "chaos":
			o.setChaos = true
		case "audit":
			o.setAudit = true
		case "max-retries":
			o.setRetries = true
		}
	})

	scenarioConfig, err := buildScenarioConfig(*configFile, *presetName, o, *logLevel == "")
	if err != nil {
		logger.Error("", "設定エラー: %v", err)
		os.Exit(1)
	}

	passed, err := runScenario(ctx, scenarioConfig)
	if err != nil {
		logger.Error("", "シナリオ実行エラー: %v", err)
		os.Exit(1)
	}
	if !passed {
		os.Exit(3)
	}
}

// signalContext はSIGINT/SIGTERMでキャンセルされるコンテキストを返す
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			fmt.Println("\n中断シグナルを受信、終了中...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// buildScenarioConfig はシナリオ設定を構築する。
// applyFileLevel が真なら設定ファイルのlog_levelを反映する
func buildScenarioConfig(configFile, presetName string, o overrides, applyFileLevel bool) (scenario.Config, error) {
	var cfg scenario.Config

	switch {
	case configFile != "":
		// 1. 設定ファイルから読み込み
		fileConfig, err := config.LoadFile(configFile)
		if err != nil {
			return cfg, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
		}
		if err := fileConfig.Validate(); err != nil {
			return cfg, fmt.Errorf("設定検証エラー: %w", err)
		}
		cfg, err = fileConfig.ToScenarioConfig()
		if err != nil {
			return cfg, fmt.Errorf("設定変換エラー: %w", err)
		}
		if level, ok, _ := fileConfig.Level(); ok && applyFileLevel {
			logger.SetLevel(level)
		}
	case presetName != "":
		// 2. プリセットから読み込み
		preset, ok := scenario.GetPreset(presetName)
		if !ok {
			return cfg, fmt.Errorf("不明なプリセット: %s (利用可能: %v)", presetName, scenario.ListPresets())
		}
		cfg = preset
	default:
		// 3. デフォルト（quickシナリオ）
		cfg = scenario.QuickScenario()
	}

	// フラグでオーバーライド
	if o.duration > 0 {
		cfg.Duration = o.duration
	}
	if o.workers > 0 {
		cfg.ClientWorkers = o.workers
	}
	if o.keyRange > 0 {
		cfg.KeyRange = o.keyRange
	}

	// フラグが明示的に指定された場合のみオーバーライド
	if o.setRetries {
		if o.maxRetries < 0 {
			return cfg, fmt.Errorf("max-retries must be non-negative")
		}
		cfg.MaxRetries = o.maxRetries
	}
	if o.setChaos {
		cfg.EnableChaos = o.chaos
	}
	if o.setAudit {
		cfg.EnableAudit = o.audit
	}

	return cfg, nil
}

// runScenario はシナリオを実行し、成否を返す
func runScenario(ctx context.Context, cfg scenario.Config) (bool, error) {
	fmt.Println("optimap - Optimistic Concurrent Tree Map Stress Harness")
	fmt.Println("=======================================================")
	fmt.Printf("Scenario: %s\n", cfg.Name)
	fmt.Printf("Duration: %v\n", cfg.Duration)
	fmt.Printf("Workers: %d, Keys: %d, MaxRetries: %d\n", cfg.ClientWorkers, cfg.KeyRange, cfg.MaxRetries)
	fmt.Printf("Chaos: %v, Audit: %v\n", cfg.EnableChaos, cfg.EnableAudit)
	fmt.Println("=======================================================")
	fmt.Println()

	engine := scenario.New(cfg)
	result, err := engine.Run(ctx)
	if err != nil {
		return false, err
	}

	fmt.Println(result.Report())

	return result.Passed(), nil
}

// runDemo は書き込みと読み取りを並行に走らせ、最終状態を表示する
func runDemo(ctx context.Context, goroutines, keys int) error {
	tree := treemap.New[int, string]()

	report, err := driver.Run(ctx, tree, driver.Config{Goroutines: goroutines, Keys: keys})

	out, _ := json.MarshalIndent(struct {
		Report driver.Report `json:"report"`
		Size   int           `json:"size"`
		Tree   treemap.Stats `json:"tree"`
	}{report, tree.Size(), tree.Stats()}, "", "  ")
	fmt.Println(string(out))

	if err != nil {
		return err
	}
	return tree.Verify()
}

// printPresets は利用可能なプリセットを表示する
func printPresets() {
	fmt.Println("利用可能なプリセットシナリオ:")
	fmt.Println()

	for _, name := range scenario.ListPresets() {
		cfg, _ := scenario.GetPreset(name)
		fmt.Printf("  %-12s %-8v %s\n", name, cfg.Duration, cfg.Description)
	}

	fmt.Println()
	fmt.Println("使用例: optimap --preset quick")
}

// runServer はAPIサーバーを起動する
func runServer(ctx context.Context, addr string) error {
	fmt.Println("optimap - API Server")
	fmt.Println("====================")
	fmt.Printf("Starting server on http://%s\n", addr)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	server := api.NewServer(addr)
	return server.Start(ctx)
}
