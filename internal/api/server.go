package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"optimap/internal/audit"
	"optimap/internal/chaos"
	"optimap/internal/events"
	"optimap/internal/logger"
	"optimap/internal/metrics"
	"optimap/internal/scenario"
	"optimap/internal/treemap"

	"golang.org/x/net/websocket"
)

// Server はAPIサーバー
type Server struct {
	addr     string
	tree     *treemap.Tree[string, string]
	eventBus *events.Bus

	mu        sync.RWMutex
	engine    *scenario.Engine
	config    scenario.Config
	running   bool
	cancel    context.CancelFunc
	wsClients map[*websocket.Conn]bool

	server *http.Server
}

// NewServer は新しいAPIサーバーを作成する
func NewServer(addr string) *Server {
	config := treemap.DefaultConfig()
	config.Name = "api"
	return &Server{
		addr:      addr,
		tree:      treemap.NewWithConfig[string, string](strings.Compare, config),
		eventBus:  events.NewBus(),
		wsClients: make(map[*websocket.Conn]bool),
	}
}

// Tree はAPIで公開している共有マップを返す
func (s *Server) Tree() *treemap.Tree[string, string] {
	return s.tree
}

// EventBus はイベントバスを返す
func (s *Server) EventBus() *events.Bus {
	return s.eventBus
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/presets", s.handlePresets)
	mux.HandleFunc("/api/map", s.handleMap)
	mux.HandleFunc("/api/map/", s.handleMapKey)
	mux.HandleFunc("/api/scenario/start", s.handleScenarioStart)
	mux.HandleFunc("/api/scenario/stop", s.handleScenarioStop)

	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))

	return mux
}

// Start はサーバーを開始する
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	// バックグラウンドでステータスとイベントを配信
	go s.broadcastLoop(ctx)
	go s.forwardEvents(ctx)

	logger.Info("api", "API Server starting on http://%s", s.addr)

	go func() {
		<-ctx.Done()
		s.stopScenario()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StatusResponse はステータスレスポンス
type StatusResponse struct {
	Running      bool           `json:"running"`
	ScenarioName string         `json:"scenario_name,omitempty"`
	MapSize      int            `json:"map_size"`
	MapVersion   uint64         `json:"map_version"`
	Chaos        *chaos.Stats   `json:"chaos,omitempty"`
	Audit        *audit.Stats   `json:"audit,omitempty"`
	Tree         *treemap.Stats `json:"scenario_tree,omitempty"`
}

func (s *Server) status() StatusResponse {
	s.mu.RLock()
	resp := StatusResponse{
		Running:      s.running,
		ScenarioName: s.config.Name,
	}
	engine := s.engine
	s.mu.RUnlock()

	resp.MapSize = s.tree.Size()
	resp.MapVersion = s.tree.Version()
	if engine != nil {
		resp.Chaos = engine.ChaosStats()
		resp.Audit = engine.AuditStats()
		resp.Tree = engine.TreeStats()
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, s.status())
}

// MetricsResponse はメトリクスレスポンス
type MetricsResponse struct {
	TotalOps     uint64            `json:"total_ops"`
	FailedOps    uint64            `json:"failed_ops"`
	ByOp         map[string]uint64 `json:"by_op,omitempty"`
	OPS          float64           `json:"ops"`
	HitRate      float64           `json:"hit_rate"`
	AvgLatencyMs float64           `json:"avg_latency_ms"`
	P99LatencyMs float64           `json:"p99_latency_ms"`
	ErrorRate    float64           `json:"error_rate"`
}

func newMetricsResponse(snapshot *metrics.Snapshot) MetricsResponse {
	if snapshot == nil {
		return MetricsResponse{}
	}
	return MetricsResponse{
		TotalOps:     snapshot.TotalOps,
		FailedOps:    snapshot.FailedOps,
		ByOp:         snapshot.ByOp,
		OPS:          snapshot.OPS,
		HitRate:      snapshot.HitRate,
		AvgLatencyMs: float64(snapshot.AverageLatency) / float64(time.Millisecond),
		P99LatencyMs: float64(snapshot.P99Latency) / float64(time.Millisecond),
		ErrorRate:    snapshot.ErrorRate,
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()

	var snapshot *metrics.Snapshot
	if engine != nil {
		snapshot = engine.Metrics()
	}

	s.writeJSON(w, newMetricsResponse(snapshot))
}

// MapResponse は共有マップ全体の情報
type MapResponse struct {
	Size          int           `json:"size"`
	Empty         bool          `json:"empty"`
	Version       uint64        `json:"version"`
	Stats         treemap.Stats `json:"stats"`
	ContainsValue *bool         `json:"contains_value,omitempty"`
}

// handleMap は /api/map を処理する。GETで統計、DELETEでClear
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		resp := MapResponse{
			Size:    s.tree.Size(),
			Empty:   s.tree.IsEmpty(),
			Version: s.tree.Version(),
			Stats:   s.tree.Stats(),
		}
		if r.URL.Query().Has("value") {
			found, err := s.tree.ContainsValue(r.URL.Query().Get("value"))
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			resp.ContainsValue = &found
		}
		s.writeJSON(w, resp)
	case http.MethodDelete:
		s.tree.Clear()
		logger.Info("api", "map cleared")
		s.writeJSON(w, map[string]string{"status": "cleared"})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// EntryResponse は1エントリの情報
type EntryResponse struct {
	Key      string `json:"key"`
	Value    string `json:"value,omitempty"`
	Found    bool   `json:"found"`
	Previous string `json:"previous,omitempty"`
	Replaced bool   `json:"replaced,omitempty"`
}

// EntryRequest はPUTのリクエストボディ
type EntryRequest struct {
	Value string `json:"value"`
}

// handleMapKey は /api/map/{key} を処理する
func (s *Server) handleMapKey(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/api/map/")
	if key == "" {
		http.Error(w, "Missing key", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		value, ok := s.tree.Get(key)
		s.writeJSONStatus(w, foundStatus(ok), EntryResponse{Key: key, Value: value, Found: ok})
	case http.MethodPut:
		var req EntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		previous, replaced := s.tree.Put(key, req.Value)
		s.writeJSON(w, EntryResponse{
			Key:      key,
			Value:    req.Value,
			Found:    true,
			Previous: previous,
			Replaced: replaced,
		})
	case http.MethodDelete:
		value, ok := s.tree.Remove(key)
		s.writeJSONStatus(w, foundStatus(ok), EntryResponse{Key: key, Value: value, Found: ok})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ScenarioRequest はシナリオ開始リクエスト
type ScenarioRequest struct {
	Preset   string `json:"preset"`
	Duration string `json:"duration,omitempty"`
	Workers  int    `json:"workers,omitempty"`
}

func (s *Server) handleScenarioStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	config, ok := scenario.GetPreset(req.Preset)
	if !ok {
		config = scenario.QuickScenario()
	}
	if req.Duration != "" {
		d, err := time.ParseDuration(req.Duration)
		if err != nil || d <= 0 {
			http.Error(w, "Invalid duration", http.StatusBadRequest)
			return
		}
		config.Duration = d
	}
	if req.Workers > 0 {
		config.ClientWorkers = req.Workers
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		http.Error(w, "Scenario already running", http.StatusConflict)
		return
	}

	engine := scenario.New(config)
	engine.SetEventBus(s.eventBus)
	ctx, cancel := context.WithCancel(context.Background())

	s.config = config
	s.engine = engine
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	// バックグラウンドで実行
	go func() {
		defer cancel()
		result, err := engine.Run(ctx)

		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()

		if err != nil {
			logger.Error("api", "Scenario failed: %v", err)
			return
		}
		logger.Info("api", "Scenario completed: %d ops", result.TotalOps)

		s.broadcast(map[string]interface{}{
			"type":   "scenario_complete",
			"result": result,
		})
	}()

	s.writeJSON(w, map[string]string{"status": "started", "scenario": config.Name})
}

func (s *Server) handleScenarioStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.stopScenario() {
		http.Error(w, "No scenario running", http.StatusBadRequest)
		return
	}

	s.writeJSON(w, map[string]string{"status": "stop requested"})
}

// stopScenario は実行中のシナリオをキャンセルする
func (s *Server) stopScenario() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

// PresetInfo はプリセット情報
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Duration    string `json:"duration"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var presets []PresetInfo
	for _, name := range scenario.ListPresets() {
		config, _ := scenario.GetPreset(name)
		presets = append(presets, PresetInfo{
			Name:        name,
			Description: config.Description,
			Duration:    config.Duration.String(),
		})
	}

	s.writeJSON(w, presets)
}

func (s *Server) handleWebSocket(ws *websocket.Conn) {
	s.mu.Lock()
	s.wsClients[ws] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.wsClients, ws)
		s.mu.Unlock()
		_ = ws.Close()
	}()

	// 接続直後に現在のステータスを送る
	s.sendJSON(ws, map[string]interface{}{
		"type":   "status",
		"status": s.status(),
	})

	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			break
		}
	}
}

// WSClientCount は接続中のWebSocketクライアント数を返す
func (s *Server) WSClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wsClients)
}

func (s *Server) broadcast(data interface{}) {
	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for ws := range s.wsClients {
		clients = append(clients, ws)
	}
	s.mu.RUnlock()

	for _, ws := range clients {
		s.sendJSON(ws, data)
	}
}

func (s *Server) sendJSON(ws *websocket.Conn, data interface{}) {
	if err := websocket.JSON.Send(ws, data); err != nil {
		logger.Debug("api", "websocket send failed: %v", err)
	}
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.RLock()
			running := s.running
			s.mu.RUnlock()
			if !running {
				continue
			}

			s.broadcast(map[string]interface{}{
				"type":   "status",
				"status": s.status(),
			})
		}
	}
}

// forwardEvents はイベントバスの内容をWebSocketへ流す
func (s *Server) forwardEvents(ctx context.Context) {
	ch := s.eventBus.Subscribe()
	defer s.eventBus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			s.broadcast(map[string]interface{}{
				"type":  "event",
				"event": e,
			})
		}
	}
}

func foundStatus(ok bool) int {
	if ok {
		return http.StatusOK
	}
	return http.StatusNotFound
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	s.writeJSONStatus(w, http.StatusOK, data)
}

func (s *Server) writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("api", "Failed to encode JSON: %v", err)
	}
}
