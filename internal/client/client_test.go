package client

import (
	"context"
	"testing"
	"time"

	"optimap/internal/metrics"
	"optimap/internal/treemap"
)

func TestDefaultClientConfig(t *testing.T) {
	config := DefaultConfig()

	if config.WriteRatio != 0.5 {
		t.Errorf("expected WriteRatio 0.5, got %f", config.WriteRatio)
	}
	if config.KeyRange != 10000 {
		t.Errorf("expected KeyRange 10000, got %d", config.KeyRange)
	}
}

func TestNewClient(t *testing.T) {
	client := New(treemap.New[int, string](), DefaultConfig())

	if client.IsRunning() {
		t.Error("expected client to not be running initially")
	}
}

func TestNewClientFixesKeyRange(t *testing.T) {
	config := DefaultConfig()
	config.KeyRange = 0
	client := New(treemap.New[int, string](), config)

	if client.config.KeyRange != 10000 {
		t.Errorf("expected default KeyRange, got %d", client.config.KeyRange)
	}
}

func TestPickOp(t *testing.T) {
	c := New(treemap.New[int, string](), Config{
		WriteRatio:  0.4,
		RemoveRatio: 0.1,
		ClearRatio:  0.1,
		ScanRatio:   0.2,
		KeyRange:    10,
	})

	tests := []struct {
		r         float64
		preferGet bool
		want      metrics.Op
	}{
		{0.0, true, metrics.OpPut},
		{0.39, true, metrics.OpPut},
		{0.45, true, metrics.OpRemove},
		{0.55, true, metrics.OpClear},
		{0.65, true, metrics.OpSize},
		{0.75, true, metrics.OpContainsValue},
		{0.9, true, metrics.OpGet},
		{0.9, false, metrics.OpContainsKey},
	}

	for _, tt := range tests {
		if got := c.pickOp(tt.r, tt.preferGet); got != tt.want {
			t.Errorf("pickOp(%v, %v) = %s, want %s", tt.r, tt.preferGet, got, tt.want)
		}
	}
}

func TestExecuteDetectsWrongValue(t *testing.T) {
	tree := treemap.New[int, string]()
	tree.Put(3, "not the value")

	c := New(tree, Config{KeyRange: 10})
	if err := c.execute(metrics.OpGet, 3); err == nil {
		t.Error("expected error for mismatched value")
	}

	tree.Put(3, Value(3))
	if err := c.execute(metrics.OpGet, 3); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := c.execute(metrics.Op(99), 3); err == nil {
		t.Error("expected error for unknown op")
	}
}

func TestClientStartStop(t *testing.T) {
	config := DefaultConfig()
	config.NumWorkers = 4
	client := New(treemap.New[int, string](), config)

	ctx := context.Background()
	client.Start(ctx)
	if !client.IsRunning() {
		t.Error("expected client to be running after Start")
	}

	time.Sleep(50 * time.Millisecond)

	client.Stop()
	if client.IsRunning() {
		t.Error("expected client to not be running after Stop")
	}

	if client.Metrics().TotalOps() == 0 {
		t.Error("expected some operations to be recorded")
	}
}

func TestClientRunRequests(t *testing.T) {
	tree := treemap.New[int, string]()
	config := DefaultConfig()
	config.NumWorkers = 4
	config.KeyRange = 100
	config.WriteRatio = 0.5
	config.RemoveRatio = 0.1
	config.ClearRatio = 0.01
	client := New(tree, config)

	snap := client.RunRequests(context.Background(), 2000)

	if snap.TotalOps != 2000 {
		t.Errorf("expected 2000 ops, got %d", snap.TotalOps)
	}
	if snap.FailedOps != 0 {
		t.Errorf("expected no failures, got %d", snap.FailedOps)
	}
	if err := tree.Verify(); err != nil {
		t.Errorf("tree invalid after load: %v", err)
	}
	if tree.Size() > 100 {
		t.Errorf("size %d exceeds key range", tree.Size())
	}
}

func TestClientRateLimit(t *testing.T) {
	config := DefaultConfig()
	config.NumWorkers = 2
	config.RequestsPerSecond = 100
	client := New(treemap.New[int, string](), config)

	snap := client.RunFor(context.Background(), 200*time.Millisecond)

	// burst of 100 plus ~20 refilled tokens
	if snap.TotalOps > 150 {
		t.Errorf("rate limit not applied, got %d ops", snap.TotalOps)
	}
}

func TestClientDoubleStartStop(t *testing.T) {
	client := New(treemap.New[int, string](), DefaultConfig())
	ctx := context.Background()

	client.Start(ctx)
	client.Start(ctx)

	client.Stop()
	client.Stop()
}
