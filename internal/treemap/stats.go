package treemap

import "sync/atomic"

type counters struct {
	retries        atomic.Uint64
	fallbacks      atomic.Uint64
	rotations      atomic.Uint64
	recolors       atomic.Uint64
	clears         atomic.Uint64
	clearConflicts atomic.Uint64
}

// Stats is a point-in-time copy of a tree's internal counters.
type Stats struct {
	Mutations      uint64 `json:"mutations" yaml:"mutations"`
	Retries        uint64 `json:"retries" yaml:"retries"`
	Fallbacks      uint64 `json:"fallbacks" yaml:"fallbacks"`
	Rotations      uint64 `json:"rotations" yaml:"rotations"`
	Recolors       uint64 `json:"recolors" yaml:"recolors"`
	Clears         uint64 `json:"clears" yaml:"clears"`
	ClearConflicts uint64 `json:"clear_conflicts" yaml:"clear_conflicts"`
}

// Stats returns the current counters. Mutations counts completed writer
// sections and clears.
func (t *Tree[K, V]) Stats() Stats {
	return Stats{
		Mutations:      t.mods.Load() / 2,
		Retries:        t.stats.retries.Load(),
		Fallbacks:      t.stats.fallbacks.Load(),
		Rotations:      t.stats.rotations.Load(),
		Recolors:       t.stats.recolors.Load(),
		Clears:         t.stats.clears.Load(),
		ClearConflicts: t.stats.clearConflicts.Load(),
	}
}
