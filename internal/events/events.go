// Package events provides an event system for chaos and audit notifications.
package events

import "time"

// EventType represents the type of event
type EventType string

const (
	// EventChaosAttack is emitted when a disruption hits the map
	EventChaosAttack EventType = "chaos_attack"
	// EventAuditPassed is emitted when an audit finds every invariant intact
	EventAuditPassed EventType = "audit_passed"
	// EventAuditFailed is emitted when an audit finds a violated invariant
	EventAuditFailed EventType = "audit_failed"
	// EventScenarioComplete is emitted when a scenario run ends
	EventScenarioComplete EventType = "scenario_complete"
)

// AttackType represents the type of disruption
type AttackType string

const (
	AttackTypeClear AttackType = "clear"
	AttackTypeBurst AttackType = "burst"
	AttackTypeScan  AttackType = "scan"
)

// Event represents a chaos or audit event
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Data      EventData `json:"data,omitempty"`
}

// EventData contains event-specific data
type EventData struct {
	AttackType AttackType `json:"attack_type,omitempty"`
	Entries    int        `json:"entries,omitempty"`
	Version    uint64     `json:"version,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// NewChaosAttackEvent creates a chaos attack event. entries is the number of
// entries the disruption touched (removed, inserted or visited).
func NewChaosAttackEvent(source string, attackType AttackType, entries int) Event {
	return Event{
		Type:      EventChaosAttack,
		Timestamp: time.Now(),
		Source:    source,
		Data: EventData{
			AttackType: attackType,
			Entries:    entries,
		},
	}
}

// NewAuditPassedEvent creates an audit success event
func NewAuditPassedEvent(source string, entries int, version uint64) Event {
	return Event{
		Type:      EventAuditPassed,
		Timestamp: time.Now(),
		Source:    source,
		Data: EventData{
			Entries: entries,
			Version: version,
		},
	}
}

// NewAuditFailedEvent creates an audit failure event
func NewAuditFailedEvent(source string, version uint64, err error) Event {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return Event{
		Type:      EventAuditFailed,
		Timestamp: time.Now(),
		Source:    source,
		Data: EventData{
			Version: version,
			Error:   errMsg,
		},
	}
}

// NewScenarioCompleteEvent creates a scenario completion event
func NewScenarioCompleteEvent(name string, entries int) Event {
	return Event{
		Type:      EventScenarioComplete,
		Timestamp: time.Now(),
		Source:    name,
		Data: EventData{
			Entries: entries,
		},
	}
}
