package sim

import (
	"encoding/json"
	"time"

	"handsim/internal/court"
)

// EventType enum for match event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeKickoff
	EventTypeGoal
	EventTypeShot
	EventTypeSave
	EventTypeMiss
	EventTypeBlock
	EventTypePass
	EventTypeInterception
	EventTypeSteal
	EventTypeTurnover
	EventTypeFoul
	EventTypeSetPiece
	EventTypePenaltyAwarded
	EventTypeSuspension
	EventTypeTimeout
	EventTypeSubstitution
	EventTypeTacticChange
	EventTypeHalfTime
	EventTypeFullTime
	EventTypePhaseChange
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is a single timestamped match occurrence. Payload is JSON so the log
// file, the websocket feed and the result all share one encoding.
type Event struct {
	Version   uint8     `json:"version"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"` // Unix nano, wall clock
	Sequence  uint64    `json:"sequence"`  // Monotonic per match
	Clock     float64   `json:"clock"`     // Simulated match seconds
	PlayerID  string    `json:"playerId"`  // Primary actor, if any
	Side      string    `json:"side"`      // "home", "away" or ""
	Payload   []byte    `json:"payload"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeKickoff:
		return "kickoff"
	case EventTypeGoal:
		return "goal"
	case EventTypeShot:
		return "shot"
	case EventTypeSave:
		return "save"
	case EventTypeMiss:
		return "miss"
	case EventTypeBlock:
		return "block"
	case EventTypePass:
		return "pass"
	case EventTypeInterception:
		return "interception"
	case EventTypeSteal:
		return "steal"
	case EventTypeTurnover:
		return "turnover"
	case EventTypeFoul:
		return "foul"
	case EventTypeSetPiece:
		return "set_piece"
	case EventTypePenaltyAwarded:
		return "penalty_awarded"
	case EventTypeSuspension:
		return "suspension"
	case EventTypeTimeout:
		return "timeout"
	case EventTypeSubstitution:
		return "substitution"
	case EventTypeTacticChange:
		return "tactic_change"
	case EventTypeHalfTime:
		return "half_time"
	case EventTypeFullTime:
		return "full_time"
	case EventTypePhaseChange:
		return "phase_change"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// GoalPayload records a scored goal and the score after it.
type GoalPayload struct {
	ScorerID   string  `json:"scorerId"`
	AssistID   string  `json:"assistId,omitempty"`
	HomeScore  int     `json:"homeScore"`
	AwayScore  int     `json:"awayScore"`
	ShotSpeed  float64 `json:"shotSpeed"`
	FromMeters float64 `json:"fromMeters"`
	Penalty    bool    `json:"penalty"`
}

// ShotPayload records an attempt on goal at release time.
type ShotPayload struct {
	ShooterID  string  `json:"shooterId"`
	ShotSpeed  float64 `json:"shotSpeed"`
	FromMeters float64 `json:"fromMeters"`
	Jumping    bool    `json:"jumping"`
	Penalty    bool    `json:"penalty"`
}

// SavePayload records a goalkeeper save.
type SavePayload struct {
	KeeperID  string `json:"keeperId"`
	ShooterID string `json:"shooterId"`
}

// TurnoverPayload records a loss of possession and its cause.
type TurnoverPayload struct {
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"` // "steps", "double_dribble", "out_of_bounds", "steal", "interception", "crease"
}

// FoulPayload records a defensive foul and its sanction.
type FoulPayload struct {
	OffenderID string `json:"offenderId"`
	VictimID   string `json:"victimId"`
	Sanction   string `json:"sanction"` // "set_piece", "penalty", "suspension"
}

// SubstitutionPayload records a player swap.
type SubstitutionPayload struct {
	OffID  string `json:"offId"`
	OnID   string `json:"onId"`
	Reason string `json:"reason"`
}

// TacticChangePayload records a coach adjustment.
type TacticChangePayload struct {
	Rule   string `json:"rule"`
	Detail string `json:"detail"`
}

// TimeoutPayload records a team timeout call.
type TimeoutPayload struct {
	Remaining int    `json:"remaining"`
	Reason    string `json:"reason"`
}

// PhaseChangePayload records a phase transition for replay.
type PhaseChangePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event stamped with the wall time and match clock.
func NewEvent(eventType EventType, clock float64, side court.Side, playerID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		Clock:     clock,
		PlayerID:  playerID,
		Side:      side.String(),
		Payload:   EncodePayload(payload),
	}
}

// NewNeutralEvent creates an event with no side attribution (half time, etc).
func NewNeutralEvent(eventType EventType, clock float64, payload interface{}) Event {
	ev := NewEvent(eventType, clock, court.Home, "", payload)
	ev.Side = ""
	return ev
}
