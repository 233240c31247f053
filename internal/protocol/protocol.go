// Package protocol defines the messages exchanged over the game data
// channel and their decoding rules. Payloads are JSON envelopes; the
// channel delivers them reliably and in order, so no sequence numbers or
// fragmentation are needed.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Kind tags a channel message.
type Kind string

const (
	KindSnapshot Kind = "state-snapshot"
	KindInput    Kind = "control-input"
	KindPhase    Kind = "phase-transition"
	KindSetting  Kind = "peer-setting"
	KindAsset    Kind = "peer-asset"

	// KindUnknown is the recognized drop-path variant for messages whose
	// type tag we do not know. Unknown messages are logged and ignored,
	// never fatal.
	KindUnknown Kind = "unknown"
)

// Role identifies a peer within a session. Assigned once, immutable for
// the session's lifetime.
type Role string

const (
	RoleUnassigned Role = "unassigned"
	RoleHost       Role = "host"
	RoleGuest      Role = "guest"
)

// Phase is the shared lifecycle stage gating whether simulation runs. The
// host's copy is authoritative; the guest only applies received ones.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLobby     Phase = "lobby"
	PhaseCountdown Phase = "countdown"
	PhaseActive    Phase = "active"
	PhaseTerminal  Phase = "terminal"
)

// Envelope is the wire shape of every channel message.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Snapshot is the full authoritative World State the host broadcasts once
// per simulation tick. The guest replaces its entire view with it.
type Snapshot struct {
	Game       string          `json:"game"`
	Phase      Phase           `json:"phase"`
	Countdown  int             `json:"countdown,omitempty"`
	ScoreHost  int             `json:"scoreHost"`
	ScoreGuest int             `json:"scoreGuest"`
	World      json.RawMessage `json:"world"`
}

// Input is a single discrete control intent sent by the guest. The host
// stages it and applies it on the next simulation step.
type Input struct {
	Direction string `json:"direction"`
}

// PhaseChange is a host-driven phase transition. Countdown carries the
// remaining tick count while Phase is PhaseCountdown.
type PhaseChange struct {
	Phase     Phase `json:"phase"`
	Countdown int   `json:"countdown,omitempty"`
}

// Setting adjusts a shared tunable. The host re-broadcasts received
// settings unchanged so both sides converge.
type Setting struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Asset is an opaque payload (e.g. a captured paddle skin as base64 image
// data) stored by the receiver keyed by sender role, for the renderer.
type Asset struct {
	From Role   `json:"from"`
	MIME string `json:"mime,omitempty"`
	Data string `json:"data"`
}

// Message is the decoded form of an Envelope. Exactly one payload field is
// set for the kinds that carry one; KindUnknown carries none.
type Message struct {
	Kind     Kind
	Snapshot *Snapshot
	Input    *Input
	Phase    *PhaseChange
	Setting  *Setting
	Asset    *Asset
}

func encode(kind Kind, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	data, err := json.Marshal(Envelope{Type: kind, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", kind, err)
	}
	return data, nil
}

// EncodeSnapshot wraps a state-snapshot for the wire.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	return encode(KindSnapshot, s)
}

// EncodeInput wraps a control-input for the wire.
func EncodeInput(direction string) ([]byte, error) {
	return encode(KindInput, &Input{Direction: direction})
}

// EncodePhase wraps a phase-transition for the wire.
func EncodePhase(phase Phase, countdown int) ([]byte, error) {
	return encode(KindPhase, &PhaseChange{Phase: phase, Countdown: countdown})
}

// EncodeSetting wraps a peer-setting for the wire.
func EncodeSetting(name string, value int) ([]byte, error) {
	return encode(KindSetting, &Setting{Name: name, Value: value})
}

// EncodeAsset wraps a peer-asset for the wire.
func EncodeAsset(a *Asset) ([]byte, error) {
	return encode(KindAsset, a)
}

// Decode parses a channel message. Unknown type tags decode successfully
// into a KindUnknown message so the caller can route them to the drop
// path; malformed envelopes or payloads missing required fields return an
// error and are likewise dropped by the caller.
func Decode(data []byte) (*Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	msg := &Message{Kind: env.Type}
	switch env.Type {
	case KindSnapshot:
		var s Snapshot
		if err := json.Unmarshal(env.Payload, &s); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		if s.Phase == "" || s.World == nil {
			return nil, fmt.Errorf("snapshot missing required fields")
		}
		msg.Snapshot = &s

	case KindInput:
		var in Input
		if err := json.Unmarshal(env.Payload, &in); err != nil {
			return nil, fmt.Errorf("unmarshal input: %w", err)
		}
		if in.Direction == "" {
			return nil, fmt.Errorf("input missing direction")
		}
		msg.Input = &in

	case KindPhase:
		var pc PhaseChange
		if err := json.Unmarshal(env.Payload, &pc); err != nil {
			return nil, fmt.Errorf("unmarshal phase transition: %w", err)
		}
		if pc.Phase == "" {
			return nil, fmt.Errorf("phase transition missing phase")
		}
		msg.Phase = &pc

	case KindSetting:
		var st Setting
		if err := json.Unmarshal(env.Payload, &st); err != nil {
			return nil, fmt.Errorf("unmarshal setting: %w", err)
		}
		if st.Name == "" {
			return nil, fmt.Errorf("setting missing name")
		}
		msg.Setting = &st

	case KindAsset:
		var a Asset
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return nil, fmt.Errorf("unmarshal asset: %w", err)
		}
		if a.Data == "" {
			return nil, fmt.Errorf("asset missing data")
		}
		msg.Asset = &a

	default:
		msg.Kind = KindUnknown
	}

	return msg, nil
}
