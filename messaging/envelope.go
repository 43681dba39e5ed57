package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message types carried on the commands and events topics.
const (
	TypeMissionRequest  = "mission_request"
	TypeMissionCancel   = "mission_cancel"
	TypeOccupancyClear  = "occupancy_clear"
	TypeMissionAccepted = "mission_accepted"
	TypeMissionRejected = "mission_rejected"
	TypeMissionUpdate   = "mission_update"
	TypeStepUpdate      = "step_update"
	TypeOccupancyUpdate = "occupancy_update"
	TypeRobotUpdate     = "robot_update"
)

// Envelope is the typed wrapper for every message on the wire.
type Envelope struct {
	MsgType   string    `json:"msg_type"`
	MsgID     string    `json:"msg_id"`
	SiteID    string    `json:"site_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// RawEnvelope is used for two-stage unmarshalling: first decode the
// envelope, then decode payload based on msg_type.
type RawEnvelope struct {
	MsgType   string          `json:"msg_type"`
	MsgID     string          `json:"msg_id"`
	SiteID    string          `json:"site_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// DecodeEnvelope unmarshals a raw message into a typed Envelope with
// the correct payload type.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var raw RawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	env := &Envelope{
		MsgType:   raw.MsgType,
		MsgID:     raw.MsgID,
		SiteID:    raw.SiteID,
		Timestamp: raw.Timestamp,
	}

	var payload any
	switch raw.MsgType {
	case TypeMissionRequest:
		var p MissionRequest
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode mission_request payload: %w", err)
		}
		payload = p
	case TypeMissionCancel:
		var p MissionCancel
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode mission_cancel payload: %w", err)
		}
		payload = p
	case TypeOccupancyClear:
		var p OccupancyClear
		if err := json.Unmarshal(raw.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode occupancy_clear payload: %w", err)
		}
		payload = p
	default:
		return nil, fmt.Errorf("unknown msg_type: %s", raw.MsgType)
	}
	env.Payload = payload
	return env, nil
}

// NewEnvelope creates an outbound envelope with a new UUID and timestamp.
func NewEnvelope(msgType, siteID string, payload any) *Envelope {
	return &Envelope{
		MsgType:   msgType,
		MsgID:     uuid.New().String(),
		SiteID:    siteID,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// Encode marshals an envelope to JSON.
func (e *Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}
