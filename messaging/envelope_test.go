package messaging

import (
	"encoding/json"
	"testing"
)

func TestDecodeEnvelope_MissionRequest(t *testing.T) {
	data := []byte(`{
		"msg_type": "mission_request",
		"msg_id": "abc-123",
		"site_id": "site-1",
		"timestamp": "2026-08-20T12:00:00Z",
		"payload": {
			"request_uuid": "uuid-1",
			"template_id": "central-to-shelf",
			"robot_sn": "AMR-01",
			"floor_id": "1F",
			"shelf_id": "104"
		}
	}`)

	env, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.MsgType != TypeMissionRequest {
		t.Errorf("msg_type = %q", env.MsgType)
	}
	if env.MsgID != "abc-123" {
		t.Errorf("msg_id = %q", env.MsgID)
	}
	if env.SiteID != "site-1" {
		t.Errorf("site_id = %q", env.SiteID)
	}

	req, ok := env.Payload.(MissionRequest)
	if !ok {
		t.Fatalf("payload type = %T, want MissionRequest", env.Payload)
	}
	if req.RequestUUID != "uuid-1" {
		t.Errorf("request_uuid = %q", req.RequestUUID)
	}
	if req.TemplateID != "central-to-shelf" {
		t.Errorf("template_id = %q", req.TemplateID)
	}
	if req.RobotSN != "AMR-01" {
		t.Errorf("robot_sn = %q", req.RobotSN)
	}
	if req.ShelfID != "104" {
		t.Errorf("shelf_id = %q", req.ShelfID)
	}
}

func TestDecodeEnvelope_MissionCancel(t *testing.T) {
	data := []byte(`{
		"msg_type": "mission_cancel",
		"msg_id": "msg-2",
		"site_id": "site-1",
		"timestamp": "2026-08-20T12:00:00Z",
		"payload": {"mission_id": "m-7", "reason": "operator cancelled"}
	}`)

	env, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	c, ok := env.Payload.(MissionCancel)
	if !ok {
		t.Fatalf("payload type = %T, want MissionCancel", env.Payload)
	}
	if c.MissionID != "m-7" {
		t.Errorf("mission_id = %q", c.MissionID)
	}
	if c.Reason != "operator cancelled" {
		t.Errorf("reason = %q", c.Reason)
	}
}

func TestDecodeEnvelope_UnknownType(t *testing.T) {
	data := []byte(`{"msg_type": "bogus", "msg_id": "x", "payload": {}}`)
	if _, err := DecodeEnvelope(data); err == nil {
		t.Fatal("expected error for unknown msg_type")
	}
}

func TestDecodeEnvelope_BadPayload(t *testing.T) {
	data := []byte(`{"msg_type": "mission_request", "msg_id": "x", "payload": "not an object"}`)
	if _, err := DecodeEnvelope(data); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestNewEnvelopeRoundTrip(t *testing.T) {
	env := NewEnvelope(TypeMissionCancel, "site-1", MissionCancel{MissionID: "m-9", Reason: "test"})
	if env.MsgID == "" {
		t.Error("msg_id not assigned")
	}
	if env.Timestamp.IsZero() {
		t.Error("timestamp not assigned")
	}

	data, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.MsgID != env.MsgID {
		t.Errorf("msg_id = %q, want %q", decoded.MsgID, env.MsgID)
	}
	c := decoded.Payload.(MissionCancel)
	if c.MissionID != "m-9" {
		t.Errorf("mission_id = %q", c.MissionID)
	}
}

// Outbound payloads only need to be valid JSON objects for the outbox.
func TestOutboundPayloadEncodes(t *testing.T) {
	env := NewEnvelope(TypeMissionUpdate, "site-1", MissionUpdate{
		MissionID: "m-1", RobotSN: "AMR-01", Status: "completed",
	})
	data, err := env.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var raw RawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw.MsgType != TypeMissionUpdate {
		t.Errorf("msg_type = %q", raw.MsgType)
	}
}
