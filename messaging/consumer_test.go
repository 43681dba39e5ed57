package messaging

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"haulcore/config"
	"haulcore/mission"
	"haulcore/store"
)

type fakeMissions struct {
	submitted []mission.SubmitRequest
	cancelled []string
	submitErr error
}

func (f *fakeMissions) Submit(req mission.SubmitRequest) (*store.Mission, error) {
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &store.Mission{ID: "m-1", RobotSN: req.RobotSN}, nil
}

func (f *fakeMissions) Cancel(missionID, reason string) error {
	f.cancelled = append(f.cancelled, missionID)
	return nil
}

type fakeOccupancy struct {
	cleared []string
}

func (f *fakeOccupancy) Clear(location, reason string) error {
	f.cleared = append(f.cleared, location)
	return nil
}

func newTestConsumer(t *testing.T) (*Consumer, *store.DB, *fakeMissions, *fakeOccupancy) {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	missions := &fakeMissions{}
	occ := &fakeOccupancy{}
	cfg := config.Defaults()
	// The client never connects, so replies land in the outbox.
	c := NewConsumer(NewClient(&cfg.Messaging), db, "site.commands", "site.events", "site-1", missions, occ)
	return c, db, missions, occ
}

func encodeCommand(t *testing.T, msgType string, payload any) []byte {
	t.Helper()
	data, err := NewEnvelope(msgType, "site-1", payload).Encode()
	if err != nil {
		t.Fatalf("encode %s: %v", msgType, err)
	}
	return data
}

func TestConsumerMissionRequestAccepted(t *testing.T) {
	c, db, missions, _ := newTestConsumer(t)

	c.handleMessage("site.commands", encodeCommand(t, TypeMissionRequest, MissionRequest{
		RequestUUID: "req-1",
		TemplateID:  "central-to-shelf",
		RobotSN:     "AMR-01",
		FloorID:     "1F",
		ShelfID:     "104",
	}))

	if len(missions.submitted) != 1 {
		t.Fatalf("submitted %d missions, want 1", len(missions.submitted))
	}
	got := missions.submitted[0]
	if got.TemplateID != "central-to-shelf" || got.ShelfID != "104" || got.RobotSN != "AMR-01" {
		t.Errorf("submit request = %+v", got)
	}

	pending, err := db.ListPendingOutbox(10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("outbox has %d messages, want 1", len(pending))
	}
	if pending[0].MsgType != TypeMissionAccepted || pending[0].Topic != "site.events" {
		t.Errorf("reply = %s on %s", pending[0].MsgType, pending[0].Topic)
	}
	if !strings.Contains(string(pending[0].Payload), "req-1") {
		t.Errorf("reply payload = %s", pending[0].Payload)
	}
}

func TestConsumerMissionRequestRejected(t *testing.T) {
	c, db, missions, _ := newTestConsumer(t)
	missions.submitErr = errors.New("robot AMR-01 already has an active mission")

	c.handleMessage("site.commands", encodeCommand(t, TypeMissionRequest, MissionRequest{
		RequestUUID: "req-2",
		TemplateID:  "return-to-charger",
		RobotSN:     "AMR-01",
		FloorID:     "1F",
	}))

	pending, err := db.ListPendingOutbox(10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 1 || pending[0].MsgType != TypeMissionRejected {
		t.Fatalf("outbox = %+v, want one mission_rejected", pending)
	}
	if !strings.Contains(string(pending[0].Payload), "active mission") {
		t.Errorf("reject payload = %s", pending[0].Payload)
	}
}

func TestConsumerCancelAndClearCommands(t *testing.T) {
	c, _, missions, occ := newTestConsumer(t)

	c.handleMessage("site.commands", encodeCommand(t, TypeMissionCancel, MissionCancel{
		MissionID: "m-9",
		Reason:    "operator request",
	}))
	c.handleMessage("site.commands", encodeCommand(t, TypeOccupancyClear, OccupancyClear{
		Location: "104_load",
		Reason:   "bin removed by hand",
	}))

	if len(missions.cancelled) != 1 || missions.cancelled[0] != "m-9" {
		t.Errorf("cancelled = %v", missions.cancelled)
	}
	if len(occ.cleared) != 1 || occ.cleared[0] != "104_load" {
		t.Errorf("cleared = %v", occ.cleared)
	}
}

func TestConsumerIgnoresMalformedPayload(t *testing.T) {
	c, db, missions, _ := newTestConsumer(t)

	c.handleMessage("site.commands", []byte(`{"msg_type":"mission_request","payload":"not-an-object"}`))
	c.handleMessage("site.commands", []byte(`not json`))

	if len(missions.submitted) != 0 {
		t.Errorf("submitted %d missions from garbage", len(missions.submitted))
	}
	pending, _ := db.ListPendingOutbox(10)
	if len(pending) != 0 {
		t.Errorf("outbox has %d messages, want none", len(pending))
	}
}
