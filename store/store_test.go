package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"haulcore/config"
	"haulcore/points"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: dbPath},
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(dbPath)
	})
	return db
}

// --- Robot tests ---

func TestRobotCRUD(t *testing.T) {
	db := testDB(t)

	r := &Robot{SN: "AMR-01", Name: "Runner 1", BaseURL: "http://10.0.0.5:8090", FloorID: "1F", Enabled: true}
	if err := db.CreateRobot(r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.ID == 0 {
		t.Fatal("ID should be assigned")
	}

	got, err := db.GetRobotBySN("AMR-01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BaseURL != "http://10.0.0.5:8090" {
		t.Errorf("BaseURL = %q", got.BaseURL)
	}
	if !got.Enabled {
		t.Error("Enabled should be true")
	}

	if err := db.SetRobotEnabled("AMR-01", false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	got, _ = db.GetRobotBySN("AMR-01")
	if got.Enabled {
		t.Error("Enabled should be false after disable")
	}

	if err := db.SetRobotEnabled("AMR-99", true); err != sql.ErrNoRows {
		t.Errorf("unknown sn err = %v, want sql.ErrNoRows", err)
	}
}

// --- Point tests ---

func TestPointSync(t *testing.T) {
	db := testDB(t)

	pts := []points.Point{
		{ID: "104_load", FloorID: "1F", X: 1, Y: 2, Ori: 90},
		{ID: "104_load_docking", FloorID: "1F", X: 1.5, Y: 2.5, Ori: 90},
	}
	if err := db.SyncPoints("1F", pts); err != nil {
		t.Fatalf("sync: %v", err)
	}

	loaded, err := db.ListPoints()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("len = %d, want 2", len(loaded))
	}

	// Re-sync replaces the floor wholesale
	if err := db.SyncPoints("1F", pts[:1]); err != nil {
		t.Fatalf("re-sync: %v", err)
	}
	loaded, _ = db.ListPoints()
	if len(loaded) != 1 {
		t.Errorf("len after re-sync = %d, want 1", len(loaded))
	}
}

// --- Mission tests ---

func testMission(id string) *Mission {
	return &Mission{
		ID:         id,
		Name:       "central-to-shelf 104",
		RobotSN:    "AMR-01",
		TemplateID: "central-to-shelf",
		FloorID:    "1F",
		ShelfID:    "104",
		Status:     MissionPending,
		Steps: []*MissionStep{
			{Seq: 0, Action: "dock", PointID: "pick-up_load_docking", TargetX: 5.5, TargetY: 5.5},
			{Seq: 1, Action: "to_unload_point", PointID: "pick-up_load", RackAreaID: "pick-up_load"},
			{Seq: 2, Action: "jack_up", PointID: "pick-up_load"},
		},
	}
}

func TestMissionCreateAndGet(t *testing.T) {
	db := testDB(t)

	m := testMission("m-1")
	if err := db.CreateMission(m); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(m.Steps) != 3 || m.Steps[0].ID == 0 {
		t.Fatal("step ids should be assigned")
	}

	got, err := db.GetMission("m-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != MissionPending {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if len(got.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(got.Steps))
	}
	if got.Steps[1].RackAreaID != "pick-up_load" {
		t.Errorf("RackAreaID = %q, want %q", got.Steps[1].RackAreaID, "pick-up_load")
	}
	if got.Steps[0].Seq != 0 || got.Steps[2].Seq != 2 {
		t.Error("steps should come back ordered by seq")
	}
}

func TestMissionStatusAndHistory(t *testing.T) {
	db := testDB(t)

	m := testMission("m-2")
	db.CreateMission(m)

	db.UpdateMissionStatus("m-2", MissionInProgress, "first step dispatched")
	db.UpdateMissionStatus("m-2", MissionFailed, "jack_up failed after 3 retries")

	got, _ := db.GetMission("m-2")
	if got.Status != MissionFailed {
		t.Errorf("Status = %q, want failed", got.Status)
	}
	if got.CompletedAt == nil {
		t.Error("terminal mission should have completed_at set")
	}

	hist, err := db.ListMissionHistory("m-2")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 3 { // created + 2 updates
		t.Errorf("history rows = %d, want 3", len(hist))
	}
}

func TestTransitionMissionStatus(t *testing.T) {
	db := testDB(t)

	m := testMission("m-7")
	db.CreateMission(m)

	ok, err := db.TransitionMissionStatus("m-7", MissionPending, MissionInProgress, "execution started")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if !ok {
		t.Fatal("pending -> in_progress should apply")
	}

	// A cancel wins the race; the runner's transition must not overwrite it
	db.UpdateMissionStatus("m-7", MissionFailed, "cancelled by operator")
	ok, err = db.TransitionMissionStatus("m-7", MissionInProgress, MissionCompleted, "")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if ok {
		t.Error("transition from a stale state should not apply")
	}

	got, _ := db.GetMission("m-7")
	if got.Status != MissionFailed {
		t.Errorf("Status = %q, want failed to stick", got.Status)
	}
	if got.ErrorDetail != "cancelled by operator" {
		t.Errorf("ErrorDetail = %q", got.ErrorDetail)
	}
}

func TestMissionStepProgress(t *testing.T) {
	db := testDB(t)

	m := testMission("m-3")
	db.CreateMission(m)

	step := m.Steps[0]
	if err := db.SetStepMove(step.ID, "mv-42"); err != nil {
		t.Fatalf("set move: %v", err)
	}
	if err := db.CompleteStep(step.ID, `{"state":"succeeded"}`); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := db.SetMissionCurrentStep("m-3", 1); err != nil {
		t.Fatalf("advance: %v", err)
	}

	got, _ := db.GetMission("m-3")
	if got.CurrentStep != 1 {
		t.Errorf("CurrentStep = %d, want 1", got.CurrentStep)
	}
	if !got.Steps[0].Completed {
		t.Error("step 0 should be completed")
	}
	if got.Steps[0].MoveID != "mv-42" {
		t.Errorf("MoveID = %q, want mv-42", got.Steps[0].MoveID)
	}

	if err := db.RecordStepFailure(m.Steps[1].ID, "timeout", 2); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	got, _ = db.GetMission("m-3")
	if got.Steps[1].RetryCount != 2 || got.Steps[1].ErrorMessage != "timeout" {
		t.Errorf("step 1 = %+v, want retry 2, timeout", got.Steps[1])
	}
}

func TestActiveMissionByRobot(t *testing.T) {
	db := testDB(t)

	m := testMission("m-4")
	db.CreateMission(m)

	got, err := db.GetActiveMissionByRobot("AMR-01")
	if err != nil {
		t.Fatalf("active by robot: %v", err)
	}
	if got.ID != "m-4" {
		t.Errorf("ID = %q, want m-4", got.ID)
	}

	db.UpdateMissionStatus("m-4", MissionCompleted, "done")
	if _, err := db.GetActiveMissionByRobot("AMR-01"); err != sql.ErrNoRows {
		t.Errorf("after terminal, err = %v, want sql.ErrNoRows", err)
	}
}

func TestClearCompletedMissions(t *testing.T) {
	db := testDB(t)

	db.CreateMission(testMission("m-5"))
	m6 := testMission("m-6")
	m6.RobotSN = "AMR-02"
	db.CreateMission(m6)

	db.UpdateMissionStatus("m-5", MissionCompleted, "done")

	n, err := db.ClearCompletedMissions()
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 1 {
		t.Errorf("cleared = %d, want 1", n)
	}
	if _, err := db.GetMission("m-6"); err != nil {
		t.Errorf("active mission should survive clear: %v", err)
	}
	if hist, _ := db.ListMissionHistory("m-5"); len(hist) != 0 {
		t.Errorf("cleared mission history rows = %d, want 0", len(hist))
	}
}

// --- Occupancy tests ---

func TestOccupancyUpsert(t *testing.T) {
	db := testDB(t)

	rec := &OccupancyRecord{Location: "104_load", FloorID: "1F", BinPresent: true, Source: "mission m-1 step 5"}
	if err := db.UpsertOccupancy(rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.GetOccupancy("104_load")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || !got.BinPresent {
		t.Fatalf("got = %+v, want bin present", got)
	}

	// Idempotent overwrite
	if err := db.UpsertOccupancy(rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	all, _ := db.ListOccupancy()
	if len(all) != 1 {
		t.Errorf("rows = %d, want 1", len(all))
	}

	// Unknown location is nil, not an error
	got, err = db.GetOccupancy("999_load")
	if err != nil || got != nil {
		t.Errorf("unknown = (%v, %v), want (nil, nil)", got, err)
	}
}

// --- Outbox tests ---

func TestOutbox(t *testing.T) {
	db := testDB(t)

	if err := db.EnqueueOutbox("haulcore.events", []byte(`{"a":1}`), "mission_completed"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	msgs, err := db.ListPendingOutbox(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("pending = %d, want 1", len(msgs))
	}

	db.IncrementOutboxRetries(msgs[0].ID)
	db.AckOutbox(msgs[0].ID)

	msgs, _ = db.ListPendingOutbox(10)
	if len(msgs) != 0 {
		t.Errorf("pending after ack = %d, want 0", len(msgs))
	}
}
