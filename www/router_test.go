package www

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"haulcore/config"
	"haulcore/engine"
	"haulcore/messaging"
	"haulcore/mission"
	"haulcore/occupancy"
	"haulcore/points"
	"haulcore/robot"
	"haulcore/store"
	"haulcore/workflow"
)

const testKey = "test-api-key"

// stubRobot answers the robot API with instantly-succeeding moves.
type stubRobot struct {
	mu     sync.Mutex
	nextID int
	moves  int
}

func (s *stubRobot) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/status":
			json.NewEncoder(w).Encode(robot.Status{SN: "AMR-01", Connected: true})
		case r.Method == http.MethodPost && r.URL.Path == "/moves":
			s.nextID++
			s.moves++
			json.NewEncoder(w).Encode(robot.MoveCreated{ID: fmt.Sprintf("move-%d", s.nextID)})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/moves/"):
			json.NewEncoder(w).Encode(robot.MoveDetail{
				ID:    strings.TrimPrefix(r.URL.Path, "/moves/"),
				State: robot.StateSucceeded,
			})
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
}

func newTestServer(t *testing.T) (http.Handler, *engine.Engine) {
	t.Helper()
	db, err := store.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stub := &stubRobot{}
	robotSrv := httptest.NewServer(stub.handler())
	t.Cleanup(robotSrv.Close)

	cfg := config.Defaults()
	cfg.Web.APIKey = testKey
	cfg.Mission.PollInterval = 2 * time.Millisecond
	cfg.Mission.StepTimeout = 200 * time.Millisecond

	registry := points.NewRegistry([]points.Point{
		{ID: "104_load", FloorID: "1F", X: 1, Y: 2, Ori: 90},
		{ID: "104_load_docking", FloorID: "1F", X: 1.5, Y: 2.5, Ori: 90},
		{ID: "pick-up_load", FloorID: "1F", X: 5, Y: 5, Ori: 180},
		{ID: "pick-up_load_docking", FloorID: "1F", X: 5.5, Y: 5.5, Ori: 180},
		{ID: "charger", FloorID: "1F", X: 0, Y: 0, Ori: 0},
	})
	pool := mission.NewPool("secret", time.Second)
	pool.Register("AMR-01", robotSrv.URL)

	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: filepath.Join(t.TempDir(), "haulcore.yaml"),
		DB:         db,
		Registry:   registry,
		Catalog:    workflow.NewCatalog(registry),
		Pool:       pool,
		Tracker:    occupancy.NewTracker(db, nil, nil),
		MsgClient:  messaging.NewClient(&cfg.Messaging),
	})
	eng.Start()
	t.Cleanup(eng.Stop)

	return NewRouter(eng), eng
}

func doJSON(t *testing.T, h http.Handler, method, path, key string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if key != "" {
		req.Header.Set("X-Api-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmitRequiresAPIKey(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/missions", "", map[string]string{"template_id": "return-to-charger"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/missions", "wrong", map[string]string{"template_id": "return-to-charger"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d, want 401", rec.Code)
	}
}

func TestSubmitAndGetMission(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/missions", testKey, mission.SubmitRequest{
		TemplateID: "return-to-charger",
		RobotSN:    "AMR-01",
		FloorID:    "1F",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d: %s", rec.Code, rec.Body.String())
	}
	var m store.Mission
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.ID == "" {
		t.Fatal("no mission id")
	}

	rec = doJSON(t, h, http.MethodGet, "/api/missions/"+m.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got store.Mission
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.ID != m.ID || len(got.Steps) != 1 {
		t.Errorf("got id=%s steps=%d", got.ID, len(got.Steps))
	}
}

func TestSubmitUnknownTemplate(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/api/missions", testKey, mission.SubmitRequest{
		TemplateID: "no-such-flow",
		RobotSN:    "AMR-01",
		FloorID:    "1F",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
}

func TestOccupiedDestinationConflict(t *testing.T) {
	h, eng := newTestServer(t)
	if err := eng.Occupancy().SetBin("104_load", "1F", "test"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec := doJSON(t, h, http.MethodPost, "/api/missions", testKey, mission.SubmitRequest{
		TemplateID: "central-to-shelf",
		RobotSN:    "AMR-01",
		FloorID:    "1F",
		ShelfID:    "104",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

func TestOccupancyEndpoints(t *testing.T) {
	h, eng := newTestServer(t)
	eng.Occupancy().SetBin("104_load", "1F", "test")

	rec := doJSON(t, h, http.MethodGet, "/api/occupancy/104_load", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var got store.OccupancyRecord
	json.Unmarshal(rec.Body.Bytes(), &got)
	if !got.BinPresent {
		t.Error("bin_present = false")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/occupancy/104_load/clear", testKey, map[string]string{"reason": "removed by hand"})
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d", rec.Code)
	}
	if occ, _ := eng.Occupancy().IsOccupied("104_load"); occ {
		t.Error("still occupied after clear")
	}
}

func TestRobotRegistration(t *testing.T) {
	h, eng := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/robots", testKey, store.Robot{
		SN: "AMR-02", Name: "Second", BaseURL: "http://10.0.0.6:8090", FloorID: "1F",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := eng.Pool().ClientFor("AMR-02"); err != nil {
		t.Errorf("pool missing AMR-02: %v", err)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/robots/AMR-02/enabled", testKey, map[string]bool{"enabled": false})
	if rec.Code != http.StatusOK {
		t.Fatalf("disable status = %d", rec.Code)
	}
	if _, err := eng.Pool().ClientFor("AMR-02"); err == nil {
		t.Error("disabled robot still in pool")
	}

	rec = doJSON(t, h, http.MethodGet, "/api/robots", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
}

func TestPointsSync(t *testing.T) {
	h, eng := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/points/sync", testKey, map[string]any{
		"floor_id": "2F",
		"points": []points.Point{
			{ID: "201_load", X: 3, Y: 4, Ori: 0},
			{ID: "201_load_docking", X: 3.5, Y: 4.5, Ori: 0},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("sync status = %d: %s", rec.Code, rec.Body.String())
	}
	if !eng.Registry().Has("2F", "201_load") {
		t.Error("registry missing synced point")
	}

	rec = doJSON(t, h, http.MethodGet, "/api/points?floor=2F", "", nil)
	var pts []points.Point
	json.Unmarshal(rec.Body.Bytes(), &pts)
	if len(pts) != 2 {
		t.Errorf("points on 2F = %d, want 2", len(pts))
	}
}

func TestHealthAndTemplates(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/templates", "", nil)
	var tmpls []workflow.Template
	if err := json.Unmarshal(rec.Body.Bytes(), &tmpls); err != nil {
		t.Fatalf("decode templates: %v", err)
	}
	if len(tmpls) == 0 {
		t.Error("no templates listed")
	}
}

func TestUpdateMessagingConfig(t *testing.T) {
	h, eng := newTestServer(t)

	rec := doJSON(t, h, http.MethodPut, "/api/config/messaging", testKey, map[string]any{
		"backend":        "kafka",
		"kafka_brokers":  []string{"broker-1:9092"},
		"kafka_group_id": "haulcore-test",
		"events_topic":   "site.events",
		"commands_topic": "site.commands",
		"site_id":        "site-7",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	cfg := eng.AppConfig()
	cfg.Lock()
	backend, topic, site := cfg.Messaging.Backend, cfg.Messaging.EventsTopic, cfg.Messaging.SiteID
	cfg.Unlock()
	if backend != "kafka" || topic != "site.events" || site != "site-7" {
		t.Errorf("config not applied: backend=%s topic=%s site=%s", backend, topic, site)
	}

	data, err := os.ReadFile(eng.ConfigPath())
	if err != nil {
		t.Fatalf("saved config: %v", err)
	}
	if !strings.Contains(string(data), "site.commands") {
		t.Error("saved config missing updated topic")
	}
}
