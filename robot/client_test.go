package robot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testServer(handler http.HandlerFunc) (*httptest.Server, *Client) {
	srv := httptest.NewServer(handler)
	client := NewClient(srv.URL, "test-secret", 5*time.Second)
	return srv, client
}

func TestCreateMove(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/moves" {
			t.Errorf("path = %q, want /moves", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if got := r.Header.Get("X-Api-Secret"); got != "test-secret" {
			t.Errorf("secret header = %q, want %q", got, "test-secret")
		}

		var req MoveRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Type != MoveToUnloadPoint {
			t.Errorf("Type = %q, want %q", req.Type, MoveToUnloadPoint)
		}
		if req.Properties["rack_area_id"] != "104_load" {
			t.Errorf("rack_area_id = %v, want %q", req.Properties["rack_area_id"], "104_load")
		}

		json.NewEncoder(w).Encode(MoveCreated{ID: "mv-1"})
	})
	defer srv.Close()

	id, err := client.CreateMove(&MoveRequest{
		Type:       MoveToUnloadPoint,
		TargetX:    1.1,
		TargetY:    2.1,
		TargetOri:  90,
		Properties: map[string]any{"rack_area_id": "104_load"},
	})
	if err != nil {
		t.Fatalf("CreateMove: %v", err)
	}
	if id != "mv-1" {
		t.Errorf("id = %q, want %q", id, "mv-1")
	}
}

func TestCreateMove_EmptyID(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(MoveCreated{})
	})
	defer srv.Close()

	if _, err := client.CreateMove(&MoveRequest{Type: MoveStandard}); err == nil {
		t.Fatal("expected error for empty move id")
	}
}

func TestGetMove(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/moves/mv-7" {
			t.Errorf("path = %q, want /moves/mv-7", r.URL.Path)
		}
		json.NewEncoder(w).Encode(MoveDetail{ID: "mv-7", State: StateMoving})
	})
	defer srv.Close()

	detail, err := client.GetMove("mv-7")
	if err != nil {
		t.Fatalf("GetMove: %v", err)
	}
	if detail.State != StateMoving {
		t.Errorf("State = %q, want %q", detail.State, StateMoving)
	}
}

func TestCancelMove(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %q, want PATCH", r.Method)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["state"] != "cancelled" {
			t.Errorf("state = %q, want cancelled", body["state"])
		}
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	if err := client.CancelMove("mv-9"); err != nil {
		t.Fatalf("CancelMove: %v", err)
	}
}

func TestGetStatus(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			t.Errorf("path = %q, want /status", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Status{SN: "AMR-01", Charging: true, Battery: 87.5})
	})
	defer srv.Close()

	st, err := client.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.SN != "AMR-01" || !st.Charging {
		t.Errorf("status = %+v, want charging AMR-01", st)
	}
}

func TestHTTPError(t *testing.T) {
	srv, client := testServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("server error"))
	})
	defer srv.Close()

	if _, err := client.GetMove("mv-1"); err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestMoveStateTerminal(t *testing.T) {
	terminal := []MoveState{StateSucceeded, StateFailed, StateCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
	for _, s := range []MoveState{StatePending, StateMoving} {
		if s.IsTerminal() {
			t.Errorf("%q should not be terminal", s)
		}
	}
}
