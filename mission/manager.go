package mission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"haulcore/occupancy"
	"haulcore/store"
	"haulcore/workflow"
)

// Manager owns mission admission, per-robot exclusivity, and the runner
// goroutines that drive each mission to a terminal state.
type Manager struct {
	db      *store.DB
	catalog *workflow.Catalog
	clients ClientPool
	tracker *occupancy.Tracker
	emitter Emitter
	cfg     Config

	mu     sync.Mutex
	active map[string]*run // robot SN -> live run
}

// run is the in-memory handle for one executing mission.
type run struct {
	mission *store.Mission
	cancel  context.CancelFunc

	mu         sync.Mutex
	cancelled  bool
	currentMov string // move id in flight, for best-effort cancel
}

func (r *run) markCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelled {
		return false
	}
	r.cancelled = true
	return true
}

func (r *run) isCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

func (r *run) setMove(id string) {
	r.mu.Lock()
	r.currentMov = id
	r.mu.Unlock()
}

func (r *run) currentMove() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentMov
}

func NewManager(db *store.DB, catalog *workflow.Catalog, clients ClientPool, tracker *occupancy.Tracker, emitter Emitter, cfg Config) *Manager {
	return &Manager{
		db:      db,
		catalog: catalog,
		clients: clients,
		tracker: tracker,
		emitter: emitter,
		cfg:     cfg,
		active:  make(map[string]*run),
	}
}

// Submit validates a request, persists the mission, and starts its
// runner. Rejections happen before any record is written: expansion
// errors, an occupied delivery point, or a robot that is already busy.
func (m *Manager) Submit(req SubmitRequest) (*store.Mission, error) {
	if req.RobotSN == "" {
		return nil, fmt.Errorf("submit: robot_sn is required")
	}

	var steps []*store.MissionStep
	var err error
	delivers := false
	switch {
	case req.TemplateID != "":
		steps, err = m.catalog.Expand(req.TemplateID, workflow.Params{
			FloorID:       req.FloorID,
			ShelfID:       req.ShelfID,
			TargetShelfID: req.TargetShelf,
		})
		if err == nil {
			if t, ok := m.catalog.Get(req.TemplateID); ok {
				delivers = t.Delivers
			}
		}
	case len(req.AdhocPoints) > 0:
		steps, err = m.catalog.ExpandAdhoc(req.FloorID, req.AdhocPoints)
	default:
		err = fmt.Errorf("submit: template_id or points required")
	}
	if err != nil {
		return nil, err
	}

	if delivers {
		dest := workflow.DeliveryPoint(steps)
		if dest != "" {
			occupied, err := m.tracker.IsOccupied(dest)
			if err != nil {
				return nil, fmt.Errorf("occupancy check %s: %w", dest, err)
			}
			if occupied {
				return nil, fmt.Errorf("%w: %s", ErrDestinationOccupied, dest)
			}
		}
	}

	m.mu.Lock()
	if _, busy := m.active[req.RobotSN]; busy {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrRobotBusy, req.RobotSN)
	}
	// Guard against live rows left by a crash that ResumeActive has not
	// picked up yet.
	if _, err := m.db.GetActiveMissionByRobot(req.RobotSN); err == nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrRobotBusy, req.RobotSN)
	} else if !errors.Is(err, sql.ErrNoRows) {
		m.mu.Unlock()
		return nil, err
	}

	mission := &store.Mission{
		ID:         uuid.NewString(),
		Name:       req.Name,
		RobotSN:    req.RobotSN,
		TemplateID: req.TemplateID,
		FloorID:    req.FloorID,
		ShelfID:    req.ShelfID,
		Status:     store.MissionPending,
		Steps:      steps,
	}
	if err := m.db.CreateMission(mission); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.launchLocked(mission)
	m.mu.Unlock()

	if m.emitter != nil {
		m.emitter.EmitMissionCreated(mission.ID, mission.RobotSN, mission.TemplateID)
	}
	log.Printf("mission: %s created for robot %s (%s, %d steps)", mission.ID, mission.RobotSN, mission.TemplateID, len(steps))
	return mission, nil
}

// launchLocked registers the run and starts its goroutine. Caller holds m.mu.
func (m *Manager) launchLocked(mission *store.Mission) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{mission: mission, cancel: cancel}
	m.active[mission.RobotSN] = r
	go m.runMission(ctx, r)
}

// ResumeActive restarts runners for missions that were live when the
// process last stopped. Execution picks up at the persisted current
// step; completed steps are never reissued.
func (m *Manager) ResumeActive() error {
	missions, err := m.db.ListActiveMissions()
	if err != nil {
		return fmt.Errorf("resume missions: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mission := range missions {
		if _, busy := m.active[mission.RobotSN]; busy {
			log.Printf("mission: %s not resumed, robot %s already has a run", mission.ID, mission.RobotSN)
			continue
		}
		mission.Steps, err = m.db.ListMissionSteps(mission.ID)
		if err != nil {
			return fmt.Errorf("resume mission %s: %w", mission.ID, err)
		}
		log.Printf("mission: resuming %s for robot %s at step %d", mission.ID, mission.RobotSN, mission.CurrentStep)
		m.launchLocked(mission)
	}
	return nil
}

// Cancel marks the mission failed and stops its runner. A move already
// accepted by the robot is cancelled best-effort; the robot may finish
// the motion regardless.
func (m *Manager) Cancel(missionID, reason string) error {
	m.mu.Lock()
	var r *run
	for _, cand := range m.active {
		if cand.mission.ID == missionID {
			r = cand
			break
		}
	}
	m.mu.Unlock()

	if r == nil {
		// Not running here: a stale live row, e.g. before ResumeActive.
		mission, err := m.db.GetMission(missionID)
		if err != nil {
			return fmt.Errorf("cancel %s: %w", missionID, err)
		}
		if mission.Status == store.MissionCompleted || mission.Status == store.MissionFailed {
			return fmt.Errorf("cancel %s: mission already %s", missionID, mission.Status)
		}
		return m.finishCancelled(mission, reason)
	}

	if !r.markCancelled() {
		return nil
	}
	err := m.finishCancelled(r.mission, reason)
	r.cancel()
	if moveID := r.currentMove(); moveID != "" {
		if client, cerr := m.clients.ClientFor(r.mission.RobotSN); cerr == nil {
			if cerr := client.CancelMove(moveID); cerr != nil {
				log.Printf("mission: %s cancel move %s: %v", missionID, moveID, cerr)
			}
		}
	}
	return err
}

func (m *Manager) finishCancelled(mission *store.Mission, reason string) error {
	detail := "cancelled by operator"
	if reason != "" {
		detail += ": " + reason
	}
	if err := m.db.UpdateMissionStatus(mission.ID, store.MissionFailed, detail); err != nil {
		return err
	}
	if m.emitter != nil {
		m.emitter.EmitMissionCancelled(mission.ID, mission.RobotSN, reason)
	}
	log.Printf("mission: %s %s", mission.ID, detail)
	return nil
}

// Get loads one mission with steps from the store.
func (m *Manager) Get(missionID string) (*store.Mission, error) {
	return m.db.GetMission(missionID)
}

// List returns recent missions, optionally filtered by status.
func (m *Manager) List(status string, limit int) ([]*store.Mission, error) {
	if limit <= 0 {
		limit = 100
	}
	return m.db.ListMissions(status, limit)
}

// Active returns live missions.
func (m *Manager) Active() ([]*store.Mission, error) {
	return m.db.ListActiveMissions()
}

// ClearCompleted purges terminal missions and returns the count removed.
func (m *Manager) ClearCompleted() (int64, error) {
	return m.db.ClearCompletedMissions()
}

// Stop cancels every runner context without marking missions failed,
// used at shutdown so live missions resume on the next start.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.active {
		r.cancel()
	}
}

// release drops the robot's exclusivity slot when its runner exits.
func (m *Manager) release(robotSN string, r *run) {
	m.mu.Lock()
	if m.active[robotSN] == r {
		delete(m.active, robotSN)
	}
	m.mu.Unlock()
}
