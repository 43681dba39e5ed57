package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Mission statuses. pending and in_progress are live; completed and
// failed are terminal.
const (
	MissionPending    = "pending"
	MissionInProgress = "in_progress"
	MissionCompleted  = "completed"
	MissionFailed     = "failed"
)

type Mission struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	RobotSN     string         `json:"robot_sn"`
	TemplateID  string         `json:"template_id"`
	FloorID     string         `json:"floor_id"`
	ShelfID     string         `json:"shelf_id"`
	Status      string         `json:"status"`
	CurrentStep int            `json:"current_step"`
	ErrorDetail string         `json:"error_detail"`
	Steps       []*MissionStep `json:"steps,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

type MissionStep struct {
	ID            int64   `json:"id"`
	MissionID     string  `json:"mission_id"`
	Seq           int     `json:"seq"`
	Action        string  `json:"action"`
	PointID       string  `json:"point_id"`
	TargetX       float64 `json:"target_x"`
	TargetY       float64 `json:"target_y"`
	TargetOri     float64 `json:"target_ori"`
	RackAreaID    string  `json:"rack_area_id"`
	Completed     bool    `json:"completed"`
	RetryCount    int     `json:"retry_count"`
	MoveID        string  `json:"move_id"`
	RobotResponse string  `json:"robot_response"`
	ErrorMessage  string  `json:"error_message"`
}

type MissionHistory struct {
	ID        int64     `json:"id"`
	MissionID string    `json:"mission_id"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

const missionSelectCols = `id, name, robot_sn, template_id, floor_id, shelf_id, status, current_step, error_detail, created_at, updated_at, completed_at`

func scanMission(row interface{ Scan(...any) error }) (*Mission, error) {
	var m Mission
	var createdAt, updatedAt, completedAt any
	err := row.Scan(&m.ID, &m.Name, &m.RobotSN, &m.TemplateID, &m.FloorID, &m.ShelfID,
		&m.Status, &m.CurrentStep, &m.ErrorDetail, &createdAt, &updatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	m.CreatedAt = parseTime(createdAt)
	m.UpdatedAt = parseTime(updatedAt)
	m.CompletedAt = parseTimePtr(completedAt)
	return &m, nil
}

func scanMissions(rows *sql.Rows) ([]*Mission, error) {
	var missions []*Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, err
		}
		missions = append(missions, m)
	}
	return missions, rows.Err()
}

const stepSelectCols = `id, mission_id, seq, action, point_id, target_x, target_y, target_ori, rack_area_id, completed, retry_count, move_id, robot_response, error_message`

func scanStep(row interface{ Scan(...any) error }) (*MissionStep, error) {
	var s MissionStep
	err := row.Scan(&s.ID, &s.MissionID, &s.Seq, &s.Action, &s.PointID,
		&s.TargetX, &s.TargetY, &s.TargetOri, &s.RackAreaID,
		&s.Completed, &s.RetryCount, &s.MoveID, &s.RobotResponse, &s.ErrorMessage)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateMission inserts a mission and its steps in one transaction.
func (db *DB) CreateMission(m *Mission) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("create mission: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(db.Q(`INSERT INTO missions (id, name, robot_sn, template_id, floor_id, shelf_id, status, current_step) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		m.ID, m.Name, m.RobotSN, m.TemplateID, m.FloorID, m.ShelfID, m.Status, m.CurrentStep)
	if err != nil {
		return fmt.Errorf("create mission: %w", err)
	}
	for _, s := range m.Steps {
		s.MissionID = m.ID
		_, err = tx.Exec(db.Q(`INSERT INTO mission_steps (mission_id, seq, action, point_id, target_x, target_y, target_ori, rack_area_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			m.ID, s.Seq, s.Action, s.PointID, s.TargetX, s.TargetY, s.TargetOri, s.RackAreaID)
		if err != nil {
			return fmt.Errorf("create mission step %d: %w", s.Seq, err)
		}
	}
	if _, err := tx.Exec(db.Q(`INSERT INTO mission_history (mission_id, status, detail) VALUES (?, ?, ?)`),
		m.ID, m.Status, "mission created"); err != nil {
		return fmt.Errorf("create mission history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create mission: %w", err)
	}
	// Re-read step ids assigned by the database
	steps, err := db.ListMissionSteps(m.ID)
	if err != nil {
		return err
	}
	m.Steps = steps
	return nil
}

// GetMission loads one mission with its steps.
func (db *DB) GetMission(id string) (*Mission, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM missions WHERE id=?`, missionSelectCols)), id)
	m, err := scanMission(row)
	if err != nil {
		return nil, err
	}
	m.Steps, err = db.ListMissionSteps(id)
	return m, err
}

func (db *DB) ListMissionSteps(missionID string) ([]*MissionStep, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM mission_steps WHERE mission_id=? ORDER BY seq`, stepSelectCols)), missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var steps []*MissionStep
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func (db *DB) ListMissions(status string, limit int) ([]*Mission, error) {
	var rows *sql.Rows
	var err error
	if status != "" {
		rows, err = db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM missions WHERE status=? ORDER BY created_at DESC LIMIT ?`, missionSelectCols)), status, limit)
	} else {
		rows, err = db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM missions ORDER BY created_at DESC LIMIT ?`, missionSelectCols)), limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMissions(rows)
}

// ListActiveMissions returns missions that are pending or in progress.
func (db *DB) ListActiveMissions() ([]*Mission, error) {
	rows, err := db.Query(db.Q(fmt.Sprintf(`SELECT %s FROM missions WHERE status=? OR status=? ORDER BY created_at`, missionSelectCols)),
		MissionPending, MissionInProgress)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMissions(rows)
}

// GetActiveMissionByRobot returns the robot's live mission, if any.
func (db *DB) GetActiveMissionByRobot(robotSN string) (*Mission, error) {
	row := db.QueryRow(db.Q(fmt.Sprintf(`SELECT %s FROM missions WHERE robot_sn=? AND (status=? OR status=?)`, missionSelectCols)),
		robotSN, MissionPending, MissionInProgress)
	return scanMission(row)
}

// UpdateMissionStatus sets status and appends a history row.
func (db *DB) UpdateMissionStatus(id, status, detail string) error {
	_, err := db.Exec(db.Q(`UPDATE missions SET status=?, error_detail=?, updated_at=datetime('now','localtime') WHERE id=?`),
		status, detail, id)
	if err != nil {
		return err
	}
	if status == MissionCompleted || status == MissionFailed {
		if _, err := db.Exec(db.Q(`UPDATE missions SET completed_at=datetime('now','localtime') WHERE id=?`), id); err != nil {
			return err
		}
	}
	_, err = db.Exec(db.Q(`INSERT INTO mission_history (mission_id, status, detail) VALUES (?, ?, ?)`),
		id, status, detail)
	return err
}

// TransitionMissionStatus sets status only while the mission is still in
// the expected state, so a concurrent cancel cannot be overwritten.
// Reports whether the transition happened.
func (db *DB) TransitionMissionStatus(id, from, to, detail string) (bool, error) {
	res, err := db.Exec(db.Q(`UPDATE missions SET status=?, error_detail=?, updated_at=datetime('now','localtime') WHERE id=? AND status=?`),
		to, detail, id, from)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}
	if to == MissionCompleted || to == MissionFailed {
		if _, err := db.Exec(db.Q(`UPDATE missions SET completed_at=datetime('now','localtime') WHERE id=?`), id); err != nil {
			return true, err
		}
	}
	_, err = db.Exec(db.Q(`INSERT INTO mission_history (mission_id, status, detail) VALUES (?, ?, ?)`),
		id, to, detail)
	return true, err
}

// SetMissionCurrentStep persists progress through the step list.
func (db *DB) SetMissionCurrentStep(id string, currentStep int) error {
	_, err := db.Exec(db.Q(`UPDATE missions SET current_step=?, updated_at=datetime('now','localtime') WHERE id=?`),
		currentStep, id)
	return err
}

// SetStepMove records the platform move id for a dispatched step.
func (db *DB) SetStepMove(stepID int64, moveID string) error {
	_, err := db.Exec(db.Q(`UPDATE mission_steps SET move_id=? WHERE id=?`), moveID, stepID)
	return err
}

// CompleteStep marks a step done and stores the robot's final response.
func (db *DB) CompleteStep(stepID int64, robotResponse string) error {
	_, err := db.Exec(db.Q(`UPDATE mission_steps SET completed=?, robot_response=?, error_message='' WHERE id=?`),
		true, robotResponse, stepID)
	return err
}

// RecordStepFailure stores the error text and bumps the retry counter.
func (db *DB) RecordStepFailure(stepID int64, errorMessage string, retryCount int) error {
	_, err := db.Exec(db.Q(`UPDATE mission_steps SET error_message=?, retry_count=? WHERE id=?`),
		errorMessage, retryCount, stepID)
	return err
}

// ClearCompletedMissions deletes terminal missions and their audit rows.
// Steps cascade with the mission row.
func (db *DB) ClearCompletedMissions() (int64, error) {
	res, err := db.Exec(db.Q(`DELETE FROM missions WHERE status=? OR status=?`), MissionCompleted, MissionFailed)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	_, err = db.Exec(db.Q(`DELETE FROM mission_history WHERE mission_id NOT IN (SELECT id FROM missions)`))
	return n, err
}

func (db *DB) ListMissionHistory(missionID string) ([]*MissionHistory, error) {
	rows, err := db.Query(db.Q(`SELECT id, mission_id, status, detail, created_at FROM mission_history WHERE mission_id=? ORDER BY id`), missionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*MissionHistory
	for rows.Next() {
		var h MissionHistory
		var createdAt any
		if err := rows.Scan(&h.ID, &h.MissionID, &h.Status, &h.Detail, &createdAt); err != nil {
			return nil, err
		}
		h.CreatedAt = parseTime(createdAt)
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}
