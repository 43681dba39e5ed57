package mission

import (
	"errors"
	"time"

	"haulcore/robot"
)

// Sentinel errors surfaced to submitters. Resolution and template
// errors pass through from the points and workflow packages.
var (
	// ErrRobotBusy rejects a submission for a robot that already has a
	// live mission. Requests are rejected, never queued: a single
	// physical actuator must not accumulate an unbounded backlog.
	ErrRobotBusy = errors.New("robot already has an active mission")

	// ErrPrecondition marks a robot in emergency stop or on the
	// charger. Not retriable; the condition must clear externally
	// before resubmission.
	ErrPrecondition = errors.New("robot precondition failed")

	// ErrDestinationOccupied rejects a delivery whose target load point
	// already holds a bin, before any mission record exists.
	ErrDestinationOccupied = errors.New("destination location occupied")

	// ErrUnknownRobot means no API endpoint is registered for the SN.
	ErrUnknownRobot = errors.New("unknown robot")
)

// MoveClient is the slice of the robot API the executor needs.
// *robot.Client satisfies it; tests substitute fakes.
type MoveClient interface {
	CreateMove(req *robot.MoveRequest) (string, error)
	GetMove(id string) (*robot.MoveDetail, error)
	CancelMove(id string) error
	GetStatus() (*robot.Status, error)
}

// ClientPool resolves a robot SN to its API client.
type ClientPool interface {
	ClientFor(robotSN string) (MoveClient, error)
}

// Emitter receives mission lifecycle events. The engine bridges these
// onto its event bus.
type Emitter interface {
	EmitMissionCreated(missionID, robotSN, templateID string)
	EmitMissionStarted(missionID, robotSN string)
	EmitStepCompleted(missionID string, seq int, action, pointID string)
	EmitStepFailed(missionID string, seq int, action, errMsg string, retryCount int)
	EmitMissionCompleted(missionID, robotSN string)
	EmitMissionFailed(missionID, robotSN, detail string)
	EmitMissionCancelled(missionID, robotSN, reason string)
}

// Config bounds step execution.
type Config struct {
	PollInterval time.Duration // move status poll cadence
	StepTimeout  time.Duration // hard ceiling per move
	MaxRetries   int           // reissues of a failed move before the mission fails
}

// SubmitRequest is one workflow request. Either TemplateID with Params,
// or AdhocPoints for a plain navigation run.
type SubmitRequest struct {
	TemplateID  string   `json:"template_id,omitempty"`
	AdhocPoints []string `json:"points,omitempty"`
	RobotSN     string   `json:"robot_sn"`
	FloorID     string   `json:"floor_id"`
	ShelfID     string   `json:"shelf_id,omitempty"`
	TargetShelf string   `json:"target_shelf_id,omitempty"`
	Name        string   `json:"name,omitempty"`
}
