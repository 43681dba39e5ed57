package mission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"haulcore/robot"
	"haulcore/store"
	"haulcore/workflow"
)

// runMission drives a mission's steps strictly in order until they are
// all complete or one fails. current_step always equals the number of
// completed steps, so a restart resumes exactly where it left off.
func (m *Manager) runMission(ctx context.Context, r *run) {
	mission := r.mission
	defer m.release(mission.RobotSN, r)

	client, err := m.clients.ClientFor(mission.RobotSN)
	if err != nil {
		m.failMission(r, fmt.Sprintf("no client for robot %s: %v", mission.RobotSN, err))
		return
	}

	if ctx.Err() != nil || r.isCancelled() {
		return
	}
	if mission.Status == store.MissionPending {
		ok, err := m.db.TransitionMissionStatus(mission.ID, store.MissionPending, store.MissionInProgress, "execution started")
		if err != nil {
			log.Printf("mission: %s mark in_progress: %v", mission.ID, err)
		}
		if err == nil && !ok {
			// A cancel beat us to the row; it is already terminal.
			return
		}
		mission.Status = store.MissionInProgress
		if m.emitter != nil {
			m.emitter.EmitMissionStarted(mission.ID, mission.RobotSN)
		}
	}

	for i := mission.CurrentStep; i < len(mission.Steps); i++ {
		if ctx.Err() != nil || r.isCancelled() {
			if !r.isCancelled() {
				log.Printf("mission: %s interrupted before step %d", mission.ID, i)
			}
			return
		}
		step := mission.Steps[i]
		if step.Completed {
			// Already done before a restart; the counter just lagged.
			m.advance(mission, i+1)
			continue
		}
		if err := m.executeStep(ctx, client, r, step); err != nil {
			if ctx.Err() != nil {
				if !r.isCancelled() {
					// Shutdown, not operator cancel: leave the mission
					// live so the next start resumes it.
					log.Printf("mission: %s interrupted at step %d", mission.ID, step.Seq)
				}
				return
			}
			m.failMission(r, fmt.Sprintf("step %d (%s): %v", step.Seq, step.Action, err))
			return
		}
		m.advance(mission, i+1)
		m.applyOccupancy(mission, step)
		if m.emitter != nil {
			m.emitter.EmitStepCompleted(mission.ID, step.Seq, step.Action, step.PointID)
		}
		log.Printf("mission: %s step %d/%d (%s %s) complete", mission.ID, step.Seq+1, len(mission.Steps), step.Action, step.PointID)
	}

	if ctx.Err() != nil || r.isCancelled() {
		return
	}
	ok, err := m.db.TransitionMissionStatus(mission.ID, store.MissionInProgress, store.MissionCompleted, "")
	if err != nil {
		log.Printf("mission: %s mark completed: %v", mission.ID, err)
	}
	if err == nil && !ok {
		return
	}
	mission.Status = store.MissionCompleted
	if m.emitter != nil {
		m.emitter.EmitMissionCompleted(mission.ID, mission.RobotSN)
	}
	log.Printf("mission: %s completed", mission.ID)
}

// executeStep issues one move and polls it to a terminal state,
// reissuing after robot-side failures until the retry budget runs out.
func (m *Manager) executeStep(ctx context.Context, client MoveClient, r *run, step *store.MissionStep) error {
	mission := r.mission
	var lastErr error
	if step.ErrorMessage != "" {
		// A resumed step carries its last recorded failure forward.
		lastErr = errors.New(step.ErrorMessage)
	}
	for attempt := step.RetryCount; ; attempt++ {
		if attempt > m.cfg.MaxRetries {
			if lastErr == nil {
				lastErr = errors.New("retry budget exhausted before this run")
			}
			return fmt.Errorf("retries exhausted after %d attempts: %w", attempt, lastErr)
		}
		if attempt > step.RetryCount {
			log.Printf("mission: %s step %d retry %d/%d", mission.ID, step.Seq, attempt, m.cfg.MaxRetries)
		}

		if err := m.checkPrecondition(client, step); err != nil {
			return err
		}
		// The precondition check blocks on the robot; an operator cancel
		// or shutdown that landed meanwhile must not issue the move.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if r.isCancelled() {
			return context.Canceled
		}

		moveID, err := client.CreateMove(moveRequestFor(mission, step))
		if err != nil {
			lastErr = fmt.Errorf("create move: %w", err)
		} else {
			r.setMove(moveID)
			step.MoveID = moveID
			if err := m.db.SetStepMove(step.ID, moveID); err != nil {
				log.Printf("mission: %s record move id: %v", mission.ID, err)
			}
			lastErr = m.pollMove(ctx, client, step, moveID)
			r.setMove("")
			if lastErr == nil {
				return nil
			}
			if ctx.Err() != nil {
				return lastErr
			}
		}

		step.RetryCount = attempt + 1
		step.ErrorMessage = lastErr.Error()
		if err := m.db.RecordStepFailure(step.ID, step.ErrorMessage, step.RetryCount); err != nil {
			log.Printf("mission: %s record step failure: %v", mission.ID, err)
		}
		if m.emitter != nil {
			m.emitter.EmitStepFailed(mission.ID, step.Seq, step.Action, step.ErrorMessage, step.RetryCount)
		}
	}
}

// checkPrecondition gates navigation commands on chassis state. A robot
// in emergency stop or on the charger must not be sent anywhere.
func (m *Manager) checkPrecondition(client MoveClient, step *store.MissionStep) error {
	switch workflow.Action(step.Action) {
	case workflow.ActionNavigate, workflow.ActionDock, workflow.ActionToUnloadPoint:
	default:
		return nil
	}
	status, err := client.GetStatus()
	if err != nil {
		return fmt.Errorf("%w: status unavailable: %v", ErrPrecondition, err)
	}
	if status.EmergencyStop {
		return fmt.Errorf("%w: emergency stop engaged", ErrPrecondition)
	}
	if status.Charging {
		return fmt.Errorf("%w: robot is charging", ErrPrecondition)
	}
	return nil
}

// pollMove watches one move until it succeeds, fails, or times out.
func (m *Manager) pollMove(ctx context.Context, client MoveClient, step *store.MissionStep, moveID string) error {
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()
	deadline := time.After(m.cfg.StepTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("move %s timed out after %s", moveID, m.cfg.StepTimeout)
		case <-ticker.C:
		}

		detail, err := client.GetMove(moveID)
		if err != nil {
			// Transient fetch errors don't burn the retry budget; the
			// timeout bounds how long we keep asking.
			log.Printf("mission: poll move %s: %v", moveID, err)
			continue
		}
		if !detail.State.IsTerminal() {
			continue
		}
		switch detail.State {
		case robot.StateSucceeded:
			resp, _ := json.Marshal(detail)
			if err := m.db.CompleteStep(step.ID, string(resp)); err != nil {
				return fmt.Errorf("persist step completion: %w", err)
			}
			step.Completed = true
			step.RobotResponse = string(resp)
			step.ErrorMessage = ""
			return nil
		case robot.StateCancelled:
			return fmt.Errorf("move %s cancelled on robot", moveID)
		default:
			reason := detail.FailReason
			if reason == "" {
				reason = "no reason reported"
			}
			return fmt.Errorf("move %s failed: %s", moveID, reason)
		}
	}
}

// moveRequestFor maps a persisted step onto the robot API.
func moveRequestFor(mission *store.Mission, step *store.MissionStep) *robot.MoveRequest {
	req := &robot.MoveRequest{
		TargetX:   step.TargetX,
		TargetY:   step.TargetY,
		TargetOri: step.TargetOri,
		CreatorID: "haulcore:" + mission.ID,
	}
	switch workflow.Action(step.Action) {
	case workflow.ActionDock:
		req.Type = robot.MoveDock
	case workflow.ActionToUnloadPoint:
		req.Type = robot.MoveToUnloadPoint
		req.Properties = map[string]any{"rack_area_id": step.RackAreaID}
	case workflow.ActionJackUp:
		req.Type = robot.MoveJackUp
	case workflow.ActionJackDown:
		req.Type = robot.MoveJackDown
	case workflow.ActionReturnToCharger:
		req.Type = robot.MoveCharge
	default:
		req.Type = robot.MoveStandard
	}
	return req
}

// applyOccupancy records the bin transfer implied by a completed jack
// step: jack_up empties the point the rack was lifted from, jack_down
// fills the point it was set on.
func (m *Manager) applyOccupancy(mission *store.Mission, step *store.MissionStep) {
	if step.PointID == "" {
		return
	}
	source := fmt.Sprintf("mission %s step %d", mission.ID, step.Seq)
	var err error
	switch workflow.Action(step.Action) {
	case workflow.ActionJackUp:
		err = m.tracker.ClearBin(step.PointID, mission.FloorID, source)
	case workflow.ActionJackDown:
		err = m.tracker.SetBin(step.PointID, mission.FloorID, source)
	default:
		return
	}
	if err != nil {
		log.Printf("mission: %s occupancy update %s: %v", mission.ID, step.PointID, err)
	}
}

// advance moves the completed-step counter forward in the store and in
// memory.
func (m *Manager) advance(mission *store.Mission, currentStep int) {
	if err := m.db.SetMissionCurrentStep(mission.ID, currentStep); err != nil {
		log.Printf("mission: %s advance to step %d: %v", mission.ID, currentStep, err)
	}
	mission.CurrentStep = currentStep
}

// failMission marks the mission failed unless an operator cancel
// already did.
func (m *Manager) failMission(r *run, detail string) {
	mission := r.mission
	if r.isCancelled() {
		return
	}
	if err := m.db.UpdateMissionStatus(mission.ID, store.MissionFailed, detail); err != nil {
		log.Printf("mission: %s mark failed: %v", mission.ID, err)
	}
	mission.Status = store.MissionFailed
	if m.emitter != nil {
		m.emitter.EmitMissionFailed(mission.ID, mission.RobotSN, detail)
	}
	log.Printf("mission: %s failed: %s", mission.ID, detail)
}
