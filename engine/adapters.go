package engine

// missionEmitter bridges the mission package's emitter interface to the
// EventBus.
type missionEmitter struct {
	bus *EventBus
}

func (e *missionEmitter) EmitMissionCreated(missionID, robotSN, templateID string) {
	e.bus.Emit(Event{Type: EventMissionCreated, Payload: MissionEvent{
		MissionID:  missionID,
		RobotSN:    robotSN,
		TemplateID: templateID,
	}})
}

func (e *missionEmitter) EmitMissionStarted(missionID, robotSN string) {
	e.bus.Emit(Event{Type: EventMissionStarted, Payload: MissionEvent{
		MissionID: missionID,
		RobotSN:   robotSN,
	}})
}

func (e *missionEmitter) EmitStepCompleted(missionID string, seq int, action, pointID string) {
	e.bus.Emit(Event{Type: EventStepCompleted, Payload: StepEvent{
		MissionID: missionID,
		Seq:       seq,
		Action:    action,
		PointID:   pointID,
	}})
}

func (e *missionEmitter) EmitStepFailed(missionID string, seq int, action, errMsg string, retryCount int) {
	e.bus.Emit(Event{Type: EventStepFailed, Payload: StepEvent{
		MissionID:  missionID,
		Seq:        seq,
		Action:     action,
		Error:      errMsg,
		RetryCount: retryCount,
	}})
}

func (e *missionEmitter) EmitMissionCompleted(missionID, robotSN string) {
	e.bus.Emit(Event{Type: EventMissionCompleted, Payload: MissionEvent{
		MissionID: missionID,
		RobotSN:   robotSN,
	}})
}

func (e *missionEmitter) EmitMissionFailed(missionID, robotSN, detail string) {
	e.bus.Emit(Event{Type: EventMissionFailed, Payload: MissionEvent{
		MissionID: missionID,
		RobotSN:   robotSN,
		Detail:    detail,
	}})
}

func (e *missionEmitter) EmitMissionCancelled(missionID, robotSN, reason string) {
	e.bus.Emit(Event{Type: EventMissionCancelled, Payload: MissionEvent{
		MissionID: missionID,
		RobotSN:   robotSN,
		Detail:    reason,
	}})
}

// occupancyEmitter bridges the occupancy tracker's emitter interface to
// the EventBus.
type occupancyEmitter struct {
	bus *EventBus
}

func (e *occupancyEmitter) EmitOccupancyChanged(location string, binPresent bool, source string) {
	e.bus.Emit(Event{Type: EventOccupancyChanged, Payload: OccupancyChangedEvent{
		Location:   location,
		BinPresent: binPresent,
		Source:     source,
	}})
}
