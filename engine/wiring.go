package engine

import (
	"haulcore/messaging"
	"haulcore/store"
)

func (e *Engine) wireEventHandlers() {
	// Mission lifecycle: log and notify upstream via the outbox
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(MissionEvent)
		e.logFn("engine: mission %s created for robot %s", ev.MissionID, ev.RobotSN)
		e.publishEvent(messaging.TypeMissionUpdate, messaging.MissionUpdate{
			MissionID:  ev.MissionID,
			RobotSN:    ev.RobotSN,
			TemplateID: ev.TemplateID,
			Status:     store.MissionPending,
		})
	}, EventMissionCreated)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(MissionEvent)
		e.publishEvent(messaging.TypeMissionUpdate, messaging.MissionUpdate{
			MissionID: ev.MissionID,
			RobotSN:   ev.RobotSN,
			Status:    store.MissionInProgress,
		})
	}, EventMissionStarted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(MissionEvent)
		e.logFn("engine: mission %s completed", ev.MissionID)
		e.publishEvent(messaging.TypeMissionUpdate, messaging.MissionUpdate{
			MissionID: ev.MissionID,
			RobotSN:   ev.RobotSN,
			Status:    store.MissionCompleted,
		})
	}, EventMissionCompleted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(MissionEvent)
		e.logFn("engine: mission %s failed: %s", ev.MissionID, ev.Detail)
		e.publishEvent(messaging.TypeMissionUpdate, messaging.MissionUpdate{
			MissionID: ev.MissionID,
			RobotSN:   ev.RobotSN,
			Status:    store.MissionFailed,
			Detail:    ev.Detail,
		})
	}, EventMissionFailed)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(MissionEvent)
		e.logFn("engine: mission %s cancelled: %s", ev.MissionID, ev.Detail)
		e.publishEvent(messaging.TypeMissionUpdate, messaging.MissionUpdate{
			MissionID: ev.MissionID,
			RobotSN:   ev.RobotSN,
			Status:    store.MissionFailed,
			Detail:    "cancelled: " + ev.Detail,
		})
	}, EventMissionCancelled)

	// Step progress
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(StepEvent)
		e.publishEvent(messaging.TypeStepUpdate, messaging.StepUpdate{
			MissionID: ev.MissionID,
			Seq:       ev.Seq,
			Action:    ev.Action,
			PointID:   ev.PointID,
		})
	}, EventStepCompleted)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(StepEvent)
		e.logFn("engine: mission %s step %d (%s) failed: %s (retry %d)", ev.MissionID, ev.Seq, ev.Action, ev.Error, ev.RetryCount)
		e.publishEvent(messaging.TypeStepUpdate, messaging.StepUpdate{
			MissionID:  ev.MissionID,
			Seq:        ev.Seq,
			Action:     ev.Action,
			Error:      ev.Error,
			RetryCount: ev.RetryCount,
		})
	}, EventStepFailed)

	// Occupancy changes
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(OccupancyChangedEvent)
		e.logFn("engine: occupancy %s bin_present=%v (%s)", ev.Location, ev.BinPresent, ev.Source)
		e.publishEvent(messaging.TypeOccupancyUpdate, messaging.OccupancyUpdate{
			Location:   ev.Location,
			BinPresent: ev.BinPresent,
			Source:     ev.Source,
		})
	}, EventOccupancyChanged)

	// Robot connectivity
	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(RobotConnEvent)
		connected := evt.Type == EventRobotConnected
		e.logFn("engine: robot %s connected=%v", ev.SN, connected)
		e.publishEvent(messaging.TypeRobotUpdate, messaging.RobotUpdate{SN: ev.SN, Connected: connected})
	}, EventRobotConnected, EventRobotDisconnected)

	e.Events.SubscribeTypes(func(evt Event) {
		ev := evt.Payload.(ConnectionEvent)
		e.logFn("engine: %s", ev.Detail)
	}, EventMessagingConnected, EventMessagingDisconnected)
}

// publishEvent wraps a payload in an envelope and queues it on the
// outbox; the drainer delivers it when the broker is reachable.
func (e *Engine) publishEvent(msgType string, payload any) {
	data, err := messaging.NewEnvelope(msgType, e.cfg.Messaging.SiteID, payload).Encode()
	if err != nil {
		e.logFn("engine: encode %s event: %v", msgType, err)
		return
	}
	if err := e.db.EnqueueOutbox(e.cfg.Messaging.EventsTopic, data, msgType); err != nil {
		e.logFn("engine: enqueue %s event: %v", msgType, err)
	}
}
