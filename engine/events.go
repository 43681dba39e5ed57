package engine

const (
	EventMissionCreated EventType = iota + 1
	EventMissionStarted
	EventStepCompleted
	EventStepFailed
	EventMissionCompleted
	EventMissionFailed
	EventMissionCancelled
	EventOccupancyChanged
	EventRobotConnected
	EventRobotDisconnected
	EventMessagingConnected
	EventMessagingDisconnected
)

// --- Event payloads ---

type MissionEvent struct {
	MissionID  string
	RobotSN    string
	TemplateID string
	Detail     string
}

type StepEvent struct {
	MissionID  string
	Seq        int
	Action     string
	PointID    string
	Error      string
	RetryCount int
}

type OccupancyChangedEvent struct {
	Location   string
	BinPresent bool
	Source     string
}

type RobotConnEvent struct {
	SN string
}

type ConnectionEvent struct {
	Detail string
}
