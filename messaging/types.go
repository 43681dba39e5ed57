package messaging

// --- Inbound payloads (upstream systems -> haulcore) ---

// MissionRequest asks for a workflow run. Either TemplateID or Points
// must be set, mirroring the HTTP submission surface.
type MissionRequest struct {
	RequestUUID   string   `json:"request_uuid"`
	TemplateID    string   `json:"template_id,omitempty"`
	Points        []string `json:"points,omitempty"`
	RobotSN       string   `json:"robot_sn"`
	FloorID       string   `json:"floor_id"`
	ShelfID       string   `json:"shelf_id,omitempty"`
	TargetShelfID string   `json:"target_shelf_id,omitempty"`
	Name          string   `json:"name,omitempty"`
}

type MissionCancel struct {
	MissionID string `json:"mission_id"`
	Reason    string `json:"reason,omitempty"`
}

// OccupancyClear reports a bin removed by hand, e.g. at the drop-off
// station.
type OccupancyClear struct {
	Location string `json:"location"`
	Reason   string `json:"reason,omitempty"`
}

// --- Outbound payloads (haulcore -> upstream systems) ---

// MissionAccepted confirms a MissionRequest and carries the assigned id.
type MissionAccepted struct {
	RequestUUID string `json:"request_uuid"`
	MissionID   string `json:"mission_id"`
	RobotSN     string `json:"robot_sn"`
}

// MissionRejected reports an admission failure for a MissionRequest.
type MissionRejected struct {
	RequestUUID string `json:"request_uuid"`
	Reason      string `json:"reason"`
}

// MissionUpdate reports a mission lifecycle transition.
type MissionUpdate struct {
	MissionID  string `json:"mission_id"`
	RobotSN    string `json:"robot_sn"`
	TemplateID string `json:"template_id,omitempty"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
}

// StepUpdate reports progress through a mission's step list.
type StepUpdate struct {
	MissionID  string `json:"mission_id"`
	Seq        int    `json:"seq"`
	Action     string `json:"action"`
	PointID    string `json:"point_id,omitempty"`
	Error      string `json:"error,omitempty"`
	RetryCount int    `json:"retry_count,omitempty"`
}

// OccupancyUpdate reports a bin presence change at a load point.
type OccupancyUpdate struct {
	Location   string `json:"location"`
	BinPresent bool   `json:"bin_present"`
	Source     string `json:"source,omitempty"`
}

// RobotUpdate reports a robot API connectivity change.
type RobotUpdate struct {
	SN        string `json:"sn"`
	Connected bool   `json:"connected"`
}
