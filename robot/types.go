package robot

// MoveType is the closed set of motion commands the platform accepts.
type MoveType string

const (
	MoveStandard      MoveType = "standard"        // plain navigation to a pose
	MoveDock          MoveType = "dock"            // approach a standoff pose
	MoveToUnloadPoint MoveType = "to_unload_point" // precision rack alignment
	MoveJackUp        MoveType = "jack_up"
	MoveJackDown      MoveType = "jack_down"
	MoveCharge        MoveType = "charge" // return to charger
)

// MoveState is a move's lifecycle state as reported by the platform.
type MoveState string

const (
	StatePending   MoveState = "pending"
	StateMoving    MoveState = "moving"
	StateSucceeded MoveState = "succeeded"
	StateFailed    MoveState = "failed"
	StateCancelled MoveState = "cancelled"
)

func (s MoveState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// MoveRequest creates one move. Properties carries command-specific
// parameters; precision alignment requires "rack_area_id" set to the
// exact target point id.
type MoveRequest struct {
	Type       MoveType       `json:"type"`
	TargetX    float64        `json:"target_x"`
	TargetY    float64        `json:"target_y"`
	TargetOri  float64        `json:"target_ori"`
	CreatorID  string         `json:"creator_id,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// MoveCreated is the platform's reply to a move creation.
type MoveCreated struct {
	ID string `json:"id"`
}

// MoveDetail is the polled view of one move.
type MoveDetail struct {
	ID         string    `json:"id"`
	Type       MoveType  `json:"type"`
	State      MoveState `json:"state"`
	FailReason string    `json:"fail_reason,omitempty"`
	CreateTime int64     `json:"create_time,omitempty"`
}

// Status is the robot's chassis state. EmergencyStop and Charging gate
// whether navigation commands may be issued at all.
type Status struct {
	SN            string  `json:"sn"`
	Connected     bool    `json:"connected"`
	EmergencyStop bool    `json:"emergency_stop"`
	Charging      bool    `json:"charging"`
	Battery       float64 `json:"battery"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Ori           float64 `json:"ori"`
	CurrentFloor  string  `json:"current_floor"`
	JackUp        bool    `json:"jack_up"`
}
