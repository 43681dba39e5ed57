package workflow

// Action is the closed set of step kinds a template may emit.
type Action string

const (
	ActionNavigate        Action = "navigate"
	ActionDock            Action = "dock"
	ActionToUnloadPoint   Action = "to_unload_point"
	ActionJackUp          Action = "jack_up"
	ActionJackDown        Action = "jack_down"
	ActionReturnToCharger Action = "return_to_charger"
)

// ActionSpec is one entry in a template's sequence. Target may contain
// the placeholders {shelf} and {target_shelf}, substituted at expansion.
// Jack actions carry no target: they act at the pose reached by the
// preceding precision approach. SkipDocking must be set explicitly on a
// _load approach whose standoff step is intentionally omitted — the
// drop-off special case — so the docking rule is never inferred from
// naming.
type ActionSpec struct {
	Action      Action `json:"action"`
	Target      string `json:"target,omitempty"`
	SkipDocking bool   `json:"skip_docking,omitempty"`
}

// Template is an immutable catalog entry. Delivers marks workflows that
// end with a bin set down at a load point; those are subject to the
// destination occupancy admission check.
type Template struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Delivers bool         `json:"delivers"`
	Sequence []ActionSpec `json:"sequence"`
}

// Params are the runtime inputs to expansion.
type Params struct {
	FloorID       string `json:"floor_id"`
	ShelfID       string `json:"shelf_id,omitempty"`
	TargetShelfID string `json:"target_shelf_id,omitempty"`
}
