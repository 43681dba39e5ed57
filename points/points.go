package points

import (
	"fmt"
	"strings"
)

// Naming convention for map points: a bare id is a waypoint or shelf
// position, "<id>_load" is the precision pose for lifting at that
// position, and "<id>_load_docking" is the standoff pose the robot must
// reach before the precision approach.
const (
	LoadSuffix    = "_load"
	DockingSuffix = "_load_docking"
)

// Reserved point ids with fixed roles.
const (
	IDPickup  = "pick-up"
	IDDropoff = "drop-off"
	IDDesk    = "desk"
	IDStandby = "standby"
	IDCharger = "charger"
)

// Point is one named pose on a floor map.
type Point struct {
	ID      string  `json:"id"`
	FloorID string  `json:"floor_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Ori     float64 `json:"ori"`
}

// Role classifies a point id by naming convention.
type Role string

const (
	RoleShelf   Role = "shelf"
	RoleDock    Role = "dock"
	RolePickup  Role = "pickup"
	RoleDropoff Role = "dropoff"
	RoleStandby Role = "standby"
	RoleCharger Role = "charger"
	RoleUnknown Role = "unknown"
)

// Classify infers a point's role from its id. Pure string logic, no I/O,
// so the convention stays unit-testable in one place.
func Classify(id string) Role {
	lower := strings.ToLower(id)
	switch {
	case lower == "":
		return RoleUnknown
	case strings.HasSuffix(lower, DockingSuffix):
		return RoleDock
	case strings.Contains(lower, "pick"):
		return RolePickup
	case strings.Contains(lower, "drop"):
		return RoleDropoff
	case strings.Contains(lower, "desk"), strings.Contains(lower, "standby"):
		return RoleStandby
	case strings.Contains(lower, "charg"):
		return RoleCharger
	default:
		return RoleShelf
	}
}

// IsLoadPoint reports whether id names a precision load pose
// (has the _load suffix but not the _load_docking suffix).
func IsLoadPoint(id string) bool {
	lower := strings.ToLower(id)
	return strings.HasSuffix(lower, LoadSuffix) && !strings.HasSuffix(lower, DockingSuffix)
}

// DockingIDFor derives the standoff pose id for a load-pose id by
// appending "_docking". The suffix match is case-insensitive but the
// returned id preserves the caller's casing.
func DockingIDFor(loadID string) (string, error) {
	if !IsLoadPoint(loadID) {
		return "", fmt.Errorf("derive docking id: %q is not a load point", loadID)
	}
	return loadID + "_docking", nil
}
