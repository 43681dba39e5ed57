package workflow

// Built-in workflow templates. The pick-up and drop-off stations are the
// fixed central transfer points; shelves are parameterized.
//
// The drop-off approach in shelf-to-central sets SkipDocking: the
// station layout leaves no room for the standoff reversal there, and the
// omission must be an explicit choice rather than something inferred
// from the point name.
func builtinTemplates() []Template {
	return []Template{
		{
			ID:       "central-to-shelf",
			Name:     "Pick up at central station, store on shelf",
			Delivers: true,
			Sequence: []ActionSpec{
				{Action: ActionDock, Target: "pick-up_load_docking"},
				{Action: ActionToUnloadPoint, Target: "pick-up_load"},
				{Action: ActionJackUp},
				{Action: ActionDock, Target: "{shelf}_load_docking"},
				{Action: ActionToUnloadPoint, Target: "{shelf}_load"},
				{Action: ActionJackDown},
				{Action: ActionReturnToCharger},
			},
		},
		{
			ID:       "shelf-to-central",
			Name:     "Retrieve shelf, deliver to drop-off",
			Delivers: true,
			Sequence: []ActionSpec{
				{Action: ActionDock, Target: "{shelf}_load_docking"},
				{Action: ActionToUnloadPoint, Target: "{shelf}_load"},
				{Action: ActionJackUp},
				{Action: ActionToUnloadPoint, Target: "drop-off_load", SkipDocking: true},
				{Action: ActionJackDown},
				{Action: ActionReturnToCharger},
			},
		},
		{
			ID:       "shelf-move",
			Name:     "Relocate a shelf between positions",
			Delivers: true,
			Sequence: []ActionSpec{
				{Action: ActionDock, Target: "{shelf}_load_docking"},
				{Action: ActionToUnloadPoint, Target: "{shelf}_load"},
				{Action: ActionJackUp},
				{Action: ActionDock, Target: "{target_shelf}_load_docking"},
				{Action: ActionToUnloadPoint, Target: "{target_shelf}_load"},
				{Action: ActionJackDown},
				{Action: ActionReturnToCharger},
			},
		},
		{
			ID:       "return-to-charger",
			Name:     "Send robot back to its charger",
			Delivers: false,
			Sequence: []ActionSpec{
				{Action: ActionReturnToCharger},
			},
		},
	}
}
