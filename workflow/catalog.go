package workflow

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"haulcore/points"
	"haulcore/store"
)

// ErrTemplate marks malformed or under-specified workflow requests.
// These are rejected at submission time, before a mission exists.
var ErrTemplate = errors.New("template error")

// Catalog holds the workflow templates, registered once at startup and
// immutable afterwards. Expansion resolves every referenced point up
// front so a mission can never be created that would fail resolution
// mid-execution.
type Catalog struct {
	registry  *points.Registry
	templates map[string]Template
}

// NewCatalog builds a catalog with the built-in templates registered.
func NewCatalog(registry *points.Registry) *Catalog {
	c := &Catalog{
		registry:  registry,
		templates: make(map[string]Template),
	}
	for _, t := range builtinTemplates() {
		c.register(t)
	}
	return c
}

func (c *Catalog) register(t Template) {
	c.templates[t.ID] = t
}

// Get returns a template by id.
func (c *Catalog) Get(id string) (Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// List returns all templates sorted by id.
func (c *Catalog) List() []Template {
	out := make([]Template, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Expand substitutes params into a template and resolves every point,
// producing the concrete ordered step list for a mission.
func (c *Catalog) Expand(templateID string, p Params) ([]*store.MissionStep, error) {
	t, ok := c.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("unknown template %q: %w", templateID, ErrTemplate)
	}
	if p.FloorID == "" {
		return nil, fmt.Errorf("template %q: floor id required: %w", templateID, ErrTemplate)
	}

	var steps []*store.MissionStep
	lastLoadPoint := "" // precision pose most recently approached
	for i, spec := range t.Sequence {
		target, err := substitute(spec.Target, p)
		if err != nil {
			return nil, fmt.Errorf("template %q step %d: %w", templateID, i, err)
		}

		step := &store.MissionStep{Seq: i, Action: string(spec.Action)}
		switch spec.Action {
		case ActionNavigate, ActionDock, ActionToUnloadPoint:
			pt, err := c.registry.Resolve(p.FloorID, target)
			if err != nil {
				return nil, err
			}
			step.PointID = pt.ID
			step.TargetX, step.TargetY, step.TargetOri = pt.X, pt.Y, pt.Ori
			if spec.Action == ActionToUnloadPoint {
				// rack_area_id must equal the exact target point id,
				// never a prefix or pattern.
				step.RackAreaID = pt.ID
				if err := c.checkDockingPrecedence(t, i, pt.ID, spec.SkipDocking, steps, p.FloorID); err != nil {
					return nil, err
				}
				lastLoadPoint = pt.ID
			}
		case ActionJackUp, ActionJackDown:
			if lastLoadPoint == "" {
				return nil, fmt.Errorf("template %q step %d: %s without a preceding load approach: %w",
					templateID, i, spec.Action, ErrTemplate)
			}
			step.PointID = lastLoadPoint
		case ActionReturnToCharger:
			pt, err := c.registry.Resolve(p.FloorID, points.IDCharger)
			if err != nil {
				return nil, err
			}
			step.PointID = pt.ID
			step.TargetX, step.TargetY, step.TargetOri = pt.X, pt.Y, pt.Ori
		default:
			return nil, fmt.Errorf("template %q step %d: unknown action %q: %w", templateID, i, spec.Action, ErrTemplate)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// checkDockingPrecedence enforces the approach rule: a _load target must
// be reached via its _load_docking standoff in the immediately preceding
// step, unless the template explicitly skips docking for that approach.
func (c *Catalog) checkDockingPrecedence(t Template, idx int, loadID string, skip bool, prior []*store.MissionStep, floorID string) error {
	if !points.IsLoadPoint(loadID) {
		return nil
	}
	if skip {
		return nil
	}
	dockID, err := points.DockingIDFor(loadID)
	if err != nil {
		return err
	}
	if len(prior) == 0 || !strings.EqualFold(prior[len(prior)-1].PointID, dockID) {
		return fmt.Errorf("template %q step %d: approach to %q must follow docking step %q: %w",
			t.ID, idx, loadID, dockID, ErrTemplate)
	}
	// The docking point itself must resolve; Resolve already ran for the
	// prior step, but re-check guards registries edited between steps.
	if !c.registry.Has(floorID, dockID) {
		return fmt.Errorf("floor %q point %q: %w", floorID, dockID, points.ErrNotFound)
	}
	return nil
}

// ExpandAdhoc builds a plain navigation mission visiting the given
// points in order.
func (c *Catalog) ExpandAdhoc(floorID string, pointIDs []string) ([]*store.MissionStep, error) {
	if len(pointIDs) == 0 {
		return nil, fmt.Errorf("adhoc mission needs at least one point: %w", ErrTemplate)
	}
	var steps []*store.MissionStep
	for i, id := range pointIDs {
		pt, err := c.registry.Resolve(floorID, id)
		if err != nil {
			return nil, err
		}
		steps = append(steps, &store.MissionStep{
			Seq:       i,
			Action:    string(ActionNavigate),
			PointID:   pt.ID,
			TargetX:   pt.X,
			TargetY:   pt.Y,
			TargetOri: pt.Ori,
		})
	}
	return steps, nil
}

// DeliveryPoint returns the load point where the workflow sets its bin
// down: the point of the last jack_down step, or "" for non-delivering
// workflows.
func DeliveryPoint(steps []*store.MissionStep) string {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].Action == string(ActionJackDown) {
			return steps[i].PointID
		}
	}
	return ""
}

// PickupPoint returns the load point the workflow lifts its bin from:
// the point of the first jack_up step, or "".
func PickupPoint(steps []*store.MissionStep) string {
	for _, s := range steps {
		if s.Action == string(ActionJackUp) {
			return s.PointID
		}
	}
	return ""
}

func substitute(target string, p Params) (string, error) {
	if target == "" {
		return "", nil
	}
	out := target
	if strings.Contains(out, "{shelf}") {
		if p.ShelfID == "" {
			return "", fmt.Errorf("shelf id required: %w", ErrTemplate)
		}
		out = strings.ReplaceAll(out, "{shelf}", p.ShelfID)
	}
	if strings.Contains(out, "{target_shelf}") {
		if p.TargetShelfID == "" {
			return "", fmt.Errorf("target shelf id required: %w", ErrTemplate)
		}
		out = strings.ReplaceAll(out, "{target_shelf}", p.TargetShelfID)
	}
	if i := strings.IndexByte(out, '{'); i >= 0 {
		return "", fmt.Errorf("unresolved placeholder in %q: %w", target, ErrTemplate)
	}
	return out, nil
}
