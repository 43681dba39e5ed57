package points

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when a floor/id combination is not in the
// registry. Resolution failures are fatal for the mission that asked:
// coordinates cannot self-heal, so callers must not retry.
var ErrNotFound = errors.New("point not found")

// Registry is a symbolic-name-to-pose lookup, built at startup and
// shared by reference. Keys are lowercased; ids are matched
// case-insensitively. Floors can be swapped wholesale when a map sync
// arrives.
type Registry struct {
	mu     sync.RWMutex
	floors map[string]map[string]Point
}

// NewRegistry builds a registry from a flat point list.
func NewRegistry(pts []Point) *Registry {
	r := &Registry{floors: make(map[string]map[string]Point)}
	r.add(pts)
	return r
}

func (r *Registry) add(pts []Point) {
	for _, p := range pts {
		fl := r.floors[p.FloorID]
		if fl == nil {
			fl = make(map[string]Point)
			r.floors[p.FloorID] = fl
		}
		fl[strings.ToLower(p.ID)] = p
	}
}

// ReplaceFloor swaps out every point on one floor.
func (r *Registry) ReplaceFloor(floorID string, pts []Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.floors, floorID)
	for _, p := range pts {
		if p.FloorID != floorID {
			continue
		}
		fl := r.floors[floorID]
		if fl == nil {
			fl = make(map[string]Point)
			r.floors[floorID] = fl
		}
		fl[strings.ToLower(p.ID)] = p
	}
}

// Resolve looks up a point by floor and id.
func (r *Registry) Resolve(floorID, pointID string) (Point, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fl, ok := r.floors[floorID]
	if !ok {
		return Point{}, fmt.Errorf("floor %q: %w", floorID, ErrNotFound)
	}
	p, ok := fl[strings.ToLower(pointID)]
	if !ok {
		return Point{}, fmt.Errorf("floor %q point %q: %w", floorID, pointID, ErrNotFound)
	}
	return p, nil
}

// Has reports whether a point id exists on a floor.
func (r *Registry) Has(floorID, pointID string) bool {
	_, err := r.Resolve(floorID, pointID)
	return err == nil
}

// Floors lists known floor ids, sorted.
func (r *Registry) Floors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.floors))
	for id := range r.floors {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// FloorPoints returns all points on a floor, sorted by id.
func (r *Registry) FloorPoints(floorID string) []Point {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fl := r.floors[floorID]
	out := make([]Point, 0, len(fl))
	for _, p := range fl {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Validate checks the docking invariant: every _load point must have its
// _load_docking sibling on the same floor. Returns one error per violation.
func (r *Registry) Validate() []error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var errs []error
	for floorID, fl := range r.floors {
		for id := range fl {
			if !IsLoadPoint(id) {
				continue
			}
			dockID, err := DockingIDFor(id)
			if err != nil {
				continue
			}
			if _, ok := fl[strings.ToLower(dockID)]; !ok {
				errs = append(errs, fmt.Errorf("floor %q: load point %q has no docking point %q", floorID, id, dockID))
			}
		}
	}
	return errs
}
