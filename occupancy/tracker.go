package occupancy

import (
	"context"
	"log"

	"haulcore/store"
)

// Emitter receives occupancy change notifications.
type Emitter interface {
	EmitOccupancyChanged(location string, binPresent bool, source string)
}

// Tracker is write-through bin presence state: SQL first, then the Redis
// mirror. SQL is the durable source of truth; Redis failures are logged
// and tolerated.
type Tracker struct {
	db      *store.DB
	redis   *RedisStore
	emitter Emitter
}

func NewTracker(db *store.DB, redis *RedisStore, emitter Emitter) *Tracker {
	return &Tracker{db: db, redis: redis, emitter: emitter}
}

// SetEmitter attaches the event sink, called during engine wiring.
func (t *Tracker) SetEmitter(e Emitter) { t.emitter = e }

// Status reports whether a load point holds a bin. A location with no
// record is simply empty.
func (t *Tracker) Status(location string) (*store.OccupancyRecord, error) {
	if t.redis != nil {
		if rec, err := t.redis.Get(context.Background(), location); err == nil && rec != nil {
			return rec, nil
		}
	}
	rec, err := t.db.GetOccupancy(location)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &store.OccupancyRecord{Location: location, BinPresent: false}, nil
	}
	return rec, nil
}

// IsOccupied is the admission check used before accepting a mission
// targeting the location.
func (t *Tracker) IsOccupied(location string) (bool, error) {
	rec, err := t.Status(location)
	if err != nil {
		return false, err
	}
	return rec.BinPresent, nil
}

// SetBin records a bin at a load point. Called when a jack_down step
// completes; source attributes the write to that step.
func (t *Tracker) SetBin(location, floorID, source string) error {
	return t.write(&store.OccupancyRecord{Location: location, FloorID: floorID, BinPresent: true, Source: source})
}

// ClearBin records a bin leaving a load point. Called when a jack_up
// step completes.
func (t *Tracker) ClearBin(location, floorID, source string) error {
	return t.write(&store.OccupancyRecord{Location: location, FloorID: floorID, BinPresent: false, Source: source})
}

// Clear is the manual operator override, e.g. a bin removed by hand.
// A location with no durable row only drops its stale mirror entry.
func (t *Tracker) Clear(location, reason string) error {
	rec, err := t.db.GetOccupancy(location)
	if err != nil {
		return err
	}
	if rec == nil {
		if t.redis != nil {
			if err := t.redis.Delete(context.Background(), location); err != nil {
				log.Printf("occupancy: redis delete %s: %v", location, err)
			}
		}
		return nil
	}
	return t.write(&store.OccupancyRecord{Location: location, FloorID: rec.FloorID, BinPresent: false, Source: "manual: " + reason})
}

// List returns every tracked location from the durable store.
func (t *Tracker) List() ([]*store.OccupancyRecord, error) {
	return t.db.ListOccupancy()
}

func (t *Tracker) write(rec *store.OccupancyRecord) error {
	if err := t.db.UpsertOccupancy(rec); err != nil {
		return err
	}
	if t.redis != nil {
		if err := t.redis.Set(context.Background(), rec); err != nil {
			log.Printf("occupancy: redis mirror %s: %v", rec.Location, err)
		}
	}
	if t.emitter != nil {
		t.emitter.EmitOccupancyChanged(rec.Location, rec.BinPresent, rec.Source)
	}
	return nil
}

// SyncRedisFromSQL rebuilds the Redis mirror from the durable rows,
// called once at startup.
func (t *Tracker) SyncRedisFromSQL() error {
	if t.redis == nil {
		return nil
	}
	recs, err := t.db.ListOccupancy()
	if err != nil {
		return err
	}
	ctx := context.Background()
	for _, rec := range recs {
		if err := t.redis.Set(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
