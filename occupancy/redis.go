package occupancy

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"haulcore/store"
)

// RedisStore mirrors occupancy rows into Redis so dashboards can read
// presence without touching SQL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func locationKey(location string) string {
	return "haulcore:occupancy:" + location
}

const allLocationsKey = "haulcore:occupancy-locations"

func (r *RedisStore) Set(ctx context.Context, rec *store.OccupancyRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Set(ctx, locationKey(rec.Location), data, 0)
	pipe.SAdd(ctx, allLocationsKey, rec.Location)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) Get(ctx context.Context, location string) (*store.OccupancyRecord, error) {
	data, err := r.client.Get(ctx, locationKey(location)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec store.OccupancyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *RedisStore) Delete(ctx context.Context, location string) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, locationKey(location))
	pipe.SRem(ctx, allLocationsKey, location)
	_, err := pipe.Exec(ctx)
	return err
}
