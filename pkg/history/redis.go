package history

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/topoforge-network/topoforge/pkg/util"
)

// Key layout for the redis backend. Records are JSON blobs; sorted
// sets keep insertion order by creation timestamp.
const (
	keyTopology        = "topoforge:topology:"        // + id -> JSON
	keyTopologyIndex   = "topoforge:topologies"       // zset id by created_at
	keyValidation      = "topoforge:validation:"      // + topology id -> JSON
	keySimulations     = "topoforge:simulations:"     // + topology id -> list of JSON
	keyRecommendation  = "topoforge:recommendation:"  // + id -> JSON
	keyRecommendations = "topoforge:recommendations"  // zset id by created_at
	keyOptimization    = "topoforge:optimization:"    // + id -> JSON
	keyOptimizations   = "topoforge:optimizations"    // zset id by created_at
	keyMetric          = "topoforge:metric:"          // + pattern|red|goal -> JSON
	keyMetricIndex     = "topoforge:metrics"          // set of metric keys
)

// RedisStore is the server-backed Store for deployments where many
// pipelines share one history.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// OpenRedis connects to a redis server and verifies the connection.
func OpenRedis(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %v: %w", addr, err, util.ErrPersistence)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) putJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return persistErr("encoding record", err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return persistErr("writing "+key, err)
	}
	return nil
}

func (s *RedisStore) getJSON(ctx context.Context, key string, v interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return util.ErrNotFound
	}
	if err != nil {
		return persistErr("reading "+key, err)
	}
	return json.Unmarshal(data, v)
}

func (s *RedisStore) SaveTopology(ctx context.Context, rec *TopologyRecord) error {
	if err := s.putJSON(ctx, keyTopology+rec.ID, rec); err != nil {
		return err
	}
	if err := s.client.ZAdd(ctx, keyTopologyIndex, &redis.Z{
		Score:  float64(rec.CreatedAt.UnixNano()),
		Member: rec.ID,
	}).Err(); err != nil {
		return persistErr("indexing topology record", err)
	}
	return s.recomputeKey(ctx, rec.Pattern, rec.Redundancy, rec.DesignGoal)
}

func (s *RedisStore) GetTopology(ctx context.Context, id string) (*TopologyRecord, error) {
	var rec TopologyRecord
	if err := s.getJSON(ctx, keyTopology+id, &rec); err != nil {
		if err == util.ErrNotFound {
			return nil, fmt.Errorf("topology record %s: %w", id, util.ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) ListTopologies(ctx context.Context) ([]*TopologyRecord, error) {
	ids, err := s.client.ZRange(ctx, keyTopologyIndex, 0, -1).Result()
	if err != nil {
		return nil, persistErr("listing topology records", err)
	}
	out := make([]*TopologyRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetTopology(ctx, id)
		if err != nil {
			continue // record expired between index read and fetch
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Recent(ctx context.Context, days int) ([]*TopologyRecord, error) {
	cutoff := time.Now().AddDate(0, 0, -days).UnixNano()
	ids, err := s.client.ZRangeByScore(ctx, keyTopologyIndex, &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", cutoff),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, persistErr("listing recent topology records", err)
	}
	out := make([]*TopologyRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetTopology(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) SaveValidation(ctx context.Context, rec *ValidationRecord) error {
	if err := s.putJSON(ctx, keyValidation+rec.TopologyID, rec); err != nil {
		return err
	}
	return s.recomputeKeyForTopology(ctx, rec.TopologyID)
}

func (s *RedisStore) ValidationForTopology(ctx context.Context, topologyID string) (*ValidationRecord, error) {
	var rec ValidationRecord
	if err := s.getJSON(ctx, keyValidation+topologyID, &rec); err != nil {
		if err == util.ErrNotFound {
			return nil, fmt.Errorf("validation for topology %s: %w", topologyID, util.ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) SaveSimulation(ctx context.Context, rec *SimulationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return persistErr("encoding simulation record", err)
	}
	if err := s.client.RPush(ctx, keySimulations+rec.TopologyID, data).Err(); err != nil {
		return persistErr("writing simulation record", err)
	}
	return s.recomputeKeyForTopology(ctx, rec.TopologyID)
}

func (s *RedisStore) SimulationsForTopology(ctx context.Context, topologyID string) ([]*SimulationRecord, error) {
	items, err := s.client.LRange(ctx, keySimulations+topologyID, 0, -1).Result()
	if err != nil {
		return nil, persistErr("reading simulation records", err)
	}
	out := make([]*SimulationRecord, 0, len(items))
	for _, item := range items {
		var rec SimulationRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, persistErr("decoding simulation record", err)
		}
		out = append(out, &rec)
	}
	return out, nil
}

func (s *RedisStore) SaveRecommendation(ctx context.Context, rec *RecommendationRecord) error {
	if err := s.putJSON(ctx, keyRecommendation+rec.ID, rec); err != nil {
		return err
	}
	if err := s.client.ZAdd(ctx, keyRecommendations, &redis.Z{
		Score:  float64(rec.CreatedAt.UnixNano()),
		Member: rec.ID,
	}).Err(); err != nil {
		return persistErr("indexing recommendation record", err)
	}
	return nil
}

func (s *RedisStore) ListRecommendations(ctx context.Context) ([]*RecommendationRecord, error) {
	ids, err := s.client.ZRange(ctx, keyRecommendations, 0, -1).Result()
	if err != nil {
		return nil, persistErr("listing recommendation records", err)
	}
	out := make([]*RecommendationRecord, 0, len(ids))
	for _, id := range ids {
		var rec RecommendationRecord
		if err := s.getJSON(ctx, keyRecommendation+id, &rec); err != nil {
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}

// UpdateRecommendationFeedback is write-once; WATCH guards against a
// concurrent writer recording feedback first.
func (s *RedisStore) UpdateRecommendationFeedback(ctx context.Context, id, userSelected, topologyID string, feedback int) error {
	key := keyRecommendation + id
	var pattern, redundancy, goal string

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return fmt.Errorf("recommendation %s: %w", id, util.ErrNotFound)
		}
		if err != nil {
			return persistErr("reading recommendation record", err)
		}
		var rec RecommendationRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return persistErr("decoding recommendation record", err)
		}
		if rec.Feedback > 0 || rec.UserSelected != "" {
			return fmt.Errorf("recommendation %s feedback already recorded", id)
		}
		rec.UserSelected = userSelected
		rec.ResultingTopologyID = topologyID
		rec.Feedback = feedback

		pattern = userSelected
		if pattern == "" {
			pattern = rec.RecommendedPattern
		}
		redundancy = rec.Redundancy
		goal = rec.DesignGoal

		updated, err := json.Marshal(&rec)
		if err != nil {
			return persistErr("encoding recommendation record", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return err
	}
	return s.recomputeKey(ctx, pattern, redundancy, goal)
}

func (s *RedisStore) SaveOptimization(ctx context.Context, rec *OptimizationRecord) error {
	if err := s.putJSON(ctx, keyOptimization+rec.ID, rec); err != nil {
		return err
	}
	if err := s.client.ZAdd(ctx, keyOptimizations, &redis.Z{
		Score:  float64(rec.CreatedAt.UnixNano()),
		Member: rec.ID,
	}).Err(); err != nil {
		return persistErr("indexing optimization record", err)
	}
	return nil
}

func (s *RedisStore) ListOptimizations(ctx context.Context) ([]*OptimizationRecord, error) {
	ids, err := s.client.ZRange(ctx, keyOptimizations, 0, -1).Result()
	if err != nil {
		return nil, persistErr("listing optimization records", err)
	}
	out := make([]*OptimizationRecord, 0, len(ids))
	for _, id := range ids {
		var rec OptimizationRecord
		if err := s.getJSON(ctx, keyOptimization+id, &rec); err != nil {
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}

func (s *RedisStore) SetOptimizationOutcome(ctx context.Context, id string, actual float64) error {
	key := keyOptimization + id
	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return fmt.Errorf("optimization %s: %w", id, util.ErrNotFound)
		}
		if err != nil {
			return persistErr("reading optimization record", err)
		}
		var rec OptimizationRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return persistErr("decoding optimization record", err)
		}
		rec.ActualImprovement = actual
		rec.HasActual = true
		updated, err := json.Marshal(&rec)
		if err != nil {
			return persistErr("encoding optimization record", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}, key)
}

func (s *RedisStore) MetricsFor(ctx context.Context, redundancy, designGoal string) ([]*PerformanceMetric, error) {
	keys, err := s.client.SMembers(ctx, keyMetricIndex).Result()
	if err != nil {
		return nil, persistErr("listing metrics", err)
	}
	var out []*PerformanceMetric
	for _, k := range keys {
		var m PerformanceMetric
		if err := s.getJSON(ctx, keyMetric+k, &m); err != nil {
			continue
		}
		if m.Redundancy == redundancy && m.DesignGoal == designGoal {
			out = append(out, &m)
		}
	}
	sortMetrics(out)
	return out, nil
}

func (s *RedisStore) MetricFor(ctx context.Context, pattern, redundancy, designGoal string) (*PerformanceMetric, error) {
	var m PerformanceMetric
	key := pattern + "|" + redundancy + "|" + designGoal
	if err := s.getJSON(ctx, keyMetric+key, &m); err != nil {
		if err == util.ErrNotFound {
			return nil, fmt.Errorf("metric %s: %w", key, util.ErrNotFound)
		}
		return nil, err
	}
	return &m, nil
}

func (s *RedisStore) RecomputeMetrics(ctx context.Context) error {
	base, err := s.loadBase(ctx)
	if err != nil {
		return err
	}
	metrics := ComputeMetrics(base, time.Now())

	if err := s.client.Del(ctx, keyMetricIndex).Err(); err != nil {
		return persistErr("clearing metric index", err)
	}
	for _, m := range metrics {
		if err := s.writeMetric(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) recomputeKeyForTopology(ctx context.Context, topologyID string) error {
	rec, err := s.GetTopology(ctx, topologyID)
	if err != nil {
		return nil // orphan record; the batch recompute will settle it
	}
	return s.recomputeKey(ctx, rec.Pattern, rec.Redundancy, rec.DesignGoal)
}

func (s *RedisStore) recomputeKey(ctx context.Context, pattern, redundancy, goal string) error {
	base, err := s.loadBase(ctx)
	if err != nil {
		return err
	}
	for _, m := range ComputeMetrics(base, time.Now()) {
		if m.Pattern == pattern && m.Redundancy == redundancy && m.DesignGoal == goal {
			return s.writeMetric(ctx, m)
		}
	}
	return nil
}

func (s *RedisStore) writeMetric(ctx context.Context, m *PerformanceMetric) error {
	if err := s.putJSON(ctx, keyMetric+m.Key(), m); err != nil {
		return err
	}
	if err := s.client.SAdd(ctx, keyMetricIndex, m.Key()).Err(); err != nil {
		return persistErr("indexing metric", err)
	}
	return nil
}

func (s *RedisStore) loadBase(ctx context.Context) (baseRecords, error) {
	base := baseRecords{
		validations: make(map[string]*ValidationRecord),
		simulations: make(map[string][]*SimulationRecord),
	}
	topologies, err := s.ListTopologies(ctx)
	if err != nil {
		return base, err
	}
	base.topologies = topologies
	for _, t := range topologies {
		if v, err := s.ValidationForTopology(ctx, t.ID); err == nil {
			base.validations[t.ID] = v
		}
		sims, err := s.SimulationsForTopology(ctx, t.ID)
		if err != nil {
			return base, err
		}
		if len(sims) > 0 {
			base.simulations[t.ID] = sims
		}
	}
	recs, err := s.ListRecommendations(ctx)
	if err != nil {
		return base, err
	}
	base.recommendations = recs
	return base, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func sortMetrics(ms []*PerformanceMetric) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].Pattern < ms[j].Pattern })
}
