package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/topoforge-network/topoforge/pkg/util"
)

// MemoryStore is an in-process Store for tests and ephemeral runs.
type MemoryStore struct {
	mu              sync.RWMutex
	topologies      []*TopologyRecord
	validations     map[string]*ValidationRecord
	simulations     map[string][]*SimulationRecord
	recommendations map[string]*RecommendationRecord
	recOrder        []string
	optimizations   map[string]*OptimizationRecord
	optOrder        []string
	metrics         map[string]*PerformanceMetric
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		validations:     make(map[string]*ValidationRecord),
		simulations:     make(map[string][]*SimulationRecord),
		recommendations: make(map[string]*RecommendationRecord),
		optimizations:   make(map[string]*OptimizationRecord),
		metrics:         make(map[string]*PerformanceMetric),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) SaveTopology(_ context.Context, rec *TopologyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.topologies = append(s.topologies, &cp)
	s.recomputeLocked()
	return nil
}

func (s *MemoryStore) GetTopology(_ context.Context, id string) (*TopologyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.topologies {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("topology record %s: %w", id, util.ErrNotFound)
}

func (s *MemoryStore) ListTopologies(_ context.Context) ([]*TopologyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*TopologyRecord, len(s.topologies))
	for i, t := range s.topologies {
		cp := *t
		out[i] = &cp
	}
	return out, nil
}

func (s *MemoryStore) Recent(_ context.Context, days int) ([]*TopologyRecord, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*TopologyRecord
	for _, t := range s.topologies {
		if !t.CreatedAt.Before(cutoff) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveValidation(_ context.Context, rec *ValidationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	cp.Violations = append([]string(nil), rec.Violations...)
	s.validations[rec.TopologyID] = &cp
	s.recomputeLocked()
	return nil
}

func (s *MemoryStore) ValidationForTopology(_ context.Context, topologyID string) (*ValidationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.validations[topologyID]
	if !ok {
		return nil, fmt.Errorf("validation for topology %s: %w", topologyID, util.ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (s *MemoryStore) SaveSimulation(_ context.Context, rec *SimulationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.simulations[rec.TopologyID] = append(s.simulations[rec.TopologyID], &cp)
	s.recomputeLocked()
	return nil
}

func (s *MemoryStore) SimulationsForTopology(_ context.Context, topologyID string) ([]*SimulationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sims := s.simulations[topologyID]
	out := make([]*SimulationRecord, len(sims))
	for i, sim := range sims {
		cp := *sim
		out[i] = &cp
	}
	return out, nil
}

func (s *MemoryStore) SaveRecommendation(_ context.Context, rec *RecommendationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	cp.Alternatives = append([]string(nil), rec.Alternatives...)
	s.recommendations[rec.ID] = &cp
	s.recOrder = append(s.recOrder, rec.ID)
	return nil
}

func (s *MemoryStore) ListRecommendations(_ context.Context) ([]*RecommendationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*RecommendationRecord, 0, len(s.recOrder))
	for _, id := range s.recOrder {
		cp := *s.recommendations[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) UpdateRecommendationFeedback(_ context.Context, id, userSelected, topologyID string, feedback int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recommendations[id]
	if !ok {
		return fmt.Errorf("recommendation %s: %w", id, util.ErrNotFound)
	}
	if rec.Feedback > 0 || rec.UserSelected != "" {
		return fmt.Errorf("recommendation %s feedback already recorded", id)
	}
	rec.UserSelected = userSelected
	rec.ResultingTopologyID = topologyID
	rec.Feedback = feedback
	s.recomputeLocked()
	return nil
}

func (s *MemoryStore) SaveOptimization(_ context.Context, rec *OptimizationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.optimizations[rec.ID] = &cp
	s.optOrder = append(s.optOrder, rec.ID)
	return nil
}

func (s *MemoryStore) ListOptimizations(_ context.Context) ([]*OptimizationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*OptimizationRecord, 0, len(s.optOrder))
	for _, id := range s.optOrder {
		cp := *s.optimizations[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) SetOptimizationOutcome(_ context.Context, id string, actual float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.optimizations[id]
	if !ok {
		return fmt.Errorf("optimization %s: %w", id, util.ErrNotFound)
	}
	rec.ActualImprovement = actual
	rec.HasActual = true
	return nil
}

func (s *MemoryStore) MetricsFor(_ context.Context, redundancy, designGoal string) ([]*PerformanceMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*PerformanceMetric
	for _, m := range s.metrics {
		if m.Redundancy == redundancy && m.DesignGoal == designGoal {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pattern < out[j].Pattern })
	return out, nil
}

func (s *MemoryStore) MetricFor(_ context.Context, pattern, redundancy, designGoal string) (*PerformanceMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.metrics[pattern+"|"+redundancy+"|"+designGoal]
	if !ok {
		return nil, fmt.Errorf("metric %s/%s/%s: %w", pattern, redundancy, designGoal, util.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) RecomputeMetrics(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
	return nil
}

func (s *MemoryStore) recomputeLocked() {
	base := baseRecords{
		topologies:  s.topologies,
		validations: s.validations,
		simulations: s.simulations,
	}
	for _, id := range s.recOrder {
		base.recommendations = append(base.recommendations, s.recommendations[id])
	}
	s.metrics = make(map[string]*PerformanceMetric)
	for _, m := range ComputeMetrics(base, time.Now()) {
		s.metrics[m.Key()] = m
	}
}

func (s *MemoryStore) Close() error {
	return nil
}
