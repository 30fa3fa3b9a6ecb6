package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/topoforge-network/topoforge/pkg/util"
)

// SQLiteStore is the default embedded backend.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the history database at path and
// applies pending migrations. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent pipelines.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

type migration struct {
	version int64
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial schema",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS topologies (
				id TEXT PRIMARY KEY,
				intent_json TEXT NOT NULL,
				pattern TEXT NOT NULL,
				site_count INTEGER NOT NULL,
				device_count INTEGER NOT NULL,
				link_count INTEGER NOT NULL,
				redundancy TEXT NOT NULL,
				protocol TEXT NOT NULL,
				design_goal TEXT NOT NULL,
				minimize_spof INTEGER NOT NULL,
				avg_degree REAL NOT NULL,
				diameter INTEGER NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS validations (
				id TEXT PRIMARY KEY,
				topology_id TEXT NOT NULL REFERENCES topologies(id),
				satisfied INTEGER NOT NULL,
				overall_score REAL NOT NULL,
				redundancy_score REAL NOT NULL,
				path_diversity_score REAL NOT NULL,
				max_hops_ok INTEGER NOT NULL,
				spof_eliminated INTEGER NOT NULL,
				pattern_matched INTEGER NOT NULL,
				violations TEXT NOT NULL,
				duration_ms INTEGER NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS simulations (
				id TEXT PRIMARY KEY,
				topology_id TEXT NOT NULL REFERENCES topologies(id),
				scenario_kind TEXT NOT NULL,
				scenario_payload TEXT NOT NULL,
				partitioned INTEGER NOT NULL,
				isolated_count INTEGER NOT NULL,
				components_count INTEGER NOT NULL,
				resilience_impact REAL NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS recommendations (
				id TEXT PRIMARY KEY,
				intent_json TEXT NOT NULL,
				redundancy TEXT NOT NULL,
				design_goal TEXT NOT NULL,
				recommended_pattern TEXT NOT NULL,
				confidence REAL NOT NULL,
				alternatives TEXT NOT NULL,
				user_selected TEXT NOT NULL DEFAULT '',
				resulting_topology_id TEXT NOT NULL DEFAULT '',
				feedback INTEGER NOT NULL DEFAULT -1,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS optimizations (
				id TEXT PRIMARY KEY,
				intent_json TEXT NOT NULL,
				original_pattern TEXT NOT NULL,
				adjusted_pattern TEXT NOT NULL,
				reason TEXT NOT NULL,
				expected_improvement REAL NOT NULL,
				actual_improvement REAL,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS performance_metrics (
				pattern TEXT NOT NULL,
				redundancy TEXT NOT NULL,
				design_goal TEXT NOT NULL,
				sample_size INTEGER NOT NULL,
				avg_overall REAL NOT NULL,
				avg_redundancy REAL NOT NULL,
				avg_path_diversity REAL NOT NULL,
				avg_resilience_impact REAL NOT NULL,
				spof_elimination_rate REAL NOT NULL,
				satisfaction_rate REAL NOT NULL,
				confidence REAL NOT NULL,
				updated_at TEXT NOT NULL,
				PRIMARY KEY (pattern, redundancy, design_goal)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_topologies_key
				ON topologies(pattern, redundancy, design_goal)`,
			`CREATE INDEX IF NOT EXISTS idx_validations_topology
				ON validations(topology_id)`,
			`CREATE INDEX IF NOT EXISTS idx_simulations_topology
				ON simulations(topology_id)`,
		},
	},
}

func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var current int64
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		for _, stmt := range m.stmts {
			if _, err := tx.Exec(stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			m.version, m.name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		util.Infof("applied history migration %d: %s", m.version, m.name)
	}
	return nil
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, util.ErrPersistence)
}

func (s *SQLiteStore) SaveTopology(ctx context.Context, rec *TopologyRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO topologies
		(id, intent_json, pattern, site_count, device_count, link_count,
		 redundancy, protocol, design_goal, minimize_spof, avg_degree, diameter, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.IntentJSON, rec.Pattern, rec.SiteCount, rec.DeviceCount, rec.LinkCount,
		rec.Redundancy, rec.Protocol, rec.DesignGoal, boolInt(rec.MinimizeSPOF),
		rec.AvgDegree, rec.Diameter, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return persistErr("saving topology record", err)
	}
	return s.recomputeKey(ctx, rec.Pattern, rec.Redundancy, rec.DesignGoal)
}

func (s *SQLiteStore) GetTopology(ctx context.Context, id string) (*TopologyRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, intent_json, pattern, site_count, device_count,
		link_count, redundancy, protocol, design_goal, minimize_spof, avg_degree, diameter, created_at
		FROM topologies WHERE id = ?`, id)
	rec, err := scanTopology(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("topology record %s: %w", id, util.ErrNotFound)
	}
	if err != nil {
		return nil, persistErr("loading topology record", err)
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTopology(r rowScanner) (*TopologyRecord, error) {
	var rec TopologyRecord
	var spof int
	var created string
	if err := r.Scan(&rec.ID, &rec.IntentJSON, &rec.Pattern, &rec.SiteCount, &rec.DeviceCount,
		&rec.LinkCount, &rec.Redundancy, &rec.Protocol, &rec.DesignGoal, &spof,
		&rec.AvgDegree, &rec.Diameter, &created); err != nil {
		return nil, err
	}
	rec.MinimizeSPOF = spof != 0
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &rec, nil
}

func (s *SQLiteStore) ListTopologies(ctx context.Context) ([]*TopologyRecord, error) {
	return s.queryTopologies(ctx, `SELECT id, intent_json, pattern, site_count, device_count,
		link_count, redundancy, protocol, design_goal, minimize_spof, avg_degree, diameter, created_at
		FROM topologies ORDER BY created_at, id`)
}

func (s *SQLiteStore) Recent(ctx context.Context, days int) ([]*TopologyRecord, error) {
	cutoff := time.Now().AddDate(0, 0, -days).UTC().Format(time.RFC3339Nano)
	return s.queryTopologies(ctx, `SELECT id, intent_json, pattern, site_count, device_count,
		link_count, redundancy, protocol, design_goal, minimize_spof, avg_degree, diameter, created_at
		FROM topologies WHERE created_at >= ? ORDER BY created_at, id`, cutoff)
}

func (s *SQLiteStore) queryTopologies(ctx context.Context, q string, args ...interface{}) ([]*TopologyRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, persistErr("querying topology records", err)
	}
	defer rows.Close()
	var out []*TopologyRecord
	for rows.Next() {
		rec, err := scanTopology(rows)
		if err != nil {
			return nil, persistErr("scanning topology record", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveValidation(ctx context.Context, rec *ValidationRecord) error {
	violations, _ := json.Marshal(rec.Violations)
	_, err := s.db.ExecContext(ctx, `INSERT INTO validations
		(id, topology_id, satisfied, overall_score, redundancy_score, path_diversity_score,
		 max_hops_ok, spof_eliminated, pattern_matched, violations, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TopologyID, boolInt(rec.Satisfied), rec.OverallScore, rec.RedundancyScore,
		rec.PathDiversityScore, boolInt(rec.MaxHopsOK), boolInt(rec.SPOFEliminated),
		boolInt(rec.PatternMatched), string(violations), rec.DurationMs,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return persistErr("saving validation record", err)
	}
	return s.recomputeKeyForTopology(ctx, rec.TopologyID)
}

func (s *SQLiteStore) ValidationForTopology(ctx context.Context, topologyID string) (*ValidationRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, topology_id, satisfied, overall_score,
		redundancy_score, path_diversity_score, max_hops_ok, spof_eliminated, pattern_matched,
		violations, duration_ms, created_at FROM validations WHERE topology_id = ?
		ORDER BY created_at DESC LIMIT 1`, topologyID)
	rec, err := scanValidation(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("validation for topology %s: %w", topologyID, util.ErrNotFound)
	}
	if err != nil {
		return nil, persistErr("loading validation record", err)
	}
	return rec, nil
}

func scanValidation(r rowScanner) (*ValidationRecord, error) {
	var rec ValidationRecord
	var satisfied, hopsOK, spofOK, patternOK int
	var violations, created string
	if err := r.Scan(&rec.ID, &rec.TopologyID, &satisfied, &rec.OverallScore,
		&rec.RedundancyScore, &rec.PathDiversityScore, &hopsOK, &spofOK, &patternOK,
		&violations, &rec.DurationMs, &created); err != nil {
		return nil, err
	}
	rec.Satisfied = satisfied != 0
	rec.MaxHopsOK = hopsOK != 0
	rec.SPOFEliminated = spofOK != 0
	rec.PatternMatched = patternOK != 0
	json.Unmarshal([]byte(violations), &rec.Violations)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &rec, nil
}

func (s *SQLiteStore) SaveSimulation(ctx context.Context, rec *SimulationRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO simulations
		(id, topology_id, scenario_kind, scenario_payload, partitioned, isolated_count,
		 components_count, resilience_impact, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TopologyID, rec.ScenarioKind, rec.ScenarioPayload, boolInt(rec.Partitioned),
		rec.IsolatedCount, rec.ComponentsCount, rec.ResilienceImpact,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return persistErr("saving simulation record", err)
	}
	return s.recomputeKeyForTopology(ctx, rec.TopologyID)
}

func (s *SQLiteStore) SimulationsForTopology(ctx context.Context, topologyID string) ([]*SimulationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, topology_id, scenario_kind, scenario_payload,
		partitioned, isolated_count, components_count, resilience_impact, created_at
		FROM simulations WHERE topology_id = ? ORDER BY created_at, id`, topologyID)
	if err != nil {
		return nil, persistErr("querying simulation records", err)
	}
	defer rows.Close()
	var out []*SimulationRecord
	for rows.Next() {
		var rec SimulationRecord
		var partitioned int
		var created string
		if err := rows.Scan(&rec.ID, &rec.TopologyID, &rec.ScenarioKind, &rec.ScenarioPayload,
			&partitioned, &rec.IsolatedCount, &rec.ComponentsCount, &rec.ResilienceImpact, &created); err != nil {
			return nil, persistErr("scanning simulation record", err)
		}
		rec.Partitioned = partitioned != 0
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveRecommendation(ctx context.Context, rec *RecommendationRecord) error {
	alternatives, _ := json.Marshal(rec.Alternatives)
	_, err := s.db.ExecContext(ctx, `INSERT INTO recommendations
		(id, intent_json, redundancy, design_goal, recommended_pattern, confidence,
		 alternatives, user_selected, resulting_topology_id, feedback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.IntentJSON, rec.Redundancy, rec.DesignGoal, rec.RecommendedPattern,
		rec.Confidence, string(alternatives), rec.UserSelected, rec.ResultingTopologyID,
		rec.Feedback, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return persistErr("saving recommendation record", err)
	}
	return nil
}

func (s *SQLiteStore) ListRecommendations(ctx context.Context) ([]*RecommendationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, intent_json, redundancy, design_goal,
		recommended_pattern, confidence, alternatives, user_selected, resulting_topology_id,
		feedback, created_at FROM recommendations ORDER BY created_at, id`)
	if err != nil {
		return nil, persistErr("querying recommendation records", err)
	}
	defer rows.Close()
	var out []*RecommendationRecord
	for rows.Next() {
		var rec RecommendationRecord
		var alternatives, created string
		if err := rows.Scan(&rec.ID, &rec.IntentJSON, &rec.Redundancy, &rec.DesignGoal,
			&rec.RecommendedPattern, &rec.Confidence, &alternatives, &rec.UserSelected,
			&rec.ResultingTopologyID, &rec.Feedback, &created); err != nil {
			return nil, persistErr("scanning recommendation record", err)
		}
		json.Unmarshal([]byte(alternatives), &rec.Alternatives)
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateRecommendationFeedback(ctx context.Context, id, userSelected, topologyID string, feedback int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE recommendations
		SET user_selected = ?, resulting_topology_id = ?, feedback = ?
		WHERE id = ? AND feedback < 1 AND user_selected = ''`,
		userSelected, topologyID, feedback, id)
	if err != nil {
		return persistErr("updating recommendation feedback", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("recommendation %s missing or feedback already recorded: %w", id, util.ErrNotFound)
	}
	var redundancy, goal string
	if err := s.db.QueryRowContext(ctx, `SELECT redundancy, design_goal FROM recommendations WHERE id = ?`, id).
		Scan(&redundancy, &goal); err == nil {
		pattern := userSelected
		if pattern == "" {
			if err := s.db.QueryRowContext(ctx,
				`SELECT recommended_pattern FROM recommendations WHERE id = ?`, id).Scan(&pattern); err != nil {
				return nil
			}
		}
		return s.recomputeKey(ctx, pattern, redundancy, goal)
	}
	return nil
}

func (s *SQLiteStore) SaveOptimization(ctx context.Context, rec *OptimizationRecord) error {
	var actual interface{}
	if rec.HasActual {
		actual = rec.ActualImprovement
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO optimizations
		(id, intent_json, original_pattern, adjusted_pattern, reason,
		 expected_improvement, actual_improvement, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.IntentJSON, rec.OriginalPattern, rec.AdjustedPattern, rec.Reason,
		rec.ExpectedImprovement, actual, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return persistErr("saving optimization record", err)
	}
	return nil
}

func (s *SQLiteStore) ListOptimizations(ctx context.Context) ([]*OptimizationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, intent_json, original_pattern, adjusted_pattern,
		reason, expected_improvement, actual_improvement, created_at
		FROM optimizations ORDER BY created_at, id`)
	if err != nil {
		return nil, persistErr("querying optimization records", err)
	}
	defer rows.Close()
	var out []*OptimizationRecord
	for rows.Next() {
		var rec OptimizationRecord
		var actual sql.NullFloat64
		var created string
		if err := rows.Scan(&rec.ID, &rec.IntentJSON, &rec.OriginalPattern, &rec.AdjustedPattern,
			&rec.Reason, &rec.ExpectedImprovement, &actual, &created); err != nil {
			return nil, persistErr("scanning optimization record", err)
		}
		if actual.Valid {
			rec.ActualImprovement = actual.Float64
			rec.HasActual = true
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SetOptimizationOutcome(ctx context.Context, id string, actual float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE optimizations SET actual_improvement = ? WHERE id = ?`, actual, id)
	if err != nil {
		return persistErr("updating optimization outcome", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("optimization %s: %w", id, util.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) MetricsFor(ctx context.Context, redundancy, designGoal string) ([]*PerformanceMetric, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT pattern, redundancy, design_goal, sample_size,
		avg_overall, avg_redundancy, avg_path_diversity, avg_resilience_impact,
		spof_elimination_rate, satisfaction_rate, confidence, updated_at
		FROM performance_metrics WHERE redundancy = ? AND design_goal = ? ORDER BY pattern`,
		redundancy, designGoal)
	if err != nil {
		return nil, persistErr("querying performance metrics", err)
	}
	defer rows.Close()
	var out []*PerformanceMetric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, persistErr("scanning performance metric", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MetricFor(ctx context.Context, pattern, redundancy, designGoal string) (*PerformanceMetric, error) {
	row := s.db.QueryRowContext(ctx, `SELECT pattern, redundancy, design_goal, sample_size,
		avg_overall, avg_redundancy, avg_path_diversity, avg_resilience_impact,
		spof_elimination_rate, satisfaction_rate, confidence, updated_at
		FROM performance_metrics WHERE pattern = ? AND redundancy = ? AND design_goal = ?`,
		pattern, redundancy, designGoal)
	m, err := scanMetric(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("metric %s/%s/%s: %w", pattern, redundancy, designGoal, util.ErrNotFound)
	}
	if err != nil {
		return nil, persistErr("loading performance metric", err)
	}
	return m, nil
}

func scanMetric(r rowScanner) (*PerformanceMetric, error) {
	var m PerformanceMetric
	var updated string
	if err := r.Scan(&m.Pattern, &m.Redundancy, &m.DesignGoal, &m.SampleSize,
		&m.AvgOverall, &m.AvgRedundancy, &m.AvgPathDiversity, &m.AvgResilienceImpact,
		&m.SPOFEliminationRate, &m.SatisfactionRate, &m.Confidence, &updated); err != nil {
		return nil, err
	}
	m.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &m, nil
}

// RecomputeMetrics rebuilds every aggregate row from the base
// tables.
func (s *SQLiteStore) RecomputeMetrics(ctx context.Context) error {
	base, err := s.loadBase(ctx, "", "", "")
	if err != nil {
		return err
	}
	metrics := ComputeMetrics(base, time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("recomputing metrics", err)
	}
	if _, err := tx.Exec(`DELETE FROM performance_metrics`); err != nil {
		tx.Rollback()
		return persistErr("recomputing metrics", err)
	}
	for _, m := range metrics {
		if err := upsertMetric(tx, m); err != nil {
			tx.Rollback()
			return persistErr("recomputing metrics", err)
		}
	}
	return tx.Commit()
}

// recomputeKeyForTopology refreshes the aggregate the topology
// contributes to.
func (s *SQLiteStore) recomputeKeyForTopology(ctx context.Context, topologyID string) error {
	var pattern, redundancy, goal string
	err := s.db.QueryRowContext(ctx,
		`SELECT pattern, redundancy, design_goal FROM topologies WHERE id = ?`, topologyID).
		Scan(&pattern, &redundancy, &goal)
	if err == sql.ErrNoRows {
		return nil // orphan record; the batch recompute will settle it
	}
	if err != nil {
		return persistErr("resolving metric key", err)
	}
	return s.recomputeKey(ctx, pattern, redundancy, goal)
}

// recomputeKey recomputes a single (pattern, redundancy, goal)
// aggregate from the base tables inside one transaction, so readers
// see either the old or the new row, never a partial update.
func (s *SQLiteStore) recomputeKey(ctx context.Context, pattern, redundancy, goal string) error {
	base, err := s.loadBase(ctx, pattern, redundancy, goal)
	if err != nil {
		return err
	}
	metrics := ComputeMetrics(base, time.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistErr("updating metric", err)
	}
	if _, err := tx.Exec(`DELETE FROM performance_metrics
		WHERE pattern = ? AND redundancy = ? AND design_goal = ?`, pattern, redundancy, goal); err != nil {
		tx.Rollback()
		return persistErr("updating metric", err)
	}
	for _, m := range metrics {
		if m.Pattern != pattern || m.Redundancy != redundancy || m.DesignGoal != goal {
			continue
		}
		if err := upsertMetric(tx, m); err != nil {
			tx.Rollback()
			return persistErr("updating metric", err)
		}
	}
	return tx.Commit()
}

func upsertMetric(tx *sql.Tx, m *PerformanceMetric) error {
	_, err := tx.Exec(`INSERT INTO performance_metrics
		(pattern, redundancy, design_goal, sample_size, avg_overall, avg_redundancy,
		 avg_path_diversity, avg_resilience_impact, spof_elimination_rate,
		 satisfaction_rate, confidence, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pattern, redundancy, design_goal) DO UPDATE SET
		 sample_size = excluded.sample_size,
		 avg_overall = excluded.avg_overall,
		 avg_redundancy = excluded.avg_redundancy,
		 avg_path_diversity = excluded.avg_path_diversity,
		 avg_resilience_impact = excluded.avg_resilience_impact,
		 spof_elimination_rate = excluded.spof_elimination_rate,
		 satisfaction_rate = excluded.satisfaction_rate,
		 confidence = excluded.confidence,
		 updated_at = excluded.updated_at`,
		m.Pattern, m.Redundancy, m.DesignGoal, m.SampleSize, m.AvgOverall, m.AvgRedundancy,
		m.AvgPathDiversity, m.AvgResilienceImpact, m.SPOFEliminationRate,
		m.SatisfactionRate, m.Confidence, m.UpdatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// loadBase loads the base records feeding aggregation. Empty filter
// values load everything.
func (s *SQLiteStore) loadBase(ctx context.Context, pattern, redundancy, goal string) (baseRecords, error) {
	base := baseRecords{
		validations: make(map[string]*ValidationRecord),
		simulations: make(map[string][]*SimulationRecord),
	}

	var topologies []*TopologyRecord
	var err error
	if pattern == "" {
		topologies, err = s.ListTopologies(ctx)
	} else {
		topologies, err = s.queryTopologies(ctx, `SELECT id, intent_json, pattern, site_count,
			device_count, link_count, redundancy, protocol, design_goal, minimize_spof,
			avg_degree, diameter, created_at FROM topologies
			WHERE pattern = ? AND redundancy = ? AND design_goal = ? ORDER BY created_at, id`,
			pattern, redundancy, goal)
	}
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
	for _, r := range recs {
		if pattern != "" {
			p := r.UserSelected
			if p == "" {
				p = r.RecommendedPattern
			}
			if p != pattern || r.Redundancy != redundancy || r.DesignGoal != goal {
				continue
			}
		}
		base.recommendations = append(base.recommendations, r)
	}
	return base, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
