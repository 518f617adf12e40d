// Package postgres provides a Postgres-backed result store with the same
// star-schema semantics as the SQLite backend, for deployments that share
// one catalogue between machines.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"hicdata/internal/infra/persistence/record"
	"hicdata/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.ResultStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/hicdata?sslmode=disable"

	uniqueViolationCode = "23505"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store is a Postgres-backed domain.ResultStore.
type Store struct {
	db  *sql.DB
	reg *domain.Registry
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS systems (
	system_id BIGSERIAL PRIMARY KEY,
	system_name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS collaborations (
	collaboration_id BIGSERIAL PRIMARY KEY,
	collaboration_name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS observables (
	observable_id BIGSERIAL PRIMARY KEY,
	observable_name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS experimental_results (
	result_id BIGSERIAL PRIMARY KEY,
	system_id BIGINT NOT NULL REFERENCES systems(system_id),
	collaboration_id BIGINT NOT NULL REFERENCES collaborations(collaboration_id),
	observable_id BIGINT NOT NULL REFERENCES observables(observable_id),
	kind TEXT NOT NULL,
	display_name TEXT NOT NULL,
	centrality_bins TEXT NOT NULL,
	value TEXT NOT NULL,
	error TEXT NOT NULL,
	reference TEXT NOT NULL,
	trigger_info TEXT NOT NULL,
	params TEXT NOT NULL,
	UNIQUE(observable_id, system_id, collaboration_id, reference)
);
CREATE TABLE IF NOT EXISTS kinematic_cuts (
	cut_id BIGSERIAL PRIMARY KEY,
	result_id BIGINT NOT NULL REFERENCES experimental_results(result_id),
	eta_min DOUBLE PRECISION, eta_max DOUBLE PRECISION,
	pt_min DOUBLE PRECISION, pt_max DOUBLE PRECISION,
	y_min DOUBLE PRECISION, y_max DOUBLE PRECISION
);
`

// Open connects to Postgres using the provided DSN (falls back to a local
// default) and applies the schema.
func Open(ctx context.Context, dsn string, reg *domain.Registry) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, reg: reg}, nil
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Save encodes the entity, resolves its dimensions and writes the fact row
// in one transaction, mirroring the SQLite backend.
func (s *Store) Save(ctx context.Context, entity domain.ObservableEntity) (resultID int64, retErr error) {
	enc, err := record.Encode(s.reg, entity)
	if err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	systemID, err := resolveDimension(ctx, tx, "systems", "system_id", "system_name", enc.SystemName)
	if err != nil {
		return 0, err
	}
	collaborationID, err := resolveDimension(ctx, tx, "collaborations", "collaboration_id", "collaboration_name", enc.Collaboration)
	if err != nil {
		return 0, err
	}
	observableID, err := resolveDimension(ctx, tx, "observables", "observable_id", "observable_name", enc.ObservableName)
	if err != nil {
		return 0, err
	}

	err = tx.QueryRowContext(ctx, `INSERT INTO experimental_results (
			system_id, collaboration_id, observable_id, kind, display_name,
			centrality_bins, value, error, reference, trigger_info, params
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING result_id`,
		systemID, collaborationID, observableID, enc.Kind, enc.DisplayName,
		enc.CentralityBins, enc.Value, enc.Error, enc.Reference, enc.TriggerInfo, enc.Params,
	).Scan(&resultID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, record.ErrDuplicateResult
		}
		return 0, fmt.Errorf("insert result: %w", err)
	}
	if entity.Cut != nil {
		if _, err := tx.ExecContext(ctx, `INSERT INTO kinematic_cuts (
				result_id, eta_min, eta_max, pt_min, pt_max, y_min, y_max
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			resultID, entity.Cut.EtaMin, entity.Cut.EtaMax,
			entity.Cut.PtMin, entity.Cut.PtMax, entity.Cut.YMin, entity.Cut.YMax,
		); err != nil {
			return 0, fmt.Errorf("insert kinematic cut: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return resultID, nil
}

// resolveDimension upserts a dimension natural key inside the caller's
// transaction. The unique constraint serializes concurrent inserts of the
// same key, so two writers can never mint two surrogate ids for it.
func resolveDimension(ctx context.Context, tx *sql.Tx, table, idCol, nameCol, name string) (int64, error) {
	insert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1) ON CONFLICT (%s) DO NOTHING`, table, nameCol, nameCol)
	if _, err := tx.ExecContext(ctx, insert, name); err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, idCol, table, nameCol)
	var id int64
	if err := tx.QueryRowContext(ctx, query, name).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.DimensionConflictError{Table: table, Key: name}
		}
		return 0, fmt.Errorf("select %s: %w", table, err)
	}
	return id, nil
}

// LoadAll returns every stored measurement of the named observable in
// insertion order.
func (s *Store) LoadAll(ctx context.Context, shortName string) ([]domain.ObservableEntity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
			r.result_id, s.system_name, c.collaboration_name, o.observable_name,
			r.kind, r.display_name, r.centrality_bins, r.value, r.error,
			r.reference, r.trigger_info, r.params,
			k.eta_min, k.eta_max, k.pt_min, k.pt_max, k.y_min, k.y_max
		FROM experimental_results r
		JOIN systems s ON s.system_id = r.system_id
		JOIN collaborations c ON c.collaboration_id = r.collaboration_id
		JOIN observables o ON o.observable_id = r.observable_id
		LEFT JOIN kinematic_cuts k ON k.result_id = r.result_id
		WHERE o.observable_name = $1
		ORDER BY r.result_id`, shortName)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", shortName, err)
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ObservableEntity
	for rows.Next() {
		var row record.Row
		var etaMin, etaMax, ptMin, ptMax, yMin, yMax sql.NullFloat64
		if err := rows.Scan(
			&row.ResultID, &row.SystemName, &row.Collaboration, &row.ObservableName,
			&row.Kind, &row.DisplayName, &row.CentralityBins, &row.Value, &row.Error,
			&row.Reference, &row.TriggerInfo, &row.Params,
			&etaMin, &etaMax, &ptMin, &ptMax, &yMin, &yMax,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		row.Cut = cutFromNullable(etaMin, etaMax, ptMin, ptMax, yMin, yMax)
		entity, err := record.Decode(s.reg, row)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", shortName, err)
	}
	if len(out) == 0 {
		return nil, domain.NotFoundError{Observable: shortName}
	}
	return out, nil
}

// Load disambiguates by the (system, collaboration, arXiv) natural triple.
func (s *Store) Load(ctx context.Context, shortName, system, collaboration, arXiv string) (domain.ObservableEntity, error) {
	entities, err := s.LoadAll(ctx, shortName)
	if err != nil {
		var nf domain.NotFoundError
		if errors.As(err, &nf) {
			return domain.ObservableEntity{}, domain.NotFoundError{
				Observable: shortName, System: system, Collaboration: collaboration, ArXiv: arXiv,
			}
		}
		return domain.ObservableEntity{}, err
	}
	for _, e := range entities {
		if e.System.Name == system && e.Collaboration == collaboration && e.Reference.ArXiv == arXiv {
			return e, nil
		}
	}
	return domain.ObservableEntity{}, domain.NotFoundError{
		Observable: shortName, System: system, Collaboration: collaboration, ArXiv: arXiv,
	}
}

func cutFromNullable(vals ...sql.NullFloat64) *domain.KinematicCut {
	present := false
	for _, v := range vals {
		if v.Valid {
			present = true
			break
		}
	}
	if !present {
		return nil
	}
	ptr := func(v sql.NullFloat64) *float64 {
		if !v.Valid {
			return nil
		}
		f := v.Float64
		return &f
	}
	return &domain.KinematicCut{
		EtaMin: ptr(vals[0]), EtaMax: ptr(vals[1]),
		PtMin: ptr(vals[2]), PtMax: ptr(vals[3]),
		YMin: ptr(vals[4]), YMax: ptr(vals[5]),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
